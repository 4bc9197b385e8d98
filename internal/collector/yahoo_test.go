package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// timestamps are 09:30 New York on 2025-02-13/14/18, gmtoffset -18000
const sampleChart = `{"chart":{"result":[{
  "meta":{"gmtoffset":-18000},
  "timestamp":[1739457000,1739543400,1739889000],
  "indicators":{
    "quote":[{"open":[1,2,3],"high":[1.5,2.5,3.5],"low":[0.5,1.5,2.5],"close":[1.2,null,3.2],"volume":[100,200,300]}],
    "adjclose":[{"adjclose":[1.1,null,3.1]}]
  }}],"error":null}}`

func TestYahoo_FetchDailyHistory(t *testing.T) {
	var path, rng string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, rng = r.URL.Path, r.URL.Query().Get("range")
		w.Write([]byte(sampleChart))
	}))
	defer srv.Close()

	f := NewYahooFetcher(srv.URL, "")
	records, err := f.FetchDailyHistory(context.Background(), "spy", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/v8/finance/chart/spy" || rng != "1mo" {
		t.Errorf("unexpected request %s range=%s", path, rng)
	}
	if len(records) != 2 {
		t.Fatalf("expected null bar skipped, got %d records", len(records))
	}
	if got := records[1].Date.Format("2006-01-02"); got != "2025-02-18" {
		t.Errorf("expected 2025-02-18, got %s", got)
	}
	if records[0].AdjustedClose != 1.1 || records[1].Close != 3.2 || records[1].Symbol != "SPY" {
		t.Errorf("unexpected records %+v", records)
	}
}

func TestYahoo_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   int
		class  Class
	}{
		{"not found", 404, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`, 404, ClassClient},
		{"throttled", 429, `Too Many Requests`, 429, ClassClient},
		{"outage", 502, `bad gateway`, 502, ClassServer},
		{"empty", 200, `{"chart":{"result":[],"error":null}}`, 404, ClassClient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(tt.status, tt.body)
			defer srv.Close()
			_, err := NewYahooFetcher(srv.URL, "").FetchDailyHistory(context.Background(), "ZZZZ", 10)
			ue, ok := AsUpstream(err)
			if !ok || ue.Status != tt.code || ue.Class != tt.class {
				t.Fatalf("expected %s/%d, got %v", tt.class, tt.code, err)
			}
		})
	}
}

func TestYahooRange(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{10, "1mo"}, {45, "3mo"}, {100, "6mo"}, {200, "1y"}, {400, "2y"}, {1000, "5y"}, {5000, "max"},
	}
	for _, tt := range tests {
		if got := yahooRange(tt.count); got != tt.want {
			t.Errorf("count %d: expected %s, got %s", tt.count, tt.want, got)
		}
	}
}
