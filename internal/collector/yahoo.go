package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"StockInfo/internal/dates"
	"StockInfo/internal/model"
)

// DefaultYahooURL is the public chart API root.
const DefaultYahooURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	client    *resty.Client
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(baseURL, proxyURL string) *YahooFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &YahooFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
		client: client,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

// yahooRange picks the smallest chart range covering count sessions.
func yahooRange(count int) string {
	switch {
	case count <= 20:
		return "1mo"
	case count <= 60:
		return "3mo"
	case count <= 120:
		return "6mo"
	case count <= 250:
		return "1y"
	case count <= 500:
		return "2y"
	case count <= 1250:
		return "5y"
	default:
		return "max"
	}
}

func (f *YahooFetcher) FetchDailyHistory(ctx context.Context, symbol string, count int) ([]model.RawRecord, error) {
	u := f.BaseURL + "/v8/finance/chart/" + url.PathEscape(f.yahooSymbol(symbol))
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"interval": "1d", "range": yahooRange(count)}).
		Get(u)
	if err != nil {
		return nil, serverError(f.Name(), symbol, "request failed", err)
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(resp.Body(), &chart)
	if decodeErr == nil && chart.Chart.Error != nil {
		if strings.EqualFold(chart.Chart.Error.Code, "Not Found") {
			return nil, notFound(f.Name(), symbol)
		}
		if resp.StatusCode() < 400 {
			return nil, serverError(f.Name(), symbol, "yahoo api error: "+chart.Chart.Error.Description, nil)
		}
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, notFound(f.Name(), symbol)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, rateLimited(f.Name(), symbol, "yahoo throttled the request")
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError(f.Name(), symbol, resp.StatusCode(), resp.Body())
	}
	if decodeErr != nil {
		return nil, serverError(f.Name(), symbol, "decode response", decodeErr)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, notFound(f.Name(), symbol)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}
	sym := strings.ToUpper(symbol)
	records := make([]model.RawRecord, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c, ok := at(quote.Close, i)
		if !ok {
			continue // skip null bars (holidays etc.)
		}
		o, _ := at(quote.Open, i)
		h, _ := at(quote.High, i)
		l, _ := at(quote.Low, i)
		v, _ := at(quote.Volume, i)
		ac, ok := at(adj, i)
		if !ok {
			ac = c
		}
		records = append(records, model.RawRecord{
			Symbol:        sym,
			Date:          dates.Day(time.Unix(ts+result.Meta.GMTOffset, 0)),
			Open:          o,
			High:          h,
			Low:           l,
			Close:         c,
			AdjustedClose: ac,
			Volume:        int64(v),
		})
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return trimTail(dedupeDays(records), count), nil
}

// dedupeDays keeps the last record per day of an ascending slice. Yahoo
// appends a live bar that can share a day with the final session.
func dedupeDays(records []model.RawRecord) []model.RawRecord {
	out := records[:0]
	for _, r := range records {
		if n := len(out); n > 0 && out[n-1].Date.Equal(r.Date) {
			out[n-1] = r
			continue
		}
		out = append(out, r)
	}
	return out
}
