package collector

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"StockInfo/internal/dates"
	"StockInfo/internal/model"
)

// avEnvelope is the daily time series document served by Alpha Vantage.
type avEnvelope struct {
	MetaData     map[string]string            `json:"Meta Data,omitempty"`
	TimeSeries   map[string]map[string]string `json:"Time Series (Daily),omitempty"`
	ErrorMessage string                       `json:"Error Message,omitempty"`
	Information  string                       `json:"Information,omitempty"`
	Note         string                       `json:"Note,omitempty"`
}

// ParseAlphaVantage decodes a daily time series document into ascending
// records. In-band error documents are mapped to client-class errors.
func ParseAlphaVantage(source, symbol string, body []byte) ([]model.RawRecord, error) {
	var env avEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, serverError(source, symbol, "decode response", err)
	}
	switch {
	case env.ErrorMessage != "":
		return nil, notFound(source, symbol)
	case env.Information != "":
		return nil, rateLimited(source, symbol, env.Information)
	case env.Note != "":
		return nil, rateLimited(source, symbol, env.Note)
	}
	if env.TimeSeries == nil {
		return nil, serverError(source, symbol, "response has no time series", nil)
	}

	sym := strings.ToUpper(env.MetaData["2. Symbol"])
	if sym == "" {
		sym = strings.ToUpper(symbol)
	}
	records := make([]model.RawRecord, 0, len(env.TimeSeries))
	for day, fields := range env.TimeSeries {
		rec, err := toRecord(sym, day, fields)
		if err != nil {
			return nil, serverError(source, symbol, "parse record "+day, err)
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records, nil
}

func toRecord(symbol, day string, f map[string]string) (model.RawRecord, error) {
	d, err := dates.Parse(day)
	if err != nil {
		return model.RawRecord{}, err
	}
	num := func(keys ...string) (float64, error) {
		for _, k := range keys {
			if v, ok := f[k]; ok {
				return strconv.ParseFloat(v, 64)
			}
		}
		return 0, fmt.Errorf("missing field %q", keys[0])
	}
	rec := model.RawRecord{Symbol: symbol, Date: d}
	if rec.Open, err = num("1. open"); err != nil {
		return rec, err
	}
	if rec.High, err = num("2. high"); err != nil {
		return rec, err
	}
	if rec.Low, err = num("3. low"); err != nil {
		return rec, err
	}
	if rec.Close, err = num("4. close"); err != nil {
		return rec, err
	}
	if rec.AdjustedClose, err = num("5. adjusted close"); err != nil {
		rec.AdjustedClose = rec.Close
	}
	// the unadjusted endpoint puts volume at "5. volume"
	if v, err := num("6. volume", "5. volume"); err == nil {
		rec.Volume = int64(v)
	}
	return rec, nil
}

// RenderAlphaVantage encodes ascending records as an Alpha Vantage daily
// time series document.
func RenderAlphaVantage(symbol string, records []model.RawRecord) ([]byte, error) {
	env := avEnvelope{
		MetaData: map[string]string{
			"1. Information": "Daily Time Series with Splits and Dividend Events",
			"2. Symbol":      symbol,
		},
		TimeSeries: make(map[string]map[string]string, len(records)),
	}
	if n := len(records); n > 0 {
		env.MetaData["3. Last Refreshed"] = dates.Format(records[n-1].Date)
	}
	for _, r := range records {
		env.TimeSeries[dates.Format(r.Date)] = map[string]string{
			"1. open":           fmt.Sprintf("%.2f", r.Open),
			"2. high":           fmt.Sprintf("%.2f", r.High),
			"3. low":            fmt.Sprintf("%.2f", r.Low),
			"4. close":          fmt.Sprintf("%.2f", r.Close),
			"5. adjusted close": fmt.Sprintf("%.2f", r.AdjustedClose),
			"6. volume":         strconv.FormatInt(r.Volume, 10),
		}
	}
	return json.Marshal(env)
}
