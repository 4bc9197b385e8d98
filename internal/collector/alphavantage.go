package collector

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"StockInfo/internal/model"
)

// DefaultAlphaVantageURL is the public query endpoint.
const DefaultAlphaVantageURL = "https://www.alphavantage.co/query"

// compactSize is the record count served by outputsize=compact.
const compactSize = 100

// AlphaVantageFetcher implements Fetcher using the Alpha Vantage REST API.
type AlphaVantageFetcher struct {
	BaseURL string
	APIKey  string
	client  *resty.Client
}

// NewAlphaVantageFetcher creates a fetcher with optional proxy support.
func NewAlphaVantageFetcher(baseURL, apiKey, proxyURL string) *AlphaVantageFetcher {
	if baseURL == "" {
		baseURL = DefaultAlphaVantageURL
	}
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &AlphaVantageFetcher{BaseURL: baseURL, APIKey: apiKey, client: client}
}

func (f *AlphaVantageFetcher) Name() string { return "alphavantage" }

func (f *AlphaVantageFetcher) FetchDailyHistory(ctx context.Context, symbol string, count int) ([]model.RawRecord, error) {
	if strings.TrimSpace(f.APIKey) == "" {
		return nil, unauthorized(f.Name(), symbol)
	}
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function":   "TIME_SERIES_DAILY_ADJUSTED",
			"symbol":     symbol,
			"outputsize": alphaVantageSize(count),
			"apikey":     f.APIKey,
		}).
		Get(f.BaseURL)
	if err != nil {
		return nil, serverError(f.Name(), symbol, "request failed", err)
	}
	if resp.StatusCode() != 200 {
		return nil, statusError(f.Name(), symbol, resp.StatusCode(), resp.Body())
	}
	records, err := ParseAlphaVantage(f.Name(), symbol, resp.Body())
	if err != nil {
		return nil, err
	}
	return trimTail(records, count), nil
}

// alphaVantageSize maps a record count onto the outputsize query value.
func alphaVantageSize(count int) string {
	if count > compactSize {
		return "full"
	}
	return "compact"
}

// parseOutputSize is the inverse used by the fake endpoint.
func parseOutputSize(v string, historyDays int) int {
	switch v {
	case "full":
		return historyDays
	case "", "compact":
		return compactSize
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return n
	}
	return compactSize
}
