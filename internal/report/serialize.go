package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/guregu/null/v6"

	"StockInfo/internal/dates"
	"StockInfo/internal/model"
)

// ErrEmpty is returned when there is nothing to serialize.
var ErrEmpty = errors.New("no metrics to serialize")

// TimeZone is the zone every metric date is expressed in.
const TimeZone = "UTC"

// Windows carries the window lengths shown in the field labels.
type Windows struct {
	MovingAverage int
	Volatility    int
	Momentum      int
}

// Serialize renders metrics (most recent first) as the daily time series
// document. Keys keep their documented order, which encoding/json maps
// cannot express, so the object is written field by field.
func Serialize(metrics []model.Metric, w Windows) ([]byte, error) {
	if len(metrics) == 0 {
		return nil, ErrEmpty
	}
	latest := metrics[0]

	var b bytes.Buffer
	b.WriteString(`{"Meta Data":{`)
	writePairs(&b,
		"1. Information", "Daily Time Series with custom metrics",
		"2. Symbol", latest.Symbol,
		"3. Last Refreshed", dates.Format(latest.Date),
		"4. Time Zone", TimeZone,
	)
	b.WriteString(`},"Time Series (Daily)":{`)

	labels := [5]string{
		"1. close",
		"2. previousCloseChange",
		fmt.Sprintf("3. movingAverage(%dd)", w.MovingAverage),
		fmt.Sprintf("4. volatility(%dd%%)", w.Volatility),
		fmt.Sprintf("5. momentum(%dd%%)", w.Momentum),
	}
	for i, m := range metrics {
		if i > 0 {
			b.WriteByte(',')
		}
		writeKey(&b, dates.Format(m.Date))
		b.WriteByte('{')
		values := [5]null.Float{
			null.FloatFrom(m.Close), m.PreviousCloseChange, m.MovingAverage, m.Volatility, m.Momentum,
		}
		for k, label := range labels {
			if k > 0 {
				b.WriteByte(',')
			}
			writeKey(&b, label)
			b.WriteString(formatValue(values[k]))
		}
		b.WriteByte('}')
	}
	b.WriteString(`}}`)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, b.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("indent response: %w", err)
	}
	return pretty.Bytes(), nil
}

func writeKey(b *bytes.Buffer, k string) {
	enc, _ := json.Marshal(k)
	b.Write(enc)
	b.WriteByte(':')
}

func writePairs(b *bytes.Buffer, kv ...string) {
	for i := 0; i+1 < len(kv); i += 2 {
		if i > 0 {
			b.WriteByte(',')
		}
		writeKey(b, kv[i])
		enc, _ := json.Marshal(kv[i+1])
		b.Write(enc)
	}
}

// formatValue renders a two-decimal JSON string or null.
func formatValue(v null.Float) string {
	if !v.Valid {
		return "null"
	}
	return `"` + fmt.Sprintf("%.2f", v.Float64) + `"`
}
