package model

import "time"

// RawRecord is one trading day of upstream price data.
// Date is a calendar day at UTC midnight.
type RawRecord struct {
	Symbol        string
	Date          time.Time
	Open          float64
	High          float64
	Low           float64
	Close         float64
	AdjustedClose float64
	Volume        int64
}

// Closes extracts the close prices in order.
func Closes(records []RawRecord) []float64 {
	closes := make([]float64, len(records))
	for i, r := range records {
		closes[i] = r.Close
	}
	return closes
}
