package models

import (
	"fmt"
	"time"
)

// MonthFormat is the layout for month keys ("YYYY-MM").
const MonthFormat = "2006-01"

// MonthlyMetric is one calendar month of observed traffic data. It serves
// both as historical input to a forecast and as the actuals compared against
// one later. Series are ordered by month ascending; duplicate months within a
// series are invalid.
type MonthlyMetric struct {
	Month       string   `db:"month"       json:"month"`
	Traffic     int64    `db:"traffic"     json:"traffic"`
	Conversions int64    `db:"conversions" json:"conversions"`
	Revenue     *float64 `db:"revenue"     json:"revenue,omitempty"`
}

// MonthKey formats t as a month key, truncating to the calendar month.
func MonthKey(t time.Time) string {
	return t.Format(MonthFormat)
}

// ParseMonth parses a "YYYY-MM" month key into the first instant of that
// month in UTC.
func ParseMonth(month string) (time.Time, error) {
	t, err := time.Parse(MonthFormat, month)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	return t.UTC(), nil
}

// NextMonth returns the month key immediately following month.
func NextMonth(month string) (string, error) {
	t, err := ParseMonth(month)
	if err != nil {
		return "", err
	}
	return MonthKey(t.AddDate(0, 1, 0)), nil
}
