package helper

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var intervals = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"6h":  6 * time.Hour,
	"8h":  8 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
}

func NormTF(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	switch s {
	case "60m":
		return "1h"
	case "240m":
		return "4h"
	default:
		return s
	}
}

// IntervalDuration: длительность свечи Binance-интервала ("5m", "1h", ...).
func IntervalDuration(raw string) (time.Duration, bool) {
	d, ok := intervals[NormTF(raw)]
	return d, ok
}

// TruncateQty отбрасывает лишние знаки (вниз), чтобы не упереться в маржу.
func TruncateQty(qty decimal.Decimal, precision int32) decimal.Decimal {
	return qty.Truncate(precision)
}

// FormatPrice: цена для ордера с фиксированным числом знаков.
func FormatPrice(px float64, precision int32) string {
	return decimal.NewFromFloat(px).Round(precision).StringFixed(precision)
}

// FormatQty: количество для ордера, усечённое до precision.
func FormatQty(qty float64, precision int32) string {
	return decimal.NewFromFloat(qty).Truncate(precision).StringFixed(precision)
}

// Truncate: сообщение не длиннее max рун.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
