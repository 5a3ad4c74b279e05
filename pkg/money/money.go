// Package money keeps currency arithmetic exact and rounds only at the edges.
package money

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds a float amount to cents.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Line returns price times quantity.
func Line(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
}

// Float converts d to a float rounded to cents.
func Float(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// Ratio returns part/whole as a percentage rounded to cents, or zero when
// whole is zero.
func Ratio(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return Float(decimal.NewFromInt(part).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(whole)))
}

// Average returns total/count rounded to cents, or zero when count is zero.
func Average(total float64, count int64) float64 {
	if count == 0 {
		return 0
	}
	return Float(decimal.NewFromFloat(total).Div(decimal.NewFromInt(count)))
}

// ParseLenient reads a monetary amount from a JSON value that may be a number
// or a numeric string. Anything else, NaN and infinities included, yields
// zero.
func ParseLenient(v any) decimal.Decimal {
	switch t := v.(type) {
	case float64:
		return fromFinite(t)
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			if f, ferr := strconv.ParseFloat(strings.TrimSpace(t), 64); ferr == nil {
				return fromFinite(f)
			}
			return decimal.Zero
		}
		return d
	case int:
		return decimal.NewFromInt(int64(t))
	case int64:
		return decimal.NewFromInt(t)
	default:
		return decimal.Zero
	}
}

func fromFinite(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}
