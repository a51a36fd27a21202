package catalog

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Price keeps the wire value untouched so partially loaded catalog rows
// never fail a render; Amount does the coercion.
type Price string

func PriceOf(amount int64) Price {
	return Price(strconv.FormatInt(amount, 10))
}

// Amount returns the numeric value, or 0 when the raw value is not a
// non-negative number that fits in an int64.
func (p Price) Amount() int64 {
	raw := strings.ReplaceAll(strings.TrimSpace(string(p)), ",", "")
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err == nil {
		return max(n, 0)
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	f = math.Round(f)
	// float64(math.MaxInt64) rounds up to 2^63, which no longer fits.
	if f < 0 || f >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}
