package broker

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

var numberCleaner = strings.NewReplacer(",", "", " ", "", "\t", "", "\u00a0", "", "%", "")

// ParseNumeric parses a brokerage numeric string. Thousands separators,
// whitespace, a trailing percent sign and a leading plus are ignored; a
// leading minus is kept. ok is false when s holds no number.
func ParseNumeric(s string) (decimal.Decimal, bool) {
	s = numberCleaner.Replace(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FlexibleFloat handles numeric JSON fields that arrive either as numbers or
// as formatted strings such as "+1,234.5". Anything else decodes as 0.
type FlexibleFloat float64

// UnmarshalJSON implements custom unmarshaling for FlexibleFloat.
func (f *FlexibleFloat) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = FlexibleFloat(num)
		return nil
	}

	var s string
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) && json.Unmarshal(data, &s) == nil {
		if d, ok := ParseNumeric(s); ok {
			v, _ := d.Float64()
			*f = FlexibleFloat(v)
			return nil
		}
	}

	*f = 0
	return nil
}

// Float64 returns f as a float64.
func (f FlexibleFloat) Float64() float64 { return float64(f) }
