package fare

import (
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// decode unmarshals a provider document into its typed form.
// Syntax errors are fatal. A field holding the wrong JSON type is left at its
// zero value, the same as a missing field.
func decode(p Provider, raw []byte, v any) error {
	err := json.Unmarshal(raw, v)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return nil
	}
	return &DocumentParseError{Provider: p, Err: err}
}

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// amount is a money value in the smallest currency unit. It stays unset when
// the JSON value is null, not numeric, negative, fractional or out of range.
// Numeric strings are accepted.
type amount struct {
	v *int64
}

func (a *amount) UnmarshalJSON(b []byte) error {
	a.v = nil
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return nil
		}
		s = strings.TrimSpace(str)
	}
	if s == "" || s == "null" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	if d.IsNegative() || !d.Equal(d.Truncate(0)) || d.GreaterThan(maxAmount) {
		return nil
	}
	v := d.IntPart()
	a.v = &v
	return nil
}

// label is an identifier that providers send either as a string or a number.
type label string

func (l *label) UnmarshalJSON(b []byte) error {
	*l = ""
	s := strings.TrimSpace(string(b))
	switch {
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(b, &str); err == nil {
			*l = label(str)
		}
	case s == "null", s == "true", s == "false":
	case strings.HasPrefix(s, "{"), strings.HasPrefix(s, "["):
	default:
		*l = label(s)
	}
	return nil
}

// text is an optional string. Anything other than a JSON string leaves it unset.
type text struct {
	v *string
}

func (t *text) UnmarshalJSON(b []byte) error {
	t.v = nil
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		t.v = &s
	}
	return nil
}
