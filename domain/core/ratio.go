package core

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Ratio is a rate or quotient that may be undefined. Dividing by a zero
// denominator yields an invalid Ratio rather than a panic or a fake zero,
// so downstream consumers can tell "no data" apart from a true 0 rate.
type Ratio struct {
	Value float64
	Valid bool
}

// NewRatio returns a defined ratio
func NewRatio(v float64) Ratio {
	return Ratio{Value: v, Valid: true}
}

// UndefinedRatio returns the undefined sentinel
func UndefinedRatio() Ratio {
	return Ratio{}
}

// Divide computes num/den, undefined when den == 0
func Divide(num, den float64) Ratio {
	if den == 0 {
		return UndefinedRatio()
	}
	return NewRatio(num / den)
}

// Percent computes 100*num/den, undefined when den == 0
func Percent(num, den float64) Ratio {
	if den == 0 {
		return UndefinedRatio()
	}
	return NewRatio(100 * num / den)
}

// Render formats the ratio with the given precision, empty when undefined.
// The empty cell is the wire form of the undefined sentinel.
func (r Ratio) Render(precision int) string {
	if !r.Valid {
		return ""
	}
	return strconv.FormatFloat(r.Value, 'f', precision, 64)
}

// Or returns the value, or fallback when undefined
func (r Ratio) Or(fallback float64) float64 {
	if !r.Valid {
		return fallback
	}
	return r.Value
}

// MarshalJSON renders undefined ratios as null
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ratio{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("ratio must be a number or null: %w", err)
	}
	*r = NewRatio(v)
	return nil
}
