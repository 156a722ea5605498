package fluview

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NoData is how an absent measure is rendered to clients.
const NoData = "No data"

// Measure is a numeric value that may be explicitly absent. The zero value
// is absent.
type Measure struct {
	Value float64
	Valid bool
}

// Some wraps a present value.
func Some(v float64) Measure { return Measure{Value: v, Valid: true} }

// None is the absent measure.
func None() Measure { return Measure{} }

// Or returns the value, or fallback when absent.
func (m Measure) Or(fallback float64) float64 {
	if !m.Valid {
		return fallback
	}
	return m.Value
}

// MarshalJSON renders an absent measure as the NoData marker.
func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return json.Marshal(NoData)
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON accepts a number, null, or the NoData marker.
func (m *Measure) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = None()
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s != NoData {
			return fmt.Errorf("fluview: unexpected measure %q", s)
		}
		*m = None()
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*m = Some(v)
	return nil
}
