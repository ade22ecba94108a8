package domain

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Score is a prediction confidence. It is either a single value or one value
// per class.
type Score struct {
	values []float64
	multi  bool
}

// SingleScore creates a scalar score
func SingleScore(v float64) Score {
	return Score{values: []float64{v}}
}

// MultiScore creates a per-class score
func MultiScore(v ...float64) Score {
	return Score{values: append([]float64(nil), v...), multi: true}
}

// Value returns the scalar score, or the highest value of a per-class score
func (s Score) Value() float64 {
	best := 0.0
	for i, v := range s.values {
		if i == 0 || v > best {
			best = v
		}
	}
	return best
}

func (s Score) Values() []float64 {
	return s.values
}

func (s Score) IsMulti() bool {
	return s.multi
}

func (s Score) MarshalJSON() ([]byte, error) {
	if s.multi {
		return json.Marshal(s.values)
	}
	return json.Marshal(s.Value())
}

func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var values []float64
		if err := json.Unmarshal(data, &values); err != nil {
			return decodeError("score", err)
		}
		if len(values) == 0 {
			return invalidf("score: empty list")
		}
		*s = MultiScore(values...)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return decodeError("score", err)
	}
	*s = SingleScore(v)
	return nil
}
