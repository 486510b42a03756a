package cafe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDistance(t *testing.T) {
	tests := []struct {
		in    string
		value float64
		unit  string
		ok    bool
	}{
		{"0.3 mi", 0.3, "mi", true},
		{"1.2mi", 1.2, "mi", true},
		{"  2 km", 2, "km", true},
		{".5 mi", 0.5, "mi", true},
		{"1.", 1, "", true},
		{"-0.4 mi", -0.4, "mi", true},
		{"1e2 ft", 100, "ft", true},
		{"3e mi", 3, "e mi", true},
		{"1,5 mi", 1, ",5 mi", true},
		{"", 0, "", false},
		{"mi", 0, "", false},
		{"near", 0, "", false},
		{".", 0, "", false},
		{"-", 0, "", false},
		{"NaN mi", 0, "", false},
		{"Infinity", 0, "", false},
		{"1e999 mi", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, ok := ParseDistance(tt.in)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.Zero(t, d)
				return
			}
			assert.InDelta(t, tt.value, d.Value, 1e-9)
			assert.Equal(t, tt.unit, d.Unit)
		})
	}
}
