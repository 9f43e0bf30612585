package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"european style", "1.234,56", 1234.56},
		{"us style", "1,234.56", 1234.56},
		{"plain integer", "1200", 1200},
		{"single comma decimal", "99,50", 99.5},
		{"single dot decimal", "99.50", 99.5},
		{"comma thousands", "12,345", 12345},
		{"dot thousands", "12.345", 12345},
		{"repeated grouping", "1.234.567", 1234567},
		{"spaced nordic", "kr 1 234,50", 1234.5},
		{"currency prefix", "NOK 250,00", 250},
		{"dollar prefix", "$1,999.99", 1999.99},
		{"nordic whole amount", "100,-", 100},
		{"negative", "-42,50", -42.5},
		{"bare decimal tail", ",50", 0.5},
		{"garbage", "n/a", 0},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseAmount(tt.in), 1e-9)
		})
	}
}
