package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"05/03/24", "2024-03-05"},
		{"05.03.1978", "1978-03-05"},
		{"1.1.99", "1999-01-01"},
		{"31-12-70", "1970-12-31"},
		{"2024-03-05", "2024-03-05"},
		{"15.06.2023", "2023-06-15"},
		{"32.01.2024", ""},
		{"00.05.2024", ""},
		{"13/13/13", ""},
		{"soon", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseDate(tt.in), "input %q", tt.in)
	}
}
