package locale

import (
	"regexp"
	"strconv"
	"strings"
)

var reAmountJunk = regexp.MustCompile(`[^0-9,.\-]`)

// ParseAmount parses a monetary string with ambiguous thousands/decimal
// separators. When both "," and "." occur, the one occurring last is the
// decimal mark. With a single separator type, a trailing group of exactly
// three digits is read as a thousands grouping unless nothing precedes it.
// Unparseable input yields 0, never an error: this layer produces
// best-effort signals, not a source of truth.
func ParseAmount(raw string) float64 {
	s := reAmountJunk.ReplaceAllString(raw, "")

	// Nordic "100,-" / "100.-" notation for whole amounts
	s = strings.TrimSuffix(s, ",-")
	s = strings.TrimSuffix(s, ".-")

	neg := strings.HasPrefix(s, "-")
	s = strings.ReplaceAll(s, "-", "")
	if s == "" {
		return 0
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// 1.234,56 -> comma is the decimal mark
			s = strings.ReplaceAll(s, ".", "")
			s = keepLastSeparator(s, ',')
		} else {
			// 1,234.56 -> dot is the decimal mark
			s = strings.ReplaceAll(s, ",", "")
			s = keepLastSeparator(s, '.')
		}
	case lastComma >= 0:
		s = resolveSingleSeparator(s, ',')
	case lastDot >= 0:
		s = resolveSingleSeparator(s, '.')
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if neg {
		return -v
	}
	return v
}

// resolveSingleSeparator decides whether a lone separator type marks
// decimals or thousands and normalizes to a dot-decimal string.
func resolveSingleSeparator(s string, sep byte) string {
	count := strings.Count(s, string(sep))
	idx := strings.LastIndexByte(s, sep)
	tail := s[idx+1:]
	head := s[:idx]

	switch {
	case count > 1:
		// a repeated separator can only be grouping: 1.234.567
		return strings.ReplaceAll(s, string(sep), "")
	case len(tail) == 3 && head != "":
		// 12,345 -> thousands grouping
		return head + tail
	case len(tail) <= 2:
		// 12,34 -> decimals
		return head + "." + tail
	default:
		return head + tail
	}
}

// keepLastSeparator removes every occurrence of sep except the last,
// which becomes the decimal dot.
func keepLastSeparator(s string, sep byte) string {
	idx := strings.LastIndexByte(s, sep)
	if idx < 0 {
		return s
	}
	head := strings.ReplaceAll(s[:idx], string(sep), "")
	return head + "." + s[idx+1:]
}
