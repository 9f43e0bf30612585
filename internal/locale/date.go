package locale

import (
	"strconv"
	"strings"
	"time"
)

// ParseDate normalizes a day-first date token (D.M.YY, D/M/YYYY, D-M-YY,
// or already-ISO YYYY-MM-DD) to ISO form. Two-digit years pivot at 70:
// yy >= 70 becomes 19yy, otherwise 20yy. Malformed input returns "".
func ParseDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006-01-02")
	}

	var parts []string
	for _, sep := range []string{".", "/", "-"} {
		if strings.Contains(s, sep) {
			parts = strings.Split(s, sep)
			break
		}
	}
	if len(parts) != 3 {
		return ""
	}

	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return ""
	}

	switch len(parts[2]) {
	case 2:
		if year >= 70 {
			year += 1900
		} else {
			year += 2000
		}
	case 4:
		// keep as-is
	default:
		return ""
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// reject normalized overflow like 32.01.2024 -> 01.02.2024
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return ""
	}
	return t.Format("2006-01-02")
}
