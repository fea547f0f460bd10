package openproject

import (
	"strconv"
	"strings"
)

// FormatHours renders decimal hours in the ISO-8601 duration form the
// API expects, e.g. 2.5 -> "PT2.5H".
func FormatHours(hours float64) string {
	return "PT" + strconv.FormatFloat(hours, 'f', -1, 64) + "H"
}

// ParseHours converts an ISO-8601 duration such as "PT8H" or "PT1H30M"
// back into decimal hours. Malformed or empty input yields 0.
func ParseHours(s string) float64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "PT")
	if s == "" {
		return 0
	}

	var hours float64
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != 'H' && c != 'M' && c != 'S' {
			continue
		}
		v, err := strconv.ParseFloat(s[start:i], 64)
		if err != nil {
			return 0
		}
		switch c {
		case 'H':
			hours += v
		case 'M':
			hours += v / 60
		case 'S':
			hours += v / 3600
		}
		start = i + 1
	}
	return hours
}
