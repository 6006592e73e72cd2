package venue

import (
	"strings"
	"unicode"
)

// RegionLabel derives a "City, ST" label from a formatted address such as
// "123 Main St, Springfield, IL 62701, USA". It returns "" when no US-style
// state segment can be found.
func RegionLabel(addr string) string {
	city, state := parseCityState(addr)
	if city == "" || state == "" {
		return ""
	}
	return city + ", " + state
}

// RegionCode returns the trailing region code of a label ("Springfield, IL"
// yields "IL").
func RegionCode(label string) string {
	i := strings.LastIndex(label, ",")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(label[i+1:])
}

// MatchesRegion reports whether label belongs to the region with the given
// code. Comparison is case-insensitive.
func MatchesRegion(label, code string) bool {
	if label == "" || code == "" {
		return false
	}
	return strings.EqualFold(RegionCode(label), strings.TrimSpace(code))
}

// parseCityState scans comma-separated segments right to left for a segment
// that starts with a two-letter uppercase state code; the segment before it
// is the city.
func parseCityState(addr string) (city, state string) {
	var parts []string
	for _, p := range strings.Split(addr, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return "", ""
	}

	for i := len(parts) - 1; i > 0; i-- {
		if s := parseState(parts[i]); s != "" {
			return parts[i-1], s
		}
	}
	return "", ""
}

// parseState accepts "IL", "IL 62701" or "IL 62701-1234".
func parseState(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return ""
	}
	code := fields[0]
	if len(code) != 2 || !unicode.IsUpper(rune(code[0])) || !unicode.IsUpper(rune(code[1])) {
		return ""
	}
	if len(fields) == 2 && !isZipCode(fields[1]) {
		return ""
	}
	return code
}

func isZipCode(s string) bool {
	if len(s) < 5 || len(s) > 10 {
		return false
	}
	for _, c := range s {
		if c != '-' && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
