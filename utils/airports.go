// utils/airports.go
package utils

import "strings"

// NormalizeAirportCode trims and upper-cases an airport code.
func NormalizeAirportCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsIATACode reports whether code is exactly three ASCII letters.
// Two-letter values, numbers and blanks are not airport codes.
func IsIATACode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}
