package utils

import (
	"math"
	"strconv"
	"strings"
)

// ParseDecimal parses a decimal written with either comma or dot as the
// decimal separator. When both appear, the rightmost one is the decimal
// separator and the other is a thousands separator.
func ParseDecimal(value string) (float64, bool) {
	value = strings.ReplaceAll(strings.TrimSpace(value), " ", "")
	if value == "" {
		return 0, false
	}

	lastComma := strings.LastIndex(value, ",")
	lastDot := strings.LastIndex(value, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		value = strings.ReplaceAll(value, ".", "")
		value = strings.Replace(value, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		value = strings.ReplaceAll(value, ",", "")
	case lastComma >= 0:
		if strings.Count(value, ",") > 1 {
			return 0, false
		}
		value = strings.Replace(value, ",", ".", 1)
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsNumericID reports whether value is a non-empty run of decimal digits
func IsNumericID(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NormalizeExternalID trims an external id and drops the ".0" suffix that
// spreadsheet exports add to integer cells
func NormalizeExternalID(value string) string {
	value = strings.TrimSpace(value)
	return strings.TrimSuffix(value, ".0")
}
