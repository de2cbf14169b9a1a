package api

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/adfharrison1/go-blobdb/pkg/domain"
)

// parseFilter builds an equality filter from query parameters. Values that
// parse as numbers are compared numerically.
func parseFilter(query url.Values) map[string]interface{} {
	filter := make(map[string]interface{})

	for key, values := range query {
		if len(values) > 0 {
			value := values[0] // Take first value if multiple provided

			// Try to convert to number if possible
			if num, err := strconv.ParseFloat(value, 64); err == nil {
				filter[key] = num
			} else if value == "true" || value == "false" {
				filter[key] = value == "true"
			} else {
				// Treat as string
				filter[key] = value
			}
		}
	}

	return filter
}

// MatchesFilter checks if a record matches the given filter criteria
func MatchesFilter(record domain.Record, filter map[string]interface{}) bool {
	for field, expectedValue := range filter {
		actualValue, exists := record[field]
		if !exists {
			return false // Field doesn't exist in record
		}

		if !ValuesMatch(actualValue, expectedValue) {
			return false
		}
	}
	return true
}

// ValuesMatch compares two values for equality, handling different types
func ValuesMatch(actual, expected interface{}) bool {
	// Handle nil values
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	// Handle string comparison (case-insensitive for better UX)
	if actualStr, ok1 := actual.(string); ok1 {
		if expectedStr, ok2 := expected.(string); ok2 {
			return strings.EqualFold(actualStr, expectedStr)
		}
	}

	// Handle numeric comparison
	if actualNum, ok1 := ToFloat64(actual); ok1 {
		if expectedNum, ok2 := ToFloat64(expected); ok2 {
			return actualNum == expectedNum
		}
	}

	// A string field can still be matched by a value that parsed as a number
	if actualStr, ok := actual.(string); ok {
		if expectedNum, ok := ToFloat64(expected); ok {
			return actualStr == strconv.FormatFloat(expectedNum, 'f', -1, 64)
		}
	}

	switch actual.(type) {
	case map[string]interface{}, []interface{}:
		return false
	}

	// Default to direct comparison
	return actual == expected
}

// ToFloat64 converts various numeric types to float64 for comparison
func ToFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
