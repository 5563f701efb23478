package stringutil

import (
	"os"
	"strings"
)

// EnvOr returns the trimmed value of the environment variable key, or fallback
// if the variable is unset or blank.
func EnvOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

// FirstNonEmpty returns the first value that is non-empty after trimming,
// trimmed.
func FirstNonEmpty(values ...string) string {
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}
