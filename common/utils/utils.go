package utils

import (
	"os"
	"strings"
)

// EnvSet returns true if the environment variable is set to anything other than "", "0" or "false".
func EnvSet(name string) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	return val != "" && val != "0" && val != "false"
}

// Truncate shortens s to at most n bytes for log output, marking the cut with "...".
func Truncate(s string, n int) string {
	if n <= 3 || len(s) <= n {
		return s
	}

	return s[:n-3] + "..."
}
