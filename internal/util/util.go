package util

import (
	"strings"
	"time"
)

func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// NormalizeBool reads spreadsheet-style booleans ("TRUE", "yes", "1").
func NormalizeBool(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "yes", "true", "1", "y":
		return true
	default:
		return false
	}
}
