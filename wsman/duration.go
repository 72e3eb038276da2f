package wsman

import (
	"fmt"
	"strconv"
	"strings"
)

// OperationTimeout converts a number of seconds into the ISO-8601 duration
// literal WinRM expects for the w:OperationTimeout header, e.g. 60 -> "PT60S".
func OperationTimeout(seconds int) string {
	return fmt.Sprintf("PT%dS", seconds)
}

// ParseOperationTimeout parses a "PT<seconds>S" literal back into a number
// of seconds. It only supports the subset of ISO-8601 that WinRM emits.
func ParseOperationTimeout(s string) (int, error) {
	if !strings.HasPrefix(s, "PT") || !strings.HasSuffix(s, "S") {
		return 0, fmt.Errorf("wsman: invalid operation timeout literal %q", s)
	}
	digits := s[2 : len(s)-1]
	seconds, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("wsman: invalid operation timeout literal %q: %w", s, err)
	}
	return seconds, nil
}
