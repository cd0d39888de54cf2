package config

import (
	"fmt"
	"strings"
)

// ParseTriggerAt parses an "hh:mm:ss" wall-clock time into its components.
// It is strict about the format: exactly three colon-separated decimal
// fields within their natural ranges. The scheduler fires once per day at
// this local time.
func ParseTriggerAt(s string) (hour, minute, second int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidTriggerTime, s)
	}

	if _, err := fmt.Sscanf(s, "%d:%d:%d", &hour, &minute, &second); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidTriggerTime, s)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidTriggerTime, s)
	}

	return hour, minute, second, nil
}
