package reporting

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidPeriod is returned when a period is empty or inverted.
	ErrInvalidPeriod = errors.New("invalid period")
)

// Layouts without a zone. Values in these layouts are interpreted in the
// configured report timezone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO 8601 timestamp. Values carrying a zone offset
// keep it; values without one are placed in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("timestamp is empty")
	}

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05.999999999Z07:00", value); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q is not ISO 8601", value)
}

// NormalizePeriod checks that both bounds are set and ordered, and moves
// them into loc.
func NormalizePeriod(start, end time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if start.IsZero() || end.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: both bounds are required", ErrInvalidPeriod)
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: period_start %s is after period_end %s",
			ErrInvalidPeriod, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return start.In(loc), end.In(loc), nil
}

func formatInstant(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
