package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)

	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{"rfc3339 utc", "2024-06-01T10:00:00Z", time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)},
		{"rfc3339 offset", "2024-06-01T10:00:00+02:00", time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)},
		{"space with offset", "2024-06-01 10:00:00+02:00", time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)},
		{"fractional seconds", "2024-06-01T10:00:00.250Z", time.Date(2024, 6, 1, 10, 0, 0, 250_000_000, time.UTC)},
		{"naive datetime", "2024-06-01T10:00:00", time.Date(2024, 6, 1, 5, 0, 0, 0, time.UTC)},
		{"naive space datetime", "2024-06-01 10:00:00", time.Date(2024, 6, 1, 5, 0, 0, 0, time.UTC)},
		{"naive minutes", "2024-06-01T10:00", time.Date(2024, 6, 1, 5, 0, 0, 0, time.UTC)},
		{"date only", "2024-06-01", time.Date(2024, 5, 31, 19, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.value, loc)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, value := range []string{"", "   ", "yesterday", "01/06/2024", "2024-13-01"} {
		_, err := ParseTimestamp(value, time.UTC)
		assert.Error(t, err, value)
	}
}

func TestNormalizePeriod(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)

	s, e, err := NormalizePeriod(start, end, loc)
	require.NoError(t, err)
	assert.Equal(t, loc, s.Location())
	assert.True(t, start.Equal(s))
	assert.True(t, end.Equal(e))

	_, _, err = NormalizePeriod(start, start, loc)
	assert.NoError(t, err, "a zero-length period is valid")

	_, _, err = NormalizePeriod(end, start, loc)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, _, err = NormalizePeriod(time.Time{}, end, loc)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Anna", DisplayName("  Anna ", "anna"))
	assert.Equal(t, "anna", DisplayName("", "anna"))
	assert.Equal(t, Placeholder, DisplayName("", "  "))
	assert.Equal(t, Placeholder, DisplayName())
}
