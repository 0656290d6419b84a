package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name   string
		date   time.Time
		months int
		want   time.Time
	}{
		{"regular month", date(2024, 1, 15), 1, date(2024, 2, 15)},
		{"end of month in leap year", date(2024, 1, 31), 1, date(2024, 2, 29)},
		{"end of month in common year", date(2023, 1, 31), 1, date(2023, 2, 28)},
		{"over year boundary", date(2024, 12, 31), 1, date(2025, 1, 31)},
		{"leap day plus a year", date(2024, 2, 29), 12, date(2025, 2, 28)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonthsClamped(tt.date, tt.months))
		})
	}
}

func TestCivilDate_UsesLocation(t *testing.T) {
	// given
	kolkata := Location("Asia/Kolkata")
	instant := time.Date(2024, 1, 4, 20, 0, 0, 0, time.UTC) // already Jan 5 in Kolkata

	// then
	assert.Equal(t, date(2024, 1, 5), CivilDate(instant, kolkata))
	assert.Equal(t, date(2024, 1, 4), CivilDate(instant, time.UTC))
	assert.True(t, SameDay(instant, time.Date(2024, 1, 5, 1, 0, 0, 0, kolkata), kolkata))
}

func TestSameMonth(t *testing.T) {
	assert.True(t, SameMonth(date(2024, 3, 1), date(2024, 3, 31), time.UTC))
	assert.False(t, SameMonth(date(2024, 3, 1), date(2023, 3, 1), time.UTC))
}

func TestLocation_FallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Location("Mars/Olympus"))
	assert.Equal(t, time.UTC, Location(""))
}

func TestParseDateOrTime(t *testing.T) {
	newYork := Location("America/New_York")

	t.Run("should read a plain date as midnight in the given location", func(t *testing.T) {
		// when
		parsed, err := ParseDateOrTime("2024-02-01", newYork)

		// then
		assert.NoError(t, err)
		assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, newYork), parsed)
		assert.Equal(t, date(2024, 2, 1), CivilDate(parsed, newYork))
	})

	t.Run("should keep the offset of a timestamp", func(t *testing.T) {
		// when
		parsed, err := ParseDateOrTime("2024-02-01T03:00:00Z", newYork)

		// then
		assert.NoError(t, err)
		assert.True(t, parsed.Equal(time.Date(2024, 2, 1, 3, 0, 0, 0, time.UTC)))
	})

	t.Run("should reject other layouts", func(t *testing.T) {
		_, err := ParseDateOrTime("01/02/2024", newYork)
		assert.Error(t, err)
	})
}

func TestDateOnly(t *testing.T) {
	newYork := Location("America/New_York")

	assert.Equal(t, date(2024, 2, 1), DateOnly(time.Date(2024, 2, 1, 0, 0, 0, 0, newYork)))
	assert.Equal(t, date(2024, 2, 1), DateOnly(time.Date(2024, 2, 1, 23, 30, 0, 0, time.UTC)))
}
