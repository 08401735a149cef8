package timeslot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, time.March, 10, hour, minute, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"identical", at(9, 0), at(10, 0), at(9, 0), at(10, 0), true},
		{"contained", at(9, 0), at(10, 0), at(9, 15), at(9, 45), true},
		{"partial front", at(9, 0), at(9, 30), at(9, 15), at(9, 45), true},
		{"partial back", at(9, 15), at(9, 45), at(9, 0), at(9, 30), true},
		{"adjacent touching", at(9, 0), at(9, 30), at(9, 30), at(10, 0), false},
		{"adjacent touching reversed", at(9, 30), at(10, 0), at(9, 0), at(9, 30), false},
		{"disjoint", at(9, 0), at(9, 30), at(11, 0), at(11, 30), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.s1, tt.e1, tt.s2, tt.e2))
			// The predicate must be symmetric.
			assert.Equal(t, tt.want, Overlaps(tt.s2, tt.e2, tt.s1, tt.e1))
		})
	}
}

func TestContains(t *testing.T) {
	winStart, winEnd := at(9, 0), at(10, 0)

	assert.True(t, Contains(winStart, winEnd, at(9, 0), at(10, 0)))
	assert.True(t, Contains(winStart, winEnd, at(9, 15), at(9, 45)))
	assert.False(t, Contains(winStart, winEnd, at(8, 45), at(9, 30)))
	assert.False(t, Contains(winStart, winEnd, at(9, 30), at(10, 15)))
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, 5, Remaining(5, 0))
	assert.Equal(t, 1, Remaining(5, 4))
	assert.Equal(t, 0, Remaining(5, 5))
	assert.Equal(t, 0, Remaining(5, 9))

	assert.True(t, IsAvailable(2, 1))
	assert.False(t, IsAvailable(2, 2))
}

func TestWeekdayOf(t *testing.T) {
	monday, err := ParseDate("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "Monday", WeekdayOf(monday))

	// Late-evening instants must resolve to the same calendar day.
	lateEvening := time.Date(2025, time.March, 10, 23, 55, 0, 0, time.UTC)
	assert.Equal(t, "Monday", WeekdayOf(lateEvening))

	sunday, err := ParseDate("2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, "Sunday", WeekdayOf(sunday))
}

func TestParseDate(t *testing.T) {
	date, err := ParseDate("2025-12-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), date)

	_, err = ParseDate("31/12/2025")
	assert.Error(t, err)

	_, err = ParseDate("2025-13-01")
	assert.Error(t, err)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		value   string
		minutes int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"9:30", 0, true},
		{"09:60", 0, true},
		{"morning", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			minutes, err := ParseClock(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.minutes, minutes)
		})
	}
}

func TestAt(t *testing.T) {
	date, err := ParseDate("2025-03-10")
	require.NoError(t, err)

	instant, err := At(date, "09:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC), instant)

	_, err = At(date, "25:00")
	assert.Error(t, err)
}

func TestDayWindow(t *testing.T) {
	date, err := ParseDate("2025-03-10")
	require.NoError(t, err)

	start, end := DayWindow(date)
	assert.Equal(t, date, start)
	assert.Equal(t, date.AddDate(0, 0, 1), end)
}

func TestCoversDate(t *testing.T) {
	start, _ := ParseDate("2025-03-01")
	end, _ := ParseDate("2025-03-31")
	query, _ := ParseDate("2025-03-10")

	assert.True(t, CoversDate(start, nil, query), "open-ended span covers any later date")
	assert.True(t, CoversDate(start, &end, query))
	assert.True(t, CoversDate(query, &end, query), "span starting on the query date covers it")
	assert.False(t, CoversDate(query.AddDate(0, 0, 1), nil, query))

	before, _ := ParseDate("2025-03-05")
	assert.False(t, CoversDate(start, &before, query))
}
