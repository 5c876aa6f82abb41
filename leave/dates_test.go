package leave_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
)

func TestDaysBetween_Inclusive(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       int
	}{
		{"same day", "2025-03-04", "2025-03-04", 1},
		{"three days", "2025-02-10", "2025-02-12", 3},
		{"across month end", "2025-01-30", "2025-02-02", 4},
		{"leap day included", "2024-02-28", "2024-03-01", 3},
		{"whole year", "2025-01-01", "2025-12-31", 365},
		{"across year end", "2024-12-30", "2025-01-02", 4},
		{"four centuries", "2025-01-01", "2400-01-01", 136966},
		{"full calendar range", "0001-01-01", "9999-12-31", 3652059},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := leave.DaysBetween(leave.MustParseDate(tt.start), leave.MustParseDate(tt.end))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDate_StringRoundTripsCalendarEdges(t *testing.T) {
	for _, s := range []string{"0001-01-01", "9999-12-31"} {
		d := leave.MustParseDate(s)
		assert.Equal(t, s, d.String())
		again, err := leave.ParseDate(d.String())
		require.NoError(t, err)
		assert.True(t, d.Equal(again))
	}
}

func TestDaysBetween_InvertedRange(t *testing.T) {
	// GIVEN: end one day before start
	start := leave.MustParseDate("2025-03-05")
	end := leave.MustParseDate("2025-03-04")

	// WHEN
	days, err := leave.DaysBetween(start, end)

	// THEN: error, never a negative or zero count
	require.Error(t, err)
	assert.Zero(t, days)
	assert.True(t, errors.Is(err, leave.ErrInvalidRange))

	var rangeErr *leave.InvalidRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "2025-03-05", rangeErr.Start.String())
	assert.True(t, leave.IsClientError(err))
}

func TestParseDate(t *testing.T) {
	d, err := leave.ParseDate("2025-02-10")
	require.NoError(t, err)
	assert.Equal(t, leave.NewDate(2025, time.February, 10), d)
	assert.Equal(t, "2025-02-10", d.String())

	for _, bad := range []string{"", "2025-2-10", "10/02/2025", "2025-02-30", "2025-13-01", "2025-02-10T00:00:00Z"} {
		_, err := leave.ParseDate(bad)
		assert.ErrorIs(t, err, leave.ErrInvalidDate, "input %q", bad)
	}
}

func TestDateOf_DropsTimeOfDay(t *testing.T) {
	late := time.Date(2025, time.June, 1, 23, 59, 59, 0, time.UTC)
	assert.True(t, leave.DateOf(late).Equal(leave.NewDate(2025, time.June, 1)))
	assert.Equal(t, "2025-06-02", leave.DateOf(late).AddDays(1).String())
}

func TestYearBounds(t *testing.T) {
	p := leave.YearBounds(2025)

	assert.Equal(t, "2025-01-01", p.Start.String())
	assert.Equal(t, "2025-12-31", p.End.String())
	assert.Equal(t, 365, p.Days())
	assert.Equal(t, 366, leave.YearBounds(2024).Days())
}

func TestPeriod_Encloses(t *testing.T) {
	year := leave.YearBounds(2025)
	period := func(a, b string) leave.Period {
		p, err := leave.NewPeriod(leave.MustParseDate(a), leave.MustParseDate(b))
		require.NoError(t, err)
		return p
	}

	assert.True(t, year.Encloses(period("2025-01-01", "2025-01-01")))
	assert.True(t, year.Encloses(period("2025-12-31", "2025-12-31")))
	assert.True(t, year.Encloses(period("2025-02-10", "2025-02-12")))
	assert.False(t, year.Encloses(period("2024-12-30", "2025-01-02")), "straddles Jan 1")
	assert.False(t, year.Encloses(period("2025-12-30", "2026-01-02")), "straddles Dec 31")
	assert.True(t, year.Contains(leave.MustParseDate("2025-07-01")))
	assert.False(t, year.Contains(leave.MustParseDate("2026-01-01")))
}
