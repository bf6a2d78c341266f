package month

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_TableTests(t *testing.T) {
	tests := []struct {
		name    string
		year    int
		month   time.Month
		day     int
		wantErr bool
	}{
		{name: "regular day", year: 2025, month: time.March, day: 15},
		{name: "last day of 31-day month", year: 2025, month: time.January, day: 31},
		{name: "31 in 30-day month", year: 2025, month: time.April, day: 31, wantErr: true},
		{name: "29 february leap year", year: 2024, month: time.February, day: 29},
		{name: "29 february common year", year: 2025, month: time.February, day: 29, wantErr: true},
		{name: "zero day", year: 2025, month: time.May, day: 0, wantErr: true},
		{name: "month out of range", year: 2025, month: 13, day: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Date(tt.year, tt.month, tt.day)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.year, got.Year())
			assert.Equal(t, tt.month, got.Month())
			assert.Equal(t, tt.day, got.Day())
		})
	}
}

func TestPrevious(t *testing.T) {
	m, y := Previous(time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.December, m)
	assert.Equal(t, 2025, y)

	m, y = Previous(time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.September, m)
	assert.Equal(t, 2026, y)
}

func TestNext(t *testing.T) {
	m, y := Next(time.December, 2025)
	assert.Equal(t, time.January, m)
	assert.Equal(t, 2026, y)
}

func TestParseName(t *testing.T) {
	m, err := ParseName(" september ")
	require.NoError(t, err)
	assert.Equal(t, time.September, m)

	_, err = ParseName("Septober")
	assert.Error(t, err)
}

func TestToday(t *testing.T) {
	got := Today(time.Date(2026, time.October, 16, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC), got)
}
