package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodRange(t *testing.T) {
	// Thursday
	now := time.Date(2026, time.October, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		period string
		months string
		from   time.Time
	}{
		{"week starts monday", PeriodWeek, "", time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC)},
		{"month", PeriodMonth, "", time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)},
		{"last months default", PeriodLastMonths, "", time.Date(2026, time.July, 15, 14, 30, 0, 0, time.UTC)},
		{"last six months", PeriodLastMonths, "6", time.Date(2026, time.April, 15, 14, 30, 0, 0, time.UTC)},
		{"year", PeriodYear, "", time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := PeriodRange(now, tt.period, tt.months)
			require.NoError(t, err)
			require.NotNil(t, r.From)
			assert.Equal(t, tt.from, *r.From)
			assert.Equal(t, now, r.To)
		})
	}
}

func TestPeriodRangeSunday(t *testing.T) {
	sunday := time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)
	r, err := PeriodRange(sunday, PeriodWeek, "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC), *r.From)
}

func TestPeriodRangeAllAndErrors(t *testing.T) {
	now := time.Now()
	r, err := PeriodRange(now, "all", "")
	require.NoError(t, err)
	assert.Nil(t, r.From)
	assert.True(t, r.Contains(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)))

	_, err = PeriodRange(now, "decade", "")
	assert.Error(t, err)
	_, err = PeriodRange(now, PeriodLastMonths, "99")
	assert.Error(t, err)
}
