package marketctx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ist(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, IST)
}

func TestLastThursday(t *testing.T) {
	tests := []struct {
		now  time.Time
		want int
	}{
		{ist(2026, time.October, 5, 10, 0), 29},
		{ist(2026, time.February, 1, 10, 0), 26},
		{ist(2026, time.December, 1, 10, 0), 31},
		{ist(2026, time.March, 10, 10, 0), 26},
	}
	for _, tt := range tests {
		got := LastThursday(tt.now)
		assert.Equal(t, time.Thursday, got.Weekday())
		assert.Equal(t, tt.want, got.Day(), tt.now.Format("Jan"))
		assert.Equal(t, tt.now.Month(), got.Month())
	}
}

func TestExpiryWindows(t *testing.T) {
	assert.True(t, IsExpiryWeek(ist(2026, time.October, 22, 10, 0)))
	assert.False(t, IsExpiryWeek(ist(2026, time.October, 21, 10, 0)))
	assert.True(t, IsExpiryWeek(ist(2026, time.October, 31, 10, 0)))
	assert.False(t, IsExpiryWeek(ist(2026, time.November, 1, 10, 0)))

	assert.True(t, IsMonthlyExpiry(ist(2026, time.October, 27, 10, 0)))
	assert.True(t, IsMonthlyExpiry(ist(2026, time.October, 29, 15, 0)))
	assert.False(t, IsMonthlyExpiry(ist(2026, time.October, 26, 10, 0)))
}

func TestIsResultsWeek(t *testing.T) {
	assert.True(t, IsResultsWeek(ist(2026, time.October, 10, 10, 0)))
	assert.True(t, IsResultsWeek(ist(2026, time.January, 25, 10, 0)))
	assert.False(t, IsResultsWeek(ist(2026, time.October, 26, 10, 0)))
	assert.False(t, IsResultsWeek(ist(2026, time.October, 9, 10, 0)))
	assert.False(t, IsResultsWeek(ist(2026, time.November, 15, 10, 0)))
}

func TestIsMarketOpen(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"open bell", ist(2026, time.March, 10, 9, 15), true},
		{"pre open", ist(2026, time.March, 10, 9, 14), false},
		{"close bell", ist(2026, time.March, 10, 15, 30), true},
		{"after close", ist(2026, time.March, 10, 15, 31), false},
		{"saturday", ist(2026, time.March, 14, 10, 0), false},
		{"sunday", ist(2026, time.March, 15, 10, 0), false},
		{"utc input", time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMarketOpen(tt.now))
		})
	}
}

func TestTradingDateAndDaysUntil(t *testing.T) {
	assert.Equal(t, "2026-03-11", TradingDate(time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-03-10", TradingDate(ist(2026, time.March, 10, 23, 59)))

	now := ist(2026, time.March, 10, 14, 0)
	assert.Equal(t, 16, DaysUntil(now, ist(2026, time.March, 26, 0, 0)))
	assert.Equal(t, 0, DaysUntil(now, ist(2026, time.March, 10, 0, 0)))
	assert.Equal(t, -1, DaysUntil(now, ist(2026, time.March, 9, 0, 0)))
}

func TestPreviousSession(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"tuesday", ist(2026, time.March, 10, 11, 40), ist(2026, time.March, 9, 11, 40)},
		{"monday skips weekend", ist(2026, time.March, 9, 9, 30), ist(2026, time.March, 6, 9, 30)},
		{"sunday", ist(2026, time.March, 8, 12, 0), ist(2026, time.March, 6, 12, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PreviousSession(tt.now)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}
