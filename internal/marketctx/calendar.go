package marketctx

import "time"

// IST is India Standard Time. A fixed zone keeps the binary independent of tzdata.
var IST = time.FixedZone("IST", 5*3600+30*60)

// Regular NSE session, IST.
const (
	marketOpenMinutes  = 9*60 + 15
	marketCloseMinutes = 15*60 + 30
)

// IsMarketOpen reports whether now falls in the regular Mon–Fri 09:15–15:30 IST session.
// Exchange holidays are not modelled.
func IsMarketOpen(now time.Time) bool {
	t := now.In(IST)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	m := t.Hour()*60 + t.Minute()
	return m >= marketOpenMinutes && m <= marketCloseMinutes
}

// TradingDate returns the IST calendar date of now as YYYY-MM-DD.
func TradingDate(now time.Time) string {
	return now.In(IST).Format("2006-01-02")
}

// PreviousSession returns the same IST wall-clock time on the previous
// weekday. Exchange holidays are not skipped.
func PreviousSession(now time.Time) time.Time {
	t := now.In(IST).AddDate(0, 0, -1)
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// LastThursday returns midnight IST of the last Thursday in now's month.
func LastThursday(now time.Time) time.Time {
	t := now.In(IST)
	lastDay := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, IST)
	back := (int(lastDay.Weekday()) - int(time.Thursday) + 7) % 7
	return lastDay.AddDate(0, 0, -back)
}

// daysFromLastThursday is the signed whole-day distance between now's IST
// date and the month's last Thursday.
func daysFromLastThursday(now time.Time) int {
	t := now.In(IST)
	today := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, IST)
	return int(today.Sub(LastThursday(now)).Hours() / 24)
}

// IsExpiryWeek reports whether now is within 7 days of the monthly expiry.
func IsExpiryWeek(now time.Time) bool {
	return abs(daysFromLastThursday(now)) <= 7
}

// IsMonthlyExpiry reports whether now is within 2 days of the monthly expiry.
func IsMonthlyExpiry(now time.Time) bool {
	return abs(daysFromLastThursday(now)) <= 2
}

// IsResultsWeek reports the quarterly results window: days 10–25 of Jan, Apr, Jul and Oct.
func IsResultsWeek(now time.Time) bool {
	t := now.In(IST)
	switch t.Month() {
	case time.January, time.April, time.July, time.October:
		return t.Day() >= 10 && t.Day() <= 25
	}
	return false
}

// DaysUntil returns whole IST days from now until the given date (negative when past).
func DaysUntil(now, date time.Time) int {
	t := now.In(IST)
	d := date.In(IST)
	today := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, IST)
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, IST)
	return int(day.Sub(today).Hours() / 24)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
