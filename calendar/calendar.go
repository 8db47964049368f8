/*
Package calendar provides the ISO-date and workday kernel.

PURPOSE:
  Every date in the system is an ISO string "YYYY-MM-DD". This package owns
  parsing, validation, UTC arithmetic, and the weekday / business-day tests
  that the billing and tax engines build on.

KEY CONCEPTS:
  - ISO dates: zero-padded "YYYY-MM-DD" so string comparison equals
    chronological comparison. Nothing else is ever stored or compared.
  - UTC everywhere: all arithmetic happens on UTC-normalized dates to avoid
    daylight-saving skew.
  - Weekday vs business day: a weekday is Monday-Friday; a business day is
    additionally not a French public holiday (see holidays.go).

SEE ALSO:
  - holidays.go: French public holidays and the per-year cache
  - billing/workdays.go: worked-day counting built on this kernel
*/
package calendar

import (
	"fmt"
	"regexp"
	"time"
)

var isoRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsISO reports whether s is a valid "YYYY-MM-DD" date. The calendar is
// checked too: "2025-02-31" is rejected, not normalized to March.
func IsISO(s string) bool {
	if !isoRe.MatchString(s) {
		return false
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return false
	}
	return t.Format("2006-01-02") == s
}

// Parse returns the UTC midnight time for an ISO date.
func Parse(iso string) (time.Time, error) {
	if !IsISO(iso) {
		return time.Time{}, fmt.Errorf("calendar: invalid ISO date %q", iso)
	}
	return time.ParseInLocation("2006-01-02", iso, time.UTC)
}

// Format renders t as an ISO date in UTC.
func Format(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Today returns the current date as an ISO string.
func Today() string {
	return Format(time.Now())
}

// Year extracts the year of an ISO date, 0 when invalid.
func Year(iso string) int {
	t, err := Parse(iso)
	if err != nil {
		return 0
	}
	return t.Year()
}

// PeriodOf returns the "YYYY-MM" calendar month of an ISO date, "" when
// invalid.
func PeriodOf(iso string) string {
	if !IsISO(iso) {
		return ""
	}
	return iso[:7]
}

// =============================================================================
// ARITHMETIC
// =============================================================================

// AddDays shifts an ISO date by n days. Invalid input is returned unchanged.
func AddDays(iso string, n int) string {
	t, err := Parse(iso)
	if err != nil {
		return iso
	}
	return Format(t.AddDate(0, 0, n))
}

// AddMonths shifts an ISO date by n calendar months, with Go's usual
// normalization on overflow (Jan 31 + 1 month = Mar 2/3).
func AddMonths(iso string, n int) string {
	t, err := Parse(iso)
	if err != nil {
		return ""
	}
	return Format(t.AddDate(0, n, 0))
}

// EndOfMonth returns the last day of the ISO date's month.
func EndOfMonth(iso string) string {
	t, err := Parse(iso)
	if err != nil {
		return iso
	}
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Format(first.AddDate(0, 1, -1))
}

// DaysBetween returns the signed whole-day distance from a to b, or fallback
// when either date is invalid.
func DaysBetween(a, b string, fallback int) int {
	ta, errA := Parse(a)
	tb, errB := Parse(b)
	if errA != nil || errB != nil {
		return fallback
	}
	return int(tb.Sub(ta).Hours() / 24)
}

// =============================================================================
// WEEKDAYS AND BUSINESS DAYS
// =============================================================================

// IsWeekday reports whether the ISO date falls on Monday-Friday.
func IsWeekday(iso string) bool {
	t, err := Parse(iso)
	if err != nil {
		return false
	}
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// NextWeekday advances to the next Monday-Friday date strictly after iso.
// Holidays are NOT considered here; this feeds invoice period rollover, which
// the source system defines on plain weekdays. Capped at 10 steps.
func NextWeekday(iso string) string {
	t, err := Parse(iso)
	if err != nil {
		return iso
	}
	t = t.AddDate(0, 0, 1)
	for i := 0; i < 10; i++ {
		wd := t.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			break
		}
		t = t.AddDate(0, 0, 1)
	}
	return Format(t)
}

// IsBusinessDay reports whether the ISO date is a weekday and not a French
// public holiday.
func IsBusinessDay(iso string) bool {
	return IsWeekday(iso) && !IsHoliday(iso)
}

// NextBusinessDay returns the first business day strictly after iso, capped
// at 10 steps.
func NextBusinessDay(iso string) string {
	t, err := Parse(iso)
	if err != nil {
		return iso
	}
	t = t.AddDate(0, 0, 1)
	for i := 0; i < 10; i++ {
		if IsBusinessDay(Format(t)) {
			return Format(t)
		}
		t = t.AddDate(0, 0, 1)
	}
	return Format(t)
}

// FirstBusinessDayOfMonthAfter returns the first business day of the month
// following the ISO date, capped at 10 steps.
func FirstBusinessDayOfMonthAfter(iso string) string {
	t, err := Parse(iso)
	if err != nil {
		return iso
	}
	cur := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	for i := 0; i < 10; i++ {
		if IsBusinessDay(Format(cur)) {
			return Format(cur)
		}
		cur = cur.AddDate(0, 0, 1)
	}
	return Format(cur)
}

// FirstBusinessDayAfterPeriod returns the first business day of the month
// following a "YYYY-MM" period, "" when the period is malformed.
func FirstBusinessDayAfterPeriod(period string) string {
	t, err := time.ParseInLocation("2006-01", period, time.UTC)
	if err != nil {
		return ""
	}
	cur := t.AddDate(0, 1, 0)
	for i := 0; i < 10; i++ {
		if IsBusinessDay(Format(cur)) {
			return Format(cur)
		}
		cur = cur.AddDate(0, 0, 1)
	}
	return Format(cur)
}
