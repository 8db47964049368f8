/*
workdays.go - Worked-day counting and mission quota arithmetic

PURPOSE:
  The date-driven heart of billing: counts worked days between two dates net
  of weekends, holidays and leaves; projects a mission end date by walking a
  worked-day quota forward; clamps proposed quantities to what remains on a
  purchase order.

HOLIDAY ASYMMETRY (intentional, observed behavior):
  WorkedDaysBetween excludes public holidays; AddWorkedDays does not, it
  only skips weekends and leave days. The source system behaves this way and
  the asymmetry is preserved rather than silently unified.
*/
package billing

import (
	"math"
	"strings"

	"github.com/nodebox/fact-engine/calendar"
)

// maxWalkDays bounds the forward walk in AddWorkedDays. A 50k-day horizon is
// far beyond any real mission and purely a runaway guard.
const maxWalkDays = 50000

// countBusinessDaysInclusive counts weekdays that are not holidays in
// [start, end]. Invalid input, reversed ranges, and absurd spans count 0.
func countBusinessDaysInclusive(startISO, endISO string) float64 {
	if !calendar.IsISO(startISO) || !calendar.IsISO(endISO) {
		return 0
	}
	span := calendar.DaysBetween(startISO, endISO, -1)
	if span < 0 || span > 10000 {
		return 0
	}
	var count float64
	for cur := startISO; cur <= endISO; cur = calendar.AddDays(cur, 1) {
		if calendar.IsBusinessDay(cur) {
			count++
		}
	}
	return count
}

// WorkedDaysBetween counts worked days in [start, end] inclusive: weekdays
// minus holidays, and, when leaves is non-nil, minus the deductible days of
// every leave clipped to the window. Never negative. Pass nil to skip leave
// deduction.
func WorkedDaysBetween(startISO, endISO string, leaves []Leave) float64 {
	base := countBusinessDaysInclusive(startISO, endISO)
	if leaves == nil || base == 0 {
		return base
	}

	var deducted float64
	for _, l := range leaves {
		if clipped, ok := l.clip(startISO, endISO); ok {
			deducted += DeductibleDays(clipped)
		}
	}
	return math.Max(base-deducted, 0)
}

// AddWorkedDays walks forward from start (start itself is candidate day 1)
// counting weekdays that are not leave days, and returns the date on which
// the n-th worked day lands. Holidays are deliberately not skipped here; see
// the package note on the holiday asymmetry. n <= 0 returns start unchanged.
func AddWorkedDays(startISO string, n int, leaves []Leave) string {
	if !calendar.IsISO(startISO) {
		return startISO
	}
	if n <= 0 {
		return startISO
	}

	cur := startISO
	counted := 0
	for i := 0; i < maxWalkDays; i++ {
		if calendar.IsWeekday(cur) && !IsLeaveDay(cur, leaves) {
			counted++
		}
		if counted >= n {
			return cur
		}
		cur = calendar.AddDays(cur, 1)
	}
	return cur
}

// MissionEndByQuota projects the mission end date: the day the quota-th
// worked day falls, walking from the mission start. Empty when either input
// is unusable.
func MissionEndByQuota(missionStartISO string, quota int, leaves []Leave) string {
	if !calendar.IsISO(missionStartISO) || quota <= 0 {
		return ""
	}
	return AddWorkedDays(missionStartISO, quota, leaves)
}

// ClampToRemaining clamps a proposed quantity into [0, remaining]. A
// non-finite remaining means "no quota configured" and returns the value
// unclamped.
func ClampToRemaining(value, remaining float64) float64 {
	if math.IsNaN(remaining) || math.IsInf(remaining, 0) {
		return value
	}
	return math.Max(0, math.Min(value, remaining))
}

// UsedDays sums the line-item quantities of every invoice on the given
// purchase order (trimmed, exact match). A blank purchase order tracks
// nothing and returns 0.
func UsedDays(invoices []Invoice, purchaseOrder string) float64 {
	po := strings.TrimSpace(purchaseOrder)
	if po == "" {
		return 0
	}
	var total float64
	for _, inv := range invoices {
		if strings.TrimSpace(inv.PurchaseOrder) != po {
			continue
		}
		total += inv.TotalQuantity()
	}
	return total
}

// RemainingDays returns the quota remaining on a purchase order, excluding
// the usage already counted in `used`. NaN when no quota is configured, so
// it feeds straight into ClampToRemaining.
func RemainingDays(quota, used float64) float64 {
	if quota <= 0 {
		return math.NaN()
	}
	return math.Max(0, quota-used)
}
