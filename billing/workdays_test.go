package billing_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nodebox/fact-engine/billing"
	"github.com/nodebox/fact-engine/calendar"
)

func TestWorkedDaysBetween_SingleDay(t *testing.T) {
	// Property: a one-day window counts 1 iff the day is a weekday and not
	// a holiday.
	assert.Equal(t, 1.0, billing.WorkedDaysBetween("2026-02-10", "2026-02-10", nil)) // Tuesday
	assert.Equal(t, 0.0, billing.WorkedDaysBetween("2026-02-07", "2026-02-07", nil)) // Saturday
	assert.Equal(t, 0.0, billing.WorkedDaysBetween("2026-07-14", "2026-07-14", nil)) // holiday (Tue)
}

func TestWorkedDaysBetween_Basics(t *testing.T) {
	// Mon 2026-01-05 .. Fri 2026-01-16: 10 plain weekdays, no holidays.
	assert.Equal(t, 10.0, billing.WorkedDaysBetween("2026-01-05", "2026-01-16", nil))

	// Reversed or invalid windows count 0.
	assert.Equal(t, 0.0, billing.WorkedDaysBetween("2026-01-16", "2026-01-05", nil))
	assert.Equal(t, 0.0, billing.WorkedDaysBetween("", "2026-01-16", nil))
}

func TestWorkedDaysBetween_DeductsClippedLeaves(t *testing.T) {
	// GIVEN a leave overlapping the window only partially
	// WHEN counting worked days with leave deduction
	// THEN only the clipped overlap is deducted
	leaves := []billing.Leave{
		// Thu 2026-01-15 .. Tue 2026-01-20; clipped to the window it covers
		// Thu 15 + Fri 16 = 2 business days.
		{Start: "2026-01-15", End: "2026-01-20"},
	}
	got := billing.WorkedDaysBetween("2026-01-05", "2026-01-16", leaves)
	assert.Equal(t, 8.0, got)

	// Half-day leave inside the window.
	leaves = []billing.Leave{{Start: "2026-01-07", End: "2026-01-07", IsHalf: true}}
	assert.Equal(t, 9.5, billing.WorkedDaysBetween("2026-01-05", "2026-01-16", leaves))

	// Leave fully outside the window deducts nothing.
	leaves = []billing.Leave{{Start: "2026-03-02", End: "2026-03-06"}}
	assert.Equal(t, 10.0, billing.WorkedDaysBetween("2026-01-05", "2026-01-16", leaves))
}

func TestWorkedDaysBetween_NeverNegative(t *testing.T) {
	// A leave larger than the whole window cannot push the count below 0.
	leaves := []billing.Leave{
		{Start: "2026-01-01", End: "2026-01-31"},
		{Start: "2026-01-01", End: "2026-01-31"}, // double-booked leave
	}
	assert.Equal(t, 0.0, billing.WorkedDaysBetween("2026-01-05", "2026-01-16", leaves))
}

func TestWorkedDaysBetween_LeaveDeductionMonotone(t *testing.T) {
	// Property: deducting leaves never yields more than the plain count.
	leaves := []billing.Leave{
		{Start: "2026-01-06", End: "2026-01-06"},
		{Start: "2026-01-12", End: "2026-01-14"},
	}
	withLeaves := billing.WorkedDaysBetween("2026-01-05", "2026-01-30", leaves)
	without := billing.WorkedDaysBetween("2026-01-05", "2026-01-30", nil)
	assert.LessOrEqual(t, withLeaves, without)
}

func TestAddWorkedDays(t *testing.T) {
	// Start counts as day 1: 1 worked day from a Monday is the Monday.
	assert.Equal(t, "2026-01-05", billing.AddWorkedDays("2026-01-05", 1, nil))

	// 10 worked days from Mon 2026-01-05 lands on Fri 2026-01-16.
	assert.Equal(t, "2026-01-16", billing.AddWorkedDays("2026-01-05", 10, nil))

	// Leave days are skipped.
	leaves := []billing.Leave{{Start: "2026-01-05", End: "2026-01-09"}}
	assert.Equal(t, "2026-01-12", billing.AddWorkedDays("2026-01-05", 1, leaves))

	// Holidays are NOT skipped here (observed asymmetry with
	// WorkedDaysBetween): Jan 1 2026 is a Thursday holiday but still counts.
	assert.Equal(t, "2026-01-01", billing.AddWorkedDays("2026-01-01", 1, nil))

	// n <= 0 returns the start unchanged.
	assert.Equal(t, "2026-01-05", billing.AddWorkedDays("2026-01-05", 0, nil))
	assert.Equal(t, "not-a-date", billing.AddWorkedDays("not-a-date", 5, nil))
}

func TestMissionEndByQuota(t *testing.T) {
	// Mission starts Monday 2026-01-05, quota 10 workdays, no leaves:
	// the 10th weekday from and including the start is Friday 2026-01-16.
	assert.Equal(t, "2026-01-16", billing.MissionEndByQuota("2026-01-05", 10, nil))

	assert.Equal(t, "", billing.MissionEndByQuota("2026-01-05", 0, nil))
	assert.Equal(t, "", billing.MissionEndByQuota("", 10, nil))
}

func TestMissionEndByQuota_RoundTripsWithWorkedDays(t *testing.T) {
	// Property: walking the quota forward and recounting the window agrees
	// when no leaves or holidays interfere.
	start := "2026-01-05"
	for q := 1; q <= 15; q++ {
		end := billing.MissionEndByQuota(start, q, nil)
		counted := 0.0
		for cur := start; cur <= end; cur = addDay(cur) {
			counted += billing.WorkedDaysBetween(cur, cur, nil)
		}
		// Holidays make WorkedDaysBetween count fewer days than the walk;
		// the window 2026-01-05..2026-02-06 has none, so they must agree.
		assert.Equal(t, float64(q), counted, "quota %d", q)
	}
}

func TestClampToRemaining(t *testing.T) {
	assert.Equal(t, 5.0, billing.ClampToRemaining(5, 10))
	assert.Equal(t, 10.0, billing.ClampToRemaining(15, 10))
	assert.Equal(t, 0.0, billing.ClampToRemaining(-2, 10))

	// Non-finite remaining means "no quota": value passes through.
	assert.Equal(t, 15.0, billing.ClampToRemaining(15, math.NaN()))
	assert.Equal(t, 15.0, billing.ClampToRemaining(15, math.Inf(1)))
}

func TestClampToRemaining_Idempotent(t *testing.T) {
	for _, v := range []float64{-3, 0, 4.5, 10, 99} {
		for _, r := range []float64{0, 7, 20, math.NaN()} {
			once := billing.ClampToRemaining(v, r)
			twice := billing.ClampToRemaining(once, r)
			assert.Equal(t, once, twice)
		}
	}
}

func TestUsedDays(t *testing.T) {
	invoices := []billing.Invoice{
		{PurchaseOrder: "BC-100", Items: []billing.LineItem{{Quantity: 10}, {Quantity: 2.5}}},
		{PurchaseOrder: " BC-100 ", Items: []billing.LineItem{{Quantity: 5}}},
		{PurchaseOrder: "BC-200", Items: []billing.LineItem{{Quantity: 99}}},
	}

	assert.Equal(t, 17.5, billing.UsedDays(invoices, "BC-100"))
	assert.Equal(t, 17.5, billing.UsedDays(invoices, "  BC-100  "), "purchase orders are trimmed")
	assert.Equal(t, 0.0, billing.UsedDays(invoices, ""), "blank purchase order tracks nothing")
	assert.Equal(t, 0.0, billing.UsedDays(invoices, "BC-999"))
}

func TestRemainingDays(t *testing.T) {
	assert.Equal(t, 8.0, billing.RemainingDays(20, 12))
	assert.Equal(t, 0.0, billing.RemainingDays(20, 25), "over-consumption clamps to 0")
	assert.True(t, math.IsNaN(billing.RemainingDays(0, 12)), "no quota configured")
}

func addDay(iso string) string {
	return calendar.AddDays(iso, 1)
}
