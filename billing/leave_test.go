package billing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodebox/fact-engine/billing"
)

func TestNormalizeLeave_RequiresStart(t *testing.T) {
	_, ok := billing.NormalizeLeave(billing.Leave{End: "2026-02-10"})
	assert.False(t, ok, "no start date: record is dropped")

	_, ok = billing.NormalizeLeave(billing.Leave{Start: "10/02/2026"})
	assert.False(t, ok, "non-ISO start: record is dropped")
}

func TestNormalizeLeave_DefaultsAndSwaps(t *testing.T) {
	// Missing end collapses to a single day.
	l, ok := billing.NormalizeLeave(billing.Leave{Start: "2026-02-10"})
	require.True(t, ok)
	assert.Equal(t, "2026-02-10", l.End)

	// Reversed input is swapped.
	l, ok = billing.NormalizeLeave(billing.Leave{Start: "2026-02-12", End: "2026-02-10"})
	require.True(t, ok)
	assert.Equal(t, "2026-02-10", l.Start)
	assert.Equal(t, "2026-02-12", l.End)
}

func TestNormalizeLeave_LegacyFields(t *testing.T) {
	// Legacy startDate/endDate aliases fill the canonical fields.
	l, ok := billing.NormalizeLeave(billing.Leave{LegacyStartDate: "2026-02-10", LegacyEndDate: "2026-02-11"})
	require.True(t, ok)
	assert.Equal(t, "2026-02-10", l.Start)
	assert.Equal(t, "2026-02-11", l.End)

	// Legacy half flags migrate to isHalf only for single-day leaves.
	l, ok = billing.NormalizeLeave(billing.Leave{Start: "2026-02-10", LegacyStartHalf: true})
	require.True(t, ok)
	assert.True(t, l.IsHalf)

	l, ok = billing.NormalizeLeave(billing.Leave{Start: "2026-02-10", End: "2026-02-12", LegacyStartHalf: true})
	require.True(t, ok)
	assert.False(t, l.IsHalf, "range leaves never gain a half-day flag")
}

func TestDeductibleDays_SingleDay(t *testing.T) {
	// Tuesday
	assert.Equal(t, 1.0, billing.DeductibleDays(billing.Leave{Start: "2026-02-10", End: "2026-02-10"}))
	// Half day
	assert.Equal(t, 0.5, billing.DeductibleDays(billing.Leave{Start: "2026-02-10", End: "2026-02-10", IsHalf: true}))
	// Saturday
	assert.Equal(t, 0.0, billing.DeductibleDays(billing.Leave{Start: "2026-02-07", End: "2026-02-07"}))
	// New Year (a holiday) contributes 0 regardless of the half flag.
	assert.Equal(t, 0.0, billing.DeductibleDays(billing.Leave{Start: "2026-01-01", End: "2026-01-01"}))
	assert.Equal(t, 0.0, billing.DeductibleDays(billing.Leave{Start: "2026-01-01", End: "2026-01-01", IsHalf: true}))
}

func TestDeductibleDays_Range(t *testing.T) {
	// Mon 2026-02-09 .. Sun 2026-02-15: five business days, weekend excluded.
	got := billing.DeductibleDays(billing.Leave{Start: "2026-02-09", End: "2026-02-15"})
	assert.Equal(t, 5.0, got)

	// Range across a holiday: Thu 2026-12-24 .. Mon 2026-12-28.
	// Dec 25 is a holiday, 26/27 the weekend: only Thu 24 and Mon 28 count.
	got = billing.DeductibleDays(billing.Leave{Start: "2026-12-24", End: "2026-12-28"})
	assert.Equal(t, 2.0, got)

	// Half-day flag on a range is ignored: still whole days.
	got = billing.DeductibleDays(billing.Leave{Start: "2026-02-09", End: "2026-02-10", IsHalf: true})
	assert.Equal(t, 2.0, got)
}

func TestMergeLeaves_CurrentWins(t *testing.T) {
	current := []billing.Leave{
		{ID: "a", Start: "2026-02-10", End: "2026-02-10", Type: "Congés"},
	}
	legacy := []billing.Leave{
		{ID: "old", Start: "2026-02-10", End: "2026-02-10", Type: "Congés"}, // duplicate signature
		{ID: "b", Start: "2026-03-02", End: "2026-03-03", Type: "Congés"},
	}

	merged := billing.MergeLeaves(current, legacy)
	require.Len(t, merged, 2)
	assert.Equal(t, "a", merged[0].ID, "current record wins over the legacy duplicate")
	assert.Equal(t, "b", merged[1].ID)
}

func TestIsLeaveDay(t *testing.T) {
	leaves := []billing.Leave{{Start: "2026-02-10", End: "2026-02-12"}}
	assert.True(t, billing.IsLeaveDay("2026-02-10", leaves))
	assert.True(t, billing.IsLeaveDay("2026-02-12", leaves))
	assert.False(t, billing.IsLeaveDay("2026-02-13", leaves))
}
