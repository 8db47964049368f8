/*
leave.go - Leave records and their deductible worked days

PURPOSE:
  Normalizes stored leave records (single-day vs range, half-day flag,
  legacy startHalf/endHalf migration) and computes how many worked days a
  leave removes from a billing period.

HALF-DAY POLICY:
  Half days only exist for single-day leaves. A multi-day range always
  deducts whole business days; this is a deliberate simplification carried
  over from the source system, not an oversight.

LEGACY DATA:
  Older records used start/end half-day booleans and startDate/endDate field
  names. Both are migrated on read: aliases fill the canonical fields, and
  the old half flags collapse to isHalf only when the leave is one day.
*/
package billing

import (
	"fmt"

	"github.com/nodebox/fact-engine/calendar"
)

// Leave is a leave record. Start is required; End defaults to Start.
// IsHalf is only meaningful when Start == End.
type Leave struct {
	ID     string `json:"id"`
	Start  string `json:"start"`
	End    string `json:"end"`
	IsHalf bool   `json:"isHalf"`
	Type   string `json:"type"`
	Reason string `json:"reason"`

	// Legacy representation, migrated by NormalizeLeave and never written
	// back.
	LegacyStartDate string `json:"startDate,omitempty"`
	LegacyEndDate   string `json:"endDate,omitempty"`
	LegacyStartHalf bool   `json:"startHalf,omitempty"`
	LegacyEndHalf   bool   `json:"endHalf,omitempty"`
}

// NormalizeLeave validates and canonicalizes a raw leave record. It returns
// false when the record has no usable start date, in which case the caller
// drops it. Reversed ranges are swapped, a missing or invalid end collapses
// to a single day, and legacy half-day flags are migrated only for
// single-day leaves.
func NormalizeLeave(raw Leave) (Leave, bool) {
	start := raw.Start
	if !calendar.IsISO(start) {
		start = raw.LegacyStartDate
	}
	if !calendar.IsISO(start) {
		return Leave{}, false
	}

	end := raw.End
	if !calendar.IsISO(end) {
		end = raw.LegacyEndDate
	}
	if !calendar.IsISO(end) {
		end = start
	}

	if start > end {
		start, end = end, start
	}

	l := Leave{
		ID:     raw.ID,
		Start:  start,
		End:    end,
		IsHalf: raw.IsHalf,
		Type:   raw.Type,
		Reason: raw.Reason,
	}
	if !raw.IsHalf && (raw.LegacyStartHalf || raw.LegacyEndHalf) && start == end {
		l.IsHalf = true
	}
	return l, true
}

// NormalizeLeaves normalizes a collection, dropping unusable records.
func NormalizeLeaves(raw []Leave) []Leave {
	out := make([]Leave, 0, len(raw))
	for _, r := range raw {
		if l, ok := NormalizeLeave(r); ok {
			out = append(out, l)
		}
	}
	return out
}

func leaveSignature(l Leave) string {
	return fmt.Sprintf("%s|%s|%s|%s", l.Start, l.End, l.Type, l.Reason)
}

// MergeLeaves combines the current ledger with a legacy one, deduplicating
// by (start, end, type, reason). The current source wins on conflict.
func MergeLeaves(current, legacy []Leave) []Leave {
	seen := make(map[string]struct{}, len(current))
	merged := make([]Leave, 0, len(current)+len(legacy))
	for _, l := range current {
		seen[leaveSignature(l)] = struct{}{}
		merged = append(merged, l)
	}
	for _, l := range legacy {
		sig := leaveSignature(l)
		if _, ok := seen[sig]; ok {
			continue
		}
		seen[sig] = struct{}{}
		merged = append(merged, l)
	}
	return merged
}

// DeductibleDays returns the worked days this leave removes from a billing
// period. Single day: 0 on a weekend or holiday, else 1 (0.5 when IsHalf).
// Range: the count of business days in the inclusive range, with no
// half-day granularity.
func DeductibleDays(l Leave) float64 {
	if !calendar.IsISO(l.Start) {
		return 0
	}
	end := l.End
	if !calendar.IsISO(end) {
		end = l.Start
	}

	span := calendar.DaysBetween(l.Start, end, -1)
	if span < 0 || span > 10000 {
		return 0
	}

	if span == 0 {
		if !calendar.IsBusinessDay(l.Start) {
			return 0
		}
		if l.IsHalf {
			return 0.5
		}
		return 1
	}

	var count float64
	for cur := l.Start; cur <= end; cur = calendar.AddDays(cur, 1) {
		if calendar.IsBusinessDay(cur) {
			count++
		}
	}
	return count
}

// clip restricts a leave to a window, returning false when there is no
// overlap. The clipped copy keeps the half-day flag, which stays meaningful
// only if the clipped leave is still a single day.
func (l Leave) clip(startISO, endISO string) (Leave, bool) {
	if !calendar.IsISO(l.Start) || !calendar.IsISO(l.End) {
		return Leave{}, false
	}
	start := l.Start
	if startISO > start {
		start = startISO
	}
	end := l.End
	if endISO < end {
		end = endISO
	}
	if start > end {
		return Leave{}, false
	}
	clipped := l
	clipped.Start = start
	clipped.End = end
	return clipped, true
}

// IsLeaveDay reports whether iso falls inside any of the given leaves.
func IsLeaveDay(iso string, leaves []Leave) bool {
	for _, l := range leaves {
		if !calendar.IsISO(l.Start) || !calendar.IsISO(l.End) {
			continue
		}
		if iso >= l.Start && iso <= l.End {
			return true
		}
	}
	return false
}
