package billing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nodebox/fact-engine/billing"
)

func TestInvoiceNumber(t *testing.T) {
	cases := []struct {
		po, issue, want string
	}{
		{"BC123456", "2026-03-15", "F2026-03-123456"},
		{"BC-42", "2026-01-01", "F2026-01-000042"},
		{"PO/2026/987654321", "2026-07-31", "F2026-07-654321"}, // last 6 digits only
		{"", "2026-02-10", "F2026-02-000000"},                  // no digits at all
	}
	for _, c := range cases {
		assert.Equal(t, c.want, billing.InvoiceNumber(c.po, c.issue), "po=%q issue=%q", c.po, c.issue)
	}
}

func TestDueDate(t *testing.T) {
	assert.Equal(t, "2026-03-31", billing.DueDate("2026-01-30", 60))
	assert.Equal(t, "2026-02-14", billing.DueDate("2026-01-30", 15))

	// Non-positive terms fall back to 60 days.
	assert.Equal(t, "2026-03-31", billing.DueDate("2026-01-30", 0))
	assert.Equal(t, "2026-03-31", billing.DueDate("2026-01-30", -5))
}

func TestReissue_PreservesTermDelta(t *testing.T) {
	// GIVEN an invoice issued with a 45-day term
	inv := billing.Invoice{
		Number:        "F2026-01-123456",
		PurchaseOrder: "BC123456",
		IssueDate:     "2026-01-10",
		DueDate:       "2026-02-24",
	}

	// WHEN it is reissued on a later date
	billing.Reissue(&inv, "2026-03-01")

	// THEN the issue-to-due span is carried over and the number follows the new date
	assert.Equal(t, "2026-03-01", inv.IssueDate)
	assert.Equal(t, "2026-04-15", inv.DueDate)
	assert.Equal(t, "F2026-03-123456", inv.Number)
}

func TestReissue_BrokenDatesFallBackTo60Days(t *testing.T) {
	inv := billing.Invoice{
		PurchaseOrder: "BC-7",
		IssueDate:     "2026-01-10",
		DueDate:       "not-a-date",
	}
	billing.Reissue(&inv, "2026-06-01")
	assert.Equal(t, "2026-07-31", inv.DueDate)
}
