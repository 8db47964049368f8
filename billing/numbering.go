/*
numbering.go - Invoice numbers and date rules

NUMBER FORMAT:
  F{YYYY}-{MM}-{XXXXXX} where XXXXXX is the last 6 digits of the purchase
  order, left-padded with zeros. Non-digit characters in the purchase order
  are stripped first. A missing or invalid issue date falls back to the
  current year/month.

DUE DATES:
  Due date = issue date + payment term days (default 60). When the issue
  date of an existing invoice changes, the due date moves with it, keeping
  the original issue-to-due delta, and the number is regenerated from the
  new issue date.
*/
package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/nodebox/fact-engine/calendar"
)

func last6Digits(purchaseOrder string) string {
	var digits strings.Builder
	for _, r := range purchaseOrder {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	s := digits.String()
	if len(s) > 6 {
		s = s[len(s)-6:]
	}
	return fmt.Sprintf("%06s", s)
}

// InvoiceNumber derives the invoice number from the purchase order and the
// issue date.
func InvoiceNumber(purchaseOrder, issueISO string) string {
	var yyyy, mm string
	if calendar.IsISO(issueISO) {
		yyyy, mm = issueISO[:4], issueISO[5:7]
	} else {
		now := time.Now()
		yyyy = fmt.Sprintf("%04d", now.Year())
		mm = fmt.Sprintf("%02d", int(now.Month()))
	}
	return fmt.Sprintf("F%s-%s-%s", yyyy, mm, last6Digits(purchaseOrder))
}

// DueDate computes issue + termDays, defaulting the term to 60 when it is
// not positive.
func DueDate(issueISO string, termDays int) string {
	if termDays <= 0 {
		termDays = 60
	}
	return calendar.AddDays(issueISO, termDays)
}

// Reissue moves an invoice to a new issue date: the due date shifts by the
// invoice's original issue-to-due delta (60 days when that delta cannot be
// computed) and the number is regenerated. A non-ISO date is a no-op.
func Reissue(inv *Invoice, newIssueISO string) {
	if !calendar.IsISO(newIssueISO) {
		return
	}
	delta := calendar.DaysBetween(inv.IssueDate, inv.DueDate, 60)
	if delta <= 0 {
		delta = 60
	}
	inv.IssueDate = newIssueISO
	inv.DueDate = calendar.AddDays(newIssueISO, delta)
	inv.Number = InvoiceNumber(inv.PurchaseOrder, newIssueISO)
}
