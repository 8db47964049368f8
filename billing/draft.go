/*
draft.go - Invoice creation and auto-quantity recomputation

PURPOSE:
  NewDraft seeds a fresh invoice from the mission settings and the invoice
  history: the billing period starts the weekday after the previous invoice
  on the same purchase order ended, and the single auto-quantity line is
  pre-filled with the worked days of that period, clamped to the remaining
  quota.

  RecomputeAutoQuantities refreshes auto lines whenever the billing period
  or the leave ledger changes, clamping against the quota remaining once the
  invoice's own current contribution is excluded (otherwise editing an
  invoice would double count itself).
*/
package billing

import (
	"sort"
	"strings"

	"github.com/nodebox/fact-engine/calendar"
)

// NewDraft creates an invoice seeded from the settings and the existing
// collection. Issue date is the end of the current month; the period runs
// from the day after the last same-purchase-order invoice (or the mission
// start) to the issue date.
func NewDraft(s Settings, existing []Invoice, leaves []Leave) Invoice {
	issueDate := calendar.EndOfMonth(calendar.Today())
	po := strings.TrimSpace(s.PurchaseOrder)

	periodStart := periodStartAfter(existing, po, s.MissionStartDate, issueDate)
	periodEnd := issueDate

	rawQty := WorkedDaysBetween(periodStart, periodEnd, leaves)
	remaining := RemainingDays(s.MissionQuotaDays, UsedDays(existing, po))
	qty := ClampToRemaining(rawQty, remaining)

	return Invoice{
		ID:            NewID(),
		Number:        InvoiceNumber(po, issueDate),
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		IssueDate:     issueDate,
		DueDate:       DueDate(issueDate, s.PaymentTermDays),
		Status:        StatusIssued,
		PaymentDate:   "",
		ClientName:    s.ClientName,
		ClientAddress: s.ClientAddress,
		ClientEmail:   s.ClientEmail,
		ClientPhone:   s.ClientPhone,
		PurchaseOrder: po,
		VATEnabled:    true,
		VATRate:       20,
		Items: []LineItem{{
			ID:           NewID(),
			Description:  "Prestation",
			Quantity:     qty,
			UnitPrice:    nil,
			Unit:         "days",
			AutoQuantity: true,
		}},
	}
}

// periodStartAfter finds where the next billing period begins: the next
// weekday after the latest same-purchase-order invoice's period end (its
// issue date when the period end is blank), else the mission start, else the
// issue date itself.
func periodStartAfter(existing []Invoice, po, missionStart, issueDate string) string {
	var sameBC []Invoice
	for _, inv := range existing {
		if strings.TrimSpace(inv.PurchaseOrder) == po && po != "" {
			sameBC = append(sameBC, inv)
		}
	}
	if len(sameBC) > 0 {
		sort.Slice(sameBC, func(i, j int) bool {
			return sameBC[i].IssueDate > sameBC[j].IssueDate
		})
		last := sameBC[0]
		from := last.PeriodEnd
		if from == "" {
			from = last.IssueDate
		}
		return calendar.NextWeekday(from)
	}
	if calendar.IsISO(missionStart) {
		return missionStart
	}
	return issueDate
}

// RecomputeAutoQuantities refreshes every auto-quantity line of inv from the
// current billing period, clamped to the quota remaining across the other
// invoices on the same purchase order.
func RecomputeAutoQuantities(inv *Invoice, s Settings, all []Invoice, leaves []Leave) {
	raw := WorkedDaysBetween(inv.PeriodStart, inv.PeriodEnd, leaves)

	qty := raw
	if s.MissionQuotaDays > 0 {
		usedWithoutThis := UsedDays(all, inv.PurchaseOrder) - usedByInvoice(all, inv.ID)
		qty = ClampToRemaining(raw, RemainingDays(s.MissionQuotaDays, usedWithoutThis))
	}

	for i := range inv.Items {
		if inv.Items[i].AutoQuantity {
			inv.Items[i].Quantity = qty
		}
	}
}

// usedByInvoice returns the quantity currently booked by the invoice with
// the given id inside the collection, 0 when absent.
func usedByInvoice(all []Invoice, id string) float64 {
	for _, inv := range all {
		if inv.ID == id {
			return inv.TotalQuantity()
		}
	}
	return 0
}
