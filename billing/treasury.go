/*
treasury.go - Cash ledger view

PURPOSE:
  The treasury is a merged view: manual entries recorded by hand, plus
  entries derived on the fly from paid invoices (TTC revenue, on the
  payment date) and from expenses. Derived entries are never persisted,
  they are rebuilt from the billing records on every read.
*/
package billing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	TreasuryIncome  = "Revenu"
	TreasuryExpense = "Dépense"
)

// TreasuryEntry is one cash movement. Source tells the entry apart:
// "manual" entries are stored, "invoice-paid" and "expense" are derived.
type TreasuryEntry struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Source      string  `json:"source,omitempty"`
}

// TreasuryLedger merges the manual entries with the movements derived from
// paid invoices and expenses, newest first.
func TreasuryLedger(manual []TreasuryEntry, invoices []Invoice, expenses []Expense, defaultRate float64) []TreasuryEntry {
	entries := make([]TreasuryEntry, 0, len(manual)+len(invoices)+len(expenses))
	for _, e := range manual {
		e.Source = "manual"
		entries = append(entries, e)
	}

	rate := decimal.NewFromFloat(defaultRate)
	for _, inv := range invoices {
		if !inv.IsPaid() {
			continue
		}
		date := inv.SettledDate()
		if date == "" {
			continue
		}
		ttc, _ := InvoiceTTC(inv, rate).Float64()
		entries = append(entries, TreasuryEntry{
			ID:          "invoice-paid-" + inv.ID,
			Date:        date,
			Type:        TreasuryIncome,
			Description: strings.TrimSpace("Facture payée " + inv.Number),
			Amount:      ttc,
			Source:      "invoice-paid",
		})
	}

	for _, exp := range expenses {
		if strings.TrimSpace(exp.Date) == "" || exp.Amount <= 0 {
			continue
		}
		entries = append(entries, TreasuryEntry{
			ID:          "expense-" + exp.ID,
			Date:        exp.Date,
			Type:        TreasuryExpense,
			Description: expenseLabel(exp),
			Amount:      exp.Amount,
			Source:      "expense",
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date > entries[j].Date })
	return entries
}

// TreasuryBalance sums the ledger: income, expenses, and their difference.
func TreasuryBalance(entries []TreasuryEntry) (income, expenses, balance float64) {
	for _, e := range entries {
		switch e.Type {
		case TreasuryIncome:
			income += e.Amount
		case TreasuryExpense:
			expenses += e.Amount
		}
	}
	return income, expenses, income - expenses
}

func expenseLabel(exp Expense) string {
	var parts []string
	if c := strings.TrimSpace(exp.Category); c != "" {
		parts = append(parts, c)
	}
	if d := strings.TrimSpace(exp.Description); d != "" {
		parts = append(parts, d)
	}
	if len(parts) == 0 {
		return "Dépense TTC"
	}
	return fmt.Sprintf("Dépense TTC %s", strings.Join(parts, " • "))
}
