/*
accounting.go - Accounting workbook export

PURPOSE:
  One spreadsheet for the accountant: a summary sheet with per-year
  HT/VAT/TTC over paid invoices and the year's expenses, then one invoice
  sheet and one expense sheet per fiscal year. This is a reporting view,
  not a re-importable format.
*/
package export

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nodebox/fact-engine/billing"
	"github.com/nodebox/fact-engine/calendar"
)

// AccountingWorkbook builds the workbook. Years are derived from the data
// (invoice issue dates and expense dates), newest first; with no data at
// all the current year still gets its empty sheets.
func AccountingWorkbook(invoices []billing.Invoice, expenses []billing.Expense, defaultRate float64) (*excelize.File, error) {
	years := fiscalYears(invoices, expenses)
	rate := decimal.NewFromFloat(defaultRate)

	f := excelize.NewFile()
	const summary = "Résumé"
	f.SetSheetName("Sheet1", summary)

	if err := writeSummary(f, summary, invoices, expenses, rate, years); err != nil {
		return nil, err
	}
	for _, year := range years {
		if err := writeInvoiceSheet(f, fmt.Sprintf("Factures %d", year), invoices, rate, year); err != nil {
			return nil, err
		}
		if err := writeExpenseSheet(f, fmt.Sprintf("Dépenses %d", year), expenses, year); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func fiscalYears(invoices []billing.Invoice, expenses []billing.Expense) []int {
	seen := map[int]struct{}{}
	for _, inv := range invoices {
		if y := calendar.Year(inv.IssueDate); y > 0 {
			seen[y] = struct{}{}
		}
	}
	for _, exp := range expenses {
		if y := calendar.Year(exp.Date); y > 0 {
			seen[y] = struct{}{}
		}
	}
	if len(seen) == 0 {
		seen[calendar.Year(calendar.Today())] = struct{}{}
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

func writeSummary(f *excelize.File, sheet string, invoices []billing.Invoice, expenses []billing.Expense, rate decimal.Decimal, years []int) error {
	rows := [][]interface{}{
		{"RÉSUMÉ COMPTABLE"},
		{},
		{"Année", "CA HT", "TVA", "CA TTC", "Dépenses TTC"},
	}

	for _, year := range years {
		var ht, vat, ttc, spent float64
		for _, inv := range invoices {
			if !inv.IsPaid() || calendar.Year(inv.SettledDate()) != year {
				continue
			}
			ht += toFloat(billing.InvoiceHT(inv, rate))
			vat += toFloat(billing.InvoiceVAT(inv, rate))
			ttc += toFloat(billing.InvoiceTTC(inv, rate))
		}
		for _, exp := range expenses {
			if calendar.Year(exp.Date) == year {
				spent += exp.Amount
			}
		}
		rows = append(rows, []interface{}{year, ht, vat, ttc, spent})
	}
	return writeRows(f, sheet, rows)
}

func writeInvoiceSheet(f *excelize.File, sheet string, invoices []billing.Invoice, rate decimal.Decimal, year int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"FACTURES"},
		{fmt.Sprintf("Année: %d", year)},
		{},
		{"N° Facture", "Date Émission", "Date Paiement", "Statut", "Client", "Montant HT", "Montant TVA", "Montant TTC"},
	}

	var selected []billing.Invoice
	for _, inv := range invoices {
		if calendar.Year(inv.IssueDate) == year {
			selected = append(selected, inv)
		}
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].IssueDate > selected[j].IssueDate })

	var totalHT, totalVAT, totalTTC float64
	for _, inv := range selected {
		ht := toFloat(billing.InvoiceHT(inv, rate))
		vat := toFloat(billing.InvoiceVAT(inv, rate))
		ttc := toFloat(billing.InvoiceTTC(inv, rate))
		totalHT += ht
		totalVAT += vat
		totalTTC += ttc
		rows = append(rows, []interface{}{
			inv.Number, inv.IssueDate, inv.PaymentDate, inv.Status, inv.ClientName, ht, vat, ttc,
		})
	}
	rows = append(rows, []interface{}{"", "", "", "", "TOTAL:", totalHT, totalVAT, totalTTC})

	return writeRows(f, sheet, rows)
}

func writeExpenseSheet(f *excelize.File, sheet string, expenses []billing.Expense, year int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"DÉPENSES"},
		{fmt.Sprintf("Année: %d", year)},
		{},
		{"Date", "Catégorie", "Fournisseur", "Description", "Montant HT", "Montant TVA", "Montant TTC"},
	}

	var selected []billing.Expense
	for _, exp := range expenses {
		if calendar.Year(exp.Date) == year {
			selected = append(selected, exp)
		}
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].Date > selected[j].Date })

	var totalHT, totalVAT, totalTTC float64
	for _, exp := range selected {
		// Expenses are stored TTC; the HT share is extracted at the
		// standard rate for the accountant's benefit.
		ttc := exp.Amount
		ht := ttc / 1.2
		vat := ttc - ht
		totalHT += ht
		totalVAT += vat
		totalTTC += ttc
		rows = append(rows, []interface{}{
			exp.Date, exp.Category, exp.Vendor, exp.Description, ht, vat, ttc,
		})
	}
	rows = append(rows, []interface{}{"", "", "", "TOTAL:", totalHT, totalVAT, totalTTC})

	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func toFloat(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}
