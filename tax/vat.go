/*
vat.go - Fiscal-year VAT projection (régime simplifié)

PURPOSE:
  The VAT cycle modeled here follows the simplified annual regime: VAT is
  collected on paid invoices through the year, two statutory advances are
  paid (80% of the collected VAT of each half-year, overridable by hand),
  and the yearly CA12 declaration settles the balance.

KEY CONCEPTS:
  - An invoice counts on its payment date, falling back to its issue date
    when the payment date was never recorded.
  - Deductible VAT is extracted from VAT-inclusive expense amounts at the
    fixed standard rate, never stored.
  - The CA12 balance is debited on the 5th of the second month of the
    quarter following the declaration's quarter (Q1->May, Q2->Aug,
    Q3->Nov, Q4->Feb of the next year).
*/
package tax

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/nodebox/fact-engine/billing"
	"github.com/nodebox/fact-engine/calendar"
)

const (
	// DefaultVATRate is the standard French rate used for expense VAT
	// extraction and new invoice drafts.
	DefaultVATRate = 20.0

	// acomptesShare is the statutory advance fraction of half-year VAT.
	acomptesShare = 0.8
)

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

// VATFromTTC extracts the VAT share of a VAT-inclusive amount.
// Non-positive amounts or rates yield 0.
func VATFromTTC(ttc, ratePercent float64) float64 {
	if ttc <= 0 || ratePercent <= 0 {
		return 0
	}
	return ttc - ttc/(1+ratePercent/100)
}

// YearProjection is the computed VAT position of one fiscal year.
type YearProjection struct {
	Year int `json:"year"`

	Collected         float64 `json:"collected"`
	CollectedJanToJul float64 `json:"collectedJanToJul"`
	CollectedAugToDec float64 `json:"collectedAugToDec"`
	Deductible        float64 `json:"deductible"`
	NetDue            float64 `json:"netDue"`
	Credit            float64 `json:"credit"`

	Acompte1Auto   float64 `json:"acompte1Auto"`
	Acompte2Auto   float64 `json:"acompte2Auto"`
	Acompte1       float64 `json:"acompte1"`
	Acompte2       float64 `json:"acompte2"`
	Acompte1Manual bool    `json:"acompte1Manual"`
	Acompte2Manual bool    `json:"acompte2Manual"`
	Acompte1Paid   bool    `json:"acompte1Paid"`
	Acompte2Paid   bool    `json:"acompte2Paid"`
	AcomptesPaid   float64 `json:"acomptesPaid"`

	// RemainingToPay counts only money actually out the door: paid
	// advances and a paid CA12 declaration reduce it, unpaid ones do not.
	RemainingToPay float64 `json:"remainingToPay"`
	Overpayment    float64 `json:"overpayment"`

	// EstimatedBalance assumes both advances will be paid as computed; it
	// is the amount to expect on the CA12 and seeds the declaration form.
	EstimatedBalance float64 `json:"estimatedBalance"`
}

// ProjectYear computes the VAT position of a fiscal year from the paid
// invoices, the year's expenses, and the stored user state for that year.
func ProjectYear(year int, invoices []billing.Invoice, expenses []billing.Expense, rec YearRecord, defaultRate float64) YearProjection {
	p := YearProjection{Year: year}

	for _, inv := range invoices {
		if !inv.IsPaid() {
			continue
		}
		settled := inv.SettledDate()
		if !calendar.IsISO(settled) || calendar.Year(settled) != year {
			continue
		}
		vat, _ := billing.InvoiceVAT(inv, decimal.NewFromFloat(defaultRate)).Float64()
		p.Collected += vat
		month, _ := strconv.Atoi(settled[5:7])
		if month >= 1 && month <= 7 {
			p.CollectedJanToJul += vat
		}
		if month >= 8 && month <= 12 {
			p.CollectedAugToDec += vat
		}
	}
	p.Collected = round2(p.Collected)
	p.CollectedJanToJul = round2(p.CollectedJanToJul)
	p.CollectedAugToDec = round2(p.CollectedAugToDec)

	for _, exp := range expenses {
		if calendar.Year(exp.Date) == year {
			p.Deductible += VATFromTTC(exp.Amount, DefaultVATRate)
		}
	}
	p.Deductible = round2(p.Deductible)

	p.NetDue = round2(math.Max(p.Collected-p.Deductible, 0))
	p.Credit = round2(math.Max(p.Deductible-p.Collected, 0))

	p.Acompte1Auto = round2(p.CollectedJanToJul * acomptesShare)
	p.Acompte2Auto = round2(p.CollectedAugToDec * acomptesShare)
	p.Acompte1, p.Acompte1Manual = effectiveAcompte(rec.ManualAcompte1, p.Acompte1Auto)
	p.Acompte2, p.Acompte2Manual = effectiveAcompte(rec.ManualAcompte2, p.Acompte2Auto)

	p.Acompte1Paid = calendar.IsISO(rec.PaidDateAcompte1)
	p.Acompte2Paid = calendar.IsISO(rec.PaidDateAcompte2)
	if p.Acompte1Paid {
		p.AcomptesPaid += p.Acompte1
	}
	if p.Acompte2Paid {
		p.AcomptesPaid += p.Acompte2
	}
	p.AcomptesPaid = round2(p.AcomptesPaid)

	paidCA12 := 0.0
	if calendar.IsISO(rec.PaidDate) && rec.DeclaredCA12Amount > 0 {
		paidCA12 = rec.DeclaredCA12Amount
	}
	p.RemainingToPay = round2(math.Max(p.NetDue-p.AcomptesPaid-paidCA12, 0))
	p.Overpayment = round2(math.Max(p.AcomptesPaid+paidCA12-p.NetDue, 0))
	p.EstimatedBalance = round2(math.Max(p.NetDue-round2(p.Acompte1+p.Acompte2), 0))

	return p
}

func effectiveAcompte(manual *float64, auto float64) (amount float64, isManual bool) {
	if manual != nil {
		return *manual, true
	}
	return auto, false
}

// =============================================================================
// CA12 CALENDAR
// =============================================================================

// CA12BalanceDueDate returns the expected debit date of the CA12 balance
// for a declaration made on the given date: the 5th of the second month of
// the following calendar quarter, rolling into the next year after Q4.
// Empty on an invalid declaration date.
func CA12BalanceDueDate(declarationISO string) string {
	if !calendar.IsISO(declarationISO) {
		return ""
	}
	year := calendar.Year(declarationISO)
	month, _ := strconv.Atoi(declarationISO[5:7])

	quarter := (month + 2) / 3
	next := quarter + 1
	if next > 4 {
		next = 1
		year++
	}
	// Second month of the quarter: Q1->02, Q2->05, Q3->08, Q4->11.
	dueMonth := (next-1)*3 + 2
	return fmt.Sprintf("%04d-%02d-05", year, dueMonth)
}

// =============================================================================
// GLOBAL PROVISION & UPCOMING PAYMENTS
// =============================================================================

// UpcomingPayment is one declared CA12 amount and the date it is expected
// to be debited. PaidDate is kept so callers can render settled rows.
type UpcomingPayment struct {
	Year            int     `json:"year"`
	Amount          float64 `json:"amount"`
	DeclarationDate string  `json:"declarationDate"`
	PaymentDate     string  `json:"paymentDate"`
	PaidDate        string  `json:"paidDate"`
	DaysUntil       int     `json:"daysUntil"`
}

// ProvisionTotal is the amount to keep aside right now: the selected
// year's VAT still due after the advances actually paid, plus every CA12
// declared but not yet debited, whatever its year.
func ProvisionTotal(selectedYear int, invoices []billing.Invoice, expenses []billing.Expense, data VATData, defaultRate float64) float64 {
	proj := ProjectYear(selectedYear, invoices, expenses, data.ByYear[strconv.Itoa(selectedYear)], defaultRate)
	total := math.Max(proj.NetDue-proj.AcomptesPaid, 0)

	for _, rec := range data.ByYear {
		if rec.DeclaredCA12Amount > 0 && !calendar.IsISO(rec.PaidDate) {
			total += rec.DeclaredCA12Amount
		}
	}
	return round2(total)
}

// UpcomingPayments lists every declared CA12 with a computable debit date,
// soonest first.
func UpcomingPayments(data VATData) []UpcomingPayment {
	var out []UpcomingPayment
	for key, rec := range data.ByYear {
		if rec.DeclaredCA12Amount <= 0 {
			continue
		}
		due := CA12BalanceDueDate(rec.DeclarationDate)
		if due == "" {
			continue
		}
		year, _ := strconv.Atoi(key)
		out = append(out, UpcomingPayment{
			Year:            year,
			Amount:          rec.DeclaredCA12Amount,
			DeclarationDate: rec.DeclarationDate,
			PaymentDate:     due,
			PaidDate:        rec.PaidDate,
			DaysUntil:       calendar.DaysBetween(calendar.Today(), due, 0),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentDate < out[j].PaymentDate })
	return out
}
