/*
urssaf.go - Monthly URSSAF contribution lines

PURPOSE:
  URSSAF contributions are a percentage of revenue, declared month by
  month. Revenue lands in the month an invoice was actually paid; the
  contribution is rounded to whole euros the way the declaration portal
  rounds it.

DATE DEFAULTS:
  - declaration: first business day of the month following the revenue
    period;
  - expected debit: first business day of the month following the
    declaration. Stored user dates always win over the defaults.
*/
package tax

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nodebox/fact-engine/billing"
	"github.com/nodebox/fact-engine/calendar"
)

// URSSAFLine is one revenue month with its contribution and its
// declaration/debit schedule.
type URSSAFLine struct {
	Period            string  `json:"period"` // "YYYY-MM"
	RevenueHT         float64 `json:"revenueHt"`
	Rate              float64 `json:"rate"`
	DeclarationDate   string  `json:"declarationDate"`
	ExpectedDebitDate string  `json:"expectedDebitDate"`
	PaidDate          string  `json:"paidDate"`
	AmountDue         float64 `json:"amountDue"`
}

// Paid reports whether the period's contribution has been settled.
func (l URSSAFLine) Paid() bool { return strings.TrimSpace(l.PaidDate) != "" }

// URSSAFLines groups the paid invoices' revenue by payment month and
// derives one contribution line per month, newest first.
func URSSAFLines(invoices []billing.Invoice, data URSSAFData, defaultDailyRate float64) []URSSAFLine {
	revenue := map[string]float64{}
	for _, inv := range invoices {
		if !inv.IsPaid() {
			continue
		}
		settled := inv.SettledDate()
		if !calendar.IsISO(settled) {
			continue
		}
		ht, _ := billing.InvoiceHT(inv, decimal.NewFromFloat(defaultDailyRate)).Float64()
		revenue[calendar.PeriodOf(settled)] += ht
	}

	lines := make([]URSSAFLine, 0, len(revenue))
	for period, ht := range revenue {
		stored := data.ByPeriod[period]

		rate := data.GlobalRate
		if stored.Rate > 0 {
			rate = stored.Rate
		}
		if rate <= 0 {
			rate = DefaultURSSAFRate
		}

		declaration := stored.DeclarationDate
		if declaration == "" {
			declaration = calendar.FirstBusinessDayAfterPeriod(period)
		}
		debit := stored.ExpectedDebitDate
		if debit == "" {
			debit = calendar.FirstBusinessDayOfMonthAfter(declaration)
		}

		lines = append(lines, URSSAFLine{
			Period:            period,
			RevenueHT:         roundEUR(ht),
			Rate:              rate,
			DeclarationDate:   declaration,
			ExpectedDebitDate: debit,
			PaidDate:          stored.PaidDate,
			AmountDue:         roundEUR(ht * rate / 100),
		})
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].Period > lines[j].Period })
	return lines
}

// URSSAFTotals sums the given lines: everything due, the paid share, and
// what remains.
func URSSAFTotals(lines []URSSAFLine) (due, paid, remaining float64) {
	for _, l := range lines {
		due += l.AmountDue
		if l.Paid() {
			paid += l.AmountDue
		}
	}
	remaining = math.Max(due-paid, 0)
	return due, paid, remaining
}

// URSSAFRemainingForYear sums the unpaid contributions of the periods
// belonging to the given year.
func URSSAFRemainingForYear(lines []URSSAFLine, year int) float64 {
	var remaining float64
	for _, l := range lines {
		if calendar.Year(l.Period+"-01") != year || l.Paid() {
			continue
		}
		remaining += l.AmountDue
	}
	return remaining
}

// roundEUR rounds to whole euros, matching the declaration portal.
func roundEUR(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v)
}
