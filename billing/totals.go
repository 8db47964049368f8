/*
totals.go - Invoice HT / VAT / TTC

Amounts are computed with decimal arithmetic to keep HT + VAT == TTC exact.
A line's unit price falls back to the mission's default daily rate unless it
is a positive number.
*/
package billing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func lineAmount(it LineItem, defaultRate decimal.Decimal) decimal.Decimal {
	price := defaultRate
	if it.UnitPrice != nil && *it.UnitPrice > 0 {
		price = decimal.NewFromFloat(*it.UnitPrice)
	}
	return decimal.NewFromFloat(it.Quantity).Mul(price)
}

// InvoiceHT sums quantity x unit price over the invoice's lines, the unit
// price defaulting to defaultRate when absent or non-positive.
func InvoiceHT(inv Invoice, defaultRate decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, it := range inv.Items {
		total = total.Add(lineAmount(it, defaultRate))
	}
	return total
}

// InvoiceVAT is zero when VAT is disabled, else HT x vatRate / 100.
func InvoiceVAT(inv Invoice, defaultRate decimal.Decimal) decimal.Decimal {
	if !inv.VATEnabled {
		return decimal.Zero
	}
	return InvoiceHT(inv, defaultRate).Mul(decimal.NewFromFloat(inv.VATRate)).Div(hundred)
}

// InvoiceTTC is HT + VAT.
func InvoiceTTC(inv Invoice, defaultRate decimal.Decimal) decimal.Decimal {
	return InvoiceHT(inv, defaultRate).Add(InvoiceVAT(inv, defaultRate))
}
