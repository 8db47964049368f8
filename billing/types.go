/*
Package billing holds the invoicing domain: invoices and their line items,
expenses, leaves, mission settings, and the pure engines computing worked
days, quotas, totals, numbers and due dates.

PURPOSE:
  Everything here is deterministic and side-effect free. Persistence lives in
  the store package, projections over fiscal periods in the tax package.

KEY CONCEPTS IN THIS FILE (types.go):
  - Invoice / LineItem: the billing system of record. A line item with a nil
    or non-positive unit price bills at the mission's default daily rate.
  - Expense: VAT-inclusive amount; VAT is always derived, never stored.
  - Settings: mission configuration, built through ParseSettings so every
    field always carries a usable value.

INVARIANTS:
  - status "paid" implies a valid ISO paymentDate; "issued" implies "".
  - Dates are ISO "YYYY-MM-DD" strings everywhere (see package calendar).

SEE ALSO:
  - leave.go: leave normalization and deductible days
  - workdays.go: worked-day counting and quota arithmetic
  - totals.go: HT / VAT / TTC
*/
package billing

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/nodebox/fact-engine/calendar"
)

// =============================================================================
// INVOICE
// =============================================================================

const (
	StatusIssued = "issued"
	StatusPaid   = "paid"
)

// LineItem is a single invoice line. Quantity is in days and may be
// fractional. A nil or non-positive UnitPrice means "bill at the mission's
// default daily rate".
type LineItem struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	Quantity     float64  `json:"quantity"`
	UnitPrice    *float64 `json:"unitPrice"`
	Unit         string   `json:"unit,omitempty"`
	AutoQuantity bool     `json:"autoQuantity"`
}

type Invoice struct {
	ID            string     `json:"id"`
	Number        string     `json:"number"`
	PeriodStart   string     `json:"periodStart"`
	PeriodEnd     string     `json:"periodEnd"`
	IssueDate     string     `json:"issueDate"`
	DueDate       string     `json:"dueDate"`
	PaymentDate   string     `json:"paymentDate"`
	Status        string     `json:"status"`
	ClientName    string     `json:"clientName"`
	ClientAddress string     `json:"clientAddress"`
	ClientEmail   string     `json:"clientEmail"`
	ClientPhone   string     `json:"clientPhone"`
	PurchaseOrder string     `json:"purchaseOrder"`
	VATEnabled    bool       `json:"vatEnabled"`
	VATRate       float64    `json:"vatRate"`
	Items         []LineItem `json:"items"`
	Notes         string     `json:"notes"`
}

// MarkPaid transitions the invoice to paid on the given date. An invalid
// date keeps an already-set payment date, else falls back to today, so the
// "paid implies dated" invariant always holds.
func (inv *Invoice) MarkPaid(dateISO string) {
	inv.Status = StatusPaid
	switch {
	case calendar.IsISO(dateISO):
		inv.PaymentDate = dateISO
	case calendar.IsISO(inv.PaymentDate):
		// keep the existing date
	default:
		inv.PaymentDate = calendar.Today()
	}
}

// MarkIssued reverses a payment: back to issued, payment date cleared.
func (inv *Invoice) MarkIssued() {
	inv.Status = StatusIssued
	inv.PaymentDate = ""
}

// IsPaid reports whether the invoice is marked paid.
func (inv *Invoice) IsPaid() bool { return inv.Status == StatusPaid }

// SettledDate is the date a paid invoice counts on for fiscal grouping:
// the payment date when set, else the issue date.
func (inv *Invoice) SettledDate() string {
	if d := strings.TrimSpace(inv.PaymentDate); d != "" {
		return d
	}
	return strings.TrimSpace(inv.IssueDate)
}

// TotalQuantity sums the day quantities of every line.
func (inv *Invoice) TotalQuantity() float64 {
	var total float64
	for _, it := range inv.Items {
		total += it.Quantity
	}
	return total
}

// =============================================================================
// EXPENSE
// =============================================================================

// ExpenseCategories is the fixed category list offered by the UI. Free text
// is still accepted in the Category field.
var ExpenseCategories = []string{
	"Transport",
	"Repas",
	"Hôtel",
	"Matériel",
	"Logiciel",
	"Télécom",
	"Frais bancaires",
	"Autre",
}

// Expense is a VAT-inclusive (TTC) expense. The deductible VAT share is
// derived at a fixed rate by the tax package, never stored.
type Expense struct {
	ID             string  `json:"id"`
	Date           string  `json:"date"`
	Category       string  `json:"category"`
	Vendor         string  `json:"vendor"`
	Description    string  `json:"description"`
	Amount         float64 `json:"amount"`
	ReceiptName    string  `json:"receiptName,omitempty"`
	ReceiptDataURL string  `json:"receiptDataUrl,omitempty"`
}

// =============================================================================
// SETTINGS
// =============================================================================

// Settings is the mission/company configuration. Always built through
// DefaultSettings or ParseSettings so no field is ever left meaningless.
type Settings struct {
	CompanyName     string `json:"companyName"`
	CompanyPhone    string `json:"companyPhone"`
	CompanyAddress  string `json:"companyAddress"`
	CompanySiret    string `json:"companySiret"`
	CompanyVATIntra string `json:"companyVatIntra"`
	CompanyEmail    string `json:"companyEmail"`

	ClientName    string `json:"clientName"`
	ClientAddress string `json:"clientAddress"`
	ClientPhone   string `json:"clientPhone"`
	ClientEmail   string `json:"clientEmail"`

	PurchaseOrder    string  `json:"purchaseOrder"`
	MissionStartDate string  `json:"missionStartDate"`
	MissionQuotaDays float64 `json:"missionQuotaDays"`
	TJMHT            float64 `json:"tjmHt"`

	BankName string `json:"bankName"`
	IBAN     string `json:"iban"`
	BIC      string `json:"bic"`

	LogoDataURL      string `json:"logoDataUrl,omitempty"`
	SignatureDataURL string `json:"signatureDataUrl,omitempty"`
	SignerName       string `json:"signerName"`

	PaymentTermDays int `json:"paymentTermDays"`
}

// DefaultSettings returns the base configuration every parse merges onto.
func DefaultSettings() Settings {
	return Settings{PaymentTermDays: 60}
}

// ParseSettings decodes settings JSON onto the defaults. Nothing is fatal:
// corrupt input yields the defaults, partial input keeps defaults for the
// missing fields, and numeric fields are clamped to sane values.
func ParseSettings(raw []byte) Settings {
	s := DefaultSettings()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s); err != nil {
			return DefaultSettings()
		}
	}
	if s.PaymentTermDays <= 0 {
		s.PaymentTermDays = 60
	}
	if s.MissionQuotaDays < 0 {
		s.MissionQuotaDays = 0
	}
	if s.TJMHT < 0 {
		s.TJMHT = 0
	}
	if !calendar.IsISO(strings.TrimSpace(s.MissionStartDate)) {
		s.MissionStartDate = ""
	} else {
		s.MissionStartDate = strings.TrimSpace(s.MissionStartDate)
	}
	s.PurchaseOrder = strings.TrimSpace(s.PurchaseOrder)
	return s
}

// NewID returns a fresh entity identifier.
func NewID() string { return uuid.NewString() }
