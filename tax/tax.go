/*
Package tax projects VAT and URSSAF obligations from the billing records.

PURPOSE:
  Everything in this package is a pure projection: paid invoices and dated
  expenses go in, per-fiscal-year VAT positions and per-month URSSAF
  contribution lines come out. The stored records only carry what the user
  decided (manual advance overrides, declaration dates, paid dates); every
  amount is recomputed on demand.

KEY CONCEPTS IN THIS FILE (tax.go):
  - YearRecord / VATData: per-fiscal-year user state for the VAT cycle
    (two advances, the CA12 declaration, their payment dates).
  - PeriodRecord / URSSAFData: per-"YYYY-MM" user state for the URSSAF
    levy, plus the global contribution rate.
  - Both parse tolerantly: corrupt JSON degrades to empty data with the
    default rate, never to an error.

SEE ALSO:
  - vat.go: the fiscal-year VAT projection and the CA12 calendar rules
  - urssaf.go: monthly revenue grouping and contribution lines
*/
package tax

import "encoding/json"

// DefaultURSSAFRate is the auto-entrepreneur service rate applied when no
// global or per-period rate has been configured.
const DefaultURSSAFRate = 22.0

// =============================================================================
// VAT DATA
// =============================================================================

// YearRecord is the stored user state for one fiscal year's VAT cycle.
// A nil manual advance means "use the automatically computed one". Dates
// are ISO strings; an empty date means not declared / not paid.
type YearRecord struct {
	ManualAcompte1     *float64 `json:"manualAcompte1,omitempty"`
	ManualAcompte2     *float64 `json:"manualAcompte2,omitempty"`
	PaidDateAcompte1   string   `json:"paidDateAcompte1,omitempty"`
	PaidDateAcompte2   string   `json:"paidDateAcompte2,omitempty"`
	DeclaredCA12Amount float64  `json:"declaredCa12Amount,omitempty"`
	DeclarationDate    string   `json:"declarationDate,omitempty"`
	PaidDate           string   `json:"paidDate,omitempty"`
}

// VATData is the persisted VAT bucket: user state keyed by fiscal year
// ("2026"), plus the year currently selected in the UI.
type VATData struct {
	SelectedYear int                   `json:"selectedYear,omitempty"`
	ByYear       map[string]YearRecord `json:"byYear"`
}

// ParseVATData decodes the VAT bucket. Corrupt input yields empty data.
func ParseVATData(raw []byte) VATData {
	var d VATData
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &d); err != nil {
			d = VATData{}
		}
	}
	if d.ByYear == nil {
		d.ByYear = map[string]YearRecord{}
	}
	return d
}

// =============================================================================
// URSSAF DATA
// =============================================================================

// PeriodRecord is the stored user state for one URSSAF revenue month.
// Rate is a percent override applied when positive; empty dates fall back
// to the computed declaration/debit defaults.
type PeriodRecord struct {
	Rate              float64 `json:"rate,omitempty"`
	DeclarationDate   string  `json:"declarationDate,omitempty"`
	ExpectedDebitDate string  `json:"expectedDebitDate,omitempty"`
	PaidDate          string  `json:"paidDate,omitempty"`
}

// URSSAFData is the persisted URSSAF bucket: the global contribution rate
// and the per-period overrides keyed by "YYYY-MM".
type URSSAFData struct {
	GlobalRate float64                 `json:"globalRate"`
	ByPeriod   map[string]PeriodRecord `json:"byPeriod"`
}

// DefaultURSSAFData returns empty data carrying the default rate.
func DefaultURSSAFData() URSSAFData {
	return URSSAFData{GlobalRate: DefaultURSSAFRate, ByPeriod: map[string]PeriodRecord{}}
}

// ParseURSSAFData decodes the URSSAF bucket. Corrupt input and non-positive
// rates degrade to the defaults.
func ParseURSSAFData(raw []byte) URSSAFData {
	d := DefaultURSSAFData()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &d); err != nil {
			return DefaultURSSAFData()
		}
	}
	if d.GlobalRate <= 0 {
		d.GlobalRate = DefaultURSSAFRate
	}
	if d.ByPeriod == nil {
		d.ByPeriod = map[string]PeriodRecord{}
	}
	return d
}
