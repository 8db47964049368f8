/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  The domain types are persisted as-is (their JSON shape is the storage
  schema), so most endpoints serve them directly. What lives here are the
  request bodies of mutation endpoints and the composite read models that
  bundle several projections for one page.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
*/
package api

import (
	"github.com/nodebox/fact-engine/billing"
	"github.com/nodebox/fact-engine/sync"
	"github.com/nodebox/fact-engine/tax"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// PayRequest dates a payment. An empty date means today.
type PayRequest struct {
	Date string `json:"date"`
}

// RateRequest updates the global URSSAF rate.
type RateRequest struct {
	GlobalRate float64 `json:"globalRate"`
}

// StartSyncRequest identifies the account to mirror.
type StartSyncRequest struct {
	UserID string `json:"userId"`
}

// MissionStatusDTO is the quota dashboard: days booked against the
// purchase order, what remains, and the projected mission end.
type MissionStatusDTO struct {
	PurchaseOrder  string  `json:"purchaseOrder"`
	QuotaDays      float64 `json:"quotaDays"`
	UsedDays       float64 `json:"usedDays"`
	RemainingDays  float64 `json:"remainingDays"`
	MissionEndDate string  `json:"missionEndDate"`
}

// TaxViewDTO bundles one fiscal year's VAT page.
type TaxViewDTO struct {
	Projection tax.YearProjection    `json:"projection"`
	Record     tax.YearRecord        `json:"record"`
	BalanceDue string                `json:"balanceDueDate"`
	Provision  float64               `json:"provisionTotal"`
	Upcoming   []tax.UpcomingPayment `json:"upcomingPayments"`
}

// URSSAFViewDTO bundles the URSSAF page.
type URSSAFViewDTO struct {
	GlobalRate float64          `json:"globalRate"`
	Lines      []tax.URSSAFLine `json:"lines"`
	TotalDue   float64          `json:"totalDue"`
	TotalPaid  float64          `json:"totalPaid"`
	Remaining  float64          `json:"remaining"`
}

// TreasuryViewDTO is the merged cash ledger with its running totals.
type TreasuryViewDTO struct {
	Entries  []billing.TreasuryEntry `json:"entries"`
	Income   float64                 `json:"income"`
	Expenses float64                 `json:"expenses"`
	Balance  float64                 `json:"balance"`
}

// SyncStatusDTO reports the mirror session state.
type SyncStatusDTO struct {
	Configured bool        `json:"configured"`
	Status     sync.Status `json:"status"`
}
