/*
handlers.go - HTTP API handlers for the invoicing engine

PURPOSE:
  Exposes the billing records and the tax projections via REST. Handles
  HTTP request/response and JSON, delegates every computation to the
  billing/tax/export packages.

ENDPOINTS:
  Invoices:
    GET    /api/invoices               List invoices (newest first)
    POST   /api/invoices               Create a draft from the settings
    GET    /api/invoices/{id}          Get one invoice
    PUT    /api/invoices/{id}          Update (renumbers on issue-date change)
    DELETE /api/invoices/{id}          Delete
    POST   /api/invoices/{id}/pay      Mark paid (body: {"date": "..."})
    POST   /api/invoices/{id}/unpay    Back to issued
    GET    /api/invoices/{id}/document Rendered document (501 without renderer)

  Expenses, leaves: plain CRUD over their collections.

  Settings / mission:
    GET+PUT /api/settings              Mission configuration
    GET     /api/mission               Quota status and projected end date

  Tax:
    GET /api/tax/{year}                VAT projection + stored record
    PUT /api/tax/{year}                Replace the stored record
    GET /api/urssaf                    Contribution lines and totals
    PUT /api/urssaf/rate               Global rate
    PUT /api/urssaf/periods/{period}   Per-period record

  Treasury, export/import, sync: see server.go.

ERROR HANDLING:
  Read paths never fail on bad stored data (the repositories degrade to
  defaults); handler errors are storage write failures (500), unknown ids
  (404), and unreadable request bodies (400).

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nodebox/fact-engine/billing"
	"github.com/nodebox/fact-engine/calendar"
	"github.com/nodebox/fact-engine/export"
	"github.com/nodebox/fact-engine/store"
	"github.com/nodebox/fact-engine/sync"
	"github.com/nodebox/fact-engine/tax"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// DocumentRenderer turns an invoice into a printable document. The engine
// itself ships without one; the endpoint answers 501 until one is wired.
type DocumentRenderer interface {
	RenderInvoice(inv billing.Invoice, s billing.Settings, defaultRate float64, paid bool) ([]byte, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Repos    *store.Repos
	Session  *sync.Session    // nil when sync is not configured
	Renderer DocumentRenderer // nil when no renderer is wired
}

// NewHandler creates a handler over the repositories.
func NewHandler(repos *store.Repos) *Handler {
	return &Handler{Repos: repos}
}

// =============================================================================
// INVOICES
// =============================================================================

// ListInvoices returns every invoice, newest issue date first.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices := h.Repos.Invoices(r.Context())
	sort.SliceStable(invoices, func(i, j int) bool {
		return invoices[i].IssueDate > invoices[j].IssueDate
	})
	if invoices == nil {
		invoices = []billing.Invoice{}
	}
	writeJSON(w, http.StatusOK, invoices)
}

// CreateInvoice creates a draft seeded from the settings and the invoice
// history and persists it immediately.
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	settings := h.Repos.Settings(ctx)
	invoices := h.Repos.Invoices(ctx)
	leaves := h.Repos.Leaves(ctx)

	draft := billing.NewDraft(settings, invoices, leaves)
	invoices = append(invoices, draft)
	if err := h.Repos.SaveInvoices(ctx, invoices); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save invoice", err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

// GetInvoice returns a single invoice.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	invoices := h.Repos.Invoices(r.Context())
	if inv, ok := findInvoice(invoices, chi.URLParam(r, "id")); ok {
		writeJSON(w, http.StatusOK, inv)
		return
	}
	writeError(w, http.StatusNotFound, "Invoice not found", nil)
}

// UpdateInvoice replaces an invoice. Changing the issue date recomputes
// the due date (preserving the issue-to-due span) and the invoice number;
// auto-quantity lines are refreshed against the period and the quota.
func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	invoices := h.Repos.Invoices(ctx)
	current, ok := findInvoice(invoices, id)
	if !ok {
		writeError(w, http.StatusNotFound, "Invoice not found", nil)
		return
	}

	var incoming billing.Invoice
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	incoming.ID = id

	if calendar.IsISO(incoming.IssueDate) && incoming.IssueDate != current.IssueDate {
		reissued := current
		billing.Reissue(&reissued, incoming.IssueDate)
		incoming.IssueDate = reissued.IssueDate
		incoming.DueDate = reissued.DueDate
		incoming.Number = reissued.Number
	}

	// Re-assert the payment invariant whatever the client sent.
	if incoming.Status == billing.StatusPaid {
		incoming.MarkPaid(incoming.PaymentDate)
	} else {
		incoming.MarkIssued()
	}

	settings := h.Repos.Settings(ctx)
	leaves := h.Repos.Leaves(ctx)
	billing.RecomputeAutoQuantities(&incoming, settings, invoices, leaves)

	for i := range invoices {
		if invoices[i].ID == id {
			invoices[i] = incoming
		}
	}
	if err := h.Repos.SaveInvoices(ctx, invoices); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save invoice", err)
		return
	}
	writeJSON(w, http.StatusOK, incoming)
}

// DeleteInvoice removes an invoice.
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	invoices := h.Repos.Invoices(ctx)
	kept := invoices[:0]
	found := false
	for _, inv := range invoices {
		if inv.ID == id {
			found = true
			continue
		}
		kept = append(kept, inv)
	}
	if !found {
		writeError(w, http.StatusNotFound, "Invoice not found", nil)
		return
	}
	if err := h.Repos.SaveInvoices(ctx, kept); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save invoices", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PayInvoice marks an invoice paid on the given date (today when empty).
func (h *Handler) PayInvoice(w http.ResponseWriter, r *http.Request) {
	h.transitionInvoice(w, r, func(inv *billing.Invoice, date string) { inv.MarkPaid(date) })
}

// UnpayInvoice reverses a payment.
func (h *Handler) UnpayInvoice(w http.ResponseWriter, r *http.Request) {
	h.transitionInvoice(w, r, func(inv *billing.Invoice, _ string) { inv.MarkIssued() })
}

func (h *Handler) transitionInvoice(w http.ResponseWriter, r *http.Request, apply func(*billing.Invoice, string)) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req PayRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // empty body means "today"
	}

	invoices := h.Repos.Invoices(ctx)
	var updated *billing.Invoice
	for i := range invoices {
		if invoices[i].ID == id {
			apply(&invoices[i], req.Date)
			updated = &invoices[i]
			break
		}
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "Invoice not found", nil)
		return
	}
	if err := h.Repos.SaveInvoices(ctx, invoices); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save invoices", err)
		return
	}
	writeJSON(w, http.StatusOK, *updated)
}

// GetInvoiceDocument renders the invoice through the configured renderer.
func (h *Handler) GetInvoiceDocument(w http.ResponseWriter, r *http.Request) {
	if h.Renderer == nil {
		writeError(w, http.StatusNotImplemented, "No document renderer configured", nil)
		return
	}
	ctx := r.Context()
	invoices := h.Repos.Invoices(ctx)
	inv, ok := findInvoice(invoices, chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Invoice not found", nil)
		return
	}
	settings := h.Repos.Settings(ctx)
	doc, err := h.Renderer.RenderInvoice(inv, settings, settings.TJMHT, inv.IsPaid())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render document", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Write(doc)
}

func findInvoice(invoices []billing.Invoice, id string) (billing.Invoice, bool) {
	for _, inv := range invoices {
		if inv.ID == id {
			return inv, true
		}
	}
	return billing.Invoice{}, false
}

// =============================================================================
// EXPENSES
// =============================================================================

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses := h.Repos.Expenses(r.Context())
	sort.SliceStable(expenses, func(i, j int) bool { return expenses[i].Date > expenses[j].Date })
	if expenses == nil {
		expenses = []billing.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

// CreateExpense stores a new expense. Invalid dates and non-positive
// amounts are rejected up front so they never reach a projection.
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var exp billing.Expense
	if err := json.NewDecoder(r.Body).Decode(&exp); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !calendar.IsISO(exp.Date) {
		writeError(w, http.StatusBadRequest, "Invalid expense date (use YYYY-MM-DD)", nil)
		return
	}
	if exp.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "Expense amount must be positive", nil)
		return
	}
	if exp.ID == "" {
		exp.ID = billing.NewID()
	}

	expenses := append(h.Repos.Expenses(ctx), exp)
	if err := h.Repos.SaveExpenses(ctx, expenses); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, exp)
}

func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var incoming billing.Expense
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	incoming.ID = id

	expenses := h.Repos.Expenses(ctx)
	found := false
	for i := range expenses {
		if expenses[i].ID == id {
			expenses[i] = incoming
			found = true
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "Expense not found", nil)
		return
	}
	if err := h.Repos.SaveExpenses(ctx, expenses); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save expense", err)
		return
	}
	writeJSON(w, http.StatusOK, incoming)
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	expenses := h.Repos.Expenses(ctx)
	kept := expenses[:0]
	found := false
	for _, exp := range expenses {
		if exp.ID == id {
			found = true
			continue
		}
		kept = append(kept, exp)
	}
	if !found {
		writeError(w, http.StatusNotFound, "Expense not found", nil)
		return
	}
	if err := h.Repos.SaveExpenses(ctx, kept); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save expenses", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LEAVES
// =============================================================================

func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	leaves := h.Repos.Leaves(r.Context())
	if leaves == nil {
		leaves = []billing.Leave{}
	}
	writeJSON(w, http.StatusOK, leaves)
}

// CreateLeave normalizes and stores a leave. Records without a valid
// start date are rejected.
func (h *Handler) CreateLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var raw billing.Leave
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	leave, ok := billing.NormalizeLeave(raw)
	if !ok {
		writeError(w, http.StatusBadRequest, "Leave needs a valid start date (YYYY-MM-DD)", nil)
		return
	}
	if leave.ID == "" {
		leave.ID = billing.NewID()
	}

	leaves := append(h.Repos.Leaves(ctx), leave)
	if err := h.Repos.SaveLeaves(ctx, leaves); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save leave", err)
		return
	}
	writeJSON(w, http.StatusCreated, leave)
}

func (h *Handler) UpdateLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var raw billing.Leave
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	leave, ok := billing.NormalizeLeave(raw)
	if !ok {
		writeError(w, http.StatusBadRequest, "Leave needs a valid start date (YYYY-MM-DD)", nil)
		return
	}
	leave.ID = id

	leaves := h.Repos.Leaves(ctx)
	found := false
	for i := range leaves {
		if leaves[i].ID == id {
			leaves[i] = leave
			found = true
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "Leave not found", nil)
		return
	}
	if err := h.Repos.SaveLeaves(ctx, leaves); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save leaves", err)
		return
	}
	writeJSON(w, http.StatusOK, leave)
}

func (h *Handler) DeleteLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	leaves := h.Repos.Leaves(ctx)
	kept := leaves[:0]
	found := false
	for _, l := range leaves {
		if l.ID == id {
			found = true
			continue
		}
		kept = append(kept, l)
	}
	if !found {
		writeError(w, http.StatusNotFound, "Leave not found", nil)
		return
	}
	if err := h.Repos.SaveLeaves(ctx, kept); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save leaves", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SETTINGS & MISSION
// =============================================================================

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Repos.Settings(r.Context()))
}

// PutSettings replaces the settings. The body goes through the same
// parse-with-defaults path as stored data, so partial objects work.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	settings := billing.ParseSettings(body)
	if err := h.Repos.SaveSettings(ctx, settings); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// GetMissionStatus reports quota usage for the configured purchase order.
func (h *Handler) GetMissionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	settings := h.Repos.Settings(ctx)
	invoices := h.Repos.Invoices(ctx)
	leaves := h.Repos.Leaves(ctx)

	used := billing.UsedDays(invoices, settings.PurchaseOrder)
	remaining := billing.RemainingDays(settings.MissionQuotaDays, used)
	if math.IsNaN(remaining) { // no quota configured
		remaining = 0
	}

	writeJSON(w, http.StatusOK, MissionStatusDTO{
		PurchaseOrder:  settings.PurchaseOrder,
		QuotaDays:      settings.MissionQuotaDays,
		UsedDays:       used,
		RemainingDays:  remaining,
		MissionEndDate: billing.MissionEndByQuota(settings.MissionStartDate, int(settings.MissionQuotaDays), leaves),
	})
}

// =============================================================================
// TAX (VAT)
// =============================================================================

// GetTaxYear serves the VAT page for one fiscal year.
func (h *Handler) GetTaxYear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	settings := h.Repos.Settings(ctx)
	invoices := h.Repos.Invoices(ctx)
	expenses := h.Repos.Expenses(ctx)
	data := h.Repos.TaxData(ctx)
	record := data.ByYear[strconv.Itoa(year)]

	writeJSON(w, http.StatusOK, TaxViewDTO{
		Projection: tax.ProjectYear(year, invoices, expenses, record, settings.TJMHT),
		Record:     record,
		BalanceDue: tax.CA12BalanceDueDate(record.DeclarationDate),
		Provision:  tax.ProvisionTotal(year, invoices, expenses, data, settings.TJMHT),
		Upcoming:   tax.UpcomingPayments(data),
	})
}

// PutTaxYear replaces the stored record for one fiscal year. Clearing a
// paid date reopens the corresponding payment.
func (h *Handler) PutTaxYear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	var record tax.YearRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	data := h.Repos.TaxData(ctx)
	data.ByYear[strconv.Itoa(year)] = record
	if err := h.Repos.SaveTaxData(ctx, data); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save tax data", err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// =============================================================================
// URSSAF
// =============================================================================

func (h *Handler) GetURSSAF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	settings := h.Repos.Settings(ctx)
	data := h.Repos.URSSAFData(ctx)
	lines := tax.URSSAFLines(h.Repos.Invoices(ctx), data, settings.TJMHT)
	due, paid, remaining := tax.URSSAFTotals(lines)

	writeJSON(w, http.StatusOK, URSSAFViewDTO{
		GlobalRate: data.GlobalRate,
		Lines:      lines,
		TotalDue:   due,
		TotalPaid:  paid,
		Remaining:  remaining,
	})
}

// PutURSSAFRate updates the global rate; non-positive values reset it to
// the default.
func (h *Handler) PutURSSAFRate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	data := h.Repos.URSSAFData(ctx)
	if req.GlobalRate > 0 {
		data.GlobalRate = req.GlobalRate
	} else {
		data.GlobalRate = tax.DefaultURSSAFRate
	}
	if err := h.Repos.SaveURSSAFData(ctx, data); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save URSSAF data", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// PutURSSAFPeriod replaces one period's record ("YYYY-MM").
func (h *Handler) PutURSSAFPeriod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	period := chi.URLParam(r, "period")
	if !calendar.IsISO(period + "-01") {
		writeError(w, http.StatusBadRequest, "Invalid period (use YYYY-MM)", nil)
		return
	}

	var record tax.PeriodRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	data := h.Repos.URSSAFData(ctx)
	data.ByPeriod[period] = record
	if err := h.Repos.SaveURSSAFData(ctx, data); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save URSSAF data", err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// =============================================================================
// TREASURY
// =============================================================================

// GetTreasury returns the merged cash ledger with totals.
func (h *Handler) GetTreasury(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	settings := h.Repos.Settings(ctx)
	entries := billing.TreasuryLedger(
		h.Repos.TreasuryEntries(ctx),
		h.Repos.Invoices(ctx),
		h.Repos.Expenses(ctx),
		settings.TJMHT,
	)
	income, expenses, balance := billing.TreasuryBalance(entries)

	writeJSON(w, http.StatusOK, TreasuryViewDTO{
		Entries:  entries,
		Income:   income,
		Expenses: expenses,
		Balance:  balance,
	})
}

// CreateTreasuryEntry stores a manual cash movement.
func (h *Handler) CreateTreasuryEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var entry billing.TreasuryEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(entry.Description) == "" || entry.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "Entry needs a description and a positive amount", nil)
		return
	}
	if !calendar.IsISO(entry.Date) {
		entry.Date = calendar.Today()
	}
	if entry.Type != billing.TreasuryExpense {
		entry.Type = billing.TreasuryIncome
	}
	if entry.ID == "" {
		entry.ID = billing.NewID()
	}
	entry.Source = "manual"

	entries := append([]billing.TreasuryEntry{entry}, h.Repos.TreasuryEntries(ctx)...)
	if err := h.Repos.SaveTreasuryEntries(ctx, entries); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save treasury", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) DeleteTreasuryEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	entries := h.Repos.TreasuryEntries(ctx)
	kept := entries[:0]
	found := false
	for _, e := range entries {
		if e.ID == id {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		writeError(w, http.StatusNotFound, "Entry not found", nil)
		return
	}
	if err := h.Repos.SaveTreasuryEntries(ctx, kept); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save treasury", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CALENDAR
// =============================================================================

// GetHolidays lists the French public holidays of a year.
func (h *Handler) GetHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	writeJSON(w, http.StatusOK, calendar.FrenchHolidays(year))
}

// =============================================================================
// EXPORT / IMPORT
// =============================================================================

func (h *Handler) ExportSettings(w http.ResponseWriter, r *http.Request) {
	raw, err := export.Settings(h.Repos.Settings(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export settings", err)
		return
	}
	serveDownload(w, "fact-settings.json", "application/json", raw)
}

func (h *Handler) ImportSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	settings := export.ImportSettings(body)
	if err := h.Repos.SaveSettings(ctx, settings); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	raw, err := export.FullBackup(r.Context(), h.Repos.Store())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export backup", err)
		return
	}
	name := fmt.Sprintf("fact-backup-complet-%s.json", strings.ReplaceAll(calendar.Today(), "-", ""))
	serveDownload(w, name, "application/json", raw)
}

func (h *Handler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := export.RestoreFullBackup(ctx, h.Repos.Store(), body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid backup file", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportAccounting streams the accounting workbook.
func (h *Handler) ExportAccounting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	settings := h.Repos.Settings(ctx)
	f, err := export.AccountingWorkbook(h.Repos.Invoices(ctx), h.Repos.Expenses(ctx), settings.TJMHT)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build workbook", err)
		return
	}
	defer f.Close()

	name := fmt.Sprintf("fact-export-comptable-%s.xlsx", strings.ReplaceAll(calendar.Today(), "-", ""))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := f.Write(w); err != nil {
		// Headers are gone; nothing sensible left to send.
		return
	}
}

// =============================================================================
// SYNC
// =============================================================================

func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	dto := SyncStatusDTO{Configured: h.Session != nil}
	if h.Session != nil {
		dto.Status = h.Session.Status()
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) StartSync(w http.ResponseWriter, r *http.Request) {
	if h.Session == nil {
		writeError(w, http.StatusNotImplemented, "No remote store configured", nil)
		return
	}
	var req StartSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "userId is required", err)
		return
	}
	if err := h.Session.Start(r.Context(), req.UserID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to start sync", err)
		return
	}
	writeJSON(w, http.StatusOK, SyncStatusDTO{Configured: true, Status: h.Session.Status()})
}

func (h *Handler) StopSync(w http.ResponseWriter, r *http.Request) {
	if h.Session == nil {
		writeError(w, http.StatusNotImplemented, "No remote store configured", nil)
		return
	}
	h.Session.Stop()
	writeJSON(w, http.StatusOK, SyncStatusDTO{Configured: true, Status: h.Session.Status()})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func serveDownload(w http.ResponseWriter, name, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(body)
}
