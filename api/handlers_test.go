/*
handlers_test.go - HTTP-level tests for the API

Tests exercise the full router over an in-memory store:
- Invoice lifecycle (draft, update, pay, unpay, delete)
- Expense and leave validation
- Settings, mission status, tax and URSSAF views
- Treasury ledger merging
- Export/import round trips
- Sync endpoints without a configured remote
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodebox/fact-engine/billing"
	"github.com/nodebox/fact-engine/store"
	"github.com/nodebox/fact-engine/store/memory"
	"github.com/nodebox/fact-engine/tax"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Repos) {
	t.Helper()
	repos := store.NewRepos(memory.New())
	srv := httptest.NewServer(NewRouter(NewHandler(repos)))
	t.Cleanup(srv.Close)
	return srv, repos
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func fptr(v float64) *float64 { return &v }

// =============================================================================
// INVOICES
// =============================================================================

func TestCreateInvoice_DraftFromSettings(t *testing.T) {
	// GIVEN: A configured mission
	srv, repos := newTestServer(t)
	ctx := context.Background()
	s := billing.DefaultSettings()
	s.PurchaseOrder = "BC123456"
	s.TJMHT = 600
	require.NoError(t, repos.SaveSettings(ctx, s))

	// WHEN: Creating a draft
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/invoices", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	inv := decode[billing.Invoice](t, resp)

	// THEN: It is issued, numbered and persisted
	assert.Equal(t, billing.StatusIssued, inv.Status)
	assert.Equal(t, "BC123456", inv.PurchaseOrder)
	assert.NotEmpty(t, inv.Number)
	assert.Len(t, repos.Invoices(ctx), 1)
}

func TestInvoiceLifecycle_PayUnpayDelete(t *testing.T) {
	// GIVEN: One stored invoice
	srv, repos := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, repos.SaveInvoices(ctx, []billing.Invoice{{
		ID: "inv-1", Number: "F2026-01-000001", IssueDate: "2026-01-10",
		DueDate: "2026-02-24", Status: billing.StatusIssued,
	}}))

	// WHEN: Paying it on a specific date
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/invoices/inv-1/pay", PayRequest{Date: "2026-02-20"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	paid := decode[billing.Invoice](t, resp)
	assert.Equal(t, billing.StatusPaid, paid.Status)
	assert.Equal(t, "2026-02-20", paid.PaymentDate)

	// WHEN: Reversing the payment
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/invoices/inv-1/unpay", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reopened := decode[billing.Invoice](t, resp)
	assert.Equal(t, billing.StatusIssued, reopened.Status)
	assert.Empty(t, reopened.PaymentDate)

	// WHEN: Deleting it
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/invoices/inv-1", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// THEN: It is gone
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/invoices/inv-1", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateInvoice_IssueDateChangeReissues(t *testing.T) {
	// GIVEN: An invoice with a 45-day payment span
	srv, repos := newTestServer(t)
	ctx := context.Background()
	inv := billing.Invoice{
		ID: "inv-1", Number: "F2026-01-000042", IssueDate: "2026-01-10",
		DueDate: "2026-02-24", Status: billing.StatusIssued, PurchaseOrder: "BC-42",
	}
	require.NoError(t, repos.SaveInvoices(ctx, []billing.Invoice{inv}))

	// WHEN: Moving the issue date
	inv.IssueDate = "2026-03-01"
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/invoices/inv-1", inv)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[billing.Invoice](t, resp)

	// THEN: Due date keeps the span and the number follows the new month
	assert.Equal(t, "2026-03-01", updated.IssueDate)
	assert.Equal(t, "2026-04-15", updated.DueDate)
	assert.Equal(t, "F2026-03-000042", updated.Number)
}

func TestListInvoices_NewestFirst(t *testing.T) {
	// GIVEN: Two invoices out of order
	srv, repos := newTestServer(t)
	require.NoError(t, repos.SaveInvoices(context.Background(), []billing.Invoice{
		{ID: "old", IssueDate: "2026-01-31"},
		{ID: "new", IssueDate: "2026-03-31"},
	}))

	// WHEN: Listing
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/invoices", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]billing.Invoice](t, resp)

	// THEN: Newest issue date first
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
}

// =============================================================================
// EXPENSES & LEAVES
// =============================================================================

func TestCreateExpense_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("rejects invalid date", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/expenses",
			billing.Expense{Date: "26/01/2026", Amount: 50})
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/expenses",
			billing.Expense{Date: "2026-01-26", Amount: 0})
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("accepts and assigns an id", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/expenses",
			billing.Expense{Date: "2026-01-26", Category: "Matériel", Amount: 120})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		exp := decode[billing.Expense](t, resp)
		assert.NotEmpty(t, exp.ID)
	})
}

func TestCreateLeave_RequiresStartDate(t *testing.T) {
	srv, _ := newTestServer(t)

	// WHEN: Posting a leave without a valid start date
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/leaves",
		billing.Leave{Start: "not-a-date"})
	resp.Body.Close()

	// THEN: Rejected
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// WHEN: Posting a single-day leave
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/leaves",
		billing.Leave{Start: "2026-02-02"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	leave := decode[billing.Leave](t, resp)

	// THEN: The end date defaults to the start date
	assert.Equal(t, "2026-02-02", leave.End)
	assert.NotEmpty(t, leave.ID)
}

// =============================================================================
// SETTINGS & MISSION
// =============================================================================

func TestPutSettings_PartialBodyKeepsDefaults(t *testing.T) {
	srv, _ := newTestServer(t)

	// WHEN: Sending only a daily rate
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/settings",
		map[string]any{"tjmHt": 650})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := decode[billing.Settings](t, resp)

	// THEN: The rest comes from the defaults
	assert.Equal(t, 650.0, s.TJMHT)
	assert.Equal(t, billing.DefaultSettings().CompanyName, s.CompanyName)
}

func TestGetMissionStatus(t *testing.T) {
	// GIVEN: A 10-day quota with 4 invoiced days
	srv, repos := newTestServer(t)
	ctx := context.Background()
	s := billing.DefaultSettings()
	s.PurchaseOrder = "BC123456"
	s.MissionQuotaDays = 10
	require.NoError(t, repos.SaveSettings(ctx, s))
	require.NoError(t, repos.SaveInvoices(ctx, []billing.Invoice{{
		ID: "inv-1", PurchaseOrder: "BC123456",
		Items: []billing.LineItem{{Quantity: 4}},
	}}))

	// WHEN: Asking for the mission status
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/mission", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decode[MissionStatusDTO](t, resp)

	// THEN: Used and remaining days reflect the invoice
	assert.Equal(t, 4.0, status.UsedDays)
	assert.Equal(t, 6.0, status.RemainingDays)
}

// =============================================================================
// TAX & URSSAF
// =============================================================================

func TestGetTaxYear(t *testing.T) {
	// GIVEN: One paid invoice carrying VAT in 2026
	srv, repos := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, repos.SaveInvoices(ctx, []billing.Invoice{{
		ID: "inv-1", IssueDate: "2026-03-02", PaymentDate: "2026-03-20",
		Status: billing.StatusPaid, VATEnabled: true, VATRate: 20,
		Items: []billing.LineItem{{Quantity: 10, UnitPrice: fptr(500)}},
	}}))

	// WHEN: Fetching the 2026 view
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/tax/2026", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[TaxViewDTO](t, resp)

	// THEN: Collected VAT and the advances follow from it
	assert.InDelta(t, 1000.0, view.Projection.Collected, 0.001)
	assert.InDelta(t, 800.0, view.Projection.Acompte1, 0.001)
}

func TestPutTaxYear_StoresRecord(t *testing.T) {
	srv, repos := newTestServer(t)

	// WHEN: Storing a declaration date for 2026
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/tax/2026",
		tax.YearRecord{DeclarationDate: "2027-02-10"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// THEN: The record is persisted under the year key
	data := repos.TaxData(context.Background())
	assert.Equal(t, "2027-02-10", data.ByYear["2026"].DeclarationDate)
}

func TestPutURSSAFRate_NonPositiveResets(t *testing.T) {
	srv, repos := newTestServer(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/urssaf/rate", RateRequest{GlobalRate: 12.3})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, 12.3, repos.URSSAFData(context.Background()).GlobalRate)

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/urssaf/rate", RateRequest{GlobalRate: 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, tax.DefaultURSSAFRate, repos.URSSAFData(context.Background()).GlobalRate)
}

func TestGetURSSAF_LinesFromPaidInvoices(t *testing.T) {
	// GIVEN: A paid invoice of 5000 HT in March 2026
	srv, repos := newTestServer(t)
	require.NoError(t, repos.SaveInvoices(context.Background(), []billing.Invoice{{
		ID: "inv-1", IssueDate: "2026-03-02", PaymentDate: "2026-03-20",
		Status: billing.StatusPaid, VATEnabled: true, VATRate: 20,
		Items: []billing.LineItem{{Quantity: 10, UnitPrice: fptr(500)}},
	}}))

	// WHEN: Fetching the contribution view
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/urssaf", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[URSSAFViewDTO](t, resp)

	// THEN: One line at the default rate
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "2026-03", view.Lines[0].Period)
	assert.InDelta(t, 1100.0, view.Lines[0].AmountDue, 0.001)
	assert.InDelta(t, 1100.0, view.TotalDue, 0.001)
}

func TestPutURSSAFPeriod_RejectsBadPeriod(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/urssaf/periods/2026-13",
		tax.PeriodRecord{Rate: 12.3})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// TREASURY
// =============================================================================

func TestTreasury_MergesManualAndDerivedEntries(t *testing.T) {
	// GIVEN: A paid invoice and a manual entry
	srv, repos := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, repos.SaveInvoices(ctx, []billing.Invoice{{
		ID: "inv-1", Number: "F2026-03-000001", IssueDate: "2026-03-02",
		PaymentDate: "2026-03-20", Status: billing.StatusPaid,
		VATEnabled: true, VATRate: 20,
		Items: []billing.LineItem{{Quantity: 10, UnitPrice: fptr(500)}},
	}}))

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/treasury/entries",
		billing.TreasuryEntry{Date: "2026-03-01", Type: billing.TreasuryIncome,
			Description: "Apport", Amount: 1000})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// WHEN: Fetching the ledger
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/treasury", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[TreasuryViewDTO](t, resp)

	// THEN: The paid invoice shows up TTC next to the manual entry
	require.Len(t, view.Entries, 2)
	assert.Equal(t, "invoice-paid-inv-1", view.Entries[0].ID)
	assert.InDelta(t, 6000.0, view.Entries[0].Amount, 0.001)
	assert.InDelta(t, 7000.0, view.Income, 0.001)
	assert.InDelta(t, 7000.0, view.Balance, 0.001)
}

func TestCreateTreasuryEntry_Validation(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/treasury/entries",
		billing.TreasuryEntry{Date: "2026-03-01", Amount: 50})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// EXPORT / IMPORT
// =============================================================================

func TestSettingsExportImportRoundTrip(t *testing.T) {
	// GIVEN: Custom settings
	srv, repos := newTestServer(t)
	ctx := context.Background()
	s := billing.DefaultSettings()
	s.CompanyName = "Alex Conseil"
	s.TJMHT = 720
	require.NoError(t, repos.SaveSettings(ctx, s))

	// WHEN: Exporting then wiping then importing
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/export/settings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw := decode[json.RawMessage](t, resp)

	require.NoError(t, repos.SaveSettings(ctx, billing.DefaultSettings()))

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/import/settings", bytes.NewReader(raw))
	require.NoError(t, err)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	restored := decode[billing.Settings](t, resp2)

	// THEN: The exported values are back
	assert.Equal(t, "Alex Conseil", restored.CompanyName)
	assert.Equal(t, 720.0, restored.TJMHT)
}

func TestImportBackup_RejectsWrongFile(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/import/backup",
		map[string]any{"app": "OTHER", "type": "full-backup"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// SYNC & CALENDAR
// =============================================================================

func TestSyncEndpoints_WithoutRemote(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/sync/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decode[SyncStatusDTO](t, resp)
	assert.False(t, status.Configured)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/sync/start", StartSyncRequest{UserID: "alex"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestGetHolidays(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/holidays/2026", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	days := decode[[]string](t, resp)
	assert.Contains(t, days, "2026-07-14")
}
