/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, the middleware stack, and the route table.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/invoices/*   Invoices and their documents
  /api/expenses/*   Expenses
  /api/leaves/*     Leave ledger
  /api/settings     Mission configuration
  /api/mission      Quota status
  /api/tax/*        VAT projections
  /api/urssaf/*     URSSAF contributions
  /api/treasury/*   Cash ledger
  /api/export/*     Settings/backup/accounting exports
  /api/import/*     Settings/backup imports
  /api/sync/*       Cloud mirror session
  /api/holidays/*   Public holidays

SECURITY NOTE:
  Single-user deployment, no authentication middleware. Do not expose the
  listener beyond localhost without putting something in front of it.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.ListInvoices)
			r.Post("/", h.CreateInvoice)
			r.Get("/{id}", h.GetInvoice)
			r.Put("/{id}", h.UpdateInvoice)
			r.Delete("/{id}", h.DeleteInvoice)
			r.Post("/{id}/pay", h.PayInvoice)
			r.Post("/{id}/unpay", h.UnpayInvoice)
			r.Get("/{id}/document", h.GetInvoiceDocument)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.CreateExpense)
			r.Put("/{id}", h.UpdateExpense)
			r.Delete("/{id}", h.DeleteExpense)
		})

		r.Route("/leaves", func(r chi.Router) {
			r.Get("/", h.ListLeaves)
			r.Post("/", h.CreateLeave)
			r.Put("/{id}", h.UpdateLeave)
			r.Delete("/{id}", h.DeleteLeave)
		})

		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.PutSettings)
		r.Get("/mission", h.GetMissionStatus)

		r.Route("/tax", func(r chi.Router) {
			r.Get("/{year}", h.GetTaxYear)
			r.Put("/{year}", h.PutTaxYear)
		})

		r.Route("/urssaf", func(r chi.Router) {
			r.Get("/", h.GetURSSAF)
			r.Put("/rate", h.PutURSSAFRate)
			r.Put("/periods/{period}", h.PutURSSAFPeriod)
		})

		r.Route("/treasury", func(r chi.Router) {
			r.Get("/", h.GetTreasury)
			r.Post("/entries", h.CreateTreasuryEntry)
			r.Delete("/entries/{id}", h.DeleteTreasuryEntry)
		})

		r.Route("/export", func(r chi.Router) {
			r.Get("/settings", h.ExportSettings)
			r.Get("/backup", h.ExportBackup)
			r.Get("/accounting", h.ExportAccounting)
		})

		r.Route("/import", func(r chi.Router) {
			r.Post("/settings", h.ImportSettings)
			r.Post("/backup", h.ImportBackup)
		})

		r.Route("/sync", func(r chi.Router) {
			r.Get("/status", h.GetSyncStatus)
			r.Post("/start", h.StartSync)
			r.Post("/stop", h.StopSync)
		})

		r.Get("/holidays/{year}", h.GetHolidays)
	})

	return r
}
