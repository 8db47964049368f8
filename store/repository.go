/*
repository.go - Typed access over the raw bucket store

PURPOSE:
  Repos decodes each bucket into its domain type with the degradation
  policy applied everywhere: corrupt or missing JSON yields an empty
  collection or the hardcoded defaults, never an error the caller has to
  handle. Write errors are still returned, losing data is not silent.

CHANGE NOTIFICATION:
  Every successful save notifies the registered observers with the bucket
  name. The sync session subscribes here to schedule its debounced push;
  writes applied FROM the remote go through ApplyRemote, which bypasses
  the observers so a pull never triggers a push of the same data.
*/
package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/nodebox/fact-engine/billing"
	"github.com/nodebox/fact-engine/tax"
)

// ChangeFunc receives the name of a bucket that was just written locally.
type ChangeFunc func(bucket string)

// Repos is the typed repository layer over a Store.
type Repos struct {
	store Store

	mu     sync.Mutex
	nextID int
	subs   map[int]ChangeFunc
}

// NewRepos wraps a Store.
func NewRepos(st Store) *Repos {
	return &Repos{store: st, subs: map[int]ChangeFunc{}}
}

// Store exposes the underlying raw store (sync needs raw bucket access).
func (r *Repos) Store() Store { return r.store }

// OnChange registers an observer for local writes. The returned function
// unsubscribes it.
func (r *Repos) OnChange(fn ChangeFunc) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.subs[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
}

func (r *Repos) notify(bucket string) {
	r.mu.Lock()
	fns := make([]ChangeFunc, 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn(bucket)
	}
}

// ApplyRemote writes a bucket without notifying observers. Used by the
// sync session when the cloud value wins.
func (r *Repos) ApplyRemote(ctx context.Context, bucket string, raw []byte) error {
	return r.store.Put(ctx, bucket, raw)
}

func (r *Repos) save(ctx context.Context, bucket string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, bucket, raw); err != nil {
		return err
	}
	r.notify(bucket)
	return nil
}

// =============================================================================
// INVOICES
// =============================================================================

// Invoices loads the invoice collection. Corrupt data reads as empty.
func (r *Repos) Invoices(ctx context.Context) []billing.Invoice {
	var invoices []billing.Invoice
	raw, err := r.store.Get(ctx, BucketInvoices)
	if err != nil || len(raw) == 0 {
		return nil
	}
	if json.Unmarshal(raw, &invoices) != nil {
		return nil
	}
	return invoices
}

func (r *Repos) SaveInvoices(ctx context.Context, invoices []billing.Invoice) error {
	if invoices == nil {
		invoices = []billing.Invoice{}
	}
	return r.save(ctx, BucketInvoices, invoices)
}

// =============================================================================
// EXPENSES
// =============================================================================

func (r *Repos) Expenses(ctx context.Context) []billing.Expense {
	var expenses []billing.Expense
	raw, err := r.store.Get(ctx, BucketExpenses)
	if err != nil || len(raw) == 0 {
		return nil
	}
	if json.Unmarshal(raw, &expenses) != nil {
		return nil
	}
	return expenses
}

func (r *Repos) SaveExpenses(ctx context.Context, expenses []billing.Expense) error {
	if expenses == nil {
		expenses = []billing.Expense{}
	}
	return r.save(ctx, BucketExpenses, expenses)
}

// =============================================================================
// LEAVES
// =============================================================================

// Leaves loads the leave ledger: the current bucket merged with whatever
// still lives under the legacy key, normalized, current records winning on
// signature conflicts.
func (r *Repos) Leaves(ctx context.Context) []billing.Leave {
	current := r.rawLeaves(ctx, BucketLeaves)
	legacy := r.rawLeaves(ctx, BucketLeavesLegacy)
	return billing.MergeLeaves(current, legacy)
}

func (r *Repos) rawLeaves(ctx context.Context, bucket string) []billing.Leave {
	raw, err := r.store.Get(ctx, bucket)
	if err != nil || len(raw) == 0 {
		return nil
	}
	var records []billing.Leave
	if json.Unmarshal(raw, &records) != nil {
		return nil
	}
	return billing.NormalizeLeaves(records)
}

// SaveLeaves writes the current bucket only; the legacy bucket is
// read-side migration material and is never written back.
func (r *Repos) SaveLeaves(ctx context.Context, leaves []billing.Leave) error {
	if leaves == nil {
		leaves = []billing.Leave{}
	}
	return r.save(ctx, BucketLeaves, leaves)
}

// =============================================================================
// SETTINGS / TAX / URSSAF / TREASURY
// =============================================================================

func (r *Repos) Settings(ctx context.Context) billing.Settings {
	raw, err := r.store.Get(ctx, BucketSettings)
	if err != nil {
		return billing.DefaultSettings()
	}
	return billing.ParseSettings(raw)
}

func (r *Repos) SaveSettings(ctx context.Context, s billing.Settings) error {
	return r.save(ctx, BucketSettings, s)
}

func (r *Repos) TaxData(ctx context.Context) tax.VATData {
	raw, err := r.store.Get(ctx, BucketTax)
	if err != nil {
		return tax.ParseVATData(nil)
	}
	return tax.ParseVATData(raw)
}

func (r *Repos) SaveTaxData(ctx context.Context, d tax.VATData) error {
	return r.save(ctx, BucketTax, d)
}

func (r *Repos) URSSAFData(ctx context.Context) tax.URSSAFData {
	raw, err := r.store.Get(ctx, BucketURSSAF)
	if err != nil {
		return tax.DefaultURSSAFData()
	}
	return tax.ParseURSSAFData(raw)
}

func (r *Repos) SaveURSSAFData(ctx context.Context, d tax.URSSAFData) error {
	return r.save(ctx, BucketURSSAF, d)
}

func (r *Repos) TreasuryEntries(ctx context.Context) []billing.TreasuryEntry {
	var entries []billing.TreasuryEntry
	raw, err := r.store.Get(ctx, BucketTreasury)
	if err != nil || len(raw) == 0 {
		return nil
	}
	if json.Unmarshal(raw, &entries) != nil {
		return nil
	}
	return entries
}

func (r *Repos) SaveTreasuryEntries(ctx context.Context, entries []billing.TreasuryEntry) error {
	if entries == nil {
		entries = []billing.TreasuryEntry{}
	}
	return r.save(ctx, BucketTreasury, entries)
}
