/*
Package store is the persistence boundary: raw JSON documents keyed by a
stable bucket name, written as a whole on every save.

PURPOSE:
  The application's system of record is a handful of JSON buckets. The
  Store interface only moves raw bytes; decoding (and the "corrupt data
  degrades to defaults, never errors" policy) lives in the typed
  repositories layered on top (repository.go).

KEY CONCEPTS:
  - Bucket names are part of the persisted format and of the remote sync
    payload; they must never change.
  - A missing bucket reads as (nil, nil), not as an error.

IMPLEMENTATIONS:
  - store/sqlite: the production store, one row per bucket, WAL mode.
  - store/memory: map-backed, for tests and sync fakes.
*/
package store

import "context"

// Bucket keys. Historical names, frozen: they are both the local schema
// and the cloud mirror's document ids.
const (
	BucketInvoices     = "nodebox_invoices"
	BucketExpenses     = "nodebox_expenses"
	BucketLeaves       = "fact_leaves_v2"
	BucketLeavesLegacy = "nodebox_leaves"
	BucketSettings     = "fact_settings_v3"
	BucketTax          = "fact_tax_rs_v1"
	BucketURSSAF       = "fact_urssaf_v1"
	BucketTreasury     = "nodebox_treasury"
)

// SyncBuckets is the set mirrored to the cloud. The legacy leaves bucket
// stays local: it only exists to be migrated away from.
func SyncBuckets() []string {
	return []string{
		BucketInvoices,
		BucketExpenses,
		BucketLeaves,
		BucketSettings,
		BucketTax,
		BucketURSSAF,
		BucketTreasury,
	}
}

// Store reads and writes whole buckets of raw JSON.
type Store interface {
	// Get returns the bucket's raw value, or (nil, nil) when absent.
	Get(ctx context.Context, bucket string) ([]byte, error)
	// Put replaces the bucket's value.
	Put(ctx context.Context, bucket string, raw []byte) error
	// Delete removes the bucket. Deleting an absent bucket is not an error.
	Delete(ctx context.Context, bucket string) error
	// Buckets lists the buckets currently present.
	Buckets(ctx context.Context) ([]string, error)

	Close() error
}
