/*
Package export produces the user-facing files: JSON settings/backup
envelopes and the accounting workbook.

PURPOSE:
  Exports are plain files the user keeps; imports are forgiving. A
  settings import accepts the enveloped form, the bare settings object, or
  a partial object, always merged onto the defaults. A full-backup restore
  replaces the known buckets wholesale and removes the ones the backup
  does not carry.
*/
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nodebox/fact-engine/billing"
	"github.com/nodebox/fact-engine/store"
)

const (
	appTag = "FACT"

	TypeSettings   = "settings"
	TypeFullBackup = "full-backup"
)

// Envelope is the export file format shared by every JSON export.
type Envelope struct {
	App        string                     `json:"app"`
	Type       string                     `json:"type"`
	Version    int                        `json:"version"`
	ExportedAt string                     `json:"exportedAt"`
	Data       json.RawMessage            `json:"data,omitempty"`
	Keys       []string                   `json:"keys,omitempty"`
	Raw        map[string]json.RawMessage `json:"raw,omitempty"`
}

func newEnvelope(kind string) Envelope {
	return Envelope{
		App:        appTag,
		Type:       kind,
		Version:    1,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// backupBuckets is the full-backup key set.
var backupBuckets = []string{
	store.BucketSettings,
	store.BucketInvoices,
	store.BucketExpenses,
	store.BucketTreasury,
	store.BucketLeavesLegacy,
	store.BucketLeaves,
	store.BucketTax,
	store.BucketURSSAF,
}

// Settings renders the settings export file.
func Settings(s billing.Settings) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	env := newEnvelope(TypeSettings)
	env.Data = data
	return json.MarshalIndent(env, "", "  ")
}

// ImportSettings reads a settings file in either form, enveloped or
// bare, and merges it onto the defaults. Unreadable input just yields
// the defaults.
func ImportSettings(raw []byte) billing.Settings {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 {
		return billing.ParseSettings(env.Data)
	}
	return billing.ParseSettings(raw)
}

// FullBackup snapshots every known bucket into one envelope.
func FullBackup(ctx context.Context, st store.Store) ([]byte, error) {
	env := newEnvelope(TypeFullBackup)
	env.Keys = append([]string(nil), backupBuckets...)
	env.Raw = map[string]json.RawMessage{}

	for _, bucket := range backupBuckets {
		raw, err := st.Get(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to read bucket %s: %w", bucket, err)
		}
		if raw != nil {
			env.Raw[bucket] = raw
		}
	}
	return json.MarshalIndent(env, "", "  ")
}

// RestoreFullBackup replaces the known buckets from a backup file.
// Buckets absent from the backup are deleted, so a restore really does
// return to the exported state.
func RestoreFullBackup(ctx context.Context, st store.Store, raw []byte) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("unreadable backup: %w", err)
	}
	if env.Type != TypeFullBackup || env.Raw == nil {
		return fmt.Errorf("not a full backup file")
	}

	for _, bucket := range backupBuckets {
		value, ok := env.Raw[bucket]
		if !ok {
			if err := st.Delete(ctx, bucket); err != nil {
				return err
			}
			continue
		}
		if err := st.Put(ctx, bucket, value); err != nil {
			return err
		}
	}
	return nil
}
