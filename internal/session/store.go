// Package session provides the persisted key-value state shared by all
// Lightning components. Values are JSON blobs scoped per user; the known-key
// list lets a new session atomically clear every artifact of the previous one.
package session

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/model"
)

// Persisted state keys. Every key written by the Lightning subsystem must
// appear in KnownKeys so ForceClearAll covers it.
const (
	KeySessionRecord     = "lightning_session"
	KeyInputs            = "lightning_inputs"
	KeySummary           = "company_summary"
	KeyRawAnalysis       = "raw_analysis"
	KeyTargetAudience    = "target_audience"
	KeyLeads             = "leads_results"
	KeyQuestionsComplete = "questions_complete"
	KeySummaryReady      = "summary_ready"
	KeySummaryPosted     = "summary_posted"
)

// KnownKeys is the full set cleared at session entry.
var KnownKeys = []string{
	KeySessionRecord,
	KeyInputs,
	KeySummary,
	KeyRawAnalysis,
	KeyTargetAudience,
	KeyLeads,
	KeyQuestionsComplete,
	KeySummaryReady,
	KeySummaryPosted,
}

// Store is the persistence interface for Lightning session state.
type Store interface {
	// Get returns the raw value for (scope, key); found=false when absent.
	Get(ctx context.Context, scope, key string) (value []byte, found bool, err error)
	// Set writes the raw value for (scope, key), overwriting any previous one.
	Set(ctx context.Context, scope, key string, value []byte) error
	// Remove deletes (scope, key); deleting an absent key is not an error.
	Remove(ctx context.Context, scope, key string) error
	// ForceClearAll removes every given key for the scope in one operation.
	// After it returns, each key reads as absent until explicitly set again.
	ForceClearAll(ctx context.Context, scope string, keys []string) error
	// ListSessions returns the most recent persisted session records.
	ListSessions(ctx context.Context, limit int) ([]model.SessionRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// GetJSON reads and unmarshals the value at (scope, key) into out.
// Returns false with no error when the key is absent.
func GetJSON(ctx context.Context, st Store, scope, key string, out any) (bool, error) {
	raw, found, err := st.Get(ctx, scope, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, eris.Wrapf(err, "session: unmarshal %s", key)
	}
	return true, nil
}

// SetJSON marshals v and writes it at (scope, key).
func SetJSON(ctx context.Context, st Store, scope, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "session: marshal %s", key)
	}
	return st.Set(ctx, scope, key, raw)
}

// GetFlag reads a boolean flag; absent flags read as false.
func GetFlag(ctx context.Context, st Store, scope, key string) (bool, error) {
	var v bool
	found, err := GetJSON(ctx, st, scope, key, &v)
	if err != nil || !found {
		return false, err
	}
	return v, nil
}

// SetFlag writes a boolean flag.
func SetFlag(ctx context.Context, st Store, scope, key string, v bool) error {
	return SetJSON(ctx, st, scope, key, v)
}
