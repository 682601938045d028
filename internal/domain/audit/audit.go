// Package audit defines the audit trail contract used by domain services.
// Decisions that substitute or reverse data (identity fallback, cancellation)
// are recorded so they can be reviewed later.
package audit

import (
	"context"
)

// Action names an audited decision.
type Action string

const (
	ActionIdentityFallback Action = "identity_fallback"
	ActionSaleCancelled    Action = "sale_cancelled"
	ActionReturnProcessed  Action = "return_processed"
)

// Entry is one audit record.
type Entry struct {
	EntityType string
	EntityID   string
	Action     Action
	// UserID defaults to the acting user from context when empty.
	UserID  string
	Changes map[string]any
}

// Recorder persists audit entries. Inside a transaction the entry
// commits or rolls back with the audited change.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Nop discards entries.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Entry) error { return nil }
