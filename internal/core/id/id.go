// Package id issues identifiers for ledger rows that carry no business
// number: sale lines, payments, stock entries, audit and outbox rows.
// Return ids and receipt numbers come from the numerator instead.
package id

import "github.com/google/uuid"

// ID is a UUIDv7. Its leading 48 bits are a millisecond timestamp, so ids
// sort in insertion order and index well as primary keys.
type ID = uuid.UUID

// New returns a fresh UUIDv7. It panics only if the system random source fails.
func New() ID {
	return uuid.Must(uuid.NewV7())
}

// NewString returns New in its canonical text form, for string-keyed rows
// such as sales created without a client id.
func NewString() string {
	return New().String()
}
