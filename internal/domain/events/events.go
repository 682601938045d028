// Package events defines domain events emitted by the sales ledger.
package events

import (
	"context"
)

// Event types.
const (
	SaleCreated     = "sale.created"
	PaymentRecorded = "payment.recorded"
	ReturnProcessed = "return.processed"
	SaleCancelled   = "sale.cancelled"
	StockMoved      = "stock.moved"
)

// Event is published through the transactional outbox.
type Event struct {
	AggregateType string
	AggregateID   string
	Type          string
	Payload       any
}

// Publisher writes events. Must be called inside the transaction that
// produced the change.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }
