package services

import (
	"context"
	"time"

	"github.com/anisur046/accounting/internal/amqp"
	"github.com/anisur046/accounting/internal/core"
)

// Publisher sends ledger events. *amqp.Client implements it.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, msg *amqp.LedgerEvent) error
}

// Invalidator drops derived data after a ledger write.
type Invalidator interface {
	Invalidate()
}

func eventFor(action string, tx core.Transaction, previous *time.Time) *amqp.LedgerEvent {
	msg := amqp.NewLedgerEvent(action, tx.ID, core.DateOf(tx.Date).String())
	msg.Type = string(tx.Type)
	msg.Amount = string(tx.Amount)
	if previous != nil {
		msg.PreviousDay = core.DateOf(*previous).String()
	}
	return msg
}
