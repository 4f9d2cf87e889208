package services

import (
	"context"
	"fmt"
	"time"

	"github.com/anisur046/accounting/internal/amqp"
	"github.com/anisur046/accounting/internal/core"
	"github.com/anisur046/accounting/internal/log"
	"github.com/anisur046/accounting/internal/storage"
)

// LedgerService handles transaction writes: it validates input, saves to the
// store, invalidates derived reports and publishes a ledger event. Publishing
// is best effort and never fails a write that the store accepted.
type LedgerService struct {
	store     storage.TransactionStore
	publisher Publisher
	reports   Invalidator
	logger    *log.Logger
	now       func() time.Time
}

func NewLedgerService(store storage.TransactionStore, publisher Publisher, reports Invalidator, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LedgerService{
		store:     store,
		publisher: publisher,
		reports:   reports,
		logger:    logger.WithComponent(log.ComponentLedger),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *LedgerService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.Date.IsZero() {
		tx.Date = s.now()
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, core.ValidationError("create transaction", err)
	}
	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, core.StoreError("create transaction", err)
	}
	s.afterWrite(ctx, eventFor(amqp.ActionCreated, created, nil))

	s.logger.InfoContext(ctx, "Transaction created", log.NewFields().
		WithOperation(log.OpCreate).
		WithTransaction(created.ID, string(created.Type), string(created.Amount)).ToSlice()...)
	return created, nil
}

func (s *LedgerService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, core.StoreError("get transaction", err)
	}
	return tx, nil
}

func (s *LedgerService) List(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, core.StoreError("list transactions", err)
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return txs, nil
}

// Update applies a partial update: zero fields in tx keep their stored value.
func (s *LedgerService) Update(ctx context.Context, id int64, tx core.Transaction) (core.Transaction, error) {
	old, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, core.StoreError("update transaction", err)
	}
	tx = mergeTransaction(old, tx)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, core.ValidationError("update transaction", err)
	}
	updated, err := s.store.UpdateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, core.StoreError("update transaction", err)
	}
	s.afterWrite(ctx, eventFor(amqp.ActionUpdated, updated, &old.Date))
	return updated, nil
}

func mergeTransaction(old, patch core.Transaction) core.Transaction {
	out := old
	if patch.Amount != "" {
		out.Amount = patch.Amount
	}
	if patch.Type != "" {
		out.Type = patch.Type
	}
	if !patch.Date.IsZero() {
		out.Date = patch.Date
	}
	set := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	set(&out.Description, patch.Description)
	set(&out.CustomerName, patch.CustomerName)
	set(&out.CustomerEmail, patch.CustomerEmail)
	set(&out.CustomerPhone, patch.CustomerPhone)
	set(&out.CustomerAddress, patch.CustomerAddress)
	return out
}

func (s *LedgerService) Delete(ctx context.Context, id int64) error {
	old, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.StoreError("delete transaction", err)
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return core.StoreError("delete transaction", err)
	}
	s.afterWrite(ctx, eventFor(amqp.ActionDeleted, old, nil))
	return nil
}

func (s *LedgerService) afterWrite(ctx context.Context, msg *amqp.LedgerEvent) {
	if s.reports != nil {
		s.reports.Invalidate()
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldOperation, log.OpPublish,
			log.FieldTxID, msg.TransactionID,
			log.FieldError, err)
	}
}

// Close releases the store and the publisher when they hold resources.
func (s *LedgerService) Close() error {
	var errs []error
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if c, ok := s.store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
