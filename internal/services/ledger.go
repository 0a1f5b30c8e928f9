package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const ledgerParallelism = 4

// Ledger applies the stock side of a recorded order.
//
// The primary path is the store's conditional decrement. When that primitive
// is disabled or errors, the ledger reads the current stock and writes the
// new value. That fallback is NOT safe under concurrency: two buyers of the
// same product can both read the same stock and one decrement is lost. Every
// fallback is counted and logged with stock_path=fallback.
type Ledger struct {
	store     repository.StockStore
	atomic    bool
	log       *logrus.Logger
	fallbacks atomic.Int64
	failures  atomic.Int64
}

func NewLedger(store repository.StockStore, atomicDecrement bool, logger *logrus.Logger) *Ledger {
	return &Ledger{store: store, atomic: atomicDecrement, log: logger}
}

// Apply decrements stock for every line. Lines touch distinct products, so
// they run in parallel. Failures are logged and returned; nothing is rolled
// back.
func (l *Ledger) Apply(ctx context.Context, orderID string, items []domain.LineItem) []*domain.StockUpdateError {
	var (
		mu       sync.Mutex
		failures []*domain.StockUpdateError
		g        errgroup.Group
	)
	g.SetLimit(ledgerParallelism)

	for _, item := range items {
		item := item
		g.Go(func() error {
			err := l.decrement(ctx, item.ProductID, item.Quantity)
			if err == nil {
				return nil
			}
			failure := &domain.StockUpdateError{
				OrderID:   orderID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Err:       err,
			}
			l.failures.Add(1)
			l.log.WithFields(logrus.Fields{
				"order_id":   orderID,
				"product_id": item.ProductID,
				"quantity":   item.Quantity,
			}).WithError(err).Warn("Stock update failed after order was recorded")

			mu.Lock()
			failures = append(failures, failure)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return failures
}

func (l *Ledger) decrement(ctx context.Context, id uuid.UUID, qty int) error {
	if l.atomic {
		err := l.store.DecrementStock(ctx, id, qty)
		if err == nil || errors.Is(err, domain.ErrStockConflict) {
			return err
		}
		l.log.WithField("product_id", id).WithError(err).Warn("Atomic stock decrement unavailable, falling back to read-then-write")
	}
	return l.decrementNonAtomic(ctx, id, qty)
}

func (l *Ledger) decrementNonAtomic(ctx context.Context, id uuid.UUID, qty int) error {
	l.fallbacks.Add(1)

	p, err := l.store.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("read stock: %w", err)
	}
	if p == nil {
		return domain.ErrProductNotFound
	}

	next := p.Stock - qty
	if next < 0 {
		l.log.WithFields(logrus.Fields{
			"product_id": id,
			"stock":      p.Stock,
			"quantity":   qty,
		}).Warn("Stock would go negative, clamping to zero")
		next = 0
	}
	if err := l.store.SetStock(ctx, id, next); err != nil {
		return fmt.Errorf("write stock: %w", err)
	}

	l.log.WithFields(logrus.Fields{
		"product_id": id,
		"stock_path": "fallback",
		"previous":   p.Stock,
		"next":       next,
	}).Warn("Stock decremented without atomic guarantee")
	return nil
}

// FallbackCount is the number of decrements that took the non-atomic path.
func (l *Ledger) FallbackCount() int64 { return l.fallbacks.Load() }

// FailureCount is the number of line items whose stock was not updated.
func (l *Ledger) FailureCount() int64 { return l.failures.Load() }
