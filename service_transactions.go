package tenantkit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
)

// Transaction executes fn within a database transaction with automatic
// commit/rollback. fn receives the transaction-scoped database handle and
// must use it for every statement; a returned error rolls everything back,
// including on caller cancellation, so a multi-statement write never leaves
// partial rows.
//
// Example:
//
//	err := service.Transaction(ctx, func(tx dbkit.IDB) error {
//	    if _, err := tx.NewInsert().Model(client).Exec(ctx); err != nil {
//	        return err // rollback
//	    }
//	    _, err := tx.NewInsert().Model(contact).Exec(ctx)
//	    return err
//	})
func (s *Service) Transaction(ctx context.Context, fn func(tx dbkit.IDB) error) error {
	return s.inTransaction(ctx, fn)
}

// TransactionWithOptions executes fn within a database transaction with
// custom options (isolation level, read-only, etc.). Nested calls reuse the
// surrounding transaction through a savepoint; options only apply to a
// newly started transaction.
func (s *Service) TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(tx dbkit.IDB) error) error {
	start := time.Now()
	var err error

	switch db := s.db.(type) {
	case *dbkit.Tx:
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(tx)
		})
	case *dbkit.DBKit:
		err = db.TransactionWithOptions(ctx, opts, func(tx *dbkit.Tx) error {
			return fn(tx)
		})
	default:
		// Caller-managed scope (e.g. a test double); run directly.
		err = fn(s.db)
	}

	s.txMonitor.recordTransaction(time.Since(start), err == nil)
	return err
}

// ReadOnlyTransaction executes fn within a read-only database transaction.
// Useful for multi-query reads that want a consistent snapshot.
func (s *Service) ReadOnlyTransaction(ctx context.Context, fn func(tx dbkit.IDB) error) error {
	return s.TransactionWithOptions(ctx, dbkit.ReadOnlyTxOptions(), fn)
}

// inTransaction is the internal transaction wrapper used by multi-statement
// writes (tenant bootstrap, role deletion).
func (s *Service) inTransaction(ctx context.Context, fn func(tx dbkit.IDB) error) error {
	start := time.Now()
	var err error

	switch db := s.db.(type) {
	case *dbkit.Tx:
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(tx)
		})
	case *dbkit.DBKit:
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(tx)
		})
	default:
		err = fn(s.db)
	}

	s.txMonitor.recordTransaction(time.Since(start), err == nil)
	return err
}

// GetTransactionMetrics returns the current transaction performance metrics.
func (s *Service) GetTransactionMetrics() TransactionMetrics {
	return s.txMonitor.getMetrics()
}

// ResetTransactionMetrics resets all transaction metrics.
func (s *Service) ResetTransactionMetrics() {
	s.txMonitor.reset()
}

// IsTransactionHealthy checks if transaction performance is within
// acceptable thresholds.
func (s *Service) IsTransactionHealthy() bool {
	metrics := s.txMonitor.getMetrics()

	// Too few samples to judge.
	if metrics.TotalTransactions < 10 {
		return true
	}

	failureRate := float64(metrics.FailedTransactions) / float64(metrics.TotalTransactions)
	if failureRate > 0.05 {
		return false
	}

	if metrics.AverageDuration > time.Second {
		return false
	}

	return true
}
