package tenantkit

import (
	"sync"
	"time"
)

// TransactionMetrics provides transaction performance and failure statistics.
type TransactionMetrics struct {
	TotalTransactions      int64         `json:"total_transactions"`
	SuccessfulTransactions int64         `json:"successful_transactions"`
	FailedTransactions     int64         `json:"failed_transactions"`
	AverageDuration        time.Duration `json:"average_duration"`
	MaxDuration            time.Duration `json:"max_duration"`
	MinDuration            time.Duration `json:"min_duration"`
	LastReset              time.Time     `json:"last_reset"`
}

// transactionMonitor holds the internal transaction monitoring state.
type transactionMonitor struct {
	mu            sync.Mutex
	totalCount    int64
	successCount  int64
	failureCount  int64
	totalDuration time.Duration
	maxDuration   time.Duration
	minDuration   time.Duration
	lastReset     time.Time
}

// newTransactionMonitor creates a new transaction monitor.
func newTransactionMonitor() *transactionMonitor {
	return &transactionMonitor{
		minDuration: time.Hour, // Initialized high so the first sample wins
		lastReset:   time.Now(),
	}
}

// recordTransaction records a transaction completion with its duration and
// success status.
func (tm *transactionMonitor) recordTransaction(duration time.Duration, success bool) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.totalCount++
	tm.totalDuration += duration

	if success {
		tm.successCount++
	} else {
		tm.failureCount++
	}

	if duration > tm.maxDuration {
		tm.maxDuration = duration
	}
	if duration < tm.minDuration {
		tm.minDuration = duration
	}
}

// getMetrics returns a snapshot of the current metrics.
func (tm *transactionMonitor) getMetrics() TransactionMetrics {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	metrics := TransactionMetrics{
		TotalTransactions:      tm.totalCount,
		SuccessfulTransactions: tm.successCount,
		FailedTransactions:     tm.failureCount,
		MaxDuration:            tm.maxDuration,
		MinDuration:            tm.minDuration,
		LastReset:              tm.lastReset,
	}
	if tm.totalCount > 0 {
		metrics.AverageDuration = tm.totalDuration / time.Duration(tm.totalCount)
	} else {
		metrics.MinDuration = 0
	}
	return metrics
}

// reset clears all metrics.
func (tm *transactionMonitor) reset() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.totalCount = 0
	tm.successCount = 0
	tm.failureCount = 0
	tm.totalDuration = 0
	tm.maxDuration = 0
	tm.minDuration = time.Hour
	tm.lastReset = time.Now()
}
