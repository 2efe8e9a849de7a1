package logminer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flowbridge-data/oracle-logminer/logger"
)

// RunContext is polled by the emission worker between callbacks so a
// shutdown in progress on the mining thread short-circuits in-flight
// emission instead of running it to completion.
type RunContext interface {
	IsRunning() bool
}

// Buffer is the transactional reorder/commit buffer sitting between the
// mining loop and the downstream dispatcher. It is deliberately not
// internally thread-safe: exactly one goroutine (the mining loop) may call
// Register/Commit/Rollback/AbandonLongTransactions/ResetLargestScn.
// Emission — invoking the collaborator-supplied CommitCallbacks — runs on
// a single dedicated worker goroutine so that emission order always
// equals commit-arrival order.
type Buffer struct {
	transactions map[string]*transaction
	abandoned    map[string]struct{}
	rolledBack   map[string]struct{}

	largestScn       SCN
	lastCommittedScn SCN

	pending atomic.Int64

	jobs         chan emissionJob
	workerDone   chan struct{}
	closeOnce    sync.Once
	errorHandler func(error)
	metrics      *BufferMetrics
}

type emissionJob struct {
	callbacks   []CommitCallback
	commitTime  time.Time
	smallestScn *SCN
	commitScn   SCN
	ctx         RunContext
}

// NewBuffer constructs a Buffer and starts its emission worker.
// errorHandler receives any non-interrupt error raised inside a commit
// callback; it is expected to mark the connector task
// fatally failed, mirroring Debezium's ErrorHandler collaborator.
func NewBuffer(metrics *BufferMetrics, errorHandler func(error)) *Buffer {
	b := &Buffer{
		transactions: make(map[string]*transaction),
		abandoned:    make(map[string]struct{}),
		rolledBack:   make(map[string]struct{}),
		jobs:         make(chan emissionJob, 256),
		workerDone:   make(chan struct{}),
		errorHandler: errorHandler,
		metrics:      metrics,
	}
	go b.runWorker()
	return b
}

func (b *Buffer) runWorker() {
	defer close(b.workerDone)
	for job := range b.jobs {
		b.emit(job)
	}
}

func (b *Buffer) emit(job emissionJob) {
	defer b.pending.Add(-1)

	remaining := len(job.callbacks) - 1
	for _, cb := range job.callbacks {
		if job.ctx != nil && !job.ctx.IsRunning() {
			return
		}
		if err := cb(job.commitTime, job.smallestScn, job.commitScn, remaining); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if b.errorHandler != nil {
				b.errorHandler(err)
			}
			return
		}
		remaining--
	}

	b.lastCommittedScn = job.commitScn
	b.metrics.incrementCommittedTransactions()
	b.metrics.incrementCommittedDML(len(job.callbacks))
	b.metrics.setCommittedScn(job.commitScn)
}

// Register admits a DML into its owning transaction, creating the
// transaction on first sight.
func (b *Buffer) Register(txnID string, scn SCN, changeTime time.Time, redoSQL string, callback CommitCallback) {
	if _, isAbandoned := b.abandoned[txnID]; isAbandoned {
		b.warnf("dropping DML for abandoned transaction %s at scn %s", txnID, scn)
		return
	}

	txn, exists := b.transactions[txnID]
	if !exists {
		txn = newTransaction(txnID, scn)
		b.transactions[txnID] = txn
	}

	if txn.duplicateAtLastScn(scn, redoSQL) {
		b.debugf("dropping duplicate redo for transaction %s at scn %s", txnID, scn)
		return
	}

	txn.addRedoSQL(scn, redoSQL, callback)
	if scn > b.largestScn {
		b.largestScn = scn
	}

	b.metrics.setActiveTransactions(len(b.transactions))
	b.metrics.incrementCapturedDML()
	if !changeTime.IsZero() {
		b.metrics.calculateLag(time.Since(changeTime).Milliseconds())
	}
}

// Commit schedules the emission of a committed transaction's callbacks and
// removes it from the buffer.
func (b *Buffer) Commit(txnID string, commitScn SCN, offset Offset, commitTime time.Time, ctx RunContext, debugMessage string) bool {
	txn, ok := b.transactions[txnID]
	if !ok {
		return false
	}

	alreadyProcessed := (offset.CommitScn != nil && *offset.CommitScn > commitScn) || b.lastCommittedScn > commitScn
	if alreadyProcessed {
		delete(b.transactions, txnID)
		b.recomputeLargestScn()
		b.metrics.setActiveTransactions(len(b.transactions))
		b.warnf("transaction %s was already processed, ignoring: offset committed scn=%v, commit scn=%s, last committed scn=%s",
			txnID, offset.CommitScn, commitScn, b.lastCommittedScn)
		return false
	}

	smallest := b.smallestScnExcluding(txnID)
	delete(b.transactions, txnID)
	b.recomputeLargestScn()
	b.metrics.setActiveTransactions(len(b.transactions))
	b.metrics.setOldestScn(smallest)

	callbacks := txn.callbacks
	b.pending.Add(1)

	b.debugf("commit %s, smallest scn %v, largest scn %s", debugMessage, smallest, b.largestScn)

	job := emissionJob{
		callbacks:   callbacks,
		commitTime:  commitTime,
		smallestScn: smallest,
		commitScn:   commitScn,
		ctx:         ctx,
	}
	b.jobs <- job

	return true
}

// Rollback discards a transaction's buffered work without emitting it.
func (b *Buffer) Rollback(txnID string, debugMessage string) bool {
	_, ok := b.transactions[txnID]
	if !ok {
		return false
	}

	delete(b.transactions, txnID)
	delete(b.abandoned, txnID)
	b.rolledBack[txnID] = struct{}{}
	b.recomputeLargestScn()

	b.metrics.setActiveTransactions(len(b.transactions))
	b.metrics.incrementRolledBackTransactions()
	b.debugf("transaction rolled back, %s", debugMessage)

	return true
}

// AbandonLongTransactions drops every transaction whose firstScn has
// fallen out of the retrievable redo window.
func (b *Buffer) AbandonLongTransactions(thresholdScn SCN) {
	abandonedAny := false
	for id, txn := range b.transactions {
		if txn.firstScn <= thresholdScn {
			b.warnf("abandoning long-running transaction %s, first scn %s <= threshold %s", id, txn.firstScn, thresholdScn)
			b.abandoned[id] = struct{}{}
			delete(b.transactions, id)
			b.metrics.incrementAbandoned()
			abandonedAny = true
		}
	}
	if abandonedAny {
		b.recomputeLargestScn()
		b.metrics.setActiveTransactions(len(b.transactions))
	}
}

// ResetLargestScn overrides the watermark hint used by the mining loop,
// zeroing it when value is nil.
func (b *Buffer) ResetLargestScn(value *SCN) {
	if value == nil {
		b.largestScn = 0
		return
	}
	b.largestScn = *value
}

// LargestScn returns the maximum lastScn across all live transactions, or
// zero if the buffer holds none.
func (b *Buffer) LargestScn() SCN {
	return b.largestScn
}

// IsEmpty reports whether the buffer holds no live transactions and has no
// emission task still in flight.
func (b *Buffer) IsEmpty() bool {
	return len(b.transactions) == 0 && b.pending.Load() == 0
}

// RolledBack reports whether id has been observed rolling back. Diagnostic
// only.
func (b *Buffer) RolledBack(id string) bool {
	_, ok := b.rolledBack[id]
	return ok
}

// Abandoned reports whether id is currently suppressed as abandoned.
func (b *Buffer) Abandoned(id string) bool {
	_, ok := b.abandoned[id]
	return ok
}

// Close clears the transaction map, closes the emission queue and waits up
// to one second for the worker to emit what is still queued. When the wait
// elapses Close returns anyway; the worker is not stopped and goes on
// emitting the remaining queued jobs in the background.
func (b *Buffer) Close() {
	b.transactions = make(map[string]*transaction)
	b.closeOnce.Do(func() {
		close(b.jobs)
	})

	select {
	case <-b.workerDone:
	case <-time.After(time.Second):
		logger.Warn("transactional buffer emission worker did not drain within 1s, forcing shutdown")
	}
}

func (b *Buffer) recomputeLargestScn() {
	if len(b.transactions) == 0 {
		b.largestScn = 0
		return
	}
	var max SCN
	for _, txn := range b.transactions {
		if txn.lastScn > max {
			max = txn.lastScn
		}
	}
	b.largestScn = max
}

func (b *Buffer) smallestScnExcluding(excludeID string) *SCN {
	var (
		found bool
		min   SCN
	)
	for id, txn := range b.transactions {
		if id == excludeID {
			continue
		}
		if !found || txn.firstScn < min {
			min = txn.firstScn
			found = true
		}
	}
	if !found {
		return nil
	}
	return &min
}

func (b *Buffer) warnf(format string, args ...any) {
	logger.Warnf(format, args...)
	b.metrics.incrementWarning()
}

func (b *Buffer) debugf(format string, args ...any) {
	logger.Debugf(format, args...)
}
