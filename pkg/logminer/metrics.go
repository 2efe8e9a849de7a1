package logminer

import "sync/atomic"

// BufferMetrics holds the counters exposed by the buffer's management
// surface. All fields are updated exclusively by the mining thread (or,
// for committed-transaction counters, by the single emission worker) using
// atomic operations, so a management interface can read a consistent
// snapshot without synchronizing with the hot path.
type BufferMetrics struct {
	activeTransactions  atomic.Int64
	rolledBackCount     atomic.Int64
	abandonedCount      atomic.Int64
	committedCount      atomic.Int64
	capturedDML         atomic.Int64
	committedDML        atomic.Int64
	warningCount        atomic.Int64
	errorCount          atomic.Int64
	oldestScn           atomic.Uint64
	committedScn        atomic.Uint64
	lagMillis           atomic.Int64
}

// BufferMetricsSnapshot is a point-in-time, read-only copy safe to hand to
// a management/monitoring surface.
type BufferMetricsSnapshot struct {
	ActiveTransactions int64
	RolledBack         int64
	Abandoned          int64
	Committed          int64
	CapturedDML        int64
	CommittedDML       int64
	Warnings           int64
	Errors             int64
	OldestScn          SCN
	CommittedScn       SCN
	LagMillis          int64
}

// Snapshot atomically reads every counter into a value the caller owns.
func (m *BufferMetrics) Snapshot() BufferMetricsSnapshot {
	return BufferMetricsSnapshot{
		ActiveTransactions: m.activeTransactions.Load(),
		RolledBack:         m.rolledBackCount.Load(),
		Abandoned:          m.abandonedCount.Load(),
		Committed:          m.committedCount.Load(),
		CapturedDML:        m.capturedDML.Load(),
		CommittedDML:       m.committedDML.Load(),
		Warnings:           m.warningCount.Load(),
		Errors:             m.errorCount.Load(),
		OldestScn:          SCN(m.oldestScn.Load()),
		CommittedScn:       SCN(m.committedScn.Load()),
		LagMillis:          m.lagMillis.Load(),
	}
}

func (m *BufferMetrics) setActiveTransactions(n int) {
	m.activeTransactions.Store(int64(n))
}

func (m *BufferMetrics) incrementCapturedDML() {
	m.capturedDML.Add(1)
}

func (m *BufferMetrics) incrementCommittedDML(n int) {
	m.committedDML.Add(int64(n))
}

func (m *BufferMetrics) incrementCommittedTransactions() {
	m.committedCount.Add(1)
}

func (m *BufferMetrics) incrementRolledBackTransactions() {
	m.rolledBackCount.Add(1)
}

func (m *BufferMetrics) incrementAbandoned() {
	m.abandonedCount.Add(1)
}

func (m *BufferMetrics) incrementWarning() {
	m.warningCount.Add(1)
}

func (m *BufferMetrics) incrementError() {
	m.errorCount.Add(1)
}

func (m *BufferMetrics) setOldestScn(scn *SCN) {
	if scn == nil {
		m.oldestScn.Store(0)
		return
	}
	m.oldestScn.Store(uint64(*scn))
}

func (m *BufferMetrics) setCommittedScn(scn SCN) {
	m.committedScn.Store(uint64(scn))
}

// calculateLag records the delay, in milliseconds, between a DML's redo
// timestamp and wall-clock now. No database/connector clock-skew
// correction is applied to the value, here or by the caller.
func (m *BufferMetrics) calculateLag(lagMillis int64) {
	m.lagMillis.Store(lagMillis)
}

// MinerMetrics tracks the mining-loop side of the management surface:
// current batch size, sleep interval, and head-lag bookkeeping used by the
// adaptive controller and exposed for observability.
type MinerMetrics struct {
	batchSize    atomic.Int64
	sleepMillis  atomic.Int64
	currentScn   atomic.Uint64
	networkErrors atomic.Int64
	switchCount  atomic.Int64
}

func (m *MinerMetrics) setCurrentScn(scn SCN) {
	m.currentScn.Store(uint64(scn))
}

func (m *MinerMetrics) incrementNetworkErrors() {
	m.networkErrors.Add(1)
}

func (m *MinerMetrics) incrementSwitchCount() {
	m.switchCount.Add(1)
}

// MinerMetricsSnapshot is a read-only copy of MinerMetrics.
type MinerMetricsSnapshot struct {
	BatchSize     int64
	SleepMillis   int64
	CurrentScn    SCN
	NetworkErrors int64
	SwitchCount   int64
}

// Snapshot atomically reads every counter into a value the caller owns.
func (m *MinerMetrics) Snapshot() MinerMetricsSnapshot {
	return MinerMetricsSnapshot{
		BatchSize:     m.batchSize.Load(),
		SleepMillis:   m.sleepMillis.Load(),
		CurrentScn:    SCN(m.currentScn.Load()),
		NetworkErrors: m.networkErrors.Load(),
		SwitchCount:   m.switchCount.Load(),
	}
}
