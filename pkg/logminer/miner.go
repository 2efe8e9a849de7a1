package logminer

import (
	"context"
	"fmt"
	"time"

	"github.com/flowbridge-data/oracle-logminer/logger"
)

// OffsetStore persists and restores the durable position record between
// restarts. Implementations are expected to guarantee monotone-non-
// decreasing Scn/CommitScn writes; the miner never relies on anything
// stronger.
type OffsetStore interface {
	Read(ctx context.Context) (Offset, error)
	Write(ctx context.Context, offset Offset) error
}

// Miner drives a MiningSession through the Connect → Prepare → Mine →
// Advance state machine, feeding fetched rows to a Buffer and advancing a
// durable Offset as transactions settle.
type Miner struct {
	session    MiningSession
	buffer     *Buffer
	planner    *Planner
	controller *Controller
	parser     DmlParser
	dispatcher Dispatcher
	schema     SchemaProvider
	offsets    OffsetStore
	cfg        Config
	metrics    *MinerMetrics

	maxScn          SCN
	registeredFiles []string
	onlineLogCount  int

	running bool
	stopErr error
}

// NewMiner wires the collaborators of a single mining-loop instance.
func NewMiner(session MiningSession, buffer *Buffer, planner *Planner, controller *Controller,
	parser DmlParser, dispatcher Dispatcher, schema SchemaProvider, offsets OffsetStore,
	cfg Config, metrics *MinerMetrics, maxScn SCN) *Miner {
	return &Miner{
		session:    session,
		buffer:     buffer,
		planner:    planner,
		controller: controller,
		parser:     parser,
		dispatcher: dispatcher,
		schema:     schema,
		offsets:    offsets,
		cfg:        cfg,
		metrics:    metrics,
		maxScn:     maxScn,
		running:    true,
	}
}

// IsRunning implements RunContext so the miner itself can be handed to
// Buffer.Commit as the cancellation probe.
func (m *Miner) IsRunning() bool {
	return m.running
}

// Stop requests that the miner exit cleanly at the next loop boundary or
// emission callback check.
func (m *Miner) Stop() {
	m.running = false
}

// Fail requests that the miner stop the way Stop does, but marks the exit
// as producer-side fatal: Run returns err instead of ctx.Err() once the
// current loop iteration and any in-flight emission callback observe
// IsRunning() == false. Used by callback/parser failures that must not be
// silently retried on the next mining cycle.
func (m *Miner) Fail(err error) {
	m.stopErr = err
	m.running = false
}

// Run executes the state machine until ctx is cancelled, Stop is called, or
// a non-transient error occurs. A transient error from Prepare or from a
// mining cycle is logged, counted, and sends Run back to Connect with the
// in-memory startScn kept; any error from Connect itself, transient or
// not, ends Run.
func (m *Miner) Run(ctx context.Context) error {
	var startScn SCN

	for m.running && ctx.Err() == nil {
		scn, err := m.connect(ctx)
		if err != nil {
			return fmt.Errorf("connect failed: %w", err)
		}
		if startScn.IsZero() {
			startScn = scn
		}

		err = m.prepare(ctx, startScn)
		if err != nil {
			if IsTransient(err) {
				logger.Warnf("prepare failed with transient error, reconnecting: %s", err)
				m.metrics.incrementNetworkErrors()
				continue
			}
			return err
		}

		for m.running && ctx.Err() == nil {
			nextStart, err := m.mineOnce(ctx, startScn)
			if err != nil {
				if IsTransient(err) {
					logger.Warnf("mine cycle failed with transient error, reconnecting: %s", err)
					m.metrics.incrementNetworkErrors()
					break
				}
				return err
			}
			startScn = nextStart
		}
	}

	if m.stopErr != nil {
		return m.stopErr
	}
	return ctx.Err()
}

// connect returns the startScn to resume from; it opens no session itself.
// Auxiliary table maintenance, NLS setup and supplemental-logging
// verification are the concern of the concrete MiningSession
// implementation; this method only sequences the durable-offset read, the
// current-SCN read and the initial online-log snapshot.
func (m *Miner) connect(ctx context.Context) (SCN, error) {
	offset, err := m.offsets.Read(ctx)
	if err != nil {
		return 0, err
	}

	current, err := m.session.CurrentScn(ctx)
	if err != nil {
		return 0, ClassifyOraError(err)
	}

	startScn := offset.Scn
	if startScn.IsZero() {
		startScn = current
	}

	logs, err := m.session.ListOnlineLogs(ctx)
	if err != nil {
		return 0, ClassifyOraError(err)
	}
	m.onlineLogCount = len(logs)

	return startScn, nil
}

// prepare validates the offset is still inside the retrievable redo window,
// verifies every monitored table has the supplemental logging LogMiner
// needs to resolve its primary key, and registers the initial log-file
// plan.
func (m *Miner) prepare(ctx context.Context, startScn SCN) error {
	for _, table := range m.schema.MonitoredTables() {
		if err := m.session.VerifyTableLogging(ctx, table.Owner, table.Name); err != nil {
			return err
		}
	}

	if !m.cfg.ContinuousMine {
		oldest, err := m.session.OldestOnlineFirstChange(ctx)
		if err != nil {
			return ClassifyOraError(err)
		}
		if startScn.Compare(oldest) < 0 {
			return ErrReSnapshotRequired
		}

		plan, err := m.planner.Plan(ctx, startScn, m.maxScn, time.Duration(m.cfg.ArchiveLogRetentionHours)*time.Hour)
		if err != nil {
			return err
		}

		registered, err := m.planner.Apply(ctx, m.registeredFiles, plan)
		m.registeredFiles = registered
		if err != nil {
			return ClassifyOraError(err)
		}
	}

	return nil
}

// mineOnce executes one Mine/Advance cycle and returns the startScn for
// the next cycle.
func (m *Miner) mineOnce(ctx context.Context, startScn SCN) (SCN, error) {
	current, err := m.session.CurrentScn(ctx)
	if err != nil {
		return startScn, ClassifyOraError(err)
	}

	endScn := m.controller.Adjust(current, startScn)

	if !m.cfg.ContinuousMine {
		if err := m.handleLogSwitch(ctx, startScn); err != nil {
			return startScn, err
		}
	}

	sleep := time.Duration(m.controller.SleepMillis()) * time.Millisecond
	if sleep > 0 {
		select {
		case <-ctx.Done():
			return startScn, ctx.Err()
		case <-time.After(sleep):
		}
	}

	if err := m.session.FlushPeers(ctx, m.cfg.RacPeerHosts); err != nil {
		logger.Warnf("failed flushing rac peer log writers, mining window may be incomplete: %s", err)
	}

	if err := m.session.BeginMining(ctx, startScn, endScn, m.cfg.Strategy, m.cfg.ContinuousMine); err != nil {
		return startScn, ClassifyOraError(err)
	}
	defer func() {
		if err := m.session.EndMining(ctx); err != nil {
			logger.Warnf("failed ending mining session: %s", err)
		}
	}()

	offset, err := m.offsets.Read(ctx)
	if err != nil {
		return startScn, err
	}

	fetchErr := m.session.Fetch(ctx, startScn, endScn, func(row MiningRow) error {
		return m.handleRow(offset, row)
	})
	if fetchErr != nil {
		return startScn, ClassifyOraError(fetchErr)
	}

	next := m.advance(startScn, endScn)

	if m.buffer.IsEmpty() {
		if err := m.offsets.Write(ctx, Offset{Scn: endScn}); err != nil {
			logger.Warnf("failed persisting idle offset advance: %s", err)
		}
	}

	return next, nil
}

func (m *Miner) handleLogSwitch(ctx context.Context, startScn SCN) error {
	logs, err := m.session.ListOnlineLogs(ctx)
	if err != nil {
		return ClassifyOraError(err)
	}
	if len(logs) == m.onlineLogCount {
		return nil
	}
	m.onlineLogCount = len(logs)
	m.metrics.incrementSwitchCount()

	oldest, err := m.session.OldestOnlineFirstChange(ctx)
	if err != nil {
		return ClassifyOraError(err)
	}
	if oldest > 0 {
		m.buffer.AbandonLongTransactions(oldest.Sub(1))
	}

	plan, err := m.planner.Plan(ctx, startScn, m.maxScn, time.Duration(m.cfg.ArchiveLogRetentionHours)*time.Hour)
	if err != nil {
		return err
	}
	registered, err := m.planner.Apply(ctx, m.registeredFiles, plan)
	m.registeredFiles = registered
	return err
}

func (m *Miner) handleRow(offset Offset, row MiningRow) error {
	switch row.Kind {
	case RowDml:
		m.buffer.Register(row.TxnID, row.Scn, row.ChangeTime, row.SqlRedo, m.commitCallback(row))
	case RowCommit:
		m.buffer.Commit(row.TxnID, row.Scn, offset, row.Timestamp, m, fmt.Sprintf("txn=%s", row.TxnID))
	case RowRollback:
		m.buffer.Rollback(row.TxnID, fmt.Sprintf("txn=%s", row.TxnID))
	}
	return nil
}

// commitCallback closes over the row's redo text so the buffer can invoke
// parsing/dispatch once the owning transaction commits, without the core
// buffer package knowing about DmlParser/Dispatcher/SchemaProvider.
func (m *Miner) commitCallback(row MiningRow) CommitCallback {
	return func(commitTime time.Time, smallestScn *SCN, commitScn SCN, remaining int) error {
		record, err := m.parser.Parse("", "", row.SqlRedo, row.ChangeTime)
		if err != nil {
			return &ParserError{TxnID: row.TxnID, Cause: err}
		}
		if err := m.dispatcher.Dispatch(context.Background(), record); err != nil {
			return &ParserError{TxnID: row.TxnID, Cause: err}
		}
		if remaining == 0 {
			offset := Offset{Scn: commitScn, CommitScn: &commitScn}
			if smallestScn != nil {
				offset.Scn = *smallestScn
			}
			return m.offsets.Write(context.Background(), offset)
		}
		return nil
	}
}

// advance computes the next cycle's startScn and unpins the watermark
// during idle periods.
func (m *Miner) advance(startScn, endScn SCN) SCN {
	nextStart := m.buffer.LargestScn()
	if nextStart.IsZero() {
		nextStart = endScn
	}

	if nextStart.Compare(startScn) <= 0 {
		m.buffer.ResetLargestScn(&endScn)
	}

	if m.buffer.IsEmpty() {
		m.buffer.ResetLargestScn(nil)
	}

	return endScn
}
