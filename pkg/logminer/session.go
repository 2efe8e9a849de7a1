package logminer

import (
	"context"
	"time"
)

// MiningStrategy selects how LogMiner resolves its data dictionary.
type MiningStrategy string

const (
	// StrategyOnlineCatalog reads the dictionary from the current open
	// database catalog; faster to start, blind to DDL that happened before
	// the mining session began.
	StrategyOnlineCatalog MiningStrategy = "ONLINE_CATALOG"
	// StrategyCatalogInRedo rebuilds the dictionary from redo on every log
	// switch; slower, captures DDL as it is replayed.
	StrategyCatalogInRedo MiningStrategy = "CATALOG_IN_REDO"
)

// LogFile describes one online or archived redo log as seen by the
// database's dictionary views.
type LogFile struct {
	Name        string
	FirstChange SCN
	NextChange  SCN
	Archived    bool
}

// RowKind tags the variant carried by a MiningRow.
type RowKind int

const (
	RowDml RowKind = iota
	RowCommit
	RowRollback
)

// MiningRow is one record pulled from a LogMiner fetch; only the fields
// relevant to Kind are populated.
type MiningRow struct {
	Kind       RowKind
	TxnID      string
	Scn        SCN
	SqlRedo    string
	ChangeTime time.Time
	Timestamp  time.Time
}

// RowHandler is invoked once per fetched row, in SCN order, by
// MiningSession.Fetch.
type RowHandler func(row MiningRow) error

// MiningSession is the database/driver collaborator: session lifecycle,
// log enumeration, and the mining fetch itself. A concrete implementation
// owns the physical connection, NLS setup, supplemental-logging checks and
// flush-table maintenance; none of that is this package's concern.
type MiningSession interface {
	CurrentScn(ctx context.Context) (SCN, error)
	OldestOnlineFirstChange(ctx context.Context) (SCN, error)
	ListOnlineLogs(ctx context.Context) ([]LogFile, error)
	ListArchivedLogs(ctx context.Context, retention time.Duration, fromScn SCN) ([]LogFile, error)

	RegisterFile(ctx context.Context, file string) error
	DeregisterFile(ctx context.Context, file string) error

	BeginMining(ctx context.Context, startScn, endScn SCN, strategy MiningStrategy, continuous bool) error
	EndMining(ctx context.Context) error

	Fetch(ctx context.Context, startScn, endScn SCN, handle RowHandler) error

	// VerifyTableLogging checks that a monitored table has column-level
	// supplemental logging enabled, without which LogMiner cannot resolve
	// a primary key for its UPDATE/DELETE redo. Returns
	// *SupplementalLoggingError when it doesn't.
	VerifyTableLogging(ctx context.Context, owner, name string) error

	// FlushPeers forces the redo log writer on every listed RAC peer host
	// to archive its current log, so a mining window can be trusted to be
	// complete across the cluster. No-op when hosts is empty.
	FlushPeers(ctx context.Context, hosts []string) error
}

// Dispatcher accepts a committed, parsed change record for delivery to the
// downstream sink. May block on backpressure; may return an error, which
// the buffer's emission worker surfaces through the error handler.
type Dispatcher interface {
	Dispatch(ctx context.Context, record any) error
}

// DmlParser turns a raw redo SQL statement plus its owning stream/schema
// into a structured record ready for Dispatcher.Dispatch. Kept generic
// (any) here since the shape of "record" and "schema" is owned by the
// SchemaProvider/EventDispatcher collaborators, out of this package's scope.
type DmlParser interface {
	Parse(tableOwner, tableName, sqlRedo string, changeTime time.Time) (any, error)
}

// Table identifies a monitored table by its owning schema and name.
type Table struct {
	Owner string
	Name  string
}

// SchemaProvider resolves which tables are monitored and their column
// metadata, used by DmlParser to build structured records and by Prepare
// to verify per-table supplemental logging coverage.
type SchemaProvider interface {
	IsMonitored(tableOwner, tableName string) bool
	PrimaryKeyColumns(tableOwner, tableName string) []string
	MonitoredTables() []Table
}

// Config holds the mining-loop knobs listed as external interfaces: the
// values an operator can set and the adaptive controller can mutate
// within configured bounds.
type Config struct {
	Strategy                  MiningStrategy
	ContinuousMine            bool
	DefaultBatchSize          int64
	MinBatchSize              int64
	MaxBatchSize              int64
	BatchSizeStep             int64
	MinSleepMillis            int64
	MaxSleepMillis            int64
	SleepStep                 int64
	MaxQueueSize              int
	PollIntervalMillis        int64
	TransactionRetentionHours int
	ArchiveLogRetentionHours  int

	// RacPeerHosts lists the other instance hosts of a RAC cluster whose
	// redo log writers must be flushed before each mining window so the
	// window is complete across every instance. Empty on single-instance
	// deployments.
	RacPeerHosts []string
}
