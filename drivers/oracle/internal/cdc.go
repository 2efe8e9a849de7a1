package driver

import (
	"context"
	"fmt"

	"github.com/flowbridge-data/oracle-logminer/logger"
	"github.com/flowbridge-data/oracle-logminer/pkg/logminer"
	"github.com/flowbridge-data/oracle-logminer/protocol"
	"github.com/flowbridge-data/oracle-logminer/types"
	"github.com/flowbridge-data/oracle-logminer/utils"
)

// oracleOffsetState is the durable payload stored under State.Global; it
// round-trips logminer.Offset so a restart resumes mining from the last
// safely-committed SCN instead of re-snapshotting.
type oracleOffsetState struct {
	Scn               uint64  `json:"scn"`
	CommitScn         *uint64 `json:"commit_scn,omitempty"`
	SnapshotCompleted bool    `json:"snapshot_completed"`
}

func (s *oracleOffsetState) IsEmpty() bool {
	return s.Scn == 0
}

// stateOffsetStore implements logminer.OffsetStore over the connector
// host's types.State, riding the same Global/GlobalState bridge other
// CDC-capable drivers use for their own resume position.
type stateOffsetStore struct {
	state *types.State
}

func (s *stateOffsetStore) Read(ctx context.Context) (logminer.Offset, error) {
	gs := types.NewGlobalState(&oracleOffsetState{})
	if s.state.Global != nil {
		if err := utils.Unmarshal(s.state.Global, gs); err != nil {
			return logminer.Offset{}, fmt.Errorf("failed to unmarshal oracle offset state: %s", err)
		}
	}

	offset := logminer.Offset{Scn: logminer.SCN(gs.State.Scn), SnapshotCompleted: gs.State.SnapshotCompleted}
	if gs.State.CommitScn != nil {
		commit := logminer.SCN(*gs.State.CommitScn)
		offset.CommitScn = &commit
	}
	return offset, nil
}

func (s *stateOffsetStore) Write(ctx context.Context, offset logminer.Offset) error {
	payload := &oracleOffsetState{Scn: uint64(offset.Scn), SnapshotCompleted: offset.SnapshotCompleted}
	if offset.CommitScn != nil {
		commit := uint64(*offset.CommitScn)
		payload.CommitScn = &commit
	}
	s.state.SetGlobalState(types.NewGlobalState(payload))
	return nil
}

// streamDispatcher implements logminer.Dispatcher, routing a parsed
// dispatchRecord to the writer thread of the table it belongs to,
// keyed on the same owner.table identity Discover populated streams
// with.
type streamDispatcher struct {
	inserters map[string]*protocol.ThreadEvent
}

func (d *streamDispatcher) forTable(tableOwner, tableName string) (*protocol.ThreadEvent, bool) {
	inserter, ok := d.inserters[streamKey(tableOwner, tableName)]
	return inserter, ok
}

func (d *streamDispatcher) Dispatch(ctx context.Context, record any) error {
	raw, ok := record.(dispatchRecord)
	if !ok {
		return fmt.Errorf("unexpected dispatch payload type %T", record)
	}

	inserter, ok := d.forTable(raw.tableOwner, raw.tableName)
	if !ok {
		logger.Warnf("dropping change for unmonitored table %s.%s", raw.tableOwner, raw.tableName)
		return nil
	}
	return inserter.Insert(raw.record)
}

// dispatchRecord carries enough routing context alongside the parsed
// record for streamDispatcher to pick the right writer thread.
type dispatchRecord struct {
	tableOwner string
	tableName  string
	record     types.RawRecord
}

func streamKey(owner, name string) string {
	return owner + "." + name
}

// RunChangeStream implements protocol.ChangeStreamDriver. It wires the
// durable offset, the table dictionary, a writer thread per stream and a
// logminer.Miner together and blocks until the mining loop returns.
func (o *Oracle) RunChangeStream(pool *protocol.WriterPool, streams ...protocol.Stream) (err error) {
	if !o.CDCSupport {
		return fmt.Errorf("invalid call; %s not running in cdc mode", o.Type())
	}

	ctx := context.Background()

	inserters := make(map[string]*protocol.ThreadEvent, len(streams))
	errChans := make(map[string]chan error, len(streams))
	for _, stream := range streams {
		errChan := make(chan error)
		inserter, err := pool.NewThread(ctx, stream, protocol.WithErrorChannel(errChan), protocol.WithBackfill(false))
		if err != nil {
			return fmt.Errorf("failed to initiate writer thread for stream[%s]: %s", stream.ID(), err)
		}
		key := streamKey(stream.Namespace(), stream.Name())
		inserters[key], errChans[key] = inserter, errChan

		gotStream := stream.GetStream()
		o.schema.mu.Lock()
		o.schema.pks[OracleTable{Owner: gotStream.Namespace, Name: gotStream.Name}] = gotStream.SourceDefinedPrimaryKey.Array()
		o.schema.mu.Unlock()
	}

	defer func() {
		for key, inserter := range inserters {
			inserter.Close()
			if threadErr := <-errChans[key]; threadErr != nil && err == nil {
				err = fmt.Errorf("failed to write record for stream[%s]: %s", key, threadErr)
			}
		}
	}()

	dispatcher := &streamDispatcher{inserters: inserters}
	offsets := &stateOffsetStore{state: o.State}

	bufferMetrics := &logminer.BufferMetrics{}
	minerMetrics := &logminer.MinerMetrics{}

	var miner *logminer.Miner
	buffer := logminer.NewBuffer(bufferMetrics, func(bufErr error) {
		logger.Errorf("buffer error, stopping mining loop: %s", bufErr)
		miner.Fail(bufErr)
	})
	controller := logminer.NewController(o.cdcConfig.AsLogMinerConfig(), minerMetrics)
	planner := logminer.NewPlanner(o.session)
	parser := &regexDmlParser{schema: o.schema}

	miner = logminer.NewMiner(o.session, buffer, planner, controller, parser,
		dispatcher, o.schema, offsets, o.cdcConfig.AsLogMinerConfig(), minerMetrics, o.maxScnForSession())

	return miner.Run(ctx)
}
