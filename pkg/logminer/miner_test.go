package logminer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOffsetStore struct {
	offset Offset
}

func (s *fakeOffsetStore) Read(ctx context.Context) (Offset, error) { return s.offset, nil }
func (s *fakeOffsetStore) Write(ctx context.Context, offset Offset) error {
	s.offset = offset
	return nil
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(ctx context.Context, record any) error { return nil }

type noopParser struct{}

func (noopParser) Parse(tableOwner, tableName, sqlRedo string, changeTime time.Time) (any, error) {
	return sqlRedo, nil
}

type noopSchema struct{}

func (noopSchema) IsMonitored(tableOwner, tableName string) bool          { return true }
func (noopSchema) PrimaryKeyColumns(tableOwner, tableName string) []string { return nil }
func (noopSchema) MonitoredTables() []Table                                { return nil }

func newTestMiner(session MiningSession, offsets *fakeOffsetStore) (*Miner, *Buffer) {
	buffer := NewBuffer(&BufferMetrics{}, nil)
	cfg := testConfig()
	cfg.ArchiveLogRetentionHours = 24
	controller := NewController(cfg, &MinerMetrics{})
	planner := NewPlanner(session)
	miner := NewMiner(session, buffer, planner, controller, noopParser{}, noopDispatcher{}, noopSchema{}, offsets, cfg, &MinerMetrics{}, MaxSCN19_6)
	return miner, buffer
}

func TestMinerIdleTickAdvancesOffset(t *testing.T) {
	// S6: buffer empty, window [100, 200] fetched with zero rows.
	session := &fakeSession{
		online: []LogFile{{Name: "redo01.log", FirstChange: 1, NextChange: MaxSCN19_6}},
	}
	offsets := &fakeOffsetStore{offset: Offset{Scn: 100}}
	miner, buffer := newTestMiner(session, offsets)
	miner.onlineLogCount = 1

	session.currentScn = 200
	next, err := miner.mineOnce(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, SCN(200), next, "next startScn advances to endScn on an idle tick")
	assert.Equal(t, SCN(200), offsets.offset.Scn, "durable offset promoted to endScn once the buffer drains")
	assert.Equal(t, SCN(0), buffer.LargestScn(), "watermark reset once the buffer is empty")
}

func TestMinerHandleRowRegistersAndCommits(t *testing.T) {
	session := &fakeSession{online: []LogFile{{Name: "redo01.log", FirstChange: 1, NextChange: MaxSCN19_6}}}
	offsets := &fakeOffsetStore{}
	miner, buffer := newTestMiner(session, offsets)

	err := miner.handleRow(Offset{}, MiningRow{Kind: RowDml, TxnID: "A", Scn: 1, SqlRedo: "insert"})
	require.NoError(t, err)
	_, exists := buffer.transactions["A"]
	assert.True(t, exists)

	err = miner.handleRow(Offset{}, MiningRow{Kind: RowCommit, TxnID: "A", Scn: 2, Timestamp: time.Now()})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return buffer.IsEmpty() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, SCN(2), offsets.offset.Scn, "offset written by the commit callback on its last row")
}

func TestMinerHandleRowRollback(t *testing.T) {
	session := &fakeSession{}
	offsets := &fakeOffsetStore{}
	miner, buffer := newTestMiner(session, offsets)

	require.NoError(t, miner.handleRow(Offset{}, MiningRow{Kind: RowDml, TxnID: "A", Scn: 1, SqlRedo: "x"}))
	require.NoError(t, miner.handleRow(Offset{}, MiningRow{Kind: RowRollback, TxnID: "A"}))

	assert.True(t, buffer.RolledBack("A"))
	assert.True(t, buffer.IsEmpty())
}
