package logminer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	online       []LogFile
	archived     []LogFile
	registered   []string
	deregistered []string

	currentScn SCN
	oldest     SCN
}

func (f *fakeSession) CurrentScn(ctx context.Context) (SCN, error) { return f.currentScn, nil }
func (f *fakeSession) OldestOnlineFirstChange(ctx context.Context) (SCN, error) {
	return f.oldest, nil
}
func (f *fakeSession) ListOnlineLogs(ctx context.Context) ([]LogFile, error) { return f.online, nil }
func (f *fakeSession) ListArchivedLogs(ctx context.Context, retention time.Duration, fromScn SCN) ([]LogFile, error) {
	return f.archived, nil
}
func (f *fakeSession) RegisterFile(ctx context.Context, file string) error {
	f.registered = append(f.registered, file)
	return nil
}
func (f *fakeSession) DeregisterFile(ctx context.Context, file string) error {
	f.deregistered = append(f.deregistered, file)
	return nil
}
func (f *fakeSession) BeginMining(ctx context.Context, startScn, endScn SCN, strategy MiningStrategy, continuous bool) error {
	return nil
}
func (f *fakeSession) EndMining(ctx context.Context) error { return nil }
func (f *fakeSession) Fetch(ctx context.Context, startScn, endScn SCN, handle RowHandler) error {
	return nil
}
func (f *fakeSession) VerifyTableLogging(ctx context.Context, owner, name string) error { return nil }
func (f *fakeSession) FlushPeers(ctx context.Context, hosts []string) error             { return nil }

func TestPlannerIncludesCoveringOnlineLogs(t *testing.T) {
	session := &fakeSession{
		online: []LogFile{
			{Name: "redo01.log", FirstChange: 1, NextChange: 100},
			{Name: "redo02.log", FirstChange: 100, NextChange: MaxSCN19_6},
		},
	}
	p := NewPlanner(session)

	plan, err := p.Plan(context.Background(), 50, MaxSCN19_6, time.Hour)
	require.NoError(t, err)
	assert.Len(t, plan.Files, 2, "both logs cover or are the open-ended current redo")
}

func TestPlannerExcludesLogsBeforeOffset(t *testing.T) {
	session := &fakeSession{
		online: []LogFile{
			{Name: "redo01.log", FirstChange: 1, NextChange: 40},
			{Name: "redo02.log", FirstChange: 40, NextChange: 200},
		},
	}
	p := NewPlanner(session)

	plan, err := p.Plan(context.Background(), 50, MaxSCN19_6, time.Hour)
	require.NoError(t, err)
	require.Len(t, plan.Files, 1)
	assert.Equal(t, "redo02.log", plan.Files[0].Name)
}

func TestPlannerDeduplicatesByNextChange(t *testing.T) {
	session := &fakeSession{
		online:   []LogFile{{Name: "redo01.log", FirstChange: 1, NextChange: 200}},
		archived: []LogFile{{Name: "arch01.log", FirstChange: 1, NextChange: 200}},
	}
	p := NewPlanner(session)

	plan, err := p.Plan(context.Background(), 50, MaxSCN19_6, time.Hour)
	require.NoError(t, err)
	assert.Len(t, plan.Files, 1, "online and archived logs sharing a nextChange must be deduplicated")
}

func TestPlannerFailsWhenPlanEmpty(t *testing.T) {
	session := &fakeSession{}
	p := NewPlanner(session)

	_, err := p.Plan(context.Background(), 50, MaxSCN19_6, time.Hour)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReSnapshotRequired))
}

func TestPlannerApplyDeregistersPreviousFiles(t *testing.T) {
	session := &fakeSession{}
	p := NewPlanner(session)

	plan := Plan{Files: []LogFile{{Name: "new.log"}}}
	registered, err := p.Apply(context.Background(), []string{"old.log"}, plan)
	require.NoError(t, err)

	assert.Equal(t, []string{"old.log"}, session.deregistered)
	assert.Equal(t, []string{"new.log"}, registered)
}
