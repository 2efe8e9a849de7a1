package logminer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type alwaysRunning struct{}

func (alwaysRunning) IsRunning() bool { return true }

// recordingCallback returns a CommitCallback that appends its invocation to
// a shared, mutex-guarded slice, and signals done once called.
func recordingCallback(id string, mu *sync.Mutex, calls *[]string, done chan<- struct{}) CommitCallback {
	return func(commitTime time.Time, smallestScn *SCN, commitScn SCN, remaining int) error {
		mu.Lock()
		*calls = append(*calls, id)
		mu.Unlock()
		if done != nil {
			done <- struct{}{}
		}
		return nil
	}
}

func newTestBuffer() *Buffer {
	return NewBuffer(&BufferMetrics{}, nil)
}

func TestBufferRegisterBasics(t *testing.T) {
	b := newTestBuffer()
	defer b.Close()

	done := make(chan struct{}, 1)
	b.Register("A", 1, time.Time{}, "x", recordingCallback("A", &sync.Mutex{}, &[]string{}, done))

	txn, ok := b.transactions["A"]
	require.True(t, ok)
	assert.Equal(t, SCN(1), txn.lastScn)
	assert.Equal(t, SCN(1), b.LargestScn())
}

func TestBufferRegisterAbandonedIsDropped(t *testing.T) {
	b := newTestBuffer()
	defer b.Close()

	b.abandoned["A"] = struct{}{}
	b.Register("A", 1, time.Time{}, "x", nil)

	_, exists := b.transactions["A"]
	assert.False(t, exists)
}

func TestBufferRegisterDeduplicatesAtSameScn(t *testing.T) {
	// S3
	b := newTestBuffer()
	defer b.Close()

	b.Register("A", 1, time.Time{}, "x", nil)
	b.Register("A", 10, time.Time{}, "x", nil)
	b.Register("A", 10, time.Time{}, "x", nil)

	txn := b.transactions["A"]
	assert.Equal(t, []string{"x"}, txn.redoByScn[10])

	b.Register("A", 10, time.Time{}, "y", nil)
	assert.Equal(t, []string{"x", "y"}, txn.redoByScn[10])
}

func TestBufferOutOfOrderCommitSmallestScn(t *testing.T) {
	// S1: register A@1, register B@10, commit B@11, commit A@2.
	b := newTestBuffer()
	defer b.Close()

	var mu sync.Mutex
	var smallestForB, smallestForA *SCN
	doneB := make(chan struct{}, 1)
	doneA := make(chan struct{}, 1)

	b.Register("A", 1, time.Time{}, "a-sql", func(commitTime time.Time, smallestScn *SCN, commitScn SCN, remaining int) error {
		mu.Lock()
		smallestForA = smallestScn
		mu.Unlock()
		doneA <- struct{}{}
		return nil
	})
	b.Register("B", 10, time.Time{}, "b-sql", func(commitTime time.Time, smallestScn *SCN, commitScn SCN, remaining int) error {
		mu.Lock()
		smallestForB = smallestScn
		mu.Unlock()
		doneB <- struct{}{}
		return nil
	})

	ok := b.Commit("B", 11, Offset{}, time.Now(), alwaysRunning{}, "b commits first")
	require.True(t, ok)
	<-doneB

	ok = b.Commit("A", 2, Offset{}, time.Now(), alwaysRunning{}, "a commits second")
	require.True(t, ok)
	<-doneA

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, smallestForB)
	assert.Equal(t, SCN(1), *smallestForB, "A is still open when B commits")
	assert.Nil(t, smallestForA, "no other transaction is open when A commits")
	assert.Equal(t, SCN(2), b.lastCommittedScn)
}

func TestBufferRollback(t *testing.T) {
	// S2: register A@1, register B@10, rollback A.
	b := newTestBuffer()
	defer b.Close()

	b.Register("A", 1, time.Time{}, "x", nil)
	b.Register("B", 10, time.Time{}, "y", nil)

	ok := b.Rollback("A", "test")
	assert.True(t, ok)
	assert.Equal(t, SCN(10), b.LargestScn())
	assert.False(t, b.IsEmpty())
	assert.True(t, b.RolledBack("A"))
	assert.False(t, b.RolledBack("B"))
}

func TestBufferRollbackUnknownReturnsFalse(t *testing.T) {
	b := newTestBuffer()
	defer b.Close()

	assert.False(t, b.Rollback("nope", "test"))
}

func TestBufferAbandonLongTransactionsEmptiesBuffer(t *testing.T) {
	// S4: register A@1, abandonLongTransactions(1).
	b := newTestBuffer()
	defer b.Close()

	b.Register("A", 1, time.Time{}, "x", nil)
	b.AbandonLongTransactions(1)

	assert.True(t, b.IsEmpty())
	assert.Equal(t, SCN(0), b.LargestScn())

	b.Register("A", 2, time.Time{}, "x", nil)
	_, exists := b.transactions["A"]
	assert.False(t, exists, "abandoned transaction id must not be resurrected")
}

func TestBufferAbandonLongTransactionsRetainsNewer(t *testing.T) {
	// S5: register A@1, register B@10, abandonLongTransactions(1).
	b := newTestBuffer()
	defer b.Close()

	b.Register("A", 1, time.Time{}, "x", nil)
	b.Register("B", 10, time.Time{}, "y", nil)
	b.AbandonLongTransactions(1)

	assert.False(t, b.IsEmpty())
	assert.Equal(t, SCN(10), b.LargestScn())
}

func TestBufferCommitUnknownTransactionReturnsFalse(t *testing.T) {
	b := newTestBuffer()
	defer b.Close()

	ok := b.Commit("nope", 5, Offset{}, time.Now(), alwaysRunning{}, "test")
	assert.False(t, ok)
}

func TestBufferCommitAlreadyProcessedIsDeduplicated(t *testing.T) {
	b := newTestBuffer()
	defer b.Close()

	done := make(chan struct{}, 1)
	b.Register("A", 1, time.Time{}, "x", recordingCallback("A", &sync.Mutex{}, &[]string{}, done))
	b.lastCommittedScn = 100

	ok := b.Commit("A", 5, Offset{}, time.Now(), alwaysRunning{}, "replayed commit")
	assert.False(t, ok)
	_, exists := b.transactions["A"]
	assert.False(t, exists)

	select {
	case <-done:
		t.Fatal("callback must not fire for an already-processed commit")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBufferResetLargestScn(t *testing.T) {
	b := newTestBuffer()
	defer b.Close()

	b.Register("A", 7, time.Time{}, "x", nil)
	require.Equal(t, SCN(7), b.LargestScn())

	want := SCN(42)
	b.ResetLargestScn(&want)
	assert.Equal(t, SCN(42), b.LargestScn())

	b.ResetLargestScn(nil)
	assert.Equal(t, SCN(0), b.LargestScn())
}

func TestBufferIsEmptyWaitsOnPendingEmission(t *testing.T) {
	b := newTestBuffer()
	defer b.Close()

	release := make(chan struct{})
	blocked := make(chan struct{})
	b.Register("A", 1, time.Time{}, "x", func(commitTime time.Time, smallestScn *SCN, commitScn SCN, remaining int) error {
		close(blocked)
		<-release
		return nil
	})

	b.Commit("A", 2, Offset{}, time.Now(), alwaysRunning{}, "test")
	<-blocked

	assert.False(t, b.IsEmpty(), "emission still in flight")
	close(release)

	require.Eventually(t, b.IsEmpty, time.Second, 5*time.Millisecond)
}

func TestBufferCallbackOrderWithinTransaction(t *testing.T) {
	b := newTestBuffer()
	defer b.Close()

	var mu sync.Mutex
	var order []string
	done := make(chan struct{}, 1)

	for i, sql := range []string{"s1", "s2", "s3"} {
		idx := i
		s := sql
		cb := func(commitTime time.Time, smallestScn *SCN, commitScn SCN, remaining int) error {
			mu.Lock()
			order = append(order, s)
			mu.Unlock()
			if idx == 2 {
				done <- struct{}{}
			}
			return nil
		}
		b.Register("A", SCN(idx+1), time.Time{}, sql, cb)
	}

	b.Commit("A", 10, Offset{}, time.Now(), alwaysRunning{}, "test")
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"s1", "s2", "s3"}, order)
}
