package logminer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionDuplicateAtLastScn(t *testing.T) {
	txn := newTransaction("t1", 1)
	txn.addRedoSQL(10, "x", nil)

	assert.True(t, txn.duplicateAtLastScn(10, "x"), "same sql at lastScn is a duplicate")
	assert.False(t, txn.duplicateAtLastScn(10, "y"), "different sql at same scn is not a duplicate")
	assert.False(t, txn.duplicateAtLastScn(11, "x"), "same sql at a later scn is not a duplicate")
}

func TestTransactionAddRedoSQLStoresSequence(t *testing.T) {
	txn := newTransaction("t1", 1)
	txn.addRedoSQL(1, "x", nil)
	txn.addRedoSQL(10, "x", nil)

	if !txn.duplicateAtLastScn(10, "x") {
		t.Fatalf("expected x at scn 10 to be recorded before re-registering")
	}
	txn.addRedoSQL(10, "y", nil)

	assert.Equal(t, []string{"x", "y"}, txn.redoByScn[10])
	assert.Equal(t, SCN(10), txn.lastScn)
	assert.Equal(t, SCN(1), txn.firstScn)
	assert.Len(t, txn.callbacks, 3)
}
