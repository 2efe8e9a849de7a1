package logminer

import "time"

// CommitCallback fires once per registered DML, in mining order, when its
// owning transaction commits. remaining counts down from len(callbacks)-1
// to 0 so the final invocation is recognizable to the collaborator (the
// miner's callback writes the durable offset on the last row of a
// transaction).
type CommitCallback func(commitTime time.Time, smallestScn *SCN, commitScn SCN, remaining int) error

// transaction is a single in-flight, uncommitted unit of work as observed
// through the mining stream. It is owned exclusively by the buffer's
// single writer goroutine; nothing else may touch it.
type transaction struct {
	id       string
	firstScn SCN // immutable after creation
	lastScn  SCN // monotone non-decreasing
	callbacks []CommitCallback
	redoByScn map[SCN][]string
}

func newTransaction(id string, scn SCN) *transaction {
	return &transaction{
		id:        id,
		firstScn:  scn,
		lastScn:   scn,
		redoByScn: make(map[SCN][]string),
	}
}

// duplicateAtLastScn implements the register-time de-duplication rule: a
// redo statement is a duplicate only if it repeats verbatim at the same
// SCN as the most recently recorded one for this transaction.
func (t *transaction) duplicateAtLastScn(scn SCN, redoSQL string) bool {
	if scn != t.lastScn {
		return false
	}
	for _, sql := range t.redoByScn[scn] {
		if sql == redoSQL {
			return true
		}
	}
	return false
}

// addRedoSQL records a DML's redo text and callback, advancing lastScn.
// Precondition: scn >= t.lastScn (mining delivers rows in SCN order within
// a transaction).
func (t *transaction) addRedoSQL(scn SCN, redoSQL string, callback CommitCallback) {
	t.redoByScn[scn] = append(t.redoByScn[scn], redoSQL)
	t.lastScn = scn
	t.callbacks = append(t.callbacks, callback)
}
