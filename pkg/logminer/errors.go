package logminer

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// transientErrorPrefixes lists the Oracle error codes that mean "session or
// network dropped, reconnect and resume" rather than "mining is broken".
// Mirrors LogMinerHelper's isUsingSupplementalLoggingConnectionReset-adjacent
// checks: a fixed set of ORA- prefixes plus socket-level I/O failures.
var transientErrorPrefixes = []string{
	"ORA-03135", // connection lost contact
	"ORA-12543", // TNS:destination host unreachable
	"ORA-00604", // error occurred at recursive SQL level
	"ORA-01089", // immediate shutdown in progress
}

// ErrReSnapshotRequired means the offset has fallen out of the retrievable
// redo window (missing offset in redo, or an empty log-file plan). The
// caller must clean its offset and re-snapshot; this is always fatal.
var ErrReSnapshotRequired = errors.New("logminer: offset precedes retrievable redo, clean offset and re-snapshot required")

// NetworkError wraps a transient session/network fault classified per the
// taxonomy: callers should log it as a warning, bump the network-problem
// counter, and loop back to Connect preserving startScn.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("logminer: transient network error: %s", e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// IsTransient reports whether err should be handled by looping to Connect
// rather than failing the connector task.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	msg := err.Error()
	for _, prefix := range transientErrorPrefixes {
		if strings.Contains(msg, prefix) {
			return true
		}
	}
	return false
}

// ClassifyOraError wraps err as a *NetworkError when its message carries one
// of the known transient ORA- prefixes, otherwise returns it unchanged.
func ClassifyOraError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, prefix := range transientErrorPrefixes {
		if strings.Contains(msg, prefix) {
			return &NetworkError{Cause: err}
		}
	}
	return err
}

// SupplementalLoggingError is raised by MiningSession.VerifyTableLogging,
// called from the miner's Prepare step, when a monitored table lacks the
// minimal supplemental logging required for
// LogMiner to resolve primary-key and column data. Fatal: mining cannot
// proceed until an operator fixes the database configuration.
type SupplementalLoggingError struct {
	Detail string
}

func (e *SupplementalLoggingError) Error() string {
	return fmt.Sprintf("logminer: supplemental logging misconfigured: %s", e.Detail)
}

// ParserError wraps a DmlParser or dispatch failure surfaced during commit
// emission. Non-interrupt callback errors are producer-side fatal: the
// mining loop stops after the current iteration.
type ParserError struct {
	TxnID string
	Cause error
}

func (e *ParserError) Error() string {
	return fmt.Sprintf("logminer: failed processing transaction %s: %s", e.TxnID, e.Cause)
}

func (e *ParserError) Unwrap() error {
	return e.Cause
}
