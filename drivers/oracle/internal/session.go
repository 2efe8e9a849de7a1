package driver

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/flowbridge-data/oracle-logminer/logger"
	"github.com/flowbridge-data/oracle-logminer/pkg/logminer"
	"github.com/flowbridge-data/oracle-logminer/utils"
	_ "github.com/sijms/go-ora/v2"
)

// oracleSession is the concrete logminer.MiningSession backed by
// github.com/sijms/go-ora/v2. It owns the mining connection plus a cache of
// peer "flush" connections used on RAC clusters to force a log writer to
// archive before mining continues.
type oracleSession struct {
	db *sql.DB

	peersMu sync.Mutex
	peers   map[string]*sql.DB
	dialDSN func(host string) string
}

func newOracleSession(cfg *Config) (*oracleSession, error) {
	dsn := fmt.Sprintf("oracle://%s:%s@%s:%d/%s", cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.ServiceName)
	db, err := sql.Open("oracle", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open oracle session: %s", err)
	}

	return &oracleSession{
		db:    db,
		peers: make(map[string]*sql.DB),
		dialDSN: func(host string) string {
			return fmt.Sprintf("oracle://%s:%s@%s:%d/%s", cfg.Username, cfg.Password, host, cfg.Port, cfg.ServiceName)
		},
	}, nil
}

func (s *oracleSession) Close() error {
	s.peersMu.Lock()
	for host, peer := range s.peers {
		if err := peer.Close(); err != nil {
			logger.Warnf("failed closing peer flush connection to %s: %s", host, err)
		}
	}
	s.peersMu.Unlock()

	return s.db.Close()
}

func (s *oracleSession) CurrentScn(ctx context.Context) (logminer.SCN, error) {
	var scn uint64
	err := s.db.QueryRowContext(ctx, "SELECT CURRENT_SCN FROM V$DATABASE").Scan(&scn)
	if err != nil {
		return 0, err
	}
	return logminer.SCN(scn), nil
}

func (s *oracleSession) OldestOnlineFirstChange(ctx context.Context) (logminer.SCN, error) {
	var scn uint64
	err := s.db.QueryRowContext(ctx, "SELECT MIN(FIRST_CHANGE#) FROM V$LOG").Scan(&scn)
	if err != nil {
		return 0, err
	}
	return logminer.SCN(scn), nil
}

func (s *oracleSession) ListOnlineLogs(ctx context.Context) ([]logminer.LogFile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT lf.MEMBER, l.FIRST_CHANGE#, l.NEXT_CHANGE#
		FROM V$LOG l JOIN V$LOGFILE lf ON l.GROUP# = lf.GROUP#
		WHERE l.STATUS IN ('CURRENT', 'ACTIVE')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []logminer.LogFile
	for rows.Next() {
		var name string
		var first, next uint64
		if err := rows.Scan(&name, &first, &next); err != nil {
			return nil, err
		}
		files = append(files, logminer.LogFile{
			Name:        name,
			FirstChange: logminer.SCN(first),
			NextChange:  logminer.SCN(next),
		})
	}
	return files, rows.Err()
}

func (s *oracleSession) ListArchivedLogs(ctx context.Context, retention time.Duration, fromScn logminer.SCN) ([]logminer.LogFile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT NAME, FIRST_CHANGE#, NEXT_CHANGE#
		FROM V$ARCHIVED_LOG
		WHERE NEXT_CHANGE# >= :1 AND COMPLETION_TIME >= SYSDATE - :2 AND DELETED = 'NO'`,
		uint64(fromScn), retention.Hours()/24)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []logminer.LogFile
	for rows.Next() {
		var name string
		var first, next uint64
		if err := rows.Scan(&name, &first, &next); err != nil {
			return nil, err
		}
		files = append(files, logminer.LogFile{
			Name:        name,
			FirstChange: logminer.SCN(first),
			NextChange:  logminer.SCN(next),
			Archived:    true,
		})
	}
	return files, rows.Err()
}

func (s *oracleSession) RegisterFile(ctx context.Context, file string) error {
	_, err := s.db.ExecContext(ctx, `BEGIN DBMS_LOGMNR.ADD_LOGFILE(:1, DBMS_LOGMNR.ADDFILE); END;`, file)
	return err
}

func (s *oracleSession) DeregisterFile(ctx context.Context, file string) error {
	_, err := s.db.ExecContext(ctx, `BEGIN DBMS_LOGMNR.REMOVE_LOGFILE(:1); END;`, file)
	return err
}

func (s *oracleSession) BeginMining(ctx context.Context, startScn, endScn logminer.SCN, strategy logminer.MiningStrategy, continuous bool) error {
	options := "DBMS_LOGMNR.COMMITTED_DATA_ONLY"
	if strategy == logminer.StrategyCatalogInRedo {
		options += " + DBMS_LOGMNR.DICT_FROM_REDO_LOGS"
	} else {
		options += " + DBMS_LOGMNR.DICT_FROM_ONLINE_CATALOG"
	}
	if continuous {
		options += " + DBMS_LOGMNR.CONTINUOUS_MINE"
	}

	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf("BEGIN DBMS_LOGMNR.START_LOGMNR(STARTSCN => :1, ENDSCN => :2, OPTIONS => %s); END;", options),
		uint64(startScn), uint64(endScn))
	return err
}

func (s *oracleSession) EndMining(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "BEGIN DBMS_LOGMNR.END_LOGMNR; END;")
	return err
}

func (s *oracleSession) Fetch(ctx context.Context, startScn, endScn logminer.SCN, handle logminer.RowHandler) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT XID, SCN, OPERATION, SQL_REDO, TIMESTAMP
		FROM V$LOGMNR_CONTENTS
		WHERE SCN BETWEEN :1 AND :2
		ORDER BY SCN`, uint64(startScn), uint64(endScn))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var xid, operation, sqlRedo string
		var scn uint64
		var ts time.Time
		if err := rows.Scan(&xid, &scn, &operation, &sqlRedo, &ts); err != nil {
			return err
		}

		row := logminer.MiningRow{TxnID: xid, Scn: logminer.SCN(scn), ChangeTime: ts, Timestamp: ts}
		switch operation {
		case "COMMIT":
			row.Kind = logminer.RowCommit
		case "ROLLBACK":
			row.Kind = logminer.RowRollback
		default:
			row.Kind = logminer.RowDml
			row.SqlRedo = sqlRedo
		}

		if err := handle(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

// flushPeer forces the redo log writer on a RAC peer instance to archive
// its current log, ensuring a fully-mined window on multi-instance
// clusters. Connections are cached by host and retried with bounded
// exponential backoff instead of a fixed sleep.
func (s *oracleSession) flushPeer(ctx context.Context, host string) error {
	s.peersMu.Lock()
	peer, ok := s.peers[host]
	if !ok {
		db, err := sql.Open("oracle", s.dialDSN(host))
		if err != nil {
			s.peersMu.Unlock()
			return fmt.Errorf("failed to open peer flush connection to %s: %s", host, err)
		}
		s.peers[host] = db
		peer = db
	}
	s.peersMu.Unlock()

	backoff := 250 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := peer.ExecContext(ctx, "ALTER SYSTEM ARCHIVE LOG CURRENT")
		if err == nil {
			return nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 3*time.Second {
			backoff = 3 * time.Second
		}
	}
	return fmt.Errorf("failed flushing peer %s after retries: %s", host, lastErr)
}

// FlushPeers implements logminer.MiningSession, flushing every RAC peer
// host one after another and aggregating whichever fail rather than aborting on
// the first failure, since a slow or unreachable peer shouldn't stop the
// flush attempt on the others.
func (s *oracleSession) FlushPeers(ctx context.Context, hosts []string) error {
	if len(hosts) == 0 {
		return nil
	}

	functions := make([]func() error, len(hosts))
	for i, host := range hosts {
		host := host
		functions[i] = func() error {
			return s.flushPeer(ctx, host)
		}
	}
	return utils.ErrExecSequential(functions...)
}

// VerifyTableLogging implements logminer.MiningSession, checking that a
// monitored table has at least one supplemental log group so LogMiner can
// resolve its primary key on UPDATE/DELETE redo.
func (s *oracleSession) VerifyTableLogging(ctx context.Context, owner, name string) error {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ALL_LOG_GROUPS WHERE OWNER = :1 AND TABLE_NAME = :2 AND LOG_GROUP_TYPE IN ('ALL COLUMN LOGGING', 'PRIMARY KEY LOGGING')",
		owner, name).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to read log groups for %s.%s: %s", owner, name, err)
	}
	if count == 0 {
		return &logminer.SupplementalLoggingError{
			Detail: fmt.Sprintf("table %s.%s has no supplemental log group; run ALTER TABLE %s.%s ADD SUPPLEMENTAL LOG DATA (PRIMARY KEY) COLUMNS", owner, name, owner, name),
		}
	}
	return nil
}
