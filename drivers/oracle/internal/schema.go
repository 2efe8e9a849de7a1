package driver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/flowbridge-data/oracle-logminer/pkg/logminer"
	"github.com/flowbridge-data/oracle-logminer/types"
)

const listTablesQuery = `
	SELECT OWNER, TABLE_NAME
	FROM ALL_TABLES
	WHERE OWNER NOT IN ('SYS', 'SYSTEM', 'OUTLN', 'DBSNMP', 'XDB', 'WMSYS', 'CTXSYS', 'ORDSYS')`

const listColumnsQuery = `
	SELECT COLUMN_NAME, DATA_TYPE, NULLABLE
	FROM ALL_TAB_COLUMNS
	WHERE OWNER = :1 AND TABLE_NAME = :2
	ORDER BY COLUMN_ID`

const listPrimaryKeyQuery = `
	SELECT cc.COLUMN_NAME
	FROM ALL_CONSTRAINTS c
	JOIN ALL_CONS_COLUMNS cc ON c.CONSTRAINT_NAME = cc.CONSTRAINT_NAME AND c.OWNER = cc.OWNER
	WHERE c.CONSTRAINT_TYPE = 'P' AND c.OWNER = :1 AND c.TABLE_NAME = :2
	ORDER BY cc.POSITION`

// OracleTable identifies a table in the data dictionary.
type OracleTable struct {
	Owner string
	Name  string
}

// dictionarySchema implements logminer.SchemaProvider against Oracle's
// ALL_TAB_COLUMNS/ALL_CONSTRAINTS dictionary views, and discovers streams
// the same way for Discover.
type dictionarySchema struct {
	db *sql.DB

	mu  sync.RWMutex
	pks map[OracleTable][]string
}

func newDictionarySchema(db *sql.DB) *dictionarySchema {
	return &dictionarySchema{db: db, pks: make(map[OracleTable][]string)}
}

func (s *dictionarySchema) ListMonitoredTables(ctx context.Context) ([]OracleTable, error) {
	rows, err := s.db.QueryContext(ctx, listTablesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []OracleTable
	for rows.Next() {
		var t OracleTable
		if err := rows.Scan(&t.Owner, &t.Name); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (s *dictionarySchema) populateStream(ctx context.Context, table OracleTable) (*types.Stream, error) {
	rows, err := s.db.QueryContext(ctx, listColumnsQuery, table.Owner, table.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stream := types.NewStream(table.Name, table.Owner)
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, err
		}
		stream.Schema.AddTypes(name, oracleTypeToDataType(dataType))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pk, err := s.primaryKeyColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	stream.WithPrimaryKey(pk...)
	stream.WithSyncMode(types.CDC)

	return stream, nil
}

func (s *dictionarySchema) primaryKeyColumns(ctx context.Context, table OracleTable) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, listPrimaryKeyQuery, table.Owner, table.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}

	s.mu.Lock()
	s.pks[table] = cols
	s.mu.Unlock()

	return cols, rows.Err()
}

// IsMonitored implements logminer.SchemaProvider. A table is monitored
// once its primary key has been cached by a prior Discover/primaryKeyColumns
// call.
func (s *dictionarySchema) IsMonitored(tableOwner, tableName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pks[OracleTable{Owner: tableOwner, Name: tableName}]
	return ok
}

// PrimaryKeyColumns implements logminer.SchemaProvider.
func (s *dictionarySchema) PrimaryKeyColumns(tableOwner, tableName string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pks[OracleTable{Owner: tableOwner, Name: tableName}]
}

// MonitoredTables implements logminer.SchemaProvider, listing every table
// cached by a prior Discover/RunChangeStream call.
func (s *dictionarySchema) MonitoredTables() []logminer.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tables := make([]logminer.Table, 0, len(s.pks))
	for table := range s.pks {
		tables = append(tables, logminer.Table{Owner: table.Owner, Name: table.Name})
	}
	return tables
}

func oracleTypeToDataType(dataType string) types.DataType {
	base := strings.ToUpper(strings.TrimSpace(strings.Split(dataType, "(")[0]))
	switch base {
	case "NUMBER", "INTEGER", "FLOAT", "BINARY_FLOAT", "BINARY_DOUBLE":
		return types.Float64
	case "DATE", "TIMESTAMP":
		return types.Timestamp
	case "CLOB", "VARCHAR2", "NVARCHAR2", "CHAR", "NCHAR", "LONG":
		return types.String
	default:
		return types.String
	}
}

// verifySupplementalLogging ensures the database has at minimum
// supplemental logging enabled; without it LogMiner cannot resolve primary
// keys for UPDATE/DELETE redo.
func verifySupplementalLogging(ctx context.Context, db *sql.DB) error {
	var suppLogMin string
	err := db.QueryRowContext(ctx, "SELECT SUPPLEMENTAL_LOG_DATA_MIN FROM V$DATABASE").Scan(&suppLogMin)
	if err != nil {
		return fmt.Errorf("failed to read supplemental logging status: %s", err)
	}
	if suppLogMin == "NO" {
		return fmt.Errorf("supplemental logging is not enabled; run ALTER DATABASE ADD SUPPLEMENTAL LOG DATA")
	}
	return nil
}
