package driver

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/flowbridge-data/oracle-logminer/pkg/logminer"
	"github.com/flowbridge-data/oracle-logminer/types"
	"github.com/flowbridge-data/oracle-logminer/utils"
)

// insertRe/updateRe/deleteRe pull the column=value assignments out of the
// SQL_REDO text LogMiner reconstructs. LogMiner always quotes identifiers
// and renders values as literals, so a handful of anchored regexes is
// enough without a full SQL parser.
var (
	insertRe = regexp.MustCompile(`(?is)^insert\s+into\s+"?([\w$]+)"?\."?([\w$]+)"?\s*\(([^)]*)\)\s*values\s*\(([^)]*)\)`)
	updateRe = regexp.MustCompile(`(?is)^update\s+"?([\w$]+)"?\."?([\w$]+)"?\s*set\s+(.*?)\s+where\s+(.*)$`)
	deleteRe = regexp.MustCompile(`(?is)^delete\s+from\s+"?([\w$]+)"?\."?([\w$]+)"?\s*where\s+(.*)$`)

	assignmentRe = regexp.MustCompile(`"?([\w$]+)"?\s*=\s*('(?:[^']|'')*'|NULL)`)
)

// regexDmlParser is the DmlParser collaborator: it turns LogMiner's
// reconstructed SQL_REDO text plus a schema lookup into a dispatchRecord
// ready for routing to the owning stream's writer thread.
type regexDmlParser struct {
	schema logminer.SchemaProvider
}

func (p *regexDmlParser) Parse(tableOwner, tableName, sqlRedo string, changeTime time.Time) (any, error) {
	sqlRedo = strings.TrimSpace(sqlRedo)

	switch {
	case insertRe.MatchString(sqlRedo):
		return p.parseInsert(sqlRedo, changeTime)
	case updateRe.MatchString(sqlRedo):
		return p.parseUpdate(sqlRedo, changeTime)
	case deleteRe.MatchString(sqlRedo):
		return p.parseDelete(sqlRedo, changeTime)
	default:
		return nil, fmt.Errorf("unrecognized redo statement: %s", truncate(sqlRedo, 200))
	}
}

func (p *regexDmlParser) parseInsert(sqlRedo string, changeTime time.Time) (dispatchRecord, error) {
	m := insertRe.FindStringSubmatch(sqlRedo)
	cols := splitCSV(m[3])
	vals := splitCSV(m[4])
	if len(cols) != len(vals) {
		return dispatchRecord{}, fmt.Errorf("column/value count mismatch in insert redo")
	}

	data := make(map[string]any, len(cols))
	for i, col := range cols {
		data[unquote(col)] = parseLiteral(vals[i])
	}

	owner, table := unquote(m[1]), unquote(m[2])
	pk := p.schema.PrimaryKeyColumns(owner, table)
	record := types.CreateRawRecord(utils.GetKeysHash(data, pk...), data, "c", changeTime)
	return dispatchRecord{tableOwner: owner, tableName: table, record: record}, nil
}

func (p *regexDmlParser) parseUpdate(sqlRedo string, changeTime time.Time) (dispatchRecord, error) {
	m := updateRe.FindStringSubmatch(sqlRedo)
	data := make(map[string]any)
	for _, a := range assignmentRe.FindAllStringSubmatch(m[3], -1) {
		data[unquote(a[1])] = parseLiteral(a[2])
	}
	for _, a := range assignmentRe.FindAllStringSubmatch(m[4], -1) {
		if _, exists := data[unquote(a[1])]; !exists {
			data[unquote(a[1])] = parseLiteral(a[2])
		}
	}

	owner, table := unquote(m[1]), unquote(m[2])
	pk := p.schema.PrimaryKeyColumns(owner, table)
	record := types.CreateRawRecord(utils.GetKeysHash(data, pk...), data, "u", changeTime)
	return dispatchRecord{tableOwner: owner, tableName: table, record: record}, nil
}

func (p *regexDmlParser) parseDelete(sqlRedo string, changeTime time.Time) (dispatchRecord, error) {
	m := deleteRe.FindStringSubmatch(sqlRedo)
	data := make(map[string]any)
	for _, a := range assignmentRe.FindAllStringSubmatch(m[3], -1) {
		data[unquote(a[1])] = parseLiteral(a[2])
	}

	owner, table := unquote(m[1]), unquote(m[2])
	pk := p.schema.PrimaryKeyColumns(owner, table)
	record := types.CreateRawRecord(utils.GetKeysHash(data, pk...), data, "d", changeTime)
	return dispatchRecord{tableOwner: owner, tableName: table, record: record}, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

func parseLiteral(v string) any {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "NULL") {
		return nil
	}
	if strings.HasPrefix(v, "'") && strings.HasSuffix(v, "'") {
		return strings.ReplaceAll(v[1:len(v)-1], "''", "'")
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
