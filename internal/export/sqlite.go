package export

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/tablekit/internal/table"
	"github.com/hyperjump/tablekit/internal/textenc"
)

// Policies for an existing sqlite table.
const (
	IfExistsFail    = "fail"
	IfExistsReplace = "replace"
	IfExistsAppend  = "append"
)

// ErrTableExists is returned by the sqlite export when the table exists and the policy is fail.
var ErrTableExists = errors.New("table already exists")

// writeSQLite opens or creates the database at path and stores t in one table.
func writeSQLite(path string, t *table.Table, opts Options) error {
	if len(t.Columns) == 0 {
		return errors.New("table has no columns")
	}
	name := opts.TableName
	if name == "" {
		name = textenc.Stem(path)
	}
	policy := strings.ToLower(opts.IfExists)
	if policy == "" {
		policy = IfExistsFail
	}
	switch policy {
	case IfExistsFail, IfExistsReplace, IfExistsAppend:
	default:
		return fmt.Errorf("invalid if-exists policy %q (fail, replace, append)", opts.IfExists)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL: %w", err)
	}

	exists, err := tableExists(db, name)
	if err != nil {
		return err
	}
	if exists {
		switch policy {
		case IfExistsFail:
			return fmt.Errorf("%w: %s", ErrTableExists, name)
		case IfExistsReplace:
			if _, err := db.Exec("DROP TABLE " + quoteIdent(name)); err != nil {
				return fmt.Errorf("failed to drop table: %w", err)
			}
			exists = false
		}
	}
	if !exists {
		if _, err := db.Exec(createTableSQL(name, t)); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return insertRows(db, name, t)
}

func tableExists(db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func createTableSQL(name string, t *table.Table) string {
	defs := make([]string, len(t.Columns))
	for c, col := range t.Columns {
		defs[c] = quoteIdent(col) + " " + sqlType(table.ColumnKind(t, c))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
}

func sqlType(k table.Kind) string {
	switch k {
	case table.KindInt, table.KindBool:
		return "INTEGER"
	case table.KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

func insertRows(db *sql.DB, name string, t *table.Table) error {
	cols := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quoteIdent(c)
		marks[i] = "?"
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(name), strings.Join(cols, ", "), strings.Join(marks, ", "))

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(t.Columns))
	for r, row := range t.Rows {
		for i := range args {
			args[i] = nil
			if i < len(row) {
				args[i] = sqlValue(row[i])
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", r, err)
		}
	}
	return tx.Commit()
}

func sqlValue(v any) any {
	switch x := v.(type) {
	case nil, string, int64, float64, bool:
		return x
	case int:
		return int64(x)
	default:
		return table.FormatValue(x)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
