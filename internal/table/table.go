// Package table provides the in-memory tabular result shared by every reader and exporter.
package table

import (
	"fmt"
	"strconv"
)

// Table is an ordered set of named columns stored row-major.
// Cells hold nil (null), string, int64, float64 or bool.
type Table struct {
	Columns []string
	Rows    [][]any
}

// New returns an empty table with the given column names.
func New(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Shape returns the number of rows and columns.
func (t *Table) Shape() (rows, cols int) {
	return len(t.Rows), len(t.Columns)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the values of the named column.
func (t *Table) Column(name string) ([]any, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("column %q not found", name)
	}
	return t.columnAt(idx), nil
}

func (t *Table) columnAt(idx int) []any {
	out := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out
}

// AppendRow adds a row. Short rows are padded with nulls; long rows are truncated.
func (t *Table) AppendRow(values []any) {
	row := make([]any, len(t.Columns))
	copy(row, values)
	t.Rows = append(t.Rows, row)
}

// AddColumn appends a column with the given values. Missing values are null.
func (t *Table) AddColumn(name string, values []any) {
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		var v any
		if i < len(values) {
			v = values[i]
		}
		t.Rows[i] = append(t.Rows[i], v)
	}
}

// Clone returns a deep copy of the table structure. Cell values are scalars and are shared.
func (t *Table) Clone() *Table {
	out := New(t.Columns)
	out.Rows = make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		r := make([]any, len(row))
		copy(r, row)
		out.Rows[i] = r
	}
	return out
}

// Slice returns a table holding rows [start, end). Bounds are clamped.
func (t *Table) Slice(start, end int) *Table {
	if start < 0 {
		start = 0
	}
	if end > len(t.Rows) {
		end = len(t.Rows)
	}
	out := New(t.Columns)
	if start >= end {
		return out
	}
	out.Rows = t.Rows[start:end]
	return out
}

// Chunks splits the table into consecutive slices of at most size rows.
// An empty table yields no chunks.
func (t *Table) Chunks(size int) []*Table {
	if size <= 0 {
		size = len(t.Rows)
	}
	var out []*Table
	for start := 0; start < len(t.Rows); start += size {
		out = append(out, t.Slice(start, start+size))
	}
	return out
}

// FormatValue renders a cell as text. Nulls render as the empty string.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
