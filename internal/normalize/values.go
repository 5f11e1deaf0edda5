package normalize

import (
	"strings"

	"github.com/hyperjump/tablekit/internal/table"
)

// CompanionSuffix is appended to a text column's name to form its normalized companion.
const CompanionSuffix = "_norm"

// ValueOptions configures Values.
type ValueOptions struct {
	Trim             bool
	Case             Case
	DropEmptyRows    bool
	DropEmptyColumns bool
}

// DefaultValueOptions trims and lowercases, keeping empty rows and columns.
func DefaultValueOptions() ValueOptions {
	return ValueOptions{Trim: true, Case: CaseLower}
}

// Values returns a copy of t with a <column>_norm companion appended for every
// column holding text. Companion cells are trimmed and case-converted; empty
// strings and "nan" become null. Original columns are not modified.
// Empty rows and columns are dropped first when the options ask for it.
func Values(t *table.Table, opts ValueOptions) *table.Table {
	out := t.Clone()
	if opts.DropEmptyRows {
		out = table.DropEmptyRows(out)
	}
	if opts.DropEmptyColumns {
		out = table.DropEmptyColumns(out)
	}

	originals := len(out.Columns)
	for c := 0; c < originals; c++ {
		name := out.Columns[c]
		if !isTextColumn(out, c) {
			continue
		}
		companion := name + CompanionSuffix
		if out.ColumnIndex(companion) >= 0 {
			continue
		}
		values := make([]any, len(out.Rows))
		for r, row := range out.Rows {
			if c < len(row) {
				values[r] = normalizeValue(row[c], opts)
			}
		}
		out.AddColumn(companion, values)
	}
	return out
}

func isTextColumn(t *table.Table, c int) bool {
	for _, row := range t.Rows {
		if c >= len(row) {
			continue
		}
		if _, ok := row[c].(string); ok {
			return true
		}
	}
	return false
}

func normalizeValue(v any, opts ValueOptions) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if opts.Trim {
		s = strings.TrimSpace(s)
	}
	s = opts.Case.apply(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil
	}
	return s
}
