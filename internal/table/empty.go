package table

import "strings"

// DefaultHeaderScanRows is how many rows DetectHeaderRow inspects when maxRows is not positive.
const DefaultHeaderScanRows = 10

// IsEmpty reports whether a cell counts as empty: null or a whitespace-only string.
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	default:
		return false
	}
}

// IsEmptyRow reports whether every cell in row is empty.
func IsEmptyRow(row []any) bool {
	for _, v := range row {
		if !IsEmpty(v) {
			return false
		}
	}
	return true
}

// SkipLeadingEmptyRows removes fully-empty rows from the start of the table.
func SkipLeadingEmptyRows(t *Table) *Table {
	start := 0
	for start < len(t.Rows) && IsEmptyRow(t.Rows[start]) {
		start++
	}
	return t.Slice(start, len(t.Rows))
}

// SkipTrailingEmptyRows removes fully-empty rows from the end of the table.
func SkipTrailingEmptyRows(t *Table) *Table {
	end := len(t.Rows)
	for end > 0 && IsEmptyRow(t.Rows[end-1]) {
		end--
	}
	return t.Slice(0, end)
}

// DropEmptyRows removes every fully-empty row, wherever it is.
func DropEmptyRows(t *Table) *Table {
	out := New(t.Columns)
	for _, row := range t.Rows {
		if !IsEmptyRow(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// DropEmptyColumns removes columns whose values are all empty.
// A table without rows keeps its columns.
func DropEmptyColumns(t *Table) *Table {
	if len(t.Rows) == 0 {
		return t.Clone()
	}
	var keep []int
	for c := range t.Columns {
		for _, row := range t.Rows {
			if c < len(row) && !IsEmpty(row[c]) {
				keep = append(keep, c)
				break
			}
		}
	}
	cols := make([]string, len(keep))
	for i, c := range keep {
		cols[i] = t.Columns[c]
	}
	out := New(cols)
	out.Rows = make([][]any, len(t.Rows))
	for r, row := range t.Rows {
		nr := make([]any, len(keep))
		for i, c := range keep {
			if c < len(row) {
				nr[i] = row[c]
			}
		}
		out.Rows[r] = nr
	}
	return out
}

// DetectHeaderRow returns the index of the first row, among the first maxRows,
// whose non-empty cells cover at least half of the widest row scanned.
// Returns 0 when no row qualifies.
func DetectHeaderRow(rows [][]string, maxRows int) int {
	if maxRows <= 0 {
		maxRows = DefaultHeaderScanRows
	}
	if len(rows) < maxRows {
		maxRows = len(rows)
	}
	width := 0
	for _, row := range rows[:maxRows] {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return 0
	}
	for i, row := range rows[:maxRows] {
		filled := 0
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				filled++
			}
		}
		if filled > 0 && filled*2 >= width {
			return i
		}
	}
	return 0
}
