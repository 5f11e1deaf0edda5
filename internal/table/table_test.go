package table

import (
	"reflect"
	"testing"
)

func sample() *Table {
	t := New([]string{"A", "B"})
	t.AppendRow([]any{nil, nil})
	t.AppendRow([]any{"", "  "})
	t.AppendRow([]any{int64(1), int64(3)})
	t.AppendRow([]any{nil, nil})
	t.AppendRow([]any{int64(2), int64(4)})
	t.AppendRow([]any{nil, ""})
	return t
}

func TestSkipLeadingEmptyRows(t *testing.T) {
	got := SkipLeadingEmptyRows(sample())
	if rows, _ := got.Shape(); rows != 4 {
		t.Fatalf("rows = %d, want 4", rows)
	}
	if got.Rows[0][0] != int64(1) {
		t.Errorf("first row = %v", got.Rows[0])
	}
}

func TestSkipTrailingEmptyRows(t *testing.T) {
	got := SkipTrailingEmptyRows(sample())
	if rows, _ := got.Shape(); rows != 5 {
		t.Fatalf("rows = %d, want 5", rows)
	}
	if got.Rows[4][0] != int64(2) {
		t.Errorf("last row = %v", got.Rows[4])
	}
}

func TestSkipBothKeepsInteriorEmptyRows(t *testing.T) {
	got := SkipTrailingEmptyRows(SkipLeadingEmptyRows(sample()))
	if rows, _ := got.Shape(); rows != 3 {
		t.Fatalf("rows = %d, want 3", rows)
	}
	if !IsEmptyRow(got.Rows[1]) {
		t.Errorf("interior empty row should be kept, got %v", got.Rows[1])
	}
}

func TestSkipEmptyRows_allEmpty(t *testing.T) {
	tbl := New([]string{"A"})
	tbl.AppendRow([]any{nil})
	tbl.AppendRow([]any{""})
	if got := SkipLeadingEmptyRows(tbl); !got.Empty() {
		t.Errorf("leading: expected empty table, got %d rows", len(got.Rows))
	}
	if got := SkipTrailingEmptyRows(tbl); !got.Empty() {
		t.Errorf("trailing: expected empty table, got %d rows", len(got.Rows))
	}
}

func TestSkipLeadingEmptyRows_partialRowIsKept(t *testing.T) {
	tbl := New([]string{"A", "B"})
	tbl.AppendRow([]any{nil, nil})
	tbl.AppendRow([]any{"X", nil})
	tbl.AppendRow([]any{"John", "30"})
	got := SkipLeadingEmptyRows(tbl)
	if len(got.Rows) != 2 || got.Rows[0][0] != "X" {
		t.Errorf("got %v", got.Rows)
	}
}

func TestDropEmptyRowsAndColumns(t *testing.T) {
	tbl := New([]string{"A", "B", "C"})
	tbl.AppendRow([]any{"x", nil, ""})
	tbl.AppendRow([]any{nil, nil, nil})
	tbl.AppendRow([]any{"y", nil, " "})

	rows := DropEmptyRows(tbl)
	if len(rows.Rows) != 2 {
		t.Errorf("DropEmptyRows: got %d rows", len(rows.Rows))
	}
	cols := DropEmptyColumns(tbl)
	if !reflect.DeepEqual(cols.Columns, []string{"A"}) {
		t.Errorf("DropEmptyColumns: got %v", cols.Columns)
	}
	if len(cols.Rows) != 3 {
		t.Errorf("DropEmptyColumns should keep rows, got %d", len(cols.Rows))
	}
}

func TestDetectHeaderRow(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		max  int
		want int
	}{
		{"header first", [][]string{{"Name", "Age"}, {"John", "30"}}, 0, 0},
		{"after empty rows", [][]string{{"", ""}, {"", ""}, {"Name", "Age"}, {"John", "30"}}, 0, 2},
		{"after metadata", [][]string{{"Report Title"}, {"Generated: 2025-01-01"}, {"Name", "Age", "City"}, {"John", "30", "NYC"}}, 0, 2},
		{"sparse with limit", [][]string{{"", "", ""}, {"", "", ""}, {"Name", "Age", "City"}, {"John", "30", "NYC"}}, 4, 2},
		{"nothing qualifies", [][]string{{"", ""}}, 0, 0},
		{"no rows", nil, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectHeaderRow(tt.rows, tt.max); got != tt.want {
				t.Errorf("DetectHeaderRow() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInferTypes(t *testing.T) {
	tbl := New([]string{"i", "f", "b", "s", "e"})
	tbl.AppendRow([]any{"1", "1.5", "true", "a", ""})
	tbl.AppendRow([]any{" 2 ", "2", "False", "3", ""})
	tbl.AppendRow([]any{"", "", "", "nan", ""})
	InferTypes(tbl)

	want := [][]any{
		{int64(1), 1.5, true, "a", ""},
		{int64(2), 2.0, false, "3", ""},
		{nil, nil, nil, "nan", ""},
	}
	if !reflect.DeepEqual(tbl.Rows, want) {
		t.Errorf("rows = %#v", tbl.Rows)
	}
	kinds := []Kind{KindInt, KindFloat, KindBool, KindString, KindString}
	for c, k := range kinds {
		if got := ColumnKind(tbl, c); got != k {
			t.Errorf("ColumnKind(%d) = %s, want %s", c, got, k)
		}
	}
}

func TestChunks(t *testing.T) {
	tbl := New([]string{"n"})
	for i := 0; i < 5; i++ {
		tbl.AppendRow([]any{int64(i)})
	}
	chunks := tbl.Chunks(2)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	if len(chunks[2].Rows) != 1 || chunks[2].Rows[0][0] != int64(4) {
		t.Errorf("last chunk = %v", chunks[2].Rows)
	}
	if got := New([]string{"n"}).Chunks(2); len(got) != 0 {
		t.Errorf("empty table chunks = %d", len(got))
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{int64(42), "42"},
		{2.0, "2"},
		{1.25, "1.25"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
