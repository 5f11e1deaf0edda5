package normalize

import (
	"reflect"
	"testing"

	"github.com/hyperjump/tablekit/internal/table"
)

func TestColumns(t *testing.T) {
	tests := []struct {
		name  string
		in    []string
		opts  ColumnOptions
		want  []string
	}{
		{"padded header", []string{"  Name ", " Status"}, DefaultColumnOptions(), []string{"name", "status"}},
		{"duplicates and empty", []string{"x", "x", ""}, DefaultColumnOptions(), []string{"x", "x_1", "unnamed"}},
		{"three repeats", []string{"name", "Name", "NAME"}, DefaultColumnOptions(), []string{"name", "name_1", "name_2"}},
		{"accents", []string{"Café", "Ñandú"}, DefaultColumnOptions(), []string{"cafe", "nandu"}},
		{"special characters", []string{"Unit Price ($)", "--id--", "a  b\tc"}, DefaultColumnOptions(), []string{"unit_price", "id", "a_b_c"}},
		{"suffix already taken", []string{"x_1", "x", "x"}, DefaultColumnOptions(), []string{"x_1", "x", "x_2"}},
		{"upper", []string{"first name", ""}, ColumnOptions{Case: CaseUpper, Placeholder: "unnamed"}, []string{"FIRST_NAME", "UNNAMED"}},
		{"unchanged case", []string{"First Name"}, ColumnOptions{Case: CaseNone}, []string{"First_Name"}},
		{"custom placeholder", []string{"", "  ", "?"}, ColumnOptions{Case: CaseLower, Placeholder: "col"}, []string{"col", "col_1", "col_2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Columns(tt.in, tt.opts)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Columns(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestColumns_uniqueNonEmptyIdempotent(t *testing.T) {
	inputs := [][]string{
		{"a", "a", "a_1", "", "", "A"},
		{"  Name , Status", "İstanbul", "straße", "x__y", "_"},
		{"1", "1", "1_1", "Über", "uber"},
		{},
	}
	for _, opts := range []ColumnOptions{
		DefaultColumnOptions(),
		{Case: CaseUpper, Placeholder: "unnamed"},
		{Case: CaseNone, Placeholder: "unnamed"},
	} {
		for _, in := range inputs {
			got := Columns(in, opts)
			if len(got) != len(in) {
				t.Fatalf("length %d, want %d", len(got), len(in))
			}
			seen := map[string]bool{}
			for _, n := range got {
				if n == "" {
					t.Errorf("empty name in %q", got)
				}
				if seen[n] {
					t.Errorf("duplicate %q in %q", n, got)
				}
				seen[n] = true
			}
			if again := Columns(got, opts); !reflect.DeepEqual(again, got) {
				t.Errorf("not idempotent (%s): %q -> %q", opts.Case, got, again)
			}
		}
	}
}

func TestMapping(t *testing.T) {
	m := Mapping([]string{" A ", "b"}, DefaultColumnOptions())
	if m[" A "] != "a" || m["b"] != "b" {
		t.Errorf("got %v", m)
	}
}

func TestParseCase(t *testing.T) {
	for in, want := range map[string]Case{"": CaseLower, "LOWER": CaseLower, "upper": CaseUpper, "none": CaseNone} {
		got, err := ParseCase(in)
		if err != nil || got != want {
			t.Errorf("ParseCase(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseCase("title"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestValues(t *testing.T) {
	tbl := table.New([]string{"name", "age", "status"})
	tbl.AppendRow([]any{"  Alice ", int64(30), "NaN"})
	tbl.AppendRow([]any{"BOB", int64(41), ""})
	tbl.AppendRow([]any{nil, nil, "Active"})

	got := Values(tbl, DefaultValueOptions())

	wantCols := []string{"name", "age", "status", "name_norm", "status_norm"}
	if !reflect.DeepEqual(got.Columns, wantCols) {
		t.Fatalf("columns = %q, want %q", got.Columns, wantCols)
	}
	if len(got.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(got.Rows))
	}
	wantRows := [][]any{
		{"  Alice ", int64(30), "NaN", "alice", nil},
		{"BOB", int64(41), "", "bob", nil},
		{nil, nil, "Active", nil, "active"},
	}
	if !reflect.DeepEqual(got.Rows, wantRows) {
		t.Errorf("rows = %#v", got.Rows)
	}
	if len(tbl.Columns) != 3 || tbl.Rows[0][0] != "  Alice " {
		t.Error("input table was modified")
	}
}

func TestValues_whitespaceKeptWithoutTrim(t *testing.T) {
	tbl := table.New([]string{"a"})
	tbl.AppendRow([]any{"  "})
	tbl.AppendRow([]any{" nan "})
	tbl.AppendRow([]any{"nan"})
	tbl.AppendRow([]any{""})

	got := Values(tbl, ValueOptions{Trim: false, Case: CaseNone})
	want := []any{"  ", " nan ", nil, nil}
	for i, w := range want {
		if got.Rows[i][1] != w {
			t.Errorf("row %d: a_norm = %#v, want %#v", i, got.Rows[i][1], w)
		}
	}

	got = Values(tbl, ValueOptions{Trim: true, Case: CaseNone})
	for i := range want {
		if got.Rows[i][1] != nil {
			t.Errorf("trimmed row %d: a_norm = %#v, want nil", i, got.Rows[i][1])
		}
	}
}

func TestValues_dropEmpty(t *testing.T) {
	tbl := table.New([]string{"a", "b"})
	tbl.AppendRow([]any{"x", nil})
	tbl.AppendRow([]any{nil, ""})
	tbl.AppendRow([]any{"y", nil})

	got := Values(tbl, ValueOptions{Trim: true, Case: CaseNone, DropEmptyRows: true, DropEmptyColumns: true})
	if !reflect.DeepEqual(got.Columns, []string{"a", "a_norm"}) {
		t.Fatalf("columns = %q", got.Columns)
	}
	if len(got.Rows) != 2 || got.Rows[1][1] != "y" {
		t.Errorf("rows = %v", got.Rows)
	}
}

func TestValues_existingCompanionKept(t *testing.T) {
	tbl := table.New([]string{"a", "a_norm"})
	tbl.AppendRow([]any{"X", "kept"})
	got := Values(tbl, DefaultValueOptions())
	want := []string{"a", "a_norm", "a_norm_norm"}
	if !reflect.DeepEqual(got.Columns, want) {
		t.Errorf("columns = %q, want %q", got.Columns, want)
	}
	if got.Rows[0][1] != "kept" {
		t.Errorf("existing column overwritten: %v", got.Rows[0])
	}
}
