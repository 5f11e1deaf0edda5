package reader

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{
		{"Name", "Age", "City"},
		{"Alice", 30, "Paris"},
		{"Bob", 41, "Oslo"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.NewSheet("Totals"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Totals", "A3", &[]any{"Metric", "Value"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Totals", "A4", &[]any{"count", 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewSheet("Blank"); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "book.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExcel_readFirstSheet(t *testing.T) {
	path := writeWorkbook(t, t.TempDir())
	res, err := NewExcelReader().Read(path, DefaultReadOptions())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(res.Table.Columns, []string{"Name", "Age", "City"}) {
		t.Errorf("columns = %q", res.Table.Columns)
	}
	want := [][]any{{"Alice", int64(30), "Paris"}, {"Bob", int64(41), "Oslo"}}
	if !reflect.DeepEqual(res.Table.Rows, want) {
		t.Errorf("rows = %#v", res.Table.Rows)
	}
}

func TestExcel_sheetByNameSkipsLeadingEmptyRows(t *testing.T) {
	path := writeWorkbook(t, t.TempDir())
	opts := DefaultReadOptions()
	opts.Sheet = "Totals"
	opts.NormalizeColumns = true
	res, err := NewExcelReader().Read(path, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Table.Columns, []string{"metric", "value"}) {
		t.Errorf("columns = %q", res.Table.Columns)
	}
	if len(res.Table.Rows) != 1 || res.Table.Rows[0][1] != int64(2) {
		t.Errorf("rows = %v", res.Table.Rows)
	}
}

func TestExcel_sheetErrors(t *testing.T) {
	path := writeWorkbook(t, t.TempDir())
	r := NewExcelReader()

	opts := DefaultReadOptions()
	opts.Sheet = "Missing"
	_, err := r.Read(path, opts)
	if !errors.Is(err, ErrUnsupportedStructure) || !strings.Contains(err.Error(), "Sheet1, Totals, Blank") {
		t.Errorf("unknown sheet: got %v", err)
	}

	opts.Sheet = "totls"
	_, err = r.Read(path, opts)
	if err == nil || !strings.Contains(err.Error(), "did you mean Totals?") {
		t.Errorf("misspelled sheet: got %v", err)
	}

	opts = DefaultReadOptions()
	opts.SheetIndex = 7
	_, err = r.Read(path, opts)
	if !errors.Is(err, ErrUnsupportedStructure) || !strings.Contains(err.Error(), "valid indices: 0-2") {
		t.Errorf("bad index: got %v", err)
	}

	opts.SheetIndex = 2
	_, err = r.Read(path, opts)
	if !errors.Is(err, ErrEmptyTable) {
		t.Errorf("blank sheet: expected ErrEmptyTable, got %v", err)
	}
}

func TestExcel_sheetNamesAndReadSheets(t *testing.T) {
	path := writeWorkbook(t, t.TempDir())
	r := NewExcelReader()

	names, err := r.SheetNames(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"Sheet1", "Totals", "Blank"}) {
		t.Errorf("SheetNames = %q", names)
	}

	all, err := r.ReadSheets(path, nil, DefaultReadOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all["Sheet1"] == nil || all["Totals"] == nil {
		t.Errorf("ReadSheets(all) = %v", all)
	}

	some, err := r.ReadSheets(path, []string{"Totals", "Nope"}, DefaultReadOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(some) != 1 || some["Totals"] == nil {
		t.Errorf("ReadSheets(Totals, Nope) = %v", some)
	}
}

func TestExcel_legacyAndMissing(t *testing.T) {
	dir := t.TempDir()
	xls := writeFile(t, dir, "old.xls", []byte{0xD0, 0xCF, 0x11, 0xE0})
	r := NewExcelReader()
	if _, err := r.Read(xls, DefaultReadOptions()); !errors.Is(err, ErrUnsupportedStructure) {
		t.Errorf("xls: expected ErrUnsupportedStructure, got %v", err)
	}
	if _, err := r.Read(filepath.Join(dir, "gone.xlsx"), DefaultReadOptions()); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: expected ErrNotFound, got %v", err)
	}
}
