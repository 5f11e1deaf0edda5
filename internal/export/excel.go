package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/tablekit/internal/table"
)

const defaultSheet = "Sheet1"

type sheetData struct {
	name  string
	table *table.Table
}

func writeExcel(path string, t *table.Table, opts Options) error {
	name := opts.SheetName
	if name == "" {
		name = defaultSheet
	}
	return writeWorkbook(path, []sheetData{{name: name, table: t}})
}

// writeExcelParts splits t into workbooks of at most opts.MaxRows rows named
// <stem>_part<N>.xlsx next to path.
func writeExcelParts(path string, t *table.Table, opts Options) ([]string, error) {
	chunks := t.Chunks(opts.MaxRows)
	if len(chunks) == 0 {
		chunks = []*table.Table{t}
	}
	dir := filepath.Dir(path)
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	paths := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		p := filepath.Join(dir, fmt.Sprintf("%s_part%d.xlsx", stem, i+1))
		if err := writeExcel(p, chunk, opts); err != nil {
			return paths, fmt.Errorf("part %d: %w", i+1, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// writeExcelSheets writes one workbook with a sheet per opts.MaxRows rows.
func writeExcelSheets(path string, t *table.Table, opts Options) error {
	prefix := opts.SheetName
	if prefix == "" {
		prefix = "Sheet"
	}
	chunks := t.Chunks(opts.MaxRows)
	if len(chunks) == 0 {
		chunks = []*table.Table{t}
	}
	sheets := make([]sheetData, len(chunks))
	for i, chunk := range chunks {
		sheets[i] = sheetData{name: fmt.Sprintf("%s%d", prefix, i+1), table: chunk}
	}
	return writeWorkbook(path, sheets)
}

func writeWorkbook(path string, sheets []sheetData) error {
	f := excelize.NewFile()
	defer f.Close()
	for i, s := range sheets {
		if i == 0 {
			if s.name != defaultSheet {
				if err := f.SetSheetName(defaultSheet, s.name); err != nil {
					return err
				}
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return err
		}
		if err := writeSheet(f, s.name, s.table); err != nil {
			return fmt.Errorf("sheet %s: %w", s.name, err)
		}
	}
	return f.SaveAs(path)
}

func writeSheet(f *excelize.File, sheet string, t *table.Table) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for r, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(t.Columns))
		for i := range values {
			if i < len(row) {
				values[i] = row[i]
			}
		}
		if err := sw.SetRow(cell, values); err != nil {
			return err
		}
	}
	return sw.Flush()
}
