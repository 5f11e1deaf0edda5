package reader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/tablekit/internal/suggest"
	"github.com/hyperjump/tablekit/internal/table"
	"github.com/hyperjump/tablekit/internal/textenc"
)

// ExcelReader reads worksheets of .xlsx and .xlsm workbooks. The first row
// of a sheet is the header unless ReadOptions.DetectHeader picks another.
type ExcelReader struct {
	logger *zap.Logger
}

// NewExcelReader returns a workbook reader.
func NewExcelReader(opts ...Option) *ExcelReader {
	s := newSettings(opts)
	return &ExcelReader{logger: s.logger}
}

// Extensions implements Reader. Legacy .xls is listed so it fails with a clear error.
func (r *ExcelReader) Extensions() []string {
	return []string{".xlsx", ".xlsm", ".xls"}
}

// Read implements Reader, reading the sheet named by opts.Sheet or at opts.SheetIndex.
func (r *ExcelReader) Read(path string, opts ReadOptions) (*Result, error) {
	f, err := r.open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet, err := resolveSheet(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t, err := r.readSheet(f, sheet, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Result{Path: path, Table: t}, nil
}

// SheetNames lists the sheets of a workbook in order.
func (r *ExcelReader) SheetNames(path string) ([]string, error) {
	f, err := r.open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// ReadSheets reads the named sheets, or every sheet when names is empty.
// Sheets that fail to read are logged and left out.
func (r *ExcelReader) ReadSheets(path string, names []string, opts ReadOptions) (map[string]*Result, error) {
	f, err := r.open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if len(names) == 0 {
		names = f.GetSheetList()
	}
	out := make(map[string]*Result, len(names))
	for _, name := range names {
		sheetOpts := opts
		sheetOpts.Sheet = name
		sheet, err := resolveSheet(f, sheetOpts)
		if err == nil {
			var t *table.Table
			t, err = r.readSheet(f, sheet, opts)
			if err == nil {
				out[name] = &Result{Path: path, Table: t}
				continue
			}
		}
		r.logger.Warn("skipping sheet", zap.String("path", path), zap.String("sheet", name), zap.Error(err))
	}
	return out, nil
}

func (r *ExcelReader) open(path string) (*excelize.File, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}
	if textenc.BaseExt(path) == ".xls" {
		return nil, fmt.Errorf("%w: %s is a legacy .xls workbook, save it as .xlsx", ErrUnsupportedStructure, path)
	}
	data, err := textenc.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return f, nil
}

func resolveSheet(f *excelize.File, opts ReadOptions) (string, error) {
	sheets := f.GetSheetList()
	if opts.Sheet != "" {
		for _, s := range sheets {
			if s == opts.Sheet {
				return s, nil
			}
		}
		return "", fmt.Errorf("%w: sheet %q not found%s (available: %s)",
			ErrUnsupportedStructure, opts.Sheet, suggest.Hint(opts.Sheet, sheets), strings.Join(sheets, ", "))
	}
	if opts.SheetIndex < 0 || opts.SheetIndex >= len(sheets) {
		return "", indexOutOfRange("sheet", opts.SheetIndex, len(sheets))
	}
	return sheets[opts.SheetIndex], nil
}

func (r *ExcelReader) readSheet(f *excelize.File, sheet string, opts ReadOptions) (*table.Table, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
	}
	if opts.SkipLeadingEmptyRows {
		for len(rows) > 0 && blank(rows[0]) {
			rows = rows[1:]
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", ErrEmptyTable, sheet)
	}
	h := 0
	if opts.DetectHeader {
		h = table.DetectHeaderRow(rows, table.DefaultHeaderScanRows)
	}
	r.logger.Debug("sheet read", zap.String("sheet", sheet), zap.Int("header_row", h), zap.Int("rows", len(rows)-h-1))

	t := buildTable(rows[h], rows[h+1:])
	if opts.InferTypes {
		table.InferTypes(t)
	}
	return finish(t, opts), nil
}
