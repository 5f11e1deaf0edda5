package cli

import (
	"slices"

	"go.uber.org/zap"

	"github.com/hyperjump/tablekit/internal/config"
	"github.com/hyperjump/tablekit/internal/export"
	"github.com/hyperjump/tablekit/internal/normalize"
	"github.com/hyperjump/tablekit/internal/reader"
)

// ReadOptions maps the reader and normalize config sections onto reader options.
func ReadOptions(cfg *config.Config) (reader.ReadOptions, error) {
	c, err := normalize.ParseCase(cfg.Normalize.Case)
	if err != nil {
		return reader.ReadOptions{}, err
	}
	opts := reader.DefaultReadOptions()
	opts.NormalizeColumns = config.BoolOr(cfg.Normalize.Columns, true)
	opts.Columns = normalize.ColumnOptions{Case: c, Placeholder: cfg.Normalize.EmptyColumnName}
	opts.Normalize = cfg.Normalize.Values
	opts.Values = normalize.ValueOptions{
		Trim:             config.BoolOr(cfg.Normalize.Trim, true),
		Case:             c,
		DropEmptyRows:    cfg.Normalize.DropEmptyRows,
		DropEmptyColumns: cfg.Normalize.DropEmptyColumns,
	}
	opts.SkipLeadingEmptyRows = config.BoolOr(cfg.Reader.SkipLeadingEmptyRows, true)
	opts.SkipTrailingEmptyRows = config.BoolOr(cfg.Reader.SkipTrailingEmptyRows, true)
	opts.CaptureBadLines = cfg.Reader.CaptureBadLines
	opts.DetectHeader = cfg.Reader.DetectHeader
	opts.SkipRows = cfg.Reader.SkipRows
	return opts, nil
}

// ReaderOptions returns the construction options shared by every reader.
// The default delimiter list is not passed on, so the TSV and pipe readers
// keep trying their own delimiter first.
func ReaderOptions(cfg *config.Config, logger *zap.Logger) []reader.Option {
	opts := []reader.Option{reader.WithLogger(logger)}
	if len(cfg.Reader.Encodings) > 0 {
		opts = append(opts, reader.WithEncodings(cfg.Reader.Encodings...))
	}
	if len(cfg.Reader.Delimiters) > 0 && !slices.Equal(cfg.Reader.Delimiters, reader.DefaultDelimiters) {
		opts = append(opts, reader.WithDelimiters(cfg.Reader.Delimiters...))
	}
	return opts
}

// ExportOptions maps the export config section onto export options for filename.
func ExportOptions(cfg *config.Config, filename string) export.Options {
	return export.Options{
		Filename:  filename,
		SheetName: cfg.Export.SheetName,
		MaxRows:   cfg.Export.MaxRows,
		IfExists:  cfg.Export.IfExists,
	}
}

// OutputName returns the file name an export method writes for a source stem.
func OutputName(stem, method string) string {
	switch method {
	case export.MethodExcel, export.MethodExcelParts, export.MethodExcelSheets:
		return stem + ".xlsx"
	case export.MethodSQLite:
		return stem + ".db"
	}
	return stem + "." + method
}
