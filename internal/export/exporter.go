// Package export writes tables to files under an output directory.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/tablekit/internal/suggest"
	"github.com/hyperjump/tablekit/internal/table"
)

// Export methods.
const (
	MethodCSV         = "csv"
	MethodExcel       = "excel"
	MethodExcelParts  = "excel_parts"
	MethodExcelSheets = "excel_sheets"
	MethodJSON        = "json"
	MethodJSONL       = "jsonl"
	MethodSQLite      = "sqlite"
	MethodParquet     = "parquet"
)

// DefaultMaxRows is the split size of excel_parts and excel_sheets.
const DefaultMaxRows = 10000

var (
	// ErrExportFailed wraps any failure to write the target.
	ErrExportFailed = errors.New("export failed")
	// ErrUnknownMethod is returned for methods not in Methods().
	ErrUnknownMethod = errors.New("unknown export method")
	// ErrMissingFilename is returned when Options.Filename is empty.
	ErrMissingFilename = errors.New("missing output filename")
)

// Options controls one export. Filename is relative to the output directory
// unless absolute.
type Options struct {
	Filename string
	// SheetName names the sheet of "excel" and prefixes the numbered sheets of "excel_sheets".
	SheetName string
	// MaxRows bounds the rows per file or sheet when splitting.
	MaxRows int
	// Delimiter separates csv fields; defaults to a comma.
	Delimiter string
	// TableName is the sqlite table; defaults to the file stem.
	TableName string
	// IfExists is the sqlite policy for an existing table: fail, replace or append.
	IfExists string
	// Indent pretty-prints json output.
	Indent bool
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger for export events.
func WithLogger(l *zap.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// Exporter writes tables in several formats into one output directory.
type Exporter struct {
	mu        sync.RWMutex
	outputDir string
	logger    *zap.Logger
}

// New returns an exporter writing under outputDir, creating it if needed.
func New(outputDir string, opts ...Option) (*Exporter, error) {
	e := &Exporter{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.SetOutputDir(outputDir); err != nil {
		return nil, err
	}
	return e, nil
}

// Methods lists the supported export methods.
func Methods() []string {
	return []string{MethodCSV, MethodExcel, MethodExcelParts, MethodExcelSheets, MethodJSON, MethodJSONL, MethodSQLite, MethodParquet}
}

// OutputDir returns the current output directory.
func (e *Exporter) OutputDir() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.outputDir
}

// SetOutputDir changes the output directory, creating it if needed.
func (e *Exporter) SetOutputDir(dir string) error {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	e.mu.Lock()
	e.outputDir = dir
	e.mu.Unlock()
	return nil
}

// Export writes t with the given method and returns the paths written.
func (e *Exporter) Export(t *table.Table, method string, opts Options) ([]string, error) {
	write, ok := writers[strings.ToLower(method)]
	if !ok {
		return nil, fmt.Errorf("%w: %q%s (supported: %s)",
			ErrUnknownMethod, method, suggest.Hint(method, Methods()), strings.Join(Methods(), ", "))
	}
	if strings.TrimSpace(opts.Filename) == "" {
		return nil, ErrMissingFilename
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}

	path := e.target(opts.Filename)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	paths, err := write(path, t, opts)
	if err != nil {
		e.logger.Warn("export failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %s to %s: %w", ErrExportFailed, method, path, err)
	}
	e.logger.Info("exported",
		zap.String("method", method),
		zap.Strings("paths", paths),
		zap.Int("rows", len(t.Rows)),
		zap.Int("columns", len(t.Columns)),
	)
	return paths, nil
}

func (e *Exporter) target(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(e.OutputDir(), name)
}

type writeFunc func(path string, t *table.Table, opts Options) ([]string, error)

var writers = map[string]writeFunc{
	MethodCSV:         single(writeCSV),
	MethodExcel:       single(writeExcel),
	MethodExcelParts:  writeExcelParts,
	MethodExcelSheets: single(writeExcelSheets),
	MethodJSON:        single(writeJSON),
	MethodJSONL:       single(writeJSONLines),
	MethodSQLite:      single(writeSQLite),
	MethodParquet:     single(writeParquet),
}

func single(fn func(path string, t *table.Table, opts Options) error) writeFunc {
	return func(path string, t *table.Table, opts Options) ([]string, error) {
		if err := fn(path, t, opts); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}
}

// createFile opens path for writing and hands it to fn, closing it on every path.
func createFile(path string, fn func(f *os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}
