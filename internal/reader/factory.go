package reader

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/tablekit/internal/textenc"
)

// Constructor builds a reader with the factory's options.
type Constructor func(opts ...Option) Reader

var builtin = map[string]Constructor{
	".csv":     func(opts ...Option) Reader { return NewDelimitedReader(opts...) },
	".txt":     func(opts ...Option) Reader { return NewDelimitedReader(opts...) },
	".dat":     func(opts ...Option) Reader { return NewDelimitedReader(opts...) },
	".tsv":     func(opts ...Option) Reader { return NewTSVReader(opts...) },
	".pipe":    func(opts ...Option) Reader { return NewPipeReader(opts...) },
	".xlsx":    func(opts ...Option) Reader { return NewExcelReader(opts...) },
	".xlsm":    func(opts ...Option) Reader { return NewExcelReader(opts...) },
	".xls":     func(opts ...Option) Reader { return NewExcelReader(opts...) },
	".json":    func(opts ...Option) Reader { return NewJSONReader(opts...) },
	".jsonl":   func(opts ...Option) Reader { return NewJSONReader(opts...) },
	".ndjson":  func(opts ...Option) Reader { return NewJSONReader(opts...) },
	".html":    func(opts ...Option) Reader { return NewHTMLReader(opts...) },
	".htm":     func(opts ...Option) Reader { return NewHTMLReader(opts...) },
	".parquet": func(opts ...Option) Reader { return NewParquetReader(opts...) },
}

// Factory picks a reader by file extension. Compression suffixes (.gz, .zst,
// .xz) are looked through, so "data.csv.gz" uses the .csv reader.
type Factory struct {
	opts   []Option
	logger *zap.Logger

	mu      sync.RWMutex
	readers map[string]Constructor
}

// NewFactory returns a factory with the built-in readers registered.
// opts are passed to every reader it constructs.
func NewFactory(opts ...Option) *Factory {
	s := newSettings(opts)
	f := &Factory{opts: opts, logger: s.logger, readers: make(map[string]Constructor, len(builtin))}
	for ext, c := range builtin {
		f.readers[ext] = c
	}
	return f
}

// Register maps ext to a reader constructor, replacing any existing mapping.
func (f *Factory) Register(ext string, c Constructor) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readers[ext] = c
}

// SupportedExtensions returns the registered extensions, sorted.
func (f *Factory) SupportedExtensions() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	exts := make([]string, 0, len(f.readers))
	for ext := range f.readers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether a reader is registered for path.
func (f *Factory) Supports(path string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.readers[textenc.BaseExt(path)]
	return ok
}

// ForPath returns a new reader for path's extension.
func (f *Factory) ForPath(path string) (Reader, error) {
	ext := textenc.BaseExt(path)
	f.mu.RLock()
	c, ok := f.readers[ext]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedExtension, ext, strings.Join(f.SupportedExtensions(), ", "))
	}
	return c(f.opts...), nil
}

// Read reads path with the reader registered for its extension.
func (f *Factory) Read(path string, opts ReadOptions) (*Result, error) {
	r, err := f.ForPath(path)
	if err != nil {
		return nil, err
	}
	return r.Read(path, opts)
}

// ReadDir reads every supported file in dir, one at a time, with the matching
// reader. Files with other extensions are ignored; failures are collected.
func (f *Factory) ReadDir(dir string, opts ReadOptions) (*Batch, error) {
	batch, err := readDir(dir, opts, func(path string) (Reader, bool) {
		r, err := f.ForPath(path)
		return r, err == nil
	})
	if err != nil {
		return nil, err
	}
	for _, fail := range batch.Failures {
		f.logger.Warn("batch read failed", zap.String("path", fail.Path), zap.Error(fail.Err))
	}
	f.logger.Debug("batch read", zap.String("dir", dir), zap.Int("read", batch.Len()), zap.Int("failed", len(batch.Failures)))
	return batch, nil
}
