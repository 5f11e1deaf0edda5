// Package reader loads tabular files into table.Table values. Delimited text
// is read with encoding and delimiter detection; workbooks, JSON, HTML and
// Parquet files are read with their own readers behind a common interface.
package reader

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hyperjump/tablekit/internal/normalize"
	"github.com/hyperjump/tablekit/internal/table"
	"github.com/hyperjump/tablekit/internal/textenc"
)

// Reader reads one file into a table.
type Reader interface {
	Read(path string, opts ReadOptions) (*Result, error)
	// Extensions lists the lowercase file extensions the reader handles.
	Extensions() []string
}

// Detection records the encoding and delimiter that parsed a delimited file.
type Detection struct {
	Encoding  string `json:"encoding"`
	Delimiter string `json:"delimiter"`
}

// BadLine is a malformed row left out of the table.
type BadLine struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// Result is the outcome of a successful read.
type Result struct {
	Path  string
	Table *table.Table
	// Detection is set by readers that detect the text layout.
	Detection *Detection
	BadLines  []BadLine
}

// finish applies the shared post-processing in order: empty-row trimming,
// column normalization, value normalization. Without column normalization,
// repeated or blank raw names are made unique.
func finish(t *table.Table, opts ReadOptions) *table.Table {
	if opts.SkipLeadingEmptyRows {
		t = table.SkipLeadingEmptyRows(t)
	}
	if opts.SkipTrailingEmptyRows {
		t = table.SkipTrailingEmptyRows(t)
	}
	if opts.NormalizeColumns {
		t.Columns = normalize.Columns(t.Columns, opts.Columns)
	} else {
		t.Columns = uniqueNames(t.Columns)
	}
	if opts.Normalize {
		t = normalize.Values(t, opts.Values)
	}
	return t
}

// uniqueNames names blank columns "Unnamed: <i>" and suffixes repeats with ".1", ".2", ...
func uniqueNames(names []string) []string {
	out := make([]string, len(names))
	seen := make(map[string]bool, len(names))
	counters := make(map[string]int)
	for i, name := range names {
		base := name
		if base == "" {
			base = "Unnamed: " + strconv.Itoa(i)
		}
		candidate := base
		for seen[candidate] {
			counters[base]++
			candidate = base + "." + strconv.Itoa(counters[base])
		}
		seen[candidate] = true
		out[i] = candidate
	}
	return out
}

// buildTable turns a header and string rows into a table as wide as the widest row.
// Missing trailing cells are null.
func buildTable(header []string, rows [][]string) *table.Table {
	width := len(header)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	cols := make([]string, width)
	copy(cols, header)
	t := table.New(cols)
	t.Rows = make([][]any, 0, len(rows))
	for _, row := range rows {
		cells := make([]any, width)
		for i, v := range row {
			cells[i] = v
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// Failure is a file a batch could not read.
type Failure struct {
	Path string
	Err  error
}

// Batch holds the outcome of reading a folder.
type Batch struct {
	// Results are keyed by file stem, or by file name when two files share a stem.
	Results  map[string]*Result
	Failures []Failure
}

// Len returns the number of files read successfully.
func (b *Batch) Len() int {
	return len(b.Results)
}

// ReadDir reads every file in dir, not recursing, whose extension r handles.
// A failing file is recorded in Batch.Failures and the remaining files are still read.
func ReadDir(r Reader, dir string, opts ReadOptions) (*Batch, error) {
	exts := make(map[string]bool)
	for _, e := range r.Extensions() {
		exts[e] = true
	}
	return readDir(dir, opts, func(path string) (Reader, bool) {
		return r, exts[textenc.BaseExt(path)]
	})
}

func readDir(dir string, opts ReadOptions, pick func(path string) (Reader, bool)) (*Batch, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("read directory: %w", err)
	}
	batch := &Batch{Results: make(map[string]*Result)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		r, ok := pick(path)
		if !ok {
			continue
		}
		res, err := r.Read(path, opts)
		if err != nil {
			batch.Failures = append(batch.Failures, Failure{Path: path, Err: err})
			continue
		}
		key := textenc.Stem(path)
		if _, taken := batch.Results[key]; taken {
			key = entry.Name()
		}
		batch.Results[key] = res
	}
	return batch, nil
}
