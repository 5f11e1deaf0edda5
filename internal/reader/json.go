package reader

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/hyperjump/tablekit/internal/table"
	"github.com/hyperjump/tablekit/internal/textenc"
)

// JSON orientations understood by JSONReader.
const (
	OrientRecords = "records"
	OrientColumns = "columns"
	OrientIndex   = "index"
	OrientValues  = "values"
	OrientSplit   = "split"
)

// JSONReader reads JSON documents and JSON Lines files. Object key order is
// kept, so columns appear in the order they are first seen.
type JSONReader struct {
	logger *zap.Logger
}

// NewJSONReader returns a JSON reader.
func NewJSONReader(opts ...Option) *JSONReader {
	s := newSettings(opts)
	return &JSONReader{logger: s.logger}
}

// Extensions implements Reader.
func (r *JSONReader) Extensions() []string {
	return []string{".json", ".jsonl", ".ndjson"}
}

// Read implements Reader. Files ending in .jsonl or .ndjson, or opts.Lines,
// read one record object per line; otherwise opts.Orient selects the layout.
// With no orient given, a top-level object is read as "columns".
func (r *JSONReader) Read(path string, opts ReadOptions) (*Result, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}
	data, err := textenc.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var t *table.Table
	ext := textenc.BaseExt(path)
	if opts.Lines || ext == ".jsonl" || ext == ".ndjson" {
		t, err = parseJSONLines(data)
	} else {
		t, err = parseJSON(data, opts.Orient)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTable, path)
	}
	r.logger.Debug("json read", zap.String("path", path), zap.Int("columns", len(t.Columns)), zap.Int("rows", len(t.Rows)))
	return &Result{Path: path, Table: finish(t, opts)}, nil
}

// recordSet collects keyed records while keeping first-seen column order.
type recordSet struct {
	columns []string
	index   map[string]int
	rows    []map[string]any
}

func newRecordSet() *recordSet {
	return &recordSet{index: make(map[string]int)}
}

func (s *recordSet) column(name string) {
	if _, ok := s.index[name]; !ok {
		s.index[name] = len(s.columns)
		s.columns = append(s.columns, name)
	}
}

func (s *recordSet) table() *table.Table {
	t := table.New(s.columns)
	for _, rec := range s.rows {
		row := make([]any, len(s.columns))
		for k, v := range rec {
			row[s.index[k]] = v
		}
		t.AppendRow(row)
	}
	return t
}

func parseJSON(data []byte, orient string) (*table.Table, error) {
	iter := jsoniter.ParseBytes(jsoniter.ConfigDefault, data)
	next := iter.WhatIsNext()
	if orient == "" {
		orient = OrientRecords
		if next == jsoniter.ObjectValue {
			orient = OrientColumns
		}
	}

	var t *table.Table
	switch orient {
	case OrientRecords:
		if next != jsoniter.ArrayValue {
			return nil, fmt.Errorf("%w: orient %q expects a top-level array", ErrUnsupportedStructure, orient)
		}
		set := newRecordSet()
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			if it.WhatIsNext() != jsoniter.ObjectValue {
				it.ReportError("records", "expected an object per record")
				return false
			}
			set.rows = append(set.rows, readRecord(it, set))
			return true
		})
		t = set.table()
	case OrientColumns, OrientIndex:
		if next != jsoniter.ObjectValue {
			return nil, fmt.Errorf("%w: orient %q expects a top-level object", ErrUnsupportedStructure, orient)
		}
		t = readNested(iter, orient == OrientIndex)
	case OrientValues:
		if next != jsoniter.ArrayValue {
			return nil, fmt.Errorf("%w: orient %q expects a top-level array", ErrUnsupportedStructure, orient)
		}
		t = readMatrix(iter, nil)
	case OrientSplit:
		if next != jsoniter.ObjectValue {
			return nil, fmt.Errorf("%w: orient %q expects a top-level object", ErrUnsupportedStructure, orient)
		}
		t = readSplit(iter)
	default:
		return nil, fmt.Errorf("%w: unknown orient %q (want records, columns, index, values or split)",
			ErrUnsupportedStructure, orient)
	}
	if iter.Error != nil {
		return nil, fmt.Errorf("invalid JSON: %w", iter.Error)
	}
	return t, nil
}

func parseJSONLines(data []byte) (*table.Table, error) {
	set := newRecordSet()
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		iter := jsoniter.ParseBytes(jsoniter.ConfigDefault, line)
		if iter.WhatIsNext() != jsoniter.ObjectValue {
			return nil, fmt.Errorf("%w: line %d is not a JSON object", ErrUnsupportedStructure, i+1)
		}
		rec := readRecord(iter, set)
		if iter.Error != nil {
			return nil, fmt.Errorf("invalid JSON on line %d: %w", i+1, iter.Error)
		}
		set.rows = append(set.rows, rec)
	}
	return set.table(), nil
}

func readRecord(iter *jsoniter.Iterator, set *recordSet) map[string]any {
	rec := make(map[string]any)
	iter.ReadMapCB(func(it *jsoniter.Iterator, key string) bool {
		set.column(key)
		rec[key] = readScalar(it)
		return true
	})
	return rec
}

// readNested reads {outer: {inner: value}}. For "columns" outer keys are
// columns and inner keys index rows; "index" is the transpose.
func readNested(iter *jsoniter.Iterator, outerIsRow bool) *table.Table {
	cols := newRecordSet()
	rowKeys := newRecordSet()
	cells := make(map[[2]string]any)
	iter.ReadMapCB(func(it *jsoniter.Iterator, outer string) bool {
		it.ReadMapCB(func(it *jsoniter.Iterator, inner string) bool {
			col, row := outer, inner
			if outerIsRow {
				col, row = inner, outer
			}
			cols.column(col)
			rowKeys.column(row)
			cells[[2]string{row, col}] = readScalar(it)
			return true
		})
		if outerIsRow {
			rowKeys.column(outer)
		}
		return true
	})
	t := table.New(cols.columns)
	for _, row := range rowKeys.columns {
		values := make([]any, len(cols.columns))
		for c, col := range cols.columns {
			values[c] = cells[[2]string{row, col}]
		}
		t.AppendRow(values)
	}
	return t
}

// readMatrix reads an array of arrays. Columns are named after their position
// unless names are given.
func readMatrix(iter *jsoniter.Iterator, names []string) *table.Table {
	var rows [][]any
	width := len(names)
	iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
		var row []any
		it.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			row = append(row, readScalar(it))
			return true
		})
		if len(row) > width {
			width = len(row)
		}
		rows = append(rows, row)
		return true
	})
	cols := make([]string, width)
	for i := range cols {
		if i < len(names) {
			cols[i] = names[i]
		} else {
			cols[i] = strconv.Itoa(i)
		}
	}
	t := table.New(cols)
	for _, row := range rows {
		t.AppendRow(row)
	}
	return t
}

// readSplit reads {"columns": [...], "index": [...], "data": [[...]]}; the index is dropped.
func readSplit(iter *jsoniter.Iterator) *table.Table {
	var names []string
	var data []byte
	iter.ReadMapCB(func(it *jsoniter.Iterator, key string) bool {
		switch key {
		case "columns":
			it.ReadArrayCB(func(it *jsoniter.Iterator) bool {
				names = append(names, fmt.Sprint(readScalar(it)))
				return true
			})
		case "data":
			data = append([]byte(nil), it.SkipAndReturnBytes()...)
		default:
			it.Skip()
		}
		return true
	})
	if data == nil {
		return table.New(names)
	}
	return readMatrix(jsoniter.ParseBytes(jsoniter.ConfigDefault, data), names)
}

// readScalar reads one value. Integers become int64, other numbers float64;
// nested arrays and objects are kept as their raw JSON text.
func readScalar(iter *jsoniter.Iterator) any {
	switch iter.WhatIsNext() {
	case jsoniter.StringValue:
		return iter.ReadString()
	case jsoniter.NumberValue:
		n := iter.ReadNumber()
		if i, err := n.Int64(); err == nil {
			return i
		}
		f, _ := n.Float64()
		return f
	case jsoniter.BoolValue:
		return iter.ReadBool()
	case jsoniter.NilValue:
		iter.ReadNil()
		return nil
	default:
		return strings.TrimSpace(string(iter.SkipAndReturnBytes()))
	}
}
