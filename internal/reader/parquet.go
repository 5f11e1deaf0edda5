package reader

import (
	"bytes"
	"context"
	"fmt"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"go.uber.org/zap"

	"github.com/hyperjump/tablekit/internal/table"
	"github.com/hyperjump/tablekit/internal/textenc"
)

// ParquetReader reads Parquet files through Arrow. Column types come from the
// file schema, so no inference is applied.
type ParquetReader struct {
	logger *zap.Logger
}

// NewParquetReader returns a Parquet reader.
func NewParquetReader(opts ...Option) *ParquetReader {
	s := newSettings(opts)
	return &ParquetReader{logger: s.logger}
}

// Extensions implements Reader.
func (r *ParquetReader) Extensions() []string {
	return []string{".parquet"}
}

// Read implements Reader.
func (r *ParquetReader) Read(path string, opts ReadOptions) (*Result, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}
	data, err := textenc.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTable, path)
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, nil)
	if err != nil {
		return nil, fmt.Errorf("create arrow reader: %w", err)
	}
	arrTable, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("read parquet table: %w", err)
	}
	defer arrTable.Release()

	schema := arrTable.Schema()
	cols := make([]string, schema.NumFields())
	for i, field := range schema.Fields() {
		cols[i] = field.Name
	}
	t := table.New(cols)

	tr := array.NewTableReader(arrTable, 0)
	defer tr.Release()
	for tr.Next() {
		batch := tr.Record()
		for i := 0; i < int(batch.NumRows()); i++ {
			row := make([]any, batch.NumCols())
			for j, col := range batch.Columns() {
				row[j] = arrowValue(col, i)
			}
			t.AppendRow(row)
		}
	}
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("read parquet records: %w", err)
	}
	r.logger.Debug("parquet read", zap.String("path", path), zap.Int("columns", len(cols)), zap.Int("rows", len(t.Rows)))
	return &Result{Path: path, Table: finish(t, opts)}, nil
}

// arrowValue converts one cell to a table scalar. Types without a scalar
// counterpart are rendered as text.
func arrowValue(col arrow.Array, i int) any {
	if col.IsNull(i) {
		return nil
	}
	switch a := col.(type) {
	case *array.Int64:
		return a.Value(i)
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Uint32:
		return int64(a.Value(i))
	case *array.Uint16:
		return int64(a.Value(i))
	case *array.Uint8:
		return int64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Boolean:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	default:
		return col.ValueStr(i)
	}
}
