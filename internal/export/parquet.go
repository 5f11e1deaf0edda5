package export

import (
	"bytes"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"

	"github.com/hyperjump/tablekit/internal/table"
)

// writeParquet maps each column to an arrow type from its inferred kind.
// Mixed and all-null columns are written as strings.
func writeParquet(path string, t *table.Table, _ Options) error {
	kinds := make([]table.Kind, len(t.Columns))
	fields := make([]arrow.Field, len(t.Columns))
	for c, name := range t.Columns {
		kinds[c] = table.ColumnKind(t, c)
		fields[c] = arrow.Field{Name: name, Type: arrowType(kinds[c]), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()
	for c, kind := range kinds {
		if err := appendColumn(b.Field(c), kind, t, c); err != nil {
			return fmt.Errorf("column %s: %w", t.Columns[c], err)
		}
	}
	rec := b.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	w, err := pqarrow.NewFileWriter(schema, &buf, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	if err != nil {
		return err
	}
	if err := w.Write(rec); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func arrowType(k table.Kind) arrow.DataType {
	switch k {
	case table.KindInt:
		return arrow.PrimitiveTypes.Int64
	case table.KindFloat:
		return arrow.PrimitiveTypes.Float64
	case table.KindBool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

func appendColumn(fb array.Builder, kind table.Kind, t *table.Table, c int) error {
	for _, row := range t.Rows {
		var v any
		if c < len(row) {
			v = row[c]
		}
		if v == nil {
			fb.AppendNull()
			continue
		}
		switch kind {
		case table.KindInt:
			fb.(*array.Int64Builder).Append(toInt64(v))
		case table.KindFloat:
			fb.(*array.Float64Builder).Append(toFloat64(v))
		case table.KindBool:
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("unexpected value %v in bool column", v)
			}
			fb.(*array.BooleanBuilder).Append(b)
		default:
			fb.(*array.StringBuilder).Append(table.FormatValue(v))
		}
	}
	return nil
}

func toInt64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	}
	return 0
}

func toFloat64(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case int:
		return float64(x)
	}
	return 0
}
