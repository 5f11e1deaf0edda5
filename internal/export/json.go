package export

import (
	"math"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/hyperjump/tablekit/internal/table"
)

var indented = jsoniter.Config{IndentionStep: 2}.Froze()

// writeJSON writes the table as an array of records with keys in column order.
func writeJSON(path string, t *table.Table, opts Options) error {
	cfg := jsoniter.ConfigDefault
	if opts.Indent {
		cfg = indented
	}
	return createFile(path, func(f *os.File) error {
		stream := jsoniter.NewStream(cfg, f, 4096)
		stream.WriteArrayStart()
		for r, row := range t.Rows {
			if r > 0 {
				stream.WriteMore()
			}
			writeRecord(stream, t.Columns, row)
		}
		stream.WriteArrayEnd()
		stream.WriteRaw("\n")
		if err := stream.Flush(); err != nil {
			return err
		}
		return stream.Error
	})
}

// writeJSONLines writes one record per line.
func writeJSONLines(path string, t *table.Table, _ Options) error {
	return createFile(path, func(f *os.File) error {
		stream := jsoniter.NewStream(jsoniter.ConfigDefault, f, 4096)
		for _, row := range t.Rows {
			writeRecord(stream, t.Columns, row)
			stream.WriteRaw("\n")
			if stream.Buffered() > 64*1024 {
				if err := stream.Flush(); err != nil {
					return err
				}
			}
		}
		if err := stream.Flush(); err != nil {
			return err
		}
		return stream.Error
	})
}

func writeRecord(stream *jsoniter.Stream, columns []string, row []any) {
	stream.WriteObjectStart()
	for c, name := range columns {
		if c > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(name)
		var v any
		if c < len(row) {
			v = row[c]
		}
		writeValue(stream, v)
	}
	stream.WriteObjectEnd()
}

func writeValue(stream *jsoniter.Stream, v any) {
	switch x := v.(type) {
	case nil:
		stream.WriteNil()
	case string:
		stream.WriteString(x)
	case int64:
		stream.WriteInt64(x)
	case int:
		stream.WriteInt(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			stream.WriteNil()
			return
		}
		stream.WriteFloat64(x)
	case bool:
		stream.WriteBool(x)
	default:
		stream.WriteString(table.FormatValue(x))
	}
}
