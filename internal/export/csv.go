package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/hyperjump/tablekit/internal/table"
)

func writeCSV(path string, t *table.Table, opts Options) error {
	comma := ','
	if opts.Delimiter != "" {
		r, size := utf8.DecodeRuneInString(opts.Delimiter)
		if size != len(opts.Delimiter) {
			return fmt.Errorf("csv delimiter must be a single character, got %q", opts.Delimiter)
		}
		comma = r
	}
	return createFile(path, func(f *os.File) error {
		bw := bufio.NewWriter(f)
		w := csv.NewWriter(bw)
		w.Comma = comma
		if err := w.Write(t.Columns); err != nil {
			return err
		}
		record := make([]string, len(t.Columns))
		for _, row := range t.Rows {
			for i := range record {
				record[i] = ""
				if i < len(row) {
					record[i] = table.FormatValue(row[i])
				}
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
		return bw.Flush()
	})
}
