// Package cli provides output and option helpers for the tablekit command.
package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/mattn/go-runewidth"

	"github.com/hyperjump/tablekit/internal/reader"
	"github.com/hyperjump/tablekit/internal/table"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

// DefaultPreviewRows is how many rows the read command shows.
const DefaultPreviewRows = 10

// maxCellWidth bounds a preview column in terminal cells.
const maxCellWidth = 30

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type resultView struct {
	Path      string            `json:"path"`
	Detection *reader.Detection `json:"detection,omitempty"`
	Columns   []string          `json:"columns"`
	Rows      int               `json:"rows"`
	BadLines  []reader.BadLine  `json:"bad_lines,omitempty"`
	Preview   []map[string]any  `json:"preview"`
}

type failureView struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type batchView struct {
	Results  map[string]resultView `json:"results"`
	Failures []failureView         `json:"failures,omitempty"`
}

func viewOf(res *reader.Result, previewRows int) resultView {
	v := resultView{
		Path:      res.Path,
		Detection: res.Detection,
		Columns:   res.Table.Columns,
		Rows:      len(res.Table.Rows),
		BadLines:  res.BadLines,
		Preview:   []map[string]any{},
	}
	for _, row := range res.Table.Slice(0, previewRows).Rows {
		rec := make(map[string]any, len(res.Table.Columns))
		for i, c := range res.Table.Columns {
			if i < len(row) {
				rec[c] = row[i]
			}
		}
		v.Preview = append(v.Preview, rec)
	}
	return v
}

// WriteResult writes one read outcome: detection, shape, bad lines and a preview.
func WriteResult(w io.Writer, res *reader.Result, format OutputFormat, previewRows int) error {
	if format == OutputJSON {
		return writeJSON(w, viewOf(res, previewRows))
	}
	rows, cols := res.Table.Shape()
	fmt.Fprintf(w, "%s\n", res.Path)
	if res.Detection != nil {
		fmt.Fprintf(w, "encoding:   %s\n", res.Detection.Encoding)
		fmt.Fprintf(w, "delimiter:  %s\n", DescribeDelimiter(res.Detection.Delimiter))
	}
	fmt.Fprintf(w, "shape:      %d rows x %d columns\n", rows, cols)
	if len(res.BadLines) > 0 {
		fmt.Fprintf(w, "bad lines:  %d\n", len(res.BadLines))
		for _, bl := range res.BadLines {
			fmt.Fprintf(w, "  line %d: %s\n", bl.Line, Truncate(bl.Text, 80))
		}
	}
	fmt.Fprintln(w)
	WritePreview(w, res.Table, previewRows)
	return nil
}

// WriteBatch writes the outcome of a folder read, one summary line per file.
func WriteBatch(w io.Writer, b *reader.Batch, format OutputFormat, previewRows int) error {
	keys := make([]string, 0, len(b.Results))
	for k := range b.Results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if format == OutputJSON {
		view := batchView{Results: make(map[string]resultView, len(keys))}
		for _, k := range keys {
			view.Results[k] = viewOf(b.Results[k], previewRows)
		}
		for _, f := range b.Failures {
			view.Failures = append(view.Failures, failureView{Path: f.Path, Error: f.Err.Error()})
		}
		return writeJSON(w, view)
	}

	fmt.Fprintf(w, "Read %d file(s), %d failed\n\n", b.Len(), len(b.Failures))
	for _, k := range keys {
		res := b.Results[k]
		rows, cols := res.Table.Shape()
		line := fmt.Sprintf("%-20s %6d rows  %3d cols", k, rows, cols)
		if res.Detection != nil {
			line += fmt.Sprintf("  %s %s", res.Detection.Encoding, DescribeDelimiter(res.Detection.Delimiter))
		}
		if len(res.BadLines) > 0 {
			line += fmt.Sprintf("  (%d bad lines)", len(res.BadLines))
		}
		fmt.Fprintln(w, line)
	}
	for _, f := range b.Failures {
		fmt.Fprintf(w, "FAILED %s: %v\n", f.Path, f.Err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := jsonAPI.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// WritePreview writes the header and up to maxRows rows as aligned columns.
// Widths are measured in terminal cells so wide characters stay aligned.
func WritePreview(w io.Writer, t *table.Table, maxRows int) {
	if len(t.Columns) == 0 {
		fmt.Fprintln(w, "(no columns)")
		return
	}
	view := t.Slice(0, maxRows)
	cells := make([][]string, 0, len(view.Rows)+1)
	cells = append(cells, append([]string(nil), t.Columns...))
	for _, row := range view.Rows {
		line := make([]string, len(t.Columns))
		for i := range line {
			if i < len(row) {
				line[i] = table.FormatValue(row[i])
			}
		}
		cells = append(cells, line)
	}

	widths := make([]int, len(t.Columns))
	for r, line := range cells {
		for i, s := range line {
			s = Truncate(s, maxCellWidth)
			cells[r][i] = s
			if n := runewidth.StringWidth(s); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for r, line := range cells {
		parts := make([]string, len(line))
		for i, s := range line {
			parts[i] = runewidth.FillRight(s, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
		if r == 0 {
			seps := make([]string, len(widths))
			for i, n := range widths {
				seps[i] = strings.Repeat("-", n)
			}
			fmt.Fprintln(w, strings.Join(seps, "  "))
		}
	}
	if len(t.Rows) > len(view.Rows) {
		fmt.Fprintf(w, "... %d more row(s)\n", len(t.Rows)-len(view.Rows))
	}
}

// Truncate shortens s to at most maxWidth terminal cells, ending with "..." when cut.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 || runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// DescribeDelimiter names whitespace delimiters so they are visible in text output.
func DescribeDelimiter(d string) string {
	switch d {
	case "\t":
		return `"\t" (tab)`
	case " ":
		return `" " (space)`
	}
	return fmt.Sprintf("%q", d)
}
