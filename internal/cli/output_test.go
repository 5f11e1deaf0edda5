package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"

	"github.com/hyperjump/tablekit/internal/config"
	"github.com/hyperjump/tablekit/internal/normalize"
	"github.com/hyperjump/tablekit/internal/reader"
	"github.com/hyperjump/tablekit/internal/table"
)

func sampleResult() *reader.Result {
	t := table.New([]string{"name", "city"})
	t.AppendRow([]any{"Zoë", "Malmö"})
	t.AppendRow([]any{"東京", int64(3)})
	t.AppendRow([]any{"Bob", nil})
	return &reader.Result{
		Path:      "/data/people.csv",
		Table:     t,
		Detection: &reader.Detection{Encoding: "cp1252", Delimiter: ";"},
		BadLines:  []reader.BadLine{{Line: 4, Text: "x;y;z"}},
	}
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": OutputText, "text": OutputText, "JSON": OutputJSON} {
		got, err := ParseOutputFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseOutputFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestWriteResult_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResult(&buf, sampleResult(), OutputText, 2); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"encoding:   cp1252", `delimiter:  ";"`, "shape:      3 rows x 2 columns", "line 4: x;y;z", "... 1 more row(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Bob") {
		t.Errorf("preview should stop after 2 rows:\n%s", out)
	}
}

func TestWriteResult_json(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResult(&buf, sampleResult(), OutputJSON, 5); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Path      string `json:"path"`
		Detection struct {
			Encoding  string `json:"encoding"`
			Delimiter string `json:"delimiter"`
		} `json:"detection"`
		Rows     int              `json:"rows"`
		BadLines []reader.BadLine `json:"bad_lines"`
		Preview  []map[string]any `json:"preview"`
	}
	if err := jsoniter.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Detection.Encoding != "cp1252" || decoded.Detection.Delimiter != ";" {
		t.Errorf("detection = %+v", decoded.Detection)
	}
	if decoded.Rows != 3 || len(decoded.Preview) != 3 || len(decoded.BadLines) != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Preview[1]["name"] != "東京" {
		t.Errorf("preview[1] = %v", decoded.Preview[1])
	}
}

func TestWriteBatch(t *testing.T) {
	b := &reader.Batch{
		Results:  map[string]*reader.Result{"people": sampleResult()},
		Failures: []reader.Failure{{Path: "/data/broken.csv", Err: errors.New("empty table")}},
	}
	var buf bytes.Buffer
	if err := WriteBatch(&buf, b, OutputText, 0); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Read 1 file(s), 1 failed") || !strings.Contains(out, "FAILED /data/broken.csv: empty table") {
		t.Errorf("got %q", out)
	}

	buf.Reset()
	if err := WriteBatch(&buf, b, OutputJSON, 1); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Results  map[string]struct{ Rows int } `json:"results"`
		Failures []struct{ Path, Error string } `json:"failures"`
	}
	if err := jsoniter.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Results["people"].Rows != 3 || len(decoded.Failures) != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWritePreview_alignsWideCharacters(t *testing.T) {
	var buf bytes.Buffer
	WritePreview(&buf, sampleResult().Table, 10)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	// "東京" is four cells wide, so the second column starts at the same cell on every line
	if lines[0] != "name  city" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[2] != "Zoë   Malmö" || lines[3] != "東京  3" {
		t.Errorf("rows = %q, %q", lines[2], lines[3])
	}
}

func TestWritePreview_keepsColumnNames(t *testing.T) {
	long := strings.Repeat("x", 50)
	tbl := table.New([]string{long})
	var buf bytes.Buffer
	WritePreview(&buf, tbl, 1)
	if tbl.Columns[0] != long {
		t.Errorf("preview modified the column name: %q", tbl.Columns[0])
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"hello world", 8, "hello..."},
		{"東京東京東京", 7, "東京..."},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestDescribeDelimiter(t *testing.T) {
	if got := DescribeDelimiter("\t"); got != `"\t" (tab)` {
		t.Errorf("got %q", got)
	}
	if got := DescribeDelimiter("|"); got != `"|"` {
		t.Errorf("got %q", got)
	}
}

func TestReadOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Normalize.Case = "upper"
	cfg.Normalize.Values = true
	cfg.Reader.CaptureBadLines = true
	opts, err := ReadOptions(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !opts.NormalizeColumns || opts.Columns.Case != normalize.CaseUpper || opts.Values.Case != normalize.CaseUpper {
		t.Errorf("normalize options = %+v", opts)
	}
	if !opts.Normalize || !opts.CaptureBadLines || !opts.SkipLeadingEmptyRows || !opts.InferTypes {
		t.Errorf("read flags = %+v", opts)
	}

	cfg.Normalize.Case = "title"
	if _, err := ReadOptions(cfg); err == nil {
		t.Error("expected error for unknown case mode")
	}
}

func TestOutputName(t *testing.T) {
	tests := map[string]string{
		"csv":          "people.csv",
		"excel":        "people.xlsx",
		"excel_sheets": "people.xlsx",
		"sqlite":       "people.db",
		"parquet":      "people.parquet",
		"jsonl":        "people.jsonl",
	}
	for method, want := range tests {
		if got := OutputName("people", method); got != want {
			t.Errorf("OutputName(%q) = %q, want %q", method, got, want)
		}
	}
}
