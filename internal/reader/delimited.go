package reader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hyperjump/tablekit/internal/table"
	"github.com/hyperjump/tablekit/internal/textenc"
)

// DefaultDelimiters is the candidate list of NewDelimitedReader.
var DefaultDelimiters = []string{",", ";", "\t", "|"}

// DelimitedReader reads delimited text, trying each candidate encoding and,
// under the first encoding that decodes the file, every candidate delimiter.
// The delimiter giving the widest header wins; ties go to the earlier candidate.
type DelimitedReader struct {
	encodings  []string
	delimiters []string
	extensions []string
	logger     *zap.Logger

	mu       sync.Mutex
	last     *Detection
	badLines []BadLine
}

// NewDelimitedReader returns a reader for comma, semicolon, tab and pipe separated files.
func NewDelimitedReader(opts ...Option) *DelimitedReader {
	return newDelimited(DefaultDelimiters, []string{".csv", ".txt", ".dat", ".tsv", ".pipe"}, opts)
}

// NewTSVReader returns a delimited reader that tries tab first.
func NewTSVReader(opts ...Option) *DelimitedReader {
	return newDelimited([]string{"\t", ",", ";", "|"}, []string{".tsv"}, opts)
}

// NewPipeReader returns a delimited reader that tries pipe first.
func NewPipeReader(opts ...Option) *DelimitedReader {
	return newDelimited([]string{"|", ",", ";", "\t"}, []string{".pipe"}, opts)
}

func newDelimited(delimiters, extensions []string, opts []Option) *DelimitedReader {
	s := newSettings(opts)
	r := &DelimitedReader{
		encodings:  append([]string(nil), textenc.DefaultEncodings...),
		delimiters: append([]string(nil), delimiters...),
		extensions: extensions,
		logger:     s.logger,
	}
	if len(s.encodings) > 0 {
		r.encodings = s.encodings
	}
	if len(s.delimiters) > 0 {
		r.delimiters = s.delimiters
	}
	return r
}

// Extensions implements Reader.
func (r *DelimitedReader) Extensions() []string {
	return append([]string(nil), r.extensions...)
}

// Encodings returns the candidate encodings in the order they are tried.
func (r *DelimitedReader) Encodings() []string {
	return append([]string(nil), r.encodings...)
}

// Delimiters returns the candidate delimiters in the order they are tried.
func (r *DelimitedReader) Delimiters() []string {
	return append([]string(nil), r.delimiters...)
}

// LastDetection returns the outcome of the most recent read; ok is false
// when that read failed or no read has happened.
func (r *DelimitedReader) LastDetection() (d Detection, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return Detection{}, false
	}
	return *r.last, true
}

// BadLines returns the lines captured by the most recent read.
func (r *DelimitedReader) BadLines() []BadLine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]BadLine(nil), r.badLines...)
}

// Read implements Reader.
func (r *DelimitedReader) Read(path string, opts ReadOptions) (*Result, error) {
	r.mu.Lock()
	r.last = nil
	r.badLines = nil
	r.mu.Unlock()

	if err := checkFile(path); err != nil {
		return nil, err
	}
	raw, err := textenc.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	for _, enc := range r.encodings {
		text, err := textenc.Decode(raw, enc)
		if err != nil {
			r.logger.Debug("encoding rejected", zap.String("path", path), zap.String("encoding", enc), zap.Error(err))
			continue
		}
		text = strings.TrimPrefix(text, "\ufeff")

		best := r.detect(text, enc, opts)
		if best == nil {
			return nil, fmt.Errorf("%w: %s", ErrEmptyTable, path)
		}
		det := Detection{Encoding: enc, Delimiter: best.delimiter}
		r.logger.Debug("layout detected",
			zap.String("path", path),
			zap.String("encoding", enc),
			zap.String("delimiter", best.delimiter),
			zap.Int("columns", len(best.header)),
		)

		t := buildTable(best.header, best.rows)
		if opts.InferTypes {
			table.InferTypes(t)
		}
		res := &Result{Path: path, Table: finish(t, opts), Detection: &det}
		if opts.CaptureBadLines {
			res.BadLines = best.bad
		} else {
			for _, bl := range best.bad {
				r.logger.Warn("skipping malformed line", zap.String("path", path), zap.Int("line", bl.Line))
			}
		}

		r.mu.Lock()
		r.last = &det
		if opts.CaptureBadLines {
			r.badLines = append([]BadLine(nil), best.bad...)
		}
		r.mu.Unlock()
		return res, nil
	}
	return nil, fmt.Errorf("%w: %s could not be decoded with any of [%s]",
		ErrUnsupportedEncoding, path, strings.Join(r.encodings, ", "))
}

// detect parses text with every delimiter and keeps the widest header.
// It returns nil when the text holds no records.
func (r *DelimitedReader) detect(text, enc string, opts ReadOptions) *parsed {
	var best *parsed
	for _, delim := range r.delimiters {
		p, err := parse(text, delim, opts)
		if err != nil {
			r.logger.Debug("delimiter rejected", zap.String("encoding", enc), zap.String("delimiter", delim), zap.Error(err))
			continue
		}
		if p == nil {
			continue
		}
		r.logger.Debug("delimiter tried",
			zap.String("encoding", enc),
			zap.String("delimiter", delim),
			zap.Int("columns", len(p.header)),
			zap.Int("rows", len(p.rows)),
			zap.Int("bad_lines", len(p.bad)),
		)
		if best == nil || len(p.header) > len(best.header) {
			best = p
		}
	}
	return best
}

type parsed struct {
	delimiter string
	header    []string
	rows      [][]string
	bad       []BadLine
}

type record struct {
	line   int
	fields []string
	text   string
}

func parse(text, delim string, opts ReadOptions) (*parsed, error) {
	if delim == "" || strings.ContainsAny(delim, "\"\r\n") {
		return nil, fmt.Errorf("invalid delimiter %q", delim)
	}
	offset := 0
	if opts.SkipRows > 0 {
		text, offset = skipLines(text, opts.SkipRows)
	}
	records, bad, err := splitRecords(text, delim, offset)
	if err != nil {
		return nil, err
	}
	if opts.SkipLeadingEmptyRows {
		for len(records) > 0 && blank(records[0].fields) {
			records = records[1:]
		}
	}
	if len(records) == 0 {
		return nil, nil
	}

	h := 0
	if opts.DetectHeader {
		scan := make([][]string, 0, table.DefaultHeaderScanRows)
		for i := 0; i < len(records) && i < table.DefaultHeaderScanRows; i++ {
			scan = append(scan, records[i].fields)
		}
		h = table.DetectHeaderRow(scan, table.DefaultHeaderScanRows)
	}

	p := &parsed{delimiter: delim, header: records[h].fields}
	for _, b := range bad {
		if b.Line > records[h].line {
			p.bad = append(p.bad, b)
		}
	}
	queue := records[h+1:]
	for len(queue) > 0 {
		rec := queue[0]
		queue = queue[1:]
		if len(rec.fields) != len(p.header) {
			if more, moreBad, ok := resplit(rec, delim); ok {
				p.bad = append(p.bad, moreBad...)
				queue = append(more, queue...)
				continue
			}
			p.bad = append(p.bad, BadLine{Line: rec.line, Text: rec.text})
			continue
		}
		p.rows = append(p.rows, rec.fields)
	}
	sort.SliceStable(p.bad, func(i, j int) bool { return p.bad[i].Line < p.bad[j].Line })
	return p, nil
}

// splitRecords cuts text into records. Single-rune delimiters go through
// encoding/csv so quoted fields may hold delimiters and newlines; longer
// delimiters split each line verbatim. Blank lines are skipped.
func splitRecords(text, delim string, offset int) ([]record, []BadLine, error) {
	comma, size := utf8.DecodeRuneInString(delim)
	if size != len(delim) || comma == utf8.RuneError {
		return splitPlain(text, delim, offset), nil, nil
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var records []record
	var bad []BadLine
	for {
		start := cr.InputOffset()
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		raw := strings.Trim(text[start:cr.InputOffset()], "\r\n")
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				bad = append(bad, BadLine{Line: pe.StartLine + offset, Text: raw})
				continue
			}
			return nil, nil, err
		}
		line, _ := cr.FieldPos(0)
		records = append(records, record{line: line + offset, fields: fields, text: raw})
	}
	return records, bad, nil
}

// resplit re-reads a malformed record that spans several physical lines: its
// first line on its own, the remaining lines as fresh input. A stray quote
// then costs only the line it is on instead of every line up to the end of file.
func resplit(rec record, delim string) ([]record, []BadLine, bool) {
	first, rest, ok := strings.Cut(rec.text, "\n")
	if !ok {
		return nil, nil, false
	}
	head, headBad, err := splitRecords(strings.TrimSuffix(first, "\r"), delim, rec.line-1)
	if err != nil {
		return nil, nil, false
	}
	tail, tailBad, err := splitRecords(rest, delim, rec.line)
	if err != nil {
		return nil, nil, false
	}
	return append(head, tail...), append(headBad, tailBad...), true
}

func splitPlain(text, delim string, offset int) []record {
	var records []record
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		records = append(records, record{line: i + 1 + offset, fields: strings.Split(line, delim), text: line})
	}
	return records
}

// skipLines drops the first n lines of text and reports how many were dropped.
func skipLines(text string, n int) (string, int) {
	skipped := 0
	for skipped < n {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			return "", skipped
		}
		text = text[i+1:]
		skipped++
	}
	return text, skipped
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
