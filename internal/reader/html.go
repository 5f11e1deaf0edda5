package reader

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	"github.com/hyperjump/tablekit/internal/table"
	"github.com/hyperjump/tablekit/internal/textenc"
)

// maxColspan bounds how often a spanning cell is repeated.
const maxColspan = 1000

// HTMLReader reads <table> elements from HTML documents. Tables are numbered
// in document order, nested tables included.
type HTMLReader struct {
	logger *zap.Logger
}

// NewHTMLReader returns an HTML table reader.
func NewHTMLReader(opts ...Option) *HTMLReader {
	s := newSettings(opts)
	return &HTMLReader{logger: s.logger}
}

// Extensions implements Reader.
func (r *HTMLReader) Extensions() []string {
	return []string{".html", ".htm"}
}

// Read implements Reader, reading the table at opts.TableIndex.
func (r *HTMLReader) Read(path string, opts ReadOptions) (*Result, error) {
	tables, err := r.load(path)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: no tables found in %s", ErrUnsupportedStructure, path)
	}
	if opts.TableIndex < 0 || opts.TableIndex >= len(tables) {
		return nil, fmt.Errorf("%s: %w", path, indexOutOfRange("table", opts.TableIndex, len(tables)))
	}
	t, err := tables[opts.TableIndex].build(opts)
	if err != nil {
		return nil, fmt.Errorf("%s: table %d: %w", path, opts.TableIndex, err)
	}
	return &Result{Path: path, Table: t}, nil
}

// CountTables returns how many tables the document holds.
func (r *HTMLReader) CountTables(path string) (int, error) {
	tables, err := r.load(path)
	if err != nil {
		return 0, err
	}
	return len(tables), nil
}

// ReadAll reads every table of the document in order. Tables that cannot be
// read, such as empty ones, are logged and left out.
func (r *HTMLReader) ReadAll(path string, opts ReadOptions) ([]*Result, error) {
	tables, err := r.load(path)
	if err != nil {
		return nil, err
	}
	var out []*Result
	for i, ht := range tables {
		t, err := ht.build(opts)
		if err != nil {
			r.logger.Warn("skipping table", zap.String("path", path), zap.Int("index", i), zap.Error(err))
			continue
		}
		out = append(out, &Result{Path: path, Table: t})
	}
	return out, nil
}

// ReadTables reads the tables at the given indices, keyed by index.
// Out-of-range and unreadable indices are logged and left out.
func (r *HTMLReader) ReadTables(path string, indices []int, opts ReadOptions) (map[int]*Result, error) {
	tables, err := r.load(path)
	if err != nil {
		return nil, err
	}
	out := make(map[int]*Result, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(tables) {
			r.logger.Warn("skipping table", zap.String("path", path), zap.Error(indexOutOfRange("table", i, len(tables))))
			continue
		}
		t, err := tables[i].build(opts)
		if err != nil {
			r.logger.Warn("skipping table", zap.String("path", path), zap.Int("index", i), zap.Error(err))
			continue
		}
		out[i] = &Result{Path: path, Table: t}
	}
	return out, nil
}

func (r *HTMLReader) load(path string) ([]*htmlTable, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}
	data, err := textenc.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	utf8Reader, err := charset.NewReader(bytes.NewReader(data), "text/html")
	if err != nil {
		return nil, fmt.Errorf("detect charset of %s: %w", path, err)
	}
	doc, err := html.Parse(utf8Reader)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	tables := collectTables(doc)
	r.logger.Debug("html tables found", zap.String("path", path), zap.Int("count", len(tables)))
	return tables, nil
}

type htmlRow struct {
	cells  []string
	allTH  bool
	inHead bool
}

type htmlTable struct {
	rows []htmlRow
}

func collectTables(doc *html.Node) []*htmlTable {
	var tables []*htmlTable
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			tables = append(tables, readTableNode(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return tables
}

// readTableNode collects the rows of one table without descending into nested tables.
func readTableNode(tbl *html.Node) *htmlTable {
	ht := &htmlTable{}
	var walk func(n *html.Node, inHead bool)
	walk = func(n *html.Node, inHead bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Table:
				continue
			case atom.Thead:
				walk(c, true)
			case atom.Tr:
				if row, ok := readRow(c); ok {
					row.inHead = inHead
					ht.rows = append(ht.rows, row)
				}
			default:
				walk(c, inHead)
			}
		}
	}
	walk(tbl, false)
	return ht
}

func readRow(tr *html.Node) (htmlRow, bool) {
	row := htmlRow{allTH: true}
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
			continue
		}
		if c.DataAtom != atom.Th {
			row.allTH = false
		}
		text := cellText(c)
		for i := 0; i < colspan(c); i++ {
			row.cells = append(row.cells, text)
		}
	}
	return row, len(row.cells) > 0
}

func colspan(n *html.Node) int {
	for _, a := range n.Attr {
		if a.Key == "colspan" {
			if v, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil && v > 1 {
				return min(v, maxColspan)
			}
		}
	}
	return 1
}

func cellText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteByte(' ')
		case n.Type == html.ElementNode && n.DataAtom == atom.Table:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// build turns the rows into a table. The header is the first <thead> row or a
// leading row made only of <th> cells; otherwise columns are numbered from 0.
func (ht *htmlTable) build(opts ReadOptions) (*table.Table, error) {
	if len(ht.rows) == 0 {
		return nil, fmt.Errorf("%w: table has no rows", ErrEmptyTable)
	}
	var header []string
	var body [][]string
	headerAt := -1
	for i, row := range ht.rows {
		if row.inHead {
			headerAt = i
			break
		}
	}
	if headerAt < 0 && ht.rows[0].allTH {
		headerAt = 0
	}
	for i, row := range ht.rows {
		switch {
		case i == headerAt:
			header = row.cells
		case row.inHead:
		default:
			body = append(body, row.cells)
		}
	}
	t := buildTable(header, body)
	if headerAt < 0 {
		for i := range t.Columns {
			t.Columns[i] = strconv.Itoa(i)
		}
	}
	if opts.InferTypes {
		table.InferTypes(t)
	}
	return finish(t, opts), nil
}
