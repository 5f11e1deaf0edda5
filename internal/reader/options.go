package reader

import (
	"go.uber.org/zap"

	"github.com/hyperjump/tablekit/internal/normalize"
)

// ReadOptions controls a single read. Start from DefaultReadOptions; the zero
// value turns every post-processing step off.
type ReadOptions struct {
	// NormalizeColumns rewrites column names into identifier-safe, unique names.
	NormalizeColumns bool
	Columns          normalize.ColumnOptions
	// Normalize appends <column>_norm companions for text columns.
	Normalize bool
	Values    normalize.ValueOptions

	SkipLeadingEmptyRows  bool
	SkipTrailingEmptyRows bool
	// CaptureBadLines keeps malformed rows in Result.BadLines instead of only logging them.
	CaptureBadLines bool
	// InferTypes converts text cells into int64, float64 and bool where a whole column allows it.
	InferTypes bool

	// SkipRows drops this many physical lines before parsing a delimited file.
	SkipRows int
	// DetectHeader picks the header among the first rows instead of using the first one.
	DetectHeader bool

	// Sheet selects a workbook sheet by name; when empty SheetIndex is used.
	Sheet      string
	SheetIndex int

	// Orient is the JSON layout: records, columns, index, values or split.
	Orient string
	// Lines reads JSON Lines regardless of the file extension.
	Lines bool

	// TableIndex selects the HTML table, zero-based.
	TableIndex int
}

// DefaultReadOptions trims leading and trailing empty rows and infers column types.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{
		Columns:               normalize.DefaultColumnOptions(),
		Values:                normalize.DefaultValueOptions(),
		SkipLeadingEmptyRows:  true,
		SkipTrailingEmptyRows: true,
		InferTypes:            true,
	}
}

// Option configures a reader at construction time.
type Option func(*settings)

type settings struct {
	logger     *zap.Logger
	encodings  []string
	delimiters []string
}

// WithLogger sets the logger used for the detection trace and skipped rows.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEncodings replaces the candidate encoding list of a delimited reader.
func WithEncodings(encodings ...string) Option {
	return func(s *settings) {
		if len(encodings) > 0 {
			s.encodings = append([]string(nil), encodings...)
		}
	}
}

// WithDelimiters replaces the candidate delimiter list of a delimited reader.
func WithDelimiters(delimiters ...string) Option {
	return func(s *settings) {
		if len(delimiters) > 0 {
			s.delimiters = append([]string(nil), delimiters...)
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
