package table

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the inferred scalar type of a column.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return "null"
	}
}

// InferTypes converts string cells column by column into the narrowest scalar
// type every non-empty value of the column accepts: int64, then float64, then bool.
// Columns that fit none stay strings. Empty strings become nulls in typed columns.
func InferTypes(t *Table) {
	for c := range t.Columns {
		kind := inferColumn(t, c)
		if kind == KindString || kind == KindNull {
			continue
		}
		for _, row := range t.Rows {
			if c >= len(row) {
				continue
			}
			s, ok := row[c].(string)
			if !ok {
				continue
			}
			row[c] = convert(strings.TrimSpace(s), kind)
		}
	}
}

func inferColumn(t *Table, c int) Kind {
	isInt, isFloat, isBool := true, true, true
	seen := false
	for _, row := range t.Rows {
		if c >= len(row) {
			continue
		}
		s, ok := row[c].(string)
		if !ok {
			if row[c] != nil {
				return KindString
			}
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		seen = true
		if isInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if f, err := strconv.ParseFloat(s, 64); err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				isFloat = false
			}
		}
		if isBool {
			if _, ok := parseBool(s); !ok {
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			return KindString
		}
	}
	switch {
	case !seen:
		return KindNull
	case isInt:
		return KindInt
	case isFloat:
		return KindFloat
	case isBool:
		return KindBool
	}
	return KindString
}

func convert(s string, kind Kind) any {
	if s == "" {
		return nil
	}
	switch kind {
	case KindInt:
		n, _ := strconv.ParseInt(s, 10, 64)
		return n
	case KindFloat:
		f, _ := strconv.ParseFloat(s, 64)
		return f
	case KindBool:
		b, _ := parseBool(s)
		return b
	}
	return s
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// ColumnKind reports the scalar kind held by column c after inference.
// Mixed columns report KindString.
func ColumnKind(t *Table, c int) Kind {
	kind := KindNull
	for _, row := range t.Rows {
		if c >= len(row) || row[c] == nil {
			continue
		}
		var k Kind
		switch row[c].(type) {
		case int64, int:
			k = KindInt
		case float64:
			k = KindFloat
		case bool:
			k = KindBool
		default:
			return KindString
		}
		switch {
		case kind == KindNull:
			kind = k
		case kind == KindInt && k == KindFloat, kind == KindFloat && k == KindInt:
			kind = KindFloat
		case kind != k:
			return KindString
		}
	}
	return kind
}
