package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultPlaceholder names columns whose name normalizes to nothing.
const DefaultPlaceholder = "unnamed"

// ColumnOptions configures Columns.
type ColumnOptions struct {
	Case        Case
	Placeholder string
}

// DefaultColumnOptions returns lowercase names with the "unnamed" placeholder.
func DefaultColumnOptions() ColumnOptions {
	return ColumnOptions{Case: CaseLower, Placeholder: DefaultPlaceholder}
}

var nonAlnum = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// StripAccents decomposes s and drops nonspacing marks, so "Café" becomes "Cafe".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Name normalizes one column name without the placeholder or duplicate handling.
func Name(name string, c Case) string {
	s := strings.TrimSpace(name)
	s = StripAccents(s)
	s = nonAlnum.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	return c.apply(s)
}

// Columns returns identifier-safe names for names, in the same order.
// Empty results get the placeholder, itself put through the case mode so that
// CaseUpper yields "UNNAMED"; repeated names get _1, _2, ... suffixes,
// skipping any suffix already taken, so the output is always unique.
// Columns applied to its own output returns it unchanged.
func Columns(names []string, opts ColumnOptions) []string {
	placeholder := Name(opts.Placeholder, opts.Case)
	if placeholder == "" {
		placeholder = Name(DefaultPlaceholder, opts.Case)
	}

	out := make([]string, len(names))
	seen := make(map[string]bool, len(names))
	counters := make(map[string]int)
	for i, name := range names {
		base := Name(name, opts.Case)
		if base == "" {
			base = placeholder
		}
		candidate := base
		for seen[candidate] {
			counters[base]++
			candidate = base + "_" + strconv.Itoa(counters[base])
		}
		seen[candidate] = true
		out[i] = candidate
	}
	return out
}

// Mapping pairs each original name with its normalized form.
func Mapping(names []string, opts ColumnOptions) map[string]string {
	normalized := Columns(names, opts)
	m := make(map[string]string, len(names))
	for i, name := range names {
		if _, ok := m[name]; !ok {
			m[name] = normalized[i]
		}
	}
	return m
}
