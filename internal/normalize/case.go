// Package normalize turns arbitrary column names into identifier-safe names
// and derives cleaned companion columns for text values.
package normalize

import (
	"fmt"
	"strings"
)

// Case selects how names and values are case-converted.
type Case string

const (
	// CaseLower lowercases. It is also what the zero value means.
	CaseLower Case = "lower"
	CaseUpper Case = "upper"
	// CaseNone leaves case unchanged.
	CaseNone Case = "none"
)

// ParseCase maps a config or flag value onto a Case. Empty means lower.
func ParseCase(s string) (Case, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lower":
		return CaseLower, nil
	case "upper":
		return CaseUpper, nil
	case "none", "unchanged":
		return CaseNone, nil
	}
	return "", fmt.Errorf("unknown case mode %q (want lower, upper or none)", s)
}

// Simple per-rune mappings keep the transform idempotent: full Unicode
// mappings can emit combining marks (U+0130 lowercases to "i" plus U+0307).
func (c Case) apply(s string) string {
	switch c {
	case CaseNone:
		return s
	case CaseUpper:
		return strings.ToUpper(s)
	default:
		return strings.ToLower(s)
	}
}
