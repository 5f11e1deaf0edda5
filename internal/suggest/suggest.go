// Package suggest finds the closest known name for a mistyped one.
package suggest

import "strings"

// Distance returns the Levenshtein distance between a and b, counted in runes.
func Distance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Closest returns the candidate nearest to name, ignoring case, when it is at
// most a third of name's length away (and at least one edit is allowed).
// Ties go to the earlier candidate.
func Closest(name string, candidates []string) (string, bool) {
	if name == "" {
		return "", false
	}
	limit := max(1, len([]rune(name))/3)
	lower := strings.ToLower(name)
	best, bestDist := "", limit+1
	for _, c := range candidates {
		if d := Distance(lower, strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != ""
}

// Hint formats a " (did you mean X?)" suffix, or "" when nothing is close.
func Hint(name string, candidates []string) string {
	if c, ok := Closest(name, candidates); ok {
		return " (did you mean " + c + "?)"
	}
	return ""
}
