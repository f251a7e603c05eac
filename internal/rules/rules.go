// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rules holds the ordered pattern tables shared by the
// bibliographic parser and barrier detection. Each table is a plain slice
// so the fallback order is visible in one place and testable on its own.
package rules

import (
	"regexp"

	"github.com/pdiddy/refresolve/pkg/types"
)

// Rule is one entry of an ordered pattern table.
type Rule struct {
	// Name identifies the rule in reasons and tests.
	Name string

	// Pattern is matched against the input.
	Pattern *regexp.Regexp

	// Group selects the submatch carrying the value; 0 is the whole match.
	Group int

	// Confidence is assigned to a field extracted by this rule.
	Confidence types.Confidence

	// Label is a short human-readable description used in reasons.
	Label string
}

// Match is the result of applying one rule.
type Match struct {
	Rule  Rule
	Value string

	// Start and End bound the selected group in the input.
	Start, End int

	// MatchStart and MatchEnd bound the whole match.
	MatchStart, MatchEnd int
}

// Table is an ordered list of rules; earlier rules have priority.
type Table []Rule

func (r Rule) apply(s string) (Match, bool) {
	loc := r.Pattern.FindStringSubmatchIndex(s)
	if loc == nil {
		return Match{}, false
	}
	g := r.Group
	if 2*g+1 >= len(loc) || loc[2*g] < 0 {
		g = 0
	}
	return Match{
		Rule:       r,
		Value:      s[loc[2*g]:loc[2*g+1]],
		Start:      loc[2*g],
		End:        loc[2*g+1],
		MatchStart: loc[0],
		MatchEnd:   loc[1],
	}, true
}

// First returns the match of the first rule, in table order, that matches s.
func (t Table) First(s string) (Match, bool) {
	for _, r := range t {
		if m, ok := r.apply(s); ok {
			return m, true
		}
	}
	return Match{}, false
}

// Earliest returns the match that starts earliest in s. Ties go to the
// rule that comes first in the table.
func (t Table) Earliest(s string) (Match, bool) {
	var best Match
	found := false
	for _, r := range t {
		m, ok := r.apply(s)
		if !ok {
			continue
		}
		if !found || m.MatchStart < best.MatchStart {
			best, found = m, true
		}
	}
	return best, found
}

// All returns one match for every rule that matches s, in table order.
func (t Table) All(s string) []Match {
	var out []Match
	for _, r := range t {
		if m, ok := r.apply(s); ok {
			out = append(out, m)
		}
	}
	return out
}

// Strip removes every match of every rule from s, replacing each with a
// single space.
func (t Table) Strip(s string) string {
	for _, r := range t {
		s = r.Pattern.ReplaceAllString(s, " ")
	}
	return s
}

// ci compiles a case-insensitive pattern.
func ci(expr string) *regexp.Regexp { return regexp.MustCompile(`(?i)` + expr) }
