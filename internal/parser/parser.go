// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parser turns one raw reference line into a structured Reference.
//
// Each stage is a pure function over strings. A stage that finds nothing
// leaves its field empty with confidence missing; only a missing [id]
// token is an error.
package parser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pdiddy/refresolve/internal/rules"
	"github.com/pdiddy/refresolve/pkg/types"
)

var spaceBeforePunct = regexp.MustCompile(`\s+([.,;:])`)

// Parse extracts the id, bibliographic fields and relevance text from a
// raw reference line. The returned Reference carries its confidence map.
// A line without a leading [id] yields a *types.ParseError wrapping
// types.ErrMissingID and a nil Reference.
func Parse(raw string) (*types.Reference, error) {
	line := strings.TrimSpace(strings.ReplaceAll(raw, "\r", ""))
	id, body, ok := splitID(line)
	if !ok {
		return nil, &types.ParseError{Content: raw, Err: types.ErrMissingID}
	}

	ref := &types.Reference{ID: id, Confidence: types.AllMissing()}

	body, relevance, explicit := splitRelevance(body)
	f := extractFields(Clean(body))

	ref.Authors, ref.Year, ref.Title, ref.Publication = f.authors, f.year, f.title, f.publication
	for k, v := range f.confidence {
		ref.Confidence[k] = v
	}

	switch {
	case explicit:
		if rel := Clean(relevance); rel != "" {
			ref.RelevanceText = rel
			ref.Confidence[types.FieldRelevance] = types.ConfidenceFound
		}
	case f.rest != "":
		ref.RelevanceText = f.rest
		ref.Confidence[types.FieldRelevance] = types.ConfidenceHeuristic
	}

	return ref, nil
}

// splitID separates the leading [id] token from the rest of the line.
func splitID(line string) (id, body string, ok bool) {
	m := rules.IDPattern.FindStringSubmatchIndex(line)
	if m == nil {
		return "", "", false
	}
	return line[m[2]:m[3]], line[m[1]:], true
}

// splitRelevance captures an explicit "Relevance:" suffix.
func splitRelevance(body string) (bib, relevance string, explicit bool) {
	loc := rules.RelevancePattern.FindStringIndex(body)
	if loc == nil {
		return body, "", false
	}
	return body[:loc[0]], body[loc[1]:], true
}

// Clean removes contamination left by earlier passes (tail tokens, URL
// labels, URLs, uppercase annotation tags) and normalizes whitespace.
func Clean(s string) string {
	s = rules.Contamination.Strip(s)
	s = strings.Join(strings.Fields(s), " ")
	return spaceBeforePunct.ReplaceAllString(s, "$1")
}

// fields is the result of bibliographic extraction on cleaned text.
type fields struct {
	authors, year, title, publication string

	// rest is whatever follows the bibliography end.
	rest string

	confidence types.ConfidenceMap
}

const leadingDelims = " .,:;–—-"

func extractFields(body string) fields {
	f := fields{confidence: types.ConfidenceMap{}}

	year, hasYear := rules.Years.First(body)
	if hasYear {
		f.year = year.Value
		f.confidence[types.FieldYear] = year.Rule.Confidence
	}
	parenYear := hasYear && year.Rule.Name == "parenthesized"

	author, hasAuthor := rules.Authors.First(body)
	if hasAuthor && parenYear && author.End > year.MatchStart {
		hasAuthor = false
	}
	if hasAuthor {
		f.authors = strings.TrimSpace(author.Value)
		f.confidence[types.FieldAuthors] = author.Rule.Confidence
	}

	var rest string
	switch {
	case parenYear:
		rest = body[year.MatchEnd:]
	case hasAuthor:
		rest = body[author.End:]
	default:
		rest = body
	}
	rest = strings.TrimLeft(rest, leadingDelims)
	if hasYear && !parenYear && strings.HasPrefix(rest, year.Value) {
		rest = strings.TrimLeft(rest[len(year.Value):], leadingDelims)
	}

	f.title, f.publication, f.rest = splitTitle(rest, f.confidence)
	return f
}

// splitTitle divides the text after the year into title, publication and
// trailing remainder. The title ends at the first sentence-terminal
// punctuation. The publication runs to the end of the sentence holding the
// first bibliography-end marker, or stops before that sentence when the
// marker opens it. Without a marker, the next sentence is taken as the
// publication.
func splitTitle(rest string, conf types.ConfidenceMap) (title, publication, tail string) {
	if rest == "" {
		return "", "", ""
	}

	end := sentenceEnd(rest, 0)
	if end < 0 {
		title = strings.TrimRight(rest, ". ")
		if title != "" {
			conf[types.FieldTitle] = types.ConfidenceUncertain
		}
		return title, "", ""
	}

	title = rest[:end]
	if rest[end] != '.' {
		title = rest[:end+1]
	}
	title = strings.TrimSpace(title)
	if title != "" {
		conf[types.FieldTitle] = types.ConfidenceFound
	}

	rem := strings.TrimLeft(rest[end+1:], leadingDelims)
	if rem == "" {
		return title, "", ""
	}

	if m, ok := rules.BibliographyEnd.Earliest(rem[:markerWindow(rem)]); ok {
		markerEnd := sentenceEnd(rem, m.MatchStart)
		if markerEnd < 0 {
			markerEnd = len(rem)
		}
		pubEnd := markerEnd
		if prev := sentenceStartBefore(rem, m.MatchStart); prev >= 0 {
			pubEnd = prev
		}
		publication = trimField(rem[:pubEnd])
		if markerEnd < len(rem) {
			tail = rem[markerEnd+1:]
		}
	} else {
		parts := splitSentences(rem)
		publication = trimField(parts[0])
		tail = strings.Join(parts[1:], ". ")
	}

	if publication != "" {
		conf[types.FieldPublication] = types.ConfidenceFound
	}
	return title, publication, strings.TrimSpace(strings.TrimLeft(tail, leadingDelims))
}

// sentenceStartBefore reports the end of the sentence preceding pos when a
// new sentence starts exactly at pos, or -1 when pos lies inside the first
// sentence or mid-sentence.
func sentenceStartBefore(s string, pos int) int {
	prev := -1
	for e := sentenceEnd(s, 0); e >= 0 && e < pos; e = sentenceEnd(s, e+1) {
		prev = e
	}
	if prev < 0 || strings.TrimSpace(s[prev+1:pos]) != "" {
		return -1
	}
	return prev
}

// markerWindow limits marker search to the two sentences after the title,
// so a keyword inside relevance prose does not stretch the publication.
func markerWindow(s string) int {
	e1 := sentenceEnd(s, 0)
	if e1 < 0 {
		return len(s)
	}
	e2 := sentenceEnd(s, e1+1)
	if e2 < 0 {
		return len(s)
	}
	return e2 + 1
}

func trimField(s string) string {
	return strings.Trim(strings.TrimSpace(s), " .,;:")
}

// splitSentences splits s at sentence-terminal periods.
func splitSentences(s string) []string {
	var parts []string
	for s != "" {
		i := sentenceEnd(s, 0)
		if i < 0 {
			parts = append(parts, strings.TrimSpace(s))
			break
		}
		seg := s[:i]
		if s[i] != '.' {
			seg = s[:i+1]
		}
		parts = append(parts, strings.TrimSpace(seg))
		s = strings.TrimLeft(s[i+1:], " ")
	}
	if len(parts) == 0 {
		parts = []string{""}
	}
	return parts
}

// sentenceEnd returns the index of the first sentence-terminal '.', '?' or
// '!' at or after from, or -1. A period ends a sentence only when followed
// by whitespace or end of text, and not when it closes an initial, a known
// abbreviation, or an ellipsis.
func sentenceEnd(s string, from int) int {
	for i := from; i < len(s); i++ {
		c := s[i]
		if c != '.' && c != '?' && c != '!' {
			continue
		}
		if i+1 < len(s) && s[i+1] != ' ' && s[i+1] != '\t' {
			continue
		}
		if c == '.' {
			if i > 0 && s[i-1] == '.' {
				continue
			}
			if isAbbreviation(s[:i]) {
				continue
			}
		}
		return i
	}
	return -1
}

// isAbbreviation reports whether the token ending prefix is an initial or
// a known abbreviation.
func isAbbreviation(prefix string) bool {
	tok := prefix
	if i := strings.LastIndexAny(prefix, " \t("); i >= 0 {
		tok = prefix[i+1:]
	}
	if tok == "" {
		return false
	}
	r := []rune(tok)
	if len(r) == 1 && unicode.IsUpper(r[0]) {
		return true
	}
	return rules.Abbreviations[strings.ToLower(tok)]
}
