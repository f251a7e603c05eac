// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package recordstore reads and writes the persisted reference records:
// one line per reference,
//
//	[id] author (year). title. publication. Relevance: <text> FLAGS[<tokens>] PRIMARY_URL[<url>] SECONDARY_URL[<url>] TERTIARY_URL[<url>]
//
// Relevance text and URLs are escaped so the line round-trips losslessly.
// The older multi-line layout is still readable; writing always produces
// the single-line layout.
package recordstore

import (
	"strings"

	"github.com/pdiddy/refresolve/pkg/types"
)

// Tail token names in the order they are written.
const (
	tokenFlags     = "FLAGS"
	tokenPrimary   = "PRIMARY_URL"
	tokenSecondary = "SECONDARY_URL"
	tokenTertiary  = "TERTIARY_URL"
)

var tailTokens = []string{tokenFlags, tokenPrimary, tokenSecondary, tokenTertiary}

var escaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`, "\n", `\n`, "\r", `\r`)

// Escape protects brackets, backslashes, newlines and carriage returns
// inside relevance text and URLs.
func Escape(s string) string { return escaper.Replace(s) }

// Unescape reverses Escape. Unknown escape sequences are kept verbatim.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		switch s[i+1] {
		case '\\', '[', ']':
			b.WriteByte(s[i+1])
			i++
		case 'n':
			b.WriteByte('\n')
			i++
		case 'r':
			b.WriteByte('\r')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Format renders ref as a single record line.
func Format(ref *types.Reference) string {
	var b strings.Builder
	b.WriteString("[" + ref.ID + "]")
	if bib := FormatBibliography(ref); bib != "" {
		b.WriteString(" " + bib)
	}
	if ref.RelevanceText != "" {
		b.WriteString(" Relevance: " + Escape(ref.RelevanceText))
	}
	if len(ref.Flags) > 0 {
		b.WriteString(" " + tokenFlags + "[" + ref.Flags.String() + "]")
	}
	for _, u := range []struct{ name, url string }{
		{tokenPrimary, ref.URLs.Primary},
		{tokenSecondary, ref.URLs.Secondary},
		{tokenTertiary, ref.URLs.Tertiary},
	} {
		if u.url != "" {
			b.WriteString(" " + u.name + "[" + Escape(u.url) + "]")
		}
	}
	return b.String()
}

// FormatBibliography renders "author (year). title. publication." with
// empty parts omitted.
func FormatBibliography(ref *types.Reference) string {
	head := ref.Authors
	if ref.Year != "" {
		if head != "" {
			head += " "
		}
		head += "(" + ref.Year + ")"
	}

	var parts []string
	for _, p := range []string{head, ref.Title, ref.Publication} {
		if p == "" {
			continue
		}
		if !endsSentence(p) {
			p += "."
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

func endsSentence(s string) bool {
	switch s[len(s)-1] {
	case '.', '?', '!':
		return true
	}
	return false
}

// findTail returns the offset of the first tail token in line, or -1.
func findTail(line string) int {
	first := -1
	for _, name := range tailTokens {
		if i := strings.Index(line, name+"["); i >= 0 && (first < 0 || i < first) {
			first = i
		}
	}
	return first
}

// scanTail reads consecutive NAME[value] tokens starting at s. Values are
// returned escaped. Scanning stops at the first text that is not a token.
func scanTail(s string) map[string]string {
	out := make(map[string]string)
	for {
		s = strings.TrimLeft(s, " \t")
		name := ""
		for _, n := range tailTokens {
			if strings.HasPrefix(s, n+"[") {
				name = n
				break
			}
		}
		if name == "" {
			return out
		}
		s = s[len(name)+1:]
		end := closingBracket(s)
		if end < 0 {
			out[name] = s
			return out
		}
		out[name] = s[:end]
		s = s[end+1:]
	}
}

// closingBracket returns the index of the first unescaped ']' in s.
func closingBracket(s string) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case ']':
			return i
		}
	}
	return -1
}
