// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recordstore

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pdiddy/refresolve/internal/parser"
	"github.com/pdiddy/refresolve/internal/rules"
	"github.com/pdiddy/refresolve/pkg/types"
)

// File is the content of a records file.
type File struct {
	References []*types.Reference

	// Skipped lists lines that could not be parsed (no [id] token).
	Skipped []*types.ParseError

	// Legacy reports whether the multi-line layout was detected.
	Legacy bool
}

// Find returns the reference with the given id, or nil.
func (f *File) Find(id string) *types.Reference {
	for _, r := range f.References {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// ParseLine parses one single-line record.
func ParseLine(line string) (*types.Reference, error) {
	line = strings.TrimRight(line, "\r")

	head, tail := line, map[string]string(nil)
	if i := findTail(line); i >= 0 {
		head = strings.TrimSuffix(line[:i], " ")
		tail = scanTail(line[i:])
	}

	var relevance string
	hasRelevance := false
	if loc := rules.RelevancePattern.FindStringIndex(head); loc != nil {
		relevance = Unescape(head[loc[1]:])
		head = head[:loc[0]]
		hasRelevance = true
	}

	ref, err := parser.Parse(head)
	if err != nil {
		return nil, err
	}

	if hasRelevance {
		ref.RelevanceText = relevance
		if relevance != "" {
			ref.Confidence[types.FieldRelevance] = types.ConfidenceFound
		} else {
			ref.Confidence[types.FieldRelevance] = types.ConfidenceMissing
		}
	}

	applyTail(ref, tail)
	collectBracketFlags(ref, line)
	setParent(ref)
	return ref, nil
}

func applyTail(ref *types.Reference, tail map[string]string) {
	if v, ok := tail[tokenFlags]; ok {
		for _, f := range types.ParseFlags(Unescape(v)) {
			ref.Flags.Add(f)
		}
	}
	if v, ok := tail[tokenPrimary]; ok {
		ref.URLs.Primary = Unescape(v)
	}
	if v, ok := tail[tokenSecondary]; ok {
		ref.URLs.Secondary = Unescape(v)
	}
	if v, ok := tail[tokenTertiary]; ok {
		ref.URLs.Tertiary = Unescape(v)
	}
}

// legacyFlagTag matches the old bracketed flags, e.g. [FINALIZED].
var legacyFlagTag = regexp.MustCompile(`\[(FINALIZED|MANUAL_REVIEW|INSTANCE)\]`)

// collectBracketFlags reads legacy bracket flags that appear before any
// tail token.
func collectBracketFlags(ref *types.Reference, line string) {
	if i := findTail(line); i >= 0 {
		line = line[:i]
	}
	for _, m := range legacyFlagTag.FindAllStringSubmatch(line, -1) {
		ref.Flags.Add(types.Flag(m[1]))
	}
}

func setParent(ref *types.Reference) {
	if ref.ParentID == "" && strings.Contains(ref.ID, ".") {
		ref.ParentID = types.BaseRID(ref.ID)
	}
}

// Read parses a records file. The layout is detected from the first
// reference line: if it carries a FLAGS[ or PRIMARY_URL[ token the file
// is single-line, otherwise it is read with the legacy multi-line reader.
// Lines without an [id] are reported in File.Skipped, never as an error.
func Read(r io.Reader) (*File, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	f := &File{Legacy: detectLegacy(lines)}
	if f.Legacy {
		readLegacy(f, lines)
		return f, nil
	}

	for n, line := range lines {
		if strings.TrimSpace(line) == "" || isComment(line) {
			continue
		}
		ref, err := ParseLine(line)
		if err != nil {
			f.Skipped = append(f.Skipped, &types.ParseError{Line: n + 1, Content: line, Err: types.ErrMissingID})
			continue
		}
		f.References = append(f.References, ref)
	}
	return f, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	return lines, nil
}

func isComment(line string) bool { return strings.HasPrefix(strings.TrimSpace(line), "#") }

func detectLegacy(lines []string) bool {
	for _, line := range lines {
		if !rules.IDPattern.MatchString(line) {
			continue
		}
		return !strings.Contains(line, "FLAGS[") && !strings.Contains(line, "PRIMARY_URL[")
	}
	return false
}

// Legacy continuation labels.
var (
	legacyURLLabel = regexp.MustCompile(`(?i)^(primary|secondary|tertiary)\s+url:\s*(.*)$`)
	legacyParent   = regexp.MustCompile(`(?i)^parent\s+rid:\s*\[?([^\]\s]+)\]?`)
	legacyBib      = regexp.MustCompile(`(?i)^bibliographic:\s*(.*)$`)
	legacyFlagLine = regexp.MustCompile(`^\[(?:FINALIZED|MANUAL_REVIEW|INSTANCE)\]`)
)

// readLegacy groups lines into entries that start at an [id] line and
// applies the continuation lines of each entry.
func readLegacy(f *File, lines []string) {
	var cur *types.Reference
	for n, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || isComment(line) {
			continue
		}

		if rules.IDPattern.MatchString(line) && !legacyFlagLine.MatchString(line) {
			ref, err := ParseLine(line)
			if err != nil {
				f.Skipped = append(f.Skipped, &types.ParseError{Line: n + 1, Content: raw, Err: err})
				cur = nil
				continue
			}
			f.References = append(f.References, ref)
			cur = ref
			continue
		}
		if cur == nil {
			f.Skipped = append(f.Skipped, &types.ParseError{Line: n + 1, Content: raw, Err: types.ErrMissingID})
			continue
		}
		applyContinuation(cur, line)
	}
}

func applyContinuation(ref *types.Reference, line string) {
	switch {
	case findTail(line) == 0:
		applyTail(ref, scanTail(line))
	case legacyURLLabel.MatchString(line):
		m := legacyURLLabel.FindStringSubmatch(line)
		u := strings.TrimSpace(m[2])
		switch strings.ToLower(m[1]) {
		case "primary":
			ref.URLs.Primary = u
		case "secondary":
			ref.URLs.Secondary = u
		case "tertiary":
			ref.URLs.Tertiary = u
		}
	case strings.HasPrefix(strings.ToLower(line), "relevance:"):
		ref.RelevanceText = strings.TrimSpace(line[len("relevance:"):])
		if ref.RelevanceText != "" {
			ref.Confidence[types.FieldRelevance] = types.ConfidenceFound
		}
	case legacyParent.MatchString(line):
		ref.ParentID = legacyParent.FindStringSubmatch(line)[1]
		ref.Flags.Add(types.FlagInstance)
	case legacyBib.MatchString(line):
		bib := legacyBib.FindStringSubmatch(line)[1]
		if parsed, err := parser.Parse("[" + ref.ID + "] " + bib); err == nil {
			ref.Authors, ref.Year, ref.Title, ref.Publication = parsed.Authors, parsed.Year, parsed.Title, parsed.Publication
			for _, fl := range []types.Field{types.FieldAuthors, types.FieldYear, types.FieldTitle, types.FieldPublication} {
				ref.Confidence[fl] = parsed.Confidence[fl]
			}
		}
	default:
		collectBracketFlags(ref, line)
	}
}
