// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validator

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/refresolve/internal/scorer"
	"github.com/pdiddy/refresolve/pkg/types"
)

// Matcher decides whether retrieved text is the referenced work.
type Matcher interface {
	Match(ctx context.Context, ref *types.Reference, text string) (types.ContentMatch, error)
}

// matcherKind names the matcher for cache keys, so results from different
// matchers are never mixed.
func matcherKind(m Matcher) string {
	switch m.(type) {
	case BasicMatcher:
		return "basic"
	case LLMMatcher:
		return "llm"
	}
	return fmt.Sprintf("%T", m)
}

// cutRunes shortens s to at most n bytes without splitting a rune.
func cutRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Completer is a text-completion service.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const maxTitleTokens = 10

var matchStopwords = map[string]bool{
	"with": true, "from": true, "that": true, "this": true, "their": true, "there": true,
	"which": true, "what": true, "when": true, "where": true, "into": true, "about": true,
	"over": true, "under": true, "than": true, "them": true, "they": true, "have": true,
	"been": true, "were": true, "your": true, "some": true, "more": true, "most": true,
}

// BasicMatcher looks for the reference's title and author tokens in the text.
type BasicMatcher struct {
	// Threshold is the confidence that counts as a match.
	Threshold float64
}

// Match scores the share of significant title tokens found in text, with a
// bonus when an author surname appears. A reference without usable tokens
// cannot be checked and counts as a weak match.
func (m BasicMatcher) Match(_ context.Context, ref *types.Reference, text string) (types.ContentMatch, error) {
	titleToks := titleTokens(ref.Title)
	authorToks := authorTokens(ref.Authors)
	if len(titleToks) == 0 && len(authorToks) == 0 {
		return types.ContentMatch{Matched: true, Confidence: 0.5}, nil
	}

	have := make(map[string]bool)
	for _, t := range strings.Fields(scorer.NormalizeTitle(text)) {
		have[t] = true
	}

	coverage := 0.0
	if len(titleToks) > 0 {
		hit := 0
		for _, t := range titleToks {
			if have[t] {
				hit++
			}
		}
		coverage = float64(hit) / float64(len(titleToks))
	}

	authorHit := 0.0
	for _, t := range authorToks {
		if have[t] {
			authorHit = 1
			break
		}
	}

	var conf float64
	switch {
	case len(authorToks) == 0:
		conf = coverage
	case len(titleToks) == 0:
		conf = authorHit
	default:
		conf = 0.8*coverage + 0.2*authorHit
	}
	conf = math.Round(conf*100) / 100
	return types.ContentMatch{Matched: conf >= m.Threshold, Confidence: conf}, nil
}

func titleTokens(title string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range strings.Fields(scorer.NormalizeTitle(title)) {
		if len(t) <= 3 || matchStopwords[t] || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == maxTitleTokens {
			break
		}
	}
	return out
}

// authorTokens returns surname-like tokens; initials and joiners are dropped.
func authorTokens(authors string) []string {
	var out []string
	for _, t := range strings.Fields(scorer.NormalizeTitle(authors)) {
		if len(t) < 3 || t == "and" || t == "others" {
			continue
		}
		out = append(out, t)
	}
	return out
}

var matchScoreRe = regexp.MustCompile(`(?i)MATCH:\s*(\d{1,3})`)

// llmMatchThreshold is the model score (0-100) treated as a match.
const llmMatchThreshold = 70

// LLMMatcher asks a language model whether the text is the referenced work
// and falls back to Fallback when the call fails or the reply is unusable.
type LLMMatcher struct {
	Client   Completer
	Fallback Matcher

	// MaxChars bounds the page text included in the prompt.
	MaxChars int
}

// Match implements Matcher.
func (m LLMMatcher) Match(ctx context.Context, ref *types.Reference, text string) (types.ContentMatch, error) {
	limit := m.MaxChars
	if limit <= 0 {
		limit = 6000
	}
	text = cutRunes(text, limit)

	prompt := fmt.Sprintf(`You are checking whether a web page contains a specific published work.

Reference:
  Authors: %s
  Year: %s
  Title: %s
  Publication: %s

Page text (truncated):
%s

Does this page contain or directly present the referenced work itself (not a review, listing or citation of it)?
Reply with a single line of the form "MATCH: <0-100>" giving your confidence.`,
		ref.Authors, ref.Year, ref.Title, ref.Publication, text)

	reply, err := m.Client.Complete(ctx, prompt)
	if err == nil {
		if sm := matchScoreRe.FindStringSubmatch(reply); sm != nil {
			n, _ := strconv.Atoi(sm[1])
			n = min(n, 100)
			return types.ContentMatch{Matched: n >= llmMatchThreshold, Confidence: float64(n) / 100}, nil
		}
		err = fmt.Errorf("unrecognized reply %q", reply)
	}
	if m.Fallback == nil {
		return types.ContentMatch{}, fmt.Errorf("matching %s: %w", ref.ID, err)
	}
	return m.Fallback.Match(ctx, ref, text)
}
