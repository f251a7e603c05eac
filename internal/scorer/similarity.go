// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scorer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	editionRe  = regexp.MustCompile(`\b(?:\d+(?:st|nd|rd|th)|first|second|third|fourth|fifth|revised|updated|expanded|new|anniversary)\s+(?:edition|ed)\b|\bedition\b`)
	subtitleRe = regexp.MustCompile(`\s*(?::|\s[-–—|]\s).*$`)
)

// foldDiacritics strips combining marks so "Économie" compares equal to
// "economie". A new transformer is built per call because transformers
// keep state.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeTitle lowercases s, folds diacritics, drops edition markers and
// replaces punctuation with spaces.
func NormalizeTitle(s string) string {
	s = strings.ToLower(foldDiacritics(s))
	s = editionRe.ReplaceAllString(s, " ")
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// mainTitle removes a subtitle or site suffix ("Title: Sub", "Title - Site").
func mainTitle(s string) string {
	return strings.TrimSpace(subtitleRe.ReplaceAllString(s, ""))
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}

// tokenSimilarity returns max(Dice coefficient, coverage of ref tokens in
// cand). Coverage only counts when ref has at least two tokens, so a
// one-word title does not match every page that mentions the word.
func tokenSimilarity(cand, ref string) float64 {
	a, b := tokenSet(cand), tokenSet(ref)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	common := 0
	for t := range b {
		if a[t] {
			common++
		}
	}
	dice := 2 * float64(common) / float64(len(a)+len(b))
	if len(b) < 2 {
		return dice
	}
	coverage := float64(common) / float64(len(b))
	if coverage > dice {
		return coverage
	}
	return dice
}

// TitleSimilarity compares a candidate title against a reference title,
// tolerating case, punctuation, subtitles and edition markers. The result
// is in [0,1].
func TitleSimilarity(candidate, reference string) float64 {
	if strings.TrimSpace(candidate) == "" || strings.TrimSpace(reference) == "" {
		return 0
	}
	cands := []string{NormalizeTitle(candidate), NormalizeTitle(mainTitle(candidate))}
	refs := []string{NormalizeTitle(reference), NormalizeTitle(mainTitle(reference))}

	best := 0.0
	for _, c := range cands {
		for _, r := range refs {
			if c == "" || r == "" {
				continue
			}
			if c == r {
				return 1
			}
			if s := tokenSimilarity(c, r); s > best {
				best = s
			}
		}
	}
	return best
}

// snippetCoverage is the share of reference title tokens found in a snippet,
// discounted because snippets mention titles without being them.
func snippetCoverage(snippet, reference string) float64 {
	ref := tokenSet(NormalizeTitle(mainTitle(reference)))
	if len(ref) < 2 {
		return 0
	}
	text := tokenSet(NormalizeTitle(snippet))
	hit := 0
	for t := range ref {
		if text[t] {
			hit++
		}
	}
	return 0.9 * float64(hit) / float64(len(ref))
}

var foreignStopwords = map[string]bool{
	"der": true, "die": true, "das": true, "und": true, "von": true, "ein": true, "eine": true,
	"le": true, "la": true, "les": true, "des": true, "et": true, "du": true, "une": true,
	"el": true, "los": true, "las": true, "y": true, "del": true, "il": true, "di": true,
	"della": true, "och": true, "het": true, "een": true, "da": true, "em": true,
}

// isNonEnglishText guesses whether a title is not in English from its
// script and function words.
func isNonEnglishText(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	hits := 0
	for _, w := range strings.Fields(NormalizeTitle(s)) {
		if foreignStopwords[w] {
			hits++
		}
	}
	return hits >= 2
}
