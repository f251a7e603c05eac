// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scorer assigns Primary and Secondary scores to candidate URLs
// from domain authority, content-type classification and title
// similarity. Scoring is pure: no network access.
package scorer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pdiddy/refresolve/internal/rules"
	"github.com/pdiddy/refresolve/pkg/types"
)

// Scorer scores candidates for one configuration.
type Scorer struct {
	cfg types.ScoringConfig
}

// New returns a Scorer. Zero fields in cfg take their defaults.
func New(cfg types.ScoringConfig) *Scorer {
	def := types.DefaultScoringConfig()
	if cfg.PrimaryGate <= 0 {
		cfg.PrimaryGate = def.PrimaryGate
	}
	if cfg.SecondaryGate <= 0 {
		cfg.SecondaryGate = def.SecondaryGate
	}
	if cfg.ExclusivityThreshold <= 0 {
		cfg.ExclusivityThreshold = def.ExclusivityThreshold
	}
	if cfg.ExclusivityCap <= 0 {
		cfg.ExclusivityCap = def.ExclusivityCap
	}
	if cfg.NonEnglishCap <= 0 {
		cfg.NonEnglishCap = def.NonEnglishCap
	}
	if cfg.NotPrimaryCap <= 0 {
		cfg.NotPrimaryCap = def.NotPrimaryCap
	}
	return &Scorer{cfg: cfg}
}

// Config returns the effective configuration.
func (s *Scorer) Config() types.ScoringConfig { return s.cfg }

// PrimaryEligible reports whether a title similarity passes the Primary gate.
// The gate is inclusive.
func (s *Scorer) PrimaryEligible(sim float64) bool { return sim >= s.cfg.PrimaryGate }

// SecondaryEligible reports whether a title similarity passes the Secondary gate.
func (s *Scorer) SecondaryEligible(sim float64) bool { return sim >= s.cfg.SecondaryGate }

// Similarity is the title similarity of c against the reference title,
// taking the better of the candidate title and its snippet.
func Similarity(c types.Candidate, ref *types.Reference) float64 {
	sim := TitleSimilarity(c.Title, ref.Title)
	if sc := snippetCoverage(c.Snippet, ref.Title); sc > sim {
		sim = sc
	}
	return math.Round(sim*1000) / 1000
}

// Score classifies c and computes both scores against ref. The returned
// candidate is a copy; c is not modified.
func (s *Scorer) Score(c types.Candidate, ref *types.Reference) types.Candidate {
	c.Reasons = nil
	host := hostOf(c.URL)
	if c.DisplayDomain == "" {
		c.DisplayDomain = host
	}
	c.Classification = Classify(c)
	c.Similarity = Similarity(c, ref)

	var primary, secondary int
	primary, c.Reasons = s.primaryScore(c, ref, host, c.Reasons)
	secondary, c.Reasons = s.secondaryScore(c, ref, host, c.Reasons)
	c.Scores = types.Scores{Primary: primary, Secondary: secondary}

	return s.Enforce(c, ref)
}

// ScoreAll scores every candidate and returns them ordered by their best
// score, highest first. Ties keep search order.
func (s *Scorer) ScoreAll(cands []types.Candidate, ref *types.Reference) []types.Candidate {
	out := make([]types.Candidate, len(cands))
	for i, c := range cands {
		out[i] = s.Score(c, ref)
	}
	Sort(out)
	return out
}

// Sort orders candidates by their best score, highest first, keeping the
// existing order among ties.
func Sort(cands []types.Candidate) {
	sort.SliceStable(cands, func(i, j int) bool { return best(cands[i]) > best(cands[j]) })
}

func best(c types.Candidate) int {
	if c.Scores.Primary > c.Scores.Secondary {
		return c.Scores.Primary
	}
	return c.Scores.Secondary
}

// Enforce re-applies the hard rules to scores that may have been adjusted
// after Score (for example by an external ranking): the similarity gates,
// auto-rejects and the mutual exclusivity cap.
func (s *Scorer) Enforce(c types.Candidate, ref *types.Reference) types.Candidate {
	host := hostOf(c.URL)
	if !s.PrimaryEligible(c.Similarity) || isAggregator(host) {
		c.Scores.Primary = 0
	}
	if !s.SecondaryEligible(c.Similarity) || SameSource(c.URL, ref.URLs.Primary) {
		c.Scores.Secondary = 0
	}
	if c.Scores.Primary >= s.cfg.ExclusivityThreshold && c.Scores.Secondary > s.cfg.ExclusivityCap {
		c.Scores.Secondary = s.cfg.ExclusivityCap
		c.Reasons = append(c.Reasons, fmt.Sprintf("secondary capped at %d: reads as the work itself", s.cfg.ExclusivityCap))
	}
	c.Scores.Primary = clamp(c.Scores.Primary)
	c.Scores.Secondary = clamp(c.Scores.Secondary)
	return c
}

// SameSource reports whether two URLs are identical or share a
// registrable domain. An empty URL never matches.
func SameSource(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	da, db := RegistrableDomain(a), RegistrableDomain(b)
	return da != "" && da == db
}

func (s *Scorer) primaryScore(c types.Candidate, ref *types.Reference, host string, reasons []string) (int, []string) {
	if isAggregator(host) {
		return 0, append(reasons, "primary rejected: aggregator or catalog domain")
	}
	if !s.PrimaryEligible(c.Similarity) {
		return 0, append(reasons, fmt.Sprintf("primary rejected: title similarity %.3f below %.2f", c.Similarity, s.cfg.PrimaryGate))
	}

	base, label := primaryAuthority(host)
	score := base
	reasons = append(reasons, fmt.Sprintf("authority %s (%d)", label, base))

	switch c.Classification {
	case types.FullText:
		score += 10
	case types.PurchasePage:
		score -= 10
	case types.Unknown:
		if matches(rules.LandingPaths, pathOf(c.URL)) {
			score += 5
		}
	}

	span := 1 - s.cfg.PrimaryGate
	if span > 0 {
		score += int(math.Round(10 * (c.Similarity - s.cfg.PrimaryGate) / span))
	}

	if c.Classification == types.Review || c.Classification == types.Listing {
		if score > s.cfg.NotPrimaryCap {
			score = s.cfg.NotPrimaryCap
			reasons = append(reasons, fmt.Sprintf("primary capped at %d: %s", s.cfg.NotPrimaryCap, c.Classification))
		}
	}

	if nonEnglishDomain(c.URL) && !isNonEnglishText(ref.Title) && score > s.cfg.NonEnglishCap {
		score = s.cfg.NonEnglishCap
		reasons = append(reasons, fmt.Sprintf("primary capped at %d: non-English source", s.cfg.NonEnglishCap))
	}

	return clamp(score), reasons
}

func (s *Scorer) secondaryScore(c types.Candidate, ref *types.Reference, host string, reasons []string) (int, []string) {
	if SameSource(c.URL, ref.URLs.Primary) {
		return 0, append(reasons, "secondary rejected: same source as primary")
	}
	if !s.SecondaryEligible(c.Similarity) {
		return 0, append(reasons, fmt.Sprintf("secondary rejected: title similarity %.3f below %.2f", c.Similarity, s.cfg.SecondaryGate))
	}

	auth, authLabel := secondaryAuthority(host)
	rel, relLabel := relationship(c, ref, auth)
	score := int(math.Round(0.6*float64(rel) + 0.4*float64(auth)))
	reasons = append(reasons, fmt.Sprintf("relationship %s (%d), source %s (%d)", relLabel, rel, authLabel, auth))

	if c.Classification == types.Listing && score > s.cfg.NotPrimaryCap {
		score = s.cfg.NotPrimaryCap
	}
	return clamp(score), reasons
}

// relationship rates how the candidate relates to the work: scholarly
// review > general discussion > citation mention > bibliography listing.
func relationship(c types.Candidate, ref *types.Reference, authority int) (int, string) {
	text := c.Title + " " + c.Snippet
	switch {
	case c.Classification == types.Review && authority >= 85:
		return 95, "scholarly review"
	case c.Classification == types.Review:
		return 85, "review"
	case c.Classification == types.Listing:
		return 50, "bibliography listing"
	case c.Classification == types.PurchasePage:
		return 15, "purchase page"
	case matches(rules.DiscussionPhrases, text):
		return 75, "general discussion"
	case mentions(c.Snippet, ref):
		return 60, "citation mention"
	}
	return 35, "no commentary"
}

// mentions reports whether a snippet names the first author's surname or
// most of the title.
func mentions(snippet string, ref *types.Reference) bool {
	if surname := FirstSurname(ref.Authors); surname != "" && strings.Contains(strings.ToLower(snippet), surname) {
		return true
	}
	return snippetCoverage(snippet, ref.Title) >= 0.5
}

// FirstSurname returns the lowercased surname of the first listed author, or
// "" when it is too short to be useful.
func FirstSurname(authors string) string {
	a := strings.TrimSpace(authors)
	if i := strings.IndexAny(a, ",&("); i > 0 {
		a = a[:i]
	}
	fields := strings.Fields(a)
	if len(fields) == 0 {
		return ""
	}
	s := strings.ToLower(fields[0])
	if len(s) < 3 {
		return ""
	}
	return s
}

// Classify infers the content type of a candidate from its URL, title and
// snippet.
func Classify(c types.Candidate) types.Classification {
	host, path := hostOf(c.URL), pathOf(c.URL)
	text := c.Title + " " + c.Snippet
	switch {
	case hostMatches(host, purchaseHosts) || matches(rules.PurchasePaths, path):
		return types.PurchasePage
	case matches(rules.ReviewPhrases, c.Title) || matches(rules.ReviewPaths, path):
		return types.Review
	case isAggregator(host) || matches(rules.TOCPaths, path) || matches(rules.AuthorBibliographyPaths, path):
		return types.Listing
	case matches(rules.FullTextPaths, path) || hostMatches(host, []string{"doi.org", "dx.doi.org"}) || matches(rules.FullTextHints, text):
		return types.FullText
	}
	return types.Unknown
}

func matches(t rules.Table, s string) bool {
	_, ok := t.First(s)
	return ok
}

func clamp(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
