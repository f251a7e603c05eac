// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/refresolve/pkg/types"
)

func kahneman() *types.Reference {
	return &types.Reference{
		ID:          "4",
		Authors:     "Kahneman, D.",
		Year:        "2011",
		Title:       "Thinking, Fast and Slow",
		Publication: "Farrar, Straus and Giroux",
	}
}

func TestGates_Inclusive(t *testing.T) {
	s := New(types.ScoringConfig{})
	assert.True(t, s.PrimaryEligible(0.55))
	assert.False(t, s.PrimaryEligible(0.549))
	assert.True(t, s.SecondaryEligible(0.45))
	assert.False(t, s.SecondaryEligible(0.449))
}

func TestScore_ArchiveFullText(t *testing.T) {
	s := New(types.DefaultScoringConfig())
	c := s.Score(types.Candidate{
		URL:   "https://archive.org/details/thinkingfastslow",
		Title: "Thinking, Fast and Slow",
	}, kahneman())

	assert.Equal(t, types.FullText, c.Classification)
	assert.Equal(t, 1.0, c.Similarity)
	assert.Equal(t, 100, c.Scores.Primary)
	assert.LessOrEqual(t, c.Scores.Secondary, 30)
	assert.Equal(t, "archive.org", c.DisplayDomain)
}

func TestScore_AggregatorNeverPrimary(t *testing.T) {
	s := New(types.DefaultScoringConfig())
	c := s.Score(types.Candidate{
		URL:   "https://www.worldcat.org/title/123",
		Title: "Thinking, Fast and Slow",
	}, kahneman())

	assert.Equal(t, 0, c.Scores.Primary)
	assert.Equal(t, types.Listing, c.Classification)
	assert.Contains(t, c.Reasons[0], "aggregator")
}

func TestScore_ReviewIsSecondary(t *testing.T) {
	s := New(types.DefaultScoringConfig())
	c := s.Score(types.Candidate{
		URL:   "https://www.jstor.org/stable/123",
		Title: "Review of Thinking, Fast and Slow",
	}, kahneman())

	assert.Equal(t, types.Review, c.Classification)
	assert.LessOrEqual(t, c.Scores.Primary, 55)
	assert.Equal(t, 95, c.Scores.Secondary)
}

func TestScore_GeneralDiscussion(t *testing.T) {
	s := New(types.DefaultScoringConfig())
	c := s.Score(types.Candidate{
		URL:     "https://www.nytimes.com/2011/11/27/arts/kahneman.html",
		Title:   "Thinking, Fast and Slow by Daniel Kahneman",
		Snippet: "Kahneman argues that we have two systems of thought.",
	}, kahneman())

	assert.Equal(t, types.Unknown, c.Classification)
	assert.Equal(t, 40, c.Scores.Primary)
	assert.Equal(t, 73, c.Scores.Secondary)
}

func TestScore_SameSourceAsPrimaryRejected(t *testing.T) {
	ref := kahneman()
	ref.URLs.Primary = "https://archive.org/details/tfas"

	s := New(types.DefaultScoringConfig())
	c := s.Score(types.Candidate{
		URL:   "https://blog.archive.org/review-of-tfas",
		Title: "Review of Thinking, Fast and Slow",
	}, ref)

	assert.Equal(t, 0, c.Scores.Secondary)
	assert.Contains(t, c.Reasons, "secondary rejected: same source as primary")
}

func TestScore_BelowGates(t *testing.T) {
	s := New(types.DefaultScoringConfig())
	c := s.Score(types.Candidate{
		URL:   "https://archive.org/details/castiron",
		Title: "Cooking with Cast Iron",
	}, kahneman())

	assert.Equal(t, 0, c.Scores.Primary)
	assert.Equal(t, 0, c.Scores.Secondary)
	assert.Less(t, c.Similarity, 0.45)
}

func TestScore_NonEnglishCap(t *testing.T) {
	s := New(types.DefaultScoringConfig())

	english := s.Score(types.Candidate{
		URL:   "https://www.springer.com/de/book/9783",
		Title: "Thinking, Fast and Slow",
	}, kahneman())
	assert.Equal(t, 70, english.Scores.Primary)

	german := &types.Reference{ID: "9", Title: "Die Theorie der feinen Leute"}
	native := s.Score(types.Candidate{
		URL:   "https://www.springer.com/de/book/9783",
		Title: "Die Theorie der feinen Leute",
	}, german)
	assert.Equal(t, 97, native.Scores.Primary)
	assert.LessOrEqual(t, native.Scores.Secondary, 30)
}

func TestScoreAll_MutualExclusivity(t *testing.T) {
	s := New(types.DefaultScoringConfig())
	cands := []types.Candidate{
		{URL: "https://www.nytimes.com/2011/books/kahneman.html", Title: "Thinking, Fast and Slow", Snippet: "Kahneman argues that intuition misleads."},
		{URL: "https://archive.org/details/tfas", Title: "Thinking, Fast and Slow"},
		{URL: "https://www.jstor.org/stable/1", Title: "Thinking, Fast and Slow", Snippet: "Full text available."},
		{URL: "https://www.amazon.com/dp/0374533555", Title: "Thinking, Fast and Slow: Kahneman"},
		{URL: "https://www.goodreads.com/book/show/11468377", Title: "Thinking, Fast and Slow"},
	}

	got := s.ScoreAll(cands, kahneman())
	assert.Len(t, got, len(cands))
	assert.Equal(t, "https://archive.org/details/tfas", got[0].URL)
	for _, c := range got {
		if c.Scores.Primary >= 70 {
			assert.LessOrEqual(t, c.Scores.Secondary, 30, c.URL)
		}
		assert.GreaterOrEqual(t, c.Scores.Primary, 0)
		assert.LessOrEqual(t, c.Scores.Primary, 100)
	}
}

func TestEnforce(t *testing.T) {
	s := New(types.DefaultScoringConfig())
	ref := kahneman()

	blended := s.Enforce(types.Candidate{
		URL:        "https://example.com/a",
		Similarity: 0.5,
		Scores:     types.Scores{Primary: 80, Secondary: 60},
	}, ref)
	assert.Equal(t, 0, blended.Scores.Primary)
	assert.Equal(t, 60, blended.Scores.Secondary)

	capped := s.Enforce(types.Candidate{
		URL:        "https://example.com/a",
		Similarity: 0.9,
		Scores:     types.Scores{Primary: 80, Secondary: 60},
	}, ref)
	assert.Equal(t, 80, capped.Scores.Primary)
	assert.Equal(t, 30, capped.Scores.Secondary)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		c    types.Candidate
		want types.Classification
	}{
		{"retailer", types.Candidate{URL: "https://www.amazon.com/dp/0374533555"}, types.PurchasePage},
		{"catalog", types.Candidate{URL: "https://www.goodreads.com/book/show/1"}, types.Listing},
		{"faculty page", types.Candidate{URL: "https://psych.example.edu/faculty/smith/"}, types.Listing},
		{"pdf", types.Candidate{URL: "https://arxiv.org/pdf/1234.5678.pdf"}, types.FullText},
		{"doi", types.Candidate{URL: "https://doi.org/10.1126/science.185.4157.1124"}, types.FullText},
		{"review path", types.Candidate{URL: "https://example.com/reviews/tfas"}, types.Review},
		{"review title", types.Candidate{URL: "https://example.com/x", Title: "A Critique of Dual Process Theory"}, types.Review},
		{"plain page", types.Candidate{URL: "https://example.com/page", Title: "Something"}, types.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.c))
		})
	}
}

func TestTitleSimilarity(t *testing.T) {
	ref := "Thinking, Fast and Slow"
	assert.Equal(t, 1.0, TitleSimilarity("THINKING FAST AND SLOW", ref))
	assert.Equal(t, 1.0, TitleSimilarity("Thinking, Fast and Slow: Summary and Notes", ref))
	assert.Equal(t, 1.0, TitleSimilarity("Thinking, Fast and Slow (2nd edition)", ref))
	assert.Equal(t, 1.0, TitleSimilarity("Économie Politique", "Economie politique"))
	assert.Less(t, TitleSimilarity("Cooking with Cast Iron", ref), 0.45)
	assert.Equal(t, 0.0, TitleSimilarity("", ref))
}

func TestRegistrableDomain(t *testing.T) {
	assert.Equal(t, "example.co.uk", RegistrableDomain("https://blog.example.co.uk/x"))
	assert.Equal(t, "archive.org", RegistrableDomain("https://www.archive.org/details/a"))
	assert.Equal(t, "", RegistrableDomain("not a url"))
	assert.True(t, SameSource("https://a.jstor.org/1", "https://www.jstor.org/2"))
	assert.False(t, SameSource("", ""))
}
