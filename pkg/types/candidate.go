// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Classification is the content type inferred for a candidate URL.
type Classification int

const (
	Unknown Classification = iota
	FullText
	Review
	Listing
	PurchasePage
)

// String returns a lowercase label for the classification.
func (c Classification) String() string {
	switch c {
	case FullText:
		return "full_text"
	case Review:
		return "review"
	case Listing:
		return "listing"
	case PurchasePage:
		return "purchase_page"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so reports show the label.
func (c Classification) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Scores holds the two ranking scores of a candidate, each in [0,100].
type Scores struct {
	Primary   int `json:"primary" yaml:"primary"`
	Secondary int `json:"secondary" yaml:"secondary"`
}

// Candidate is a URL surfaced by the search step for one reference.
type Candidate struct {
	URL           string `json:"url" yaml:"url"`
	Title         string `json:"title" yaml:"title"`
	Snippet       string `json:"snippet" yaml:"snippet"`
	DisplayDomain string `json:"display_domain" yaml:"display_domain"`

	Scores         Scores         `json:"scores" yaml:"scores"`
	Classification Classification `json:"classification" yaml:"classification"`

	// Similarity is the title similarity computed by the scorer.
	Similarity float64 `json:"similarity" yaml:"similarity"`

	// Reasons collects human-readable notes from scoring and ranking.
	Reasons []string `json:"reasons,omitempty" yaml:"reasons,omitempty"`
}

// SearchHit is one result returned by the search service.
type SearchHit struct {
	URL     string `json:"url" yaml:"url"`
	Title   string `json:"title" yaml:"title"`
	Snippet string `json:"snippet" yaml:"snippet"`
	Domain  string `json:"domain" yaml:"domain"`
}

// Candidate converts the hit into an unscored candidate.
func (h SearchHit) Candidate() Candidate {
	return Candidate{URL: h.URL, Title: h.Title, Snippet: h.Snippet, DisplayDomain: h.Domain}
}
