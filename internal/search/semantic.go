// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/refresolve/internal/httputil"
	"github.com/pdiddy/refresolve/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,url,externalIds,openAccessPdf"

// SemanticScholarSearcher queries the Semantic Scholar API. A paper yields
// its open-access PDF when there is one, then its DOI, then its S2 page.
type SemanticScholarSearcher struct {
	Client    *http.Client
	APIKey    string
	Limit     int
	UserAgent string
}

// Name returns the backend identifier.
func (b *SemanticScholarSearcher) Name() string { return "semantic_scholar" }

// Search queries the Semantic Scholar API and returns hits.
func (b *SemanticScholarSearcher) Search(ctx context.Context, query string) ([]types.SearchHit, error) {
	q := stripOperators(query)
	if q == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}

	limit := b.Limit
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{
		"query":  {q},
		"limit":  {strconv.Itoa(limit)},
		"fields": {semanticFields},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var hits []types.SearchHit
	for _, paper := range sr.Data {
		link := paper.URL
		switch {
		case paper.OpenAccessPDF != nil && paper.OpenAccessPDF.URL != "":
			link = paper.OpenAccessPDF.URL
		case paper.ExternalIDs.DOI != "":
			link = "https://doi.org/" + paper.ExternalIDs.DOI
		}
		if link == "" {
			continue
		}
		hits = append(hits, types.SearchHit{
			URL:     link,
			Title:   paper.Title,
			Snippet: truncate(paper.Abstract, snippetLen),
			Domain:  hostOf(link),
		})
	}
	return hits, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string              `json:"paperId"`
	Title         string              `json:"title"`
	Abstract      string              `json:"abstract"`
	URL           string              `json:"url"`
	ExternalIDs   semanticExternalIDs `json:"externalIds"`
	OpenAccessPDF *semanticPDF        `json:"openAccessPdf"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

type semanticPDF struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}
