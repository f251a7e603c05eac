// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/refresolve/internal/httputil"
	"github.com/pdiddy/refresolve/pkg/types"
)

// googleSearchBase is the Custom Search JSON API endpoint. Declared as a
// var so tests can substitute an httptest server.
var googleSearchBase = "https://www.googleapis.com/customsearch/v1"

// googleMaxResults is the per-request ceiling of the Custom Search API.
const googleMaxResults = 10

// ErrNoCredentials is returned by a searcher that needs keys it was not given.
var ErrNoCredentials = errors.New("search credentials not configured")

// GoogleSearcher queries the Google Custom Search JSON API.
type GoogleSearcher struct {
	Client    *http.Client
	APIKey    string
	EngineID  string
	Num       int
	UserAgent string
}

// NewGoogleSearcher builds a searcher from cfg.
func NewGoogleSearcher(cfg types.SearchConfig) *GoogleSearcher {
	return &GoogleSearcher{
		Client:    &http.Client{Timeout: cfg.Timeout},
		APIKey:    cfg.APIKey,
		EngineID:  cfg.EngineID,
		Num:       cfg.ResultsPerQuery,
		UserAgent: cfg.UserAgent,
	}
}

// Name returns the backend identifier.
func (g *GoogleSearcher) Name() string { return "google" }

// Search runs query and returns up to Num hits.
func (g *GoogleSearcher) Search(ctx context.Context, query string) ([]types.SearchHit, error) {
	if g.APIKey == "" || g.EngineID == "" {
		return nil, fmt.Errorf("google: %w", ErrNoCredentials)
	}
	if query == "" {
		return nil, fmt.Errorf("empty Google query")
	}

	num := g.Num
	if num <= 0 || num > googleMaxResults {
		num = googleMaxResults
	}
	params := url.Values{
		"key": {g.APIKey},
		"cx":  {g.EngineID},
		"q":   {query},
		"num": {strconv.Itoa(num)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Google Custom Search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Google Custom Search returned HTTP %d", resp.StatusCode)
	}

	var gr googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("parsing Google response: %w", err)
	}

	hits := make([]types.SearchHit, 0, len(gr.Items))
	for _, it := range gr.Items {
		if it.Link == "" {
			continue
		}
		domain := it.DisplayLink
		if domain == "" {
			domain = hostOf(it.Link)
		}
		hits = append(hits, types.SearchHit{
			URL:     it.Link,
			Title:   it.Title,
			Snippet: it.Snippet,
			Domain:  domain,
		})
	}
	return hits, nil
}

// Custom Search API JSON structures.
type googleResponse struct {
	Items []googleItem `json:"items"`
}

type googleItem struct {
	Link        string `json:"link"`
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
}
