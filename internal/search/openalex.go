// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/refresolve/internal/httputil"
	"github.com/pdiddy/refresolve/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

const snippetLen = 300

// OpenAlexSearcher queries the OpenAlex API. Each work yields up to two
// hits: its open-access copy and its DOI landing page.
type OpenAlexSearcher struct {
	Client *http.Client
	// Email is sent as mailto parameter for polite pool access.
	Email     string
	PerPage   int
	UserAgent string
}

// Name returns the backend identifier.
func (b *OpenAlexSearcher) Name() string { return "openalex" }

// Search queries the OpenAlex API and returns hits.
func (b *OpenAlexSearcher) Search(ctx context.Context, query string) ([]types.SearchHit, error) {
	if query == "" {
		return nil, fmt.Errorf("empty OpenAlex query")
	}

	perPage := b.PerPage
	if perPage <= 0 {
		perPage = 10
	}
	if perPage > 200 {
		perPage = 200
	}

	params := url.Values{
		"search":   {stripOperators(query)},
		"per_page": {strconv.Itoa(perPage)},
		"page":     {"1"},
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	var hits []types.SearchHit
	for _, work := range oar.Results {
		snippet := truncate(reconstructAbstract(work.AbstractInvertedIndex), snippetLen)
		if oa := work.OpenAccess.OAURL; oa != "" {
			hits = append(hits, types.SearchHit{URL: oa, Title: work.Title, Snippet: snippet, Domain: hostOf(oa)})
		}
		if work.DOI != "" && work.DOI != work.OpenAccess.OAURL {
			doi := "https://doi.org/" + strings.TrimPrefix(work.DOI, "https://doi.org/")
			hits = append(hits, types.SearchHit{URL: doi, Title: work.Title, Snippet: snippet, Domain: "doi.org"})
		}
	}
	return hits, nil
}

// stripOperators removes web-search operators (site:, filetype:) and quotes
// that scholarly APIs treat as literal text.
func stripOperators(q string) string {
	var kept []string
	for _, f := range strings.Fields(strings.ReplaceAll(q, `"`, " ")) {
		lf := strings.ToLower(f)
		if strings.HasPrefix(lf, "site:") || strings.HasPrefix(lf, "filetype:") {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string             `json:"id"`
	Title                 string             `json:"title"`
	DOI                   string             `json:"doi"`
	AbstractInvertedIndex map[string][]int   `json:"abstract_inverted_index"`
	OpenAccess            openAlexOpenAccess `json:"open_access"`
}

type openAlexOpenAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}
