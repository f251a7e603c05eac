// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search holds the external collaborators of the resolve pipeline:
// query planning, web and scholarly search backends, semantic ranking and
// relevance writing. Searchers return raw hits; scoring happens elsewhere.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/refresolve/pkg/types"
)

// Searcher runs one query against a single search service.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string) ([]types.SearchHit, error)
}

// Output holds the merged hits of a gather and its statistics.
type Output struct {
	Hits        []types.SearchHit
	Queries     int
	DupsRemoved int
	Errors      []string
}

// defaultConcurrency bounds simultaneous search requests when the caller
// passes no limit.
const defaultConcurrency = 4

// Gather runs every query against every searcher, at most limit at a time,
// and merges the hits. Hits keep query order then searcher order so the
// result does not depend on which request finishes first. A failing
// searcher is reported in Output.Errors; Gather fails only when every
// request fails.
func Gather(ctx context.Context, queries []string, searchers []Searcher, limit int, w io.Writer) (Output, error) {
	if len(queries) == 0 {
		return Output{}, fmt.Errorf("no queries to run")
	}
	if len(searchers) == 0 {
		return Output{}, fmt.Errorf("no search backends configured")
	}
	if limit <= 0 {
		limit = defaultConcurrency
	}

	type slot struct {
		hits []types.SearchHit
		err  error
	}
	slots := make([]slot, len(queries)*len(searchers))

	var g errgroup.Group
	g.SetLimit(limit)
	for qi, q := range queries {
		for si, s := range searchers {
			i := qi*len(searchers) + si
			g.Go(func() error {
				hits, err := s.Search(ctx, q)
				slots[i] = slot{hits: hits, err: err}
				return nil
			})
		}
	}
	_ = g.Wait()

	var all []types.SearchHit
	var errs []string
	failed := 0
	for i, sl := range slots {
		if sl.err != nil {
			failed++
			s := searchers[i%len(searchers)]
			q := queries[i/len(searchers)]
			msg := fmt.Sprintf("%s %q: %v", s.Name(), q, sl.err)
			errs = append(errs, msg)
			fmt.Fprintf(w, "warning: search %s\n", msg)
			continue
		}
		all = append(all, sl.hits...)
	}

	if err := ctx.Err(); err != nil {
		return Output{}, err
	}
	if failed == len(slots) {
		return Output{Queries: len(queries), Errors: errs}, errors.New("all search requests failed")
	}

	deduped, removed := deduplicate(all)
	return Output{
		Hits:        deduped,
		Queries:     len(queries),
		DupsRemoved: removed,
		Errors:      errs,
	}, nil
}

// deduplicate merges hits that point at the same page.
func deduplicate(hits []types.SearchHit) ([]types.SearchHit, int) {
	seen := make(map[string]int) // url key → index in deduped
	var deduped []types.SearchHit
	removed := 0

	for _, h := range hits {
		key := urlKey(h.URL)
		if key == "" {
			removed++
			continue
		}
		if idx, ok := seen[key]; ok {
			mergeInto(&deduped[idx], h)
			removed++
			continue
		}
		seen[key] = len(deduped)
		deduped = append(deduped, h)
	}
	return deduped, removed
}

// urlKey normalizes a URL for duplicate detection: scheme and "www." are
// ignored, the host is lowercased, the fragment, tracking parameters and a
// trailing slash are dropped.
func urlKey(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")

	q := u.Query()
	for k := range q {
		if strings.HasPrefix(k, "utm_") {
			q.Del(k)
		}
	}
	key := host + strings.TrimSuffix(u.EscapedPath(), "/")
	if enc := q.Encode(); enc != "" {
		key += "?" + enc
	}
	return key
}

// mergeInto fills empty fields of dst from src and keeps the longer snippet.
func mergeInto(dst *types.SearchHit, src types.SearchHit) {
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
	}
	if len(src.Snippet) > len(dst.Snippet) {
		dst.Snippet = src.Snippet
	}
	if dst.Domain == "" && src.Domain != "" {
		dst.Domain = src.Domain
	}
}

// hostOf returns the host of raw, or "".
func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// FormatTable writes scored candidates as a human-readable table to w.
func FormatTable(cands []types.Candidate, w io.Writer) {
	if len(cands) == 0 {
		fmt.Fprintln(w, "No candidates found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-3s  %-3s  %-13s  %-5s  %s\n",
		"Rank", "P", "S", "Class", "Sim", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, c := range cands {
		fmt.Fprintf(w, "%-4d  %-3d  %-3d  %-13s  %-5.2f  %s\n",
			i+1, c.Scores.Primary, c.Scores.Secondary, c.Classification, c.Similarity, truncate(c.URL, 66))
	}
	fmt.Fprintf(w, "\n%d candidates\n", len(cands))
}

// FormatJSON writes candidates as indented JSON to w.
func FormatJSON(cands []types.Candidate, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cands)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// Backends builds the searchers named in cfg.Backends. An empty list
// selects Google alone.
func Backends(cfg types.SearchConfig) ([]Searcher, error) {
	names := cfg.Backends
	if len(names) == 0 {
		names = []string{"google"}
	}
	client := &http.Client{Timeout: cfg.Timeout}

	var out []Searcher
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "google":
			g := NewGoogleSearcher(cfg)
			g.Client = client
			out = append(out, g)
		case "openalex":
			out = append(out, &OpenAlexSearcher{Client: client, Email: cfg.Email, PerPage: cfg.ResultsPerQuery, UserAgent: cfg.UserAgent})
		case "semantic_scholar", "semanticscholar", "s2":
			out = append(out, &SemanticScholarSearcher{Client: client, APIKey: cfg.SemanticScholarKey, Limit: cfg.ResultsPerQuery, UserAgent: cfg.UserAgent})
		default:
			return nil, fmt.Errorf("unknown search backend %q", name)
		}
	}
	return out, nil
}
