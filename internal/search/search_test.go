// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/refresolve/internal/httputil"
	"github.com/pdiddy/refresolve/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

// --- mock searcher ---

type mockSearcher struct {
	name  string
	hits  map[string][]types.SearchHit
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (m *mockSearcher) Name() string { return m.name }

func (m *mockSearcher) Search(_ context.Context, q string) ([]types.SearchHit, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.hits[q], nil
}

func hit(u, title string) types.SearchHit {
	return types.SearchHit{URL: u, Title: title, Domain: hostOf(u)}
}

// --- Gather ---

func TestGatherNoQueries(t *testing.T) {
	_, err := Gather(context.Background(), nil, []Searcher{&mockSearcher{name: "m"}}, 0, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for empty query list")
	}
}

func TestGatherNoSearchers(t *testing.T) {
	_, err := Gather(context.Background(), []string{"q"}, nil, 0, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error when no backends are configured")
	}
}

func TestGatherDeterministicOrder(t *testing.T) {
	// The slow searcher finishes last, but its hits for the first query
	// still come before the fast searcher's.
	slow := &mockSearcher{name: "slow", delay: 20 * time.Millisecond, hits: map[string][]types.SearchHit{
		"q1": {hit("https://a.example/1", "A")},
		"q2": {hit("https://c.example/3", "C")},
	}}
	fast := &mockSearcher{name: "fast", hits: map[string][]types.SearchHit{
		"q1": {hit("https://b.example/2", "B")},
	}}

	out, err := Gather(context.Background(), []string{"q1", "q2"}, []Searcher{slow, fast}, 4, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var got []string
	for _, h := range out.Hits {
		got = append(got, h.Title)
	}
	if strings.Join(got, ",") != "A,B,C" {
		t.Errorf("order = %v, want [A B C]", got)
	}
	if out.Queries != 2 {
		t.Errorf("Queries = %d, want 2", out.Queries)
	}
}

func TestGatherContinuesAfterSearcherFailure(t *testing.T) {
	good := &mockSearcher{name: "good", hits: map[string][]types.SearchHit{"q": {hit("https://a.example", "A")}}}
	bad := &mockSearcher{name: "bad", err: errors.New("HTTP 500")}

	var log bytes.Buffer
	out, err := Gather(context.Background(), []string{"q"}, []Searcher{good, bad}, 0, &log)
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(out.Hits) != 1 {
		t.Errorf("len(Hits) = %d, want 1", len(out.Hits))
	}
	if len(out.Errors) != 1 || !strings.Contains(out.Errors[0], "bad") {
		t.Errorf("Errors = %v, want one error naming the failed searcher", out.Errors)
	}
	if !strings.Contains(log.String(), "warning: search bad") {
		t.Errorf("log = %q, want a warning", log.String())
	}
}

func TestGatherAllFail(t *testing.T) {
	bad := &mockSearcher{name: "bad", err: errors.New("boom")}
	out, err := Gather(context.Background(), []string{"q1", "q2"}, []Searcher{bad}, 0, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error when every request fails")
	}
	if len(out.Errors) != 2 {
		t.Errorf("Errors = %v, want 2", out.Errors)
	}
	if bad.calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", bad.calls.Load())
	}
}

func TestGatherCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := &mockSearcher{name: "m", hits: map[string][]types.SearchHit{"q": {hit("https://a.example", "A")}}}
	if _, err := Gather(ctx, []string{"q"}, []Searcher{m}, 0, &bytes.Buffer{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// --- Deduplication ---

func TestDeduplicate(t *testing.T) {
	hits := []types.SearchHit{
		{URL: "https://www.example.com/book/", Title: "Book"},
		{URL: "http://example.com/book?utm_source=x", Title: "", Snippet: "a longer snippet"},
		{URL: "https://example.com/book#ch1", Title: "Other"},
		{URL: "https://example.com/other", Title: "Other page"},
		{URL: "not a url"},
	}
	deduped, removed := deduplicate(hits)
	if len(deduped) != 2 {
		t.Fatalf("len(deduped) = %d, want 2: %+v", len(deduped), deduped)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	if deduped[0].Title != "Book" || deduped[0].Snippet != "a longer snippet" {
		t.Errorf("merged = %+v", deduped[0])
	}
}

func TestURLKey(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{"https://www.jstor.org/stable/1", "http://jstor.org/stable/1/", true},
		{"https://JSTOR.org/stable/1", "https://jstor.org/stable/1#page=2", true},
		{"https://a.org/p?id=1&utm_medium=x", "https://a.org/p?id=1", true},
		{"https://a.org/p?id=1", "https://a.org/p?id=2", false},
		{"https://a.org/Path", "https://a.org/path", false},
	}
	for _, tt := range tests {
		if got := urlKey(tt.a) == urlKey(tt.b); got != tt.same {
			t.Errorf("urlKey(%q) == urlKey(%q): %v, want %v", tt.a, tt.b, got, tt.same)
		}
	}
}

// --- Output formatting ---

func TestFormatTable(t *testing.T) {
	cands := []types.Candidate{{
		URL:            "https://archive.org/details/thinkingfastslow",
		Scores:         types.Scores{Primary: 100, Secondary: 30},
		Classification: types.FullText,
		Similarity:     1,
	}}
	var buf bytes.Buffer
	FormatTable(cands, &buf)
	out := buf.String()
	for _, want := range []string{"Rank", "full_text", "archive.org/details", "1 candidates"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestFormatTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(nil, &buf)
	if !strings.Contains(buf.String(), "No candidates found") {
		t.Errorf("got %q", buf.String())
	}
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatJSON([]types.Candidate{{URL: "https://a.example", Classification: types.Review}}, &buf); err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got[0]["classification"] != "review" {
		t.Errorf("classification = %v, want review", got[0]["classification"])
	}
}

// --- Backends ---

func TestBackends(t *testing.T) {
	cfg := types.DefaultSearchConfig()
	cfg.Backends = []string{"google", "OpenAlex", "s2"}
	bs, err := Backends(cfg)
	if err != nil {
		t.Fatalf("Backends: %v", err)
	}
	var names []string
	for _, b := range bs {
		names = append(names, b.Name())
	}
	if strings.Join(names, ",") != "google,openalex,semantic_scholar" {
		t.Errorf("names = %v", names)
	}

	cfg.Backends = []string{"bing"}
	if _, err := Backends(cfg); err == nil {
		t.Error("expected error for unknown backend")
	}

	cfg.Backends = nil
	bs, _ = Backends(cfg)
	if len(bs) != 1 || bs[0].Name() != "google" {
		t.Errorf("default backends = %v, want google", bs)
	}
}
