// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGoogleJSON = `{
  "kind": "customsearch#search",
  "items": [
    {
      "link": "https://archive.org/details/thinkingfastslow00kahn",
      "title": "Thinking, Fast and Slow : Kahneman, Daniel : Free Download",
      "snippet": "Thinking, fast and slow. by Kahneman, Daniel. Publication date 2011.",
      "displayLink": "archive.org"
    },
    {
      "link": "https://www.nytimes.com/2011/11/27/books/review/thinking-fast-and-slow.html",
      "title": "Two Brains Running - The New York Times",
      "snippet": "A review of Thinking, Fast and Slow."
    },
    {"title": "no link"}
  ]
}`

func withGoogle(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(h)
	old := googleSearchBase
	googleSearchBase = ts.URL
	t.Cleanup(func() {
		googleSearchBase = old
		ts.Close()
	})
	return ts
}

func TestGoogleSearcherSearch(t *testing.T) {
	var params map[string]string
	ts := withGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		params = map[string]string{"key": q.Get("key"), "cx": q.Get("cx"), "q": q.Get("q"), "num": q.Get("num")}
		assert.Equal(t, "test/0.1", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, sampleGoogleJSON)
	})

	g := &GoogleSearcher{Client: ts.Client(), APIKey: "k", EngineID: "cx1", Num: 25, UserAgent: "test/0.1"}
	hits, err := g.Search(context.Background(), `"Thinking, Fast and Slow" kahneman`)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"key": "k", "cx": "cx1", "q": `"Thinking, Fast and Slow" kahneman`, "num": "10"}, params)
	require.Len(t, hits, 2)
	assert.Equal(t, "https://archive.org/details/thinkingfastslow00kahn", hits[0].URL)
	assert.Equal(t, "archive.org", hits[0].Domain)
	assert.Contains(t, hits[0].Snippet, "Publication date 2011")
	assert.Equal(t, "www.nytimes.com", hits[1].Domain, "domain falls back to the link host")
}

func TestGoogleSearcherNoCredentials(t *testing.T) {
	_, err := (&GoogleSearcher{APIKey: "k"}).Search(context.Background(), "q")
	assert.True(t, errors.Is(err, ErrNoCredentials))
}

func TestGoogleSearcherHTTPErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		calls  int
	}{
		{"forbidden is not retried", http.StatusForbidden, 1},
		{"quota exceeded is retried", http.StatusTooManyRequests, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			ts := withGoogle(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
			})
			g := &GoogleSearcher{Client: ts.Client(), APIKey: "k", EngineID: "cx"}
			_, err := g.Search(context.Background(), "q")
			require.Error(t, err)
			assert.Contains(t, err.Error(), fmt.Sprintf("HTTP %d", tt.status))
			assert.Equal(t, tt.calls, calls)
		})
	}
}

func TestGoogleSearcherMalformedJSON(t *testing.T) {
	ts := withGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items": [`)
	})
	g := &GoogleSearcher{Client: ts.Client(), APIKey: "k", EngineID: "cx"}
	_, err := g.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing Google response")
}

func TestGoogleSearcherNoItems(t *testing.T) {
	ts := withGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"kind": "customsearch#search"}`)
	})
	g := &GoogleSearcher{Client: ts.Client(), APIKey: "k", EngineID: "cx"}
	hits, err := g.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, hits)
}
