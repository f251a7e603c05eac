// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/refresolve/internal/httputil"
	"github.com/pdiddy/refresolve/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

func testConfig() types.ValidationConfig {
	cfg := types.DefaultValidationConfig()
	cfg.HostInterval = 0
	return cfg
}

func kahneman() *types.Reference {
	return &types.Reference{
		ID:          "4",
		Authors:     "Kahneman, D.",
		Year:        "2011",
		Title:       "Thinking, Fast and Slow",
		Publication: "Farrar, Straus and Giroux",
	}
}

func htmlPage(title, body string) string {
	return fmt.Sprintf("<!DOCTYPE html><html><head><title>%s</title><script>var subscribe = 'page not found';</script></head><body>%s</body></html>", title, body)
}

// testSite serves a fixed set of paths. Unknown paths return 404.
func testSite(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

const fullText = "<h1>Thinking, Fast and Slow</h1><p>by Daniel Kahneman</p><p>Introduction. Every author, I suppose, has in mind a setting in which readers of his work could benefit from having read it.</p>"

func TestValidate_Soft404On200(t *testing.T) {
	ts := testSite(t, map[string]string{
		"/book": htmlPage("Thinking, Fast and Slow", "<p>Sorry, we couldn't find the page you were looking for.</p>"),
	})
	v := New(testConfig())

	res := v.Validate(context.Background(), ts.URL+"/book", kahneman())
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.False(t, res.Accessible)
	assert.Equal(t, 0, res.Score)
	assert.Contains(t, res.Barriers, types.Soft404)
	assert.Contains(t, res.Reason, "soft 404")
}

func TestValidate_ErrorTitle(t *testing.T) {
	ts := testSite(t, map[string]string{
		"/x": htmlPage("404 | Example Press", fullText),
	})
	res := New(testConfig()).Validate(context.Background(), ts.URL+"/x", kahneman())
	assert.False(t, res.Accessible)
	assert.True(t, res.HasBarrier(types.Soft404))
}

func TestValidate_Paywall(t *testing.T) {
	ts := testSite(t, map[string]string{
		"/article": htmlPage("Thinking, Fast and Slow", "<h1>Thinking, Fast and Slow</h1><p>Kahneman</p><div>Subscribe to continue reading.</div>"),
	})
	res := New(testConfig()).Validate(context.Background(), ts.URL+"/article", kahneman())

	assert.Contains(t, res.Barriers, types.Paywall)
	assert.False(t, res.Accessible)
	assert.GreaterOrEqual(t, res.Score, 45)
	assert.LessOrEqual(t, res.Score, 60)
}

func TestValidate_DomainIndependence(t *testing.T) {
	ts := testSite(t, map[string]string{
		"/free":   htmlPage("Thinking, Fast and Slow", fullText),
		"/locked": htmlPage("Thinking, Fast and Slow", "<h1>Thinking, Fast and Slow</h1><p>Please sign in to read this article.</p>"),
	})
	v := New(testConfig())

	free := v.Validate(context.Background(), ts.URL+"/free", kahneman())
	locked := v.Validate(context.Background(), ts.URL+"/locked", kahneman())

	assert.True(t, free.Accessible)
	assert.GreaterOrEqual(t, free.Score, 90)
	assert.True(t, free.ContentMatch.Matched)

	assert.False(t, locked.Accessible)
	assert.Contains(t, locked.Barriers, types.LoginRequired)
	assert.LessOrEqual(t, locked.Score, 55)
	assert.NotEqual(t, free.Score, locked.Score)
}

func TestValidate_Bands(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		accessible bool
		min, max   int
		barrier    types.Barrier
	}{
		{"institutional", "<h1>Thinking, Fast and Slow</h1><p>Access through your institution</p>", false, 60, 75, types.LoginRequired},
		{"borrow", "<h1>Thinking, Fast and Slow</h1><p>Kahneman</p><button>Borrow for 14 days</button>", true, 80, 90, ""},
		{"borrow other work", "<h1>Gardening for Beginners</h1><p>Borrow this book for free.</p>", false, 0, 0, ""},
		{"preview", "<h1>Thinking, Fast and Slow</h1><p>Limited preview</p>", false, 30, 45, types.PreviewOnly},
		{"mismatch", "<h1>Cooking with Cast Iron</h1><p>Seasoning a skillet takes patience.</p>", false, 0, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := testSite(t, map[string]string{"/p": htmlPage("Page", tt.body)})
			res := New(testConfig()).Validate(context.Background(), ts.URL+"/p", kahneman())
			assert.Equal(t, tt.accessible, res.Accessible, res.Reason)
			assert.GreaterOrEqual(t, res.Score, tt.min)
			assert.LessOrEqual(t, res.Score, tt.max)
			if tt.barrier != "" {
				assert.Contains(t, res.Barriers, tt.barrier)
			}
		})
	}
}

func TestValidate_HTTPError(t *testing.T) {
	ts := testSite(t, nil)
	res := New(testConfig()).Validate(context.Background(), ts.URL+"/missing", kahneman())

	assert.False(t, res.Accessible)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, "HTTP 404", res.Reason)
	assert.Equal(t, []types.Barrier{types.Soft404}, res.Barriers)
}

func TestValidate_PDFExpectedGotHTML(t *testing.T) {
	ts := testSite(t, map[string]string{
		"/paper.pdf": htmlPage("Thinking, Fast and Slow", fullText),
	})
	res := New(testConfig()).Validate(context.Background(), ts.URL+"/paper.pdf", kahneman())

	assert.False(t, res.Accessible)
	assert.True(t, res.HasBarrier(types.Soft404))
	assert.Contains(t, res.Reason, "content-type mismatch")
}

func TestValidate_PDF(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		if r.URL.Path == "/match.pdf" {
			fmt.Fprint(w, "%PDF-1.4\n(Thinking, Fast and Slow) (Daniel Kahneman)")
			return
		}
		fmt.Fprint(w, "%PDF-1.4\nstream x\x9c\x03\x00endstream")
	}))
	defer ts.Close()
	v := New(testConfig())

	matched := v.Validate(context.Background(), ts.URL+"/match.pdf", kahneman())
	assert.True(t, matched.Accessible)
	assert.Equal(t, 100, matched.Score)

	opaque := v.Validate(context.Background(), ts.URL+"/opaque.pdf", kahneman())
	assert.True(t, opaque.Accessible)
	assert.Equal(t, 85, opaque.Score)
	assert.Equal(t, "PDF, content unverified", opaque.Reason)
}

func TestValidate_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond
	res := New(cfg).Validate(context.Background(), ts.URL+"/slow", kahneman())

	assert.False(t, res.Accessible)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, "timeout", res.Reason)
}

func TestValidate_RedirectLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Path+"x", http.StatusFound)
	}))
	defer ts.Close()

	res := New(testConfig()).Validate(context.Background(), ts.URL+"/r", kahneman())
	assert.False(t, res.Accessible)
	assert.Equal(t, "too many redirects", res.Reason)
}

func TestValidate_InvalidURL(t *testing.T) {
	res := New(testConfig()).Validate(context.Background(), "ftp://example.org/file", kahneman())
	assert.Equal(t, types.Failed("ftp://example.org/file", "invalid URL"), res)
}

func TestValidateAll_OrderByCandidate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Earlier paths answer later.
		switch r.URL.Path {
		case "/0":
			time.Sleep(40 * time.Millisecond)
		case "/1":
			time.Sleep(20 * time.Millisecond)
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, htmlPage("Thinking, Fast and Slow", fullText))
	}))
	defer ts.Close()

	var cands []types.Candidate
	for i := range 5 {
		cands = append(cands, types.Candidate{URL: fmt.Sprintf("%s/%d", ts.URL, i)})
	}
	cfg := testConfig()
	cfg.Concurrency = 3

	got := New(cfg).ValidateAll(context.Background(), cands, kahneman())
	require.Len(t, got, 5)
	for i, vr := range got {
		assert.Equal(t, cands[i].URL, vr.Candidate.URL)
		assert.Equal(t, cands[i].URL, vr.Validation.URL)
		assert.True(t, vr.Validation.Accessible)
	}
}

func TestValidate_Cache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, htmlPage("Thinking, Fast and Slow", fullText))
	}))
	defer ts.Close()

	v := New(testConfig(), WithCache(NewCache(client, time.Hour)))
	first := v.Validate(context.Background(), ts.URL+"/a", kahneman())
	second := v.Validate(context.Background(), ts.URL+"/a", kahneman())

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Len(t, mr.Keys(), 1)

	mr.FastForward(2 * time.Hour)
	v.Validate(context.Background(), ts.URL+"/a", kahneman())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestValidate_CacheKeyedByMatcher(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, htmlPage("Thinking, Fast and Slow", fullText))
	}))
	defer ts.Close()

	cache := NewCache(client, time.Hour)
	basic := New(testConfig(), WithCache(cache))
	llm := New(testConfig(), WithCache(cache), WithMatcher(LLMMatcher{Client: fakeCompleter{reply: "MATCH: 20"}}))

	first := basic.Validate(context.Background(), ts.URL+"/a", kahneman())
	second := llm.Validate(context.Background(), ts.URL+"/a", kahneman())

	assert.True(t, first.ContentMatch.Matched)
	assert.False(t, second.ContentMatch.Matched)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Len(t, mr.Keys(), 2)
}

func TestCache_FailuresNotStored(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewCache(client, time.Hour)
	require.NoError(t, c.Put(context.Background(), "basic", "https://x.org", kahneman(), types.Failed("https://x.org", "timeout")))
	assert.Empty(t, mr.Keys())
}

func TestDialCache_BadURL(t *testing.T) {
	_, err := DialCache(context.Background(), "not-a-redis-url", time.Hour)
	assert.Error(t, err)
}

type fakeCompleter struct {
	reply string
	err   error
}

func (f fakeCompleter) Complete(context.Context, string) (string, error) { return f.reply, f.err }

type promptRecorder struct{ prompt *string }

func (p promptRecorder) Complete(_ context.Context, prompt string) (string, error) {
	*p.prompt = prompt
	return "MATCH: 90", nil
}

func TestLLMMatcher_CutsOnRuneBoundary(t *testing.T) {
	var prompt string
	m := LLMMatcher{Client: promptRecorder{&prompt}, MaxChars: 5}
	_, err := m.Match(context.Background(), kahneman(), "ééééé")
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(prompt))
	assert.Contains(t, prompt, "éé\n")
	assert.NotContains(t, prompt, "ééé")
}

func TestLLMMatcher(t *testing.T) {
	ref := kahneman()

	m := LLMMatcher{Client: fakeCompleter{reply: "MATCH: 85"}}
	cm, err := m.Match(context.Background(), ref, "some text")
	require.NoError(t, err)
	assert.True(t, cm.Matched)
	assert.InDelta(t, 0.85, cm.Confidence, 1e-9)

	low := LLMMatcher{Client: fakeCompleter{reply: "match: 40"}}
	cm, err = low.Match(context.Background(), ref, "some text")
	require.NoError(t, err)
	assert.False(t, cm.Matched)

	fallback := LLMMatcher{
		Client:   fakeCompleter{err: errors.New("overloaded")},
		Fallback: BasicMatcher{Threshold: 0.6},
	}
	cm, err = fallback.Match(context.Background(), ref, "Thinking, Fast and Slow by Daniel Kahneman")
	require.NoError(t, err)
	assert.True(t, cm.Matched)

	bare := LLMMatcher{Client: fakeCompleter{reply: "yes"}}
	_, err = bare.Match(context.Background(), ref, "x")
	assert.Error(t, err)
}

func TestBasicMatcher(t *testing.T) {
	m := BasicMatcher{Threshold: 0.6}
	ctx := context.Background()

	cm, _ := m.Match(ctx, kahneman(), "thinking fast slow kahneman")
	assert.Equal(t, types.ContentMatch{Matched: true, Confidence: 1}, cm)

	cm, _ = m.Match(ctx, kahneman(), "thinking slow")
	assert.False(t, cm.Matched)
	assert.InDelta(t, 0.53, cm.Confidence, 0.001)

	cm, _ = m.Match(ctx, &types.Reference{ID: "1"}, "anything")
	assert.Equal(t, types.ContentMatch{Matched: true, Confidence: 0.5}, cm)
}

func TestVisibleText(t *testing.T) {
	raw := []byte("<html><head><title>Caf\xe9</title><style>p{}</style></head><body><p>Na\xefve  text</p><script>hidden()</script></body></html>")
	title, text := visibleText(raw, "text/html; charset=iso-8859-1")
	assert.Equal(t, "Café", title)
	assert.Equal(t, "Naïve text", text)
}

func TestDetectBarriers_Order(t *testing.T) {
	d := detectBarriers("Article", "Limited preview. Subscribe to continue. Page not found")
	assert.Equal(t, []types.Barrier{types.Soft404, types.Paywall, types.PreviewOnly}, d.barriers)
	b, ok := d.first()
	assert.True(t, ok)
	assert.Equal(t, types.Soft404, b)

	none := detectBarriers("Thinking, Fast and Slow", "Chapter one begins here.")
	_, ok = none.first()
	assert.False(t, ok)
}
