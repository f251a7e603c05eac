// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/pdiddy/refresolve/internal/httputil"
	"github.com/pdiddy/refresolve/pkg/types"
)

// page is the bounded prefix of a fetched response.
type page struct {
	status      int
	finalURL    string
	contentType string
	raw         []byte

	// title and text are set for HTML responses only.
	title string
	text  string
}

func (p *page) isPDF() bool {
	return p.contentType == "application/pdf" || bytes.HasPrefix(p.raw, []byte("%PDF-"))
}

func (p *page) isHTML() bool {
	if p.isPDF() {
		return false
	}
	if p.contentType == "text/html" || p.contentType == "application/xhtml+xml" {
		return true
	}
	head := bytes.ToLower(p.raw[:min(len(p.raw), 512)])
	return bytes.Contains(head, []byte("<html")) || bytes.Contains(head, []byte("<!doctype html"))
}

// newClient returns an HTTP client that stops after maxRedirects hops.
func newClient(maxRedirects int) *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// fetch issues a GET for rawURL and reads at most MaxBodyBytes of the body.
// HEAD is never used: soft-404 pages only reveal themselves in the body.
func (v *Validator) fetch(ctx context.Context, rawURL string) (*page, error) {
	if err := v.limiter.Wait(ctx, rawURL); err != nil {
		return nil, &types.NetworkError{URL: rawURL, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &types.NetworkError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", v.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")

	resp, err := httputil.DoWithRetry(ctx, v.client, req, 0)
	if err != nil {
		return nil, &types.NetworkError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, v.cfg.MaxBodyBytes))
	if err != nil {
		return nil, &types.NetworkError{URL: rawURL, Err: fmt.Errorf("reading body: %w", err)}
	}

	p := &page{
		status:   resp.StatusCode,
		finalURL: resp.Request.URL.String(),
		raw:      raw,
	}
	ct := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		p.contentType = mt
	}
	if p.isHTML() {
		p.title, p.text = visibleText(raw, ct)
	}
	return p, nil
}

// visibleText decodes an HTML prefix to UTF-8 and returns its <title> and
// the text a reader would see, with whitespace collapsed. A truncated
// document still parses; the tokenizer closes open elements.
func visibleText(raw []byte, contentType string) (title, text string) {
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		r = bytes.NewReader(raw)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", collapse(string(raw))
	}
	title = collapse(doc.Find("title").First().Text())
	doc.Find("script, style, noscript, template, svg").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		return title, collapse(doc.Text())
	}
	return title, collapse(body.Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
