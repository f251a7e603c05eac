// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validator fetches candidate URLs and decides from the retrieved
// content whether each is freely accessible and is the referenced work.
// An HTTP 200 is never taken as proof of accessibility: the body is
// checked for soft-404, paywall, login and preview barriers, and scores
// depend on page content, never on the domain name.
package validator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/refresolve/internal/httputil"
	"github.com/pdiddy/refresolve/pkg/types"
)

// Validator checks candidate URLs. Safe for concurrent use.
type Validator struct {
	cfg     types.ValidationConfig
	client  *http.Client
	limiter *httputil.HostLimiter
	matcher Matcher
	cache   *Cache
	log     io.Writer
}

// Option configures a Validator.
type Option func(*Validator)

// WithClient replaces the HTTP client. Its redirect policy is kept as is.
func WithClient(c *http.Client) Option { return func(v *Validator) { v.client = c } }

// WithMatcher replaces the basic token matcher.
func WithMatcher(m Matcher) Option { return func(v *Validator) { v.matcher = m } }

// WithCache enables the Redis result cache.
func WithCache(c *Cache) Option { return func(v *Validator) { v.cache = c } }

// WithLog sets the progress writer.
func WithLog(w io.Writer) Option { return func(v *Validator) { v.log = w } }

// New returns a Validator. Zero fields in cfg take their defaults.
func New(cfg types.ValidationConfig, opts ...Option) *Validator {
	def := types.DefaultValidationConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = def.MaxRedirects
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = def.MatchThreshold
	}

	v := &Validator{
		cfg:     cfg,
		client:  newClient(cfg.MaxRedirects),
		limiter: httputil.NewHostLimiter(cfg.HostInterval),
		matcher: BasicMatcher{Threshold: cfg.MatchThreshold},
		log:     io.Discard,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Validate fetches rawURL and scores it against ref. It never returns an
// error: every failure is recorded as an inaccessible result with a reason.
func (v *Validator) Validate(ctx context.Context, rawURL string, ref *types.Reference) types.ValidationResult {
	if v.cache != nil {
		if res, ok := v.cache.Get(ctx, matcherKind(v.matcher), rawURL, ref); ok {
			return res
		}
	}

	res := v.validate(ctx, rawURL, ref)

	if v.cache != nil {
		if err := v.cache.Put(ctx, matcherKind(v.matcher), rawURL, ref, res); err != nil {
			fmt.Fprintf(v.log, "  cache: %v\n", err)
		}
	}
	return res
}

func (v *Validator) validate(ctx context.Context, rawURL string, ref *types.Reference) types.ValidationResult {
	if u, err := url.Parse(rawURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return types.Failed(rawURL, "invalid URL")
	}

	p, err := v.fetch(ctx, rawURL)
	if err != nil {
		return types.Failed(rawURL, failureReason(err))
	}
	return v.evaluate(ctx, rawURL, ref, p)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case strings.Contains(err.Error(), "redirects"):
		return "too many redirects"
	}
	return "fetch failed: " + err.Error()
}

// evaluate maps a fetched page to a score band. The first barrier in
// detection order decides the band.
func (v *Validator) evaluate(ctx context.Context, rawURL string, ref *types.Reference, p *page) types.ValidationResult {
	res := types.ValidationResult{URL: rawURL, StatusCode: p.status, FinalURL: p.finalURL}

	if p.status >= 400 {
		if p.status == http.StatusNotFound || p.status == http.StatusGone {
			res.Barriers = []types.Barrier{types.Soft404}
		}
		res.Reason = fmt.Sprintf("HTTP %d", p.status)
		return res
	}

	if expectsPDF(rawURL) && p.isHTML() {
		res.Barriers = []types.Barrier{types.Soft404}
		res.Reason = "content-type mismatch: expected PDF, got HTML"
		return res
	}

	if p.isPDF() {
		cm, _ := BasicMatcher{Threshold: v.cfg.MatchThreshold}.Match(ctx, ref, string(p.raw))
		res.ContentMatch = cm
		res.Accessible = true
		if cm.Matched {
			res.Score = fullTextScore(cm.Confidence)
			res.Reason = "free full text (PDF)"
		} else {
			res.Score = 85
			res.Reason = "PDF, content unverified"
		}
		return res
	}

	text := p.text
	if !p.isHTML() {
		text = collapse(string(p.raw))
	}
	d := detectBarriers(p.title, text)
	res.Barriers = d.barriers

	first, blocked := d.first()
	if first == types.Soft404 {
		res.Reason = "soft 404: " + d.reasons[types.Soft404]
		return res
	}

	cm, err := v.matcher.Match(ctx, ref, p.title+" "+text)
	if err != nil {
		fmt.Fprintf(v.log, "  match %s: %v\n", rawURL, err)
	}
	res.ContentMatch = cm

	matchBonus := 0
	if cm.Matched {
		matchBonus = 5
	}

	switch {
	case first == types.Paywall:
		res.Score = 50 + matchBonus
		res.Reason = "paywall: " + d.reasons[types.Paywall]
	case first == types.LoginRequired && d.institutional != "":
		res.Score = 65
		res.Reason = "institutional access only: " + d.institutional
	case first == types.LoginRequired:
		res.Score = 45 + matchBonus
		res.Reason = "login required: " + d.reasons[types.LoginRequired]
	case d.borrow != "" && cm.Matched:
		res.Accessible = true
		res.Score = 85
		res.Reason = d.borrow
	case blocked:
		res.Score = 35 + matchBonus
		res.Reason = "preview only: " + d.reasons[types.PreviewOnly]
	case cm.Matched:
		res.Accessible = true
		res.Score = fullTextScore(cm.Confidence)
		res.Reason = "free full text"
	case cm.Confidence >= 0.2:
		res.Accessible = true
		res.Score = 70
		res.Reason = fmt.Sprintf("accessible, partial content match (%.2f)", cm.Confidence)
	default:
		res.Reason = fmt.Sprintf("%v (confidence %.2f)", types.ErrContentMismatch, cm.Confidence)
	}
	return res
}

func fullTextScore(conf float64) int {
	return min(100, 90+int(math.Round(10*conf)))
}

func expectsPDF(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

// ValidateAll validates candidates with bounded concurrency. Results are
// stored by candidate position, so the output order matches the input
// regardless of which fetch finishes first.
func (v *Validator) ValidateAll(ctx context.Context, cands []types.Candidate, ref *types.Reference) []types.Validated {
	out := make([]types.Validated, len(cands))
	var g errgroup.Group
	g.SetLimit(v.cfg.Concurrency)
	for i, c := range cands {
		g.Go(func() error {
			out[i] = types.Validated{Candidate: c, Validation: v.Validate(ctx, c.URL, ref)}
			return nil
		})
	}
	g.Wait()
	return out
}
