// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve runs the reference resolution pipeline: plan queries,
// search, score, validate the top candidates and select URLs. It owns the
// batch loop, the budget counter and checkpoint writes.
package resolve

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/pdiddy/refresolve/internal/scorer"
	"github.com/pdiddy/refresolve/internal/search"
	"github.com/pdiddy/refresolve/internal/selection"
	"github.com/pdiddy/refresolve/pkg/types"
)

// Validator validates candidate URLs for a reference. *validator.Validator
// implements it.
type Validator interface {
	ValidateAll(ctx context.Context, cands []types.Candidate, ref *types.Reference) []types.Validated
}

// RelevanceWriter writes relevance text for instance records.
// search.LLMRelevance implements it.
type RelevanceWriter interface {
	Write(ctx context.Context, inst *types.Reference, avoid []string) (string, error)
}

// Resolver resolves references one at a time.
type Resolver struct {
	cfg       types.ResolveConfig
	planner   search.Planner
	searchers []search.Searcher
	scorer    *scorer.Scorer
	validator Validator
	engine    *selection.Engine

	ranker       search.Ranker
	relevance    RelevanceWriter
	budget       *Budget
	candidateDir string
	searchLimit  int
	log          io.Writer
	verbose      bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPlanner replaces the heuristic query planner.
func WithPlanner(p search.Planner) Option { return func(r *Resolver) { r.planner = p } }

// WithRanker blends a semantic ranking into the local scores.
func WithRanker(rk search.Ranker) Option { return func(r *Resolver) { r.ranker = rk } }

// WithRelevance enables relevance text generation for instances.
func WithRelevance(w RelevanceWriter) Option { return func(r *Resolver) { r.relevance = w } }

// WithBudget sets the cost counter.
func WithBudget(b *Budget) Option { return func(r *Resolver) { r.budget = b } }

// WithCandidateDir saves search hits per reference under dir and reuses
// saved hits instead of searching again.
func WithCandidateDir(dir string) Option { return func(r *Resolver) { r.candidateDir = dir } }

// WithSearchLimit bounds simultaneous search requests.
func WithSearchLimit(n int) Option { return func(r *Resolver) { r.searchLimit = n } }

// WithLog sets the progress writer.
func WithLog(w io.Writer) Option { return func(r *Resolver) { r.log = w } }

// WithVerbose prints the scored candidate table for every reference.
func WithVerbose(v bool) Option { return func(r *Resolver) { r.verbose = v } }

// New returns a Resolver. Zero fields in cfg take their defaults.
func New(cfg types.ResolveConfig, searchers []search.Searcher, sc *scorer.Scorer, v Validator, e *selection.Engine, opts ...Option) *Resolver {
	def := types.DefaultResolveConfig()
	if cfg.TopN <= 0 {
		cfg.TopN = def.TopN
	}
	if cfg.MaxQueries <= 0 {
		cfg.MaxQueries = def.MaxQueries
	}
	if cfg.SemanticWeight <= 0 || cfg.SemanticWeight >= 1 {
		cfg.SemanticWeight = def.SemanticWeight
	}
	if cfg.BatchVersion == "" {
		cfg.BatchVersion = def.BatchVersion
	}

	r := &Resolver{
		cfg:       cfg,
		searchers: searchers,
		scorer:    sc,
		validator: v,
		engine:    e,
		log:       io.Discard,
	}
	for _, o := range opts {
		o(r)
	}
	if r.planner == nil {
		r.planner = search.HeuristicPlanner{Max: cfg.MaxQueries}
	}
	return r
}

// Budget returns the resolver's cost counter, which may be nil.
func (r *Resolver) Budget() *Budget { return r.budget }

// Result is the outcome of resolving one reference.
type Result struct {
	// Reference is the updated copy; the input is never modified.
	Reference *types.Reference

	Queries      []string
	Candidates   []types.Candidate
	Validated    []types.Validated
	Outcome      selection.Outcome
	SearchErrors []string
}

// Resolve runs the pipeline for ref. URLs in exclude are never chosen as
// Secondary. Search and fetch failures are recorded in the result; only
// cancellation is returned as an error.
func (r *Resolver) Resolve(ctx context.Context, ref *types.Reference, exclude ...string) (*Result, error) {
	res := &Result{}
	if err := r.gather(ctx, ref, res); err != nil {
		return nil, err
	}

	top := r.top(res.Candidates)
	res.Validated = r.validator.ValidateAll(ctx, top, ref)
	r.budget.Add(r.cfg.Costs.Fetch * float64(len(top)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Outcome = r.engine.Select(ref, res.Validated, exclude...)
	res.Reference = res.Outcome.Reference
	res.Reference.Flags.SetBatch(r.cfg.BatchVersion)

	if r.verbose {
		for _, v := range res.Validated {
			fmt.Fprintf(r.log, "    %3d  %-5v  %s  (%s)\n", v.Validation.Score, v.Validation.Accessible, v.Candidate.URL, v.Validation.Reason)
		}
	}
	return res, nil
}

// gather fills the queries and scored candidates of res, from a saved
// candidate file when one exists.
func (r *Resolver) gather(ctx context.Context, ref *types.Reference, res *Result) error {
	var out search.Output
	loaded := false
	path := ""
	if r.candidateDir != "" {
		path = search.CandidatePath(r.candidateDir, ref.ID)
		cf, ok, err := search.ReadCandidateFile(path)
		switch {
		case err != nil:
			fmt.Fprintf(r.log, "warning: %s: %v\n", ref.ID, err)
		case ok:
			res.Queries, out, loaded = cf.Queries, cf.Output(), true
			fmt.Fprintf(r.log, "  %s: reusing %d saved hits\n", ref.ID, len(out.Hits))
		}
	}

	if !loaded {
		res.Queries = r.planner.Queries(ctx, ref)
		if len(res.Queries) > 0 {
			r.budget.Add(r.cfg.Costs.Search * float64(len(res.Queries)*len(r.searchers)))
			var err error
			out, err = search.Gather(ctx, res.Queries, r.searchers, r.searchLimit, r.log)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				fmt.Fprintf(r.log, "warning: %s: %v\n", ref.ID, err)
			} else if path != "" {
				if werr := search.WriteCandidateFile(path, ref.ID, res.Queries, out); werr != nil {
					fmt.Fprintf(r.log, "warning: %s: saving candidates: %v\n", ref.ID, werr)
				}
			}
		}
	}
	res.SearchErrors = out.Errors

	cands := make([]types.Candidate, len(out.Hits))
	for i, h := range out.Hits {
		cands[i] = h.Candidate()
	}
	res.Candidates = r.scorer.ScoreAll(cands, ref)
	if r.ranker != nil {
		res.Candidates = r.blend(ctx, ref, res.Candidates)
	}
	if r.verbose {
		search.FormatTable(res.Candidates, r.log)
	}
	return nil
}

// blend mixes a semantic ranking of the leading candidates into their local
// scores, then re-applies the scorer's hard rules and re-sorts. A ranking
// failure leaves the local scores as they are.
func (r *Resolver) blend(ctx context.Context, ref *types.Reference, cands []types.Candidate) []types.Candidate {
	n := min(len(cands), r.cfg.TopN)
	if n == 0 {
		return cands
	}
	rankings, err := r.ranker.Rank(ctx, ref, cands[:n])
	if err != nil {
		fmt.Fprintf(r.log, "warning: %s: semantic ranking failed, using local scores: %v\n", ref.ID, err)
		return cands
	}

	w := r.cfg.SemanticWeight
	out := append([]types.Candidate(nil), cands...)
	for _, rk := range rankings {
		c := &out[rk.Index]
		c.Scores.Primary = mix(c.Scores.Primary, rk.Primary, w)
		c.Scores.Secondary = mix(c.Scores.Secondary, rk.Secondary, w)
		for _, reason := range rk.Reasons {
			c.Reasons = append(c.Reasons, "semantic: "+reason)
		}
		*c = r.scorer.Enforce(*c, ref)
	}
	scorer.Sort(out)
	return out
}

func mix(local, semantic int, w float64) int {
	return int(math.Round((1-w)*float64(local) + w*float64(semantic)))
}

// top returns at most TopN candidates that scored above zero for either
// slot. Candidates are already ordered best first.
func (r *Resolver) top(cands []types.Candidate) []types.Candidate {
	var out []types.Candidate
	for _, c := range cands {
		if c.Scores.Primary <= 0 && c.Scores.Secondary <= 0 {
			continue
		}
		out = append(out, c)
		if len(out) == r.cfg.TopN {
			break
		}
	}
	return out
}
