// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package selection picks the Primary, Secondary and Tertiary URLs of a
// reference from validated candidates. Selection never finalizes a
// reference; finalization is a separate, confirmed decision.
package selection

import (
	"errors"
	"fmt"

	"github.com/pdiddy/refresolve/internal/scorer"
	"github.com/pdiddy/refresolve/pkg/types"
)

// Engine applies the selection rules for one configuration.
type Engine struct {
	cfg types.SelectionConfig
}

// New returns an Engine. Zero fields in cfg take their defaults.
func New(cfg types.SelectionConfig) *Engine {
	def := types.DefaultSelectionConfig()
	if cfg.AcceptScore <= 0 {
		cfg.AcceptScore = def.AcceptScore
	}
	if cfg.FinalizeScore <= 0 {
		cfg.FinalizeScore = def.FinalizeScore
	}
	return &Engine{cfg: cfg}
}

// Outcome is the result of Select. Indexes refer to the candidates passed
// in and are -1 when nothing was chosen for that slot.
type Outcome struct {
	Reference *types.Reference

	Primary, Secondary, Tertiary int
}

// chosen returns the validated candidate at index i, or nil.
func chosen(cands []types.Validated, i int) *types.Validated {
	if i < 0 || i >= len(cands) {
		return nil
	}
	return &cands[i]
}

// PrimaryOf returns the chosen Primary candidate, or nil.
func (o Outcome) PrimaryOf(cands []types.Validated) *types.Validated { return chosen(cands, o.Primary) }

// SecondaryOf returns the chosen Secondary candidate, or nil.
func (o Outcome) SecondaryOf(cands []types.Validated) *types.Validated {
	return chosen(cands, o.Secondary)
}

// accepted reports whether a validation result clears the selection bar.
func (e *Engine) accepted(v types.ValidationResult) bool {
	return v.Accessible && v.Score >= e.cfg.AcceptScore
}

// Select returns a copy of ref with URLs chosen from cands. URLs listed in
// exclude are never chosen as Secondary; instance records pass their
// siblings' secondaries here.
//
// When no candidate qualifies as Primary the existing Primary is left as it
// is, MANUAL_REVIEW is set and ReviewReason explains why. When one does,
// MANUAL_REVIEW is cleared.
func (e *Engine) Select(ref *types.Reference, cands []types.Validated, exclude ...string) Outcome {
	out := Outcome{Reference: ref.Clone(), Primary: -1, Secondary: -1, Tertiary: -1}
	r := out.Reference

	out.Primary = e.bestPrimary(cands, nil)
	if out.Primary < 0 {
		r.Flags.Add(types.FlagManualReview)
		r.ReviewReason = reviewReason(cands, e.cfg.AcceptScore)
	} else {
		r.URLs.Primary = cands[out.Primary].Candidate.URL
		r.Flags.Remove(types.FlagManualReview)
		r.ReviewReason = ""
	}

	out.Secondary = e.bestSecondary(cands, r.URLs.Primary, exclude)
	if out.Secondary >= 0 {
		r.URLs.Secondary = cands[out.Secondary].Candidate.URL
	} else if r.URLs.Secondary == r.URLs.Primary {
		r.URLs.Secondary = ""
	}

	skip := map[string]bool{r.URLs.Primary: true, r.URLs.Secondary: true}
	out.Tertiary = e.bestPrimary(cands, skip)
	if out.Tertiary >= 0 {
		r.URLs.Tertiary = cands[out.Tertiary].Candidate.URL
	}
	if r.URLs.Tertiary != "" && skip[r.URLs.Tertiary] {
		r.URLs.Tertiary = ""
	}
	return out
}

// bestPrimary returns the index of the highest Primary-scored accepted
// candidate not in skip. Ties go to the higher validation score, then to
// the earlier candidate.
func (e *Engine) bestPrimary(cands []types.Validated, skip map[string]bool) int {
	best := -1
	for i, c := range cands {
		if c.Candidate.Scores.Primary <= 0 || !e.accepted(c.Validation) || skip[c.Candidate.URL] {
			continue
		}
		if best < 0 || better(c.Candidate.Scores.Primary, c.Validation.Score,
			cands[best].Candidate.Scores.Primary, cands[best].Validation.Score) {
			best = i
		}
	}
	return best
}

// bestSecondary returns the index of the highest Secondary-scored accepted
// candidate that is neither the primary nor from the primary's site nor
// excluded.
func (e *Engine) bestSecondary(cands []types.Validated, primary string, exclude []string) int {
	skip := make(map[string]bool, len(exclude))
	for _, u := range exclude {
		if u != "" {
			skip[u] = true
		}
	}

	best := -1
	for i, c := range cands {
		url := c.Candidate.URL
		if c.Candidate.Scores.Secondary <= 0 || !e.accepted(c.Validation) {
			continue
		}
		if url == primary || skip[url] || scorer.SameSource(url, primary) {
			continue
		}
		if best < 0 || better(c.Candidate.Scores.Secondary, c.Validation.Score,
			cands[best].Candidate.Scores.Secondary, cands[best].Validation.Score) {
			best = i
		}
	}
	return best
}

func better(score, validation, bestScore, bestValidation int) bool {
	if score != bestScore {
		return score > bestScore
	}
	return validation > bestValidation
}

// reviewReason explains why no Primary was chosen.
func reviewReason(cands []types.Validated, accept int) string {
	if len(cands) == 0 {
		return "no candidate URLs found"
	}
	eligible, accessible := 0, 0
	var top *types.Validated
	for i, c := range cands {
		if c.Candidate.Scores.Primary > 0 {
			eligible++
		}
		if c.Validation.Accessible {
			accessible++
		}
		if c.Candidate.Scores.Primary > 0 && (top == nil || c.Candidate.Scores.Primary > top.Candidate.Scores.Primary) {
			top = &cands[i]
		}
	}
	switch {
	case eligible == 0:
		return fmt.Sprintf("none of %d candidates is primary-eligible", len(cands))
	case accessible == 0:
		return fmt.Sprintf("no accessible candidate; best primary %s: %s", top.Candidate.URL, top.Validation.Reason)
	}
	return fmt.Sprintf("no primary-eligible candidate validated at %d or above; best %s scored %d (%s)",
		accept, top.Candidate.URL, top.Validation.Score, top.Validation.Reason)
}

// --- Finalization ---

// Confirmer approves a finalization. In interactive use it asks a person.
type Confirmer interface {
	Confirm(ref *types.Reference) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ref *types.Reference) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ref *types.Reference) (bool, error) { return f(ref) }

// Finalize returns a copy of ref with FINALIZED set. It requires a Primary
// URL, a Primary validation score above the finalize threshold and an
// explicit confirmation. Failures wrap types.ErrNotFinalizable.
func (e *Engine) Finalize(ref *types.Reference, primaryScore int, c Confirmer) (*types.Reference, error) {
	if ref.URLs.Primary == "" {
		return nil, fmt.Errorf("%s: no primary URL: %w", ref.ID, types.ErrNotFinalizable)
	}
	if primaryScore <= e.cfg.FinalizeScore {
		return nil, fmt.Errorf("%s: primary score %d not above %d: %w", ref.ID, primaryScore, e.cfg.FinalizeScore, types.ErrNotFinalizable)
	}
	if c == nil {
		return nil, fmt.Errorf("%s: confirmation required: %w", ref.ID, types.ErrNotFinalizable)
	}
	ok, err := c.Confirm(ref)
	if err != nil {
		return nil, fmt.Errorf("%s: confirming: %w", ref.ID, errors.Join(err, types.ErrNotFinalizable))
	}
	if !ok {
		return nil, fmt.Errorf("%s: not confirmed: %w", ref.ID, types.ErrNotFinalizable)
	}

	out := ref.Clone()
	out.Flags.Add(types.FlagFinalized)
	out.Flags.Remove(types.FlagManualReview)
	out.ReviewReason = ""
	return out, nil
}
