// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/refresolve/internal/checkpoint"
	"github.com/pdiddy/refresolve/internal/selection"
	"github.com/pdiddy/refresolve/pkg/types"
)

// Recorder receives per-reference outcomes during a batch.
// *checkpoint.Run implements it.
type Recorder interface {
	Record(ctx context.Context, o checkpoint.Outcome) error
	SetSpent(ctx context.Context, spent float64) error
}

// BatchOptions controls ResolveBatch.
type BatchOptions struct {
	// IDs restricts the batch to these references. Instance RIDs select
	// their parent. Empty means every parent.
	IDs []string

	// Force re-resolves FINALIZED parents.
	Force bool

	// Skip lists RIDs already processed in a resumed run.
	Skip map[string]bool

	Recorder Recorder
}

// BatchSummary counts what a batch did.
type BatchSummary struct {
	Total        int
	Resolved     int
	WithPrimary  int
	ManualReview int
	Skipped      int
	Instances    int
	Spent        float64

	// Halted is set when the batch stopped early on budget or cancellation.
	Halted bool
}

// ResolveBatch resolves the parents in refs, each together with its
// instance records, and returns the full record list with updated copies
// in place of the originals. refs itself is not modified.
//
// The budget and ctx are checked between references. When either stops
// the batch, the records resolved so far are returned together with the
// error, which wraps types.ErrBudgetExceeded or ctx.Err(). Failures inside
// one reference are logged and recorded, never returned.
func (r *Resolver) ResolveBatch(ctx context.Context, refs []*types.Reference, opts BatchOptions) ([]*types.Reference, BatchSummary, error) {
	out := append([]*types.Reference(nil), refs...)
	index := make(map[string]int, len(refs))
	parents := make(map[string]bool)
	for i, ref := range refs {
		index[ref.ID] = i
		if !ref.IsInstance() {
			parents[ref.ID] = true
		}
	}
	groups := selection.GroupInstances(refs)
	for p, insts := range groups {
		if !parents[p] {
			fmt.Fprintf(r.log, "warning: %d instance(s) of %s have no parent record\n", len(insts), p)
		}
	}

	wanted := make(map[string]bool, len(opts.IDs))
	for _, id := range opts.IDs {
		wanted[types.BaseRID(id)] = true
	}

	var todo []*types.Reference
	for _, ref := range refs {
		if ref.IsInstance() || (len(wanted) > 0 && !wanted[ref.ID]) {
			continue
		}
		todo = append(todo, ref)
	}

	var sum BatchSummary
	sum.Total = len(todo)
	var haltErr error
	for i, parent := range todo {
		if err := ctx.Err(); err != nil {
			haltErr = err
			break
		}
		if err := r.budget.Err(); err != nil {
			haltErr = err
			break
		}
		if opts.Skip[parent.ID] {
			sum.Skipped++
			continue
		}

		insts := groups[parent.ID]
		keepParent := parent.Finalized() && !opts.Force
		if keepParent && !needsWork(insts) {
			sum.Skipped++
			fmt.Fprintf(r.log, "[%d/%d] %s: finalized, skipped\n", i+1, len(todo), parent.ID)
			continue
		}

		fmt.Fprintf(r.log, "[%d/%d] %s: %s\n", i+1, len(todo), parent.ID, truncate(parent.Title, 60))
		updated, err := r.resolveGroup(ctx, parent, insts, keepParent, opts.Recorder, &sum)
		if err != nil {
			if ctx.Err() != nil {
				haltErr = ctx.Err()
				break
			}
			fmt.Fprintf(r.log, "  error: %v\n", err)
			r.record(ctx, opts.Recorder, checkpoint.Outcome{RefID: parent.ID, Error: err.Error()})
			continue
		}
		for _, u := range updated {
			out[index[u.ID]] = u
		}
		if opts.Recorder != nil {
			if err := opts.Recorder.SetSpent(context.WithoutCancel(ctx), r.budget.Spent()); err != nil {
				fmt.Fprintf(r.log, "warning: checkpoint: %v\n", err)
			}
		}
	}

	sum.Spent = r.budget.Spent()
	if haltErr != nil {
		sum.Halted = true
		if errors.Is(haltErr, types.ErrBudgetExceeded) {
			fmt.Fprintf(r.log, "Budget exhausted, stopping: %v\n", haltErr)
		} else {
			fmt.Fprintf(r.log, "Interrupted: %v\n", haltErr)
		}
	}
	return out, sum, haltErr
}

// resolveGroup resolves one parent and its instances and returns the
// updated records. A finalized parent is returned unchanged when keepParent
// is set; its candidates still feed the instances.
func (r *Resolver) resolveGroup(ctx context.Context, parent *types.Reference, insts []*types.Reference, keepParent bool, rec Recorder, sum *BatchSummary) ([]*types.Reference, error) {
	var exclude []string
	for _, inst := range insts {
		if inst.URLs.Secondary != "" {
			exclude = append(exclude, inst.URLs.Secondary)
		}
	}

	res, err := r.Resolve(ctx, parent, exclude...)
	if err != nil {
		return nil, err
	}

	var updated []*types.Reference
	resolved := parent
	if !keepParent {
		resolved = res.Reference
		updated = append(updated, resolved)
		sum.Resolved++
		if resolved.URLs.Primary != "" {
			sum.WithPrimary++
		}
		if resolved.Flags.Has(types.FlagManualReview) {
			sum.ManualReview++
			fmt.Fprintf(r.log, "  manual review: %s\n", resolved.ReviewReason)
		} else {
			fmt.Fprintf(r.log, "  primary: %s\n", resolved.URLs.Primary)
		}
		r.record(ctx, rec, checkpoint.OutcomeOf(resolved, len(res.Candidates), res.Validated))
	}

	for _, inst := range r.ResolveInstances(ctx, resolved, insts, res.Validated) {
		updated = append(updated, inst)
		sum.Instances++
		if inst.Flags.Has(types.FlagManualReview) {
			sum.ManualReview++
		}
		r.record(ctx, rec, checkpoint.OutcomeOf(inst, 0, nil))
	}
	return updated, nil
}

// record writes o to the checkpoint. Checkpoint failures are warnings; the
// records file is still written at the end of the batch.
func (r *Resolver) record(ctx context.Context, rec Recorder, o checkpoint.Outcome) {
	if rec == nil {
		return
	}
	if err := rec.Record(context.WithoutCancel(ctx), o); err != nil {
		fmt.Fprintf(r.log, "warning: checkpoint %s: %v\n", o.RefID, err)
	}
}

// needsWork reports whether any instance still lacks a Secondary or
// relevance text.
func needsWork(insts []*types.Reference) bool {
	for _, inst := range insts {
		if inst.URLs.Secondary == "" || inst.RelevanceText == "" {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
