// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"fmt"

	"github.com/pdiddy/refresolve/internal/selection"
	"github.com/pdiddy/refresolve/pkg/types"
)

const instanceRelevanceReason = "instance needs its own relevance text"

// ResolveInstances gives each instance of parent its own Secondary URL,
// chosen from validated so that no two records in the set share one, and
// writes relevance text where it is missing. Instances stay unfinalized.
// The returned slice holds updated copies in input order.
func (r *Resolver) ResolveInstances(ctx context.Context, parent *types.Reference, instances []*types.Reference, validated []types.Validated) []*types.Reference {
	if len(instances) == 0 {
		return nil
	}
	out := r.engine.SelectInstanceSecondaries(parent, instances, validated)

	avoid := []string{parent.RelevanceText}
	for _, inst := range out {
		if inst.RelevanceText != "" {
			avoid = append(avoid, inst.RelevanceText)
		}
	}

	for _, inst := range out {
		if inst.RelevanceText == "" && r.relevance != nil && ctx.Err() == nil {
			text, err := r.relevance.Write(ctx, inst, avoid)
			if err != nil {
				fmt.Fprintf(r.log, "warning: %s: relevance text: %v\n", inst.ID, err)
			} else {
				inst.RelevanceText = text
				if inst.Confidence != nil {
					inst.Confidence[types.FieldRelevance] = types.ConfidenceHeuristic
				}
				avoid = append(avoid, text)
			}
		}

		switch {
		case inst.URLs.Secondary == "":
			// SelectInstanceSecondaries already flagged it.
		case inst.RelevanceText == "":
			inst.Flags.Add(types.FlagManualReview)
			inst.ReviewReason = instanceRelevanceReason
		default:
			inst.Flags.Remove(types.FlagManualReview)
			inst.ReviewReason = ""
		}
		inst.Flags.SetBatch(r.cfg.BatchVersion)
	}

	if err := selection.CheckInstanceSet(parent, out); err != nil {
		fmt.Fprintf(r.log, "warning: instances of %s: %v\n", parent.ID, err)
	}
	return out
}
