// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package selection

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/refresolve/internal/scorer"
	"github.com/pdiddy/refresolve/pkg/types"
)

const instanceReviewReason = "instance needs its own secondary URL and relevance text"

// ExpandInstances creates count new instance records of parent. RIDs
// continue after the highest instance number already present in existing,
// so "42.3" follows "42.1" and "42.2". Each instance shares the parent's
// Primary URL, starts without a Secondary or relevance text, and is never
// finalized.
func ExpandInstances(parent *types.Reference, count int, existing []*types.Reference) []*types.Reference {
	base := parent.BaseID()
	next := 1
	for _, r := range existing {
		if n, ok := instanceNumber(base, r.ID); ok && n >= next {
			next = n + 1
		}
	}

	out := make([]*types.Reference, 0, count)
	for i := 0; i < count; i++ {
		inst := parent.Clone()
		inst.ID = types.InstanceRID(base, next+i)
		inst.ParentID = base
		inst.RelevanceText = ""
		inst.URLs = types.URLs{Primary: parent.URLs.Primary}
		inst.Flags = types.FlagSet{types.FlagInstance, types.FlagManualReview}
		inst.ReviewReason = instanceReviewReason
		if inst.Confidence != nil {
			inst.Confidence[types.FieldRelevance] = types.ConfidenceMissing
		}
		out = append(out, inst)
	}
	return out
}

// instanceNumber returns N for an id of the form "<base>.N".
func instanceNumber(base, id string) (int, bool) {
	suffix, ok := strings.CutPrefix(id, base+".")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(suffix)
	return n, err == nil && n > 0
}

// SelectInstanceSecondaries picks a Secondary for every instance that lacks
// one. Every instance takes the parent's current Primary. Choices are made
// in instance order and each excludes the parent's Secondary and every
// sibling Secondary chosen before it, so all Secondaries in the set are
// distinct. Instances that already have a Secondary keep it unless it now
// collides with the Primary's site.
func (e *Engine) SelectInstanceSecondaries(parent *types.Reference, instances []*types.Reference, cands []types.Validated) []*types.Reference {
	out := make([]*types.Reference, len(instances))
	taken := []string{parent.URLs.Secondary}
	for i, inst := range instances {
		r := inst.Clone()
		r.Flags.Remove(types.FlagFinalized)
		r.URLs.Primary = parent.URLs.Primary
		if sec := r.URLs.Secondary; sec != "" && r.URLs.Primary != "" &&
			(sec == r.URLs.Primary || scorer.SameSource(sec, r.URLs.Primary)) {
			r.URLs.Secondary = ""
		}
		if r.URLs.Secondary != "" {
			taken = append(taken, r.URLs.Secondary)
		}
		out[i] = r
	}

	for _, r := range out {
		if r.URLs.Secondary == "" {
			if j := e.bestSecondary(cands, r.URLs.Primary, taken); j >= 0 {
				r.URLs.Secondary = cands[j].Candidate.URL
				taken = append(taken, r.URLs.Secondary)
			}
		}
		if r.URLs.Secondary == "" {
			r.Flags.Add(types.FlagManualReview)
			r.ReviewReason = "no unique secondary URL for instance"
		} else if r.RelevanceText != "" {
			r.Flags.Remove(types.FlagManualReview)
			r.ReviewReason = ""
		}
	}
	return out
}

// CheckInstanceSet verifies a parent and its instances: RIDs and parent
// links agree, every instance shares the parent's Primary, and no two
// records in the set have the same Secondary.
func CheckInstanceSet(parent *types.Reference, instances []*types.Reference) error {
	var errs []error
	base := parent.BaseID()
	seen := make(map[string]string)
	if parent.URLs.Secondary != "" {
		seen[parent.URLs.Secondary] = parent.ID
	}

	for _, inst := range instances {
		if _, ok := instanceNumber(base, inst.ID); !ok {
			errs = append(errs, fmt.Errorf("%s: not an instance id of %s", inst.ID, base))
		}
		if inst.ParentID != base {
			errs = append(errs, fmt.Errorf("%s: parent is %q, want %q", inst.ID, inst.ParentID, base))
		}
		if inst.URLs.Primary != parent.URLs.Primary {
			errs = append(errs, fmt.Errorf("%s: primary %q differs from parent primary %q", inst.ID, inst.URLs.Primary, parent.URLs.Primary))
		}
		if s := inst.URLs.Secondary; s != "" {
			if other, dup := seen[s]; dup {
				errs = append(errs, fmt.Errorf("%s: secondary %s already used by %s", inst.ID, s, other))
			} else {
				seen[s] = inst.ID
			}
		}
	}
	return errors.Join(errs...)
}

// GroupInstances returns the instances of each parent in refs, keyed by
// parent RID, in file order.
func GroupInstances(refs []*types.Reference) map[string][]*types.Reference {
	groups := make(map[string][]*types.Reference)
	for _, r := range refs {
		if r.IsInstance() {
			p := r.ParentID
			if p == "" {
				p = r.BaseID()
			}
			groups[p] = append(groups[p], r)
		}
	}
	return groups
}
