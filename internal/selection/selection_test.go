// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package selection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/refresolve/pkg/types"
)

func vc(url string, primary, secondary, validation int, accessible bool) types.Validated {
	return types.Validated{
		Candidate: types.Candidate{URL: url, Scores: types.Scores{Primary: primary, Secondary: secondary}},
		Validation: types.ValidationResult{
			URL: url, Accessible: accessible, Score: validation, Reason: "test",
		},
	}
}

func TestSelect_PrimaryAndSecondary(t *testing.T) {
	e := New(types.DefaultSelectionConfig())
	ref := &types.Reference{ID: "4", Title: "Thinking, Fast and Slow", Flags: types.FlagSet{types.FlagManualReview}, ReviewReason: "old"}
	cands := []types.Validated{
		vc("https://archive.org/details/tfas", 100, 30, 100, true),
		vc("https://www.jstor.org/stable/1", 55, 95, 90, true),
		vc("https://openlibrary.org/works/OL1", 85, 20, 85, true),
		vc("https://paywalled.example.com/a", 95, 10, 55, false),
	}

	out := e.Select(ref, cands)
	r := out.Reference

	assert.Equal(t, 0, out.Primary)
	assert.Equal(t, 1, out.Secondary)
	assert.Equal(t, 2, out.Tertiary)
	assert.Equal(t, "https://archive.org/details/tfas", r.URLs.Primary)
	assert.Equal(t, "https://www.jstor.org/stable/1", r.URLs.Secondary)
	assert.Equal(t, "https://openlibrary.org/works/OL1", r.URLs.Tertiary)
	assert.False(t, r.Flags.Has(types.FlagManualReview))
	assert.Empty(t, r.ReviewReason)
	assert.False(t, r.Finalized(), "selection must not finalize")

	// The input is untouched.
	assert.True(t, ref.Flags.Has(types.FlagManualReview))
	assert.Empty(t, ref.URLs.Primary)
	assert.Equal(t, cands[0], *out.PrimaryOf(cands))
}

func TestSelect_NoPrimary(t *testing.T) {
	e := New(types.DefaultSelectionConfig())
	ref := &types.Reference{ID: "7"}
	cands := []types.Validated{
		vc("https://a.example/x", 90, 0, 74, true),
		vc("https://b.example/y", 80, 0, 95, false),
	}

	out := e.Select(ref, cands)
	assert.Equal(t, -1, out.Primary)
	assert.Nil(t, out.PrimaryOf(cands))
	assert.Empty(t, out.Reference.URLs.Primary)
	assert.True(t, out.Reference.Flags.Has(types.FlagManualReview))
	assert.Contains(t, out.Reference.ReviewReason, "validated at 75 or above")
}

func TestSelect_ReviewReasons(t *testing.T) {
	e := New(types.SelectionConfig{})

	none := e.Select(&types.Reference{ID: "1"}, nil)
	assert.Equal(t, "no candidate URLs found", none.Reference.ReviewReason)

	ineligible := e.Select(&types.Reference{ID: "1"}, []types.Validated{vc("https://a.example", 0, 60, 95, true)})
	assert.Contains(t, ineligible.Reference.ReviewReason, "primary-eligible")

	blocked := e.Select(&types.Reference{ID: "1"}, []types.Validated{vc("https://a.example", 80, 0, 0, false)})
	assert.Contains(t, blocked.Reference.ReviewReason, "no accessible candidate")
}

func TestSelect_ScoreBoundary(t *testing.T) {
	e := New(types.DefaultSelectionConfig())
	out := e.Select(&types.Reference{ID: "1"}, []types.Validated{vc("https://a.example/p", 80, 0, 75, true)})
	assert.Equal(t, 0, out.Primary)
}

func TestSelect_TieBreaks(t *testing.T) {
	e := New(types.DefaultSelectionConfig())
	cands := []types.Validated{
		vc("https://a.example/1", 90, 0, 80, true),
		vc("https://b.example/2", 90, 0, 95, true),
		vc("https://c.example/3", 90, 0, 95, true),
	}
	out := e.Select(&types.Reference{ID: "1"}, cands)
	assert.Equal(t, 1, out.Primary)
	assert.Equal(t, 2, out.Tertiary)
}

func TestSelect_SecondaryRules(t *testing.T) {
	e := New(types.DefaultSelectionConfig())
	cands := []types.Validated{
		vc("https://archive.org/details/tfas", 100, 30, 100, true),
		vc("https://blog.archive.org/post", 0, 90, 95, true),   // same site as primary
		vc("https://excluded.example/review", 0, 88, 95, true), // sibling secondary
		vc("https://locked.example/review", 0, 85, 50, false),  // not accessible
		vc("https://www.nybooks.com/articles/tfas", 0, 80, 90, true),
	}

	out := e.Select(&types.Reference{ID: "1"}, cands, "https://excluded.example/review")
	assert.Equal(t, 4, out.Secondary)
	assert.Equal(t, "https://www.nybooks.com/articles/tfas", out.Reference.URLs.Secondary)
	assert.NotEqual(t, out.Reference.URLs.Primary, out.Reference.URLs.Secondary)
	require.NoError(t, out.Reference.Check())
}

func TestSelect_StaleSecondaryCleared(t *testing.T) {
	e := New(types.DefaultSelectionConfig())
	ref := &types.Reference{ID: "1", URLs: types.URLs{Secondary: "https://a.example/p"}}
	out := e.Select(ref, []types.Validated{vc("https://a.example/p", 90, 0, 95, true)})

	assert.Equal(t, "https://a.example/p", out.Reference.URLs.Primary)
	assert.Empty(t, out.Reference.URLs.Secondary)
}

func TestFinalize(t *testing.T) {
	e := New(types.DefaultSelectionConfig())
	yes := ConfirmFunc(func(*types.Reference) (bool, error) { return true, nil })
	no := ConfirmFunc(func(*types.Reference) (bool, error) { return false, nil })
	broken := ConfirmFunc(func(*types.Reference) (bool, error) { return false, errors.New("tty closed") })

	ref := &types.Reference{ID: "4", URLs: types.URLs{Primary: "https://archive.org/details/tfas"}, Flags: types.FlagSet{types.FlagManualReview}}

	tests := []struct {
		name  string
		ref   *types.Reference
		score int
		c     Confirmer
	}{
		{"no primary", &types.Reference{ID: "4"}, 99, yes},
		{"score at threshold", ref, 85, yes},
		{"no confirmer", ref, 99, nil},
		{"declined", ref, 99, no},
		{"confirm error", ref, 99, broken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Finalize(tt.ref, tt.score, tt.c)
			assert.ErrorIs(t, err, types.ErrNotFinalizable)
		})
	}

	got, err := e.Finalize(ref, 86, yes)
	require.NoError(t, err)
	assert.True(t, got.Finalized())
	assert.False(t, got.Flags.Has(types.FlagManualReview))
	assert.False(t, ref.Finalized())
}

func TestExpandInstances(t *testing.T) {
	parent := &types.Reference{
		ID: "42", Title: "Theory", RelevanceText: "Parent relevance.",
		URLs:       types.URLs{Primary: "https://p.example/42", Secondary: "https://s1.example"},
		Flags:      types.FlagSet{types.FlagFinalized},
		Confidence: types.ConfidenceMap{types.FieldTitle: types.ConfidenceFound, types.FieldRelevance: types.ConfidenceFound},
	}
	existing := []*types.Reference{parent, {ID: "42.1", ParentID: "42"}, {ID: "420.7"}}

	got := ExpandInstances(parent, 2, existing)
	require.Len(t, got, 2)
	assert.Equal(t, "42.2", got[0].ID)
	assert.Equal(t, "42.3", got[1].ID)
	for _, inst := range got {
		assert.Equal(t, "42", inst.ParentID)
		assert.Equal(t, parent.URLs.Primary, inst.URLs.Primary)
		assert.Empty(t, inst.URLs.Secondary)
		assert.Empty(t, inst.RelevanceText)
		assert.True(t, inst.Flags.Has(types.FlagInstance))
		assert.False(t, inst.Finalized())
		assert.Equal(t, "Theory", inst.Title)
		assert.Equal(t, types.ConfidenceMissing, inst.Confidence[types.FieldRelevance])
	}
	assert.Equal(t, types.ConfidenceFound, parent.Confidence[types.FieldRelevance])
}

func TestInstanceSecondariesUnique(t *testing.T) {
	e := New(types.DefaultSelectionConfig())
	parent := &types.Reference{ID: "42", URLs: types.URLs{Primary: "https://p.example/42", Secondary: "https://s1.example/r"}}
	instances := ExpandInstances(parent, 2, nil)

	cands := []types.Validated{
		vc("https://s1.example/r", 0, 95, 95, true),
		vc("https://s2.example/r", 0, 90, 95, true),
		vc("https://s3.example/r", 0, 85, 95, true),
		vc("https://p.example/42", 100, 0, 100, true),
	}

	got := e.SelectInstanceSecondaries(parent, instances, cands)
	require.Len(t, got, 2)
	assert.Equal(t, "42.1", got[0].ID)
	assert.Equal(t, "https://s2.example/r", got[0].URLs.Secondary)
	assert.Equal(t, "42.2", got[1].ID)
	assert.Equal(t, "https://s3.example/r", got[1].URLs.Secondary)
	for _, r := range got {
		assert.False(t, r.Finalized())
		assert.Equal(t, parent.URLs.Primary, r.URLs.Primary)
	}
	assert.NoError(t, CheckInstanceSet(parent, got))
}

func TestInstanceSecondaries_Exhausted(t *testing.T) {
	e := New(types.DefaultSelectionConfig())
	parent := &types.Reference{ID: "42", URLs: types.URLs{Primary: "https://p.example/42", Secondary: "https://s1.example/r"}}
	instances := ExpandInstances(parent, 2, nil)
	cands := []types.Validated{
		vc("https://s1.example/r", 0, 95, 95, true),
		vc("https://s2.example/r", 0, 90, 95, true),
	}

	got := e.SelectInstanceSecondaries(parent, instances, cands)
	assert.Equal(t, "https://s2.example/r", got[0].URLs.Secondary)
	assert.Empty(t, got[1].URLs.Secondary)
	assert.True(t, got[1].Flags.Has(types.FlagManualReview))
	assert.Equal(t, "no unique secondary URL for instance", got[1].ReviewReason)
}

func TestInstanceSecondaries_FollowParentPrimary(t *testing.T) {
	e := New(types.DefaultSelectionConfig())
	parent := &types.Reference{ID: "42", URLs: types.URLs{Primary: "https://p.example/42", Secondary: "https://s1.example/r"}}
	stale := []*types.Reference{
		{ID: "42.1", ParentID: "42", URLs: types.URLs{Primary: "https://old.example/42", Secondary: "https://p.example/other"}},
		{ID: "42.2", ParentID: "42", URLs: types.URLs{Primary: "https://old.example/42", Secondary: "https://s3.example/r"}},
	}
	cands := []types.Validated{
		vc("https://s1.example/r", 0, 95, 95, true),
		vc("https://s2.example/r", 0, 90, 95, true),
		vc("https://s3.example/r", 0, 85, 95, true),
	}

	got := e.SelectInstanceSecondaries(parent, stale, cands)
	for _, r := range got {
		assert.Equal(t, parent.URLs.Primary, r.URLs.Primary)
	}
	assert.Equal(t, "https://s2.example/r", got[0].URLs.Secondary, "same-site secondary is replaced")
	assert.Equal(t, "https://s3.example/r", got[1].URLs.Secondary)
	assert.NoError(t, CheckInstanceSet(parent, got))
	assert.Equal(t, "https://old.example/42", stale[0].URLs.Primary, "inputs are not modified")
}

func TestCheckInstanceSet(t *testing.T) {
	parent := &types.Reference{ID: "42", URLs: types.URLs{Primary: "https://p", Secondary: "https://s1"}}
	bad := []*types.Reference{
		{ID: "42.1", ParentID: "42", URLs: types.URLs{Primary: "https://p", Secondary: "https://s1"}},
		{ID: "43.1", ParentID: "42", URLs: types.URLs{Primary: "https://other", Secondary: "https://s2"}},
	}
	err := CheckInstanceSet(parent, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already used by 42")
	assert.Contains(t, err.Error(), "not an instance id")
	assert.Contains(t, err.Error(), "differs from parent primary")
}

func TestGroupInstances(t *testing.T) {
	refs := []*types.Reference{
		{ID: "1"},
		{ID: "1.1", ParentID: "1"},
		{ID: "2"},
		{ID: "1.2", Flags: types.FlagSet{types.FlagInstance}},
	}
	g := GroupInstances(refs)
	require.Len(t, g["1"], 2)
	assert.Equal(t, "1.2", g["1"][1].ID)
	assert.Empty(t, g["2"])
}
