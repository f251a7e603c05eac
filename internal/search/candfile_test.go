// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/refresolve/pkg/types"
)

func TestCandidateFile(t *testing.T) {
	dir := t.TempDir()
	path := CandidatePath(filepath.Join(dir, "cands"), "4.1")
	assert.Equal(t, "4.1.yaml", filepath.Base(path))

	_, ok, err := ReadCandidateFile(path)
	require.NoError(t, err)
	assert.False(t, ok, "missing file is not an error")

	out := Output{
		Hits: []types.SearchHit{
			{URL: "https://archive.org/details/tfas", Title: "Thinking, Fast and Slow", Snippet: "Free download", Domain: "archive.org"},
			{URL: "https://doi.org/10.1000/x"},
		},
		Queries:     2,
		DupsRemoved: 3,
		Errors:      []string{`openalex "q": HTTP 500`},
	}
	queries := []string{`"Thinking, Fast and Slow" kahneman`, "q"}
	require.NoError(t, WriteCandidateFile(path, "4.1", queries, out))

	cf, ok, err := ReadCandidateFile(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "4.1", cf.Reference)
	assert.Equal(t, queries, cf.Queries)
	assert.Equal(t, 2, cf.Summary.Total)
	assert.False(t, cf.Summary.Timestamp.IsZero())
	assert.Equal(t, out, cf.Output())
}

func TestReadCandidateFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hits: [unclosed"), 0o644))
	_, _, err := ReadCandidateFile(path)
	assert.ErrorContains(t, err, "parsing candidate file")
}
