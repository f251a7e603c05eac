// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/refresolve/pkg/types"
)

// CandidateFile is the on-disk record of the search step for one reference.
// Saving it lets a later run reuse the hits without paying for the queries
// again.
type CandidateFile struct {
	Reference string            `yaml:"reference"`
	Queries   []string          `yaml:"queries"`
	Hits      []searchHitRecord `yaml:"hits"`
	Summary   CandidateSummary  `yaml:"summary"`
}

// searchHitRecord mirrors types.SearchHit so the file layout stays stable
// if the in-memory type grows.
type searchHitRecord struct {
	URL     string `yaml:"url"`
	Title   string `yaml:"title,omitempty"`
	Snippet string `yaml:"snippet,omitempty"`
	Domain  string `yaml:"domain,omitempty"`
}

// CandidateSummary stores search statistics and a timestamp.
type CandidateSummary struct {
	Total             int       `yaml:"total"`
	DuplicatesRemoved int       `yaml:"duplicates_removed"`
	BackendErrors     []string  `yaml:"backend_errors,omitempty"`
	Timestamp         time.Time `yaml:"timestamp"`
}

// CandidatePath returns the file used for reference id under dir.
func CandidatePath(dir, id string) string {
	return filepath.Join(dir, id+".yaml")
}

// WriteCandidateFile saves the queries and gathered hits for a reference.
func WriteCandidateFile(path, refID string, queries []string, out Output) error {
	cf := CandidateFile{
		Reference: refID,
		Queries:   queries,
		Summary: CandidateSummary{
			Total:             len(out.Hits),
			DuplicatesRemoved: out.DupsRemoved,
			BackendErrors:     out.Errors,
			Timestamp:         time.Now().UTC(),
		},
	}
	for _, h := range out.Hits {
		cf.Hits = append(cf.Hits, searchHitRecord(h))
	}

	data, err := yaml.Marshal(&cf)
	if err != nil {
		return fmt.Errorf("marshaling candidate file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating candidate directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadCandidateFile loads a saved candidate file. The returned bool is
// false when no file exists at path.
func ReadCandidateFile(path string) (*CandidateFile, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading candidate file: %w", err)
	}
	var cf CandidateFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, false, fmt.Errorf("parsing candidate file %s: %w", path, err)
	}
	return &cf, true, nil
}

// Output converts the saved hits back into a gather output.
func (cf *CandidateFile) Output() Output {
	out := Output{
		Queries:     len(cf.Queries),
		DupsRemoved: cf.Summary.DuplicatesRemoved,
		Errors:      cf.Summary.BackendErrors,
	}
	for _, h := range cf.Hits {
		out.Hits = append(out.Hits, types.SearchHit(h))
	}
	return out
}
