// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// Report is one run with its outcomes, as exported.
type Report struct {
	Run      RunInfo       `json:"run" yaml:"run"`
	Summary  ReportSummary `json:"summary" yaml:"summary"`
	Outcomes []Outcome     `json:"outcomes" yaml:"outcomes"`
}

// ReportSummary counts outcomes by kind.
type ReportSummary struct {
	Processed    int `json:"processed" yaml:"processed"`
	WithPrimary  int `json:"with_primary" yaml:"with_primary"`
	ManualReview int `json:"manual_review" yaml:"manual_review"`
	Errors       int `json:"errors" yaml:"errors"`
}

// Report assembles the report of run id.
func (s *Store) Report(ctx context.Context, id string) (*Report, error) {
	info, err := s.run(ctx, id)
	if err != nil {
		return nil, err
	}
	outcomes, err := s.Outcomes(ctx, id)
	if err != nil {
		return nil, err
	}

	rep := &Report{Run: info, Outcomes: outcomes}
	for _, o := range outcomes {
		rep.Summary.Processed++
		if o.URLs.Primary != "" {
			rep.Summary.WithPrimary++
		}
		if o.ReviewReason != "" {
			rep.Summary.ManualReview++
		}
		if o.Error != "" {
			rep.Summary.Errors++
		}
	}
	return rep, nil
}

// Reports assembles the reports of the given runs, or of every run when
// ids is empty.
func (s *Store) Reports(ctx context.Context, ids ...string) ([]*Report, error) {
	if len(ids) == 0 {
		runs, err := s.Runs(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range runs {
			ids = append(ids, r.ID)
		}
	}
	out := make([]*Report, 0, len(ids))
	for _, id := range ids {
		rep, err := s.Report(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, nil
}

// ExportYAML writes reports to w as a YAML sequence.
func ExportYAML(w io.Writer, reports []*Report) error {
	data, err := yaml.Marshal(reports)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes reports to w as indented JSON.
func ExportJSON(w io.Writer, reports []*Report) error {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
