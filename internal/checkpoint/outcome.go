// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pdiddy/refresolve/pkg/types"
)

// Outcome is the checkpointed result of resolving one reference.
type Outcome struct {
	RefID        string                   `json:"ref_id" yaml:"ref_id"`
	URLs         types.URLs               `json:"urls" yaml:"urls"`
	Flags        string                   `json:"flags,omitempty" yaml:"flags,omitempty"`
	ReviewReason string                   `json:"review_reason,omitempty" yaml:"review_reason,omitempty"`
	Candidates   int                      `json:"candidates" yaml:"candidates"`
	Error        string                   `json:"error,omitempty" yaml:"error,omitempty"`
	ProcessedAt  time.Time                `json:"processed_at" yaml:"processed_at"`
	Validations  []types.ValidationResult `json:"validations,omitempty" yaml:"validations,omitempty"`
}

// OutcomeOf builds the outcome row for a resolved reference.
func OutcomeOf(ref *types.Reference, candidates int, validated []types.Validated) Outcome {
	o := Outcome{
		RefID:        ref.ID,
		URLs:         ref.URLs,
		Flags:        ref.Flags.String(),
		ReviewReason: ref.ReviewReason,
		Candidates:   candidates,
	}
	for _, v := range validated {
		o.Validations = append(o.Validations, v.Validation)
	}
	return o
}

// Record stores o, replacing an earlier outcome for the same reference in
// this run together with its validation rows.
func (r *Run) Record(ctx context.Context, o Outcome) error {
	if o.ProcessedAt.IsZero() {
		o.ProcessedAt = time.Now().UTC()
	}

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM outcomes WHERE run_id = ? AND ref_id = ?`, r.info.ID, o.RefID,
	); err != nil {
		return fmt.Errorf("deleting old outcome: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outcomes (run_id, ref_id, primary_url, secondary_url, tertiary_url, flags, review_reason, candidates, error, processed_at, seq)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM outcomes WHERE run_id = ?))`,
		r.info.ID, o.RefID, o.URLs.Primary, o.URLs.Secondary, o.URLs.Tertiary,
		o.Flags, o.ReviewReason, o.Candidates, o.Error, o.ProcessedAt.Format(timeFmt), r.info.ID,
	)
	if err != nil {
		return fmt.Errorf("inserting outcome %s: %w", o.RefID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO validations (run_id, ref_id, url, accessible, score, reason, barriers, matched, confidence, status_code, final_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range o.Validations {
		barriersJSON, _ := json.Marshal(v.Barriers)
		_, err := stmt.ExecContext(ctx,
			r.info.ID, o.RefID, v.URL, v.Accessible, v.Score, v.Reason, string(barriersJSON),
			v.ContentMatch.Matched, v.ContentMatch.Confidence, v.StatusCode, v.FinalURL,
		)
		if err != nil {
			return fmt.Errorf("inserting validation %s: %w", v.URL, err)
		}
	}
	return tx.Commit()
}

// Processed returns the set of reference IDs already recorded in this run.
// Outcomes that carry an error are not counted so a resume retries them.
func (r *Run) Processed(ctx context.Context) (map[string]bool, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT ref_id FROM outcomes WHERE run_id = ? AND COALESCE(error, '') = ''`, r.info.ID)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		done[id] = true
	}
	return done, rows.Err()
}

// Outcomes returns the outcomes of run id in processing order, each with
// its validation results.
func (s *Store) Outcomes(ctx context.Context, id string) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ref_id, primary_url, secondary_url, tertiary_url, flags, review_reason, candidates, error, processed_at
		 FROM outcomes WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}

	var out []Outcome
	index := make(map[string]int)
	for rows.Next() {
		var (
			o                                   Outcome
			primary, secondary, tertiary, flags sql.NullString
			reason, errText                     sql.NullString
			processed                           string
		)
		if err := rows.Scan(&o.RefID, &primary, &secondary, &tertiary, &flags, &reason, &o.Candidates, &errText, &processed); err != nil {
			rows.Close()
			return nil, err
		}
		o.URLs = types.URLs{Primary: primary.String, Secondary: secondary.String, Tertiary: tertiary.String}
		o.Flags, o.ReviewReason, o.Error = flags.String, reason.String, errText.String
		o.ProcessedAt, _ = time.Parse(timeFmt, processed)
		index[o.RefID] = len(out)
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	vrows, err := s.db.QueryContext(ctx,
		`SELECT ref_id, url, accessible, score, reason, barriers, matched, confidence, status_code, final_url
		 FROM validations WHERE run_id = ? ORDER BY ref_id, score DESC, url`, id)
	if err != nil {
		return nil, fmt.Errorf("querying validations: %w", err)
	}
	defer vrows.Close()

	for vrows.Next() {
		var (
			refID            string
			v                types.ValidationResult
			reason, barriers sql.NullString
			finalURL         sql.NullString
			status           sql.NullInt64
		)
		if err := vrows.Scan(&refID, &v.URL, &v.Accessible, &v.Score, &reason, &barriers,
			&v.ContentMatch.Matched, &v.ContentMatch.Confidence, &status, &finalURL); err != nil {
			return nil, err
		}
		v.Reason, v.FinalURL, v.StatusCode = reason.String, finalURL.String, int(status.Int64)
		if barriers.Valid && barriers.String != "" {
			_ = json.Unmarshal([]byte(barriers.String), &v.Barriers)
		}
		if i, ok := index[refID]; ok {
			out[i].Validations = append(out[i].Validations, v)
		}
	}
	return out, vrows.Err()
}
