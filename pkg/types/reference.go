// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the refresolve pipeline:
// references and their flags, search candidates, validation results, the
// error taxonomy, and the configuration structs read by the CLI.
package types

import (
	"fmt"
	"strings"
)

// Confidence records how a parsed field was obtained.
type Confidence string

const (
	// ConfidenceFound means a high-priority pattern matched the field.
	ConfidenceFound Confidence = "found"
	// ConfidenceUncertain means only a fallback pattern matched.
	ConfidenceUncertain Confidence = "uncertain"
	// ConfidenceMissing means nothing matched.
	ConfidenceMissing Confidence = "missing"
	// ConfidenceHeuristic means the value was inferred from leftover text.
	ConfidenceHeuristic Confidence = "heuristic"
)

// Field names a bibliographic field of a Reference.
type Field string

const (
	FieldAuthors     Field = "authors"
	FieldYear        Field = "year"
	FieldTitle       Field = "title"
	FieldPublication Field = "publication"
	FieldRelevance   Field = "relevance"
)

// Fields lists the bibliographic fields in display order.
var Fields = []Field{FieldAuthors, FieldYear, FieldTitle, FieldPublication, FieldRelevance}

// ConfidenceMap pairs each field with the confidence of its extraction.
type ConfidenceMap map[Field]Confidence

// Get returns the confidence for f, defaulting to missing.
func (m ConfidenceMap) Get(f Field) Confidence {
	if c, ok := m[f]; ok {
		return c
	}
	return ConfidenceMissing
}

// AllMissing returns a map with every field set to missing.
func AllMissing() ConfidenceMap {
	m := make(ConfidenceMap, len(Fields))
	for _, f := range Fields {
		m[f] = ConfidenceMissing
	}
	return m
}

// URLs holds the ranked source links for a reference.
type URLs struct {
	Primary   string `json:"primary,omitempty" yaml:"primary,omitempty"`
	Secondary string `json:"secondary,omitempty" yaml:"secondary,omitempty"`
	Tertiary  string `json:"tertiary,omitempty" yaml:"tertiary,omitempty"`
}

// Reference is one bibliographic entry.
type Reference struct {
	// ID is the RID: "42" for a parent, "42.1" for its first instance.
	ID string `json:"id" yaml:"id"`

	Authors     string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year        string `json:"year,omitempty" yaml:"year,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Publication string `json:"publication,omitempty" yaml:"publication,omitempty"`

	// Confidence records how each field above was extracted.
	Confidence ConfidenceMap `json:"confidence,omitempty" yaml:"confidence,omitempty"`

	// RelevanceText explains why the source matters.
	RelevanceText string `json:"relevance,omitempty" yaml:"relevance,omitempty"`

	URLs  URLs    `json:"urls" yaml:"urls"`
	Flags FlagSet `json:"flags,omitempty" yaml:"flags,omitempty"`

	// ParentID is set on instance records and refers to the parent RID.
	ParentID string `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`

	// ReviewReason explains a MANUAL_REVIEW flag. It is kept in the
	// checkpoint log, not in the record line.
	ReviewReason string `json:"review_reason,omitempty" yaml:"review_reason,omitempty"`
}

// Clone returns a deep copy of r.
func (r *Reference) Clone() *Reference {
	c := *r
	if r.Confidence != nil {
		c.Confidence = make(ConfidenceMap, len(r.Confidence))
		for k, v := range r.Confidence {
			c.Confidence[k] = v
		}
	}
	if r.Flags != nil {
		c.Flags = append(FlagSet(nil), r.Flags...)
	}
	return &c
}

// Finalized reports whether the FINALIZED flag is set.
func (r *Reference) Finalized() bool { return r.Flags.Has(FlagFinalized) }

// IsInstance reports whether r is an instance record of another reference.
func (r *Reference) IsInstance() bool {
	return r.ParentID != "" || r.Flags.Has(FlagInstance)
}

// BaseID returns the parent portion of the RID ("42" for "42.1").
func (r *Reference) BaseID() string { return BaseRID(r.ID) }

// Check verifies the record-level invariants.
func (r *Reference) Check() error {
	if r.ID == "" {
		return ErrMissingID
	}
	if r.Finalized() && r.URLs.Primary == "" {
		return fmt.Errorf("reference %s: finalized without a primary URL", r.ID)
	}
	if r.URLs.Secondary != "" && r.URLs.Secondary == r.URLs.Primary {
		return fmt.Errorf("reference %s: secondary URL equals primary", r.ID)
	}
	return nil
}

// Citation renders the bibliographic fields as a short citation string
// suitable for prompts and content matching.
func (r *Reference) Citation() string {
	var parts []string
	if r.Authors != "" {
		parts = append(parts, r.Authors)
	}
	if r.Year != "" {
		parts = append(parts, "("+r.Year+")")
	}
	if r.Title != "" {
		parts = append(parts, r.Title+".")
	}
	if r.Publication != "" {
		parts = append(parts, r.Publication+".")
	}
	return strings.Join(parts, " ")
}

// BaseRID returns the part of id before the first instance suffix.
func BaseRID(id string) string {
	if i := strings.IndexByte(id, '.'); i > 0 {
		return id[:i]
	}
	return id
}

// InstanceRID returns the RID of the n-th instance of parent.
func InstanceRID(parent string, n int) string {
	return fmt.Sprintf("%s.%d", BaseRID(parent), n)
}
