// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recordstore

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/refresolve/pkg/types"
)

// Stats summarizes the state of a records file.
type Stats struct {
	Total        int `json:"total" yaml:"total"`
	Instances    int `json:"instances" yaml:"instances"`
	Finalized    int `json:"finalized" yaml:"finalized"`
	ManualReview int `json:"manual_review" yaml:"manual_review"`

	WithPrimary   int `json:"with_primary" yaml:"with_primary"`
	WithSecondary int `json:"with_secondary" yaml:"with_secondary"`
	WithTertiary  int `json:"with_tertiary" yaml:"with_tertiary"`
	WithBoth      int `json:"with_both" yaml:"with_both"`
	PDFPrimary    int `json:"pdf_primary" yaml:"pdf_primary"`
	PDFSecondary  int `json:"pdf_secondary" yaml:"pdf_secondary"`

	// Chapters counts references per hundred base RIDs, in RID order.
	Chapters []Bucket `json:"chapters" yaml:"chapters"`
}

// Bucket counts references whose base RID falls in [Start, Start+99].
// RIDs that are not numbers land in a bucket with Start -1.
type Bucket struct {
	Start     int `json:"start" yaml:"start"`
	Count     int `json:"count" yaml:"count"`
	Finalized int `json:"finalized" yaml:"finalized"`
}

// Label renders the bucket range, e.g. "100-199".
func (b Bucket) Label() string {
	if b.Start < 0 {
		return "other"
	}
	return fmt.Sprintf("%d-%d", b.Start, b.Start+99)
}

// ComputeStats counts flags, URL coverage and chapter buckets over refs.
func ComputeStats(refs []*types.Reference) Stats {
	var s Stats
	buckets := make(map[int]*Bucket)
	for _, r := range refs {
		s.Total++
		if r.IsInstance() {
			s.Instances++
		}
		if r.Finalized() {
			s.Finalized++
		}
		if r.Flags.Has(types.FlagManualReview) {
			s.ManualReview++
		}
		p, sec := r.URLs.Primary != "", r.URLs.Secondary != ""
		if p {
			s.WithPrimary++
		}
		if sec {
			s.WithSecondary++
		}
		if p && sec {
			s.WithBoth++
		}
		if r.URLs.Tertiary != "" {
			s.WithTertiary++
		}
		if isPDF(r.URLs.Primary) {
			s.PDFPrimary++
		}
		if isPDF(r.URLs.Secondary) {
			s.PDFSecondary++
		}

		start := -1
		if n, err := strconv.Atoi(r.BaseID()); err == nil && n >= 0 {
			start = n / 100 * 100
		}
		b, ok := buckets[start]
		if !ok {
			b = &Bucket{Start: start}
			buckets[start] = b
		}
		b.Count++
		if r.Finalized() {
			b.Finalized++
		}
	}

	for _, b := range buckets {
		s.Chapters = append(s.Chapters, *b)
	}
	sort.Slice(s.Chapters, func(i, j int) bool {
		a, b := s.Chapters[i].Start, s.Chapters[j].Start
		if a < 0 || b < 0 {
			return b < 0 && a >= 0
		}
		return a < b
	})
	return s
}

func isPDF(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

// FormatStats writes s as a plain-text report.
func FormatStats(w io.Writer, s Stats) {
	pct := func(n int) float64 {
		if s.Total == 0 {
			return 0
		}
		return float64(n) / float64(s.Total) * 100
	}
	fmt.Fprintf(w, "Total references: %d (%d instances)\n", s.Total, s.Instances)
	fmt.Fprintf(w, "Finalized:        %d (%.1f%%)\n", s.Finalized, pct(s.Finalized))
	fmt.Fprintf(w, "Manual review:    %d (%.1f%%)\n", s.ManualReview, pct(s.ManualReview))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Primary URL:      %d (%.1f%%), %d PDF\n", s.WithPrimary, pct(s.WithPrimary), s.PDFPrimary)
	fmt.Fprintf(w, "Secondary URL:    %d (%.1f%%), %d PDF\n", s.WithSecondary, pct(s.WithSecondary), s.PDFSecondary)
	fmt.Fprintf(w, "Tertiary URL:     %d (%.1f%%)\n", s.WithTertiary, pct(s.WithTertiary))
	fmt.Fprintf(w, "Primary+Secondary: %d (%.1f%%)\n", s.WithBoth, pct(s.WithBoth))

	if len(s.Chapters) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-10s  %6s  %9s\n", "RIDs", "Count", "Finalized")
	fmt.Fprintln(w, strings.Repeat("-", 29))
	for _, b := range s.Chapters {
		fmt.Fprintf(w, "%-10s  %6d  %9d\n", b.Label(), b.Count, b.Finalized)
	}
}
