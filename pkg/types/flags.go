// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Flag is one token of a reference's FLAGS[...] set.
type Flag string

const (
	FlagFinalized    Flag = "FINALIZED"
	FlagManualReview Flag = "MANUAL_REVIEW"
	FlagInstance     Flag = "INSTANCE"
)

// batchPrefix marks a free-form provenance tag such as BATCH_v17.0.
const batchPrefix = "BATCH_"

// BatchFlag returns the provenance flag for a pipeline version.
func BatchFlag(version string) Flag { return Flag(batchPrefix + version) }

// IsBatch reports whether f is a BATCH_<version> provenance tag.
func (f Flag) IsBatch() bool { return strings.HasPrefix(string(f), batchPrefix) }

// Known reports whether f is one of the recognized flag tokens.
func (f Flag) Known() bool {
	switch f {
	case FlagFinalized, FlagManualReview, FlagInstance:
		return true
	}
	return f.IsBatch()
}

// FlagSet is an insertion-ordered set of flags. The order is kept so that a
// record written back to disk keeps its tokens where the user put them.
type FlagSet []Flag

// ParseFlags splits the space-delimited contents of FLAGS[...] into a set.
// Duplicate tokens are collapsed.
func ParseFlags(s string) FlagSet {
	var fs FlagSet
	for _, tok := range strings.Fields(s) {
		fs.Add(Flag(tok))
	}
	return fs
}

// Has reports whether f is in the set.
func (s FlagSet) Has(f Flag) bool {
	for _, x := range s {
		if x == f {
			return true
		}
	}
	return false
}

// Add inserts f if it is not already present.
func (s *FlagSet) Add(f Flag) {
	if f == "" || s.Has(f) {
		return
	}
	*s = append(*s, f)
}

// Remove deletes f from the set.
func (s *FlagSet) Remove(f Flag) {
	out := (*s)[:0]
	for _, x := range *s {
		if x != f {
			out = append(out, x)
		}
	}
	if len(out) == 0 {
		*s = nil
		return
	}
	*s = out
}

// SetBatch replaces any existing provenance tag with the one for version.
func (s *FlagSet) SetBatch(version string) {
	var stale []Flag
	for _, x := range *s {
		if x.IsBatch() {
			stale = append(stale, x)
		}
	}
	for _, x := range stale {
		s.Remove(x)
	}
	s.Add(BatchFlag(version))
}

// String renders the set as space-separated tokens.
func (s FlagSet) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = string(f)
	}
	return strings.Join(parts, " ")
}
