// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validator

import (
	"github.com/pdiddy/refresolve/internal/rules"
	"github.com/pdiddy/refresolve/pkg/types"
)

// detection is the outcome of running every barrier table over a page.
type detection struct {
	barriers []types.Barrier

	// reasons holds the label of the first matching rule per barrier.
	reasons map[types.Barrier]string

	institutional string
	borrow        string
}

// first returns the first detected barrier in rules.BarrierOrder.
func (d detection) first() (types.Barrier, bool) {
	for _, b := range rules.BarrierOrder {
		if d.has(b) {
			return b, true
		}
	}
	return "", false
}

func (d detection) has(b types.Barrier) bool {
	for _, x := range d.barriers {
		if x == b {
			return true
		}
	}
	return false
}

// detectBarriers applies each barrier table independently to the visible
// text. The <title> is checked against the soft-404 tables as well, with
// the title-only rules reserved for it.
func detectBarriers(title, text string) detection {
	d := detection{reasons: make(map[types.Barrier]string)}
	add := func(b types.Barrier, label string) {
		if d.has(b) {
			return
		}
		d.barriers = append(d.barriers, b)
		d.reasons[b] = label
	}

	for _, b := range rules.BarrierOrder {
		if m, ok := rules.BarrierRules[b].First(text); ok {
			add(b, m.Rule.Label)
		}
	}
	if m, ok := rules.Soft404TitleRules.First(title); ok {
		add(types.Soft404, m.Rule.Label)
	} else if m, ok := rules.Soft404Rules.First(title); ok {
		add(types.Soft404, m.Rule.Label)
	}

	if m, ok := rules.InstitutionalRules.First(text); ok {
		d.institutional = m.Rule.Label
		add(types.LoginRequired, m.Rule.Label)
	}
	if m, ok := rules.BorrowRules.First(text); ok {
		d.borrow = m.Rule.Label
	}

	ordered := d.barriers[:0:0]
	for _, b := range rules.BarrierOrder {
		if d.has(b) {
			ordered = append(ordered, b)
		}
	}
	d.barriers = ordered
	return d
}
