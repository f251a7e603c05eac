// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"fmt"
	"sync"

	"github.com/pdiddy/refresolve/pkg/types"
)

// Budget is the cost counter shared by everything a batch pays for. It only
// grows. A nil *Budget is valid and never runs out.
type Budget struct {
	mu    sync.Mutex
	limit float64
	spent float64
}

// NewBudget returns a counter with the given ceiling (0 means unlimited)
// that starts at spent, so a resumed run keeps its earlier costs.
func NewBudget(limit, spent float64) *Budget {
	return &Budget{limit: limit, spent: max(0, spent)}
}

// Add charges units. Non-positive amounts are ignored.
func (b *Budget) Add(units float64) {
	if b == nil || units <= 0 {
		return
	}
	b.mu.Lock()
	b.spent += units
	b.mu.Unlock()
}

// Spent returns the units charged so far.
func (b *Budget) Spent() float64 {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spent
}

// Limit returns the ceiling, 0 when unlimited.
func (b *Budget) Limit() float64 {
	if b == nil {
		return 0
	}
	return b.limit
}

// Exceeded reports whether the ceiling has been reached.
func (b *Budget) Exceeded() bool {
	if b == nil || b.limit <= 0 {
		return false
	}
	return b.Spent() >= b.limit
}

// Err returns a wrapped types.ErrBudgetExceeded once the ceiling is
// reached, nil before.
func (b *Budget) Err() error {
	if !b.Exceeded() {
		return nil
	}
	return fmt.Errorf("spent %.3f of %.3f: %w", b.Spent(), b.limit, types.ErrBudgetExceeded)
}
