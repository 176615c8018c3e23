package wallet

import "sync"

// SpentTracker remembers which proof secrets this wallet has spent: the
// inputs of every Swap and Melt the mint accepted, and proofs the mint
// reported SPENT. Send skips proofs whose secret is recorded here. The
// set lives in memory for the life of the Wallet and is not persisted.
// A plain map rather than a bloom filter: a
// wallet's own proof set is small enough (thousands, not
// billions) that exactness is worth more here than the filter's constant
// memory footprint.
type SpentTracker struct {
	mu    sync.RWMutex
	spent map[string]struct{}
}

// NewSpentTracker returns an empty tracker.
func NewSpentTracker() *SpentTracker {
	return &SpentTracker{spent: make(map[string]struct{})}
}

// IsSpent reports whether secret has been marked spent.
func (t *SpentTracker) IsSpent(secret string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.spent[secret]
	return ok
}

// MarkSpent records secret as spent.
func (t *SpentTracker) MarkSpent(secret string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spent[secret] = struct{}{}
}

// MarkSpentAll records every proof secret in secrets as spent.
func (t *SpentTracker) MarkSpentAll(secrets []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range secrets {
		t.spent[s] = struct{}{}
	}
}

// Reset clears all tracked state.
func (t *SpentTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spent = make(map[string]struct{})
}
