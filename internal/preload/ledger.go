package preload

import (
	"strconv"
	"sync"

	"car-archive/internal/metrics"
)

// Ledger remembers which pages and images were already warmed in this
// gallery session. Entries are never evicted; a stale entry costs at
// worst one skipped (redundant) warm, never correctness.
type Ledger struct {
	mu     sync.Mutex
	warmed map[string]bool
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{warmed: make(map[string]bool)}
}

// Mark records a key and reports whether it was newly added. A false
// return means the page/direction was already warmed and the caller
// must not warm again.
func (l *Ledger) Mark(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.warmed[key] {
		return false
	}
	l.warmed[key] = true
	metrics.PreloadLedgerSize.Set(float64(len(l.warmed)))
	return true
}

// Has reports whether a key was already warmed.
func (l *Ledger) Has(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.warmed[key]
}

// Size returns the number of ledger entries.
func (l *Ledger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warmed)
}

// PageKey is the ledger key for forward (lookahead) warming of a page.
func PageKey(page int) string {
	return strconv.Itoa(page)
}

// PrevPageKey is the ledger key for backward (lookbehind) warming.
// Forward and backward warming of the same page are tracked
// independently, so the keys must never collide.
func PrevPageKey(page int) string {
	return "prev-" + strconv.Itoa(page)
}

// ImageKey is the ledger key for a single warmed image URL.
func ImageKey(url string) string {
	return "img:" + url
}

// foldKey tracks the one-time above-the-fold pass.
const foldKey = "fold"
