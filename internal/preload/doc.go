// Package preload warms the CDN image cache for content the user is
// likely to need next: the adjacent page once scrolling crosses a
// threshold, the neighbors of the focused image after navigation
// settles, and the above-the-fold thumbnails on first render.
//
// Warming is strictly best-effort. Work is scheduled on an idle-time
// scheduler with a bounded timeout so it never delays user-initiated
// fetches, failures are swallowed, and a per-session ledger ensures
// each page/direction is warmed at most once.
package preload
