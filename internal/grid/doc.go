// Package grid computes which thumbnail cells a virtualized gallery
// grid must mount for a given scroll position.
//
// The math is a pure function of (scrollTop, viewportHeight, itemCount)
// so it can be tested without a real scroll environment. The container's
// total height is always ceil(itemCount/columns)*rowHeight regardless of
// how many cells are mounted, keeping scrollbar behavior correct.
package grid
