// Package catalog is the client for the image catalog service backing
// the gallery: paged image listings with filters/search/sort, two-tier
// deletes, set-primary, metadata updates, and re-analysis triggers.
//
// The client owns the cache and staleness policy for page fetches.
// Transient failures are retried with exponential backoff before they
// surface; mutations always invalidate the affected car's cached pages
// so callers refetch rather than drift from the shared catalog.
package catalog
