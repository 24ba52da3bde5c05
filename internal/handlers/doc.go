// Package handlers implements the HTTP API: gallery lifecycle and
// interaction endpoints, analysis presets, native transform tools,
// local previews, and the health/version/metrics surface.
package handlers
