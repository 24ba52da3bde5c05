// Package metrics defines the service's Prometheus metrics: HTTP
// traffic, catalog client requests, preload warming, gallery instance
// lifecycle, and native transform tool runs.
package metrics
