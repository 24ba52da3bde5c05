// Package middleware provides the HTTP middleware chain: request
// logging in W3C extended log format, Prometheus metrics, and gzip
// compression for JSON responses.
package middleware
