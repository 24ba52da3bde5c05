// Package store is the service's local SQLite persistence: warm
// history for observability and the transform job log. The image
// catalog itself lives in an external document database and is never
// written here.
package store
