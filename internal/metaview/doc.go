// Package metaview formats image metadata for the info panel: key
// labeling, priority ordering of the well-known keys, and type-directed
// value rendering for the open-ended remainder of the map.
package metaview
