// Package viewer is the state machine for the full-size image modal:
// open/closed lifecycle, previous/next navigation with boundary no-ops,
// the info overlay toggle, and the copy-URL action.
package viewer
