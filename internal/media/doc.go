// Package media generates local JPEG previews for transform tool
// outputs, with a disk cache keyed by source path.
package media
