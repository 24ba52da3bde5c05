package imageurl

import "strings"

// Named variants understood by the delivery service. The delivery URL
// convention treats the final path segment as the variant selector, so
// requesting a different size means replacing that segment, never
// appending behind it.
const (
	VariantPublic    = "public"
	VariantThumbnail = "thumbnail"
	VariantMedium    = "medium"
	VariantHighRes   = "highres"
)

var namedVariants = map[string]bool{
	VariantPublic:    true,
	VariantThumbnail: true,
	VariantMedium:    true,
	VariantHighRes:   true,
}

// IsVariantSegment reports whether a path segment is a variant selector.
// Besides the named variants, the delivery service accepts parameterized
// selectors such as "w=400,q=75", recognizable by the '=' they contain.
func IsVariantSegment(segment string) bool {
	if namedVariants[segment] {
		return true
	}
	return strings.Contains(segment, "=")
}

// WithVariant returns url with its variant selector set to variant.
// An existing trailing selector is replaced; otherwise the selector is
// appended as a new final path segment.
func WithVariant(url, variant string) string {
	if url == "" {
		return url
	}

	trimmed := strings.TrimRight(url, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx >= 0 && IsVariantSegment(trimmed[idx+1:]) {
		trimmed = trimmed[:idx]
	}
	return trimmed + "/" + variant
}

// Variant returns the variant selector currently present on url, or
// empty if the final segment is not a recognizable selector.
func Variant(url string) string {
	trimmed := strings.TrimRight(url, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return ""
	}
	if seg := trimmed[idx+1:]; IsVariantSegment(seg) {
		return seg
	}
	return ""
}

// Base returns url stripped of any trailing variant selector.
func Base(url string) string {
	trimmed := strings.TrimRight(url, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx >= 0 && IsVariantSegment(trimmed[idx+1:]) {
		return trimmed[:idx]
	}
	return trimmed
}
