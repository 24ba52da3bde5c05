// Package paginate reconciles the gallery's two pagination modes into
// one display model.
//
// In server mode the catalog computed the page and its metadata is
// ground truth. In client mode the full record set is already fetched
// and pages are fixed-size slices computed locally. Either way the
// gallery sees the same normalized shape.
package paginate
