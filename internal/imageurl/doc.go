// Package imageurl manipulates delivery URLs for CDN-hosted images.
//
// Stored image URLs are never mutated; size and quality variants are
// derived by swapping the trailing variant selector segment
// (e.g. .../imagedelivery/acct/id/public -> .../imagedelivery/acct/id/thumbnail).
package imageurl
