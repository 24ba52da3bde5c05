package catalog

import (
	"fmt"
	"net/url"
	"strconv"
)

// SortOrder mirrors the catalog's sort direction values.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Query selects one page of a car's images.
type Query struct {
	// Page is the zero-based page index. PageSize 0 asks the catalog
	// for the full set (client-side pagination).
	Page     int
	PageSize int

	// IncludeCount asks the catalog to compute pagination metadata.
	IncludeCount bool

	// Filters. Empty means no constraint.
	Angle     string
	View      string
	Movement  string
	TimeOfDay string
	Side      string

	Search    string
	SortField string
	SortDir   SortOrder
}

// HasFilter reports whether any filter or search text is active. The
// distinction matters for the gallery's empty vs. no-results states.
func (q Query) HasFilter() bool {
	return q.Angle != "" || q.View != "" || q.Movement != "" ||
		q.TimeOfDay != "" || q.Side != "" || q.Search != ""
}

func (q Query) values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	if q.PageSize > 0 {
		v.Set("limit", strconv.Itoa(q.PageSize))
	}
	if q.IncludeCount {
		v.Set("includeCount", "true")
	}
	for key, val := range map[string]string{
		"angle":    q.Angle,
		"view":     q.View,
		"movement": q.Movement,
		"tod":      q.TimeOfDay,
		"side":     q.Side,
		"search":   q.Search,
		"sort":     q.SortField,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}
	if q.SortDir != "" {
		v.Set("order", string(q.SortDir))
	}
	return v
}

// cacheKey identifies a page response for the TTL cache. It doubles as
// the staleness tag: a response only applies if the gallery still wants
// the exact page/filter state it was issued for.
func (q Query) cacheKey(carID string) string {
	return fmt.Sprintf("page:%s:%s", carID, q.values().Encode())
}
