package paginate

import (
	"math"

	"car-archive/internal/catalog"
)

// DefaultPageSize is the client-mode slice size.
const DefaultPageSize = 15

// Display is the normalized pagination shape shown by the gallery,
// regardless of which mode produced it. StartIndex and EndIndex are
// 1-based and inclusive; CurrentPage is 1-based for display.
type Display struct {
	TotalPages       int  `json:"totalPages"`
	CurrentPage      int  `json:"currentPage"`
	StartIndex       int  `json:"startIndex"`
	EndIndex         int  `json:"endIndex"`
	TotalImages      int  `json:"totalImages"`
	ServerPagination bool `json:"serverPagination"`
}

// FromServer builds the display model from server-computed metadata,
// which is taken as ground truth.
func FromServer(meta catalog.Pagination) Display {
	d := Display{
		TotalPages:       meta.TotalPages,
		CurrentPage:      meta.CurrentPage,
		TotalImages:      meta.TotalImages,
		ServerPagination: true,
	}

	if meta.ItemsPerPage > 0 && meta.CurrentPage > 0 {
		d.StartIndex = (meta.CurrentPage-1)*meta.ItemsPerPage + 1
		d.EndIndex = meta.CurrentPage * meta.ItemsPerPage
		if d.EndIndex > meta.TotalImages {
			d.EndIndex = meta.TotalImages
		}
		if d.StartIndex > meta.TotalImages {
			d.StartIndex = meta.TotalImages
		}
	}

	return d
}

// FromClient builds the display model for a locally paged set.
// currentPage is zero-based, matching the slice arithmetic callers do.
func FromClient(itemCount, currentPage, pageSize int) Display {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if currentPage < 0 {
		currentPage = 0
	}

	totalPages := int(math.Ceil(float64(itemCount) / float64(pageSize)))
	if totalPages > 0 && currentPage > totalPages-1 {
		currentPage = totalPages - 1
	}

	d := Display{
		TotalPages:  totalPages,
		CurrentPage: currentPage + 1,
		TotalImages: itemCount,
	}

	if itemCount > 0 {
		d.StartIndex = currentPage*pageSize + 1
		d.EndIndex = (currentPage + 1) * pageSize
		if d.EndIndex > itemCount {
			d.EndIndex = itemCount
		}
	}

	return d
}

// Slice returns the zero-based half-open bounds of the current client
// page, suitable for slicing the fetched record array.
func (d Display) Slice() (start, end int) {
	if d.TotalImages == 0 {
		return 0, 0
	}
	return d.StartIndex - 1, d.EndIndex
}

// State is the gallery's high-level render state for a page of results.
type State int

const (
	// StateLoading is shown before the first response arrives. Zero
	// images without an active filter must not flash an empty state.
	StateLoading State = iota
	// StateEmpty is a car with no images at all.
	StateEmpty
	// StateNoResults is zero matches with a filter or search active;
	// it renders with filter-clearing actions.
	StateNoResults
	// StateReady has images to show.
	StateReady
)

// String returns the state name used in API responses.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateEmpty:
		return "empty"
	case StateNoResults:
		return "no-results"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// StateFor decides the render state. firstLoadDone distinguishes a
// genuinely empty car from the gap before the first response.
func StateFor(itemCount int, firstLoadDone, filterActive bool) State {
	if itemCount > 0 {
		return StateReady
	}
	if filterActive {
		return StateNoResults
	}
	if !firstLoadDone {
		return StateLoading
	}
	return StateEmpty
}
