package paginate

import (
	"math"
	"testing"

	"car-archive/internal/catalog"
)

func TestFromServerMatchesMetadata(t *testing.T) {
	meta := catalog.Pagination{
		TotalImages:  47,
		TotalPages:   4,
		CurrentPage:  2,
		ItemsPerPage: 15,
	}

	d := FromServer(meta)

	if !d.ServerPagination {
		t.Error("ServerPagination should be true")
	}
	if d.TotalPages != 4 || d.CurrentPage != 2 || d.TotalImages != 47 {
		t.Errorf("metadata not passed through verbatim: %+v", d)
	}
	if d.StartIndex != 16 || d.EndIndex != 30 {
		t.Errorf("indices = %d-%d, want 16-30", d.StartIndex, d.EndIndex)
	}
}

func TestFromServerLastPartialPage(t *testing.T) {
	d := FromServer(catalog.Pagination{
		TotalImages:  47,
		TotalPages:   4,
		CurrentPage:  4,
		ItemsPerPage: 15,
	})

	if d.StartIndex != 46 || d.EndIndex != 47 {
		t.Errorf("indices = %d-%d, want 46-47", d.StartIndex, d.EndIndex)
	}
}

func TestFromClient47Images(t *testing.T) {
	// 47 images at page size 15 -> pages of [15,15,15,2]
	tests := []struct {
		page       int
		start, end int
	}{
		{0, 1, 15},
		{1, 16, 30},
		{2, 31, 45},
		{3, 46, 47},
	}

	for _, tt := range tests {
		d := FromClient(47, tt.page, 15)
		if d.TotalPages != 4 {
			t.Errorf("page %d: TotalPages = %d, want 4", tt.page, d.TotalPages)
		}
		if d.CurrentPage != tt.page+1 {
			t.Errorf("page %d: CurrentPage = %d, want %d", tt.page, d.CurrentPage, tt.page+1)
		}
		if d.StartIndex != tt.start || d.EndIndex != tt.end {
			t.Errorf("page %d: indices %d-%d, want %d-%d",
				tt.page, d.StartIndex, d.EndIndex, tt.start, tt.end)
		}
		if d.ServerPagination {
			t.Errorf("page %d: ServerPagination should be false", tt.page)
		}
	}
}

func TestFromClientTotalPagesProperty(t *testing.T) {
	for _, count := range []int{0, 1, 14, 15, 16, 29, 30, 47, 100, 1000} {
		for _, size := range []int{1, 5, 15, 20} {
			d := FromClient(count, 0, size)
			want := int(math.Ceil(float64(count) / float64(size)))
			if d.TotalPages != want {
				t.Errorf("count=%d size=%d: TotalPages = %d, want %d",
					count, size, d.TotalPages, want)
			}
		}
	}
}

func TestFromClientClampsPage(t *testing.T) {
	d := FromClient(20, 99, 15)
	if d.CurrentPage != 2 {
		t.Errorf("CurrentPage = %d, want clamp to 2", d.CurrentPage)
	}

	d = FromClient(20, -5, 15)
	if d.CurrentPage != 1 {
		t.Errorf("CurrentPage = %d, want clamp to 1", d.CurrentPage)
	}
}

func TestFromClientZeroImages(t *testing.T) {
	d := FromClient(0, 0, 15)
	if d.TotalPages != 0 || d.StartIndex != 0 || d.EndIndex != 0 {
		t.Errorf("zero images: %+v", d)
	}
}

func TestSlice(t *testing.T) {
	d := FromClient(47, 3, 15)
	start, end := d.Slice()
	if start != 45 || end != 47 {
		t.Errorf("Slice = [%d:%d], want [45:47]", start, end)
	}

	start, end = FromClient(0, 0, 15).Slice()
	if start != 0 || end != 0 {
		t.Errorf("empty Slice = [%d:%d], want [0:0]", start, end)
	}
}

func TestStateFor(t *testing.T) {
	tests := []struct {
		name          string
		count         int
		firstLoadDone bool
		filterActive  bool
		want          State
	}{
		{"images present", 10, true, false, StateReady},
		{"before first response", 0, false, false, StateLoading},
		{"genuinely empty", 0, true, false, StateEmpty},
		{"filter with no matches", 0, true, true, StateNoResults},
		{"filter before first response", 0, false, true, StateNoResults},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StateFor(tt.count, tt.firstLoadDone, tt.filterActive); got != tt.want {
				t.Errorf("StateFor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	if StateLoading.String() != "loading" || StateNoResults.String() != "no-results" {
		t.Error("state names changed")
	}
}
