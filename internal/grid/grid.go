package grid

// Config holds the fixed layout parameters of one gallery grid.
type Config struct {
	// Columns in the grid
	Columns int
	// RowHeight in pixels, fixed for every row
	RowHeight int
	// Overscan rows mounted above and below the visible range
	Overscan int
	// Threshold is the item count below which virtualization is
	// skipped and every cell is mounted
	Threshold int
}

// DefaultConfig matches the gallery layout: three columns, 20-item
// virtualization threshold, two rows of overscan.
func DefaultConfig() Config {
	return Config{
		Columns:   3,
		RowHeight: 220,
		Overscan:  2,
		Threshold: 20,
	}
}

// Viewport is the scroll state the browser reports.
type Viewport struct {
	ScrollTop int `json:"scrollTop"`
	Height    int `json:"height"`
}

// Cell is one mounted thumbnail position. Top is the absolute pixel
// offset of the cell's row.
type Cell struct {
	Index int `json:"index"`
	Row   int `json:"row"`
	Col   int `json:"col"`
	Top   int `json:"top"`
}

// MountPlan says which cells must be mounted for a scroll position.
// TotalHeight is invariant to the mounted subset so the scrollbar
// behaves as if every cell existed.
type MountPlan struct {
	Virtualized bool   `json:"virtualized"`
	StartRow    int    `json:"startRow"`
	EndRow      int    `json:"endRow"` // exclusive
	TotalRows   int    `json:"totalRows"`
	TotalHeight int    `json:"totalHeight"`
	Cells       []Cell `json:"cells"`
}

// FirstIndex returns the index of the first mounted item, or -1 when
// nothing is mounted.
func (p MountPlan) FirstIndex() int {
	if len(p.Cells) == 0 {
		return -1
	}
	return p.Cells[0].Index
}

// Contains reports whether the item at index is mounted.
func (p MountPlan) Contains(index int) bool {
	if len(p.Cells) == 0 {
		return false
	}
	return index >= p.Cells[0].Index && index <= p.Cells[len(p.Cells)-1].Index
}

// rowsFor returns the row count for an item count.
func rowsFor(itemCount, columns int) int {
	return (itemCount + columns - 1) / columns
}

// Plan computes the mount plan for a scroll position. It is a pure
// function of its inputs.
func Plan(cfg Config, vp Viewport, itemCount int) MountPlan {
	if cfg.Columns < 1 {
		cfg.Columns = 1
	}
	if cfg.RowHeight < 1 {
		cfg.RowHeight = 1
	}

	totalRows := rowsFor(itemCount, cfg.Columns)
	plan := MountPlan{
		TotalRows:   totalRows,
		TotalHeight: totalRows * cfg.RowHeight,
	}

	if itemCount <= 0 {
		return plan
	}

	// Small sets mount everything; virtualization overhead isn't
	// worth it below the threshold.
	if itemCount < cfg.Threshold {
		plan.StartRow = 0
		plan.EndRow = totalRows
		plan.Cells = cells(cfg, 0, totalRows, itemCount)
		return plan
	}

	plan.Virtualized = true

	scrollTop := vp.ScrollTop
	if scrollTop < 0 {
		scrollTop = 0
	}
	maxScroll := plan.TotalHeight - vp.Height
	if maxScroll > 0 && scrollTop > maxScroll {
		scrollTop = maxScroll
	}

	startRow := scrollTop/cfg.RowHeight - cfg.Overscan
	if startRow < 0 {
		startRow = 0
	}

	// Last partially visible row, then overscan below.
	endRow := (scrollTop+vp.Height+cfg.RowHeight-1)/cfg.RowHeight + cfg.Overscan
	if endRow > totalRows {
		endRow = totalRows
	}
	if endRow < startRow {
		endRow = startRow
	}

	plan.StartRow = startRow
	plan.EndRow = endRow
	plan.Cells = cells(cfg, startRow, endRow, itemCount)
	return plan
}

func cells(cfg Config, startRow, endRow, itemCount int) []Cell {
	out := make([]Cell, 0, (endRow-startRow)*cfg.Columns)
	for row := startRow; row < endRow; row++ {
		for col := 0; col < cfg.Columns; col++ {
			idx := row*cfg.Columns + col
			if idx >= itemCount {
				return out
			}
			out = append(out, Cell{
				Index: idx,
				Row:   row,
				Col:   col,
				Top:   row * cfg.RowHeight,
			})
		}
	}
	return out
}

// ScrollFraction returns how far through the scrollable extent the
// viewport currently is, in [0,1]. The preload scheduler uses it for
// its lookahead and lookbehind thresholds.
func ScrollFraction(cfg Config, vp Viewport, itemCount int) float64 {
	totalHeight := rowsFor(itemCount, cfg.Columns) * cfg.RowHeight
	extent := totalHeight - vp.Height
	if extent <= 0 {
		return 0
	}

	frac := float64(vp.ScrollTop) / float64(extent)
	if frac < 0 {
		return 0
	}
	if frac > 1 {
		return 1
	}
	return frac
}
