package grid

import "testing"

func testConfig() Config {
	return Config{Columns: 3, RowHeight: 200, Overscan: 2, Threshold: 20}
}

func TestPlanSmallSetMountsEverything(t *testing.T) {
	cfg := testConfig()
	plan := Plan(cfg, Viewport{ScrollTop: 0, Height: 400}, 10)

	if plan.Virtualized {
		t.Error("10 items is below threshold, should not virtualize")
	}
	if len(plan.Cells) != 10 {
		t.Errorf("mounted %d cells, want all 10", len(plan.Cells))
	}
	if plan.TotalHeight != 4*200 {
		t.Errorf("TotalHeight = %d, want %d", plan.TotalHeight, 800)
	}
}

func TestPlanVirtualizedWindow(t *testing.T) {
	cfg := testConfig()
	// 60 items -> 20 rows, 4000px total
	plan := Plan(cfg, Viewport{ScrollTop: 2000, Height: 600}, 60)

	if !plan.Virtualized {
		t.Fatal("60 items should virtualize")
	}

	// Visible rows 10..12 (scrollTop 2000 / 200 = row 10, 600px = 3 rows),
	// overscan 2 on each side -> rows [8, 15)
	if plan.StartRow != 8 {
		t.Errorf("StartRow = %d, want 8", plan.StartRow)
	}
	if plan.EndRow != 15 {
		t.Errorf("EndRow = %d, want 15", plan.EndRow)
	}

	if got := len(plan.Cells); got != (15-8)*3 {
		t.Errorf("mounted %d cells, want %d", got, (15-8)*3)
	}
	if plan.FirstIndex() != 8*3 {
		t.Errorf("FirstIndex = %d, want %d", plan.FirstIndex(), 24)
	}
}

func TestPlanScrollHeightInvariant(t *testing.T) {
	cfg := testConfig()
	const items = 47
	wantHeight := 16 * 200 // ceil(47/3) = 16 rows

	for _, scrollTop := range []int{0, 150, 999, 2400, 5000, 100000} {
		plan := Plan(cfg, Viewport{ScrollTop: scrollTop, Height: 500}, items)
		if plan.TotalHeight != wantHeight {
			t.Errorf("scrollTop=%d: TotalHeight = %d, want %d (invariant)",
				scrollTop, plan.TotalHeight, wantHeight)
		}
	}
}

func TestPlanCellPositions(t *testing.T) {
	cfg := testConfig()
	plan := Plan(cfg, Viewport{ScrollTop: 0, Height: 400}, 60)

	for _, c := range plan.Cells {
		if c.Top != c.Row*cfg.RowHeight {
			t.Errorf("cell %d: Top = %d, want %d", c.Index, c.Top, c.Row*cfg.RowHeight)
		}
		if c.Index != c.Row*cfg.Columns+c.Col {
			t.Errorf("cell index %d inconsistent with row %d col %d", c.Index, c.Row, c.Col)
		}
	}
}

func TestPlanTopOfListHasNoNegativeRows(t *testing.T) {
	plan := Plan(testConfig(), Viewport{ScrollTop: 0, Height: 400}, 60)
	if plan.StartRow != 0 {
		t.Errorf("StartRow = %d, want 0", plan.StartRow)
	}
}

func TestPlanBottomClampsToTotalRows(t *testing.T) {
	cfg := testConfig()
	// 60 items = 20 rows = 4000px; scroll beyond the end
	plan := Plan(cfg, Viewport{ScrollTop: 999999, Height: 600}, 60)

	if plan.EndRow != 20 {
		t.Errorf("EndRow = %d, want 20", plan.EndRow)
	}
	last := plan.Cells[len(plan.Cells)-1]
	if last.Index != 59 {
		t.Errorf("last mounted index = %d, want 59", last.Index)
	}
}

func TestPlanPartialLastRow(t *testing.T) {
	cfg := testConfig()
	// 47 items: last row has 2 cells
	plan := Plan(cfg, Viewport{ScrollTop: 16 * 200, Height: 600}, 47)

	last := plan.Cells[len(plan.Cells)-1]
	if last.Index != 46 {
		t.Errorf("last mounted index = %d, want 46", last.Index)
	}
}

func TestPlanZeroItems(t *testing.T) {
	plan := Plan(testConfig(), Viewport{ScrollTop: 0, Height: 400}, 0)
	if len(plan.Cells) != 0 || plan.TotalHeight != 0 {
		t.Errorf("zero items: %+v", plan)
	}
}

func TestContains(t *testing.T) {
	plan := Plan(testConfig(), Viewport{ScrollTop: 2000, Height: 600}, 60)

	if plan.Contains(0) {
		t.Error("index 0 should not be mounted at scrollTop 2000")
	}
	if !plan.Contains(plan.FirstIndex()) {
		t.Error("FirstIndex should be mounted")
	}
}

func TestScrollFraction(t *testing.T) {
	cfg := testConfig()
	// 60 items -> 4000px total; viewport 1000px -> extent 3000px
	tests := []struct {
		scrollTop int
		want      float64
	}{
		{0, 0},
		{1500, 0.5},
		{3000, 1},
		{9999, 1},
		{-10, 0},
	}

	for _, tt := range tests {
		got := ScrollFraction(cfg, Viewport{ScrollTop: tt.scrollTop, Height: 1000}, 60)
		if got != tt.want {
			t.Errorf("ScrollFraction(scrollTop=%d) = %v, want %v", tt.scrollTop, got, tt.want)
		}
	}
}

func TestScrollFractionNoExtent(t *testing.T) {
	// Content shorter than the viewport: nothing to scroll
	if got := ScrollFraction(testConfig(), Viewport{ScrollTop: 0, Height: 5000}, 10); got != 0 {
		t.Errorf("ScrollFraction with no extent = %v, want 0", got)
	}
}
