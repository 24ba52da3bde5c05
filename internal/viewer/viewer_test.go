package viewer

import "testing"

func openViewer(t *testing.T, index, total int) *Viewer {
	t.Helper()
	v := New()
	if err := v.Open(index, total); err != nil {
		t.Fatalf("Open(%d, %d) failed: %v", index, total, err)
	}
	return v
}

func TestOpenValidatesIndex(t *testing.T) {
	v := New()
	if err := v.Open(5, 5); err == nil {
		t.Error("Open past the end should fail")
	}
	if err := v.Open(-1, 5); err == nil {
		t.Error("Open with negative index should fail")
	}
	if v.State() != Closed {
		t.Error("failed Open must leave the viewer closed")
	}
}

func TestBoundaryNoOps(t *testing.T) {
	v := openViewer(t, 0, 5)

	if v.HasPrevious() {
		t.Error("HasPrevious at index 0 should be false")
	}
	if !v.HasNext() {
		t.Error("HasNext at index 0 of 5 should be true")
	}

	// Left arrow at the start: a no-op, not an error
	if a := v.HandleKey(KeyLeft, ""); a.Kind != ActionNone {
		t.Errorf("left at boundary = %v, want no-op", a.Kind)
	}
	if v.Index() != 0 {
		t.Errorf("index moved to %d on boundary no-op", v.Index())
	}

	// Right arrow moves to index 1
	if a := v.HandleKey(KeyRight, ""); a.Kind != ActionMoved || a.Index != 1 {
		t.Errorf("right = %+v, want moved to 1", a)
	}
}

func TestNoWrapAtEnd(t *testing.T) {
	v := openViewer(t, 4, 5)

	if v.HasNext() {
		t.Error("HasNext at last index should be false")
	}
	if a := v.Next(); a.Kind != ActionNone {
		t.Errorf("Next at end = %v, want no-op (no silent wrap)", a.Kind)
	}
	if v.Index() != 4 {
		t.Errorf("index = %d, want 4", v.Index())
	}
}

func TestEscapeCloses(t *testing.T) {
	v := openViewer(t, 2, 5)

	if a := v.HandleKey(KeyEscape, ""); a.Kind != ActionClosed {
		t.Errorf("escape = %v, want closed", a.Kind)
	}
	if v.State() != Closed {
		t.Error("viewer should be closed")
	}

	// Keys on a closed viewer are no-ops
	if a := v.HandleKey(KeyRight, ""); a.Kind != ActionNone {
		t.Errorf("key on closed viewer = %v, want no-op", a.Kind)
	}
}

func TestInfoToggle(t *testing.T) {
	v := openViewer(t, 0, 3)

	if v.InfoOpen() {
		t.Error("info overlay should start closed")
	}
	v.HandleKey(KeyInfo, "")
	if !v.InfoOpen() {
		t.Error("info overlay should be open after toggle")
	}
	v.HandleKey(KeyInfo, "")
	if v.InfoOpen() {
		t.Error("info overlay should close on second toggle")
	}
}

func TestCopyReturnsURL(t *testing.T) {
	v := openViewer(t, 1, 3)

	url := "https://cdn.example.com/x/img1/highres"
	a := v.HandleKey(KeyCopy, url)
	if a.Kind != ActionCopy {
		t.Fatalf("copy = %v, want copy action", a.Kind)
	}
	if a.CopyURL != url {
		t.Errorf("CopyURL = %q, want %q", a.CopyURL, url)
	}
	if v.Index() != 1 {
		t.Error("copy must not navigate")
	}
}

func TestSetTotalClampsIndex(t *testing.T) {
	v := openViewer(t, 4, 5)

	// Two images deleted from the loaded list
	v.SetTotal(3)
	if v.Index() != 2 {
		t.Errorf("index = %d, want clamp to 2", v.Index())
	}
	if v.State() != Open {
		t.Error("viewer should stay open while images remain")
	}

	v.SetTotal(0)
	if v.State() != Closed {
		t.Error("viewer must close when the loaded list empties")
	}
}

func TestUnknownKeyIsNoOp(t *testing.T) {
	v := openViewer(t, 1, 3)
	if a := v.HandleKey(Key("x"), ""); a.Kind != ActionNone {
		t.Errorf("unknown key = %v, want no-op", a.Kind)
	}
}
