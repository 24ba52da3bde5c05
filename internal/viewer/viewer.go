package viewer

import (
	"errors"
	"sync"
)

// State is the modal's lifecycle state.
type State int

const (
	// Closed means no full-size viewer is showing.
	Closed State = iota
	// Open means the full-size viewer shows the image at Index.
	Open
)

// Key is a keyboard event the open viewer understands.
type Key string

const (
	KeyLeft   Key = "ArrowLeft"
	KeyRight  Key = "ArrowRight"
	KeyEscape Key = "Escape"
	KeyInfo   Key = "i"
	KeyCopy   Key = "c"
)

// ActionKind says what a key or navigation call actually did.
type ActionKind string

const (
	// ActionNone is a boundary no-op (never an error).
	ActionNone ActionKind = "none"
	// ActionMoved means the current index changed.
	ActionMoved ActionKind = "moved"
	// ActionClosed means the viewer closed.
	ActionClosed ActionKind = "closed"
	// ActionInfoToggled means the info overlay flipped.
	ActionInfoToggled ActionKind = "info-toggled"
	// ActionCopy means the caller should place CopyURL on the clipboard.
	ActionCopy ActionKind = "copy"
)

// Action is the result of handling a key or navigation request.
type Action struct {
	Kind    ActionKind `json:"kind"`
	Index   int        `json:"index"`
	CopyURL string     `json:"copyUrl,omitempty"`
}

// ErrOutOfRange rejects opening the viewer at an index outside the
// loaded list.
var ErrOutOfRange = errors.New("viewer: index out of range")

// Viewer is the full-size image modal's state machine. Navigation is
// computed against the currently loaded ordered list, never the full
// remote set: reaching the last loaded image is a boundary, not a wrap.
type Viewer struct {
	mu       sync.Mutex
	state    State
	index    int
	total    int
	infoOpen bool
}

// New creates a closed viewer.
func New() *Viewer {
	return &Viewer{}
}

// State returns the lifecycle state.
func (v *Viewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Index returns the current image index. Meaningful only while open.
func (v *Viewer) Index() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.index
}

// InfoOpen reports whether the info overlay is showing.
func (v *Viewer) InfoOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.infoOpen
}

// Open shows the viewer at index within a loaded list of total images.
func (v *Viewer) Open(index, total int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if index < 0 || index >= total {
		return ErrOutOfRange
	}
	v.state = Open
	v.index = index
	v.total = total
	v.infoOpen = false
	return nil
}

// Close hides the viewer.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = Closed
	v.infoOpen = false
}

// SetTotal updates the loaded-list length after a page change or
// deletion, clamping the current index to the new bounds.
func (v *Viewer) SetTotal(total int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.total = total
	if total == 0 {
		v.state = Closed
		v.index = 0
		return
	}
	if v.index >= total {
		v.index = total - 1
	}
}

// HasPrevious reports whether left navigation is available.
func (v *Viewer) HasPrevious() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state == Open && v.index > 0
}

// HasNext reports whether right navigation is available.
func (v *Viewer) HasNext() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state == Open && v.index < v.total-1
}

// Next advances to the next loaded image. At the boundary it is a
// no-op; the caller may separately trigger a page advance.
func (v *Viewer) Next() Action {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.move(1)
}

// Prev moves to the previous loaded image, or no-ops at the boundary.
func (v *Viewer) Prev() Action {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.move(-1)
}

// move must be called with the lock held.
func (v *Viewer) move(delta int) Action {
	if v.state != Open {
		return Action{Kind: ActionNone, Index: v.index}
	}
	next := v.index + delta
	if next < 0 || next >= v.total {
		return Action{Kind: ActionNone, Index: v.index}
	}
	v.index = next
	return Action{Kind: ActionMoved, Index: v.index}
}

// HandleKey applies the keyboard contract. currentURL is the focused
// image's current-variant delivery URL, used by the copy action.
func (v *Viewer) HandleKey(key Key, currentURL string) Action {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != Open {
		return Action{Kind: ActionNone, Index: v.index}
	}

	switch key {
	case KeyLeft:
		return v.move(-1)
	case KeyRight:
		return v.move(1)
	case KeyEscape:
		v.state = Closed
		v.infoOpen = false
		return Action{Kind: ActionClosed, Index: v.index}
	case KeyInfo:
		v.infoOpen = !v.infoOpen
		return Action{Kind: ActionInfoToggled, Index: v.index}
	case KeyCopy:
		return Action{Kind: ActionCopy, Index: v.index, CopyURL: currentURL}
	default:
		return Action{Kind: ActionNone, Index: v.index}
	}
}
