package selection

import (
	"context"
	"errors"
	"sort"
	"sync"

	"car-archive/internal/catalog"
	"car-archive/internal/logging"
)

// Mode is the gallery's global interaction mode.
type Mode int

const (
	// ModeView is the default browsing mode; selection is inert.
	ModeView Mode = iota
	// ModeEdit enables multi-select and batch actions.
	ModeEdit
)

// Tier is the delete tier. It has no default: callers must choose
// explicitly, so the destructive path can never be reached by omission.
type Tier int

const (
	// TierUnspecified is the zero value and is always rejected.
	TierUnspecified Tier = iota
	// TierDatabaseOnly removes the catalog record but leaves the
	// underlying asset retrievable at the storage layer (recoverable).
	TierDatabaseOnly
	// TierDatabaseAndStorage removes the record and the asset.
	// Irreversible.
	TierDatabaseAndStorage
)

// DeleteFromStorage maps the tier to the catalog's wire flag.
func (t Tier) DeleteFromStorage() (bool, error) {
	switch t {
	case TierDatabaseOnly:
		return false, nil
	case TierDatabaseAndStorage:
		return true, nil
	default:
		return false, ErrTierUnspecified
	}
}

// String returns the tier name shown in confirmation prompts.
func (t Tier) String() string {
	switch t {
	case TierDatabaseOnly:
		return "database-only"
	case TierDatabaseAndStorage:
		return "database-and-storage"
	default:
		return "unspecified"
	}
}

var (
	// ErrNotInEditMode rejects selection changes outside edit mode.
	ErrNotInEditMode = errors.New("selection: not in edit mode")
	// ErrEmptySelection rejects a batch delete with nothing selected.
	ErrEmptySelection = errors.New("selection: nothing selected")
	// ErrDeleteInFlight rejects a delete while one is outstanding.
	ErrDeleteInFlight = errors.New("selection: delete already in flight")
	// ErrTierUnspecified rejects a delete whose tier was never chosen.
	ErrTierUnspecified = errors.New("selection: delete tier not specified")
)

// Deleter is the slice of the catalog client the manager needs.
type Deleter interface {
	DeleteImages(ctx context.Context, carID string, ids []string, deleteFromStorage bool) (*catalog.DeleteResult, error)
}

// Manager tracks the edit-mode selection set and drives the two-tier
// delete lifecycle. The selection is never persisted.
type Manager struct {
	mu       sync.Mutex
	mode     Mode
	selected map[string]struct{}
	deleting bool
}

// NewManager creates a manager in view mode with an empty selection.
func NewManager() *Manager {
	return &Manager{selected: make(map[string]struct{})}
}

// Mode returns the current interaction mode.
func (m *Manager) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// EnterEdit switches to edit mode.
func (m *Manager) EnterEdit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = ModeEdit
}

// ExitEdit returns to view mode and clears the selection.
func (m *Manager) ExitEdit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = ModeView
	m.selected = make(map[string]struct{})
}

// Toggle flips one image's selection state.
func (m *Manager) Toggle(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mode != ModeEdit {
		return ErrNotInEditMode
	}
	if _, ok := m.selected[id]; ok {
		delete(m.selected, id)
	} else {
		m.selected[id] = struct{}{}
	}
	return nil
}

// SelectAll selects every given id. The caller passes the ids it has
// loaded; selection is bounded to that set.
func (m *Manager) SelectAll(ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mode != ModeEdit {
		return ErrNotInEditMode
	}
	for _, id := range ids {
		m.selected[id] = struct{}{}
	}
	return nil
}

// SelectNone clears the selection without leaving edit mode.
func (m *Manager) SelectNone() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = make(map[string]struct{})
}

// IsSelected reports one image's selection state.
func (m *Manager) IsSelected(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.selected[id]
	return ok
}

// Count returns the selection size.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.selected)
}

// Selected returns the selected ids in stable order.
func (m *Manager) Selected() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.selected))
	for id := range m.selected {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// DeleteInFlight reports whether a delete request is outstanding;
// the UI disables delete actions while it is true.
func (m *Manager) DeleteInFlight() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleting
}

// DeleteSelected deletes the current selection at the given tier.
// On full success the selection empties; on partial failure only the
// failed ids stay selected so the user can retry or inspect them.
func (m *Manager) DeleteSelected(ctx context.Context, d Deleter, carID string, tier Tier) (*catalog.DeleteResult, error) {
	fromStorage, err := tier.DeleteFromStorage()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.deleting {
		m.mu.Unlock()
		return nil, ErrDeleteInFlight
	}
	if len(m.selected) == 0 {
		m.mu.Unlock()
		return nil, ErrEmptySelection
	}
	ids := make([]string, 0, len(m.selected))
	for id := range m.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	m.deleting = true
	m.mu.Unlock()

	res, err := d.DeleteImages(ctx, carID, ids, fromStorage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleting = false

	if err != nil {
		// Nothing confirmed deleted; the selection stays intact.
		return nil, err
	}

	for _, id := range res.Deleted {
		delete(m.selected, id)
	}
	if len(res.Failed) > 0 {
		logging.Warn("selection: %d of %d deletes failed (tier %s)", len(res.Failed), len(ids), tier)
	}
	return res, nil
}

// DeleteSingle deletes one image at the given tier. Reachable from a
// per-thumbnail action without entering edit mode, so it does not
// touch the mode, only removes the id from the selection if present.
func (m *Manager) DeleteSingle(ctx context.Context, d Deleter, carID, id string, tier Tier) (*catalog.DeleteResult, error) {
	fromStorage, err := tier.DeleteFromStorage()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.deleting {
		m.mu.Unlock()
		return nil, ErrDeleteInFlight
	}
	m.deleting = true
	m.mu.Unlock()

	res, err := d.DeleteImages(ctx, carID, []string{id}, fromStorage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleting = false

	if err != nil {
		return nil, err
	}
	for _, deleted := range res.Deleted {
		delete(m.selected, deleted)
	}
	return res, nil
}
