package gallery

import (
	"context"

	"car-archive/internal/catalog"
	"car-archive/internal/imageurl"
	"car-archive/internal/logging"
	"car-archive/internal/selection"
	"car-archive/internal/viewer"
)

// EnterEdit switches the gallery to edit mode.
func (g *Gallery) EnterEdit() {
	g.sel.EnterEdit()
}

// ExitEdit returns to view mode; the selection is discarded.
func (g *Gallery) ExitEdit() {
	g.sel.ExitEdit()
}

// EditMode reports whether edit mode is active.
func (g *Gallery) EditMode() bool {
	return g.sel.Mode() == selection.ModeEdit
}

// ToggleSelect flips one image's selection. Edit mode only.
func (g *Gallery) ToggleSelect(id string) error {
	g.mu.Lock()
	known := g.indexOfLocked(id) >= 0
	g.mu.Unlock()

	if !known {
		return ErrImageNotFound
	}
	return g.sel.Toggle(id)
}

// SelectAll selects every image on the loaded page.
func (g *Gallery) SelectAll() error {
	g.mu.Lock()
	ids := make([]string, len(g.images))
	for i, rec := range g.images {
		ids[i] = rec.ID
	}
	g.mu.Unlock()

	return g.sel.SelectAll(ids)
}

// SelectNone clears the selection without leaving edit mode.
func (g *Gallery) SelectNone() {
	g.sel.SelectNone()
}

// Selected returns the selected ids in stable order.
func (g *Gallery) Selected() []string {
	return g.sel.Selected()
}

// DeleteSelected batch-deletes the selection at the given tier, then
// refetches the current page so the grid reflects the catalog, not a
// local guess. The focused image, if deleted, advances to the next
// surviving image (or the previous one at the end of the list).
func (g *Gallery) DeleteSelected(ctx context.Context, tier selection.Tier) (*catalog.DeleteResult, *View, error) {
	res, err := g.sel.DeleteSelected(ctx, g.cat, g.carID, tier)
	if err != nil {
		return nil, nil, err
	}

	view, err := g.reloadAfterRemoval(ctx, res.Deleted)
	return res, view, err
}

// DeleteSingle deletes one image at the given tier. Unlike batch
// delete it works in view mode too.
func (g *Gallery) DeleteSingle(ctx context.Context, id string, tier selection.Tier) (*catalog.DeleteResult, *View, error) {
	g.mu.Lock()
	known := g.indexOfLocked(id) >= 0
	g.mu.Unlock()
	if !known {
		return nil, nil, ErrImageNotFound
	}

	res, err := g.sel.DeleteSingle(ctx, g.cat, g.carID, id, tier)
	if err != nil {
		return nil, nil, err
	}

	view, err := g.reloadAfterRemoval(ctx, res.Deleted)
	return res, view, err
}

// reloadAfterRemoval advances the focused image past the removed ids,
// then refetches the current page. If the deletion emptied the page it
// steps back one page rather than showing an empty grid mid-set.
func (g *Gallery) reloadAfterRemoval(ctx context.Context, removed []string) (*View, error) {
	g.advanceCurrent(removed)

	g.mu.Lock()
	page := g.page
	q := g.query
	g.fullLoaded = false // client mode refetches the shrunken set
	g.mu.Unlock()

	view, err := g.LoadPage(ctx, page, q)
	if err != nil {
		return nil, err
	}
	if len(view.Images) == 0 && page > 0 {
		return g.LoadPage(ctx, page-1, q)
	}
	return view, nil
}

// advanceCurrent moves the focus off a removed image: to the next
// surviving image in order, else the nearest earlier one, else nothing.
func (g *Gallery) advanceCurrent(removed []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	gone := make(map[string]struct{}, len(removed))
	for _, id := range removed {
		gone[id] = struct{}{}
	}
	if _, ok := gone[g.currentID]; !ok {
		return
	}

	idx := g.indexOfLocked(g.currentID)
	for i := idx + 1; i < len(g.images); i++ {
		if _, ok := gone[g.images[i].ID]; !ok {
			g.currentID = g.images[i].ID
			return
		}
	}
	for i := idx - 1; i >= 0; i-- {
		if _, ok := gone[g.images[i].ID]; !ok {
			g.currentID = g.images[i].ID
			return
		}
	}
	g.currentID = ""
}

// SetPrimary marks an image as the car's primary shot and refetches
// the page so every thumbnail's primary flag is current.
func (g *Gallery) SetPrimary(ctx context.Context, id string) (*View, error) {
	g.mu.Lock()
	known := g.indexOfLocked(id) >= 0
	page := g.page
	q := g.query
	g.fullLoaded = false
	g.mu.Unlock()
	if !known {
		return nil, ErrImageNotFound
	}

	if err := g.cat.SetPrimary(ctx, g.carID, id); err != nil {
		return nil, err
	}
	return g.LoadPage(ctx, page, q)
}

// UpdateMetadata rewrites an image's metadata and refetches the page.
func (g *Gallery) UpdateMetadata(ctx context.Context, id string, md catalog.Metadata) (*View, error) {
	g.mu.Lock()
	known := g.indexOfLocked(id) >= 0
	page := g.page
	q := g.query
	g.fullLoaded = false
	g.mu.Unlock()
	if !known {
		return nil, ErrImageNotFound
	}

	if err := g.cat.UpdateMetadata(ctx, g.carID, id, md); err != nil {
		return nil, err
	}
	return g.LoadPage(ctx, page, q)
}

// Reanalyze asks the catalog to re-run image analysis with the given
// prompt and model. The catalog processes it asynchronously, so there
// is nothing to refetch yet.
func (g *Gallery) Reanalyze(ctx context.Context, id, prompt, model string) error {
	g.mu.Lock()
	known := g.indexOfLocked(id) >= 0
	g.mu.Unlock()
	if !known {
		return ErrImageNotFound
	}
	logging.Info("gallery %s: reanalyze image %s (model %s)", g.id, id, model)
	return g.cat.Reanalyze(ctx, g.carID, id, prompt, model)
}

// OpenViewer opens the full-size viewer on an image of the loaded page.
func (g *Gallery) OpenViewer(id string) (viewer.Action, error) {
	g.mu.Lock()
	idx := g.indexOfLocked(id)
	total := len(g.images)
	if idx >= 0 {
		g.currentID = id
	}
	var prevURL, nextURL string
	if idx >= 0 {
		prevURL, nextURL = g.neighborURLsLocked(idx)
	}
	g.mu.Unlock()

	if idx < 0 {
		return viewer.Action{Kind: viewer.ActionNone}, ErrImageNotFound
	}
	if err := g.view.Open(idx, total); err != nil {
		return viewer.Action{Kind: viewer.ActionNone}, err
	}

	g.pre.FocusChanged(prevURL, nextURL)
	return viewer.Action{Kind: viewer.ActionMoved, Index: idx}, nil
}

// CloseViewer hides the viewer. The focused image is unchanged.
func (g *Gallery) CloseViewer() {
	g.view.Close()
}

// ViewerState returns the viewer's lifecycle state and index.
func (g *Gallery) ViewerState() (viewer.State, int) {
	return g.view.State(), g.view.Index()
}

// ViewerNext moves right one image; a boundary is a quiet no-op.
func (g *Gallery) ViewerNext() viewer.Action {
	return g.afterViewerMove(g.view.Next())
}

// ViewerPrev moves left one image; a boundary is a quiet no-op.
func (g *Gallery) ViewerPrev() viewer.Action {
	return g.afterViewerMove(g.view.Prev())
}

// ViewerKey applies the viewer keyboard contract. The copy action
// returns the focused image's high-resolution delivery URL.
func (g *Gallery) ViewerKey(key viewer.Key) viewer.Action {
	var currentURL string
	if rec, ok := g.CurrentImage(); ok {
		currentURL = imageurl.WithVariant(rec.URL, imageurl.VariantHighRes)
	}
	return g.afterViewerMove(g.view.HandleKey(key, currentURL))
}

// afterViewerMove syncs the focused image with a viewer move and warms
// the new neighbors.
func (g *Gallery) afterViewerMove(act viewer.Action) viewer.Action {
	if act.Kind != viewer.ActionMoved {
		return act
	}

	g.mu.Lock()
	if act.Index >= 0 && act.Index < len(g.images) {
		g.currentID = g.images[act.Index].ID
	}
	prevURL, nextURL := g.neighborURLsLocked(act.Index)
	g.mu.Unlock()

	g.pre.FocusChanged(prevURL, nextURL)
	return act
}
