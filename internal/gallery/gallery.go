package gallery

import (
	"context"
	"errors"
	"sync"

	"car-archive/internal/catalog"
	"car-archive/internal/grid"
	"car-archive/internal/imageurl"
	"car-archive/internal/logging"
	"car-archive/internal/metrics"
	"car-archive/internal/paginate"
	"car-archive/internal/preload"
	"car-archive/internal/selection"
	"car-archive/internal/viewer"

	"github.com/google/uuid"
)

// Catalog is the slice of the catalog client a gallery needs.
type Catalog interface {
	FetchPage(ctx context.Context, carID string, q catalog.Query) (*catalog.PageResult, error)
	DeleteImages(ctx context.Context, carID string, ids []string, deleteFromStorage bool) (*catalog.DeleteResult, error)
	SetPrimary(ctx context.Context, carID, imageID string) error
	UpdateMetadata(ctx context.Context, carID, imageID string, md catalog.Metadata) error
	Reanalyze(ctx context.Context, carID, imageID, prompt, model string) error
}

// Options configures one gallery instance.
type Options struct {
	// PageSize for server pagination; also the client-mode slice size
	PageSize int
	// ClientSide fetches the full set once and pages locally
	ClientSide bool
	Grid       grid.Config
	Preload    preload.Config
	// Warmer overrides the HTTP warmer (tests)
	Warmer preload.Warmer
	// Scheduler overrides the idle scheduler (tests)
	Scheduler preload.Scheduler
	// Recorder persists warm history (optional)
	Recorder preload.WarmRecorder
}

// DefaultOptions returns the standard gallery tuning.
func DefaultOptions() Options {
	return Options{
		PageSize: paginate.DefaultPageSize,
		Grid:     grid.DefaultConfig(),
		Preload:  preload.DefaultConfig(),
	}
}

var (
	// ErrStale marks a page response superseded by a newer request;
	// the caller discards it, the last requested page wins.
	ErrStale = errors.New("gallery: superseded by a newer page request")
	// ErrImageNotFound rejects focus/viewer calls for unloaded ids.
	ErrImageNotFound = errors.New("gallery: image not in loaded page")
)

// View is the display snapshot handed to the UI after any operation
// that changes what the grid shows.
type View struct {
	Images    []catalog.ImageRecord `json:"images"`
	Display   paginate.Display      `json:"pagination"`
	State     string                `json:"state"`
	Plan      grid.MountPlan        `json:"mountPlan"`
	CurrentID string                `json:"currentId,omitempty"`
	EditMode  bool                  `json:"editMode"`
	Selected  []string              `json:"selected,omitempty"`
}

// Gallery is one mounted gallery instance: its page state, selection,
// viewer, and preloader. All state is per-instance and discarded on
// Close, so coexisting galleries never share ledgers or timers.
type Gallery struct {
	id    string
	carID string
	cat   Catalog
	opts  Options

	sel  *selection.Manager
	view *viewer.Viewer
	pre  *preload.Preloader

	// sched is owned (and closed) by the gallery unless injected
	sched      preload.Scheduler
	ownedSched *preload.IdleScheduler

	mu            sync.Mutex
	query         catalog.Query // active filters/search/sort
	page          int           // zero-based current page
	images        []catalog.ImageRecord
	full          []catalog.ImageRecord // client mode: the whole set
	fullLoaded    bool
	display       paginate.Display
	firstLoadDone bool
	currentID     string
	pendingToken  string
	lastViewport  grid.Viewport
}

// New mounts a gallery for one car.
func New(cat Catalog, carID string, opts Options) *Gallery {
	if opts.PageSize <= 0 {
		opts.PageSize = paginate.DefaultPageSize
	}
	if opts.Grid.Columns == 0 {
		opts.Grid = grid.DefaultConfig()
	}
	if opts.Preload.PageWarmCount == 0 {
		opts.Preload = preload.DefaultConfig()
	}

	g := &Gallery{
		id:    uuid.NewString(),
		carID: carID,
		cat:   cat,
		opts:  opts,
		sel:   selection.NewManager(),
		view:  viewer.New(),
	}

	g.sched = opts.Scheduler
	if g.sched == nil {
		g.ownedSched = preload.NewIdleScheduler()
		g.sched = g.ownedSched
	}

	warmer := opts.Warmer
	if warmer == nil {
		warmer = preload.NewHTTPWarmer()
	}

	g.pre = preload.New(opts.Preload, g.sched, warmer, g.pageThumbnails)
	if opts.Recorder != nil {
		g.pre.SetRecorder(opts.Recorder, g.id)
	}

	metrics.GalleriesActive.Inc()
	logging.Debug("gallery %s mounted for car %s", g.id, carID)
	return g
}

// ID returns the instance id.
func (g *Gallery) ID() string {
	return g.id
}

// CarID returns the owning car.
func (g *Gallery) CarID() string {
	return g.carID
}

// Close unmounts the gallery and discards its timers and ledger.
func (g *Gallery) Close() {
	g.pre.Close()
	if g.ownedSched != nil {
		g.ownedSched.Close()
	}
	metrics.GalleriesActive.Dec()
	logging.Debug("gallery %s unmounted", g.id)
}

// pageThumbnails is the preloader's PageSource: ordered thumbnail URLs
// for a page. In server mode it goes through the catalog client, which
// also primes the page cache for the coming page change.
func (g *Gallery) pageThumbnails(page int) ([]string, error) {
	g.mu.Lock()
	clientSide := g.opts.ClientSide && g.fullLoaded
	var records []catalog.ImageRecord
	if clientSide {
		d := paginate.FromClient(len(g.full), page, g.opts.PageSize)
		start, end := d.Slice()
		records = append(records, g.full[start:end]...)
	}
	q := g.query
	g.mu.Unlock()

	if !clientSide {
		q.Page = page
		q.PageSize = g.opts.PageSize
		q.IncludeCount = false
		res, err := g.cat.FetchPage(context.Background(), g.carID, q)
		if err != nil {
			return nil, err
		}
		records = res.Images
	}

	urls := make([]string, len(records))
	for i, rec := range records {
		urls[i] = imageurl.WithVariant(rec.URL, imageurl.VariantThumbnail)
	}
	return urls, nil
}

// LoadPage fetches and applies a page. Concurrent calls race safely:
// the last requested page wins, earlier responses are discarded with
// ErrStale instead of applying out of order.
func (g *Gallery) LoadPage(ctx context.Context, page int, q catalog.Query) (*View, error) {
	if page < 0 {
		page = 0
	}

	token := uuid.NewString()
	g.mu.Lock()
	g.pendingToken = token
	sameFilters := g.sameFilters(q)
	fullLoaded := g.fullLoaded
	g.mu.Unlock()

	var (
		images  []catalog.ImageRecord
		full    []catalog.ImageRecord
		display paginate.Display
	)

	if g.opts.ClientSide {
		if !fullLoaded || !sameFilters {
			fetchQ := q
			fetchQ.Page = 0
			fetchQ.PageSize = 0 // the whole set
			fetchQ.IncludeCount = false
			res, err := g.cat.FetchPage(ctx, g.carID, fetchQ)
			if err != nil {
				return nil, err
			}
			full = res.Images
		}
	} else {
		fetchQ := q
		fetchQ.Page = page
		fetchQ.PageSize = g.opts.PageSize
		fetchQ.IncludeCount = true
		res, err := g.cat.FetchPage(ctx, g.carID, fetchQ)
		if err != nil {
			return nil, err
		}
		images = res.Images
		if res.Pagination != nil {
			display = paginate.FromServer(*res.Pagination)
		} else {
			// Catalog omitted metadata: fall back to local math over
			// what we received
			display = paginate.FromClient(len(res.Images), page, g.opts.PageSize)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pendingToken != token {
		metrics.StalePageResponses.Inc()
		logging.Debug("gallery %s: discarding stale response for page %d", g.id, page)
		return nil, ErrStale
	}

	if g.opts.ClientSide {
		if full != nil {
			g.full = full
			g.fullLoaded = true
		}
		display = paginate.FromClient(len(g.full), page, g.opts.PageSize)
		start, end := display.Slice()
		images = g.full[start:end]
	}

	g.query = q
	g.page = page
	g.images = images
	g.display = display
	g.firstLoadDone = true

	// Keep the focused image if it survived the page change;
	// otherwise reset to the first visible
	if g.indexOfLocked(g.currentID) < 0 {
		if len(images) > 0 {
			g.currentID = images[0].ID
		} else {
			g.currentID = ""
		}
	}

	g.view.SetTotal(len(images))

	if page == 0 {
		urls := make([]string, len(images))
		for i, rec := range images {
			urls[i] = imageurl.WithVariant(rec.URL, imageurl.VariantThumbnail)
		}
		g.pre.AboveTheFold(urls)
	}

	return g.viewLocked(), nil
}

// sameFilters must be called with the lock held.
func (g *Gallery) sameFilters(q catalog.Query) bool {
	a, b := g.query, q
	a.Page, b.Page = 0, 0
	a.PageSize, b.PageSize = 0, 0
	a.IncludeCount, b.IncludeCount = false, false
	return a == b
}

// Scroll records a viewport sample, returns the mount plan for it, and
// feeds the debounced preload threshold check.
func (g *Gallery) Scroll(vp grid.Viewport) grid.MountPlan {
	g.mu.Lock()
	g.lastViewport = vp
	itemCount := len(g.images)
	page := g.page
	totalPages := g.display.TotalPages
	g.mu.Unlock()

	plan := grid.Plan(g.opts.Grid, vp, itemCount)
	frac := grid.ScrollFraction(g.opts.Grid, vp, itemCount)
	g.pre.ObserveScroll(frac, page, totalPages)
	return plan
}

// Focus sets the current image by id and schedules adjacent warming.
func (g *Gallery) Focus(id string) error {
	g.mu.Lock()
	idx := g.indexOfLocked(id)
	if idx < 0 {
		g.mu.Unlock()
		return ErrImageNotFound
	}
	g.currentID = id
	prevURL, nextURL := g.neighborURLsLocked(idx)
	g.mu.Unlock()

	g.pre.FocusChanged(prevURL, nextURL)
	return nil
}

// CurrentImage returns the focused record, if any.
func (g *Gallery) CurrentImage() (catalog.ImageRecord, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := g.indexOfLocked(g.currentID)
	if idx < 0 {
		return catalog.ImageRecord{}, false
	}
	return g.images[idx], true
}

// indexOfLocked must be called with the lock held.
func (g *Gallery) indexOfLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, rec := range g.images {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

// neighborURLsLocked must be called with the lock held. In client mode
// the full ordered list is the neighbor source, so focusing an image
// at a page edge still warms across the boundary.
func (g *Gallery) neighborURLsLocked(idx int) (prevURL, nextURL string) {
	if idx < 0 || idx >= len(g.images) {
		return "", ""
	}
	if g.opts.ClientSide && g.fullLoaded {
		id := g.images[idx].ID
		for i, rec := range g.full {
			if rec.ID != id {
				continue
			}
			if i > 0 {
				prevURL = g.full[i-1].URL
			}
			if i+1 < len(g.full) {
				nextURL = g.full[i+1].URL
			}
			return prevURL, nextURL
		}
	}
	if idx > 0 {
		prevURL = g.images[idx-1].URL
	}
	if idx+1 < len(g.images) {
		nextURL = g.images[idx+1].URL
	}
	return prevURL, nextURL
}

// viewLocked must be called with the lock held.
func (g *Gallery) viewLocked() *View {
	images := make([]catalog.ImageRecord, len(g.images))
	copy(images, g.images)

	return &View{
		Images:    images,
		Display:   g.display,
		State:     paginate.StateFor(len(g.images), g.firstLoadDone, g.query.HasFilter()).String(),
		Plan:      grid.Plan(g.opts.Grid, g.lastViewport, len(g.images)),
		CurrentID: g.currentID,
		EditMode:  g.sel.Mode() == selection.ModeEdit,
		Selected:  g.sel.Selected(),
	}
}

// View returns the current display snapshot.
func (g *Gallery) View() *View {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.viewLocked()
}
