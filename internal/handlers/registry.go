package handlers

import (
	"sync"
	"time"

	"car-archive/internal/gallery"
	"car-archive/internal/logging"
)

// Registry owns the mounted gallery instances. Galleries that go
// untouched past the idle TTL are closed, so abandoned sessions don't
// leak their timers and ledgers.
type Registry struct {
	mu        sync.Mutex
	galleries map[string]*entry
	cat       gallery.Catalog
	opts      gallery.Options
	idleTTL   time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
}

type entry struct {
	g        *gallery.Gallery
	lastUsed time.Time
}

// NewRegistry creates a registry and starts its eviction loop. opts is
// the template every mounted gallery starts from.
func NewRegistry(cat gallery.Catalog, opts gallery.Options, idleTTL time.Duration) *Registry {
	reg := &Registry{
		galleries: make(map[string]*entry),
		cat:       cat,
		opts:      opts,
		idleTTL:   idleTTL,
		stop:      make(chan struct{}),
	}
	if idleTTL > 0 {
		go reg.evictLoop()
	}
	return reg
}

// Mount creates a gallery for a car and returns it.
func (reg *Registry) Mount(carID string) *gallery.Gallery {
	g := gallery.New(reg.cat, carID, reg.opts)

	reg.mu.Lock()
	reg.galleries[g.ID()] = &entry{g: g, lastUsed: time.Now()}
	reg.mu.Unlock()
	return g
}

// Get returns a mounted gallery and refreshes its idle clock.
func (reg *Registry) Get(id string) (*gallery.Gallery, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	e, ok := reg.galleries[id]
	if !ok {
		return nil, false
	}
	e.lastUsed = time.Now()
	return e.g, true
}

// Unmount closes and removes a gallery.
func (reg *Registry) Unmount(id string) bool {
	reg.mu.Lock()
	e, ok := reg.galleries[id]
	delete(reg.galleries, id)
	reg.mu.Unlock()

	if ok {
		e.g.Close()
	}
	return ok
}

// Count returns the number of mounted galleries.
func (reg *Registry) Count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.galleries)
}

// Close unmounts everything and stops the eviction loop.
func (reg *Registry) Close() {
	reg.stopOnce.Do(func() { close(reg.stop) })

	reg.mu.Lock()
	entries := make([]*entry, 0, len(reg.galleries))
	for _, e := range reg.galleries {
		entries = append(entries, e)
	}
	reg.galleries = make(map[string]*entry)
	reg.mu.Unlock()

	for _, e := range entries {
		e.g.Close()
	}
}

func (reg *Registry) evictLoop() {
	ticker := time.NewTicker(reg.idleTTL / 4)
	defer ticker.Stop()

	for {
		select {
		case <-reg.stop:
			return
		case <-ticker.C:
			reg.evictIdle()
		}
	}
}

func (reg *Registry) evictIdle() {
	cutoff := time.Now().Add(-reg.idleTTL)

	reg.mu.Lock()
	var stale []*entry
	for id, e := range reg.galleries {
		if e.lastUsed.Before(cutoff) {
			stale = append(stale, e)
			delete(reg.galleries, id)
		}
	}
	reg.mu.Unlock()

	for _, e := range stale {
		logging.Info("evicting idle gallery %s (car %s)", e.g.ID(), e.g.CarID())
		e.g.Close()
	}
}
