package preload

import (
	"context"
	"time"

	"car-archive/internal/imageurl"
	"car-archive/internal/logging"
	"car-archive/internal/metrics"
	"car-archive/internal/workers"
)

// Config holds the preload tuning knobs.
type Config struct {
	// LookaheadThreshold is the scroll fraction past which the next
	// page's images are warmed
	LookaheadThreshold float64
	// LookbehindThreshold is the scroll fraction below which the
	// previous page's images are warmed
	LookbehindThreshold float64
	// PageWarmCount is how many images of an adjacent page to warm
	PageWarmCount int
	// FoldCount is how many thumbnails to warm on first render
	FoldCount int
	// SettleDelay defers adjacent-focus warming so rapid navigation
	// doesn't thrash the warmer
	SettleDelay time.Duration
	// ScrollDebounce collapses scroll bursts into one threshold check
	ScrollDebounce time.Duration
	// ScheduleTimeout bounds how long a scheduled warm may wait for
	// idle time before it runs anyway
	ScheduleTimeout time.Duration
	// WarmTimeout bounds each individual warm request
	WarmTimeout time.Duration
	// MaxConcurrent caps parallel warm requests (0 = derive from CPUs)
	MaxConcurrent int
}

// DefaultConfig returns the gallery's preload tuning.
func DefaultConfig() Config {
	return Config{
		LookaheadThreshold:  0.80,
		LookbehindThreshold: 0.20,
		PageWarmCount:       5,
		FoldCount:           6,
		SettleDelay:         300 * time.Millisecond,
		ScrollDebounce:      100 * time.Millisecond,
		ScheduleTimeout:     2 * time.Second,
		WarmTimeout:         10 * time.Second,
		MaxConcurrent:       0,
	}
}

// PageSource returns the ordered delivery URLs for a page's images.
// The gallery backs this with the catalog client, so looking ahead at
// a page also primes the catalog's page cache.
type PageSource func(page int) ([]string, error)

// WarmRecorder persists warm history for observability. Failures are
// swallowed; the in-memory ledger stays authoritative.
type WarmRecorder interface {
	RecordWarm(galleryID, key string) error
}

// Preloader warms the image cache for content the user is likely to
// need next. All warming is best-effort: failures are logged at debug
// level and never surface.
type Preloader struct {
	cfg       Config
	sched     Scheduler
	ledger    *Ledger
	warmer    Warmer
	source    PageSource
	scroll    *Debouncer
	settle    *Debouncer
	sem       chan struct{}
	recorder  WarmRecorder
	galleryID string
}

// New creates a preloader. The scheduler, ledger and debouncers are
// per-gallery-instance state: created when the gallery mounts,
// discarded with Close when it unmounts.
func New(cfg Config, sched Scheduler, warmer Warmer, source PageSource) *Preloader {
	maxConc := cfg.MaxConcurrent
	if maxConc <= 0 {
		maxConc = workers.ForIO(8)
	}

	return &Preloader{
		cfg:    cfg,
		sched:  sched,
		ledger: NewLedger(),
		warmer: warmer,
		source: source,
		scroll: NewDebouncer(cfg.ScrollDebounce),
		settle: NewDebouncer(cfg.SettleDelay),
		sem:    make(chan struct{}, maxConc),
	}
}

// SetRecorder attaches a persistent warm-history recorder.
func (p *Preloader) SetRecorder(r WarmRecorder, galleryID string) {
	p.recorder = r
	p.galleryID = galleryID
}

// Ledger exposes the session ledger (read-mostly, used by tests and
// the health endpoint).
func (p *Preloader) Ledger() *Ledger {
	return p.ledger
}

// Close cancels pending debounced work.
func (p *Preloader) Close() {
	p.scroll.Stop()
	p.settle.Stop()
}

// AboveTheFold warms the first thumbnails of page 0, the only images
// guaranteed visible without scrolling. Runs once per session.
func (p *Preloader) AboveTheFold(urls []string) {
	if !p.ledger.Mark(foldKey) {
		return
	}
	p.record(foldKey)

	n := p.cfg.FoldCount
	if n > len(urls) {
		n = len(urls)
	}
	p.warmBatch(urls[:n], "fold")
}

// ObserveScroll feeds a debounced scroll sample to the threshold
// check. page is the zero-based current page.
func (p *Preloader) ObserveScroll(fraction float64, page, totalPages int) {
	p.scroll.Trigger(func() {
		p.checkThresholds(fraction, page, totalPages)
	})
}

func (p *Preloader) checkThresholds(fraction float64, page, totalPages int) {
	if fraction >= p.cfg.LookaheadThreshold && page+1 < totalPages {
		p.lookAhead(page + 1)
	}
	if fraction <= p.cfg.LookbehindThreshold && page > 0 {
		p.lookBehind(page - 1)
	}
}

// lookAhead warms the first images of the next page.
func (p *Preloader) lookAhead(page int) {
	if !p.ledger.Mark(PageKey(page)) {
		return
	}
	p.record(PageKey(page))

	p.sched.Schedule(func() {
		urls, err := p.source(page)
		if err != nil {
			logging.Debug("preload: lookahead page %d source failed: %v", page, err)
			metrics.PreloadWarmTotal.WithLabelValues("ahead", "error").Inc()
			return
		}
		if len(urls) > p.cfg.PageWarmCount {
			urls = urls[:p.cfg.PageWarmCount]
		}
		p.warmNow(urls, "ahead")
	}, p.cfg.ScheduleTimeout)
}

// lookBehind warms the last images of the previous page, the ones a
// user scrolling upward meets first.
func (p *Preloader) lookBehind(page int) {
	if !p.ledger.Mark(PrevPageKey(page)) {
		return
	}
	p.record(PrevPageKey(page))

	p.sched.Schedule(func() {
		urls, err := p.source(page)
		if err != nil {
			logging.Debug("preload: lookbehind page %d source failed: %v", page, err)
			metrics.PreloadWarmTotal.WithLabelValues("behind", "error").Inc()
			return
		}
		if len(urls) > p.cfg.PageWarmCount {
			urls = urls[len(urls)-p.cfg.PageWarmCount:]
		}
		p.warmNow(urls, "behind")
	}, p.cfg.ScheduleTimeout)
}

// FocusChanged warms the neighbors of the newly focused image at the
// medium variant, after the settle delay so rapid next/next/next
// navigation collapses into one pass for the final position.
func (p *Preloader) FocusChanged(prevURL, nextURL string) {
	p.settle.Trigger(func() {
		var urls []string
		for _, u := range []string{prevURL, nextURL} {
			if u == "" {
				continue
			}
			urls = append(urls, imageurl.WithVariant(u, imageurl.VariantMedium))
		}
		p.warmBatch(urls, "focus")
	})
}

// warmBatch schedules warming for a set of URLs.
func (p *Preloader) warmBatch(urls []string, direction string) {
	if len(urls) == 0 {
		return
	}
	p.sched.Schedule(func() {
		p.warmNow(urls, direction)
	}, p.cfg.ScheduleTimeout)
}

// warmNow performs the actual warm requests with bounded concurrency.
// Errors are swallowed: warming is an optimization, not a feature.
func (p *Preloader) warmNow(urls []string, direction string) {
	for _, url := range urls {
		if !p.ledger.Mark(ImageKey(url)) {
			continue
		}

		p.sem <- struct{}{}
		go func(u string) {
			defer func() { <-p.sem }()

			ctx, cancel := context.WithTimeout(context.Background(), p.cfg.WarmTimeout)
			defer cancel()

			if err := p.warmer.Warm(ctx, u); err != nil {
				logging.Debug("preload: warm %s failed (%s): %v", u, direction, err)
				metrics.PreloadWarmTotal.WithLabelValues(direction, "error").Inc()
				return
			}
			metrics.PreloadWarmTotal.WithLabelValues(direction, "success").Inc()
		}(url)
	}
}

func (p *Preloader) record(key string) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.RecordWarm(p.galleryID, key); err != nil {
		logging.Debug("preload: record warm %q failed: %v", key, err)
	}
}
