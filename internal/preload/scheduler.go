package preload

import (
	"runtime"
	"sync"
	"time"
)

// Scheduler runs best-effort background work. Implementations must
// never block the caller and must run the work within the given
// timeout even under load.
type Scheduler interface {
	Schedule(work func(), timeout time.Duration)
}

// IdleScheduler runs queued work on a single background goroutine,
// yielding to the runtime between items so warming never competes with
// interactive request handling. When the queue is saturated, the
// deadline timer alone runs the work, so the timeout bound holds
// either way.
type IdleScheduler struct {
	queue  chan func()
	stop   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	closed bool
	mu     sync.Mutex
}

// NewIdleScheduler starts the scheduler's worker goroutine.
func NewIdleScheduler() *IdleScheduler {
	s := &IdleScheduler{
		queue: make(chan func(), 64),
		stop:  make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *IdleScheduler) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stop:
			return
		case work := <-s.queue:
			work()
			runtime.Gosched()
		}
	}
}

// Schedule queues work with a deadline guard. The work runs exactly
// once: either when the idle worker reaches it or when the timeout
// fires, whichever comes first.
func (s *IdleScheduler) Schedule(work func(), timeout time.Duration) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	var once sync.Once
	job := func() { once.Do(work) }

	timer := time.AfterFunc(timeout, job)

	select {
	case s.queue <- func() {
		timer.Stop()
		job()
	}:
	default:
		// Queue full: the deadline timer will run it.
	}
}

// Close stops the worker goroutine. Pending queue entries still run
// via their deadline timers.
func (s *IdleScheduler) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.stop)
	})
	s.wg.Wait()
}
