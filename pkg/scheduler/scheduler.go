// Package scheduler implements the background cron-style job runner: a
// fixed-capacity job array, a 5-field wildcard/step expression matcher,
// and a run loop that wakes every 30 seconds on its own goroutine.
package scheduler

import (
	"log/slog"
	"sync"
	"time"
)

// maxJobs bounds the job table (spec §4.9).
const maxJobs = 64

// tickInterval is how often the run loop wakes to test jobs against the
// current minute.
const tickInterval = 30 * time.Second

// Callback is invoked synchronously on the scheduler's own goroutine when
// a job's expression matches.
type Callback func(userdata any)

type job struct {
	name      string
	expr      *expression
	callback  Callback
	userdata  any
	lastFire  int64 // unix minute boundary of last invocation
	active    bool
}

// Scheduler owns a fixed-capacity array of jobs and a run loop goroutine.
//
// Add and the run loop's tick both hold mu, so Add may be called while
// Run is active; a job added mid-run is first tested on the next tick.
type Scheduler struct {
	jobs    [maxJobs]job
	count   int
	mu      sync.Mutex
	stopCh  chan struct{}
	stopped chan struct{}
}

// New builds an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{stopCh: make(chan struct{}), stopped: make(chan struct{})}
}

// Add parses expr and registers name/callback/userdata. Returns false if
// the table is full or expr fails to parse.
func (s *Scheduler) Add(name, expr string, callback Callback, userdata any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count >= maxJobs {
		slog.Error("scheduler: job table full", "name", name)
		return false
	}
	parsed, err := parseExpression(expr)
	if err != nil {
		slog.Error("scheduler: invalid expression", "name", name, "expr", expr, "error", err)
		return false
	}

	s.jobs[s.count] = job{name: name, expr: parsed, callback: callback, userdata: userdata, active: true, lastFire: -1}
	s.count++
	return true
}

// Run drives the run loop in the calling goroutine (callers start it with
// go) and blocks until Stop is called. now is called each tick to fetch
// local time — injectable for tests; production callers pass time.Now.
func (s *Scheduler) Run(now func() time.Time) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			close(s.stopped)
			return
		case <-ticker.C:
			s.tick(now())
		}
	}
}

func (s *Scheduler) tick(t time.Time) {
	minuteBoundary := t.Unix() - t.Unix()%60
	minute, hour, dom, month := t.Minute(), t.Hour(), t.Day(), int(t.Month())
	dow := int(t.Weekday())

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < s.count; i++ {
		j := &s.jobs[i]
		if !j.active {
			continue
		}
		if j.lastFire == minuteBoundary {
			continue
		}
		if !j.expr.matches(minute, hour, dom, month, dow) {
			continue
		}
		j.lastFire = minuteBoundary
		j.callback(j.userdata)
	}
}

// Stop signals the run loop to exit and waits for it to return. The
// select in Run reacts to stopCh immediately rather than waiting on the
// next tick, so shutdown latency here is sub-second — tighter than the
// spec's 1-second-increment sleep loop, for the same bounded-latency
// guarantee.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.stopped
}
