package taskgraph

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/go-foundations/taskgraph/internal/affinity"
	"github.com/go-foundations/taskgraph/internal/cpuinfo"
)

// schedulerState mirrors the reference design's constructed → running
// → stopping → joined lifecycle (spec.md §4.D).
type schedulerState int32

const (
	stateConstructed schedulerState = iota
	stateRunning
	stateStopping
	stateJoined
)

// ConcurrentScheduler runs a supplied per-iteration function on the
// owning goroutine (worker 0) while NumWorkers-1 spawned goroutines
// drain work concurrently, using per-worker work-stealing deques.
type ConcurrentScheduler struct {
	id     uuid.UUID
	cfg    Config
	owner  uint64
	state  atomic.Int32
	active []*workerContext

	mu       sync.Mutex
	cond     *sync.Cond
	stopping bool
}

// NewConcurrentScheduler constructs a scheduler in the "constructed"
// state; no goroutines are started until Run is called. The calling
// goroutine becomes the scheduler's owner, checked against
// Config.StrictOwnerChecks on Run and Stop.
func NewConcurrentScheduler(opts ...Option) *ConcurrentScheduler {
	cfg := buildConfig(opts)
	s := &ConcurrentScheduler{
		id:    uuid.New(),
		cfg:   cfg,
		owner: goroutineID(),
	}
	s.cond = sync.NewCond(&s.mu)
	if s.cfg.Logger != nil {
		s.cfg.Logger.Info().
			Str("scheduler_id", s.id.String()).
			Str("cpu", cpuinfo.Summary()).
			Int("num_workers", s.cfg.NumWorkers).
			Log("concurrent scheduler constructed")
	}
	return s
}

// ID returns s's identifier, attached to every log line this scheduler
// emits so a program running several schedulers can tell them apart.
func (s *ConcurrentScheduler) ID() uuid.UUID {
	return s.id
}

// Run marks the scheduler running, starts cfg.NumWorkers-1 spawned
// worker goroutines, then turns the calling goroutine into worker 0:
// each iteration calls fn, then performs one work-cycle step. Run
// returns once Stop has been called and every deque has drained.
func (s *ConcurrentScheduler) Run(fn func()) {
	s.assertOwner()
	if !s.state.CompareAndSwap(int32(stateConstructed), int32(stateRunning)) {
		panic("taskgraph: ConcurrentScheduler.Run called more than once")
	}

	n := s.cfg.NumWorkers
	if n < 1 {
		n = 1
	}
	s.active = make([]*workerContext, n)
	for i := range s.active {
		s.active[i] = newWorkerContext(i, s.cfg.ArenaCapacity, s.cfg.OutOfTaskHandler, s)
	}

	var wg sync.WaitGroup
	for i := 1; i < n; i++ {
		wg.Add(1)
		go s.runWorker(i, &wg)
	}

	bindWorker(s.active[0])
	defer unbindWorker()

	for {
		fn()
		if !workCycle(s.active[0], s.active) && s.isDraining() {
			break
		}
		s.wakeIfIdle()
	}

	wg.Wait()
	s.state.Store(int32(stateJoined))
}

// runWorker is the body of every spawned (non-owning) worker goroutine.
func (s *ConcurrentScheduler) runWorker(index int, wg *sync.WaitGroup) {
	defer wg.Done()
	w := s.active[index]
	s.pinWorker(index)
	bindWorker(w)
	defer unbindWorker()

	for {
		if workCycle(w, s.active) {
			continue
		}
		if s.isDraining() {
			return
		}
		s.idleWait()
	}
}

// isDraining reports whether Stop has been called and every worker's
// deque is currently empty — the condition Run and every spawned
// worker terminate on.
func (s *ConcurrentScheduler) isDraining() bool {
	s.mu.Lock()
	stopping := s.stopping
	s.mu.Unlock()
	if !stopping {
		return false
	}
	for _, w := range s.active {
		if !w.d.isEmpty() {
			return false
		}
	}
	return true
}

// idleWait parks the calling worker goroutine until wakeIfIdle or
// Stop signals it. Mirrors the reference design's internal condition
// variable wait when all deques are empty and nothing is stealable.
// A bounded timer also broadcasts after one millisecond: PostTask
// pushes onto a deque guarded by its own mutex, not s.mu, so a wakeup
// racing a worker between its empty check and Wait() can be missed;
// the timer caps how long that race costs instead of requiring a
// shared predicate under s.mu on every push.
func (s *ConcurrentScheduler) idleWait() {
	s.mu.Lock()
	if !s.stopping {
		t := time.AfterFunc(time.Millisecond, s.cond.Broadcast)
		s.cond.Wait()
		t.Stop()
	}
	s.mu.Unlock()
}

func (s *ConcurrentScheduler) wakeIfIdle() {
	s.cond.Broadcast()
}

// PostTask enqueues t on the calling goroutine's own deque if it is
// one of this scheduler's workers, or pushes it onto worker 0's deque
// otherwise (an external poster has no deque of its own to vie
// for cache locality on).
func (s *ConcurrentScheduler) PostTask(t Task) {
	if s.state.Load() == int32(stateStopping) || s.state.Load() == int32(stateJoined) {
		s.cfg.OutOfTaskHandler(ErrPostAfterStop)
		return
	}
	if w, ok := currentWorker(); ok && s.owns(w) {
		w.d.push(t)
	} else {
		s.active[0].d.push(t)
	}
	s.wakeIfIdle()
}

func (s *ConcurrentScheduler) owns(w *workerContext) bool {
	for _, a := range s.active {
		if a == w {
			return true
		}
	}
	return false
}

// Wait runs the help-while-unavailable loop (spec.md §4.D) on behalf
// of the calling goroutine until h reports complete.
func (s *ConcurrentScheduler) Wait(h TaskHandle) {
	for !h.Completed() {
		if w, ok := currentWorker(); ok && s.owns(w) {
			workCycle(w, s.active)
			continue
		}
		workCycle(s.active[0], s.active)
	}
}

// Stop transitions the scheduler from running to stopping: no new
// work is admitted to drain to zero, existing workers keep running
// until every deque empties, then Run and every spawned worker
// return. Idempotent.
func (s *ConcurrentScheduler) Stop() {
	s.assertOwner()
	if s.state.CompareAndSwap(int32(stateRunning), int32(stateStopping)) && s.cfg.Logger != nil {
		s.cfg.Logger.Info().
			Str("scheduler_id", s.id.String()).
			Log("concurrent scheduler stopping")
	}
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

func (s *ConcurrentScheduler) assertOwner() {
	if s.cfg.StrictOwnerChecks && goroutineID() != s.owner {
		s.cfg.OutOfTaskHandler(ErrOwnerViolation)
	}
}

// pinWorker pins the spawned worker goroutine at index to core index
// when Config.EnableAffinity is set. runWorker calls it for workers
// 1..n-1 only; the owning goroutine (worker 0) is never pinned.
// Best-effort: a failed pin is logged and otherwise ignored.
func (s *ConcurrentScheduler) pinWorker(index int) {
	if !s.cfg.EnableAffinity {
		return
	}
	if err := affinity.Pin(index); err != nil && s.cfg.Logger != nil {
		s.cfg.Logger.Warning().
			Str("scheduler_id", s.id.String()).
			Err(err).
			Log("failed to pin worker to core")
	}
}
