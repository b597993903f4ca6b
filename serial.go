package taskgraph

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/go-foundations/taskgraph/internal/cpuinfo"
)

// wakeSignal coalesces any number of concurrent wake requests into a
// single pending flag backed by a size-1 weighted semaphore: the
// semaphore is "primed" (fully acquired) at construction, so the first
// wait blocks, notify releases it once, and wait re-arms the flag on
// the way out. Extra notify calls while already signaled are no-ops
// rather than panicking the semaphore with an over-release.
type wakeSignal struct {
	sem     *semaphore.Weighted
	pending atomic.Bool
}

func newWakeSignal() *wakeSignal {
	s := &wakeSignal{sem: semaphore.NewWeighted(1)}
	_ = s.sem.Acquire(context.Background(), 1)
	return s
}

func (s *wakeSignal) wait(ctx context.Context) error {
	err := s.sem.Acquire(ctx, 1)
	if err == nil {
		s.pending.Store(false)
	}
	return err
}

func (s *wakeSignal) notify() {
	if s.pending.CompareAndSwap(false, true) {
		s.sem.Release(1)
	}
}

// SerialScheduler executes every posted task strictly in the order it
// was pushed, on a single dedicated worker goroutine started at
// construction. It shares Task/TaskHandle/arena with ConcurrentScheduler
// but needs no work-stealing: the single worker services one FIFO
// queue, reusing deque's push (enqueue) and steal (FIFO dequeue) pair
// rather than its LIFO pop.
type SerialScheduler struct {
	id    uuid.UUID
	cfg   Config
	w     *workerContext
	wake  *wakeSignal
	state atomic.Int32
	done  chan struct{}

	// execOwner/execDepth enforce that at most one goroutine is ever
	// inside a task body at a time, while still letting that one
	// goroutine re-enter (a task body that calls Wait on this same
	// scheduler — the documented "help-while-unavailable" pattern —
	// recurses into tryExecuteOne on its own goroutine). Without this,
	// the dedicated worker goroutine and a goroutine blocked in Wait
	// could each dequeue a distinct task and run its body concurrently
	// on two OS threads — silently breaking both the ordering contract
	// (§4.E: A finishes before B begins) and the exclusivity a bound
	// object relies on (§4.G, §8 invariant 5). A plain sync.Mutex would
	// make that same legitimate reentrant case deadlock instead, since
	// it isn't reentrant; execOwner tracks which goroutine currently
	// holds the logical execution slot, and execDepth counts its
	// nesting so the slot is only freed when that goroutine fully
	// unwinds. execOwner is 0 when free, never a goroutine id — Go
	// numbers goroutines starting at 1. execDepth is touched only by
	// whichever goroutine currently owns execOwner, so it needs no
	// atomic of its own: ownership transfer is itself mediated by an
	// atomic CompareAndSwap/Store pair, which is what makes the prior
	// owner's writes to execDepth visible to the next.
	execOwner atomic.Uint64
	execDepth int
}

// acquireExec reports whether gid may proceed into tryExecuteOne's
// dequeue-and-run: either the execution slot was free (claimed here),
// or gid already holds it (a nested Wait call from within a task body
// running on gid).
func (s *SerialScheduler) acquireExec(gid uint64) bool {
	if s.execOwner.CompareAndSwap(0, gid) {
		s.execDepth = 1
		return true
	}
	if s.execOwner.Load() == gid {
		s.execDepth++
		return true
	}
	return false
}

// releaseExec undoes one acquireExec, freeing the slot once gid's
// nesting has fully unwound.
func (s *SerialScheduler) releaseExec() {
	s.execDepth--
	if s.execDepth == 0 {
		s.execOwner.Store(0)
	}
}

// NewSerialScheduler constructs a SerialScheduler and immediately
// starts its worker goroutine; there is no separate Run call.
func NewSerialScheduler(opts ...Option) *SerialScheduler {
	cfg := buildConfig(opts)
	s := &SerialScheduler{
		id:   uuid.New(),
		cfg:  cfg,
		wake: newWakeSignal(),
		done: make(chan struct{}),
	}
	s.w = newWorkerContext(0, cfg.ArenaCapacity, cfg.OutOfTaskHandler, s)
	s.state.Store(int32(stateRunning))
	if s.cfg.Logger != nil {
		s.cfg.Logger.Info().
			Str("scheduler_id", s.id.String()).
			Str("cpu", cpuinfo.Summary()).
			Log("serial scheduler constructed")
	}
	go s.run()
	return s
}

// ID returns s's identifier, attached to every log line this scheduler
// emits so a program running several schedulers can tell them apart.
func (s *SerialScheduler) ID() uuid.UUID {
	return s.id
}

func (s *SerialScheduler) run() {
	bindWorker(s.w)
	defer unbindWorker()
	defer close(s.done)

	ctx := context.Background()
	for {
		if s.tryExecuteOne() {
			continue
		}
		if s.state.Load() == int32(stateStopping) {
			// No progress this pass (another goroutine holds the
			// execution slot, or the front task was requeued as
			// unavailable) does not mean the queue is drained.
			if s.w.d.isEmpty() {
				return
			}
			runtime.Gosched()
			continue
		}
		_ = s.wake.wait(ctx)
	}
}

// tryExecuteOne dequeues and runs the next FIFO-ordered task, if any.
// Reports whether it made progress. Callable from the dedicated worker
// goroutine or from any goroutine blocked in Wait — the reference
// design documents wait as a caller that "participates in executing
// tasks while waiting." acquireExec is what keeps two distinct
// goroutines from ever running different tasks concurrently: a
// goroutine that can't acquire it treats this as "no progress
// available right now" and falls back to its normal idle/poll path,
// since some other goroutine is already making progress on its
// behalf; the goroutine that already holds it (a nested Wait call
// from within a task body) is let through instead of deadlocking.
func (s *SerialScheduler) tryExecuteOne() bool {
	gid := goroutineID()
	if !s.acquireExec(gid) {
		return false
	}
	defer s.releaseExec()

	t, ok := s.w.d.steal()
	if !ok {
		return false
	}
	if !t.Available() {
		// A child was added to this task's handle after it was queued
		// but before it reached the front; requeue at the back so
		// everything behind it keeps its FIFO-within-one-poster order.
		s.w.d.push(t)
		return false
	}
	// A goroutine helping from Wait is not this scheduler's worker:
	// bind it to s.w while the body runs, so the body sees s as its
	// active scheduler, then restore whatever binding it had before.
	if prev, had := currentWorker(); !had || prev != s.w {
		bindWorker(s.w)
		defer func() {
			if had {
				bindWorker(prev)
			} else {
				unbindWorker()
			}
		}()
	}
	t.Execute()
	return true
}

// PostTask enqueues t at the back of the FIFO queue. Safe to call from
// any goroutine, including the scheduler's own worker (a task's body
// posting a child task).
func (s *SerialScheduler) PostTask(t Task) {
	if s.state.Load() == int32(stateStopping) || s.state.Load() == int32(stateJoined) {
		s.cfg.OutOfTaskHandler(ErrPostAfterStop)
		return
	}
	s.w.d.push(t)
	s.wake.notify()
}

// Wait runs the help-while-unavailable loop: the calling goroutine —
// worker or not — dequeues and executes queued tasks itself until h
// reports complete, matching the reference design's "the calling
// thread participates in executing tasks while waiting for task to
// complete." If the queue empties before h completes (h's task is
// still in flight on whichever goroutine dequeued it first), the
// caller falls back to a bounded poll rather than blocking forever,
// since task completion itself has no hook into the wake signal.
func (s *SerialScheduler) Wait(h TaskHandle) {
	for !h.Completed() {
		if s.tryExecuteOne() {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		_ = s.wake.wait(ctx)
		cancel()
	}
}

// Stop drains the FIFO queue and stops the worker goroutine. Blocks
// until the worker has exited. Idempotent.
func (s *SerialScheduler) Stop() {
	if !s.state.CompareAndSwap(int32(stateRunning), int32(stateStopping)) {
		return
	}
	if s.cfg.Logger != nil {
		s.cfg.Logger.Info().
			Str("scheduler_id", s.id.String()).
			Log("serial scheduler stopping")
	}
	s.wake.notify()
	<-s.done
	s.state.Store(int32(stateJoined))
}
