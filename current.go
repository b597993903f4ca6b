package taskgraph

import (
	"math/rand"
	"runtime"
	"sync"
)

// Scheduler is the capability every task-posting destination in this
// package implements: ConcurrentScheduler and SerialScheduler. It is
// the interface the thisscheduler helpers and BoundObject forward
// through, replacing the reference design's virtual base class
// (design note §9: "a capability trait... is preferred").
type Scheduler interface {
	// PostTask enqueues an already-created task for execution.
	PostTask(t Task)
	// Wait runs the help-while-unavailable loop until h reports
	// complete.
	Wait(h TaskHandle)
	// Stop signals the scheduler to drain and stop accepting new
	// work. Idempotent.
	Stop()
}

// workerContext is the explicit, goroutine-scoped state design note
// §9 recommends in place of a true thread-local: "pass a per-worker
// context... and have this_scheduler helpers reach it through an
// explicit handle." Go has no language-level thread-locals, so this
// package emulates one with a goroutine-id-keyed registry (the same
// technique the pack's event-loop package uses in isLoopThread/
// getGoroutineID) rather than threading a context parameter through
// every call, which would break the spec's post/wait free-function
// surface.
type workerContext struct {
	index int
	d     *deque
	arena *arena
	// rng picks steal victims. *rand.Rand is not safe for concurrent
	// use; rngMu guards it for the one case where two goroutines can
	// legitimately drive the same workerContext at once — a foreign
	// (non-worker) goroutine blocked in Scheduler.Wait helps worker 0
	// by calling workCycle(active[0], ...) directly, concurrently with
	// worker 0's own run loop goroutine doing the same.
	rngMu     sync.Mutex
	rng       *rand.Rand
	scheduler Scheduler
}

var workerRegistry sync.Map // goroutine id (uint64) -> *workerContext

// bindWorker registers ctx as the worker context for the calling
// goroutine for the remainder of its lifetime (or until unbindWorker
// is called). It is invoked once at the top of each worker's run
// loop, including the owning goroutine when it becomes worker 0
// inside ConcurrentScheduler.Run, and by SerialScheduler around each
// task body that a goroutine blocked in Wait runs on the worker's
// behalf.
func bindWorker(ctx *workerContext) {
	workerRegistry.Store(goroutineID(), ctx)
}

// unbindWorker removes the calling goroutine's worker context,
// called when a worker loop exits.
func unbindWorker() {
	workerRegistry.Delete(goroutineID())
}

// currentWorker returns the calling goroutine's worker context, if
// it is currently a scheduler worker.
func currentWorker() (*workerContext, bool) {
	v, ok := workerRegistry.Load(goroutineID())
	if !ok {
		return nil, false
	}
	return v.(*workerContext), true
}

// ActiveScheduler returns the scheduler bound to the calling
// goroutine: the one it is a worker of. For a scheduler's own worker
// goroutines the binding lasts the worker's whole lifetime rather than
// being set and cleared around each task body. A goroutine blocked in
// SerialScheduler.Wait is bound to that scheduler's worker for each
// task body it runs. A non-worker goroutine blocked in
// ConcurrentScheduler.Wait is not bound: task bodies it runs there see
// no active scheduler.
func ActiveScheduler() (Scheduler, bool) {
	w, ok := currentWorker()
	if !ok || w.scheduler == nil {
		return nil, false
	}
	return w.scheduler, true
}

// WorkerID returns the calling goroutine's worker index within its
// scheduler, and false if it is not currently a scheduler worker.
// Worker 0 is always the goroutine that constructed a
// ConcurrentScheduler and called Run, or a SerialScheduler's sole
// worker.
func WorkerID() (int, bool) {
	w, ok := currentWorker()
	if !ok {
		return 0, false
	}
	return w.index, true
}

// goroutineID returns the calling goroutine's runtime id, parsed out
// of runtime.Stack's "goroutine N [...]" header. This is the same
// technique used elsewhere in the retrieved pack's event-loop code
// to recognize "am I running on goroutine X" without a real
// thread-local; Go intentionally exposes no stable public API for
// this, so parsing the debug stack header is the idiomatic escape
// hatch.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
