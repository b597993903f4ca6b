package taskgraph

import (
	"math/rand"
	"runtime"
	"sync"
)

// newWorkerContext builds the per-goroutine state a worker binds for
// the duration of its run loop: its own arena (so it never contends
// with other workers or external posters for allocation), its own
// deque, and an RNG seeded distinctly per worker index so victim
// selection doesn't correlate across workers started at the same
// instant.
func newWorkerContext(index int, capacity int, handler OutOfTaskHandler, s Scheduler) *workerContext {
	return &workerContext{
		index:     index,
		d:         newDeque(64),
		arena:     newArena(capacity, handler),
		rng:       rand.New(rand.NewSource(int64(index) + 1)),
		scheduler: s,
	}
}

// workCycle runs at most one task: it pops from w's own deque (LIFO)
// or, if that is empty, steals FIFO from peers tried in order from a
// random start, requeuing a popped or stolen task that turns out not
// to be available yet (a task whose children haven't all finished).
// It returns true only if it executed a task; false means nothing was
// found across a full pass over peers, or the task found was requeued,
// signaling the caller should either idle-wait or, for a goroutine
// blocked in Wait, retry.
func workCycle(w *workerContext, peers []*workerContext) bool {
	if t, ok := w.d.pop(); ok {
		return runOrRequeue(w, t)
	}

	n := len(peers)
	if n <= 1 {
		return false
	}

	w.rngMu.Lock()
	start := w.rng.Intn(n)
	w.rngMu.Unlock()
	for i := 0; i < n; i++ {
		victim := peers[(start+i)%n]
		if victim == w {
			continue
		}
		if t, ok := victim.d.steal(); ok {
			return runOrRequeue(w, t)
		}
	}
	return false
}

// runOrRequeue executes t if it's available, or pushes it back onto
// w's own deque otherwise — a task can be popped/stolen while one of
// its children is still outstanding, and §4.C forbids running it
// until unfinished drops back to 1.
func runOrRequeue(w *workerContext, t Task) bool {
	if !t.Available() {
		w.d.push(t)
		// The task we just requeued is still the only thing in our own
		// deque more often than not (§9 design note: requeue-and-retry
		// relies on someone else's progress, not ours). Yield so that
		// goroutine gets a turn instead of this one spinning on it.
		runtime.Gosched()
		return false
	}
	t.Execute()
	return true
}
