package taskgraph

import "sync"

// deque is a per-worker work-stealing container. The owner pushes and
// pops at bottom (LIFO, for cache locality on the goroutine that
// spawned the work); any other goroutine may steal from top (FIFO,
// so the oldest posted work is taken first and sub-tasks stay close
// to their parent on the owner's side).
//
// spec.md §4.B explicitly allows a single mutex guarding both indices
// in place of a lock-free Chase-Lev deque — "the contracts are what
// matters" — so that's what this does, following the teacher's own
// WorkStealingDeque, which used the same trade-off.
type deque struct {
	mu     sync.Mutex
	bottom int
	top    int
	buf    []Task
}

func newDeque(initialCapacity int) *deque {
	if initialCapacity <= 0 {
		initialCapacity = 64
	}
	return &deque{buf: make([]Task, initialCapacity)}
}

// push appends t at bottom. Owner-only.
func (d *deque) push(t Task) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bottom-d.top >= len(d.buf) {
		d.grow()
	}
	d.buf[d.bottom%len(d.buf)] = t
	d.bottom++
}

// pop removes and returns the task at bottom, LIFO. Owner-only.
func (d *deque) pop() (Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.top >= d.bottom {
		return Task{}, false
	}
	d.bottom--
	t := d.buf[d.bottom%len(d.buf)]
	return t, true
}

// steal removes and returns the task at top, FIFO. Safe to call from
// any goroutine, including the owner (though the owner should prefer
// pop). An empty read here may be spurious under a concurrent push;
// the worker loop compensates by retrying against other victims.
func (d *deque) steal() (Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.top >= d.bottom {
		return Task{}, false
	}
	t := d.buf[d.top%len(d.buf)]
	d.top++
	return t, true
}

// grow doubles the ring buffer's backing array, preserving order.
// Called with mu held.
func (d *deque) grow() {
	next := make([]Task, len(d.buf)*2)
	for i := d.top; i < d.bottom; i++ {
		next[i%len(next)] = d.buf[i%len(d.buf)]
	}
	d.buf = next
}

// size returns the current number of queued tasks. Not safe to rely
// on for synchronization — by the time it returns, a concurrent push,
// pop, or steal may have changed it (spec.md §9 Open Question: this
// implementation makes that explicit rather than presenting size/empty
// as though they were consistent snapshots).
func (d *deque) size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bottom - d.top
}

func (d *deque) isEmpty() bool {
	return d.size() == 0
}
