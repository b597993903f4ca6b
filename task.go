package taskgraph

import (
	"sync/atomic"
)

// sizeOfCacheLine is verified against the actual platform cache line
// size by Test_sizeOfCacheLine; sizeOfAtomicInt32 is the size of the
// atomic.Int32 it pads around. 128 covers
// both the common 64-byte x86-64 line and the 128-byte line Apple
// Silicon and other ARM64 parts use.
const (
	sizeOfCacheLine   = 128
	sizeOfAtomicInt32 = 4
)

// taskSlot is the storage a Task and TaskHandle both point into. It
// lives inside an arena's ring buffer; its address is stable only
// until the arena wraps past it (see arena.alloc). unfinished is the
// only field touched by more than one goroutine after allocation
// (§4.C: workers CAS/Add it from workCycle and completeOne on any
// goroutine that finishes a child); fn/parent/gen are written once at
// MakeTask time and read-only thereafter. Padding isolates unfinished
// onto its own cache line so a neighboring slot's unrelated CAS
// traffic can't bounce this slot's read-mostly fields out of cache —
// the same shape as the reference design's fixed task layout, applied
// to just the contended field rather than the whole slot.
type taskSlot struct {
	fn     func()
	parent *taskSlot
	gen    uint64

	_          [sizeOfCacheLine]byte
	unfinished atomic.Int32
	_          [sizeOfCacheLine - sizeOfAtomicInt32]byte
}

// available reports whether the body has not yet run and every child
// spawned from this slot has completed: unfinished == 1.
func (s *taskSlot) available() bool {
	return s.unfinished.Load() == 1
}

// completed reports whether unfinished has reached zero.
func (s *taskSlot) completed() bool {
	return s.unfinished.Load() == 0
}

// execute runs fn exactly once, then propagates completion up the
// parent chain. Precondition: available() held at the time of the
// call — the worker loop enforces this by requeuing tasks it finds
// unavailable rather than ever calling execute on them (spec §4.C).
func (s *taskSlot) execute() {
	s.fn()
	s.completeOne()
}

// completeOne decrements the slot's own unfinished counter by one —
// either "my body just ran" or "one of my children just finished" —
// and, if that was the last outstanding unit, recurses into the
// parent. There is no explicit child list (design note §9);
// completion propagates purely through back-pointers.
func (s *taskSlot) completeOne() {
	if s.unfinished.Add(-1) == 0 && s.parent != nil {
		s.parent.completeOne()
	}
}

// addChild attempts to register a new child against s, returning
// ErrParentGone if s has already completed. The CAS loop closes a
// race where s completes concurrently between the liveness check and
// the increment.
func (s *taskSlot) addChild() error {
	for {
		cur := s.unfinished.Load()
		if cur == 0 {
			return ErrParentGone
		}
		if s.unfinished.CompareAndSwap(cur, cur+1) {
			return nil
		}
	}
}

// Task is a unit of deferred computation with an optional parent
// completion dependency. It is a small value wrapping a pointer into
// an arena slot — copying a Task never copies the underlying state,
// matching the reference design's task, which wraps a pointer to
// task_storage rather than embedding it by value.
type Task struct {
	slot *taskSlot
}

// Handle returns a non-owning observer for t, valid until t's arena
// slot is reused.
func (t Task) Handle() TaskHandle {
	return TaskHandle{slot: t.slot, gen: t.slot.gen}
}

// Execute runs t's body exactly once and propagates completion to its
// ancestors. See taskSlot.execute for the precondition.
func (t Task) Execute() {
	t.slot.execute()
}

// Completed reports whether t's body has run and every child of t has
// completed.
func (t Task) Completed() bool {
	return t.slot.completed()
}

// Available reports whether t is ready to run: its body has not yet
// executed and every child has completed.
func (t Task) Available() bool {
	return t.slot.available()
}

// TaskHandle is a non-owning, copyable observer into a Task's arena
// slot — the generational handle described in design note §9. Valid
// reports whether the slot still holds the Task this handle was taken
// from, guarding against the arena ring having wrapped past it.
type TaskHandle struct {
	slot *taskSlot
	gen  uint64
}

// Valid reports whether the arena slot this handle refers to has not
// been reused since the handle was taken.
func (h TaskHandle) Valid() bool {
	return h.slot != nil && h.slot.gen == h.gen
}

// Completed reports whether the referenced task has completed. A
// stale handle (Valid() == false) is reported completed: the arena's
// exhaustion check never reuses a slot while its occupant is still
// incomplete, so a reused slot implies the original task finished.
func (h TaskHandle) Completed() bool {
	if h.slot == nil {
		return true
	}
	if !h.Valid() {
		return true
	}
	return h.slot.completed()
}

// Available reports whether the referenced task is ready to execute.
// A stale handle is reported unavailable.
func (h TaskHandle) Available() bool {
	if h.slot == nil || !h.Valid() {
		return false
	}
	return h.slot.available()
}
