package taskgraph

import "sync"

// BindableScheduler is implemented only by *SerialScheduler. Binding
// confines access to a value to a single scheduler so interior
// mutation needs no lock at the call site (spec.md §4.G) — a
// guarantee that only holds if every visit to the bound value runs on
// one goroutine in FIFO order, which ConcurrentScheduler's work
// stealing cannot promise. The reference design leaves this
// restriction to caller discipline (§9 Open Question); this rewrite
// closes it at the type level instead.
type BindableScheduler interface {
	Scheduler
	serialOnly()
}

func (s *SerialScheduler) serialOnly() {}

// BoundObject confines access to a *T to the scheduler it was bound
// on. Each BoundObject holds its own binding state (there is no shared
// header between bindings): several BoundObjects may wrap the same
// object, and Unbind on one of them leaves the others bound.
type BoundObject[T any] struct {
	mu        sync.Mutex
	scheduler BindableScheduler
	obj       *T
}

// Bind creates a binding bound to s, confining access to obj to s's
// worker goroutine. obj's lifetime remains the caller's responsibility.
func Bind[T any](s BindableScheduler, obj *T) *BoundObject[T] {
	return &BoundObject[T]{scheduler: s, obj: obj}
}

// VisitAsync posts fn(obj) to the binding's scheduler and returns
// immediately without waiting for fn to run. Once Unbind has cleared
// the scheduler it posts nothing and returns ErrUnbound.
func (b *BoundObject[T]) VisitAsync(fn func(*T)) error {
	b.mu.Lock()
	s, obj := b.scheduler, b.obj
	b.mu.Unlock()
	if s == nil {
		return ErrUnbound
	}
	t := MakeTask(func() { fn(obj) })
	s.PostTask(t)
	return nil
}

// Visit posts fn(obj) to the binding's scheduler and blocks for its
// result via the scheduler's post-and-wait path.
func Visit[T any, R any](b *BoundObject[T], fn func(*T) R) (R, error) {
	b.mu.Lock()
	s, obj := b.scheduler, b.obj
	b.mu.Unlock()
	var zero R
	if s == nil {
		return zero, ErrUnbound
	}
	return PostAndWait(s, func() R { return fn(obj) }), nil
}

// Unbind atomically clears the binding's scheduler pointer. Future
// VisitAsync/Visit calls fail with ErrUnbound.
func (b *BoundObject[T]) Unbind() {
	b.mu.Lock()
	b.scheduler = nil
	b.mu.Unlock()
}
