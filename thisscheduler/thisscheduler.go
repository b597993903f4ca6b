// Package thisscheduler forwards to whatever scheduler is active on
// the calling goroutine — the this_scheduler helper namespace of
// spec.md §4.F. A goroutine has an active scheduler only while it is
// one of a scheduler's workers (including the goroutine executing the
// function passed to ConcurrentScheduler.Run). Calling any function
// here with no active scheduler panics with taskgraph.ErrNoActiveScheduler,
// matching the reference design's documented fatal error.
package thisscheduler

import "github.com/go-foundations/taskgraph"

// active returns the calling goroutine's bound scheduler, panicking
// if none is active.
func active() taskgraph.Scheduler {
	s, ok := taskgraph.ActiveScheduler()
	if !ok {
		panic(taskgraph.ErrNoActiveScheduler)
	}
	return s
}

// PostTask posts an already-created task to the calling goroutine's
// active scheduler.
func PostTask(t taskgraph.Task) {
	active().PostTask(t)
}

// Post creates a task invoking fn and posts it to the calling
// goroutine's active scheduler.
func Post[R any](fn func() R) taskgraph.TaskHandle {
	return taskgraph.Post(active(), fn)
}

// PostAndWait creates a task invoking fn, posts it to the calling
// goroutine's active scheduler, and blocks for its result.
func PostAndWait[R any](fn func() R) R {
	return taskgraph.PostAndWait(active(), fn)
}

// Wait runs the help-while-unavailable loop on the calling goroutine's
// active scheduler until h completes.
func Wait(h taskgraph.TaskHandle) {
	active().Wait(h)
}

// Bind binds obj to the calling goroutine's active scheduler, which
// must be a *taskgraph.SerialScheduler (taskgraph.BindableScheduler).
// Panics (via a failed type assertion) if the active scheduler is a
// ConcurrentScheduler — binding is restricted to serial schedulers,
// see taskgraph.Bind.
func Bind[T any](obj *T) *taskgraph.BoundObject[T] {
	return taskgraph.Bind(active().(taskgraph.BindableScheduler), obj)
}
