package taskgraph

import "errors"

// Sentinel errors for the recoverable failure kinds described in the
// task core's error model. Arena exhaustion and post-after-stop are
// not in this list: they are routed through the out-of-task handler
// and are fatal by default (see WithOutOfTaskHandler).
var (
	// ErrParentGone is returned by MakeTaskWithParent when the parent
	// task handle has already completed.
	ErrParentGone = errors.New("taskgraph: parent task has already completed")

	// ErrUnbound is returned by Visit/VisitAsync when the bound
	// object's scheduler pointer has been cleared by Unbind.
	ErrUnbound = errors.New("taskgraph: bound object has no active scheduler")

	// ErrNoActiveScheduler is the value the thisscheduler helpers panic
	// with when no scheduler is bound to the calling goroutine.
	ErrNoActiveScheduler = errors.New("taskgraph: no active scheduler on this goroutine")

	// ErrStaleHandle names the condition of a task handle whose arena
	// slot has been reused since the handle was taken. No function in
	// this package returns it: TaskHandle reports staleness through
	// Valid, and its Completed/Available observers fold a stale handle
	// into a fixed bool answer.
	ErrStaleHandle = errors.New("taskgraph: task handle refers to a reused arena slot")
)

// OutOfTaskHandler is invoked when a task arena cannot satisfy an
// allocation without overwriting a task that is still live, or when
// post_task is attempted after Stop. Both conditions are programmer
// errors in the reference design; the default handler panics.
type OutOfTaskHandler func(err error)

// ErrArenaExhausted is passed to the out-of-task handler when the
// arena's ring would overwrite a slot still referenced by a live task.
var ErrArenaExhausted = errors.New("taskgraph: task arena exhausted")

// ErrPostAfterStop is passed to the out-of-task handler when PostTask
// is called on a scheduler whose running flag has already been cleared.
var ErrPostAfterStop = errors.New("taskgraph: post_task after stop")

// ErrOwnerViolation is passed to the out-of-task handler when a
// goroutine other than the one that constructed a ConcurrentScheduler
// calls its Run or Stop. Only checked when the scheduler was built
// with WithStrictOwnerChecks; SerialScheduler never checks it.
var ErrOwnerViolation = errors.New("taskgraph: run/stop/close called from non-owning goroutine")

var defaultOutOfTaskHandler OutOfTaskHandler = func(err error) {
	panic(err)
}
