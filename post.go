package taskgraph

// Post creates a task invoking fn and posts it to s, returning a
// handle observers can poll or Wait on. Go methods cannot be generic,
// so this mirrors the reference design's free-function post<Fn,Args...>
// overloads rather than a Scheduler.Post method.
func Post[R any](s Scheduler, fn func() R) TaskHandle {
	return PostWithResult(s, fn, nil)
}

// PostWithResult creates a task invoking fn, writes its result into
// *out if out is non-nil, and posts it to s.
func PostWithResult[R any](s Scheduler, fn func() R, out *R) TaskHandle {
	t := MakeTask(func() {
		r := fn()
		if out != nil {
			*out = r
		}
	})
	s.PostTask(t)
	return t.Handle()
}

// PostWithParent creates a task invoking fn as a child of parent and
// posts it to s. Returns ErrParentGone if parent has already completed.
func PostWithParent[R any](s Scheduler, parent TaskHandle, fn func() R) (TaskHandle, error) {
	t, err := MakeTaskWithParent(parent, func() { fn() })
	if err != nil {
		return TaskHandle{}, err
	}
	s.PostTask(t)
	return t.Handle(), nil
}

// PostAndWait creates a task invoking fn, posts it to s, and blocks
// (via s.Wait, the help-while-unavailable loop) until it completes,
// returning fn's result. This is the free-function post_and_wait
// overload of the reference design, made possible in Go only as a
// package-level generic function.
func PostAndWait[R any](s Scheduler, fn func() R) R {
	var result R
	t := MakeTask(func() { result = fn() })
	s.PostTask(t)
	s.Wait(t.Handle())
	return result
}

// PostAndWaitWithParent is PostAndWait's parent-aware counterpart.
func PostAndWaitWithParent[R any](s Scheduler, parent TaskHandle, fn func() R) (R, error) {
	var result R
	t, err := MakeTaskWithParent(parent, func() { result = fn() })
	if err != nil {
		return result, err
	}
	s.PostTask(t)
	s.Wait(t.Handle())
	return result, nil
}
