package taskgraph

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type SerialSchedulerTestSuite struct {
	suite.Suite
}

func TestSerialSchedulerTestSuite(t *testing.T) {
	suite.Run(t, new(SerialSchedulerTestSuite))
}

// S2 — Serial ordering: 5 tasks pushing 1..5 into a slice from one
// thread must produce [1,2,3,4,5] regardless of which goroutine
// services them.
func (ts *SerialSchedulerTestSuite) TestS2SerialOrdering() {
	s := NewSerialScheduler()
	defer s.Stop()

	var got []int
	handles := make([]TaskHandle, 5)
	for i := 1; i <= 5; i++ {
		i := i
		t := MakeTask(func() { got = append(got, i) })
		handles[i-1] = t.Handle()
		s.PostTask(t)
	}
	s.Wait(handles[len(handles)-1])

	ts.Equal([]int{1, 2, 3, 4, 5}, got)
}

// S3 — Help-while-unavailable: on a single-worker scheduler, the main
// goroutine posts task A, whose body posts child task B; a second
// goroutine then waits on A. Wait must return without deadlocking,
// with B run (by the waiting goroutine or the worker) and A completed.
func (ts *SerialSchedulerTestSuite) TestS3HelpWhileUnavailable() {
	s := NewSerialScheduler()
	defer s.Stop()

	var bRan atomic.Bool
	var a Task
	a = MakeTask(func() {
		b, err := MakeTaskWithParent(a.Handle(), func() { bRan.Store(true) })
		ts.Require().NoError(err)
		s.PostTask(b)
	})

	s.PostTask(a)

	done := make(chan struct{})
	go func() {
		s.Wait(a.Handle())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		ts.Fail("Wait deadlocked instead of helping execute the child")
	}

	ts.True(bRan.Load())
	ts.True(a.Completed())
}

func (ts *SerialSchedulerTestSuite) TestWaitOnAlreadyCompletedHandleReturnsImmediately() {
	s := NewSerialScheduler()
	defer s.Stop()

	t := MakeTask(func() {})
	s.PostTask(t)
	s.Wait(t.Handle())
	ts.True(t.Completed())

	done := make(chan struct{})
	go func() {
		s.Wait(t.Handle())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		ts.Fail("Wait on a completed handle should return immediately")
	}
}

func (ts *SerialSchedulerTestSuite) TestStopIsIdempotent() {
	s := NewSerialScheduler()
	s.Stop()
	ts.NotPanics(func() { s.Stop() })
}

func (ts *SerialSchedulerTestSuite) TestPostAfterStopInvokesHandler() {
	var gotErr error
	s := NewSerialScheduler(WithOutOfTaskHandler(func(err error) { gotErr = err }))
	s.Stop()

	s.PostTask(MakeTask(func() {}))
	ts.ErrorIs(gotErr, ErrPostAfterStop)
}
