package taskgraph

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type PostTestSuite struct {
	suite.Suite
}

func TestPostTestSuite(t *testing.T) {
	suite.Run(t, new(PostTestSuite))
}

func (ts *PostTestSuite) TestPostAndWaitReturnsResult() {
	s := NewSerialScheduler()
	defer s.Stop()

	result := PostAndWait(s, func() int { return 6 * 7 })
	ts.Equal(42, result)
}

func (ts *PostTestSuite) TestPostReturnsPollableHandle() {
	s := NewSerialScheduler()
	defer s.Stop()

	h := Post(s, func() int { return 1 })
	s.Wait(h)
	ts.True(h.Completed())
}

func (ts *PostTestSuite) TestPostWithParentPropagatesParentGone() {
	s := NewSerialScheduler()
	defer s.Stop()

	parentTask := MakeTask(func() {})
	parentTask.Execute()

	_, err := PostWithParent(s, parentTask.Handle(), func() int { return 0 })
	ts.ErrorIs(err, ErrParentGone)
}

func (ts *PostTestSuite) TestPostAndWaitWithParent() {
	s := NewSerialScheduler()
	defer s.Stop()

	parentTask := MakeTask(func() {})

	result, err := PostAndWaitWithParent(s, parentTask.Handle(), func() int { return 99 })
	ts.Require().NoError(err)
	ts.Equal(99, result)
}
