package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLifecycleHappyPath(t *testing.T) {
	r := New("r1", "A", "C", Stretcher, false)
	assert.Equal(t, Pending, r.Status())
	assert.True(t, r.IsReassignable())

	r.MarkOngoing("W")
	assert.Equal(t, Ongoing, r.Status())
	assert.Equal(t, "W", r.Assignee())
	assert.True(t, r.IsReassignable(), "not yet departed, still reassignable")

	r.MarkDeparted()
	assert.False(t, r.IsReassignable(), "pinned once departed")

	r.MarkCompleted()
	assert.Equal(t, Completed, r.Status())
	assert.True(t, r.IsTerminal())
}

func TestTerminalStatesNeverRegress(t *testing.T) {
	r := New("r1", "A", "C", Bed, true)
	r.MarkOngoing("W")
	r.MarkCompleted()

	r.MarkCancelled()
	assert.Equal(t, Completed, r.Status(), "cancel must not override completed")

	r.MarkOngoing("X")
	assert.Equal(t, Completed, r.Status(), "ongoing must not regress a terminal state")
}

func TestCancelledIsAbsorbing(t *testing.T) {
	r := New("r1", "A", "C", Wheelchair, false)
	r.MarkCancelled()
	assert.True(t, r.IsTerminal())
	assert.False(t, r.IsReassignable())

	r.MarkOngoing("W")
	assert.Equal(t, Cancelled, r.Status())
}
