package schedule

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

const (
	waitFor = time.Second
	tick    = time.Millisecond
	quiet   = 50 * time.Millisecond
)

func TestTaskFiresAfterDelay(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	task := NewTask(clock, func() { calls.Add(1) })

	task.Schedule(3 * time.Second)
	assert.True(t, task.Pending())

	clock.Advance(2 * time.Second)
	assert.Never(t, func() bool { return calls.Load() > 0 }, quiet, tick)

	clock.Advance(time.Second)
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, waitFor, tick)
	assert.Eventually(t, func() bool { return !task.Pending() }, waitFor, tick)
}

func TestTaskRescheduleMovesDeadline(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	task := NewTask(clock, func() { calls.Add(1) })

	task.Schedule(3 * time.Second)
	clock.Advance(2 * time.Second)
	task.Schedule(3 * time.Second)

	clock.Advance(2 * time.Second)
	assert.Never(t, func() bool { return calls.Load() > 0 }, quiet, tick)

	clock.Advance(time.Second)
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, waitFor, tick)
}

func TestTaskCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	task := NewTask(clock, func() { calls.Add(1) })

	assert.False(t, task.Cancel(), "nothing pending yet")

	task.Schedule(time.Second)
	assert.True(t, task.Cancel())
	assert.False(t, task.Pending())

	clock.Advance(5 * time.Second)
	assert.Never(t, func() bool { return calls.Load() > 0 }, quiet, tick)
}

func TestGroupCloseCancelsEverything(t *testing.T) {
	clock := clockwork.NewFakeClock()
	group := NewGroup(clock)
	var calls atomic.Int32

	group.After(time.Second, func() { calls.Add(1) })
	task := group.NewTask(func() { calls.Add(1) })
	task.Schedule(2 * time.Second)

	group.Close()
	assert.False(t, task.Pending())

	task.Schedule(time.Second)
	clock.Advance(3 * time.Second)
	assert.Never(t, func() bool { return calls.Load() > 0 }, quiet, tick)
}

func TestGroupAfterRuns(t *testing.T) {
	clock := clockwork.NewFakeClock()
	group := NewGroup(clock)
	done := make(chan struct{})

	group.After(500*time.Millisecond, func() { close(done) })
	clock.Advance(500 * time.Millisecond)

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("task did not run")
	}
}
