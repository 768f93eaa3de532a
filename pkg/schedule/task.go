package schedule

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Task is a single cancellable delayed call. Scheduling an already pending
// task replaces the previous deadline.
type Task struct {
	clock clockwork.Clock
	fn    func()

	mu    sync.Mutex
	timer clockwork.Timer
	gen   uint64
}

func NewTask(clock clockwork.Clock, fn func()) *Task {
	return &Task{
		clock: clock,
		fn:    fn,
	}
}

func (t *Task) Schedule(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	gen := t.gen
	t.timer = t.clock.AfterFunc(d, func() {
		t.fire(gen)
	})
}

// Cancel stops the pending call. It reports whether a call was pending.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	pending := t.timer != nil
	t.stopLocked()
	t.gen++

	return pending
}

func (t *Task) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.timer != nil
}

func (t *Task) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Task) fire(gen uint64) {
	t.mu.Lock()
	// a stale timer may still fire after Cancel or a newer Schedule
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.mu.Unlock()

	t.fn()
}

// Group owns the tasks of one component so they can be cancelled together.
type Group struct {
	clock clockwork.Clock

	mu     sync.Mutex
	tasks  []*Task
	closed bool
}

func NewGroup(clock clockwork.Clock) *Group {
	return &Group{clock: clock}
}

func (g *Group) NewTask(fn func()) *Task {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := NewTask(g.clock, func() {
		if g.isClosed() {
			return
		}
		fn()
	})
	g.tasks = append(g.tasks, t)

	return t
}

// After schedules a one-off call owned by the group.
func (g *Group) After(d time.Duration, fn func()) *Task {
	t := g.NewTask(fn)
	t.Schedule(d)

	return t
}

// Close cancels every task. Tasks created from a closed group never run.
func (g *Group) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.cancelAll()
}

func (g *Group) cancelAll() {
	g.mu.Lock()
	tasks := g.tasks
	g.mu.Unlock()

	for _, t := range tasks {
		t.Cancel()
	}
}

func (g *Group) isClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.closed
}
