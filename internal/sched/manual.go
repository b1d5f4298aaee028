package sched

import (
	"sort"
	"time"
)

// Manual is a Scheduler driven by an explicit clock. Tasks only run from
// Advance, which makes timer-dependent gestures deterministic in tests.
type Manual struct {
	now   time.Time
	next  Handle
	tasks []manualTask
}

type manualTask struct {
	h  Handle
	at time.Time
	fn func()
}

// NewManual returns a scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, fn func()) Handle {
	m.next++
	m.tasks = append(m.tasks, manualTask{h: m.next, at: m.now.Add(d), fn: fn})
	return m.next
}

func (m *Manual) Cancel(h Handle) {
	for i, t := range m.tasks {
		if t.h == h {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return
		}
	}
}

// Pending reports how many tasks are waiting to fire.
func (m *Manual) Pending() int {
	return len(m.tasks)
}

// Advance moves the clock forward by d, running every task that becomes due
// in deadline order. Tasks scheduled by a running task are honoured if they
// fall inside the window.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		sort.SliceStable(m.tasks, func(i, j int) bool {
			return m.tasks[i].at.Before(m.tasks[j].at)
		})
		if len(m.tasks) == 0 || m.tasks[0].at.After(target) {
			break
		}
		t := m.tasks[0]
		m.tasks = m.tasks[1:]
		m.now = t.at
		t.fn()
	}
	m.now = target
}
