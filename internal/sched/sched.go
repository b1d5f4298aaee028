// Package sched provides the deferred, cancellable callbacks used by the
// gesture detectors. Callbacks run serialized with event dispatch, and a
// cancelled task never fires.
package sched

import (
	"sync"
	"time"
)

// Handle identifies a scheduled task. The zero Handle is never issued, so
// it can be used as "nothing pending".
type Handle uint64

// Scheduler schedules callbacks on the dispatch loop.
type Scheduler interface {
	Now() time.Time
	// AfterFunc runs fn after d unless the returned handle is cancelled first.
	AfterFunc(d time.Duration, fn func()) Handle
	// Cancel drops a pending task. Cancelling a fired or unknown task is a no-op.
	Cancel(h Handle)
}

// Loop serializes event dispatch and timer callbacks behind one mutex.
// Event producers call Do; timers fire through the same lock and check that
// their task is still pending before running.
type Loop struct {
	mu      sync.Mutex
	next    Handle
	pending map[Handle]*time.Timer
}

// NewLoop creates an empty dispatch loop.
func NewLoop() *Loop {
	return &Loop{pending: make(map[Handle]*time.Timer)}
}

// Do runs fn on the loop. AfterFunc and Cancel must only be called from
// inside Do or from a task callback.
func (l *Loop) Do(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn()
}

func (l *Loop) Now() time.Time {
	return time.Now()
}

func (l *Loop) AfterFunc(d time.Duration, fn func()) Handle {
	l.next++
	h := l.next
	l.pending[h] = time.AfterFunc(d, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.pending[h]; !ok {
			return
		}
		delete(l.pending, h)
		fn()
	})
	return h
}

func (l *Loop) Cancel(h Handle) {
	if t, ok := l.pending[h]; ok {
		t.Stop()
		delete(l.pending, h)
	}
}

// Close stops every pending timer.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for h, t := range l.pending {
		t.Stop()
		delete(l.pending, h)
	}
}
