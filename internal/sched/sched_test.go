package sched

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualRunsTasksInOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var got []string
	m.AfterFunc(30*time.Millisecond, func() { got = append(got, "b") })
	m.AfterFunc(10*time.Millisecond, func() { got = append(got, "a") })

	m.Advance(20 * time.Millisecond)
	assert.Equal(t, []string{"a"}, got)
	m.Advance(20 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, time.Unix(0, 0).Add(40*time.Millisecond), m.Now())
}

func TestManualCancel(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	fired := false
	h := m.AfterFunc(time.Millisecond, func() { fired = true })
	m.Cancel(h)
	m.Cancel(h)
	m.Cancel(0)
	m.Advance(time.Second)
	assert.False(t, fired)
	assert.Zero(t, m.Pending())
}

func TestLoopCancelBeforeFire(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	var mu sync.Mutex
	fired := false
	l.Do(func() {
		h := l.AfterFunc(5*time.Millisecond, func() {
			mu.Lock()
			fired = true
			mu.Unlock()
		})
		l.Cancel(h)
	})
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, fired)
}

func TestLoopFiresOnLoop(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	done := make(chan struct{})
	l.Do(func() {
		l.AfterFunc(time.Millisecond, func() { close(done) })
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "task did not fire")
	}

	// Cancelling a task that already fired must be harmless.
	l.Do(func() { l.Cancel(1) })
}
