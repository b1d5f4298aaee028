package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remotetouch/internal/input"
	"remotetouch/internal/sched"
)

var epoch = time.Unix(1000, 0)

func pt(id int, x, y float32) input.Pointer {
	return input.Pointer{ID: id, X: x, Y: y, Tool: input.ToolFinger}
}

func ev(s *sched.Manual, action input.Action, index int, pts ...input.Pointer) *input.MotionEvent {
	return &input.MotionEvent{Action: action, ActionIndex: index, Pointers: pts, Time: s.Now()}
}

type call struct {
	name  string
	count int
	x, y  float32
}

type tapRecorder struct{ calls []call }

func (r *tapRecorder) OnTap(n int, x, y float32)       { r.calls = append(r.calls, call{"tap", n, x, y}) }
func (r *tapRecorder) OnLongPress(n int, x, y float32) { r.calls = append(r.calls, call{"long", n, x, y}) }

func TestSwipeDetector(t *testing.T) {
	cfg := DefaultConfig(1)
	tests := []struct {
		name      string
		moveTo1   input.Pointer
		wantSwipe bool
		wantPinch bool
	}{
		{name: "same direction", moveTo1: pt(1, 100, 50), wantSwipe: true},
		{name: "opposite direction", moveTo1: pt(1, 100, -50), wantPinch: true},
		{name: "one finger within slop", moveTo1: pt(1, 101, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sched.NewManual(epoch)
			d := NewSwipeDetector(cfg)
			d.OnTouchEvent(ev(s, input.ActionDown, 0, pt(0, 0, 0)))
			d.OnTouchEvent(ev(s, input.ActionPointerDown, 1, pt(0, 0, 0), pt(1, 100, 0)))
			d.OnTouchEvent(ev(s, input.ActionMove, 0, pt(0, 0, 50), tt.moveTo1))
			assert.Equal(t, tt.wantSwipe, d.IsSwiping())
			assert.Equal(t, tt.wantPinch, d.IsPinching())
		})
	}
}

func TestSwipeDetectorStaysResolved(t *testing.T) {
	s := sched.NewManual(epoch)
	d := NewSwipeDetector(DefaultConfig(1))
	d.OnTouchEvent(ev(s, input.ActionPointerDown, 1, pt(0, 0, 0), pt(1, 100, 0)))
	d.OnTouchEvent(ev(s, input.ActionMove, 0, pt(0, 0, 50), pt(1, 100, 50)))
	require.True(t, d.IsSwiping())

	// Later divergence does not re-classify the gesture.
	d.OnTouchEvent(ev(s, input.ActionMove, 0, pt(0, 0, 100), pt(1, 100, -100)))
	assert.True(t, d.IsSwiping())

	d.OnTouchEvent(ev(s, input.ActionPointerUp, 1, pt(0, 0, 100), pt(1, 100, -100)))
	assert.False(t, d.IsSwiping())

	d.OnTouchEvent(ev(s, input.ActionMove, 0, pt(0, 0, 120)))
	assert.False(t, d.IsSwiping())
}

func TestTapDetectorSingleTap(t *testing.T) {
	s := sched.NewManual(epoch)
	r := &tapRecorder{}
	d := NewTapDetector(DefaultConfig(1), s, r)

	d.OnTouchEvent(ev(s, input.ActionDown, 0, pt(0, 30, 40)))
	s.Advance(100 * time.Millisecond)
	d.OnTouchEvent(ev(s, input.ActionUp, 0, pt(0, 30, 40)))
	s.Advance(time.Second)

	assert.Equal(t, []call{{"tap", 1, 30, 40}}, r.calls)
	assert.Zero(t, s.Pending())
}

func TestTapDetectorLongPress(t *testing.T) {
	s := sched.NewManual(epoch)
	r := &tapRecorder{}
	d := NewTapDetector(DefaultConfig(1), s, r)

	d.OnTouchEvent(ev(s, input.ActionDown, 0, pt(0, 30, 40)))
	s.Advance(399 * time.Millisecond)
	assert.Empty(t, r.calls)
	s.Advance(time.Millisecond)
	d.OnTouchEvent(ev(s, input.ActionUp, 0, pt(0, 30, 40)))

	assert.Equal(t, []call{{"long", 1, 30, 40}}, r.calls)
}

func TestTapDetectorLongPressDelay(t *testing.T) {
	s := sched.NewManual(epoch)
	r := &tapRecorder{}
	d := NewTapDetector(DefaultConfig(1), s, r)
	d.SetLongPressDelay(2)

	d.OnTouchEvent(ev(s, input.ActionDown, 0, pt(0, 0, 0)))
	s.Advance(500 * time.Millisecond)
	assert.Empty(t, r.calls)
	s.Advance(300 * time.Millisecond)
	assert.Len(t, r.calls, 1)
}

func TestTapDetectorCancelOnMove(t *testing.T) {
	s := sched.NewManual(epoch)
	r := &tapRecorder{}
	d := NewTapDetector(DefaultConfig(1), s, r)

	d.OnTouchEvent(ev(s, input.ActionDown, 0, pt(0, 30, 40)))
	d.OnTouchEvent(ev(s, input.ActionMove, 0, pt(0, 33, 42)))
	d.OnTouchEvent(ev(s, input.ActionMove, 0, pt(0, 60, 40)))
	s.Advance(time.Second)
	d.OnTouchEvent(ev(s, input.ActionUp, 0, pt(0, 60, 40)))

	assert.Empty(t, r.calls)
}

func TestTapDetectorMultiFinger(t *testing.T) {
	s := sched.NewManual(epoch)
	r := &tapRecorder{}
	d := NewTapDetector(DefaultConfig(1), s, r)

	d.OnTouchEvent(ev(s, input.ActionDown, 0, pt(0, 10, 10)))
	d.OnTouchEvent(ev(s, input.ActionPointerDown, 1, pt(0, 10, 10), pt(1, 50, 10)))
	d.OnTouchEvent(ev(s, input.ActionPointerUp, 1, pt(0, 10, 10), pt(1, 50, 10)))
	s.Advance(time.Second)
	d.OnTouchEvent(ev(s, input.ActionUp, 0, pt(0, 10, 10)))

	// The pointer-up cancelled the long press; the tap still counts both fingers.
	assert.Equal(t, []call{{"tap", 2, 10, 10}}, r.calls)
}

func TestTapDetectorCancelAction(t *testing.T) {
	s := sched.NewManual(epoch)
	r := &tapRecorder{}
	d := NewTapDetector(DefaultConfig(1), s, r)

	d.OnTouchEvent(ev(s, input.ActionDown, 0, pt(0, 10, 10)))
	d.OnTouchEvent(ev(s, input.ActionCancel, 0, pt(0, 10, 10)))
	s.Advance(time.Second)
	assert.Empty(t, r.calls)

	// An up with no down is ignored.
	d.Reset()
	d.OnTouchEvent(ev(s, input.ActionUp, 0, pt(0, 10, 10)))
	assert.Empty(t, r.calls)
}

type scrollRecorder struct {
	scrolls   [][2]float32
	doubleTap []input.Action
	confirmed int
}

func (r *scrollRecorder) OnScroll(_, _ *input.MotionEvent, dx, dy float32) {
	r.scrolls = append(r.scrolls, [2]float32{dx, dy})
}
func (r *scrollRecorder) OnDoubleTapEvent(e *input.MotionEvent)     { r.doubleTap = append(r.doubleTap, e.Action) }
func (r *scrollRecorder) OnSingleTapConfirmed(e *input.MotionEvent) { r.confirmed++ }

func TestScrollDetectorScroll(t *testing.T) {
	s := sched.NewManual(epoch)
	r := &scrollRecorder{}
	d := NewScrollDetector(DefaultConfig(1), s, r)

	d.OnTouchEvent(ev(s, input.ActionDown, 0, pt(0, 100, 100)))
	d.OnTouchEvent(ev(s, input.ActionMove, 0, pt(0, 100, 105)))
	assert.Empty(t, r.scrolls, "inside the touch slop")
	d.OnTouchEvent(ev(s, input.ActionMove, 0, pt(0, 100, 120)))
	d.OnTouchEvent(ev(s, input.ActionMove, 0, pt(0, 90, 130)))
	d.OnTouchEvent(ev(s, input.ActionMove, 0, pt(0, 90.5, 130.5)))
	d.OnTouchEvent(ev(s, input.ActionUp, 0, pt(0, 90, 130)))
	s.Advance(time.Second)

	assert.Equal(t, [][2]float32{{0, -20}, {10, -10}}, r.scrolls)
	assert.Zero(t, r.confirmed)
}

func TestScrollDetectorFocalPoint(t *testing.T) {
	s := sched.NewManual(epoch)
	r := &scrollRecorder{}
	d := NewScrollDetector(DefaultConfig(1), s, r)

	d.OnTouchEvent(ev(s, input.ActionDown, 0, pt(0, 0, 0)))
	d.OnTouchEvent(ev(s, input.ActionPointerDown, 1, pt(0, 0, 0), pt(1, 100, 0)))
	d.OnTouchEvent(ev(s, input.ActionMove, 0, pt(0, 0, 40), pt(1, 100, 40)))
	require.Len(t, r.scrolls, 1)
	assert.Equal(t, [2]float32{0, -40}, r.scrolls[0])

	// Lifting a finger moves the focus without producing a jump.
	d.OnTouchEvent(ev(s, input.ActionPointerUp, 1, pt(0, 0, 40), pt(1, 100, 40)))
	d.OnTouchEvent(ev(s, input.ActionMove, 0, pt(0, 0, 42)))
	assert.Equal(t, [2]float32{0, -2}, r.scrolls[1])
}

func TestScrollDetectorSingleTapConfirmed(t *testing.T) {
	s := sched.NewManual(epoch)
	r := &scrollRecorder{}
	d := NewScrollDetector(DefaultConfig(1), s, r)

	d.OnTouchEvent(ev(s, input.ActionDown, 0, pt(0, 10, 10)))
	s.Advance(50 * time.Millisecond)
	d.OnTouchEvent(ev(s, input.ActionUp, 0, pt(0, 10, 10)))
	assert.Zero(t, r.confirmed)
	s.Advance(300 * time.Millisecond)
	assert.Equal(t, 1, r.confirmed)

	// Held past the timeout: confirmed on the up instead.
	d.OnTouchEvent(ev(s, input.ActionDown, 0, pt(0, 10, 10)))
	s.Advance(350 * time.Millisecond)
	assert.Equal(t, 1, r.confirmed)
	d.OnTouchEvent(ev(s, input.ActionUp, 0, pt(0, 10, 10)))
	assert.Equal(t, 2, r.confirmed)
}

func TestScrollDetectorDoubleTap(t *testing.T) {
	s := sched.NewManual(epoch)
	r := &scrollRecorder{}
	d := NewScrollDetector(DefaultConfig(1), s, r)

	d.OnTouchEvent(ev(s, input.ActionDown, 0, pt(0, 10, 10)))
	s.Advance(50 * time.Millisecond)
	d.OnTouchEvent(ev(s, input.ActionUp, 0, pt(0, 10, 10)))
	s.Advance(100 * time.Millisecond)
	d.OnTouchEvent(ev(s, input.ActionDown, 0, pt(0, 20, 20)))
	d.OnTouchEvent(ev(s, input.ActionMove, 0, pt(0, 40, 20)))
	d.OnTouchEvent(ev(s, input.ActionUp, 0, pt(0, 40, 20)))
	s.Advance(time.Second)

	assert.Equal(t, []input.Action{input.ActionDown, input.ActionMove, input.ActionUp}, r.doubleTap)
	assert.Zero(t, r.confirmed)
	assert.Empty(t, r.scrolls)
}

func TestScrollDetectorDoubleTapTooSlow(t *testing.T) {
	s := sched.NewManual(epoch)
	r := &scrollRecorder{}
	d := NewScrollDetector(DefaultConfig(1), s, r)

	d.OnTouchEvent(ev(s, input.ActionDown, 0, pt(0, 10, 10)))
	d.OnTouchEvent(ev(s, input.ActionUp, 0, pt(0, 10, 10)))
	s.Advance(400 * time.Millisecond)
	d.OnTouchEvent(ev(s, input.ActionDown, 0, pt(0, 10, 10)))
	d.OnTouchEvent(ev(s, input.ActionUp, 0, pt(0, 10, 10)))
	s.Advance(time.Second)

	assert.Empty(t, r.doubleTap)
	assert.Equal(t, 2, r.confirmed)
}
