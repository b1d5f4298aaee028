package gesture

import (
	"time"

	"gioui.org/f32"

	"remotetouch/internal/input"
	"remotetouch/internal/sched"
)

// TapListener receives the results of a TapDetector. Coordinates are the
// view-space position of the first pointer when the gesture started.
type TapListener interface {
	OnTap(pointerCount int, x, y float32)
	OnLongPress(pointerCount int, x, y float32)
}

// TapDetector recognizes taps and long presses made with any number of
// fingers. The pointer count reported is the largest number of fingers that
// were down at once during the gesture.
type TapDetector struct {
	listener   TapListener
	sched      sched.Scheduler
	slopSquare float32

	longPressTimeout time.Duration
	delayMultiplier  float32

	initialPositions map[int]f32.Point
	pointerCount     int
	initialPoint     *f32.Point
	tapCancelled     bool
	longPress        sched.Handle
}

func NewTapDetector(cfg Config, s sched.Scheduler, l TapListener) *TapDetector {
	return &TapDetector{
		listener:         l,
		sched:            s,
		slopSquare:       cfg.TouchSlop * cfg.TouchSlop,
		longPressTimeout: cfg.LongPressTimeout,
		delayMultiplier:  1,
		initialPositions: make(map[int]f32.Point),
	}
}

// SetLongPressDelay scales the long-press timeout. Values <= 0 restore the
// platform default.
func (d *TapDetector) SetLongPressDelay(multiplier float32) {
	if multiplier <= 0 {
		multiplier = 1
	}
	d.delayMultiplier = multiplier
}

// OnTouchEvent feeds the next event of the gesture.
func (d *TapDetector) OnTouchEvent(e *input.MotionEvent) {
	switch e.Action {
	case input.ActionDown:
		d.Reset()
		d.trackDown(e)
	case input.ActionPointerDown:
		d.trackDown(e)
	case input.ActionMove:
		if !d.tapCancelled && d.movedBeyondSlop(e) {
			d.cancelLongPress()
			d.tapCancelled = true
		}
	case input.ActionUp:
		d.cancelLongPress()
		if !d.tapCancelled && d.initialPoint != nil {
			d.listener.OnTap(d.pointerCount, d.initialPoint.X, d.initialPoint.Y)
		}
		d.Reset()
	case input.ActionPointerUp:
		// Lifting any finger ends long-press eligibility.
		d.cancelLongPress()
		if p, ok := e.ActionPointer(); ok {
			delete(d.initialPositions, p.ID)
		}
	case input.ActionCancel:
		d.cancelLongPress()
	}
}

// Reset drops all tracking state and any pending long press.
func (d *TapDetector) Reset() {
	d.cancelLongPress()
	for id := range d.initialPositions {
		delete(d.initialPositions, id)
	}
	d.pointerCount = 0
	d.initialPoint = nil
	d.tapCancelled = false
}

func (d *TapDetector) trackDown(e *input.MotionEvent) {
	p, ok := e.ActionPointer()
	if !ok {
		return
	}
	pos := f32.Pt(p.X, p.Y)
	if d.initialPoint == nil && e.Action == input.ActionDown {
		d.initialPoint = &pos
		d.startLongPress()
	}
	if n := e.PointerCount(); n > d.pointerCount {
		d.pointerCount = n
	}
	d.initialPositions[p.ID] = pos
}

func (d *TapDetector) movedBeyondSlop(e *input.MotionEvent) bool {
	for _, p := range e.Pointers {
		start, ok := d.initialPositions[p.ID]
		if !ok {
			// A pointer we never saw go down; take this sample as its start.
			d.initialPositions[p.ID] = f32.Pt(p.X, p.Y)
			continue
		}
		if lengthSquared(f32.Pt(p.X, p.Y).Sub(start)) > d.slopSquare {
			return true
		}
	}
	return false
}

func (d *TapDetector) startLongPress() {
	delay := time.Duration(float32(d.longPressTimeout) * d.delayMultiplier)
	d.longPress = d.sched.AfterFunc(delay, d.fireLongPress)
}

func (d *TapDetector) cancelLongPress() {
	if d.longPress != 0 {
		d.sched.Cancel(d.longPress)
		d.longPress = 0
	}
}

func (d *TapDetector) fireLongPress() {
	d.longPress = 0
	if d.initialPoint == nil {
		return
	}
	p := *d.initialPoint
	// The trailing up must not also produce a tap.
	d.tapCancelled = true
	d.initialPoint = nil
	d.listener.OnLongPress(d.pointerCount, p.X, p.Y)
}
