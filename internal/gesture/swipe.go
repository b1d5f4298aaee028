package gesture

import (
	"gioui.org/f32"

	"remotetouch/internal/input"
)

type swipeState int

const (
	swipeUnknown swipeState = iota
	swipeTracking
	swipeResolvedSwipe
	swipeResolvedPinch
)

// SwipeDetector tells a two-finger swipe (fingers moving the same way) from
// a pinch (fingers moving apart or together).
type SwipeDetector struct {
	slopSquare float32

	state  swipeState
	start0 f32.Point
	start1 f32.Point
}

func NewSwipeDetector(cfg Config) *SwipeDetector {
	return &SwipeDetector{slopSquare: cfg.TouchSlop * cfg.TouchSlop}
}

// IsSwiping reports whether the current two-finger gesture resolved as a swipe.
func (d *SwipeDetector) IsSwiping() bool {
	return d.state == swipeResolvedSwipe
}

// IsPinching reports whether the current two-finger gesture resolved as a pinch.
func (d *SwipeDetector) IsPinching() bool {
	return d.state == swipeResolvedPinch
}

// OnTouchEvent feeds the next event of the gesture.
func (d *SwipeDetector) OnTouchEvent(e *input.MotionEvent) {
	if e.PointerCount() != 2 {
		d.Reset()
		return
	}

	switch e.Action {
	case input.ActionPointerDown, input.ActionMove:
		if d.state == swipeUnknown {
			d.start0 = f32.Pt(e.Pointers[0].X, e.Pointers[0].Y)
			d.start1 = f32.Pt(e.Pointers[1].X, e.Pointers[1].Y)
			d.state = swipeTracking
			return
		}
		if d.state != swipeTracking || e.Action != input.ActionMove {
			return
		}
		d0 := f32.Pt(e.Pointers[0].X, e.Pointers[0].Y).Sub(d.start0)
		d1 := f32.Pt(e.Pointers[1].X, e.Pointers[1].Y).Sub(d.start1)
		// Both fingers have to leave the slop; a single finger moving is
		// not enough to call the gesture either way.
		if lengthSquared(d0) <= d.slopSquare || lengthSquared(d1) <= d.slopSquare {
			return
		}
		if d0.X*d1.X+d0.Y*d1.Y > 0 {
			d.state = swipeResolvedSwipe
		} else {
			d.state = swipeResolvedPinch
		}
	default:
		d.Reset()
	}
}

// Reset forgets the current gesture.
func (d *SwipeDetector) Reset() {
	d.state = swipeUnknown
}

func lengthSquared(p f32.Point) float32 {
	return p.X*p.X + p.Y*p.Y
}
