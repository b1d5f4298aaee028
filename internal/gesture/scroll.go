package gesture

import (
	"gioui.org/f32"

	"remotetouch/internal/input"
	"remotetouch/internal/sched"
)

// ScrollListener receives the results of a ScrollDetector.
type ScrollListener interface {
	// OnScroll reports focal-point movement since the previous call. The
	// distances are previous minus current, so dragging down gives a
	// negative distanceY. first is the down event that started the gesture.
	OnScroll(first, current *input.MotionEvent, distanceX, distanceY float32)
	// OnDoubleTapEvent receives the second down of a double tap and every
	// following event up to and including its up.
	OnDoubleTapEvent(e *input.MotionEvent)
	// OnSingleTapConfirmed fires once a tap can no longer become a double tap.
	OnSingleTapConfirmed(e *input.MotionEvent)
}

// ScrollDetector tracks the focal point of all pointers to report scrolls,
// and recognizes double taps and confirmed single taps.
type ScrollDetector struct {
	listener ScrollListener
	sched    sched.Scheduler
	cfg      Config

	touchSlopSquare     float32
	doubleTapSlopSquare float32

	currentDown *input.MotionEvent
	previousUp  *input.MotionEvent
	downFocus   f32.Point
	lastFocus   f32.Point

	stillDown             bool
	inTapRegion           bool
	inBiggerTapRegion     bool
	doubleTapping         bool
	deferConfirmSingleTap bool

	tap sched.Handle
}

func NewScrollDetector(cfg Config, s sched.Scheduler, l ScrollListener) *ScrollDetector {
	return &ScrollDetector{
		listener:            l,
		sched:               s,
		cfg:                 cfg,
		touchSlopSquare:     cfg.TouchSlop * cfg.TouchSlop,
		doubleTapSlopSquare: cfg.DoubleTapSlop * cfg.DoubleTapSlop,
	}
}

// OnTouchEvent feeds the next event of the gesture.
func (d *ScrollDetector) OnTouchEvent(e *input.MotionEvent) {
	focus := focalPoint(e)

	switch e.Action {
	case input.ActionPointerDown:
		d.downFocus, d.lastFocus = focus, focus
		d.cancelTaps()

	case input.ActionPointerUp:
		d.downFocus, d.lastFocus = focus, focus

	case input.ActionDown:
		hadTap := d.tap != 0
		d.cancelTap()
		if d.currentDown != nil && d.previousUp != nil && hadTap && d.isConsideredDoubleTap(e) {
			d.doubleTapping = true
			d.listener.OnDoubleTapEvent(e)
		} else {
			d.tap = d.sched.AfterFunc(d.cfg.DoubleTapTimeout, d.fireTap)
		}
		d.downFocus, d.lastFocus = focus, focus
		d.currentDown = clone(e)
		d.inTapRegion = true
		d.inBiggerTapRegion = true
		d.stillDown = true
		d.deferConfirmSingleTap = false

	case input.ActionMove:
		if d.currentDown == nil {
			return
		}
		scroll := d.lastFocus.Sub(focus)
		if d.doubleTapping {
			d.listener.OnDoubleTapEvent(e)
			return
		}
		if d.inTapRegion {
			dist := lengthSquared(focus.Sub(d.downFocus))
			if dist > d.touchSlopSquare {
				d.listener.OnScroll(d.currentDown, e, scroll.X, scroll.Y)
				d.lastFocus = focus
				d.inTapRegion = false
				d.cancelTap()
			}
			if dist > d.doubleTapSlopSquare {
				d.inBiggerTapRegion = false
			}
			return
		}
		if abs(scroll.X) >= 1 || abs(scroll.Y) >= 1 {
			d.listener.OnScroll(d.currentDown, e, scroll.X, scroll.Y)
			d.lastFocus = focus
		}

	case input.ActionUp:
		d.stillDown = false
		if d.doubleTapping {
			d.listener.OnDoubleTapEvent(e)
		} else if d.inTapRegion && d.deferConfirmSingleTap {
			d.listener.OnSingleTapConfirmed(e)
		}
		d.previousUp = clone(e)
		d.doubleTapping = false
		d.deferConfirmSingleTap = false

	case input.ActionCancel:
		d.cancel()
	}
}

// Reset cancels pending callbacks and forgets the current gesture.
func (d *ScrollDetector) Reset() {
	d.cancel()
	d.currentDown = nil
	d.previousUp = nil
}

func (d *ScrollDetector) fireTap() {
	d.tap = 0
	if d.currentDown == nil {
		return
	}
	if d.stillDown {
		d.deferConfirmSingleTap = true
		return
	}
	d.listener.OnSingleTapConfirmed(d.currentDown)
}

func (d *ScrollDetector) isConsideredDoubleTap(secondDown *input.MotionEvent) bool {
	if !d.inBiggerTapRegion {
		return false
	}
	delta := secondDown.Time.Sub(d.previousUp.Time)
	if delta > d.cfg.DoubleTapTimeout || delta < d.cfg.DoubleTapMinTime {
		return false
	}
	dx := d.currentDown.X() - secondDown.X()
	dy := d.currentDown.Y() - secondDown.Y()
	return dx*dx+dy*dy < d.doubleTapSlopSquare
}

func (d *ScrollDetector) cancelTap() {
	if d.tap != 0 {
		d.sched.Cancel(d.tap)
		d.tap = 0
	}
}

// cancelTaps is used when a second finger joins: the gesture can no longer
// be a tap of any kind.
func (d *ScrollDetector) cancelTaps() {
	d.cancelTap()
	d.doubleTapping = false
	d.inTapRegion = false
	d.inBiggerTapRegion = false
	d.deferConfirmSingleTap = false
}

func (d *ScrollDetector) cancel() {
	d.cancelTaps()
	d.stillDown = false
}

// focalPoint averages the pointers that remain down after e. For a
// pointer-up the lifting pointer is excluded.
func focalPoint(e *input.MotionEvent) f32.Point {
	skip := -1
	if e.Action == input.ActionPointerUp {
		skip = e.ActionIndex
	}
	var sum f32.Point
	n := 0
	for i, p := range e.Pointers {
		if i == skip {
			continue
		}
		sum = sum.Add(f32.Pt(p.X, p.Y))
		n++
	}
	if n == 0 {
		return f32.Point{}
	}
	return sum.Mul(1 / float32(n))
}

func clone(e *input.MotionEvent) *input.MotionEvent {
	c := *e
	c.Pointers = append([]input.Pointer(nil), e.Pointers...)
	return &c
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

