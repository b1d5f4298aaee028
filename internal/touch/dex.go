package touch

import (
	"remotetouch/internal/gesture"
	"remotetouch/internal/input"
	"remotetouch/internal/sched"
)

// dexListener handles a desktop-mode trackpad that reports finger events.
// The platform marks drags and two-finger scrolls with event flags, so
// classification uses those instead of the gesture detectors.
type dexListener struct {
	h        *Handler
	scroller *gesture.ScrollDetector
	buttons  buttonTracker

	onTap     bool
	dragging  bool
	scrolling bool
	mouseDown sched.Handle
}

func newDexListener(h *Handler) *dexListener {
	d := &dexListener{h: h}
	d.scroller = gesture.NewScrollDetector(h.cfg, h.sched, d)
	return d
}

func isDexScroll(e *input.MotionEvent) bool {
	return e.HasFlags(input.FlagDexScroll) || e.Classification == input.ClassificationTwoFingerSwipe
}

func (d *dexListener) onTouch(e *input.MotionEvent) bool {
	h := d.h
	switch e.Action {
	case input.ActionButtonPress, input.ActionButtonRelease:
		d.cancelMouseDown()
		d.onTap = e.Action == input.ActionButtonPress
		d.dragging = false
		d.checkButtons(e)
		return true

	case input.ActionHoverMove:
		d.syncCursor(e)
		return true

	case input.ActionDown:
		handled := d.checkButtons(e)
		switch {
		case isDexScroll(e):
			d.scrolling = true
			d.scroller.OnTouchEvent(e)
		case e.HasFlags(input.FlagDexDrag):
			d.dragging = true
			// Press on the next loop turn so a button event arriving with
			// this down can still cancel it.
			d.cancelMouseDown()
			d.mouseDown = h.sched.AfterFunc(0, func() {
				d.mouseDown = 0
				h.sender.SendMouseDown(h.render.CursorPosition(), input.ButtonLeft, false)
			})
		case !handled:
			d.onTap = true
			h.sender.SendMouseDown(h.render.CursorPosition(), input.ButtonLeft, false)
		}
		return true

	case input.ActionUp:
		handled := d.checkButtons(e)
		switch {
		case isDexScroll(e):
			d.scroller.OnTouchEvent(e)
			d.scrolling = false
		case e.HasFlags(input.FlagDexDrag):
			h.sender.SendMouseUp(h.render.CursorPosition(), input.ButtonLeft, false)
			d.dragging = false
		case !handled && d.onTap:
			h.sender.SendMouseUp(h.render.CursorPosition(), input.ButtonLeft, false)
			d.onTap = false
		}
		return true

	case input.ActionMove:
		if d.scrolling && isDexScroll(e) {
			d.scroller.OnTouchEvent(e)
		} else if (d.dragging && e.HasFlags(input.FlagDexDrag)) || d.onTap {
			d.syncCursor(e)
		}
		return true

	case input.ActionHoverExit, input.ActionCancel:
		// The hand left the trackpad.
		d.onTap = false
		d.scrolling = false
		d.dragging = false
		return true
	}
	return false
}

func (d *dexListener) syncCursor(e *input.MotionEvent) {
	h := d.h
	p := h.render.ToImagePoint(e.X(), e.Y())
	if h.render.SetCursorPosition(p.X, p.Y) {
		h.sender.SendCursorMove(p.X, p.Y, false)
	}
}

func (d *dexListener) checkButtons(e *input.MotionEvent) bool {
	h := d.h
	return d.buttons.update(e.Buttons, func(b input.Button, down bool) {
		h.sender.SendMouseEvent(h.render.CursorPosition(), b, down, false)
	})
}

func (d *dexListener) cancelMouseDown() {
	if d.mouseDown != 0 {
		d.h.sched.Cancel(d.mouseDown)
		d.mouseDown = 0
	}
}

func (d *dexListener) OnScroll(_, _ *input.MotionEvent, distanceX, distanceY float32) {
	d.h.sender.SendMouseWheelEvent(distanceX, distanceY)
}

func (d *dexListener) OnDoubleTapEvent(e *input.MotionEvent) {
	d.OnSingleTapConfirmed(e)
	d.OnSingleTapConfirmed(e)
}

func (d *dexListener) OnSingleTapConfirmed(*input.MotionEvent) {
	d.h.sender.SendMouseClick(d.h.render.CursorPosition(), input.ButtonLeft, false)
}
