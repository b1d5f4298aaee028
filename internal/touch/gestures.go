package touch

import (
	"gioui.org/f32"

	"remotetouch/internal/input"
	"remotetouch/internal/sched"
	"remotetouch/internal/strategy"
)

// gestureListener turns detector callbacks into strategy calls.
type gestureListener struct {
	h *Handler

	// pendingClicks are tap-to-move clicks deferred so that a following
	// second tap can become a drag.
	pendingClicks map[input.Button][]sched.Handle
	lastFocus     f32.Point
}

func (g *gestureListener) OnScroll(first, current *input.MotionEvent, distanceX, distanceY float32) {
	h := g.h
	kind := h.strategy.Kind()
	pointerCount := current.PointerCount()

	// Touchpads report physical axes regardless of screen orientation.
	if current.IsFromSource(input.SourceTouchpad) && kind == strategy.Trackpad {
		t := h.pointerTransform
		if t == PointerTransformAuto {
			t = PointerTransform(h.displayRotation)
		}
		distanceX, distanceY = t.apply(distanceX, distanceY)
		distanceX *= h.sender.CapturedPointerSpeedFactor
		distanceY *= h.sender.CapturedPointerSpeedFactor
	}

	if pointerCount >= 3 && !h.swipeCompleted {
		// Distances are previous minus current, so moving down is negative.
		h.totalMotionY -= distanceY
		h.onSwipe()
		return
	}

	if pointerCount == 2 && h.swipe.IsSwiping() {
		if kind != strategy.Trackpad && first != nil {
			// The target window only scrolls if the cursor is over it.
			h.moveCursorToScreenPoint(first.X(), first.Y())
		}
		h.strategy.OnScroll(distanceX, distanceY)
		h.suppressCursorMovement = true
		return
	}

	if pointerCount != 1 || h.suppressCursorMovement {
		return
	}

	if kind == strategy.Trackpad {
		if h.sender.ScaleTouchpad {
			distanceX *= h.render.Scale.X
			distanceY *= h.render.Scale.Y
		}
		h.moveCursorByOffset(distanceX, distanceY)
		return
	}
	if h.isDragging {
		h.moveCursorToScreenPoint(current.X(), current.Y())
	}
}

func (g *gestureListener) OnTap(pointerCount int, x, y float32) {
	h := g.h
	button := buttonFromPointerCount(pointerCount)
	if button == input.ButtonUndefined {
		return
	}

	kind := h.strategy.Kind()
	if kind != strategy.Trackpad {
		if h.outsideImage(x, y) {
			return
		}
		h.moveCursorToScreenPoint(x, y)
	}

	if button == input.ButtonLeft && h.sender.TapToMove && kind == strategy.Trackpad {
		var handle sched.Handle
		handle = h.sched.AfterFunc(h.cfg.DoubleTapTimeout, func() {
			g.forgetPending(button, handle)
			h.strategy.OnTap(button)
		})
		g.pendingClicks[button] = append(g.pendingClicks[button], handle)
		return
	}
	h.strategy.OnTap(button)
}

func (g *gestureListener) OnLongPress(pointerCount int, x, y float32) {
	h := g.h
	button := buttonFromPointerCount(pointerCount)
	if button == input.ButtonUndefined {
		return
	}

	if h.strategy.Kind() != strategy.Trackpad {
		if h.outsideImage(x, y) {
			return
		}
		h.moveCursorToScreenPoint(x, y)
	}

	if h.strategy.OnPressAndHold(button, false) {
		h.log.Debugw("drag started", "button", button)
		h.isDragging = true
	}
}

func (g *gestureListener) OnDoubleTapEvent(e *input.MotionEvent) {
	h := g.h
	if e.PointerCount() != 1 {
		return
	}

	switch e.Action {
	case input.ActionDown:
		// Tap-to-move: the second tap of a double tap starts a drag
		// instead of clicking.
		if h.sender.TapToMove && h.strategy.Kind() == strategy.Trackpad {
			g.cancelPending(input.ButtonLeft)
			if h.strategy.OnPressAndHold(input.ButtonLeft, true) {
				h.log.Debugw("drag started from double tap")
				h.isDragging = true
			}
		}
	case input.ActionMove:
		g.OnScroll(nil, e, g.lastFocus.X-e.X(), g.lastFocus.Y-e.Y())
	}
	g.lastFocus = f32.Pt(e.X(), e.Y())
}

func (g *gestureListener) OnSingleTapConfirmed(*input.MotionEvent) {}

func (g *gestureListener) cancelPending(button input.Button) {
	for _, handle := range g.pendingClicks[button] {
		g.h.sched.Cancel(handle)
	}
	delete(g.pendingClicks, button)
}

func (g *gestureListener) forgetPending(button input.Button, handle sched.Handle) {
	pending := g.pendingClicks[button]
	for i, p := range pending {
		if p == handle {
			g.pendingClicks[button] = append(pending[:i], pending[i+1:]...)
			break
		}
	}
	if len(g.pendingClicks[button]) == 0 {
		delete(g.pendingClicks, button)
	}
}

func buttonFromPointerCount(n int) input.Button {
	switch n {
	case 1:
		return input.ButtonLeft
	case 2:
		return input.ButtonRight
	case 3:
		return input.ButtonMiddle
	default:
		return input.ButtonUndefined
	}
}
