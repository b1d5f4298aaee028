package touch

import (
	"fmt"

	"gioui.org/f32"

	"remotetouch/internal/input"
)

// PointerTransform rotates captured relative input. The values match the
// display rotation that needs them, so a rotation in quarter turns converts
// directly.
type PointerTransform int

const (
	PointerTransformAuto             PointerTransform = -1
	PointerTransformNone             PointerTransform = 0
	PointerTransformCounterClockwise PointerTransform = 1
	PointerTransformUpsideDown       PointerTransform = 2
	PointerTransformClockwise        PointerTransform = 3
)

// ParsePointerTransform maps a configuration value to a PointerTransform.
func ParsePointerTransform(s string) (PointerTransform, error) {
	switch s {
	case "", "none":
		return PointerTransformNone, nil
	case "c", "clockwise":
		return PointerTransformClockwise, nil
	case "cc", "counter-clockwise":
		return PointerTransformCounterClockwise, nil
	case "ud", "upside-down":
		return PointerTransformUpsideDown, nil
	case "at", "auto":
		return PointerTransformAuto, nil
	}
	return PointerTransformNone, fmt.Errorf("unknown pointer transform %q", s)
}

func (t PointerTransform) apply(x, y float32) (float32, float32) {
	switch t {
	case PointerTransformClockwise:
		return -y, x
	case PointerTransformCounterClockwise:
		return y, -x
	case PointerTransformUpsideDown:
		return -x, -y
	default:
		return x, y
	}
}

var buttonTable = []struct {
	mask   input.ButtonState
	button input.Button
}{
	{input.ButtonPrimary, input.ButtonLeft},
	{input.ButtonTertiary, input.ButtonMiddle},
	{input.ButtonSecondary, input.ButtonRight},
}

// buttonTracker turns button-state bitmasks into press and release events.
type buttonTracker struct {
	saved input.ButtonState
}

// update calls send for every button whose state differs from the last
// call and reports whether there was any.
func (t *buttonTracker) update(current input.ButtonState, send func(b input.Button, down bool)) bool {
	changed := false
	for _, b := range buttonTable {
		if t.saved&b.mask != current&b.mask {
			send(b.button, current&b.mask != 0)
			changed = true
		}
	}
	t.saved = current
	return changed
}

// hardwareMouse handles mice and touchpads acting as mice.
type hardwareMouse struct {
	h       *Handler
	buttons buttonTracker
}

func (m *hardwareMouse) onTouch(v View, e *input.MotionEvent) bool {
	h := m.h
	if e.Action == input.ActionScroll {
		h.sender.SendMouseWheelEvent(-100*e.Axes.HScroll, -100*e.Axes.VScroll)
		return true
	}

	if v == nil || !v.HasPointerCapture() {
		p := h.render.ToImagePoint(e.X(), e.Y())
		if h.render.SetCursorPosition(p.X, p.Y) {
			h.sender.SendCursorMove(p.X, p.Y, false)
		}
	} else if e.Action == input.ActionMove && e.PointerCount() == 1 {
		axisRelative := e.Device.HasRelativeAxes
		if axisRelative || e.IsFromSource(input.SourceMouseRelative) {
			x, y := e.X(), e.Y()
			if axisRelative {
				x, y = e.Axes.RelativeX, e.Axes.RelativeY
			}
			x, y = h.pointerTransform.apply(x, y)
			factor := h.sender.CapturedPointerSpeedFactor * h.density
			h.sender.SendCursorMove(x*factor, y*factor, true)

			// Captured touchpads still get tap-to-click.
			if axisRelative && h.touchpad != nil {
				h.touchpad.tap.OnTouchEvent(e)
			}
		}
	}

	m.buttons.update(e.Buttons, func(b input.Button, down bool) {
		h.sender.SendMouseEvent(f32.Point{}, b, down, true)
	})
	return true
}
