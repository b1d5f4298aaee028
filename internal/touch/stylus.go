package touch

import (
	"math"

	"gioui.org/f32"

	"remotetouch/internal/input"
)

// Buttons reported while the stylus touches the surface.
const (
	StylusHelperLeft   = 1
	StylusHelperMiddle = 2
	StylusHelperRight  = 4
)

const (
	stylusButtonSecondary = 1 << 1
	stylusButtonPrimary   = 1 << 2

	maxPressure = 65535
)

// stylusListener forwards pen input as absolute stylus events. Samples that
// do not change anything are dropped.
type stylusListener struct {
	h *Handler

	pos         f32.Point
	pressure    float32
	tilt        float32
	orientation float32
	buttons     int
}

func (s *stylusListener) onTouch(v View, e *input.MotionEvent) bool {
	h := s.h
	p, ok := e.ActionPointer()
	if !ok {
		return true
	}
	buttons := s.extractButtons(e, p.Pressure)

	var pos f32.Point
	dev := e.Device
	if v != nil && v.HasPointerCapture() && dev.External && dev.RangeX > 0 && dev.RangeY > 0 {
		// A captured external tablet maps its whole surface onto the image.
		pos = f32.Pt(
			p.X*float32(h.render.ImageWidth)/dev.RangeX,
			p.Y*float32(h.render.ImageHeight)/dev.RangeY,
		)
	} else {
		pos = h.render.ToImagePoint(p.X, p.Y)
	}

	if pos == s.pos && p.Pressure == s.pressure && e.Axes.Tilt == s.tilt &&
		e.Axes.Orientation == s.orientation && buttons == s.buttons {
		return true
	}

	var tiltX, tiltY int
	if dev.HasTilt && dev.HasOrientation {
		s.orientation = e.Axes.Orientation
		s.tilt = e.Axes.Tilt
		tiltX, tiltY = tiltComponents(s.orientation, s.tilt)
	}

	s.pos = pos
	s.pressure = p.Pressure
	s.buttons = buttons
	h.sender.SendStylusEvent(
		pos.X, pos.Y,
		int(p.Pressure*maxPressure),
		tiltX, tiltY,
		orientationDegrees(s.orientation),
		buttons,
		p.Tool == input.ToolEraser,
	)
	return true
}

// extractButtons maps the pen contact and barrel buttons to the button mask
// sent to the host. In contact-modifier mode a barrel button replaces the
// contact button instead of adding to it.
func (s *stylusListener) extractButtons(e *input.MotionEvent, pressure float32) int {
	secondary := e.Buttons&input.ButtonStylusSecondary != 0
	primary := e.Buttons&input.ButtonStylusPrimary != 0

	if s.h.sender.StylusButtonContactModifierMode {
		switch {
		case pressure <= 0:
			return 0
		case secondary:
			return stylusButtonSecondary
		case primary:
			return stylusButtonPrimary
		default:
			return s.h.stylusHelperMode
		}
	}

	buttons := 0
	if pressure > 0 {
		buttons = s.h.stylusHelperMode
	}
	if secondary {
		buttons |= stylusButtonSecondary
	}
	if primary {
		buttons |= stylusButtonPrimary
	}
	return buttons
}

// tiltComponents splits a tilt angle along an orientation into the X and Y
// tilt the host expects, in units of roughly 1.4 degrees.
func tiltComponents(orientation, tilt float32) (int, int) {
	o, t := float64(orientation), float64(tilt)
	x := math.Asin(-math.Sin(o)*math.Sin(t))*63.5 - 0.5
	y := math.Asin(math.Cos(o)*math.Sin(t))*63.5 - 0.5
	return int(math.Floor(x + 0.5)), int(math.Floor(y + 0.5))
}

// orientationDegrees converts radians to whole degrees in (-180, 180].
func orientationDegrees(rad float32) int {
	deg := int(math.Mod(float64(rad)*180/math.Pi+360, 360))
	if deg > 180 {
		deg = (deg - 360) % 360
	}
	return deg
}
