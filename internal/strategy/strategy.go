// Package strategy implements the interaction modes that turn classified
// gestures into remote mouse input.
package strategy

import (
	"fmt"
	"time"

	"gioui.org/f32"

	"remotetouch/internal/gesture"
	"remotetouch/internal/input"
	"remotetouch/internal/render"
)

// Kind selects the interaction mode.
type Kind int

const (
	// Null forwards raw touches through the touch-point protocol and
	// ignores gestures.
	Null Kind = iota
	// SimulatedTouch places the cursor where the finger is.
	SimulatedTouch
	// Trackpad moves the cursor by finger deltas.
	Trackpad
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "touch"
	case SimulatedTouch:
		return "simulated-touch"
	case Trackpad:
		return "trackpad"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a configuration value to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "touch", "direct":
		return Null, nil
	case "simulated-touch", "simulated_touch":
		return SimulatedTouch, nil
	case "trackpad", "":
		return Trackpad, nil
	}
	return Trackpad, fmt.Errorf("unknown input mode %q", s)
}

// doubleTapSlopScale tightens the platform double-tap slop; remote targets
// are usually smaller than local ones.
const doubleTapSlopScale = 0.25

// Strategy is the active interaction mode together with the state that mode
// needs. Only the fields of the current Kind are meaningful.
type Strategy struct {
	kind   Kind
	sender *input.EventSender
	render *render.Data
	now    func() time.Time

	heldButton input.Button

	// SimulatedTouch double-tap tracking.
	doubleTapSlopSquare float32
	doubleTapTimeout    time.Duration
	lastTapTime         time.Time
	lastTapPoint        *f32.Point
}

// New returns a strategy of the given kind. now is the clock used for
// double-tap timing; nil means time.Now.
func New(kind Kind, sender *input.EventSender, r *render.Data, cfg gesture.Config, now func() time.Time) *Strategy {
	if now == nil {
		now = time.Now
	}
	slop := cfg.DoubleTapSlop * doubleTapSlopScale
	return &Strategy{
		kind:                kind,
		sender:              sender,
		render:              r,
		now:                 now,
		heldButton:          input.ButtonUndefined,
		doubleTapSlopSquare: slop * slop,
		doubleTapTimeout:    cfg.DoubleTapTimeout,
	}
}

func (s *Strategy) Kind() Kind {
	return s.kind
}

// HeldButton returns the button pressed by OnPressAndHold that has not been
// released yet, or ButtonUndefined.
func (s *Strategy) HeldButton() input.Button {
	return s.heldButton
}

// OnTap clicks button.
func (s *Strategy) OnTap(button input.Button) {
	switch s.kind {
	case Null:
	case SimulatedTouch:
		pos := s.render.CursorPosition()
		if button == input.ButtonLeft {
			now := s.now()
			if s.isDoubleTap(pos, now.Sub(s.lastTapTime)) {
				// Click the first tap's point again so the remote side
				// sees a real double click; the next tap starts fresh.
				pos = *s.lastTapPoint
				s.lastTapPoint = nil
				s.lastTapTime = time.Time{}
			} else {
				s.lastTapPoint = &pos
				s.lastTapTime = now
			}
		} else {
			s.lastTapPoint = nil
			s.lastTapTime = time.Time{}
		}
		s.sender.SendMouseClick(pos, button, false)
	case Trackpad:
		s.sender.SendMouseClick(f32.Point{}, button, true)
	}
}

// OnPressAndHold presses button until the gesture ends. It reports whether
// the button went down; Trackpad in tap-to-move mode only presses when
// forced.
func (s *Strategy) OnPressAndHold(button input.Button, force bool) bool {
	switch s.kind {
	case SimulatedTouch:
		s.sender.SendMouseDown(s.render.CursorPosition(), button, false)
	case Trackpad:
		if s.sender.TapToMove && !force {
			return false
		}
		s.sender.SendMouseDown(f32.Point{}, button, true)
	default:
		return false
	}
	s.heldButton = button
	return true
}

// OnScroll sends a wheel event for a two-finger scroll.
func (s *Strategy) OnScroll(distanceX, distanceY float32) {
	switch s.kind {
	case SimulatedTouch, Trackpad:
		s.sender.SendMouseWheelEvent(distanceX, distanceY)
	}
}

// OnMotionEvent observes every raw event before gesture detection. It
// releases the held button once the gesture ends.
func (s *Strategy) OnMotionEvent(e *input.MotionEvent) {
	if s.kind == Null || s.heldButton == input.ButtonUndefined {
		return
	}
	if e.Action != input.ActionUp && e.Action != input.ActionCancel {
		return
	}
	if s.kind == SimulatedTouch {
		s.sender.SendMouseUp(s.render.CursorPosition(), s.heldButton, false)
	} else {
		s.sender.SendMouseUp(f32.Point{}, s.heldButton, true)
	}
	s.heldButton = input.ButtonUndefined
}

// isDoubleTap compares in view space so the slop does not depend on how
// the image is scaled.
func (s *Strategy) isDoubleTap(pos f32.Point, interval time.Duration) bool {
	if s.lastTapPoint == nil || interval > s.doubleTapTimeout {
		return false
	}
	cur := s.render.ToScreenPoint(pos)
	prev := s.render.ToScreenPoint(*s.lastTapPoint)
	d := cur.Sub(prev)
	return d.X*d.X+d.Y*d.Y <= s.doubleTapSlopSquare
}
