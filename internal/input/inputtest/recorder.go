// Package inputtest provides a recording input.Stub for tests.
package inputtest

import "remotetouch/internal/input"

// Kind names the Stub method that produced an Event.
type Kind string

const (
	Mouse  Kind = "mouse"
	Wheel  Kind = "wheel"
	Key    Kind = "key"
	Text   Kind = "text"
	Touch  Kind = "touch"
	Stylus Kind = "stylus"
)

// Event is one recorded Stub call. Only the fields of its Kind are set.
type Event struct {
	Kind Kind

	X, Y     float32
	Button   input.Button
	Down     bool
	Relative bool

	DeltaX, DeltaY float32

	ScanCode, KeyCode int
	Text              string

	TouchAction input.TouchAction
	PointerID   int
	TouchX      int
	TouchY      int

	Pressure, TiltX, TiltY, Orientation, Buttons int
	Eraser, MouseMode                            bool
}

// Recorder implements input.Stub by appending every call to Events.
type Recorder struct {
	Events []Event
	// UnknownKeys makes SendKeyEvent report these key codes as unrecognized.
	UnknownKeys map[int]bool
}

func (r *Recorder) SendMouseEvent(x, y float32, button input.Button, down, relative bool) {
	r.Events = append(r.Events, Event{Kind: Mouse, X: x, Y: y, Button: button, Down: down, Relative: relative})
}

func (r *Recorder) SendMouseWheelEvent(deltaX, deltaY float32) {
	r.Events = append(r.Events, Event{Kind: Wheel, DeltaX: deltaX, DeltaY: deltaY})
}

func (r *Recorder) SendKeyEvent(scanCode, keyCode int, down bool) bool {
	if r.UnknownKeys[keyCode] {
		return false
	}
	r.Events = append(r.Events, Event{Kind: Key, ScanCode: scanCode, KeyCode: keyCode, Down: down})
	return true
}

func (r *Recorder) SendTextEvent(utf8 []byte) {
	r.Events = append(r.Events, Event{Kind: Text, Text: string(utf8)})
}

func (r *Recorder) SendTouchEvent(action input.TouchAction, pointerID int, x, y int) {
	r.Events = append(r.Events, Event{Kind: Touch, TouchAction: action, PointerID: pointerID, TouchX: x, TouchY: y})
}

func (r *Recorder) SendStylusEvent(x, y float32, pressure, tiltX, tiltY, orientation, buttons int, eraser, mouseMode bool) {
	r.Events = append(r.Events, Event{
		Kind: Stylus, X: x, Y: y, Pressure: pressure, TiltX: tiltX, TiltY: tiltY,
		Orientation: orientation, Buttons: buttons, Eraser: eraser, MouseMode: mouseMode,
	})
}

// Of returns the recorded events of kind k in order.
func (r *Recorder) Of(k Kind) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Buttons returns the mouse events that carry a button transition,
// skipping plain cursor moves.
func (r *Recorder) Buttons() []Event {
	var out []Event
	for _, e := range r.Of(Mouse) {
		if e.Button != input.ButtonUndefined {
			out = append(out, e)
		}
	}
	return out
}

// Moves returns the cursor-move events.
func (r *Recorder) Moves() []Event {
	var out []Event
	for _, e := range r.Of(Mouse) {
		if e.Button == input.ButtonUndefined {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.Events = nil
}
