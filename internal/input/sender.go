package input

import (
	"time"

	"gioui.org/f32"
	"go.uber.org/zap"
)

// Settings are the user preferences that change how events are translated.
type Settings struct {
	// TapToMove makes a single tap move the cursor; clicks need a second tap
	// or a long press.
	TapToMove bool
	// PreferScancodes forwards raw scancodes instead of composing text.
	PreferScancodes bool
	// PointerCapture allows relative mouse input while the view holds capture.
	PointerCapture bool
	// ScaleTouchpad applies the view-to-image scale to trackpad deltas.
	ScaleTouchpad bool
	// CapturedPointerSpeedFactor multiplies captured relative deltas.
	CapturedPointerSpeedFactor float32
	// StylusIsMouse asks the remote side to treat stylus input as a mouse.
	StylusIsMouse bool
	// StylusButtonContactModifierMode maps barrel buttons to the button sent
	// on contact instead of or-ing them in.
	StylusButtonContactModifierMode bool
}

// DefaultSettings returns the settings used before any configuration is applied.
func DefaultSettings() Settings {
	return Settings{CapturedPointerSpeedFactor: 1}
}

// EventSender normalizes events before they reach the Stub. Beside plain
// forwarding it keeps the touch-point lifecycle consistent, folds two quick
// taps into a double click and turns printable key presses into text.
type EventSender struct {
	Settings

	stub Stub
	now  func() time.Time
	log  *zap.SugaredLogger

	touches touchTracker
	clicks  doubleClick

	pendingTextKey int
}

// NewEventSender wraps stub. now supplies event timestamps for double-click
// detection.
func NewEventSender(stub Stub, now func() time.Time, log *zap.SugaredLogger) *EventSender {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &EventSender{
		Settings:       DefaultSettings(),
		stub:           stub,
		now:            now,
		log:            log,
		touches:        newTouchTracker(),
		pendingTextKey: noPendingKey,
	}
}

// Stub returns the wrapped sink.
func (s *EventSender) Stub() Stub {
	return s.stub
}

// SendMouseEvent forwards a button transition at pos.
func (s *EventSender) SendMouseEvent(pos f32.Point, button Button, down, relative bool) {
	s.stub.SendMouseEvent(pos.X, pos.Y, button, down, relative)
}

func (s *EventSender) SendMouseDown(pos f32.Point, button Button, relative bool) {
	s.SendMouseEvent(pos, button, true, relative)
}

func (s *EventSender) SendMouseUp(pos f32.Point, button Button, relative bool) {
	s.SendMouseEvent(pos, button, false, relative)
}

// SendMouseClick sends a press immediately followed by a release.
func (s *EventSender) SendMouseClick(pos f32.Point, button Button, relative bool) {
	s.SendMouseDown(pos, button, relative)
	s.SendMouseUp(pos, button, relative)
}

// SendCursorMove moves the remote cursor to (x, y), or by (x, y) when relative.
func (s *EventSender) SendCursorMove(x, y float32, relative bool) {
	s.stub.SendMouseEvent(x, y, ButtonUndefined, false, relative)
}

func (s *EventSender) SendMouseWheelEvent(distanceX, distanceY float32) {
	s.stub.SendMouseWheelEvent(distanceX, distanceY)
}

func (s *EventSender) SendStylusEvent(x, y float32, pressure, tiltX, tiltY, orientation, buttons int, eraser bool) {
	s.stub.SendStylusEvent(x, y, pressure, tiltX, tiltY, orientation, buttons, eraser, s.StylusIsMouse)
}
