package network

import (
	"errors"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"remotetouch/internal/input"
	"remotetouch/internal/protocol"
)

// ErrNotConnected is returned by a Transport that has no live path to the host.
var ErrNotConnected = errors.New("network: not connected")

// maxKeyCode is the highest Linux input key code the host understands.
const maxKeyCode = 0x2ff

// Transport delivers encoded events to the remote host.
type Transport interface {
	Send(ev protocol.Event) error
	Close() error
}

// Sink implements input.Stub on top of one or more transports. Events go to
// the first transport that accepts them, so a UDP path can be preferred with
// websocket as fallback. Failures are logged and the event is dropped.
type Sink struct {
	log        *zap.SugaredLogger
	transports []Transport
	sent       atomic.Uint64
	dropped    atomic.Uint64
}

var _ input.Stub = (*Sink)(nil)

// NewSink returns a Sink over transports in order of preference.
func NewSink(log *zap.SugaredLogger, transports ...Transport) *Sink {
	return &Sink{log: log, transports: transports}
}

func (s *Sink) send(ev protocol.Event) {
	var errs error
	for _, t := range s.transports {
		err := t.Send(ev)
		if err == nil {
			s.sent.Inc()
			return
		}
		errs = multierr.Append(errs, err)
	}
	n := s.dropped.Inc()
	// Log the first drop and then every 100th so a dead link does not flood the log.
	if n == 1 || n%100 == 0 {
		s.log.Warnw("Sink: dropping event", "kind", ev.Kind, "dropped", n, "error", errs)
	}
}

// Stats returns the number of delivered and dropped events.
func (s *Sink) Stats() (sent, dropped uint64) {
	return s.sent.Load(), s.dropped.Load()
}

func (s *Sink) SendMouseEvent(x, y float32, button input.Button, down, relative bool) {
	s.send(protocol.Event{Kind: protocol.KindMouse, X: x, Y: y, Button: int8(button), Down: down, Relative: relative})
}

func (s *Sink) SendMouseWheelEvent(deltaX, deltaY float32) {
	s.send(protocol.Event{Kind: protocol.KindWheel, DeltaX: deltaX, DeltaY: deltaY})
}

func (s *Sink) SendKeyEvent(scanCode, keyCode int, down bool) bool {
	if scanCode <= 0 && (keyCode <= 0 || keyCode > maxKeyCode) {
		return false
	}
	s.send(protocol.Event{Kind: protocol.KindKey, ScanCode: int32(scanCode), KeyCode: int32(keyCode), Down: down})
	return true
}

func (s *Sink) SendTextEvent(utf8 []byte) {
	text := string(utf8)
	for len(text) > protocol.MaxTextSize {
		cut := protocol.MaxTextSize
		// back up to a rune boundary
		for cut > 0 && text[cut]&0xc0 == 0x80 {
			cut--
		}
		s.send(protocol.Event{Kind: protocol.KindText, Text: text[:cut]})
		text = text[cut:]
	}
	if text != "" {
		s.send(protocol.Event{Kind: protocol.KindText, Text: text})
	}
}

func (s *Sink) SendTouchEvent(action input.TouchAction, pointerID int, x, y int) {
	s.send(protocol.Event{
		Kind:        protocol.KindTouch,
		TouchAction: uint8(action),
		PointerID:   int32(pointerID),
		X:           float32(x),
		Y:           float32(y),
	})
}

func (s *Sink) SendStylusEvent(x, y float32, pressure, tiltX, tiltY, orientation, buttons int, eraser, mouseMode bool) {
	s.send(protocol.Event{
		Kind:        protocol.KindStylus,
		X:           x,
		Y:           y,
		Pressure:    uint16(clamp(pressure, 0, 65535)),
		TiltX:       int8(clamp(tiltX, -128, 127)),
		TiltY:       int8(clamp(tiltY, -128, 127)),
		Orientation: int16(clamp(orientation, -180, 180)),
		Buttons:     uint8(buttons),
		Eraser:      eraser,
		MouseMode:   mouseMode,
	})
}

// Close closes every transport.
func (s *Sink) Close() error {
	var err error
	for _, t := range s.transports {
		err = multierr.Append(err, t.Close())
	}
	return err
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
