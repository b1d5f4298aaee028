// Package protocol defines the wire taxonomy between the touch client and
// the remote host: a JSON envelope used over websocket and a compact binary
// codec used over UDP. Both carry the same Event.
package protocol

import (
	"encoding/json"
	"fmt"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeAuth is sent by client immediately after connection to authenticate
	TypeAuth MessageType = "auth"

	// TypeInput carries one Event from client to host
	TypeInput MessageType = "input"

	// TypeResize is sent by host when its desktop size changes
	TypeResize MessageType = "resize"

	// TypePing can be used for application-level heartbeats if needed
	TypePing MessageType = "ping"
)

// Message is the generic container for all WebSocket messages
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage marshals payload into a Message of type t.
func NewMessage(t MessageType, payload interface{}) (Message, error) {
	msg := Message{Type: t}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return msg, fmt.Errorf("protocol: marshal %s payload: %w", t, err)
	}
	msg.Payload = raw
	return msg, nil
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v interface{}) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("protocol: %s message without payload", m.Type)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("protocol: decode %s payload: %w", m.Type, err)
	}
	return nil
}

// AuthPayload is the payload for TypeAuth
type AuthPayload struct {
	Token         string `json:"token"`
	ClientName    string `json:"client_name"`
	ClientVersion string `json:"client_version"`
}

// ResizePayload is the payload for TypeResize
type ResizePayload struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// EventKind identifies which sink call an Event represents. The values are
// also the UDP packet type byte.
type EventKind uint8

const (
	KindMouse     EventKind = 0x01
	KindWheel     EventKind = 0x03
	KindKey       EventKind = 0x04
	KindText      EventKind = 0x05
	KindTouch     EventKind = 0x06
	KindStylus    EventKind = 0x07
	KindRegister  EventKind = 0x10
	KindHeartbeat EventKind = 0x11
	KindAck       EventKind = 0x12 // Host -> client: confirms UDP path is open
)

var kindNames = map[EventKind]string{
	KindMouse:     "mouse",
	KindWheel:     "wheel",
	KindKey:       "key",
	KindText:      "text",
	KindTouch:     "touch",
	KindStylus:    "stylus",
	KindRegister:  "register",
	KindHeartbeat: "heartbeat",
	KindAck:       "ack",
}

func (k EventKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(0x%02x)", uint8(k))
}

// IsControl reports whether the kind is a transport control packet rather
// than an input event.
func (k EventKind) IsControl() bool {
	return k == KindRegister || k == KindHeartbeat || k == KindAck
}

// Event is one remote input event. Only the fields of its Kind are meaningful.
type Event struct {
	Kind EventKind `json:"kind"`

	// mouse, stylus, touch (touch coordinates are whole pixels)
	X float32 `json:"x,omitempty"`
	Y float32 `json:"y,omitempty"`

	// mouse
	Button   int8 `json:"button,omitempty"`
	Down     bool `json:"down,omitempty"`
	Relative bool `json:"relative,omitempty"`

	// wheel
	DeltaX float32 `json:"dx,omitempty"`
	DeltaY float32 `json:"dy,omitempty"`

	// key (Down shared with mouse)
	ScanCode int32 `json:"scan,omitempty"`
	KeyCode  int32 `json:"key,omitempty"`

	// text
	Text string `json:"text,omitempty"`

	// touch
	TouchAction uint8 `json:"touch_action,omitempty"`
	PointerID   int32 `json:"pointer,omitempty"`

	// stylus
	Pressure    uint16 `json:"pressure,omitempty"`
	TiltX       int8   `json:"tilt_x,omitempty"`
	TiltY       int8   `json:"tilt_y,omitempty"`
	Orientation int16  `json:"orientation,omitempty"`
	Buttons     uint8  `json:"buttons,omitempty"`
	Eraser      bool   `json:"eraser,omitempty"`
	MouseMode   bool   `json:"mouse_mode,omitempty"`
}
