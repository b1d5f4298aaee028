package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrShortPacket is returned when a packet is smaller than its kind requires.
	ErrShortPacket = errors.New("udp: packet too short")
	// ErrUnknownPacket is returned for an unrecognized packet type byte.
	ErrUnknownPacket = errors.New("udp: unknown packet type")
)

// Header: [type(1)] [seq(4)] [timestamp(8)] = 13 bytes
const UDPHeaderSize = 13

// MaxTextSize bounds the UTF-8 payload of a text packet so a packet fits a
// single datagram.
const MaxTextSize = 1024

// UDPPacket is a binary-encoded Event for low-latency UDP transport.
//
// Wire format per kind (after the header):
//
//	Mouse     (0x01): x(f32) y(f32) button(int8) flags(uint8: down|relative<<1)            = 10 bytes
//	Wheel     (0x03): dx(f32) dy(f32)                                                      =  8 bytes
//	Key       (0x04): scan(int32) key(int32) down(uint8)                                   =  9 bytes
//	Text      (0x05): len(uint16) utf8[len]                                                = 2+len bytes
//	Touch     (0x06): action(uint8) id(int32) x(int32) y(int32)                            = 13 bytes
//	Stylus    (0x07): x(f32) y(f32) pressure(uint16) tiltX(int8) tiltY(int8)
//	                  orientation(int16) buttons(uint8) flags(uint8: eraser|mouseMode<<1)  = 16 bytes
//	Register  (0x10), Heartbeat (0x11), Ack (0x12): header only
type UDPPacket struct {
	Seq       uint32
	Timestamp int64
	Event
}

func payloadSize(e *Event) (int, error) {
	switch e.Kind {
	case KindMouse:
		return 10, nil
	case KindWheel:
		return 8, nil
	case KindKey:
		return 9, nil
	case KindText:
		return 2 + len(e.Text), nil
	case KindTouch:
		return 13, nil
	case KindStylus:
		return 16, nil
	case KindRegister, KindHeartbeat, KindAck:
		return 0, nil
	}
	return 0, fmt.Errorf("%w 0x%02x", ErrUnknownPacket, uint8(e.Kind))
}

func flag(b bool, bit uint) uint8 {
	if b {
		return 1 << bit
	}
	return 0
}

// EncodeUDPPacket serializes a UDPPacket to wire format.
func EncodeUDPPacket(pkt *UDPPacket) ([]byte, error) {
	if pkt.Kind == KindText && len(pkt.Text) > MaxTextSize {
		return nil, fmt.Errorf("udp: text payload of %d bytes exceeds %d", len(pkt.Text), MaxTextSize)
	}
	size, err := payloadSize(&pkt.Event)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, UDPHeaderSize+size)
	buf[0] = uint8(pkt.Kind)
	binary.BigEndian.PutUint32(buf[1:5], pkt.Seq)
	binary.BigEndian.PutUint64(buf[5:13], uint64(pkt.Timestamp))

	p := buf[UDPHeaderSize:]
	switch pkt.Kind {
	case KindMouse:
		binary.BigEndian.PutUint32(p[0:4], math.Float32bits(pkt.X))
		binary.BigEndian.PutUint32(p[4:8], math.Float32bits(pkt.Y))
		p[8] = uint8(pkt.Button)
		p[9] = flag(pkt.Down, 0) | flag(pkt.Relative, 1)
	case KindWheel:
		binary.BigEndian.PutUint32(p[0:4], math.Float32bits(pkt.DeltaX))
		binary.BigEndian.PutUint32(p[4:8], math.Float32bits(pkt.DeltaY))
	case KindKey:
		binary.BigEndian.PutUint32(p[0:4], uint32(pkt.ScanCode))
		binary.BigEndian.PutUint32(p[4:8], uint32(pkt.KeyCode))
		p[8] = flag(pkt.Down, 0)
	case KindText:
		binary.BigEndian.PutUint16(p[0:2], uint16(len(pkt.Text)))
		copy(p[2:], pkt.Text)
	case KindTouch:
		p[0] = pkt.TouchAction
		binary.BigEndian.PutUint32(p[1:5], uint32(pkt.PointerID))
		binary.BigEndian.PutUint32(p[5:9], uint32(int32(pkt.X)))
		binary.BigEndian.PutUint32(p[9:13], uint32(int32(pkt.Y)))
	case KindStylus:
		binary.BigEndian.PutUint32(p[0:4], math.Float32bits(pkt.X))
		binary.BigEndian.PutUint32(p[4:8], math.Float32bits(pkt.Y))
		binary.BigEndian.PutUint16(p[8:10], pkt.Pressure)
		p[10] = uint8(pkt.TiltX)
		p[11] = uint8(pkt.TiltY)
		binary.BigEndian.PutUint16(p[12:14], uint16(pkt.Orientation))
		p[14] = pkt.Buttons
		p[15] = flag(pkt.Eraser, 0) | flag(pkt.MouseMode, 1)
	}

	return buf, nil
}

// DecodeUDPPacket deserializes wire bytes into a UDPPacket.
func DecodeUDPPacket(data []byte) (*UDPPacket, error) {
	if len(data) < UDPHeaderSize {
		return nil, ErrShortPacket
	}

	pkt := &UDPPacket{
		Seq:       binary.BigEndian.Uint32(data[1:5]),
		Timestamp: int64(binary.BigEndian.Uint64(data[5:13])),
	}
	pkt.Kind = EventKind(data[0])

	p := data[UDPHeaderSize:]
	if pkt.Kind == KindText {
		if len(p) < 2 {
			return nil, fmt.Errorf("%w: text length", ErrShortPacket)
		}
		n := int(binary.BigEndian.Uint16(p[0:2]))
		if len(p) < 2+n {
			return nil, fmt.Errorf("%w: text of %d bytes", ErrShortPacket, n)
		}
		pkt.Text = string(p[2 : 2+n])
		return pkt, nil
	}

	size, err := payloadSize(&pkt.Event)
	if err != nil {
		return nil, err
	}
	if len(p) < size {
		return nil, fmt.Errorf("%w: %s payload", ErrShortPacket, pkt.Kind)
	}

	switch pkt.Kind {
	case KindMouse:
		pkt.X = math.Float32frombits(binary.BigEndian.Uint32(p[0:4]))
		pkt.Y = math.Float32frombits(binary.BigEndian.Uint32(p[4:8]))
		pkt.Button = int8(p[8])
		pkt.Down = p[9]&1 != 0
		pkt.Relative = p[9]&2 != 0
	case KindWheel:
		pkt.DeltaX = math.Float32frombits(binary.BigEndian.Uint32(p[0:4]))
		pkt.DeltaY = math.Float32frombits(binary.BigEndian.Uint32(p[4:8]))
	case KindKey:
		pkt.ScanCode = int32(binary.BigEndian.Uint32(p[0:4]))
		pkt.KeyCode = int32(binary.BigEndian.Uint32(p[4:8]))
		pkt.Down = p[8]&1 != 0
	case KindTouch:
		pkt.TouchAction = p[0]
		pkt.PointerID = int32(binary.BigEndian.Uint32(p[1:5]))
		pkt.X = float32(int32(binary.BigEndian.Uint32(p[5:9])))
		pkt.Y = float32(int32(binary.BigEndian.Uint32(p[9:13])))
	case KindStylus:
		pkt.X = math.Float32frombits(binary.BigEndian.Uint32(p[0:4]))
		pkt.Y = math.Float32frombits(binary.BigEndian.Uint32(p[4:8]))
		pkt.Pressure = binary.BigEndian.Uint16(p[8:10])
		pkt.TiltX = int8(p[10])
		pkt.TiltY = int8(p[11])
		pkt.Orientation = int16(binary.BigEndian.Uint16(p[12:14]))
		pkt.Buttons = p[14]
		pkt.Eraser = p[15]&1 != 0
		pkt.MouseMode = p[15]&2 != 0
	}

	return pkt, nil
}
