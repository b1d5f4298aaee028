package network

import (
	"fmt"
	"net"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"remotetouch/internal/input"
	"remotetouch/internal/protocol"
)

const (
	heartbeatInterval = 5 * time.Second
	// ackTimeout is how long the host may stay silent before the path is
	// considered closed.
	ackTimeout = 3 * heartbeatInterval
)

// UDPSender sends binary input events to the host with minimal overhead. It
// registers on start, keeps the registration alive with heartbeats and only
// accepts events while the host keeps acknowledging.
type UDPSender struct {
	log      *zap.SugaredLogger
	hostAddr string
	conn     *net.UDPConn
	seq      atomic.Uint32
	lastAck  atomic.Int64 // unix millis of the last Ack, 0 before the first
	done     chan struct{}
}

var _ Transport = (*UDPSender)(nil)

// NewUDPSender creates a sender for the host at hostAddr ("ip:port").
func NewUDPSender(log *zap.SugaredLogger, hostAddr string) *UDPSender {
	return &UDPSender{
		log:      log,
		hostAddr: hostAddr,
		done:     make(chan struct{}),
	}
}

// Start opens a UDP socket towards the host, registers and begins listening
// for acknowledgements.
func (s *UDPSender) Start() error {
	hostUDP, err := net.ResolveUDPAddr("udp", s.hostAddr)
	if err != nil {
		return fmt.Errorf("udp sender: resolve %s: %w", s.hostAddr, err)
	}
	conn, err := net.DialUDP("udp", nil, hostUDP)
	if err != nil {
		return fmt.Errorf("udp sender: dial %s: %w", s.hostAddr, err)
	}
	s.conn = conn

	// 1 MB write buffer for burst writes
	conn.SetWriteBuffer(1 << 20)

	s.log.Infow("UDP Sender: sending", "local", conn.LocalAddr(), "host", s.hostAddr)

	s.sendControl(protocol.KindRegister)

	go s.heartbeatLoop()
	go s.readLoop()

	return nil
}

// Probe registers and waits up to timeout for the host's Ack.
func (s *UDPSender) Probe(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.IsConnected() {
			return true
		}
		s.sendControl(protocol.KindRegister)
		select {
		case <-time.After(100 * time.Millisecond):
		case <-s.done:
			return false
		}
	}
	return s.IsConnected()
}

func (s *UDPSender) heartbeatLoop() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sendControl(protocol.KindHeartbeat)
		case <-s.done:
			return
		}
	}
}

// readLoop listens for Ack packets from the host.
func (s *UDPSender) readLoop() {
	buf := make([]byte, 64)
	for {
		n, err := s.conn.Read(buf)
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}
		pkt, err := protocol.DecodeUDPPacket(buf[:n])
		if err != nil || pkt.Kind != protocol.KindAck {
			continue
		}
		if s.lastAck.Swap(nowMillis()) == 0 {
			s.log.Infow("UDP Sender: host acknowledged", "host", s.hostAddr)
		}
	}
}

func (s *UDPSender) sendControl(kind protocol.EventKind) {
	data, err := protocol.EncodeUDPPacket(&protocol.UDPPacket{
		Timestamp: nowMillis(),
		Event:     protocol.Event{Kind: kind},
	})
	if err != nil {
		return
	}
	if _, err := s.conn.Write(data); err != nil {
		s.log.Debugw("UDP Sender: control write failed", "kind", kind, "error", err)
	}
}

// IsConnected reports whether the host acknowledged recently.
func (s *UDPSender) IsConnected() bool {
	last := s.lastAck.Load()
	return last != 0 && nowMillis()-last < ackTimeout.Milliseconds()
}

// Send encodes ev and writes it to the host. Button, key and touch
// lifecycle edges are repeated since UDP has no delivery guarantee; the host
// discards duplicates by sequence number.
func (s *UDPSender) Send(ev protocol.Event) error {
	if s.conn == nil || !s.IsConnected() {
		return ErrNotConnected
	}
	data, err := protocol.EncodeUDPPacket(&protocol.UDPPacket{
		Seq:       s.seq.Inc(),
		Timestamp: nowMillis(),
		Event:     ev,
	})
	if err != nil {
		return err
	}
	for i := 0; i < redundancy(ev); i++ {
		if _, err := s.conn.Write(data); err != nil {
			return fmt.Errorf("udp sender: write: %w", err)
		}
	}
	return nil
}

func redundancy(ev protocol.Event) int {
	switch ev.Kind {
	case protocol.KindKey, protocol.KindText:
		return 3
	case protocol.KindMouse:
		if ev.Button != int8(input.ButtonUndefined) {
			return 3
		}
	case protocol.KindTouch:
		if ev.TouchAction != uint8(input.TouchUpdate) {
			return 3
		}
	case protocol.KindWheel:
		return 2
	}
	return 1
}

// Close shuts down the UDP sender.
func (s *UDPSender) Close() error {
	select {
	case <-s.done:
		return nil
	default:
	}
	close(s.done)
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
