package network

import (
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"remotetouch/internal/protocol"
)

// UDPReceiver is the host-side UDP listener. It acknowledges client
// registrations and heartbeats, drops redundant copies of events and hands
// each remaining event to OnEvent. The monitor command uses it as a stand-in
// remote host.
type UDPReceiver struct {
	log  *zap.SugaredLogger
	addr string
	conn *net.UDPConn
	done chan struct{}

	// OnEvent is called for each received input event from the read goroutine.
	OnEvent func(from *net.UDPAddr, pkt *protocol.UDPPacket)

	mu      sync.Mutex
	clients map[string]*udpClient
}

type udpClient struct {
	addr     *net.UDPAddr
	lastSeen time.Time
	dedup    seqDedup
}

// seqDedup tracks recently seen sequence numbers to discard redundant packets.
// Uses a fixed-size ring buffer, no allocation, O(1) lookup.
type seqDedup struct {
	ring [512]uint32
	pos  int
	seen map[uint32]struct{}
}

func newSeqDedup() seqDedup {
	return seqDedup{seen: make(map[uint32]struct{}, 512)}
}

func (d *seqDedup) isDuplicate(seq uint32) bool {
	if _, ok := d.seen[seq]; ok {
		return true
	}
	// Evict oldest entry
	old := d.ring[d.pos]
	if old != 0 {
		delete(d.seen, old)
	}
	d.ring[d.pos] = seq
	d.seen[seq] = struct{}{}
	d.pos = (d.pos + 1) % len(d.ring)
	return false
}

// NewUDPReceiver creates a receiver bound to addr (":port" or "ip:port").
func NewUDPReceiver(log *zap.SugaredLogger, addr string) *UDPReceiver {
	return &UDPReceiver{
		log:     log,
		addr:    addr,
		done:    make(chan struct{}),
		clients: make(map[string]*udpClient),
	}
}

// Start binds the UDP socket and begins receiving.
func (r *UDPReceiver) Start() error {
	laddr, err := net.ResolveUDPAddr("udp", r.addr)
	if err != nil {
		return fmt.Errorf("udp receiver: resolve %s: %w", r.addr, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return fmt.Errorf("udp receiver: listen %s: %w", r.addr, err)
	}
	r.conn = conn

	// Large read buffer for burst receives
	conn.SetReadBuffer(1 << 20) // 1 MB

	r.log.Infow("UDP Receiver: listening", "addr", conn.LocalAddr())

	go r.readLoop()
	go r.cleanupLoop()

	return nil
}

// LocalAddr returns the bound address, or nil before Start.
func (r *UDPReceiver) LocalAddr() *net.UDPAddr {
	if r.conn == nil {
		return nil
	}
	return r.conn.LocalAddr().(*net.UDPAddr)
}

func (r *UDPReceiver) readLoop() {
	buf := make([]byte, protocol.UDPHeaderSize+2+protocol.MaxTextSize)
	for {
		n, from, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-r.done:
				return
			default:
				continue
			}
		}

		pkt, err := protocol.DecodeUDPPacket(buf[:n])
		if err != nil {
			r.log.Debugw("UDP Receiver: bad packet", "from", from, "error", err)
			continue
		}
		r.handle(from, pkt)
	}
}

func (r *UDPReceiver) handle(from *net.UDPAddr, pkt *protocol.UDPPacket) {
	key := from.String()

	r.mu.Lock()
	c, ok := r.clients[key]
	if !ok {
		c = &udpClient{addr: from, dedup: newSeqDedup()}
		r.clients[key] = c
		r.log.Infow("UDP Receiver: client registered", "from", key, "via", pkt.Kind)
	}
	c.lastSeen = time.Now()
	duplicate := !pkt.Kind.IsControl() && c.dedup.isDuplicate(pkt.Seq)
	r.mu.Unlock()

	switch pkt.Kind {
	case protocol.KindRegister, protocol.KindHeartbeat:
		// Reply with Ack so the client can confirm UDP connectivity
		ack, err := protocol.EncodeUDPPacket(&protocol.UDPPacket{
			Timestamp: nowMillis(),
			Event:     protocol.Event{Kind: protocol.KindAck},
		})
		if err == nil {
			r.conn.WriteToUDP(ack, from)
		}
		return
	case protocol.KindAck:
		return
	}

	if duplicate || r.OnEvent == nil {
		return
	}
	r.OnEvent(from, pkt)
}

// cleanupLoop removes clients that haven't sent a heartbeat recently.
func (r *UDPReceiver) cleanupLoop() {
	ticker := time.NewTicker(2 * heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			for key, c := range r.clients {
				if time.Since(c.lastSeen) > ackTimeout*2 {
					r.log.Infow("UDP Receiver: removing stale client", "from", key)
					delete(r.clients, key)
				}
			}
			r.mu.Unlock()
		case <-r.done:
			return
		}
	}
}

// Clients returns the number of registered clients.
func (r *UDPReceiver) Clients() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Close shuts down the UDP receiver.
func (r *UDPReceiver) Close() error {
	select {
	case <-r.done:
		return nil
	default:
	}
	close(r.done)
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
