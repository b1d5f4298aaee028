package network

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"remotetouch/internal/protocol"
)

// ErrQueueFull is returned by WSClient.Send when the write pump falls behind.
var ErrQueueFull = errors.New("network: send queue full")

// ClientVersion is reported to the host in the auth message.
var ClientVersion = "dev"

// WSClient handles the WebSocket connection to the host
type WSClient struct {
	log       *zap.SugaredLogger
	hostAddr  string
	token     string
	name      string
	send      chan protocol.Message
	done      chan struct{}
	closeOnce sync.Once

	// RetryDelay is the pause between reconnection attempts.
	RetryDelay time.Duration

	// OnResize is called from the read goroutine when the host desktop size changes.
	OnResize func(width, height int)
	// OnConnect is called with true after the auth message went out and with
	// false after the connection dropped.
	OnConnect func(connected bool)

	mu          sync.Mutex
	isConnected bool
}

var _ Transport = (*WSClient)(nil)

// NewWSClient creates a new WebSocket client
func NewWSClient(log *zap.SugaredLogger, hostAddr, token, name string) *WSClient {
	return &WSClient{
		log:        log,
		hostAddr:   hostAddr,
		token:      token,
		name:       name,
		send:       make(chan protocol.Message, 256),
		done:       make(chan struct{}),
		RetryDelay: 5 * time.Second,
	}
}

// Start begins the client loop (connect & process)
func (c *WSClient) Start() {
	go c.loop()
}

func (c *WSClient) loop() {
	for {
		c.connect()

		// If connect returns, it means we disconnected. Wait a bit and retry.
		select {
		case <-c.done:
			return
		case <-time.After(c.RetryDelay):
			c.log.Debug("WS Client: attempting reconnection")
		}
	}
}

func (c *WSClient) connect() {
	u := url.URL{Scheme: "ws", Host: c.hostAddr, Path: "/ws"}
	c.log.Infow("WS Client: connecting", "url", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		c.log.Warnw("WS Client: connection failed", "error", err)
		return
	}
	defer conn.Close()

	auth, err := protocol.NewMessage(protocol.TypeAuth, protocol.AuthPayload{
		Token:         c.token,
		ClientName:    c.name,
		ClientVersion: ClientVersion,
	})
	if err != nil {
		c.log.Errorw("WS Client: auth message", "error", err)
		return
	}
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(auth); err != nil {
		c.log.Warnw("WS Client: auth write failed", "error", err)
		return
	}

	c.setConnected(true)
	c.log.Info("WS Client: connected to host")

	// specific done channel for this connection
	connDone := make(chan struct{})
	stop := make(chan struct{})

	go func() {
		defer close(connDone)
		c.writePump(conn, stop)
	}()

	c.readPump(conn)

	c.setConnected(false)

	// Ensure write pump stops
	close(stop)
	<-connDone
}

func (c *WSClient) setConnected(v bool) {
	c.mu.Lock()
	changed := c.isConnected != v
	c.isConnected = v
	c.mu.Unlock()
	if changed && c.OnConnect != nil {
		c.OnConnect(v)
	}
}

func (c *WSClient) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error { conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warnw("WS Client: read error", "error", err)
			}
			return
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warnw("WS Client: invalid message", "error", err)
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *WSClient) writePump(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second) // Ping ticker
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				c.log.Warnw("WS Client: write error", "error", err)
				conn.Close()
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}

		case <-stop:
			return

		case <-c.done:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
			return
		}
	}
}

func (c *WSClient) handleMessage(msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeResize:
		var size protocol.ResizePayload
		if err := msg.Decode(&size); err != nil {
			c.log.Warnw("WS Client: bad resize", "error", err)
			return
		}
		c.log.Debugw("WS Client: host resized", "width", size.Width, "height", size.Height)
		if c.OnResize != nil {
			c.OnResize(size.Width, size.Height)
		}

	case protocol.TypePing:
		// keepalive only

	default:
		c.log.Debugw("WS Client: ignoring message", "type", msg.Type)
	}
}

// Send queues ev for the host.
func (c *WSClient) Send(ev protocol.Event) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	msg, err := protocol.NewMessage(protocol.TypeInput, ev)
	if err != nil {
		return err
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return fmt.Errorf("ws client: %s event: %w", ev.Kind, ErrQueueFull)
	}
}

// IsConnected returns true if client is connected to host
func (c *WSClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isConnected
}

// Close stops the client
func (c *WSClient) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}
