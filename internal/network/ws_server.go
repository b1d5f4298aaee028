package network

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"remotetouch/internal/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins as this is a local network tool
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSServer is the host side of the websocket transport. It authenticates
// clients by token, hands their input events to OnEvent and broadcasts
// resize notifications. The monitor command serves it at /ws.
type WSServer struct {
	log        *zap.SugaredLogger
	token      string
	clients    map[*wsPeer]bool
	clientsMu  sync.RWMutex
	broadcast  chan protocol.Message
	register   chan *wsPeer
	unregister chan *wsPeer
	shutdown   chan struct{}
	closeOnce  sync.Once

	// OnEvent is called from a peer's read goroutine for each input event.
	OnEvent func(from string, ev protocol.Event)
	// OnAuth is called once a peer has authenticated.
	OnAuth func(from, name string)
}

// wsPeer represents a connected client
type wsPeer struct {
	server *WSServer
	conn   *websocket.Conn
	send   chan []byte
	ip     string
	authed bool
}

// NewWSServer returns a server that accepts clients presenting token; an
// empty token accepts every client.
func NewWSServer(log *zap.SugaredLogger, token string) *WSServer {
	s := &WSServer{
		log:        log,
		token:      token,
		clients:    make(map[*wsPeer]bool),
		broadcast:  make(chan protocol.Message),
		register:   make(chan *wsPeer),
		unregister: make(chan *wsPeer),
		shutdown:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *WSServer) run() {
	for {
		select {
		case client := <-s.register:
			s.clientsMu.Lock()
			s.clients[client] = true
			n := len(s.clients)
			s.clientsMu.Unlock()
			s.log.Infow("WS Server: client connected", "from", client.ip, "clients", n)

		case client := <-s.unregister:
			s.clientsMu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
				s.log.Infow("WS Server: client disconnected", "from", client.ip, "clients", len(s.clients))
			}
			s.clientsMu.Unlock()

		case message := <-s.broadcast:
			s.broadcastMessage(message)

		case <-s.shutdown:
			return
		}
	}
}

func (s *WSServer) broadcastMessage(message protocol.Message) {
	jsonMsg, err := json.Marshal(message)
	if err != nil {
		s.log.Warnw("WS Server: failed to marshal broadcast", "error", err)
		return
	}

	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for client := range s.clients {
		select {
		case client.send <- jsonMsg:
		default:
			close(client.send)
			delete(s.clients, client)
		}
	}
}

// ServeHTTP upgrades the request and starts the peer's pumps.
func (s *WSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("WS Server: failed to upgrade connection", "error", err)
		return
	}

	client := &wsPeer{
		server: s,
		conn:   conn,
		send:   make(chan []byte, 256),
		ip:     r.RemoteAddr,
	}

	s.register <- client

	go client.writePump()
	go client.readPump()
}

// BroadcastResize tells every client the host desktop is now width x height.
func (s *WSServer) BroadcastResize(width, height int) error {
	msg, err := protocol.NewMessage(protocol.TypeResize, protocol.ResizePayload{Width: width, Height: height})
	if err != nil {
		return err
	}
	select {
	case s.broadcast <- msg:
	case <-s.shutdown:
	}
	return nil
}

// Clients returns the number of connected clients.
func (s *WSServer) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Close stops the hub; connected peers are closed by their pumps.
func (s *WSServer) Close() error {
	s.closeOnce.Do(func() { close(s.shutdown) })
	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (c *wsPeer) readPump() {
	defer func() {
		select {
		case c.server.unregister <- c:
		case <-c.server.shutdown:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.server.log.Warnw("WS Server: read error", "from", c.ip, "error", err)
			}
			return
		}

		if !c.handleMessage(message) {
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *wsPeer) writePump() {
	ticker := time.NewTicker(50 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.server.shutdown:
			return
		}
	}
}

// handleMessage returns false when the peer must be dropped.
func (c *wsPeer) handleMessage(data []byte) bool {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.server.log.Warnw("WS Server: invalid message format", "from", c.ip, "error", err)
		return true
	}

	switch msg.Type {
	case protocol.TypeAuth:
		var auth protocol.AuthPayload
		if err := msg.Decode(&auth); err != nil {
			c.server.log.Warnw("WS Server: invalid auth", "from", c.ip, "error", err)
			return false
		}
		if c.server.token != "" && auth.Token != c.server.token {
			c.server.log.Warnw("WS Server: rejected client", "from", c.ip, "name", auth.ClientName)
			return false
		}
		c.authed = true
		c.server.log.Infow("WS Server: client authenticated", "from", c.ip, "name", auth.ClientName, "version", auth.ClientVersion)
		if c.server.OnAuth != nil {
			c.server.OnAuth(c.ip, auth.ClientName)
		}

	case protocol.TypeInput:
		if !c.authed {
			c.server.log.Warnw("WS Server: input before auth", "from", c.ip)
			return false
		}
		var ev protocol.Event
		if err := msg.Decode(&ev); err != nil {
			c.server.log.Warnw("WS Server: invalid input", "from", c.ip, "error", err)
			return true
		}
		if c.server.OnEvent != nil {
			c.server.OnEvent(c.ip, ev)
		}

	case protocol.TypePing:
		// keepalive only
	}
	return true
}
