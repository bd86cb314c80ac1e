// Package wshub owns the WebSocket connections of push clients. Each
// connection gets a numeric id, a reader that forwards frames to the
// service, and a writer draining a buffered queue so pushes never block.
package wshub

import (
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tinytelemetry/msglog/internal/model"
)

const (
	// DefaultSendBuffer is the per-connection push queue length.
	DefaultSendBuffer = 64
	// DefaultMaxMessageSize bounds inbound frames (1 MB).
	DefaultMaxMessageSize = 1024 * 1024

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Config holds tunable parameters for the hub.
type Config struct {
	SendBuffer     int
	MaxMessageSize int64
}

// Hub tracks live connections by client id.
type Hub struct {
	handler  model.WebSocketHandler
	upgrader websocket.Upgrader
	sendBuf  int
	maxMsg   int64

	nextID atomic.Uint32

	mu     sync.RWMutex
	conns  map[uint32]*conn
	closed bool

	wg sync.WaitGroup
}

type conn struct {
	id        uint32
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

var _ model.Pusher = (*Hub)(nil)

// NewHub creates a hub delivering client events to handler.
func NewHub(handler model.WebSocketHandler, conf ...Config) *Hub {
	sendBuf := DefaultSendBuffer
	maxMsg := int64(DefaultMaxMessageSize)
	if len(conf) > 0 {
		if conf[0].SendBuffer > 0 {
			sendBuf = conf[0].SendBuffer
		}
		if conf[0].MaxMessageSize > 0 {
			maxMsg = conf[0].MaxMessageSize
		}
	}
	return &Hub{
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sendBuf: sendBuf,
		maxMsg:  maxMsg,
		conns:   make(map[uint32]*conn),
	}
}

// Serve upgrades the request and runs the connection until it closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("wshub: upgrade: %v", err)
		return
	}

	c := &conn{
		id:   h.nextID.Add(1),
		ws:   ws,
		send: make(chan []byte, h.sendBuf),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = ws.Close()
		return
	}
	h.conns[c.id] = c
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	h.handler.ClientConnected(c.id, r.URL.Path)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(c)
	}()

	h.readLoop(c)

	h.unregister(c)
	<-writerDone
	h.handler.ClientDisconnected(c.id)
}

// Push queues payload for client id. It reports false when the client is
// gone or its queue is full.
func (h *Hub) Push(id uint32, payload []byte) bool {
	h.mu.RLock()
	c, ok := h.conns[id]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close disconnects every client and waits for their handlers to finish.
// Connections upgraded after Close are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.shutdown()
	}
	h.wg.Wait()
}

func (h *Hub) unregister(c *conn) {
	h.mu.Lock()
	delete(h.conns, c.id)
	h.mu.Unlock()
	c.shutdown()
}

func (c *conn) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (h *Hub) readLoop(c *conn) {
	c.ws.SetReadLimit(h.maxMsg)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("wshub: client %d read error: %v", c.id, err)
			}
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		h.handler.HandleWebSocket(c.id, data)
	}
}

func (h *Hub) writeLoop(c *conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("wshub: client %d write error: %v", c.id, err)
				c.shutdown()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown()
				return
			}
		}
	}
}
