package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// ClientBufferSize is the send buffer size per client
	ClientBufferSize = 16
	// SendTimeout bounds how long the hub waits on a slow client
	SendTimeout = 100 * time.Millisecond
)

// Client is one connected desktop UI view.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	close(c.send)
	_ = c.conn.Close()
}

// Hub tracks connected clients and broadcasts events to them.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*websocket.Conn]*Client
	broadcast  chan []byte
	register   chan *Client
	unregister chan *websocket.Conn
	done       chan struct{}
	stopOnce   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
}

// Run is the hub event loop; it returns when ctx ends or Stop is called.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.Stop()
		h.closeAll()
	}()
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if client, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				client.Close()
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.send <- message:
				case <-time.After(SendTimeout):
					// slow client, drop the message
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			return
		case <-h.done:
			return
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, client := range h.clients {
		client.Close()
		delete(h.clients, conn)
	}
}

// Stop ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register adds conn and returns its client, or nil once the hub stopped.
func (h *Hub) Register(conn *websocket.Conn) *Client {
	client := &Client{
		conn: conn,
		send: make(chan []byte, ClientBufferSize),
		done: make(chan struct{}),
	}
	select {
	case h.register <- client:
		return client
	case <-h.done:
		return nil
	}
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Notify broadcasts ev without blocking the caller; the event is dropped
// when the broadcast queue is full.
func (h *Hub) Notify(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
	default:
	}
	return nil
}
