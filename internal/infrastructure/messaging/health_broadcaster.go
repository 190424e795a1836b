// Package messaging pushes live queue and cache health to operator websockets.
package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 4
)

// SnapshotFunc produces the payload sent on each tick.
type SnapshotFunc func(ctx context.Context) (any, error)

// HealthClient represents a single connected operator client.
type HealthClient struct {
	Conn *websocket.Conn
	Send chan []byte
}

func NewHealthClient(conn *websocket.Conn) *HealthClient {
	return &HealthClient{Conn: conn, Send: make(chan []byte, sendBuffer)}
}

// HealthBroadcaster manages all connected clients and broadcasts snapshots.
type HealthBroadcaster struct {
	clients    map[*HealthClient]bool
	register   chan *HealthClient
	unregister chan *HealthClient
	done       chan struct{}
	snapshot   SnapshotFunc
	interval   time.Duration
	logger     *logging.ChanneledLogger
	mu         sync.RWMutex
}

func NewHealthBroadcaster(snapshot SnapshotFunc, interval time.Duration, logger *logging.ChanneledLogger) *HealthBroadcaster {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &HealthBroadcaster{
		clients:    make(map[*HealthClient]bool),
		register:   make(chan *HealthClient),
		unregister: make(chan *HealthClient),
		done:       make(chan struct{}),
		snapshot:   snapshot,
		interval:   interval,
		logger:     logger,
	}
}

// Run starts the broadcaster's main loop. This should be run as a goroutine.
func (b *HealthBroadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	defer close(b.done)

	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			for client := range b.clients {
				delete(b.clients, client)
				close(client.Send)
			}
			b.mu.Unlock()
			return

		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			count := len(b.clients)
			b.mu.Unlock()
			b.logger.System().Info("Health stream client registered", "clients", count)
			b.sendTo(ctx, client)

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Send)
			}
			count := len(b.clients)
			b.mu.Unlock()
			b.logger.System().Info("Health stream client unregistered", "clients", count)

		case <-ticker.C:
			b.broadcast(ctx)
		}
	}
}

// Register reports false once the broadcaster has stopped.
func (b *HealthBroadcaster) Register(client *HealthClient) bool {
	select {
	case b.register <- client:
		return true
	case <-b.done:
		return false
	}
}

func (b *HealthBroadcaster) Unregister(client *HealthClient) {
	select {
	case b.unregister <- client:
	case <-b.done:
	}
}

func (b *HealthBroadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *HealthBroadcaster) message(ctx context.Context) ([]byte, bool) {
	payload, err := b.snapshot(ctx)
	if err != nil {
		b.logger.System().Error("Health snapshot failed", "error", err.Error())
		return nil, false
	}
	message, err := json.Marshal(payload)
	if err != nil {
		b.logger.System().Error("Error marshaling health snapshot", "error", err.Error())
		return nil, false
	}
	return message, true
}

func (b *HealthBroadcaster) sendTo(ctx context.Context, client *HealthClient) {
	message, ok := b.message(ctx)
	if !ok {
		return
	}
	select {
	case client.Send <- message:
	default:
	}
}

// broadcast skips clients whose buffer is full rather than blocking the loop.
func (b *HealthBroadcaster) broadcast(ctx context.Context) {
	if b.ClientCount() == 0 {
		return
	}
	message, ok := b.message(ctx)
	if !ok {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients {
		select {
		case client.Send <- message:
		default:
		}
	}
}

// WritePump forwards queued messages to the connection until Send closes or
// a write fails.
func (c *HealthClient) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump discards client messages and returns when the peer goes away.
func (c *HealthClient) ReadPump() {
	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
