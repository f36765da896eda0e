package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"salespulse/internal/infrastructure"
)

// Event types pushed to dashboard clients.
const (
	TypeConnection = "connection"
	TypeDataUpdate = "data_update"
)

// Event is the envelope of every message sent to clients.
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	TraceID   string    `json:"trace_id,omitempty"`
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	running bool
	quit    chan struct{}
	done    chan struct{}

	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// NewHub creates a hub. Call Start before registering clients.
func NewHub(metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		metrics:    metrics,
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
	}
}

// Start runs the hub loop in its own goroutine. It is idempotent.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

func (h *Hub) run() {
	defer close(h.done)
	ctx := context.Background()
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.RecordWebSocketClients(ctx, 1)

			h.logger.Info("client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			h.sendTo(client, Event{
				Type:      TypeConnection,
				Data:      map[string]string{"status": "connected", "client_id": client.id},
				Timestamp: time.Now().UTC(),
				TraceID:   client.traceID,
			})

		case client := <-h.unregister:
			h.drop(client, "client unregistered")

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					h.drop(client, "client send buffer full, disconnecting")
				}
			}
			h.logger.Debug("broadcast delivered",
				slog.Int("clients", len(clients)),
				slog.Int("message_size", len(message)))
		}
	}
}

func (h *Hub) drop(client *Client, msg string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.RecordWebSocketClients(context.Background(), -1)
	h.logger.Info(msg,
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
}

func (h *Hub) sendTo(client *Client, e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("failed to marshal event", slog.String("type", e.Type), slog.String("error", err.Error()))
		return
	}
	select {
	case client.send <- data:
	default:
		h.logger.Warn("client buffer full, event dropped",
			slog.String("client_id", client.id),
			slog.String("type", e.Type))
	}
}

// Broadcast queues an event for every connected client. It never blocks:
// when the queue is full or the hub is stopped the event is dropped.
func (h *Hub) Broadcast(ctx context.Context, eventType string, data any) {
	e := Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
		TraceID:   traceID(ctx),
	}
	payload, err := json.Marshal(e)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to marshal event",
			slog.String("type", eventType),
			slog.String("error", err.Error()))
		return
	}

	select {
	case <-h.quit:
		return
	default:
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.WarnContext(ctx, "broadcast queue full, event dropped", slog.String("type", eventType))
	}
}

func traceID(ctx context.Context) string {
	if id := infrastructure.TraceIDFromContext(ctx); id != "" {
		return id
	}
	return infrastructure.GetTraceID(ctx)
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop ends the hub loop and closes every client's send channel.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}
