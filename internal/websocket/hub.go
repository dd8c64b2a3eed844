package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"trend-finder-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "trendfinder_socket_events"

// Message is one outbound websocket frame.
type Message struct {
	Binary bool
	Data   []byte
}

type clusterPayload struct {
	Origin         string `json:"origin"`
	TargetClientID string `json:"target_client_id"`
	Binary         bool   `json:"binary"`
	Message        []byte `json:"message"`
}

type Hub struct {
	// client id -> open sockets of that device (several tabs)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	// Optional. Frames for devices connected to another instance travel over pub/sub.
	rdb *redis.Client

	instanceID string
	logger     logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

// Run processes registrations until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ClientID] = append(h.clients[client.ClientID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"client_id": client.ClientID})

		case client := <-h.unregister:
			h.mu.Lock()
			clients := h.clients[client.ClientID]
			for i, c := range clients {
				if c == client {
					h.clients[client.ClientID] = append(clients[:i], clients[i+1:]...)
					close(client.Send)
					break
				}
			}
			if len(h.clients[client.ClientID]) == 0 {
				delete(h.clients, client.ClientID)
				h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"client_id": client.ClientID})
			}
			h.mu.Unlock()
		}
	}
}

// Connected reports whether the device has a socket on this instance.
func (h *Hub) Connected(clientID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[clientID]) > 0
}

// EncodeJSON builds the text frame {"type": eventType, "data": data}.
func EncodeJSON(eventType string, data interface{}) (Message, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": data,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{Data: payload}, nil
}

// SendJSON delivers an EncodeJSON frame to every socket of the device.
func (h *Hub) SendJSON(clientID, eventType string, data interface{}) error {
	msg, err := EncodeJSON(eventType, data)
	if err != nil {
		return err
	}
	h.Send(clientID, msg)
	return nil
}

// Send delivers msg locally and publishes it for the other instances.
func (h *Hub) Send(clientID string, msg Message) {
	h.deliver(clientID, msg)

	if h.rdb == nil {
		return
	}
	jsonPayload, err := json.Marshal(clusterPayload{
		Origin:         h.instanceID,
		TargetClientID: clientID,
		Binary:         msg.Binary,
		Message:        msg.Data,
	})
	if err != nil {
		return
	}
	if err := h.rdb.Publish(context.Background(), clusterChannel, jsonPayload).Err(); err != nil {
		h.logger.Warn("Hub", "Failed to publish to cluster", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Hub) deliver(clientID string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[clientID] {
		select {
		case client.Send <- msg:
		default:
			if msg.Binary {
				// audio frames are dropped rather than stalling the socket
				continue
			}
			h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"client_id": clientID})
			go h.remove(client)
		}
	}
}

func (h *Hub) add(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterPayload
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.instanceID {
				continue
			}
			h.deliver(payload.TargetClientID, Message{Binary: payload.Binary, Data: payload.Message})
		}
	}
}
