package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"support-chatbot-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RoomEvent is the envelope every out-of-band message travels in. Event names
// mirror what the chat frontend listens for: tokenStream, stageUpdate,
// uploadStatus, removeThumbnails, embeddingComplete.
type RoomEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type Hub struct {
	// Registered clients map: RoomID -> List of Clients (multi-tab)
	clients map[string][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb *redis.Client

	// instanceID lets the subscriber skip messages this instance published,
	// since local delivery already happened.
	instanceID string

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.RoomID] = append(h.clients[client.RoomID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"room_id": client.RoomID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.RoomID]; ok {
				for i, c := range clients {
					if c == client {
						// Remove from slice
						h.clients[client.RoomID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.RoomID]) == 0 {
					delete(h.clients, client.RoomID)
					h.logger.Info("Hub", "Room emptied", map[string]interface{}{"room_id": client.RoomID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// SendToRoom delivers an event to every client joined to the room, locally
// and on other instances via Redis.
func (h *Hub) SendToRoom(roomID string, event string, eventData interface{}) {
	data, _ := json.Marshal(RoomEvent{Event: event, Data: eventData})

	h.deliverLocal(roomID, data)

	if h.rdb != nil {
		payload := map[string]interface{}{
			"target_room_id": roomID,
			"origin":         h.instanceID,
			"message":        json.RawMessage(data),
		}
		jsonPayload, _ := json.Marshal(payload)
		h.rdb.Publish(context.Background(), "cluster_events", jsonPayload)
	}
}

func (h *Hub) deliverLocal(roomID string, data []byte) {
	h.mu.RLock()
	clients := h.clients[roomID]
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping message", map[string]interface{}{"room_id": roomID})
			close(client.Send)
			h.unregister <- client
		}
	}
}

func (h *Hub) subscribeToRedis() {
	// All instances subscribe to "cluster_events". When a message arrives,
	// the instance delivers to any local clients of the target room, except
	// when it published the message itself (local delivery already done).
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			TargetRoomID string          `json:"target_room_id"`
			Origin       string          `json:"origin"`
			Message      json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}
		if payload.TargetRoomID == "" || payload.Origin == h.instanceID {
			continue
		}
		h.deliverLocal(payload.TargetRoomID, payload.Message)
	}
}
