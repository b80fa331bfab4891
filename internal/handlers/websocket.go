package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/sentio/internal/common"
	"github.com/ternarybob/sentio/internal/interfaces"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is the envelope sent to websocket clients.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	TS      time.Time   `json:"ts"`
}

// WebSocketHandler relays pipeline events to connected websocket clients.
type WebSocketHandler struct {
	logger           arbor.ILogger
	clients          map[*websocket.Conn]bool
	clientMutex      map[*websocket.Conn]*sync.Mutex
	mu               sync.RWMutex
	events           interfaces.EventService
	throttlers       map[string]*rate.Limiter
	allowedEvents    map[string]bool
	serverInstanceID string
}

// NewWebSocketHandler creates the event feed handler and subscribes it to
// the pipeline event types.
func NewWebSocketHandler(eventService interfaces.EventService, logger arbor.ILogger, config *common.WebSocketConfig) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]bool),
		clientMutex:      make(map[*websocket.Conn]*sync.Mutex),
		events:           eventService,
		throttlers:       make(map[string]*rate.Limiter),
		allowedEvents:    make(map[string]bool),
		serverInstanceID: uuid.New().String(),
	}

	// Whitelist pattern: empty list means allow all event types.
	if config != nil && len(config.AllowedEvents) > 0 {
		for _, eventType := range config.AllowedEvents {
			h.allowedEvents[eventType] = true
		}
		logger.Debug().
			Int("allowed_events", len(h.allowedEvents)).
			Msg("Initialized event whitelist for websocket feed")
	}

	// Per-story events can be chatty during batch processing. The batch
	// and query events are low frequency and broadcast unthrottled.
	if config != nil && config.ThrottleInterval != "" {
		if interval, err := time.ParseDuration(config.ThrottleInterval); err == nil && interval > 0 {
			h.throttlers[interfaces.EventStoryCreated] = rate.NewLimiter(rate.Every(interval), 1)
			h.throttlers[interfaces.EventStoryMerged] = rate.NewLimiter(rate.Every(interval), 1)
			logger.Debug().
				Str("interval", config.ThrottleInterval).
				Msg("Throttler initialized for story events")
		} else if err != nil {
			logger.Warn().
				Err(err).
				Str("interval", config.ThrottleInterval).
				Msg("Failed to parse throttle interval, throttling disabled")
		}
	}

	if eventService != nil {
		h.subscribeToPipelineEvents()
	}

	return h
}

func (h *WebSocketHandler) subscribeToPipelineEvents() {
	for _, eventType := range []string{
		interfaces.EventStoryCreated,
		interfaces.EventStoryMerged,
		interfaces.EventBatchProcessed,
		interfaces.EventQueryServed,
	} {
		h.events.Subscribe(eventType, h.relayEvent)
	}
}

// relayEvent applies the whitelist and throttle before broadcasting.
func (h *WebSocketHandler) relayEvent(event interfaces.Event) {
	if len(h.allowedEvents) > 0 && !h.allowedEvents[event.Type] {
		return
	}
	if limiter := h.throttlers[event.Type]; limiter != nil && !limiter.Allow() {
		return
	}

	h.broadcast(WSMessage{
		Type:    event.Type,
		Payload: event.Data,
		TS:      time.Now().UTC(),
	})
}

// broadcast sends a message to every connected client. Writes to each
// connection are serialized through its own mutex.
func (h *WebSocketHandler) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", msg.Type).Msg("Failed to marshal websocket message")
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, h.clientMutex[conn])
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		mutex := mutexes[i]
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Str("event_type", msg.Type).Msg("Failed to send event to client")
		}
	}
}

// HandleWebSocket handles GET /ws connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", clientCount)

	h.sendHello(conn)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", remaining)
	}()

	// Read loop keeps the connection alive and detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}

// sendHello sends the connection greeting. Clients use the server instance
// id to detect restarts and clear stale state.
func (h *WebSocketHandler) sendHello(conn *websocket.Conn) {
	msg := WSMessage{
		Type: "hello",
		Payload: map[string]string{
			"service":            "sentio",
			"status":             "ONLINE",
			"server_instance_id": h.serverInstanceID,
		},
		TS: time.Now().UTC(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal hello message")
		return
	}

	h.mu.RLock()
	mutex := h.clientMutex[conn]
	h.mu.RUnlock()

	if mutex != nil {
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to send hello message")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
