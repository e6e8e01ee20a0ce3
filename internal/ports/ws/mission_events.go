package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"drone-survey-system/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// client є одним підключеним дашбордом
type client struct {
	owner uuid.UUID
	conn  *websocket.Conn
	send  chan []byte
}

// MissionEventHub розсилає події місій підключеним дашбордам їхніх власників
type MissionEventHub struct {
	upgrader websocket.Upgrader
	clients  map[uuid.UUID]map[*client]struct{}
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewMissionEventHub створює новий MissionEventHub. Порожній allowedOrigins
// дозволяє будь-яке походження.
func NewMissionEventHub(allowedOrigins []string, logger *slog.Logger) *MissionEventHub {
	h := &MissionEventHub{
		clients: make(map[uuid.UUID]map[*client]struct{}),
		logger:  logger.With("component", "mission_event_hub"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// HandleConnection оброблює WebSocket з'єднання
func (h *MissionEventHub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	// Аутентифікація користувача
	owner, err := authenticateUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade connection", "error", err)
		return
	}

	c := &client{owner: owner, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)

	go h.writePump(c)
	go h.readPump(c)
}

// PublishMissionEvent надсилає подію всім з'єднанням власника місії.
// Повільні клієнти з переповненим буфером пропускають подію.
func (h *MissionEventHub) PublishMissionEvent(event domain.MissionEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal mission event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[event.OwnerID] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping mission event for slow client", "owner", event.OwnerID, "mission_id", event.MissionID)
		}
	}
}

// Connections повертає кількість відкритих з'єднань власника
func (h *MissionEventHub) Connections(owner uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[owner])
}

// Close закриває всі з'єднання
func (h *MissionEventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for owner, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, owner)
	}
}

func (h *MissionEventHub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.owner]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.owner] = set
	}
	set[c] = struct{}{}
}

func (h *MissionEventHub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.owner]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.owner)
	}
}

// readPump тримає з'єднання живим та виявляє від'єднання.
// Вхідні повідомлення від дашборду ігноруються.
func (h *MissionEventHub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket error", "owner", c.owner, "error", err)
			}
			return
		}
	}
}

// writePump пересилає події з буфера клієнта та надсилає ping
func (h *MissionEventHub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// authenticateUser визначає користувача за параметром token або заголовком X-User-ID
func authenticateUser(r *http.Request) (uuid.UUID, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("X-User-ID")
	}
	if token == "" {
		return uuid.Nil, errors.New("missing authentication token")
	}

	owner, err := uuid.Parse(token)
	if err != nil || owner == uuid.Nil {
		return uuid.Nil, errors.New("invalid authentication token")
	}
	return owner, nil
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
