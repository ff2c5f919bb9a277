package ws

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/halcyonchat/halcyon-backend/internal/events"
)

// ClientConnection wraps a WebSocket connection with metadata. One per
// session; a user with several devices owns several of these.
type ClientConnection struct {
	ConnID       string
	UserID       uint
	Conn         *websocket.Conn
	LastPong     time.Time
	SupportsGzip bool
	PingTicker   *time.Ticker
	CloseChan    chan struct{}

	writeMu sync.Mutex
}

// Hub owns the transport handles for all live sessions, keyed by
// connection ID. It implements the push capability the services depend on;
// which connections to push is decided upstream.
type Hub struct {
	clients      map[string]*ClientConnection
	clientsMux   sync.RWMutex
	pingInterval time.Duration
	pongTimeout  time.Duration
}

func NewHub() *Hub {
	hub := &Hub{
		clients:      make(map[string]*ClientConnection),
		pingInterval: 30 * time.Second,
		pongTimeout:  90 * time.Second,
	}

	go hub.connectionHealthChecker()

	return hub
}

// Register adds a session with health monitoring.
func (h *Hub) Register(connID string, userID uint, conn *websocket.Conn, supportsGzip bool) {
	client := &ClientConnection{
		ConnID:       connID,
		UserID:       userID,
		Conn:         conn,
		LastPong:     time.Now(),
		SupportsGzip: supportsGzip,
		PingTicker:   time.NewTicker(h.pingInterval),
		CloseChan:    make(chan struct{}),
	}

	conn.SetPongHandler(func(appData string) error {
		h.clientsMux.Lock()
		if c, exists := h.clients[connID]; exists {
			c.LastPong = time.Now()
		}
		h.clientsMux.Unlock()
		return nil
	})
	conn.SetReadDeadline(time.Now().Add(h.pongTimeout))

	h.clientsMux.Lock()
	h.clients[connID] = client
	total := len(h.clients)
	h.clientsMux.Unlock()

	go h.pingRoutine(client)

	log.Printf("Session %s (user %d) connected to hub (total: %d, gzip: %v)", connID, userID, total, supportsGzip)
}

// Unregister removes a session.
func (h *Hub) Unregister(connID string) {
	h.clientsMux.Lock()
	if client, exists := h.clients[connID]; exists {
		if client.PingTicker != nil {
			client.PingTicker.Stop()
		}
		close(client.CloseChan)
	}
	delete(h.clients, connID)
	count := len(h.clients)
	h.clientsMux.Unlock()
	log.Printf("Session %s disconnected from hub (total: %d)", connID, count)
}

// Count returns the number of live sessions.
func (h *Hub) Count() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

// push writes one event envelope to one session. Compresses when the
// client supports gzip and the frame is large enough to benefit.
func (h *Hub) push(connID string, kind string, payload interface{}) error {
	h.clientsMux.RLock()
	client, exists := h.clients[connID]
	h.clientsMux.RUnlock()

	if !exists {
		// Session already gone; the registry decides recipients, so a
		// race here is harmless.
		return nil
	}

	jsonData, err := json.Marshal(Envelope{Type: kind, Payload: mustRaw(payload)})
	if err != nil {
		log.Printf("Error marshaling %s for session %s: %v", kind, connID, err)
		return err
	}

	finalData := jsonData
	frameType := websocket.TextMessage
	if client.SupportsGzip && len(jsonData) > 512 {
		if compressed, err := compressData(jsonData); err == nil && len(compressed) < len(jsonData) {
			finalData = compressed
			frameType = websocket.BinaryMessage
		}
	}

	client.writeMu.Lock()
	err = client.Conn.WriteMessage(frameType, finalData)
	client.writeMu.Unlock()
	if err != nil {
		log.Printf("Error pushing %s to session %s: %v", kind, connID, err)
		return err
	}
	return nil
}

// WriteTo writes one JSON frame to a session from the read-loop side:
// acks, error frames, pong replies. It shares the connection's write lock
// with push and the ping routine; the connection has concurrent writers
// otherwise. A session that is already gone is not an error.
func (h *Hub) WriteTo(connID string, v interface{}) error {
	h.clientsMux.RLock()
	client, exists := h.clients[connID]
	h.clientsMux.RUnlock()

	if !exists {
		return nil
	}

	client.writeMu.Lock()
	defer client.writeMu.Unlock()
	return client.Conn.WriteJSON(v)
}

// SendError reports a processing failure to the session.
func (h *Hub) SendError(connID, code, message, details string) error {
	return h.WriteTo(connID, ErrorResponse{
		Type:    "error",
		Error:   message,
		Code:    code,
		Details: details,
	})
}

func mustRaw(payload interface{}) json.RawMessage {
	raw, err := json.Marshal(payload)
	if err != nil {
		return json.RawMessage("{}")
	}
	return raw
}

// The typed push surface. One method per event kind so services never see
// a transport handle or an untyped payload.

func (h *Hub) PushMessageReceived(connID string, ev events.MessageReceived) error {
	return h.push(connID, events.KindMessageReceived, ev)
}

func (h *Hub) PushGroupMessageReceived(connID string, ev events.GroupMessageReceived) error {
	return h.push(connID, events.KindGroupMessageReceived, ev)
}

func (h *Hub) PushMessageRead(connID string, ev events.MessageRead) error {
	return h.push(connID, events.KindMessageRead, ev)
}

func (h *Hub) PushUserOnline(connID string, ev events.UserOnline) error {
	return h.push(connID, events.KindUserOnline, ev)
}

func (h *Hub) PushUserOffline(connID string, ev events.UserOffline) error {
	return h.push(connID, events.KindUserOffline, ev)
}

func (h *Hub) PushUserAddedToGroup(connID string, ev events.UserAddedToGroup) error {
	return h.push(connID, events.KindUserAddedToGroup, ev)
}

func (h *Hub) PushUserRemovedFromGroup(connID string, ev events.UserRemovedFromGroup) error {
	return h.push(connID, events.KindUserRemovedFromGroup, ev)
}

func (h *Hub) PushUserRoleChanged(connID string, ev events.UserRoleChanged) error {
	return h.push(connID, events.KindUserRoleChanged, ev)
}

func (h *Hub) PushGroupDeleted(connID string, ev events.GroupDeleted) error {
	return h.push(connID, events.KindGroupDeleted, ev)
}

func (h *Hub) PushReactionAdded(connID string, ev events.ReactionAdded) error {
	return h.push(connID, events.KindReactionAdded, ev)
}

func (h *Hub) PushReactionRemoved(connID string, ev events.ReactionRemoved) error {
	return h.push(connID, events.KindReactionRemoved, ev)
}

func (h *Hub) PushMentionReceived(connID string, ev events.MentionReceived) error {
	return h.push(connID, events.KindMentionReceived, ev)
}

func (h *Hub) PushMentionRead(connID string, ev events.MentionRead) error {
	return h.push(connID, events.KindMentionRead, ev)
}

func (h *Hub) PushUnreadMessages(connID string, ev events.UnreadMessages) error {
	return h.push(connID, events.KindUnreadMessages, ev)
}

func (h *Hub) PushUnreadGroupMessages(connID string, ev events.UnreadGroupMessages) error {
	return h.push(connID, events.KindUnreadGroupMessages, ev)
}

// pingRoutine sends periodic ping frames to keep the connection alive.
func (h *Hub) pingRoutine(client *ClientConnection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Ping routine recovered from panic for session %s: %v", client.ConnID, r)
		}
	}()

	for {
		select {
		case <-client.CloseChan:
			return
		case <-client.PingTicker.C:
			h.clientsMux.RLock()
			_, exists := h.clients[client.ConnID]
			h.clientsMux.RUnlock()
			if !exists {
				return
			}

			client.writeMu.Lock()
			err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second))
			client.writeMu.Unlock()
			if err != nil {
				log.Printf("Ping failed for session %s: %v", client.ConnID, err)
				h.Unregister(client.ConnID)
				return
			}
		}
	}
}

// connectionHealthChecker removes sessions that stopped answering pings.
func (h *Hub) connectionHealthChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		h.clientsMux.RLock()
		dead := make([]string, 0)
		now := time.Now()
		for connID, client := range h.clients {
			if now.Sub(client.LastPong) > h.pongTimeout {
				dead = append(dead, connID)
			}
		}
		h.clientsMux.RUnlock()

		for _, connID := range dead {
			log.Printf("Removing dead session %s (no pong received)", connID)
			h.Unregister(connID)
		}
	}
}

func compressData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	if _, err := gzipWriter.Write(data); err != nil {
		return nil, err
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecompressMessage inflates a gzip binary frame from a client.
func DecompressMessage(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
