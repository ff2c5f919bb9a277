package handlers

import (
	"log"
	"os"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/halcyonchat/halcyon-backend/internal/handlers/ws"
	"github.com/halcyonchat/halcyon-backend/internal/service"
)

type WebSocketHandler struct {
	hub        *ws.Hub
	presence   *service.PresenceService
	dispatcher *service.Dispatcher
	reactions  *service.ReactionService
	mentions   *service.MentionService
	groups     *service.GroupService
}

func NewWebSocketHandler(
	hub *ws.Hub,
	presence *service.PresenceService,
	dispatcher *service.Dispatcher,
	reactions *service.ReactionService,
	mentions *service.MentionService,
	groups *service.GroupService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:        hub,
		presence:   presence,
		dispatcher: dispatcher,
		reactions:  reactions,
		mentions:   mentions,
		groups:     groups,
	}
}

// GetHub returns the hub instance (useful for pushing from other handlers).
func (h *WebSocketHandler) GetHub() *ws.Hub {
	return h.hub
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID := c.Locals("userID").(uint)
	wsDebug := os.Getenv("WS_DEBUG") == "true"

	// Each session gets a server-assigned connection ID; a user on several
	// devices owns several.
	connID := uuid.NewString()

	supportsGzip := c.Query("gzip") == "1" || c.Headers("X-Supports-Gzip") == "1"

	h.hub.Register(connID, userID, c, supportsGzip)
	h.presence.HandleConnect(userID, connID)

	defer func() {
		// Eviction from channels and the registry happens synchronously
		// before the read loop returns, so no later broadcast decision can
		// include this connection.
		h.hub.Unregister(connID)
		h.presence.HandleDisconnect(userID, connID)
	}()

	log.Printf("User %d connected via WebSocket (session %s)", userID, connID)

	ctx := &ws.MessageContext{
		ConnID:     connID,
		UserID:     userID,
		Hub:        h.hub,
		Dispatcher: h.dispatcher,
		Reactions:  h.reactions,
		Mentions:   h.mentions,
		Groups:     h.groups,
	}

	for {
		messageType, messageBytes, err := c.ReadMessage()
		if err != nil {
			log.Printf("Error reading message from user %d: %v", userID, err)
			break
		}

		if wsDebug {
			log.Printf("ws_recv user_id=%d session=%s frame_type=%d size=%d", userID, connID, messageType, len(messageBytes))
		}

		if messageType == websocket.BinaryMessage {
			decompressed, err := ws.DecompressMessage(messageBytes)
			if err != nil {
				log.Printf("Error decompressing message from user %d: %v", userID, err)
				h.hub.SendError(connID, "decompression_failed", "Failed to decompress message", err.Error())
				continue
			}
			messageBytes = decompressed
		}

		msg, err := ws.Deserialize(messageBytes)
		if err != nil {
			log.Printf("Error deserializing message from user %d: %v", userID, err)
			h.hub.SendError(connID, "invalid_message", "Invalid message format", err.Error())
			continue
		}

		if err := msg.Process(ctx); err != nil {
			log.Printf("Error processing message %s from user %d: %v", msg.GetType(), userID, err)
			h.hub.SendError(connID, "processing_failed", "Failed to process message", err.Error())
		}
	}

	log.Printf("User %d disconnected from WebSocket (session %s)", userID, connID)
}
