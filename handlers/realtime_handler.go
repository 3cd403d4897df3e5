package handlers

import (
	"log"

	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/xavicoins/progression/utils"
	"github.com/xavicoins/progression/websocket"
)

type RealtimeHandler struct {
	Hub       *websocket.Hub
	JWTSecret string
}

type authMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// ServeWs authenticates the connection with its first frame and then keeps
// it registered until the client goes away. Clients only receive.
func (h *RealtimeHandler) ServeWs(c *websocketcontrib.Conn) {
	var msg authMessage
	if err := c.ReadJSON(&msg); err != nil || msg.Type != "auth" {
		log.Printf("WebSocket auth failed: invalid or missing auth message, error: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		c.Close()
		return
	}

	claims, err := utils.ParseToken(h.JWTSecret, msg.Token)
	if err != nil {
		log.Printf("WebSocket auth failed: invalid token, error: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		c.Close()
		return
	}
	userID, err := utils.UserIDFromClaims(claims)
	if err != nil {
		log.Printf("WebSocket auth failed: invalid user_id, error: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid user ID"})
		c.Close()
		return
	}

	// After Register only the hub writes to c.
	if err := c.WriteJSON(websocket.Event{Type: "authenticated", Payload: fiber.Map{"user_id": userID}}); err != nil {
		c.Close()
		return
	}
	client := &websocket.Client{UserID: userID, Conn: c}
	if err := h.Hub.Register(client); err != nil {
		log.Printf("🔥 WebSocket register failed for %s: %v", userID, err)
		c.Close()
		return
	}
	defer func() {
		h.Hub.Unregister(client)
		c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseAbnormalClosure, websocketcontrib.CloseNormalClosure) {
				log.Printf("WebSocket closed for client %s", userID)
			} else {
				log.Printf("WebSocket read error for client %s: %v", userID, err)
			}
			return
		}
	}
}

// UpgradeRequired rejects plain HTTP requests on the websocket route.
func UpgradeRequired(c *fiber.Ctx) error {
	if !websocketcontrib.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}
