package handlers

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sgpfreelancing/platform_be/internal/models"
	"github.com/sgpfreelancing/platform_be/internal/realtime"
	"github.com/sgpfreelancing/platform_be/internal/store"
)

// MessageHandler serves the direct-message endpoints and the websocket
// connection feeding realtime delivery. New messages are also published to
// Redis so other instances can notify the recipient.
type MessageHandler struct {
	Store store.Store
	Hub   *realtime.Hub
	RDB   *redis.Client
}

func NewMessageHandler(st store.Store, hub *realtime.Hub, rdb *redis.Client) *MessageHandler {
	return &MessageHandler{Store: st, Hub: hub, RDB: rdb}
}

type SendMessageReq struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req SendMessageReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Content) == "" {
		return fail(c, fiber.StatusBadRequest, "content is required")
	}

	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid receiver_id")
	}
	if receiverID == uid {
		return fail(c, fiber.StatusBadRequest, "cannot message yourself")
	}
	if _, err := h.Store.GetUser(receiverID); err != nil {
		return fail(c, fiber.StatusNotFound, "receiver not found")
	}

	msg := &models.Message{
		SenderID:   uid,
		ReceiverID: receiverID,
		Content:    req.Content,
	}
	if err := h.Store.CreateMessage(msg); err != nil {
		log.Println("message: create failed:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to send message")
	}

	h.Hub.SendToPair(uid, receiverID, fiber.Map{
		"type":    "new_message",
		"message": msg,
	})

	if h.RDB != nil {
		notif := map[string]interface{}{
			"type":      "chat_message",
			"sender_id": uid.String(),
			"content":   req.Content,
		}
		payload, _ := json.Marshal(notif)
		h.RDB.Publish(context.Background(), "notifications:"+receiverID.String(), payload)
	}

	return created(c, msg)
}

// Conversation returns the message history with another user and marks the
// incoming half read.
func (h *MessageHandler) Conversation(c *fiber.Ctx) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}
	otherID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid userId")
	}

	msgs, err := h.Store.Conversation(uid, otherID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch messages")
	}
	if err := h.Store.MarkConversationRead(uid, otherID); err != nil {
		log.Println("message: mark read failed:", err)
	}
	return ok(c, msgs)
}

// MarkRead flags the incoming half of a conversation as read without
// fetching it.
func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}
	otherID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid userId")
	}
	if err := h.Store.MarkConversationRead(uid, otherID); err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update messages")
	}
	return ok(c, fiber.Map{"read": true})
}

func (h *MessageHandler) UnreadCount(c *fiber.Ctx) error {
	uid, err := userUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "unauthorized")
	}
	count, err := h.Store.UnreadCount(uid)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to count messages")
	}
	return ok(c, fiber.Map{"unread": count})
}

// WebSocket keeps a client connection registered with the hub until the
// peer goes away. The route sits outside the cookie-JWT middleware;
// identification is by user_id query parameter only, which scopes what a
// connection receives but does not authenticate it.
func (h *MessageHandler) WebSocket(c *websocket.Conn) {
	userID := c.Query("user_id")
	uid, err := uuid.Parse(userID)
	if err != nil {
		log.Println("ws: invalid user_id:", userID)
		c.Close()
		return
	}

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: uid,
		Conn:   realtime.NewWebSocketConn(c),
		Send:   make(chan []byte, 256),
	}

	h.Hub.RegisterClient(client)
	defer h.Hub.UnregisterClient(client)

	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	for {
		var payload map[string]interface{}
		if err := c.ReadJSON(&payload); err != nil {
			log.Printf("ws: read error for user %s: %v", userID, err)
			break
		}
		if t, ok := payload["type"].(string); ok && t == "pong" {
			continue
		}
	}
}
