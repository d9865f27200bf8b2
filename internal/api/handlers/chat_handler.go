package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sipca/backend/internal/chat"
	"github.com/sipca/backend/pkg/logger"
)

type ChatHandler struct {
	assistant *chat.Assistant
}

func NewChatHandler(assistant *chat.Assistant) *ChatHandler {
	return &ChatHandler{assistant: assistant}
}

func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	if h.assistant == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Chat assistant is not configured",
		})
	}

	var req struct {
		ConversationID string `json:"conversation_id"`
		Message        string `json:"message"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message is required",
		})
	}

	if req.ConversationID == "" {
		req.ConversationID = uuid.New().String()
	}

	reply, err := h.assistant.Chat(c.Context(), req.ConversationID, req.Message)
	if err != nil {
		logger.Error("Chat turn failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate a reply",
		})
	}

	return c.JSON(fiber.Map{
		"conversation_id": req.ConversationID,
		"reply":           reply,
	})
}

func (h *ChatHandler) ResetConversation(c *fiber.Ctx) error {
	if h.assistant == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Chat assistant is not configured",
		})
	}

	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Conversation id is required",
		})
	}

	h.assistant.Reset(id)
	return c.JSON(fiber.Map{"reset": id})
}
