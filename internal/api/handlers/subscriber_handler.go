package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sipca/backend/internal/metrics"
	"github.com/sipca/backend/internal/registry"
	"github.com/sipca/backend/pkg/logger"
)

type SubscriberHandler struct {
	store registry.Store
}

func NewSubscriberHandler(store registry.Store) *SubscriberHandler {
	return &SubscriberHandler{store: store}
}

func (h *SubscriberHandler) ListSubscribers(c *fiber.Ctx) error {
	recipients, err := h.store.List()
	if err != nil {
		logger.Error("Failed to list subscribers", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list subscribers",
		})
	}

	metrics.Subscribers.Set(float64(len(recipients)))

	subscribers := make([]fiber.Map, 0, len(recipients))
	for _, rec := range recipients {
		subscribers = append(subscribers, fiber.Map{
			"identity":      rec.Identity,
			"name":          rec.Name,
			"subscribed_at": rec.SubscribedAt,
		})
	}

	return c.JSON(fiber.Map{
		"count":       len(subscribers),
		"subscribers": subscribers,
	})
}

func (h *SubscriberHandler) Unsubscribe(c *fiber.Ctx) error {
	identity := c.Params("identity")
	if identity == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "identity is required",
		})
	}

	if err := h.store.Unsubscribe(identity); err != nil {
		logger.Error("Failed to unsubscribe recipient", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to unsubscribe",
		})
	}

	return c.JSON(fiber.Map{"removed": identity})
}
