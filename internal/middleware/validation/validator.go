package validation

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var (
	injectionPattern = regexp.MustCompile(`(?i)(union|select|insert|update|delete|drop|create|alter|exec)\s`)
	xssPattern       = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=|onclick=)`)
)

type Config struct {
	MaxMessageLength    int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware rejects malformed or hostile request bodies before they reach
// the handlers. Numeric sanity of sample values is the preprocessor's job;
// this layer only guards shape and content.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxMessageLength == 0 {
		cfg.MaxMessageLength = 5000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json", "multipart/form-data"}
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == "POST" || c.Method() == "PUT" {
			contentType := c.Get("Content-Type")
			if contentType != "" {
				allowed := false
				for _, allowedType := range cfg.AllowedContentTypes {
					if strings.Contains(contentType, allowedType) {
						allowed = true
						break
					}
				}
				if !allowed {
					return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
						"error": "Unsupported content type",
					})
				}
			}
		}

		if strings.Contains(c.Path(), "/api/v1/chat") && c.Method() == "POST" {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			message, ok := req["message"].(string)
			if !ok || message == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Message is required and must be a string",
				})
			}

			if len(message) > cfg.MaxMessageLength {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Message exceeds maximum length",
				})
			}

			if injectionPattern.MatchString(message) || xssPattern.MatchString(message) {
				cfg.Logger.Warn("Suspicious chat message rejected",
					zap.String("ip", c.IP()),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid message content",
				})
			}
		}

		return c.Next()
	}
}
