package middleware

import (
	"crypto/subtle"

	"github.com/ashmitsharp/mydaily-api/internal/utils"
	"github.com/gofiber/fiber/v3"
)

// WebhookSecretHeader authenticates calls to the internal user webhooks
const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookAuth rejects internal calls that do not carry the shared secret. An
// empty secret leaves the routes open, which is only allowed outside
// production.
func WebhookAuth(secret string) fiber.Handler {
	return func(c fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}
		got := c.Get(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid webhook secret")
		}
		return c.Next()
	}
}
