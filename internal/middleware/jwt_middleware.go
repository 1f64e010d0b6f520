package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"tokoadmin/internal/services"
)

// Locals keys set by AuthRequired.
const (
	LocalOperatorID = "operator_id"
	LocalUsername   = "username"
)

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService, logger *slog.Logger) fiber.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			logger.Info("jwt validation failed", slog.String("path", c.Path()), slog.String("error", err.Error()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		c.Locals(LocalOperatorID, claims["operator_id"])
		c.Locals(LocalUsername, claims["username"])
		return c.Next()
	}
}

// Operator returns the username stored by AuthRequired, or "" when absent.
func Operator(c *fiber.Ctx) string {
	username, _ := c.Locals(LocalUsername).(string)
	return username
}
