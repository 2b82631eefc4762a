package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Jacintalama/socsargen-system/internal/auth/domain"
)

const userContextKey = "auth.user"

// Protected verifies the Bearer access token and loads the active account
// behind it into the request context. Deactivated accounts fail even with a
// token that is still cryptographically valid.
func (h *AuthHandler) Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Access denied. No token provided."})
		}

		claims, err := h.tokens.VerifyAccessToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token."})
		}

		user, err := h.repo.GetByID(c.Context(), claims.UserID)
		if err != nil {
			h.logger.Error().Err(err).Msg("auth middleware user lookup failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong. Please try again."})
		}
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found or inactive."})
		}

		c.Locals(userContextKey, user)

		return c.Next()
	}
}

// RequireRole gates a route to the given roles. It assumes Protected ran
// first.
func (h *AuthHandler) RequireRole(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated."})
		}

		for _, role := range roles {
			if user.Role == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied. Insufficient permissions."})
	}
}

func currentUser(c *fiber.Ctx) *domain.Account {
	user, _ := c.Locals(userContextKey).(*domain.Account)
	return user
}
