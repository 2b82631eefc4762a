package handler

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/Jacintalama/socsargen-system/config"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler, cfg *config.Config) {
	auth := app.Group("/api/auth")

	auth.Post("/register", registerLimiter(cfg), h.Register)
	auth.Post("/login", loginLimiter(cfg), h.Login)
	auth.Post("/refresh", h.Refresh)
	auth.Post("/logout", h.Protected(), h.Logout)
	auth.Get("/profile", h.Protected(), h.GetProfile)
	auth.Put("/profile", h.Protected(), h.UpdateProfile)
}

// loginLimiter keys on IP plus submitted email so one address cannot spray a
// single account from behind a shared proxy.
func loginLimiter(cfg *config.Config) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.LoginRateMax,
		Expiration: cfg.LoginRateWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			var body struct {
				Email string `json:"email"`
			}
			_ = json.Unmarshal(c.Body(), &body)

			return c.IP() + "-" + body.Email
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many login attempts. Please try again later.",
			})
		},
	})
}

func registerLimiter(cfg *config.Config) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.RegisterRateMax,
		Expiration: cfg.RegisterRateWindow,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many registration attempts. Please try again later.",
			})
		},
	})
}
