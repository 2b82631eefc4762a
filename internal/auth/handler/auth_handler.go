package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Jacintalama/socsargen-system/config"
	"github.com/Jacintalama/socsargen-system/internal/auth/domain"
	"github.com/Jacintalama/socsargen-system/internal/auth/dto"
	"github.com/Jacintalama/socsargen-system/internal/auth/service"
	autherror "github.com/Jacintalama/socsargen-system/internal/errors"
)

const refreshCookieName = "refreshToken"

// refreshCookiePath scopes the refresh cookie to the auth endpoints so it is
// never sent with ordinary API traffic.
const refreshCookiePath = "/api/auth"

type AuthHandler struct {
	userService *service.UserService
	tokens      service.TokenGenerator
	repo        domain.UserRepository
	cfg         *config.Config
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewAuthHandler(userService *service.UserService, tokens service.TokenGenerator,
	repo domain.UserRepository, cfg *config.Config, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
		repo:        repo,
		cfg:         cfg,
		validate:    validator.New(),
		logger:      logger,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
	}
	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid registration details."})
	}

	input.IPAddress = c.IP()
	input.UserAgent = c.Get(fiber.HeaderUserAgent)

	result, err := h.userService.Register(c.Context(), input)
	if err != nil {
		return h.respondError(c, err)
	}

	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresAt)

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
	}
	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid login details."})
	}

	input.IPAddress = c.IP()
	input.UserAgent = c.Get(fiber.HeaderUserAgent)

	result, err := h.userService.Login(c.Context(), input)
	if err != nil {
		return h.respondError(c, err)
	}

	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresAt)

	return c.JSON(result)
}

// Refresh accepts the refresh secret from the HttpOnly cookie or, for
// non-browser clients, from the request body.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	_ = c.BodyParser(&input)

	if cookie := c.Cookies(refreshCookieName); cookie != "" {
		input.RefreshToken = cookie
	}
	if input.RefreshToken == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "No refresh token provided."})
	}

	input.IPAddress = c.IP()
	input.UserAgent = c.Get(fiber.HeaderUserAgent)

	result, err := h.userService.Refresh(c.Context(), input)
	if err != nil {
		return h.respondError(c, err)
	}

	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresAt)

	return c.JSON(result)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated."})
	}

	if err := h.userService.Logout(c.Context(), user.ID, user.Email, c.IP(), c.Get(fiber.HeaderUserAgent)); err != nil {
		return h.respondError(c, err)
	}

	h.clearRefreshCookie(c)

	return c.JSON(fiber.Map{"message": "Logged out successfully."})
}

func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated."})
	}

	profile, err := h.userService.GetProfile(c.Context(), user.ID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(profile)
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated."})
	}

	var input dto.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
	}

	profile, err := h.userService.UpdateProfile(c.Context(), user.ID, input)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(profile)
}

// respondError maps service errors to HTTP responses. Client bodies stay
// generic; detail goes to the operational log only.
func (h *AuthHandler) respondError(c *fiber.Ctx, err error) error {
	var locked *autherror.AccountLockedError

	switch {
	case errors.Is(err, autherror.ErrEmailAlreadyRegistered):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Email already registered."})
	case errors.Is(err, autherror.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password."})
	case errors.Is(err, autherror.ErrInvalidRefreshToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired refresh token."})
	case errors.Is(err, autherror.ErrInvalidAccessToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token."})
	case errors.As(err, &locked):
		minutes := locked.MinutesRemaining(time.Now())
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{
			"error":       "Account is temporarily locked. Try again in " + pluralMinutes(minutes) + ".",
			"lockedUntil": locked.LockedUntil.UTC().Format(time.RFC3339),
		})
	default:
		h.logger.Error().Err(err).Str("path", c.Path()).Msg("auth operation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong. Please try again."})
	}
}

func pluralMinutes(minutes int) string {
	if minutes == 1 {
		return "1 minute"
	}

	return strconv.Itoa(minutes) + " minutes"
}

func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, secret string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    secret,
		Path:     refreshCookiePath,
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   h.cfg.Production(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   h.cfg.Production(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
