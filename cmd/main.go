package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Jacintalama/socsargen-system/config"
	"github.com/Jacintalama/socsargen-system/db"
	"github.com/Jacintalama/socsargen-system/internal/auth/audit"
	"github.com/Jacintalama/socsargen-system/internal/auth/handler"
	"github.com/Jacintalama/socsargen-system/internal/auth/password"
	repo "github.com/Jacintalama/socsargen-system/internal/auth/repository/postgres"
	"github.com/Jacintalama/socsargen-system/internal/auth/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := newLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	database, err := db.Open(ctx, cfg.DBURL)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer database.Close()

	userRepo := repo.NewRepository(database.Pool)
	hasher := password.NewHasher(password.DefaultParams)
	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	recorder := audit.NewStoreRecorder(userRepo, logger.With().Str("component", "audit").Logger())
	userService := service.NewUserService(userRepo, tokenService, hasher, recorder, cfg.QueryTimeout)
	authHandler := handler.NewAuthHandler(userService, tokenService, userRepo, cfg, logger)

	app := fiber.New(fiber.Config{
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	handler.RegisterRoutes(app, authHandler, cfg)

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := database.Health(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unhealthy"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()
	logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("auth service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.Production() {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
