package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env             string
	Port            string
	DBURL           string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	QueryTimeout    time.Duration

	LoginRateMax       int
	LoginRateWindow    time.Duration
	RegisterRateMax    int
	RegisterRateWindow time.Duration
}

// Load reads configuration from the environment, after a best-effort .env
// autoload for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:             getEnv("ENV", "development"),
		Port:            getEnv("PORT", "8080"),
		DBURL:           strings.TrimSpace(os.Getenv("DB_URL")),
		JWTSecret:       strings.TrimSpace(os.Getenv("JWT_SECRET")),
		AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		QueryTimeout:    getDuration("QUERY_TIMEOUT", 5*time.Second),

		LoginRateMax:       getInt("LOGIN_RATE_MAX", 10),
		LoginRateWindow:    getDuration("LOGIN_RATE_WINDOW", 15*time.Minute),
		RegisterRateMax:    getInt("REGISTER_RATE_MAX", 5),
		RegisterRateWindow: getDuration("REGISTER_RATE_WINDOW", time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}

	return nil
}

// Production reports whether refresh cookies must carry the Secure flag.
func (c *Config) Production() bool {
	return c.Env == "production"
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultVal
}

func getInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}

	return val
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return defaultVal
	}

	return val
}
