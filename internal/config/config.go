package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string
	Env           string
	JWTSecret     string
	AdminUsername string
	AdminPassword string
	CORSOrigins   []string
}

// Load reads configuration from the environment, with a .env file filling in
// anything left unset. An empty DATABASE_URL selects the in-memory backend,
// so it is not an error here.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          envOr("SERVER_PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Env:           envOr("ENVIRONMENT", "development"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminUsername: envOr("ADMIN_USERNAME", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		CORSOrigins:   strings.Split(envOr("CORS_ORIGINS", "*"), ","),
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in production")
		}
		cfg.JWTSecret = "payform-dev-secret"
	}
	if cfg.AdminPassword == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("ADMIN_PASSWORD environment variable is required in production")
		}
		cfg.AdminPassword = "admin123"
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
