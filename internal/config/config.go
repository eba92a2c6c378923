package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	ServerPort      string
	StoreDriver     string
	DatabaseURL     string
	ShutdownTimeout time.Duration

	Auth struct {
		JWTSecret string
		TokenTTL  time.Duration
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
		CacheTTL time.Duration
	}

	Login struct {
		MaxAttempts int
		Cooldown    time.Duration
	}

	CORSAllowedOrigins []string
}

func Load() (*Config, error) {
	// Load .env file if it exists (useful for local dev)
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		StoreDriver: getEnv("STORE_DRIVER", DriverPostgres),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL must be set")
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, cfg.StoreDriver)
	}

	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	tokenTTL, err := getEnvAsInt("TOKEN_TTL_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	cfg.Auth.TokenTTL = time.Duration(tokenTTL) * time.Minute

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Redis.DB, err = getEnvAsInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	cacheTTL, err := getEnvAsInt("CACHE_TTL_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.Redis.CacheTTL = time.Duration(cacheTTL) * time.Second

	if cfg.Login.MaxAttempts, err = getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	cooldown, err := getEnvAsInt("LOGIN_COOLDOWN_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	cfg.Login.Cooldown = time.Duration(cooldown) * time.Minute

	shutdown, err := getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 5)
	if err != nil {
		return nil, err
	}
	cfg.ShutdownTimeout = time.Duration(shutdown) * time.Second

	for _, origin := range strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt rejects negative values as well as non-numeric ones.
func getEnvAsInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, raw)
	}
	return value, nil
}
