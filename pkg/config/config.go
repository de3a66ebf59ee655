package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage selects the database and whether an empty roster gets the demo data
type Storage struct {
	DatabaseURL    string
	DataPath       string
	SeedDemoRoster bool
}

// Config holds the configuration for the application.
type Config struct {
	Storage

	Port string

	JWTSecret       string
	APIMasterSecret string
	AdminUsername   string
	AdminPassword   string

	// Schedule cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
}

// LoadDotEnv loads the first .env found in the working directory or its parents
func LoadDotEnv() {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// StorageFromEnv reads the database settings only. It needs no secrets, so
// offline tools can use it.
func StorageFromEnv() (Storage, error) {
	st := Storage{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DataPath:       getEnv("DATA_PATH", "rota.db"),
		SeedDemoRoster: true,
	}
	if v := os.Getenv("SEED_DEMO_ROSTER"); v != "" {
		seed, err := strconv.ParseBool(v)
		if err != nil {
			return st, fmt.Errorf("invalid SEED_DEMO_ROSTER: %w", err)
		}
		st.SeedDemoRoster = seed
	}
	return st, nil
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	storage, err := StorageFromEnv()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Storage:         storage,
		Port:            getEnv("PORT", "8000"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		APIMasterSecret: os.Getenv("API_MASTER_SECRET"),
		AdminUsername:   getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:   getEnv("ADMIN_PASSWORD", "admin123"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}
	if cfg.APIMasterSecret == "" {
		return nil, fmt.Errorf("API_MASTER_SECRET environment variable not set")
	}

	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	if cfg.CacheTTL, err = time.ParseDuration(getEnv("CACHE_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
