package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings for the route service.
type Config struct {
	Port           string
	Env            string
	DatabaseURL    string
	SeedPath       string
	ORSAPIKey      string
	ORSBaseURL     string
	ORSMaxAttempts int
	ORSTimeout     time.Duration
	RedisAddr      string
	CacheTTL       time.Duration
	KafkaBroker    string
	KafkaTopic     string
	SentryDSN      string
}

// LoadDotEnv loads a .env file when present; a missing file is not an error.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
}

// Get returns the value of key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        Get("PORT", "8080"),
		Env:         Get("ENV", "development"),
		DatabaseURL: Get("DATABASE_URL", "data/app.db"),
		SeedPath:    Get("SEED_PATH", "data/seeds/nodes.json"),
		ORSAPIKey:   Get("ORS_API_KEY", ""),
		ORSBaseURL:  Get("ORS_BASE_URL", "https://api.openrouteservice.org"),
		RedisAddr:   Get("REDIS_ADDR", ""),
		KafkaBroker: Get("KAFKA_BROKER", ""),
		KafkaTopic:  Get("KAFKA_TOPIC", "route-events"),
		SentryDSN:   Get("SENTRY_DSN", ""),
	}

	var err error
	if cfg.ORSMaxAttempts, err = getInt("ORS_MAX_ATTEMPTS", 1); err != nil {
		return nil, err
	}
	if cfg.ORSMaxAttempts < 1 {
		return nil, fmt.Errorf("config: ORS_MAX_ATTEMPTS must be at least 1, got %d", cfg.ORSMaxAttempts)
	}
	if cfg.ORSTimeout, err = getDuration("ORS_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	return cfg, nil
}
