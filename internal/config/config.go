// README: Config loader with env defaults for HTTP, Redis, DB, AI, and session settings.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type SessionConfig struct {
	// TTL is the conversation inactivity timeout. A context idle longer than
	// this is discarded and the next message starts a fresh conversation.
	TTL time.Duration
}

type Config struct {
	HTTP struct {
		Addr string
	}
	Redis struct {
		Addr string
	}
	DB struct {
		// DSN is optional; when empty the generation quota module is disabled.
		DSN string
	}
	AI struct {
		GeminiKey   string
		Model       string
		Temperature float64
		// RequestsPerMinute bounds calls to the text-completion API.
		RequestsPerMinute int
	}
	Maps struct {
		// APIKey is optional; when empty venue enrichment is disabled.
		APIKey string
	}
	Session SessionConfig
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	cfg.HTTP.Addr = envOrDefault("WANDER_HTTP_ADDR", ":8080")
	cfg.Redis.Addr = envOrDefault("WANDER_REDIS_ADDR", "localhost:6379")
	cfg.DB.DSN = os.Getenv("WANDER_DB_DSN")
	cfg.AI.GeminiKey = os.Getenv("GEMINI_API_KEY")
	if cfg.AI.GeminiKey == "" {
		return cfg, errors.New("GEMINI_API_KEY is required")
	}
	cfg.AI.Model = envOrDefault("WANDER_AI_MODEL", "gemini-2.0-flash")
	cfg.AI.Temperature = envOrDefaultFloat("WANDER_AI_TEMPERATURE", 0.4)
	cfg.AI.RequestsPerMinute = envOrDefaultInt("WANDER_AI_RPM", 30)
	cfg.Maps.APIKey = os.Getenv("WANDER_MAPS_API_KEY")
	cfg.Session.TTL = envOrDefaultDuration("WANDER_SESSION_TTL", 30*time.Minute)
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
