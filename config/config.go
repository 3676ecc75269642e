// Package config loads runtime settings from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables always win over it. Every setting has a default so
// the server starts with no configuration at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.
type Config struct {
	Port        string   // HOTEL_PORT
	DBPath      string   // HOTEL_DB_PATH
	CORSOrigins []string // HOTEL_CORS_ORIGINS, comma separated

	AMQPURL        string // AMQP_URL; empty disables event publishing
	EventsExchange string // HOTEL_EVENTS_EXCHANGE

	SweepInterval time.Duration // HOTEL_SWEEP_INTERVAL; unset or 0 keeps sweeping on reads only

	Redis     RedisConfig
	RateLimit RateLimitConfig
}

// RedisConfig locates the Redis server used for rate limiting.
type RedisConfig struct {
	Addr     string // REDIS_ADDR; empty disables Redis
	Password string // REDIS_PASSWORD
	DB       int    // REDIS_DB
}

// RateLimitConfig sizes the per-client token bucket.
type RateLimitConfig struct {
	Enabled        bool          // RATE_LIMIT_ENABLED
	Capacity       int           // RATE_LIMIT_CAPACITY
	RefillInterval time.Duration // RATE_LIMIT_REFILL_INTERVAL, one token per interval
	Prefix         string
}

// Defaults
const (
	DefaultPort           = "8080"
	DefaultDBPath         = "./data/hotel.db"
	DefaultEventsExchange = "hotel.events"
	DefaultCapacity       = 60
	DefaultRefillInterval = time.Second
)

var defaultOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// Load reads .env (if any) and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to read .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:           env("HOTEL_PORT", DefaultPort),
		DBPath:         env("HOTEL_DB_PATH", DefaultDBPath),
		CORSOrigins:    list(os.Getenv("HOTEL_CORS_ORIGINS"), defaultOrigins),
		AMQPURL:        os.Getenv("AMQP_URL"),
		EventsExchange: env("HOTEL_EVENTS_EXCHANGE", DefaultEventsExchange),
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		RateLimit: RateLimitConfig{
			Capacity:       DefaultCapacity,
			RefillInterval: DefaultRefillInterval,
			Prefix:         "hotel:ratelimit",
		},
	}

	var err error
	if v := os.Getenv("HOTEL_SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return cfg, fmt.Errorf("invalid HOTEL_SWEEP_INTERVAL %q", v)
		}
		cfg.SweepInterval = d
	}
	if cfg.Redis.DB, err = intEnv("REDIS_DB", 0); err != nil {
		return cfg, err
	}
	if cfg.RateLimit.Enabled, err = boolEnv("RATE_LIMIT_ENABLED", false); err != nil {
		return cfg, err
	}
	if cfg.RateLimit.Capacity, err = intEnv("RATE_LIMIT_CAPACITY", DefaultCapacity); err != nil {
		return cfg, err
	}
	if cfg.RateLimit.Capacity <= 0 {
		return cfg, fmt.Errorf("RATE_LIMIT_CAPACITY must be positive, got %d", cfg.RateLimit.Capacity)
	}
	if v := os.Getenv("RATE_LIMIT_REFILL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("invalid RATE_LIMIT_REFILL_INTERVAL %q", v)
		}
		cfg.RateLimit.RefillInterval = d
	}
	return cfg, nil
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid int for %s: %q", key, v)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("invalid bool for %s: %q", key, v)
	}
	return b, nil
}

func list(v string, def []string) []string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
