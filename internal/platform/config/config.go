package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration for the admin server.
type Config struct {
	Addr          string
	LogLevel      string
	JWTSigningKey string
	SessionTTL    time.Duration

	// PostgresDSN selects the postgres record store when set; the server
	// falls back to the in-memory store otherwise (dev mode).
	PostgresDSN string

	Redis RedisConfig

	// KafkaBrokers enables the Kafka ops-event sink when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// DevAdminEmail/DevAdminPassword seed one administrator account at
	// startup so a fresh dev instance is reachable. Leave empty in
	// production; admins are created through the API there.
	DevAdminEmail    string
	DevAdminPassword string
}

// RedisConfig configures the optional redis-backed evidence cache store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:             getenv("SMARTKYC_ADDR", ":8080"),
		LogLevel:         getenv("SMARTKYC_LOG_LEVEL", "info"),
		JWTSigningKey:    getenv("SMARTKYC_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		SessionTTL:       durationenv("SMARTKYC_SESSION_TTL", time.Hour),
		PostgresDSN:      os.Getenv("SMARTKYC_POSTGRES_DSN"),
		KafkaTopic:       getenv("SMARTKYC_KAFKA_TOPIC", "smartkyc.admin.events"),
		DevAdminEmail:    os.Getenv("SMARTKYC_DEV_ADMIN_EMAIL"),
		DevAdminPassword: os.Getenv("SMARTKYC_DEV_ADMIN_PASSWORD"),
		Redis: RedisConfig{
			URL:          os.Getenv("SMARTKYC_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
	if brokers := os.Getenv("SMARTKYC_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationenv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
