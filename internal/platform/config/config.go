package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Server captures everything cmd/server needs to wire the process.
type Server struct {
	Addr          string
	JWTSigningKey string
	TokenTTL      time.Duration

	PostgresDSN string
	RedisURL    string

	KafkaBroker     string
	KafkaAuditTopic string

	// OrderTTL is how long a payment order stays payable after creation.
	OrderTTL time.Duration

	// MaxLoginFailures locks an account once reached, for LockDuration.
	MaxLoginFailures int
	LockDuration     time.Duration
}

// FromEnv builds a Server config from environment variables so main stays
// lean. A local .env file is honored when present.
func FromEnv() Server {
	_ = godotenv.Load()

	return Server{
		Addr:             envOr("EXAMREG_ADDR", ":8080"),
		JWTSigningKey:    envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:         durationOr("TOKEN_TTL", 24*time.Hour),
		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		RedisURL:         os.Getenv("REDIS_URL"),
		KafkaBroker:      os.Getenv("KAFKA_BROKER"),
		KafkaAuditTopic:  envOr("KAFKA_AUDIT_TOPIC", "examreg.audit"),
		OrderTTL:         durationOr("ORDER_TTL", 30*time.Minute),
		MaxLoginFailures: intOr("MAX_LOGIN_FAILURES", 5),
		LockDuration:     durationOr("LOCK_DURATION", 30*time.Minute),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func intOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
