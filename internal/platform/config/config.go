package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Server captures process-level configuration.
type Server struct {
	Addr              string
	LogLevel          string
	PostgresURL       string
	RedisURL          string
	KafkaBrokers      string
	AuditMirrorTopic  string
	NotificationTopic string
	ShutdownTimeout   time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
// A local .env file is loaded first when present; real environment variables win.
func FromEnv() Server {
	_ = godotenv.Load()

	return Server{
		Addr:              getEnv("CONSENTLEDGER_ADDR", ":8080"),
		LogLevel:          getEnv("CONSENTLEDGER_LOG_LEVEL", "info"),
		PostgresURL:       os.Getenv("CONSENTLEDGER_POSTGRES_URL"),
		RedisURL:          os.Getenv("CONSENTLEDGER_REDIS_URL"),
		KafkaBrokers:      os.Getenv("CONSENTLEDGER_KAFKA_BROKERS"),
		AuditMirrorTopic:  getEnv("CONSENTLEDGER_AUDIT_MIRROR_TOPIC", "audit.records"),
		NotificationTopic: getEnv("CONSENTLEDGER_NOTIFICATION_TOPIC", "notifications.outbound"),
		ShutdownTimeout:   10 * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
