package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	BackendBaseURL string
	AuthToken      string
	AuthTokenKey   string
	DatabaseURL    string
	RedisURL       string
	KafkaBrokers   []string
	KafkaTopic     string
	NatsURL        string
	NatsSubject    string
	JaegerEndpoint string
	RequestTimeout time.Duration
	SessionTTL     time.Duration
	ResetCooldown  time.Duration
	RecoveryRPS    float64
	RecoveryBurst  int
}

// Load reads configuration from the environment, after merging a .env file
// from the working directory when one exists.
func Load() *Config {
	_ = godotenv.Load()

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return &Config{
		Port:           getEnv("PORT", "8082"),
		BackendBaseURL: strings.TrimRight(getEnv("BACKEND_BASE_URL", "https://advisor-seller-backend.vercel.app"), "/"),
		AuthToken:      os.Getenv("AUTH_TOKEN"),
		AuthTokenKey:   getEnv("AUTH_TOKEN_KEY", "authToken"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		KafkaBrokers:   brokers,
		KafkaTopic:     getEnv("KAFKA_TOPIC", "checkout.state.changed"),
		NatsURL:        os.Getenv("NATS_URL"),
		NatsSubject:    getEnv("NATS_SUBJECT", "auth.password_reset.requested"),
		JaegerEndpoint: os.Getenv("JAEGER_ENDPOINT"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 15*time.Second),
		SessionTTL:     getDuration("SESSION_TTL", 30*time.Minute),
		ResetCooldown:  getDuration("RESET_COOLDOWN", 5*time.Minute),
		RecoveryRPS:    getFloat("RECOVERY_RPS", 1),
		RecoveryBurst:  getInt("RECOVERY_BURST", 5),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}
