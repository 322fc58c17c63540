package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "BACKEND_BASE_URL", "KAFKA_BROKERS", "SESSION_TTL", "RECOVERY_RPS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8082", cfg.Port)
	assert.Equal(t, "https://advisor-seller-backend.vercel.app", cfg.BackendBaseURL)
	assert.Equal(t, "authToken", cfg.AuthTokenKey)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.ResetCooldown)
	assert.Equal(t, 1.0, cfg.RecoveryRPS)
	assert.Equal(t, 5, cfg.RecoveryBurst)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("BACKEND_BASE_URL", "http://localhost:4000/")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SESSION_TTL", "90s")
	t.Setenv("RECOVERY_RPS", "2.5")
	t.Setenv("RECOVERY_BURST", "not-a-number")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "http://localhost:4000", cfg.BackendBaseURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 90*time.Second, cfg.SessionTTL)
	assert.Equal(t, 2.5, cfg.RecoveryRPS)
	assert.Equal(t, 5, cfg.RecoveryBurst)
}
