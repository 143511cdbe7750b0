package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "CURRENCY", "ORDER_NUMBER_PREFIX", "SEQUENCE_LOCK_TIMEOUT_MS", "CORS_ALLOWED_ORIGINS", "REDIS_ADDR"} {
		t.Setenv(key, "")
	}
	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("addr = %q", cfg.HTTPAddr)
	}
	if cfg.Currency != "USD" || cfg.OrderPrefix != "ORD" || cfg.EstimatePrefix != "EST" {
		t.Fatalf("unexpected document defaults %+v", cfg)
	}
	if cfg.SequenceLockTimeout != 5*time.Second {
		t.Fatalf("lock timeout = %s", cfg.SequenceLockTimeout)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("cors = %v", cfg.CORSOrigins)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("redis should be off by default")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CURRENCY", "eur")
	t.Setenv("SEQUENCE_LOCK_TIMEOUT_MS", "250")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "15")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example, ,https://admin.example")
	t.Setenv("DOCUMENT_SEQUENCE_START", "1000")
	t.Setenv("DOCUMENT_TIMEZONE", "not/a-zone")
	t.Setenv("REDIS_DB", "oops")

	cfg := FromEnv()
	if cfg.Currency != "EUR" {
		t.Fatalf("currency = %q", cfg.Currency)
	}
	if cfg.SequenceLockTimeout != 250*time.Millisecond {
		t.Fatalf("lock timeout = %s", cfg.SequenceLockTimeout)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("token ttl = %s", cfg.AccessTokenTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://admin.example" {
		t.Fatalf("cors = %v", cfg.CORSOrigins)
	}
	if cfg.SequenceStart != 1000 {
		t.Fatalf("start = %d", cfg.SequenceStart)
	}
	if cfg.Location != time.UTC {
		t.Fatalf("bad zone should fall back to UTC")
	}
	if cfg.RedisDB != 0 {
		t.Fatalf("bad int should fall back")
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "warn", "nonsense"} {
		logger, err := NewLogger(level, "test")
		if err != nil {
			t.Fatalf("level %q: %v", level, err)
		}
		if level == "warn" && logger.Core().Enabled(-1) {
			t.Fatalf("warn logger should drop debug entries")
		}
	}
}
