package config

import (
	"testing"
	"time"
)

func TestEnvIntValid(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if v := envInt("TEST_INT", 0); v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
}

func TestEnvIntFallback(t *testing.T) {
	// TEST_INT_MISSING is not set.
	if v := envInt("TEST_INT_MISSING", 99); v != 99 {
		t.Fatalf("expected fallback 99, got %d", v)
	}
}

func TestEnvIntInvalidFallsBack(t *testing.T) {
	t.Setenv("TEST_INT_BAD", "abc")
	if v := envInt("TEST_INT_BAD", 7); v != 7 {
		t.Fatalf("expected fallback 7 for non-integer value, got %d", v)
	}
}

func TestEnvDurationValid(t *testing.T) {
	t.Setenv("TEST_DUR", "5s")
	if v := envDuration("TEST_DUR", 0); v != 5*time.Second {
		t.Fatalf("expected 5s, got %s", v)
	}
}

func TestEnvDurationInvalidFallsBack(t *testing.T) {
	t.Setenv("TEST_DUR_BAD", "five-seconds")
	if v := envDuration("TEST_DUR_BAD", time.Minute); v != time.Minute {
		t.Fatalf("expected fallback 1m, got %s", v)
	}
}

func TestLoadSucceedsWithDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected Load() to succeed with defaults, got: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.JWTExpiration != 24*time.Hour {
		t.Fatalf("expected default JWT expiration 24h, got %s", cfg.JWTExpiration)
	}
	if cfg.GroqModel != "llama-3.3-70b-versatile" {
		t.Fatalf("unexpected default model %q", cfg.GroqModel)
	}
}

func TestLoadRejectsBadProvider(t *testing.T) {
	t.Setenv("RESPIRA_COMPANION_PROVIDER", "psychic")
	if _, err := Load(); err == nil {
		t.Fatal("expected Load() to fail for unknown companion provider")
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("RESPIRA_PORT", "9191")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9191 {
		t.Fatalf("expected port 9191, got %d", cfg.Port)
	}
	if cfg.GroqAPIKey != "gsk_test" {
		t.Fatalf("expected groq key override, got %q", cfg.GroqAPIKey)
	}
}
