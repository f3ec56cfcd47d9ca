package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("QUESTION_TIME_LIMIT_SECONDS", "")
	t.Setenv("TIMEOUT_GRACE_SECONDS", "")
	t.Setenv("REDIS_URL", "")

	cfg := Load()

	if cfg.QuestionTimeLimit != 120*time.Second {
		t.Errorf("expected 120s limit, got %v", cfg.QuestionTimeLimit)
	}
	if cfg.TimeoutGrace != 2*time.Second {
		t.Errorf("expected 2s grace, got %v", cfg.TimeoutGrace)
	}
	if cfg.RedisURL != "" {
		t.Errorf("redis must be disabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("QUESTION_TIME_LIMIT_SECONDS", "45")
	t.Setenv("LOGIN_RATE_LIMIT", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()

	if cfg.QuestionTimeLimit != 45*time.Second {
		t.Errorf("expected 45s, got %v", cfg.QuestionTimeLimit)
	}
	if cfg.LoginRateLimit != 30 {
		t.Errorf("invalid int must fall back, got %d", cfg.LoginRateLimit)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestLoad_NonPositiveLimitsFallBack(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"zero", "0"},
		{"negative", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOGIN_RATE_LIMIT", tt.value)
			t.Setenv("QUESTION_TIME_LIMIT_SECONDS", tt.value)
			t.Setenv("JWT_EXPIRY_HOURS", tt.value)
			t.Setenv("TIMEOUT_GRACE_SECONDS", "0")

			cfg := Load()

			if cfg.LoginRateLimit != 30 {
				t.Errorf("LoginRateLimit = %d, want 30", cfg.LoginRateLimit)
			}
			if cfg.QuestionTimeLimit != 120*time.Second {
				t.Errorf("QuestionTimeLimit = %v, want 120s", cfg.QuestionTimeLimit)
			}
			if cfg.JWTExpiry != 4*time.Hour {
				t.Errorf("JWTExpiry = %v, want 4h", cfg.JWTExpiry)
			}
			if cfg.TimeoutGrace != 0 {
				t.Errorf("a zero grace is valid, got %v", cfg.TimeoutGrace)
			}
		})
	}
}
