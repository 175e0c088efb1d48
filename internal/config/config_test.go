package config

import (
	"testing"
	"time"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadFallsBackOnMalformedNumbers(t *testing.T) {
	t.Setenv("SESSION_TTL_MINUTES", "soon")
	t.Setenv("IDLE_TIMEOUT_MINUTES", "-5")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-chat")

	cfg := Load()
	if cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("expected 12h session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.IdleTimeout != 30*time.Minute {
		t.Fatalf("expected 30m idle timeout, got %s", cfg.IdleTimeout)
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Fatalf("expected default rate limit, got %d", cfg.RateLimitPerMinute)
	}
	if cfg.TelegramChatID != 0 {
		t.Fatalf("expected chat id 0, got %d", cfg.TelegramChatID)
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("IDLE_TIMEOUT_MINUTES", "15")
	t.Setenv("DATABASE_MIGRATE", "false")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_COMPRESS", "false")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200300")

	cfg := Load()
	if cfg.Address() != ":9090" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
	if cfg.IdleTimeout != 15*time.Minute {
		t.Fatalf("expected 15m idle timeout, got %s", cfg.IdleTimeout)
	}
	if cfg.DatabaseMigrate {
		t.Fatalf("expected migrations disabled")
	}
	if cfg.Log.Format != "json" || cfg.Log.Compress {
		t.Fatalf("unexpected log config %+v", cfg.Log)
	}
	if cfg.TelegramChatID != -100200300 {
		t.Fatalf("unexpected chat id %d", cfg.TelegramChatID)
	}
}

func TestLocationFallsBackToFixedZone(t *testing.T) {
	loc := Config{Timezone: "Nowhere/Atlantis"}.Location()
	_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
	if offset != 7*60*60 {
		t.Fatalf("expected UTC+7 fallback, got offset %d", offset)
	}
}
