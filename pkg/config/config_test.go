package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("KAFKA_BROKERS", "")
	cfg := Load()
	if cfg.Port != "8080" || cfg.AuthMode != "jwt" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.PageSizeDefault != 20 || cfg.PageSizeMax != 50 {
		t.Fatalf("unexpected page sizes %d/%d", cfg.PageSizeDefault, cfg.PageSizeMax)
	}
	if cfg.DedupeWindow != time.Minute || cfg.JWTTTL != 72*time.Hour {
		t.Fatalf("unexpected durations %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("no brokers expected, got %v", cfg.KafkaBrokers)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("AUTH_MODE", "Firebase")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("DEDUPE_WINDOW", "not-a-duration")
	t.Setenv("PAGE_SIZE_MAX", "100")

	cfg := Load()
	if cfg.Port != "9000" || cfg.AuthMode != "firebase" || cfg.PageSizeMax != 100 {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.DedupeWindow != time.Minute {
		t.Fatalf("bad duration should fall back to the default, got %v", cfg.DedupeWindow)
	}
}
