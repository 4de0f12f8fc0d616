package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("COINGECKO_BASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("RATE_LIMIT_MS", "")
	t.Setenv("CATALOG_TTL_SECS", "")
	t.Setenv("PRICE_TTL_SECS", "")
	t.Setenv("TRACING_ENABLED", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	cfg := Load()
	if cfg.CallInterval != time.Second {
		t.Fatalf("expected default call interval 1s, got %v", cfg.CallInterval)
	}
	if cfg.CatalogTTL != 5*time.Minute {
		t.Fatalf("expected default catalog TTL 5m, got %v", cfg.CatalogTTL)
	}
	if cfg.PriceTTL != 30*time.Second {
		t.Fatalf("expected default price TTL 30s, got %v", cfg.PriceTTL)
	}
	if cfg.RedisURL != "" {
		t.Fatalf("expected empty redis url, got %s", cfg.RedisURL)
	}
	if cfg.OTLPEndpoint != "localhost:4317" {
		t.Fatalf("expected default OTLP endpoint, got %q", cfg.OTLPEndpoint)
	}
}

func TestLoadTracingEndpoint(t *testing.T) {
	t.Setenv("TRACING_ENABLED", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", " collector:4317 ")

	cfg := Load()
	if cfg.OTLPEndpoint != "collector:4317" {
		t.Fatalf("expected trimmed endpoint from env, got %q", cfg.OTLPEndpoint)
	}

	t.Setenv("TRACING_ENABLED", "false")
	cfg = Load()
	if cfg.OTLPEndpoint != "" {
		t.Fatalf("TRACING_ENABLED=false should leave endpoint empty, got %q", cfg.OTLPEndpoint)
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("COINGECKO_BASE_URL", "http://localhost:9999/api/v3")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("RATE_LIMIT_MS", "250")
	t.Setenv("CATALOG_TTL_SECS", "60")
	t.Setenv("PRICE_TTL_SECS", "10")

	cfg := Load()
	if cfg.CoinGeckoBaseURL != "http://localhost:9999/api/v3" || cfg.RedisURL != "redis:6379" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.CallInterval != 250*time.Millisecond {
		t.Fatalf("expected 250ms interval, got %v", cfg.CallInterval)
	}
	if cfg.CatalogTTL != time.Minute || cfg.PriceTTL != 10*time.Second {
		t.Fatalf("unexpected TTLs: %+v", cfg)
	}

	t.Setenv("RATE_LIMIT_MS", "bad")
	cfg = Load()
	if cfg.CallInterval != time.Second {
		t.Fatalf("invalid RATE_LIMIT_MS should fall back to default, got %v", cfg.CallInterval)
	}
}
