package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	CoinGeckoBaseURL string
	CallInterval     time.Duration
	CatalogTTL       time.Duration
	PriceTTL         time.Duration
	RedisURL         string
	TelegramBotToken string

	// OTLPEndpoint is where traces are exported; empty disables tracing.
	OTLPEndpoint string
}

func Load() *Config {
	cfg := &Config{
		CoinGeckoBaseURL: strings.TrimSpace(os.Getenv("COINGECKO_BASE_URL")),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if cfg.RedisURL == "" {
		log.Println("REDIS_URL not set, quote cache runs in-memory only")
	}

	cfg.CallInterval = time.Second
	if v := os.Getenv("RATE_LIMIT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CallInterval = time.Duration(n) * time.Millisecond
		} else {
			log.Printf("Warning: invalid RATE_LIMIT_MS=%q, keeping %v", v, cfg.CallInterval)
		}
	}

	cfg.CatalogTTL = 5 * time.Minute
	if v := os.Getenv("CATALOG_TTL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CatalogTTL = time.Duration(n) * time.Second
		}
	}

	cfg.PriceTTL = 30 * time.Second
	if v := os.Getenv("PRICE_TTL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PriceTTL = time.Duration(n) * time.Second
		}
	}

	if os.Getenv("TRACING_ENABLED") != "false" {
		cfg.OTLPEndpoint = strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
		if cfg.OTLPEndpoint == "" {
			cfg.OTLPEndpoint = "localhost:4317"
		}
	}

	return cfg
}
