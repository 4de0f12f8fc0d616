package main

import (
	"context"
	"log"

	"paper-gains/internal/cache"
	"paper-gains/internal/catalog"
	"paper-gains/internal/config"
	"paper-gains/internal/provider"
	"paper-gains/internal/service"
	"paper-gains/internal/tui"
	"paper-gains/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initTracerFunc   = tracing.InitTracer
	connectRedisFunc = cache.Connect
	runProgramFunc   = func(m tea.Model) error {
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	}
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	var redisClient service.RedisClient
	if rc := connectRedisFunc(ctx, cfg.RedisURL); rc != nil {
		redisClient = rc
	}

	cgProvider := provider.NewCoinGeckoProviderWithBaseURL(tracer, cfg.CoinGeckoBaseURL, cfg.CallInterval)
	prices := service.NewPriceServiceWithTTL(tracer, cgProvider, redisClient, cfg.PriceTTL)
	coins := catalog.NewWithTTL(tracer, cgProvider, prices, cfg.CatalogTTL)
	selections := service.NewSelectionService(tracer, coins, prices)

	model := tui.NewModel(tui.Services{
		Coins:      coins,
		Selections: selections,
	})

	if err := runProgramFunc(model); err != nil {
		log.Fatalf("calculator exited with error: %v", err)
	}
}
