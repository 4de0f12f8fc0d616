package main

import (
	"context"
	"log"
	"os"
	ossignal "os/signal"
	"syscall"

	"paper-gains/internal/bot"
	"paper-gains/internal/cache"
	"paper-gains/internal/catalog"
	"paper-gains/internal/config"
	"paper-gains/internal/provider"
	"paper-gains/internal/service"
	"paper-gains/pkg/tracing"

	"github.com/joho/godotenv"
)

var (
	loadEnvFunc       = godotenv.Load
	loadConfigFunc    = config.Load
	initTracerFunc    = tracing.InitTracer
	connectRedisFunc  = cache.Connect
	startBotFunc      = bot.Start
	setupSignalNotify = ossignal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN not set")
	}

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

	startBotFunc(cfg.TelegramBotToken, coins, selections)

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down bot...")
}
