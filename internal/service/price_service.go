package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"paper-gains/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultPriceTTL = 30 * time.Second

// PriceFetcher is the slice of the price data source the service needs.
type PriceFetcher interface {
	FetchPrice(ctx context.Context, coinID string) (*domain.PriceQuote, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// PriceService wraps the price data source with a short-lived per-coin
// quote cache. The in-memory map is the source of truth; Redis, when
// configured, mirrors entries so concurrent runs share quotes.
type PriceService struct {
	tracer  trace.Tracer
	fetcher PriceFetcher
	redis   RedisClient

	ttl time.Duration

	mu      sync.Mutex
	entries map[string]*domain.PriceQuote

	now func() time.Time
}

func NewPriceService(tracer trace.Tracer, fetcher PriceFetcher, redisClient RedisClient) *PriceService {
	return &PriceService{
		tracer:  tracer,
		fetcher: fetcher,
		redis:   redisClient,
		ttl:     defaultPriceTTL,
		entries: make(map[string]*domain.PriceQuote),
		now:     time.Now,
	}
}

// NewPriceServiceWithTTL overrides the quote TTL, for configuration-driven
// wiring.
func NewPriceServiceWithTTL(tracer trace.Tracer, fetcher PriceFetcher, redisClient RedisClient, ttl time.Duration) *PriceService {
	s := NewPriceService(tracer, fetcher, redisClient)
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// GetPrice returns the cached quote for a coin while fresh, otherwise
// fetches, stores, and returns a new one. Fetch failures propagate without
// caching a failure state, so the next call retries the network.
func (s *PriceService) GetPrice(ctx context.Context, coinID string) (*domain.PriceQuote, error) {
	ctx, span := s.tracer.Start(ctx, "price-service.get-price")
	defer span.End()
	span.SetAttributes(attribute.String("coin_id", coinID))

	if quote := s.cached(coinID); quote != nil {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return quote, nil
	}

	if s.redis != nil {
		quote, err := s.getRedisCache(ctx, coinID)
		if err != nil {
			log.Printf("redis cache read error: %v", err)
		}
		if quote != nil {
			s.store(quote)
			return quote, nil
		}
	}

	quote, err := s.fetcher.FetchPrice(ctx, coinID)
	if err != nil {
		return nil, err
	}

	s.store(quote)
	if s.redis != nil {
		if err := s.setRedisCache(ctx, quote); err != nil {
			log.Printf("redis cache write error for %s: %v", coinID, err)
		}
	}
	return quote, nil
}

// Invalidate evicts all cached quotes. Redis mirror entries are left to
// expire on their own TTL.
func (s *PriceService) Invalidate() {
	s.mu.Lock()
	s.entries = make(map[string]*domain.PriceQuote)
	s.mu.Unlock()
}

func (s *PriceService) cached(coinID string) *domain.PriceQuote {
	s.mu.Lock()
	defer s.mu.Unlock()

	quote, ok := s.entries[coinID]
	if !ok {
		return nil
	}
	if s.now().Sub(quote.FetchedAt) >= s.ttl {
		delete(s.entries, coinID)
		return nil
	}
	return quote
}

func (s *PriceService) store(quote *domain.PriceQuote) {
	s.mu.Lock()
	s.entries[quote.CoinID] = quote
	s.mu.Unlock()
}

func (s *PriceService) setRedisCache(ctx context.Context, quote *domain.PriceQuote) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, "quote:"+quote.CoinID, data, s.ttl).Err()
}

func (s *PriceService) getRedisCache(ctx context.Context, coinID string) (*domain.PriceQuote, error) {
	data, err := s.redis.Get(ctx, "quote:"+coinID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var quote domain.PriceQuote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, fmt.Errorf("corrupt cached quote for %s: %w", coinID, err)
	}
	if s.now().Sub(quote.FetchedAt) >= s.ttl {
		return nil, nil
	}
	return &quote, nil
}
