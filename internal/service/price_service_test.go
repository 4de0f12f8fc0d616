package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"paper-gains/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type mockFetcher struct {
	quote *domain.PriceQuote
	err   error
	calls int
}

func (m *mockFetcher) FetchPrice(ctx context.Context, coinID string) (*domain.PriceQuote, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	q := *m.quote
	q.CoinID = coinID
	return &q, nil
}

type fakeRedis struct {
	data   map[string][]byte
	setErr error
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = v
	case string:
		f.data[key] = []byte(v)
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	data, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(data), nil)
}

func newTestPriceService(fetcher *mockFetcher, rc RedisClient) (*PriceService, *time.Time) {
	svc := NewPriceService(testTracer, fetcher, rc)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, &now
}

func TestGetPriceFetchesOnMiss(t *testing.T) {
	t.Parallel()

	fetcher := &mockFetcher{quote: &domain.PriceQuote{PriceUSD: 42, FetchedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}}
	svc, _ := newTestPriceService(fetcher, nil)

	quote, err := svc.GetPrice(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.CoinID != "bitcoin" || quote.PriceUSD != 42 {
		t.Fatalf("unexpected quote: %+v", quote)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected one fetch, got %d", fetcher.calls)
	}
}

func TestGetPriceServesFreshCache(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{quote: &domain.PriceQuote{PriceUSD: 42, FetchedAt: base}}
	svc, now := newTestPriceService(fetcher, nil)

	if _, err := svc.GetPrice(context.Background(), "bitcoin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	*now = now.Add(20 * time.Second)
	if _, err := svc.GetPrice(context.Background(), "bitcoin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("fresh cache should not refetch, got %d calls", fetcher.calls)
	}
}

func TestGetPriceRefetchesAfterTTL(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{quote: &domain.PriceQuote{PriceUSD: 42, FetchedAt: base}}
	svc, now := newTestPriceService(fetcher, nil)

	if _, err := svc.GetPrice(context.Background(), "bitcoin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	*now = now.Add(31 * time.Second)
	fetcher.quote = &domain.PriceQuote{PriceUSD: 50, FetchedAt: *now}
	quote, err := svc.GetPrice(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.calls != 2 {
		t.Fatalf("expected refetch after TTL, got %d calls", fetcher.calls)
	}
	if quote.PriceUSD != 50 {
		t.Fatalf("expected fresh quote, got %+v", quote)
	}
}

func TestGetPriceFailureNotCached(t *testing.T) {
	t.Parallel()

	fetcher := &mockFetcher{err: fmt.Errorf("down: %w", domain.ErrDataUnavailable)}
	svc, _ := newTestPriceService(fetcher, nil)

	if _, err := svc.GetPrice(context.Background(), "bitcoin"); !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}

	fetcher.err = nil
	fetcher.quote = &domain.PriceQuote{PriceUSD: 42, FetchedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	if _, err := svc.GetPrice(context.Background(), "bitcoin"); err != nil {
		t.Fatalf("next call should retry the network: %v", err)
	}
	if fetcher.calls != 2 {
		t.Fatalf("expected 2 fetches, got %d", fetcher.calls)
	}
}

func TestGetPriceWritesThroughRedis(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{quote: &domain.PriceQuote{PriceUSD: 42, FetchedAt: base}}
	rc := newFakeRedis()
	svc, _ := newTestPriceService(fetcher, rc)

	if _, err := svc.GetPrice(context.Background(), "bitcoin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := rc.data["quote:bitcoin"]; !ok {
		t.Fatal("quote not mirrored to redis")
	}
}

func TestGetPriceReadsRedisOnLocalMiss(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{err: errors.New("network must not be hit")}
	rc := newFakeRedis()
	cached := &domain.PriceQuote{CoinID: "bitcoin", PriceUSD: 97, FetchedAt: base.Add(-10 * time.Second)}
	data, _ := json.Marshal(cached)
	rc.data["quote:bitcoin"] = data

	svc, _ := newTestPriceService(fetcher, rc)

	quote, err := svc.GetPrice(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.PriceUSD != 97 {
		t.Fatalf("unexpected quote: %+v", quote)
	}
	if fetcher.calls != 0 {
		t.Fatal("redis hit should not reach the network")
	}
}

func TestGetPriceIgnoresExpiredRedisEntry(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{quote: &domain.PriceQuote{PriceUSD: 42, FetchedAt: base}}
	rc := newFakeRedis()
	stale := &domain.PriceQuote{CoinID: "bitcoin", PriceUSD: 1, FetchedAt: base.Add(-time.Minute)}
	data, _ := json.Marshal(stale)
	rc.data["quote:bitcoin"] = data

	svc, _ := newTestPriceService(fetcher, rc)

	quote, err := svc.GetPrice(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.PriceUSD != 42 || fetcher.calls != 1 {
		t.Fatalf("expected network fetch past stale mirror entry: %+v calls=%d", quote, fetcher.calls)
	}
}

func TestInvalidateEvictsEntries(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{quote: &domain.PriceQuote{PriceUSD: 42, FetchedAt: base}}
	svc, _ := newTestPriceService(fetcher, nil)

	if _, err := svc.GetPrice(context.Background(), "bitcoin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.Invalidate()
	if _, err := svc.GetPrice(context.Background(), "bitcoin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.calls != 2 {
		t.Fatalf("expected refetch after invalidate, got %d", fetcher.calls)
	}
}
