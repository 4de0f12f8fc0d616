package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"paper-gains/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	coingeckoBaseURL = "https://api.coingecko.com/api/v3"

	// One outbound call per second on the free tier.
	defaultCallInterval = time.Second
)

// CoinGeckoProvider fetches the coin listing and per-coin prices from the
// CoinGecko free API. Every request passes through the shared rate limiter,
// so at most one call is in flight at a time.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates a new provider with built-in rate limiting.
func NewCoinGeckoProvider(tracer trace.Tracer) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(defaultCallInterval),
	}
}

// NewCoinGeckoProviderWithBaseURL overrides the API endpoint and call
// interval, mainly for configuration-driven wiring.
func NewCoinGeckoProviderWithBaseURL(tracer trace.Tracer, baseURL string, interval time.Duration) *CoinGeckoProvider {
	p := NewCoinGeckoProvider(tracer)
	if baseURL != "" {
		p.baseURL = baseURL
	}
	if interval > 0 {
		p.limiter = NewRateLimiter(interval)
	}
	return p
}

// FetchCoinList fetches the full coin listing in a single call.
// The source ordering is preserved; curation happens in the catalog.
func (p *CoinGeckoProvider) FetchCoinList(ctx context.Context) ([]domain.Coin, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-coin-list")
	defer span.End()

	url := p.baseURL + "/coins/list"

	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch coin list: %w", err)
	}

	var coins []domain.Coin
	if err := json.Unmarshal(body, &coins); err != nil {
		return nil, fmt.Errorf("parse coin list: %w: %v", domain.ErrDataUnavailable, err)
	}

	span.SetAttributes(attribute.Int("coins", len(coins)))
	return coins, nil
}

// FetchPrice fetches the current USD price and 24h change for one coin.
func (p *CoinGeckoProvider) FetchPrice(ctx context.Context, coinID string) (*domain.PriceQuote, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-price")
	defer span.End()
	span.SetAttributes(attribute.String("coin_id", coinID))

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true",
		p.baseURL, coinID)

	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch price for %s: %w", coinID, err)
	}

	// Response shape: {"bitcoin": {"usd": 97000, "usd_24h_change": 2.34}}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse price for %s: %w: %v", coinID, domain.ErrDataUnavailable, err)
	}

	data, ok := raw[coinID]
	if !ok {
		return nil, fmt.Errorf("price for %s: %w", coinID, domain.ErrNotFound)
	}

	return &domain.PriceQuote{
		CoinID:    coinID,
		PriceUSD:  data["usd"],
		Change24h: data["usd_24h_change"],
		FetchedAt: time.Now(),
	}, nil
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: coingecko API error %d: %s",
			domain.ErrDataUnavailable, resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
