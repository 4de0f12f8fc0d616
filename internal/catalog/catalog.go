package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"paper-gains/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	defaultSnapshotTTL = 5 * time.Minute

	// Name-length bounds for non-priority coins; entries outside the
	// range are treated as malformed or spam listings.
	minNameLen = 2
	maxNameLen = 50

	emptyQueryLimit = 20
	searchLimit     = 50
)

// CoinLister is the slice of the price data source the catalog needs.
type CoinLister interface {
	FetchCoinList(ctx context.Context) ([]domain.Coin, error)
}

// PriceInvalidator lets Invalidate clear the price cache together with the
// catalog snapshot.
type PriceInvalidator interface {
	Invalidate()
}

// Catalog turns the raw coin listing into a deterministic, bounded,
// searchable snapshot and caches it for the snapshot TTL. Snapshots are
// replaced wholesale, never mutated in place.
type Catalog struct {
	tracer   trace.Tracer
	lister   CoinLister
	prices   PriceInvalidator
	ttl      time.Duration
	collator *collate.Collator

	mu       sync.Mutex
	snapshot *domain.CatalogSnapshot

	now func() time.Time
}

// New creates a catalog over the given lister. prices may be nil.
func New(tracer trace.Tracer, lister CoinLister, prices PriceInvalidator) *Catalog {
	return &Catalog{
		tracer:   tracer,
		lister:   lister,
		prices:   prices,
		ttl:      defaultSnapshotTTL,
		collator: collate.New(language.English, collate.IgnoreCase),
		now:      time.Now,
	}
}

// NewWithTTL overrides the snapshot TTL, for configuration-driven wiring.
func NewWithTTL(tracer trace.Tracer, lister CoinLister, prices PriceInvalidator, ttl time.Duration) *Catalog {
	c := New(tracer, lister, prices)
	if ttl > 0 {
		c.ttl = ttl
	}
	return c
}

// Refresh returns the cached snapshot if it is still fresh, otherwise
// fetches the coin listing and builds a new one. On fetch failure the error
// propagates and the previous snapshot is left untouched; it is not served
// as a stale fallback.
func (c *Catalog) Refresh(ctx context.Context) (*domain.CatalogSnapshot, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.refresh")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if snap := c.freshSnapshotLocked(); snap != nil {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return snap, nil
	}

	coins, err := c.lister.FetchCoinList(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh catalog: %w", err)
	}

	snap := c.buildSnapshot(coins)
	c.snapshot = snap
	span.SetAttributes(attribute.Bool("cache_hit", false), attribute.Int("coins", len(snap.Coins)))
	return snap, nil
}

// Search matches query case-insensitively against symbol, name, and id of
// the current snapshot. It never triggers a network fetch; with no fresh
// snapshot it returns nothing and callers are expected to Refresh first.
// An empty query returns the first entries of the current ordering.
func (c *Catalog) Search(query string) []domain.Coin {
	c.mu.Lock()
	snap := c.freshSnapshotLocked()
	c.mu.Unlock()

	if snap == nil {
		return nil
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		n := len(snap.Coins)
		if n > emptyQueryLimit {
			n = emptyQueryLimit
		}
		return snap.Coins[:n]
	}
	var matches []domain.Coin
	for _, coin := range snap.Coins {
		if strings.Contains(strings.ToLower(coin.Symbol), q) ||
			strings.Contains(strings.ToLower(coin.Name), q) ||
			strings.Contains(strings.ToLower(coin.ID), q) {
			matches = append(matches, coin)
			if len(matches) == searchLimit {
				break
			}
		}
	}
	return matches
}

// Lookup scans the current snapshot for an exact id match.
func (c *Catalog) Lookup(id string) (domain.Coin, bool) {
	c.mu.Lock()
	snap := c.freshSnapshotLocked()
	c.mu.Unlock()

	if snap == nil {
		return domain.Coin{}, false
	}
	for _, coin := range snap.Coins {
		if coin.ID == id {
			return coin, true
		}
	}
	return domain.Coin{}, false
}

// Invalidate clears the catalog snapshot and the price cache.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.mu.Unlock()

	if c.prices != nil {
		c.prices.Invalidate()
	}
}

func (c *Catalog) freshSnapshotLocked() *domain.CatalogSnapshot {
	if c.snapshot == nil {
		return nil
	}
	if c.now().Sub(c.snapshot.BuiltAt) >= c.ttl {
		return nil
	}
	return c.snapshot
}

// buildSnapshot partitions coins into priority and other, sorts each
// partition by name, concatenates priority-then-other, and truncates to
// domain.MaxCatalogSize.
func (c *Catalog) buildSnapshot(coins []domain.Coin) *domain.CatalogSnapshot {
	var priority, other []domain.Coin
	for _, coin := range coins {
		if domain.PriorityCoinIDs[coin.ID] {
			priority = append(priority, coin)
			continue
		}
		if len(coin.Name) >= minNameLen && len(coin.Name) < maxNameLen {
			other = append(other, coin)
		}
	}

	c.sortByName(priority)
	c.sortByName(other)

	ordered := make([]domain.Coin, 0, len(priority)+len(other))
	ordered = append(ordered, priority...)
	ordered = append(ordered, other...)
	if len(ordered) > domain.MaxCatalogSize {
		ordered = ordered[:domain.MaxCatalogSize]
	}

	return &domain.CatalogSnapshot{Coins: ordered, BuiltAt: c.now()}
}

func (c *Catalog) sortByName(coins []domain.Coin) {
	sort.SliceStable(coins, func(i, j int) bool {
		return c.collator.CompareString(coins[i].Name, coins[j].Name) < 0
	})
}
