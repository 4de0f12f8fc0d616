package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"paper-gains/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrSuperseded marks a selection result that arrived after a newer
// selection was issued. Callers discard it instead of writing stale state.
var ErrSuperseded = errors.New("selection superseded")

// CoinResolver is the slice of the catalog the selection flow needs.
type CoinResolver interface {
	Lookup(id string) (domain.Coin, bool)
}

// QuoteGetter is the slice of the price service the selection flow needs.
type QuoteGetter interface {
	GetPrice(ctx context.Context, coinID string) (*domain.PriceQuote, error)
}

// SelectionService resolves a coin and attaches its current quote. A price
// fetch failure does not abort selection: the Selection completes with a nil
// Quote and the failure in PriceErr. Each Select supersedes any in-flight
// one; superseded results come back as ErrSuperseded (latest wins).
type SelectionService struct {
	tracer  trace.Tracer
	catalog CoinResolver
	prices  QuoteGetter
	gen     atomic.Int64
}

func NewSelectionService(tracer trace.Tracer, catalog CoinResolver, prices QuoteGetter) *SelectionService {
	return &SelectionService{
		tracer:  tracer,
		catalog: catalog,
		prices:  prices,
	}
}

// Select resolves coinID against the current catalog snapshot and fetches
// its quote through the price cache.
func (s *SelectionService) Select(ctx context.Context, coinID string) (domain.Selection, error) {
	ctx, span := s.tracer.Start(ctx, "selection.select")
	defer span.End()
	span.SetAttributes(attribute.String("coin_id", coinID))

	token := s.gen.Add(1)

	coin, ok := s.catalog.Lookup(coinID)
	if !ok {
		return domain.Selection{}, fmt.Errorf("select %s: %w", coinID, domain.ErrNotFound)
	}

	quote, err := s.prices.GetPrice(ctx, coinID)

	if s.gen.Load() != token {
		return domain.Selection{}, ErrSuperseded
	}

	if err != nil {
		log.Printf("price unavailable for %s: %v", coinID, err)
		return domain.Selection{Coin: coin, PriceErr: err}, nil
	}
	return domain.Selection{Coin: coin, Quote: quote}, nil
}

// Supersede invalidates any in-flight selection without issuing a new one.
func (s *SelectionService) Supersede() {
	s.gen.Add(1)
}
