package domain

import (
	"errors"
	"fmt"
	"time"
)

// Coin is one entry from the CoinGecko /coins/list endpoint.
// Immutable once fetched.
type Coin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// PriceQuote is the current USD price and 24h change for a single coin.
// A newer quote supersedes an older one wholesale.
type PriceQuote struct {
	CoinID    string    `json:"coin_id"`
	PriceUSD  float64   `json:"price_usd"`
	Change24h float64   `json:"change_24h"`
	FetchedAt time.Time `json:"fetched_at"`
}

// CatalogSnapshot is an immutable, wholesale-replaced view of the coin
// catalog at a point in time. Priority coins come first, each partition
// sorted by name ascending, total length capped at MaxCatalogSize.
type CatalogSnapshot struct {
	Coins   []Coin
	BuiltAt time.Time
}

// Selection is the result of a coin-selection flow. Quote is nil when the
// coin was selected but its price could not be fetched; selection itself
// still succeeded in that case and PriceErr carries the fetch failure.
type Selection struct {
	Coin     Coin
	Quote    *PriceQuote
	PriceErr error
}

// MaxCatalogSize caps a catalog snapshot.
const MaxCatalogSize = 200

var (
	// ErrDataUnavailable covers transport failures and non-success HTTP
	// statuses from the price API.
	ErrDataUnavailable = errors.New("price data unavailable")

	// ErrNotFound marks a coin id absent from a response or catalog. It
	// wraps ErrDataUnavailable, so boundary checks for unavailable data
	// match it too.
	ErrNotFound = fmt.Errorf("coin not found: %w", ErrDataUnavailable)
)

// PriorityCoinIDs is the fixed set of well-known coin ids that, when present
// in the source data, are listed before all other coins.
var PriorityCoinIDs = map[string]bool{
	"bitcoin":     true,
	"ethereum":    true,
	"tether":      true,
	"binancecoin": true,
	"solana":      true,
	"ripple":      true,
	"usd-coin":    true,
	"cardano":     true,
	"dogecoin":    true,
	"tron":        true,
}
