package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"paper-gains/internal/calc"
	"paper-gains/internal/domain"

	tele "gopkg.in/telebot.v3"
)

// CoinSearcher is the slice of the catalog the bot needs.
type CoinSearcher interface {
	Refresh(ctx context.Context) (*domain.CatalogSnapshot, error)
	Search(query string) []domain.Coin
}

// Selector resolves a coin and its quote.
type Selector interface {
	Select(ctx context.Context, coinID string) (domain.Selection, error)
}

// Start launches the Telegram front-end. Long polling only, no inbound
// server. Skipped when the token is empty.
func Start(token string, coins CoinSearcher, selections Selector) {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/coins", func(c tele.Context) error {
		query := strings.Join(c.Args(), " ")
		matches, err := searchCoins(context.Background(), coins, query)
		if err != nil {
			return c.Send(fmt.Sprintf("Coin list unavailable: %v", err))
		}
		return c.Send(formatCoins(matches))
	})

	b.Handle("/price", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /price <coin>\nExample: /price bitcoin")
		}
		query := strings.Join(args, " ")
		matches, err := searchCoins(context.Background(), coins, query)
		if err != nil {
			return c.Send(fmt.Sprintf("Coin list unavailable: %v", err))
		}
		if len(matches) == 0 {
			return c.Send("No coin matches " + query)
		}
		sel, err := selections.Select(context.Background(), matches[0].ID)
		if err != nil {
			return c.Send(fmt.Sprintf("Error selecting %s: %v", matches[0].Name, err))
		}
		return c.Send(formatSelection(sel))
	})

	b.Handle("/calc", func(c tele.Context) error {
		in, err := parseCalcArgs(c.Args())
		if err != nil {
			return c.Send("Usage: /calc <investment> <purchase price> <target price>\nExample: /calc 10000 50000 100000")
		}
		return c.Send(formatResult(in, calc.Evaluate(in)))
	})

	log.Println("Telegram bot started")
	go b.Start()
}

func searchCoins(ctx context.Context, coins CoinSearcher, query string) ([]domain.Coin, error) {
	if _, err := coins.Refresh(ctx); err != nil {
		return nil, err
	}
	return coins.Search(query), nil
}

func parseCalcArgs(args []string) (calc.Input, error) {
	if len(args) != 3 {
		return calc.Input{}, errors.New("expected 3 arguments")
	}
	vals := make([]float64, 3)
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return calc.Input{}, fmt.Errorf("bad number %q: %w", arg, err)
		}
		vals[i] = v
	}
	if vals[0] < 0 {
		return calc.Input{}, errors.New("investment must be non-negative")
	}
	return calc.Input{Investment: vals[0], PurchasePrice: vals[1], TargetPrice: vals[2]}, nil
}

func formatCoins(coins []domain.Coin) string {
	if len(coins) == 0 {
		return "No matching coins"
	}
	var sb strings.Builder
	for _, coin := range coins {
		fmt.Fprintf(&sb, "%s (%s) — %s\n", coin.Name, strings.ToUpper(coin.Symbol), coin.ID)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatSelection(sel domain.Selection) string {
	header := fmt.Sprintf("%s (%s)", sel.Coin.Name, strings.ToUpper(sel.Coin.Symbol))
	if sel.Quote == nil {
		return header + "\nPrice currently unavailable, try again shortly"
	}
	return fmt.Sprintf("%s\nPrice: $%.6g\n24h Change: %+.2f%%", header, sel.Quote.PriceUSD, sel.Quote.Change24h)
}

func formatResult(in calc.Input, res calc.Result) string {
	return fmt.Sprintf(
		"Invested $%.2f at $%.6g\nTokens: %.8g\nValue at $%.6g: $%.2f\nP/L: %+.2f",
		in.Investment, in.PurchasePrice, res.TokensOwned, in.TargetPrice, res.FinalValue, res.ProfitLoss,
	)
}
