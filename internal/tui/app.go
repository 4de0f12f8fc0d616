package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"paper-gains/internal/calc"
	"paper-gains/internal/domain"
	"paper-gains/internal/service"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	searchDebounce = 250 * time.Millisecond
	visibleResults = 10
)

// Catalog is the slice of the coin catalog the TUI needs.
type Catalog interface {
	Refresh(ctx context.Context) (*domain.CatalogSnapshot, error)
	Search(query string) []domain.Coin
	Invalidate()
}

// Selector resolves a coin selection with its quote.
type Selector interface {
	Select(ctx context.Context, coinID string) (domain.Selection, error)
}

// Services bundles everything the TUI depends on.
type Services struct {
	Coins      Catalog
	Selections Selector
}

type focusArea int

const (
	focusSearch focusArea = iota
	focusInvestment
	focusPurchase
	focusTarget
)

type catalogMsg struct {
	err error
}

// searchTickMsg fires after the debounce window; seq identifies the
// keystroke that scheduled it so stale ticks are dropped (latest wins).
type searchTickMsg struct {
	seq int
}

type selectionMsg struct {
	sel domain.Selection
	err error
	gen int
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	profitStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	lossStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
)

// Model is the calculator application state.
type Model struct {
	svc Services

	search     textinput.Model
	investment textinput.Model
	purchase   textinput.Model
	target     textinput.Model
	focus      focusArea

	results []domain.Coin
	cursor  int

	selected *domain.Selection
	pending  bool

	searchSeq    int
	selectionGen int

	catalogReady bool
	statusErr    string

	width  int
	height int
}

func NewModel(svc Services) Model {
	search := textinput.New()
	search.Placeholder = "search coins"
	search.Focus()
	search.CharLimit = 64

	newAmount := func(placeholder string) textinput.Model {
		in := textinput.New()
		in.Placeholder = placeholder
		in.CharLimit = 24
		return in
	}

	return Model{
		svc:        svc,
		search:     search,
		investment: newAmount("investment (USD)"),
		purchase:   newAmount("purchase price (USD)"),
		target:     newAmount("target price (USD)"),
	}
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCatalog(), textinput.Blink)
}

func (m Model) refreshCatalog() tea.Cmd {
	coins := m.svc.Coins
	return func() tea.Msg {
		_, err := coins.Refresh(context.Background())
		return catalogMsg{err: err}
	}
}

func (m Model) selectCoin(coinID string, gen int) tea.Cmd {
	selections := m.svc.Selections
	return func() tea.Msg {
		sel, err := selections.Select(context.Background(), coinID)
		return selectionMsg{sel: sel, err: err, gen: gen}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case catalogMsg:
		if msg.err != nil {
			m.statusErr = msg.err.Error()
			return m, nil
		}
		m.catalogReady = true
		m.statusErr = ""
		m.results = m.svc.Coins.Search(m.search.Value())
		m.cursor = 0
		return m, nil

	case searchTickMsg:
		if msg.seq != m.searchSeq {
			return m, nil
		}
		if m.catalogReady {
			m.results = m.svc.Coins.Search(m.search.Value())
			m.cursor = 0
		}
		return m, nil

	case selectionMsg:
		if errors.Is(msg.err, service.ErrSuperseded) || msg.gen != m.selectionGen {
			return m, nil
		}
		m.pending = false
		if msg.err != nil {
			m.statusErr = msg.err.Error()
			return m, nil
		}
		m.statusErr = ""
		sel := msg.sel
		m.selected = &sel
		if sel.Quote != nil {
			price := strconv.FormatFloat(sel.Quote.PriceUSD, 'f', -1, 64)
			if m.purchase.Value() == "" {
				m.purchase.SetValue(price)
			}
			if m.target.Value() == "" {
				m.target.SetValue(price)
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}

	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "tab", "shift+tab":
		m.cycleFocus(msg.String() == "shift+tab")
		return m, nil

	case "ctrl+r":
		m.svc.Coins.Invalidate()
		m.catalogReady = false
		m.selected = nil
		return m, m.refreshCatalog()

	case "up":
		if m.focus == focusSearch && m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down":
		if m.focus == focusSearch && m.cursor < len(m.results)-1 {
			m.cursor++
		}
		return m, nil

	case "enter":
		if m.focus == focusSearch && m.cursor < len(m.results) {
			coin := m.results[m.cursor]
			m.pending = true
			m.selectionGen++
			return m, m.selectCoin(coin.ID, m.selectionGen)
		}
		return m, nil
	}

	return m.updateInputs(msg)
}

func (m *Model) cycleFocus(backwards bool) {
	order := []focusArea{focusSearch, focusInvestment, focusPurchase, focusTarget}
	idx := int(m.focus)
	if backwards {
		idx = (idx + len(order) - 1) % len(order)
	} else {
		idx = (idx + 1) % len(order)
	}
	m.focus = order[idx]

	m.search.Blur()
	m.investment.Blur()
	m.purchase.Blur()
	m.target.Blur()
	switch m.focus {
	case focusSearch:
		m.search.Focus()
	case focusInvestment:
		m.investment.Focus()
	case focusPurchase:
		m.purchase.Focus()
	case focusTarget:
		m.target.Focus()
	}
}

func (m Model) updateInputs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusSearch:
		before := m.search.Value()
		m.search, cmd = m.search.Update(msg)
		if m.search.Value() != before {
			m.searchSeq++
			seq := m.searchSeq
			return m, tea.Batch(cmd, tea.Tick(searchDebounce, func(time.Time) tea.Msg {
				return searchTickMsg{seq: seq}
			}))
		}
	case focusInvestment:
		m.investment, cmd = m.investment.Update(msg)
	case focusPurchase:
		m.purchase, cmd = m.purchase.Update(msg)
	case focusTarget:
		m.target, cmd = m.target.Update(msg)
	}
	return m, cmd
}

// result recomputes the position from the current inputs. The bool reports
// whether all inputs parse.
func (m Model) result() (calc.Result, bool) {
	parse := func(in textinput.Model) (float64, bool) {
		v, err := strconv.ParseFloat(strings.TrimSpace(in.Value()), 64)
		return v, err == nil
	}
	investment, ok1 := parse(m.investment)
	purchase, ok2 := parse(m.purchase)
	target, ok3 := parse(m.target)
	if !ok1 || !ok2 || !ok3 || investment < 0 {
		return calc.Result{}, false
	}
	return calc.Evaluate(calc.Input{
		Investment:    investment,
		PurchasePrice: purchase,
		TargetPrice:   target,
	}), true
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("paper gains — crypto profit/loss calculator"))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("coin"))
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("\n")

	if !m.catalogReady && m.statusErr == "" {
		b.WriteString(labelStyle.Render("loading coin list..."))
		b.WriteString("\n")
	}

	limit := len(m.results)
	if limit > visibleResults {
		limit = visibleResults
	}
	for i := 0; i < limit; i++ {
		coin := m.results[i]
		line := fmt.Sprintf("%s (%s)", coin.Name, strings.ToUpper(coin.Symbol))
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if m.selected != nil {
		b.WriteString("\n")
		b.WriteString(selectedStyle.Render(fmt.Sprintf("%s (%s)",
			m.selected.Coin.Name, strings.ToUpper(m.selected.Coin.Symbol))))
		if m.selected.Quote != nil {
			b.WriteString(fmt.Sprintf("  $%s  %+.2f%% 24h",
				strconv.FormatFloat(m.selected.Quote.PriceUSD, 'f', -1, 64),
				m.selected.Quote.Change24h))
		} else {
			b.WriteString("  " + errStyle.Render("price unavailable"))
		}
		b.WriteString("\n")
	}
	if m.pending {
		b.WriteString(labelStyle.Render("fetching price..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("position"))
	b.WriteString("\n")
	b.WriteString(m.investment.View())
	b.WriteString("\n")
	b.WriteString(m.purchase.View())
	b.WriteString("\n")
	b.WriteString(m.target.View())
	b.WriteString("\n\n")

	if res, ok := m.result(); ok {
		b.WriteString(fmt.Sprintf("tokens owned  %.8g\n", res.TokensOwned))
		b.WriteString(fmt.Sprintf("final value   $%.2f\n", res.FinalValue))
		style := profitStyle
		if res.ProfitLoss < 0 {
			style = lossStyle
		}
		b.WriteString("profit/loss   " + style.Render(fmt.Sprintf("%+.2f", res.ProfitLoss)))
		b.WriteString("\n")
	} else {
		b.WriteString(labelStyle.Render("enter amounts to see profit/loss"))
		b.WriteString("\n")
	}

	if m.statusErr != "" {
		b.WriteString("\n")
		b.WriteString(errStyle.Render(m.statusErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("tab: next field · enter: select coin · ctrl+r: reload list · ctrl+c: quit"))
	return b.String()
}
