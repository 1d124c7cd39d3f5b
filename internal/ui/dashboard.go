// Package ui renders a terminal dashboard of tracked positions.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rovshanmuradov/coinsniper/internal/events"
	"github.com/rovshanmuradov/coinsniper/internal/history"
	"github.com/rovshanmuradov/coinsniper/internal/logger"
	"github.com/rovshanmuradov/coinsniper/internal/position"
	"github.com/rovshanmuradov/coinsniper/internal/ui/style"
)

const (
	defaultRefresh = time.Second
	feedSize       = 8
)

// PositionSource is the read side of the position store.
type PositionSource interface {
	Snapshot() []position.Position
	Counts() (open, closed int)
}

// Options configures the dashboard. Journal, Logs and Events are optional.
type Options struct {
	Store   PositionSource
	Journal *history.Journal
	Logs    *logger.Ring
	Events  <-chan events.Event
	Refresh time.Duration
	Now     func() time.Time
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	opts  Options
	table table.Model
	help  help.Model
	keys  KeyMap

	feed     []string
	showLogs bool
	width    int
	height   int
}

func NewModel(opts Options) Model {
	if opts.Refresh <= 0 {
		opts.Refresh = defaultRefresh
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Token", Width: 13},
			{Title: "Entry", Width: 11},
			{Title: "Last", Width: 11},
			{Title: "High", Width: 11},
			{Title: "Mult", Width: 7},
			{Title: "Sold", Width: 6},
			{Title: "Age", Width: 8},
			{Title: "State", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(style.TableStyles())

	m := Model{
		opts:  opts,
		table: t,
		help:  help.New(),
		keys:  DefaultKeyMap(),
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(m.opts.Refresh), ListenEvents(m.opts.Events))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		// header, panel and help take roughly fourteen lines
		if h := msg.Height - 14; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.ToggleLogs):
			m.showLogs = !m.showLogs
			return m, nil
		}

	case tickMsg:
		m.refresh()
		return m, tick(m.opts.Refresh)

	case EventMsg:
		m.push(describe(msg.Event))
		m.refresh()
		return m, ListenEvents(m.opts.Events)

	case eventsClosedMsg:
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(m.panel())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) refresh() {
	now := m.opts.Now()
	snapshot := m.opts.Store.Snapshot()
	rows := make([]table.Row, 0, len(snapshot))
	// newest first
	for i := len(snapshot) - 1; i >= 0; i-- {
		rows = append(rows, positionRow(snapshot[i], now))
	}
	m.table.SetRows(rows)
}

func (m *Model) push(line string) {
	m.feed = append(m.feed, line)
	if len(m.feed) > feedSize {
		m.feed = m.feed[len(m.feed)-feedSize:]
	}
}

func (m Model) header() string {
	open, closed := m.opts.Store.Counts()
	parts := []string{
		style.HeaderStyle.Render("🎯 coinsniper"),
		style.StatStyle.Render(fmt.Sprintf("open %d", open)),
		style.StatStyle.Render(fmt.Sprintf("closed %d", closed)),
	}
	if m.opts.Journal != nil {
		s := m.opts.Journal.Stats()
		parts = append(parts,
			style.StatStyle.Render(fmt.Sprintf("buys %d", s.Buys)),
			style.StatStyle.Render(fmt.Sprintf("sells %d", s.Sells)))
		if failed := s.FailedBuys + s.FailedSells; failed > 0 {
			parts = append(parts, style.WarnStyle.Render(fmt.Sprintf("failed %d", failed)))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) panel() string {
	title, lines := "Recent events", m.feed
	if m.showLogs {
		title = "Logs"
		lines = nil
		if m.opts.Logs != nil {
			lines = m.opts.Logs.Recent(feedSize)
		}
	}
	if len(lines) == 0 {
		lines = []string{style.MutedStyle.Render("nothing yet")}
	}

	body := style.PanelTitleStyle.Render(title) + "\n" + strings.Join(lines, "\n")
	if m.width > 4 {
		return style.PanelStyle.Width(m.width - 4).Render(body)
	}
	return style.PanelStyle.Render(body)
}

func positionRow(p position.Position, now time.Time) table.Row {
	state := "open"
	switch {
	case p.Closed():
		state = "closed"
	case !p.EntryKnown():
		state = "pending"
	}

	mult := "-"
	if p.EntryKnown() && p.LastPrice > 0 {
		mult = fmt.Sprintf("%.2fx", p.Multiplier(p.LastPrice))
	}

	end := now
	if p.Closed() {
		end = p.ClosedAt
	}

	return table.Row{
		logger.ShortenAddress(p.TokenID),
		formatPrice(p.EntryPrice),
		formatPrice(p.LastPrice),
		formatPrice(p.HighWaterPrice),
		mult,
		fmt.Sprintf("%.0f%%", p.SoldFraction*100),
		formatAge(end.Sub(p.OpenedAt)),
		state,
	}
}

func formatPrice(p float64) string {
	if p <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.6g", p)
}

func formatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	if d >= time.Hour {
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}

func describe(ev events.Event) string {
	ts := style.MutedStyle.Render(ev.Timestamp().Format("15:04:05"))

	var text string
	switch e := ev.(type) {
	case events.PositionOpenedEvent:
		text = style.GainStyle.Render("BUY") + fmt.Sprintf(" %s %s SOL from @%s",
			logger.ShortenAddress(e.TokenID), e.Amount, e.Source)
	case events.EntryCapturedEvent:
		text = fmt.Sprintf("ENTRY %s $%s (%s)",
			logger.ShortenAddress(e.TokenID), formatPrice(e.Price), e.Source)
	case events.PositionSoldEvent:
		label := style.GainStyle.Render("SELL")
		if e.Multiplier < 1 {
			label = style.LossStyle.Render("SELL")
		}
		text = label + fmt.Sprintf(" %s %d%% at %.2fx | %s",
			logger.ShortenAddress(e.TokenID), e.Percent, e.Multiplier, e.Label)
		if e.Closed {
			text += " (closed)"
		}
	case events.BuyFailedEvent:
		text = style.WarnStyle.Render("BUY FAILED") + fmt.Sprintf(" %s: %v",
			logger.ShortenAddress(e.TokenID), e.Err)
	case events.SellFailedEvent:
		text = style.WarnStyle.Render("SELL FAILED") + fmt.Sprintf(" %s %d%%: %v",
			logger.ShortenAddress(e.TokenID), e.Percent, e.Err)
	default:
		text = string(ev.Type())
	}
	return ts + " " + text
}
