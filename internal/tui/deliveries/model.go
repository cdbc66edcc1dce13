package deliveries

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/pushbridge/internal/delivery"
)

const (
	DefaultLimit    = 200
	DefaultInterval = time.Second
)

// Model is the BubbleTea model for the delivery watch.
type Model struct {
	src      Source
	limit    int
	interval time.Duration
	now      func() time.Time

	width  int
	height int

	entries  []delivery.Entry
	loaded   bool
	lastID   string
	stats    Stats
	activity Activity
	theme    Theme
	table    table.Model

	lastError string
}

// Stats summarizes the entries currently shown.
type Stats struct {
	Accepted int
	Rejected int
	Failed   int
	LastPoll time.Time
}

func New(src Source, limit int, interval time.Duration) Model {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return Model{
		src:      src,
		limit:    limit,
		interval: interval,
		now:      time.Now,
		theme:    NewDefaultTheme(),
		table:    t,
	}
}

// Run blocks until the user quits or ctx is done.
func Run(ctx context.Context, src Source, limit int, interval time.Duration) error {
	_, err := tea.NewProgram(New(src, limit, interval), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(fetch(m.src, m.limit), tick(m.interval))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(columns(msg.Width - 6))
		m.table.SetHeight(max(3, msg.Height-10))
		return m, nil

	case tickMsg:
		m.activity.Decay(time.Time(msg))
		return m, tea.Batch(fetch(m.src, m.limit), tick(m.interval))

	case entriesMsg:
		m = m.apply([]delivery.Entry(msg))
		return m, nil

	case errMsg:
		m.lastError = msg.Error()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) apply(entries []delivery.Entry) Model {
	now := m.now()
	m.stats = Stats{LastPoll: now}
	for _, e := range entries {
		switch {
		case !e.Accepted:
			m.stats.Rejected++
		case e.Reason != "":
			m.stats.Failed++
		default:
			m.stats.Accepted++
		}
	}
	if len(entries) > 0 && entries[0].ID != m.lastID {
		// The first poll is history, not activity.
		if m.loaded {
			m.activity.OnDelivery(now)
		}
		m.lastID = entries[0].ID
	}
	m.loaded = true
	m.entries = entries
	m.lastError = ""

	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, row(e))
	}
	m.table.SetRows(rows)
	return m
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading deliveries..."
	}

	header := renderHeader(m.stats, m.activity, m.theme, m.width)
	body := m.theme.Border.Width(max(20, m.width-6)).Render(m.table.View())

	parts := []string{header, body}
	if m.lastError != "" {
		parts = append(parts, m.theme.Rejected.Render(" ⚠ "+m.lastError))
	}
	parts = append(parts, m.theme.Dim.Render(" [q] Quit • [↑/↓] Scroll"))

	return lipgloss.NewStyle().Margin(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}

func columns(width int) []table.Column {
	reason := max(10, width-2-8-20-10-8-10)
	return []table.Column{
		{Title: "ST", Width: 2},
		{Title: "Time", Width: 8},
		{Title: "Feed", Width: 20},
		{Title: "Bytes", Width: 8},
		{Title: "Request", Width: 10},
		{Title: "Reason", Width: reason},
	}
}

func row(e delivery.Entry) table.Row {
	status := "✓"
	switch {
	case !e.Accepted:
		status = "✗"
	case e.Reason != "":
		status = "!"
	}
	return table.Row{
		status,
		e.ReceivedAt.Local().Format("15:04:05"),
		e.FeedID,
		fmt.Sprintf("%d", e.BodyBytes),
		shortID(e.RequestID),
		e.Reason,
	}
}

func shortID(id string) string {
	if len(id) > 10 {
		return id[len(id)-10:]
	}
	return id
}
