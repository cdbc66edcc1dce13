package deliveries

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/pushbridge/internal/delivery"
)

// Source is the delivery log being watched; *delivery.Store implements it.
type Source interface {
	Recent(ctx context.Context, limit int) ([]delivery.Entry, error)
}

type entriesMsg []delivery.Entry

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type tickMsg time.Time

func fetch(src Source, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		entries, err := src.Recent(ctx, limit)
		if err != nil {
			return errMsg{err}
		}
		return entriesMsg(entries)
	}
}

func tick(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg { return tickMsg(t) })
}
