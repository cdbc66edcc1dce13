package deliveries

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/pushbridge/internal/delivery"
	"github.com/mattjoyce/pushbridge/internal/webhook"
)

type fakeSource struct {
	entries []delivery.Entry
	err     error
}

func (f fakeSource) Recent(context.Context, int) ([]delivery.Entry, error) {
	return f.entries, f.err
}

func entry(id, feedID string, accepted bool, reason string) delivery.Entry {
	return delivery.Entry{
		ID: id,
		Delivery: webhook.Delivery{
			FeedID:     feedID,
			Accepted:   accepted,
			Reason:     reason,
			BodyBytes:  7,
			RequestID:  "host/abcdef-000001",
			ReceivedAt: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestFetchReturnsEntries(t *testing.T) {
	src := fakeSource{entries: []delivery.Entry{entry("1", "42", true, "")}}
	msg := fetch(src, 10)()
	got, ok := msg.(entriesMsg)
	require.True(t, ok)
	assert.Len(t, got, 1)

	msg = fetch(fakeSource{err: errors.New("db locked")}, 10)()
	errm, ok := msg.(errMsg)
	require.True(t, ok)
	assert.Equal(t, "db locked", errm.Error())
}

func TestApplyCountsAndActivity(t *testing.T) {
	m := New(fakeSource{}, 0, 0)
	assert.Equal(t, DefaultLimit, m.limit)
	assert.Equal(t, DefaultInterval, m.interval)

	m, _ = update(t, m, entriesMsg{
		entry("3", "42", false, "Missing signature."),
		entry("2", "42", true, "notified callback failed: boom"),
		entry("1", "42", true, ""),
	})
	assert.Equal(t, 1, m.stats.Accepted)
	assert.Equal(t, 1, m.stats.Failed)
	assert.Equal(t, 1, m.stats.Rejected)
	assert.Zero(t, m.activity.dots, "initial load is not activity")
	assert.Len(t, m.table.Rows(), 3)

	m, _ = update(t, m, entriesMsg{entry("4", "7", true, ""), entry("3", "42", false, "x")})
	assert.Equal(t, 5, m.activity.dots)
	assert.Equal(t, "4", m.lastID)
}

func TestErrorIsShownUntilNextPoll(t *testing.T) {
	m := New(fakeSource{}, 5, time.Second)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, errMsg{errors.New("db locked")})
	assert.Contains(t, m.View(), "db locked")

	m, _ = update(t, m, entriesMsg{})
	assert.NotContains(t, m.View(), "db locked")
}

func TestQuitKey(t *testing.T) {
	m := New(fakeSource{}, 5, time.Second)
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestViewBeforeResize(t *testing.T) {
	m := New(fakeSource{}, 5, time.Second)
	assert.Equal(t, "Loading deliveries...", m.View())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.True(t, strings.Contains(m.View(), "pushbridge deliveries"))
}

func TestActivityDecay(t *testing.T) {
	var a Activity
	start := time.Now()
	a.OnDelivery(start)
	a.Decay(start.Add(3 * time.Second))
	assert.Equal(t, 4, a.dots)
	a.Decay(start.Add(20 * time.Second))
	assert.Zero(t, a.dots)
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "def-000001", shortID("host/abcdef-000001"))
}
