package tui

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlterm/sqlterm/internal/app"
	"github.com/sqlterm/sqlterm/internal/history"
)

func newTestModel(t *testing.T) model {
	t.Helper()
	hist := history.New(10, filepath.Join(t.TempDir(), "history.json"))
	return model{
		app:         app.New(nil, hist, nil),
		editor:      textarea.New(),
		tick:        250 * time.Millisecond,
		loadingTick: 80 * time.Millisecond,
	}
}

func TestInitArmsSingleTickChain(t *testing.T) {
	m := newTestModel(t)
	require.NotNil(t, m.Init())
}

func TestTickReschedulesExactlyOnce(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(tickMsg(time.Now()))
	assert.NotNil(t, cmd, "each tick must arm the next one")
}

func TestRunKeyDoesNotArmExtraTickChain(t *testing.T) {
	m := newTestModel(t)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Nil(t, cmd, "the chain armed by Init already covers polling")

	// Subsequent ticks still reschedule a single chain.
	_, cmd = updated.Update(tickMsg(time.Now()))
	assert.NotNil(t, cmd)
}

func TestOtherKeysDoNotArmTicks(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Nil(t, cmd)
}
