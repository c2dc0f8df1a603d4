package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/sqlterm/sqlterm/internal/history"
)

func newDotCommandFixture(t *testing.T) (*cobra.Command, *history.Store, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	hist := history.New(10, filepath.Join(t.TempDir(), "history.json"))
	return cmd, hist, out
}

func TestHandleDotCommandQuitSignal(t *testing.T) {
	cmd, hist, _ := newDotCommandFixture(t)
	ctx := context.Background()

	tests := []struct {
		line string
		quit bool
	}{
		{".quit", true},
		{".exit", true},
		{".QUIT", true},
		{".Exit", true},
		{".help", false},
		{".history", false},
		{".bogus", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.quit, handleDotCommand(ctx, cmd, nil, hist, tt.line, "table"))
		})
	}
}

func TestHandleDotCommandHistoryOutput(t *testing.T) {
	cmd, hist, out := newDotCommandFixture(t)

	hist.Add("SELECT 1", 1, nil, "master")
	hist.Add("SELECT 2", 1, nil, "master")

	quit := handleDotCommand(context.Background(), cmd, nil, hist, ".history 2", "table")
	assert.False(t, quit)
	assert.NotContains(t, out.String(), "SELECT 1")
	assert.Contains(t, out.String(), "SELECT 2")
}
