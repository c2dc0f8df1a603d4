// Package tui drives the full-screen terminal UI. It is a thin
// presentation layer: all query, schema, and history semantics live in
// internal/app, and the bubbletea update loop only feeds input into that
// state and repaints it on a fixed tick.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sqlterm/sqlterm/internal/app"
	"github.com/sqlterm/sqlterm/internal/config"
	"github.com/sqlterm/sqlterm/internal/db"
	"github.com/sqlterm/sqlterm/internal/export"
	"github.com/sqlterm/sqlterm/internal/history"
)

// tickMsg drives completion polling and redraw.
type tickMsg time.Time

type model struct {
	app    *app.App
	editor textarea.Model

	tick        time.Duration
	loadingTick time.Duration

	width  int
	height int

	showHelp bool
}

// Run connects, builds the application state, and runs the UI until the
// operator quits.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	conn, err := db.Connect(ctx, cfg.Connection, logger)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	histPath := cfg.History.Path
	if histPath == "" {
		histPath = history.DefaultPath()
	}
	hist := history.New(cfg.History.MaxEntries, histPath)

	a := app.New(conn, hist, logger)
	if version, err := conn.ServerVersion(ctx); err == nil {
		a.ServerVersion = version
	} else {
		a.ServerVersion = "SQL Server"
	}
	a.Status = "Connected | " + a.ServerVersion
	a.LoadSchema(ctx)

	editor := textarea.New()
	editor.Placeholder = "Enter SQL, Ctrl+R to run"
	editor.Focus()

	m := model{
		app:         a,
		editor:      editor,
		tick:        time.Duration(cfg.UI.TickMS) * time.Millisecond,
		loadingTick: time.Duration(cfg.UI.LoadingTickMS) * time.Millisecond,
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m model) Init() tea.Cmd {
	return m.scheduleTick()
}

// scheduleTick arms the next redraw. The interval shortens while a query
// is in flight so the spinner animates smoothly.
func (m model) scheduleTick() tea.Cmd {
	interval := m.tick
	if m.app.IsLoading {
		interval = m.loadingTick
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.editor.SetWidth(max(20, m.width-schemaPaneWidth-6))
		m.editor.SetHeight(editorHeight)
		return m, nil

	case tickMsg:
		// The polling step: the only place query outcomes enter UI state.
		m.app.CheckQueryCompletion()
		if m.app.IsLoading {
			m.app.AdvanceSpinner()
		}
		return m, m.scheduleTick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "ctrl+q":
		m.app.ShouldQuit = true
		return m, tea.Quit

	case "ctrl+r":
		m.app.Query = m.editor.Value()
		m.app.StartQuery()
		// The tick chain armed by Init picks up the shorter loading
		// interval on its next round; arming another here would leave a
		// second perpetual chain running.
		return m, nil

	case "tab":
		m.cyclePanel()
		return m, nil

	case "ctrl+h":
		m.showHelp = true
		return m, nil

	case "ctrl+f":
		m.app.Query = m.editor.Value()
		m.app.FormatQuery()
		m.editor.SetValue(m.app.Query)
		return m, nil

	case "ctrl+e":
		m.exportResult("csv")
		return m, nil

	case "ctrl+j":
		m.exportResult("json")
		return m, nil
	}

	switch m.app.ActivePanel {
	case app.PanelQueryEditor:
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		m.app.Query = m.editor.Value()
		return m, cmd
	case app.PanelResults:
		m.handleResultsKey(msg)
	case app.PanelSchemaExplorer:
		m.handleSchemaKey(msg)
	case app.PanelHistory:
		m.handleHistoryKey(msg)
	}
	return m, nil
}

func (m *model) cyclePanel() {
	switch m.app.ActivePanel {
	case app.PanelQueryEditor:
		m.app.ActivePanel = app.PanelResults
		m.editor.Blur()
	case app.PanelResults:
		m.app.ActivePanel = app.PanelSchemaExplorer
	case app.PanelSchemaExplorer:
		m.app.ActivePanel = app.PanelHistory
	default:
		m.app.ActivePanel = app.PanelQueryEditor
		m.editor.Focus()
	}
}

func (m *model) handleResultsKey(msg tea.KeyMsg) {
	result := m.app.Result
	switch msg.String() {
	case "up", "k":
		if m.app.ResultsSelected > 0 {
			m.app.ResultsSelected--
		}
	case "down", "j":
		if m.app.ResultsSelected < result.RowCount-1 {
			m.app.ResultsSelected++
		}
	case "left", "h":
		if m.app.ResultsColSelected > 0 {
			m.app.ResultsColSelected--
		}
	case "right", "l":
		if m.app.ResultsColSelected < len(result.Columns)-1 {
			m.app.ResultsColSelected++
		}
	case "g":
		m.app.ResultsSelected = 0
	case "G":
		if result.RowCount > 0 {
			m.app.ResultsSelected = result.RowCount - 1
		}
	case "1":
		m.app.Tab = app.TabData
	case "2":
		m.app.Tab = app.TabColumns
	case "3":
		m.app.Tab = app.TabStats
	}
}

func (m *model) handleSchemaKey(msg tea.KeyMsg) {
	visible := app.FlattenTree(m.app.SchemaTree)
	switch msg.String() {
	case "up", "k":
		if m.app.SchemaSelected > 0 {
			m.app.SchemaSelected--
		}
	case "down", "j":
		if m.app.SchemaSelected < len(visible)-1 {
			m.app.SchemaSelected++
		}
	case "enter", " ":
		m.app.ToggleSchemaNode()
	case "i":
		m.app.InsertSchemaObject()
		if m.app.ActivePanel == app.PanelQueryEditor {
			m.editor.SetValue(m.app.Query)
			m.editor.Focus()
		}
	case "r":
		m.app.LoadSchema(context.Background())
	}
}

func (m *model) handleHistoryKey(msg tea.KeyMsg) {
	entries := m.app.History.Entries()
	switch msg.String() {
	case "up", "k":
		if m.app.HistorySelected > 0 {
			m.app.HistorySelected--
		}
	case "down", "j":
		if m.app.HistorySelected < len(entries)-1 {
			m.app.HistorySelected++
		}
	case "enter":
		m.app.LoadHistoryEntry()
		if m.app.ActivePanel == app.PanelQueryEditor {
			m.editor.SetValue(m.app.Query)
			m.editor.Focus()
		}
	}
}

func (m *model) exportResult(format string) {
	if m.app.Result == nil || m.app.Result.RowCount == 0 {
		m.app.Message = "No results to export"
		return
	}

	filename := fmt.Sprintf("sqlterm_export_%d.%s", time.Now().Unix(), format)
	var err error
	if format == "json" {
		err = export.JSON(m.app.Result, filename)
	} else {
		err = export.CSV(m.app.Result, filename)
	}
	if err != nil {
		m.app.Err = err.Error()
		return
	}
	m.app.Message = fmt.Sprintf("Exported %d rows to %s", m.app.Result.RowCount, filename)
}
