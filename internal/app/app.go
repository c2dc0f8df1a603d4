// Package app holds the single-threaded application state and the async
// bridge between the UI loop and background query execution. All state is
// mutated from the polling step only; the background task communicates
// exclusively through a one-shot completion channel.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sqlterm/sqlterm/internal/db"
	"github.com/sqlterm/sqlterm/internal/history"
)

// Panel identifies the focused UI panel.
type Panel int

const (
	PanelQueryEditor Panel = iota
	PanelResults
	PanelSchemaExplorer
	PanelHistory
)

// ResultsTab selects the results pane view.
type ResultsTab int

const (
	TabData ResultsTab = iota
	TabColumns
	TabStats
)

// SpinnerFrames animates the busy indicator while a query is in flight.
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// outcome is the single value a background execution delivers.
type outcome struct {
	result *db.QueryResult
	err    error
}

// App is the application state. One query may be in flight at a time;
// starting another is a no-op until completion is observed.
type App struct {
	Conn    *db.Conn
	History *history.Store

	Query     string
	CursorPos int

	Result    *db.QueryResult
	IsLoading bool
	Err       string
	Message   string
	Status    string

	ActivePanel Panel
	Tab         ResultsTab

	SchemaTree     []*TreeNode
	SchemaSelected int

	ResultsSelected    int
	ResultsColSelected int
	ResultsScroll      int
	HistorySelected    int

	ServerVersion string
	SpinnerFrame  int
	ShouldQuit    bool

	pending     chan outcome
	pendingText string

	logger *slog.Logger
}

// New builds application state around an open connection. If logger is
// nil, a discard logger is used.
func New(conn *db.Conn, hist *history.Store, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &App{
		Conn:        conn,
		History:     hist,
		Result:      db.EmptyResult(),
		ActivePanel: PanelQueryEditor,
		logger:      logger,
	}
}

// StartQuery spawns background execution of the current query text. It is
// a no-op when the text is blank or a query is already in flight.
func (a *App) StartQuery() {
	if strings.TrimSpace(a.Query) == "" || a.IsLoading {
		return
	}

	a.IsLoading = true
	a.Err = ""
	a.Message = ""
	a.SpinnerFrame = 0

	ch := make(chan outcome, 1)
	a.pending = ch
	a.pendingText = a.Query

	conn := a.Conn
	query := a.Query
	go func() {
		defer close(ch)
		result, err := db.Execute(context.Background(), conn, query)
		ch <- outcome{result: result, err: err}
	}()
}

// CheckQueryCompletion polls the completion channel without blocking.
// Called once per tick from the run loop; it is the only place query
// outcomes enter application state.
func (a *App) CheckQueryCompletion() {
	if a.pending == nil {
		return
	}

	select {
	case out, ok := <-a.pending:
		if !ok {
			// Channel closed without a value.
			a.Err = db.ErrInterrupted.Error()
			a.finishQuery()
			return
		}
		if out.err != nil {
			a.Err = out.err.Error()
			a.finishQuery()
			return
		}

		result := out.result
		rowCount := result.RowCount
		a.History.Add(a.pendingText, result.ExecutionTime.Milliseconds(), &rowCount, a.Conn.Database())

		a.Message = fmt.Sprintf("%d row(s) returned in %.2fms",
			rowCount, float64(result.ExecutionTime.Microseconds())/1000.0)

		a.Result = result
		a.ResultsScroll = 0
		a.ResultsSelected = 0
		a.ResultsColSelected = 0
		a.ActivePanel = PanelResults
		a.finishQuery()

	default:
		// Still waiting.
	}
}

func (a *App) finishQuery() {
	a.IsLoading = false
	a.pending = nil
	a.pendingText = ""
}

// LoadSchema populates the schema tree from the catalog. Each object
// class loads best-effort; a failing lookup leaves its folder empty.
func (a *App) LoadSchema(ctx context.Context) {
	tablesFolder := NewFolder("Tables")
	viewsFolder := NewFolder("Views")
	procsFolder := NewFolder("Stored Procedures")

	if tables, err := db.Tables(ctx, a.Conn, ""); err == nil {
		for _, t := range tables {
			tablesFolder.Children = append(tablesFolder.Children, &TreeNode{
				Name:   t.Schema + "." + t.Name,
				Type:   NodeTable,
				Schema: t.Schema,
			})
		}
	} else {
		a.logger.Debug("failed to load tables", slog.String("error", err.Error()))
	}

	if views, err := db.Views(ctx, a.Conn, ""); err == nil {
		for _, v := range views {
			viewsFolder.Children = append(viewsFolder.Children, &TreeNode{
				Name:   v.Schema + "." + v.Name,
				Type:   NodeView,
				Schema: v.Schema,
			})
		}
	} else {
		a.logger.Debug("failed to load views", slog.String("error", err.Error()))
	}

	if procs, err := db.Procedures(ctx, a.Conn, ""); err == nil {
		for _, p := range procs {
			procsFolder.Children = append(procsFolder.Children, &TreeNode{
				Name:   p.Schema + "." + p.Name,
				Type:   NodeProcedure,
				Schema: p.Schema,
			})
		}
	} else {
		a.logger.Debug("failed to load procedures", slog.String("error", err.Error()))
	}

	a.SchemaTree = []*TreeNode{tablesFolder, viewsFolder, procsFolder}
	a.SchemaSelected = 0
}

// ToggleSchemaNode expands or collapses the selected schema node.
func (a *App) ToggleSchemaNode() {
	visible := FlattenTree(a.SchemaTree)
	if a.SchemaSelected < len(visible) {
		node := visible[a.SchemaSelected].Node
		node.Expanded = !node.Expanded
	}
}

// InsertSchemaObject inserts the selected table or view reference into
// the query editor at the cursor.
func (a *App) InsertSchemaObject() {
	visible := FlattenTree(a.SchemaTree)
	if a.SchemaSelected >= len(visible) {
		return
	}
	node := visible[a.SchemaSelected].Node
	if node.Type != NodeTable && node.Type != NodeView {
		return
	}

	insert := "[" + node.Name + "]"
	a.Query = a.Query[:a.CursorPos] + insert + a.Query[a.CursorPos:]
	a.CursorPos += len(insert)
	a.ActivePanel = PanelQueryEditor
}

// LoadHistoryEntry copies the selected history entry into the editor.
// The history pane lists entries newest first; HistorySelected indexes
// that ordering.
func (a *App) LoadHistoryEntry() {
	entries := a.History.Entries()
	idx := len(entries) - 1 - a.HistorySelected
	if idx < 0 || idx >= len(entries) {
		return
	}
	a.Query = entries[idx].Query
	a.CursorPos = len(a.Query)
	a.ActivePanel = PanelQueryEditor
}

// FormatQuery reformats the editor text with keyword line breaks.
func (a *App) FormatQuery() {
	a.Query = FormatSQL(a.Query)
	a.CursorPos = len(a.Query)
}

// AdvanceSpinner steps the busy-indicator animation.
func (a *App) AdvanceSpinner() {
	a.SpinnerFrame = (a.SpinnerFrame + 1) % len(SpinnerFrames)
}
