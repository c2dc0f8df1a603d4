package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/sqlterm/sqlterm/internal/app"
)

// Layout geometry.
const (
	schemaPaneWidth = 34
	editorHeight    = 6
	maxCellWidth    = 40
)

// Process-wide palette. Immutable configuration, no lifecycle beyond
// process start.
var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	focusedBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("69"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("69")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("179")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

func (m model) View() string {
	if m.width == 0 {
		return "loading..."
	}
	if m.showHelp {
		return m.helpView()
	}

	left := m.schemaView()
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.editorView(),
		m.resultsView(),
		m.historyView(),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusView())
}

func (m model) paneStyle(panel app.Panel) lipgloss.Style {
	if m.app.ActivePanel == panel {
		return focusedBorderStyle
	}
	return borderStyle
}

func (m model) editorView() string {
	title := titleStyle.Render(" Query ") + dimStyle.Render("(Ctrl+R run, Ctrl+F format)")
	return m.paneStyle(app.PanelQueryEditor).
		Width(m.contentWidth()).
		Render(title + "\n" + m.editor.View())
}

func (m model) schemaView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" Schema "))
	b.WriteByte('\n')

	visible := app.FlattenTree(m.app.SchemaTree)
	height := m.height - 4
	start := 0
	if m.app.SchemaSelected >= height {
		start = m.app.SchemaSelected - height + 1
	}

	for i := start; i < len(visible) && i-start < height; i++ {
		node := visible[i]
		line := strings.Repeat("  ", node.Depth) + node.Node.Icon() + " " + node.Node.Name
		line = runewidth.Truncate(line, schemaPaneWidth-2, "…")
		if i == m.app.SchemaSelected && m.app.ActivePanel == app.PanelSchemaExplorer {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	return m.paneStyle(app.PanelSchemaExplorer).
		Width(schemaPaneWidth).
		Height(m.height - 3).
		Render(b.String())
}

func (m model) resultsView() string {
	var b strings.Builder

	title := " Results "
	if m.app.IsLoading {
		title += app.SpinnerFrames[m.app.SpinnerFrame] + " running... "
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString(dimStyle.Render(tabLabel(m.app.Tab)))
	b.WriteByte('\n')

	switch m.app.Tab {
	case app.TabColumns:
		m.renderColumnsTab(&b)
	case app.TabStats:
		m.renderStatsTab(&b)
	default:
		m.renderDataTab(&b)
	}

	return m.paneStyle(app.PanelResults).
		Width(m.contentWidth()).
		Render(b.String())
}

func tabLabel(tab app.ResultsTab) string {
	switch tab {
	case app.TabColumns:
		return "[1 Data | 2 Columns* | 3 Stats]"
	case app.TabStats:
		return "[1 Data | 2 Columns | 3 Stats*]"
	default:
		return "[1 Data* | 2 Columns | 3 Stats]"
	}
}

func (m model) renderDataTab(b *strings.Builder) {
	result := m.app.Result
	if result == nil || len(result.Columns) == 0 {
		b.WriteString(dimStyle.Render("no results"))
		return
	}

	widths := make([]int, len(result.Columns))
	var cells []string
	for i, col := range result.Columns {
		widths[i] = min(col.MaxWidth, maxCellWidth)
		cells = append(cells, pad(col.Name, widths[i]))
	}
	b.WriteString(headerStyle.Render(strings.Join(cells, " │ ")))
	b.WriteByte('\n')

	height := m.resultsHeight()
	start := 0
	if m.app.ResultsSelected >= height {
		start = m.app.ResultsSelected - height + 1
	}

	for r := start; r < len(result.Rows) && r-start < height; r++ {
		row := result.Rows[r]
		cells = cells[:0]
		for i, v := range row {
			text := pad(v.String(), widths[i])
			if r == m.app.ResultsSelected && i == m.app.ResultsColSelected &&
				m.app.ActivePanel == app.PanelResults {
				text = selectedStyle.Render(text)
			}
			cells = append(cells, text)
		}
		b.WriteString(strings.Join(cells, " │ "))
		b.WriteByte('\n')
	}
}

func (m model) renderColumnsTab(b *strings.Builder) {
	result := m.app.Result
	if result == nil || len(result.Columns) == 0 {
		b.WriteString(dimStyle.Render("no results"))
		return
	}
	b.WriteString(headerStyle.Render(pad("Column", 32) + " │ " + pad("Type", 20)))
	b.WriteByte('\n')
	for _, col := range result.Columns {
		b.WriteString(pad(col.Name, 32) + " │ " + pad(col.TypeName, 20))
		b.WriteByte('\n')
	}
}

func (m model) renderStatsTab(b *strings.Builder) {
	result := m.app.Result
	if result == nil {
		b.WriteString(dimStyle.Render("no results"))
		return
	}
	fmt.Fprintf(b, "Rows:      %d\n", result.RowCount)
	fmt.Fprintf(b, "Columns:   %d\n", len(result.Columns))
	fmt.Fprintf(b, "Elapsed:   %.2fms\n", float64(result.ExecutionTime.Microseconds())/1000.0)
	if result.AffectedRows != nil {
		fmt.Fprintf(b, "Affected:  %d\n", *result.AffectedRows)
	}
	for _, msg := range result.Messages {
		fmt.Fprintf(b, "%s\n", msg)
	}
}

func (m model) historyView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" History "))
	b.WriteByte('\n')

	entries := m.app.History.Entries()
	height := 4
	start := 0
	if m.app.HistorySelected >= height {
		start = m.app.HistorySelected - height + 1
	}

	// Newest first.
	for i := start; i < len(entries) && i-start < height; i++ {
		entry := entries[len(entries)-1-i]
		line := entry.Timestamp.Format("15:04:05") + "  " + firstLine(entry.Query)
		line = runewidth.Truncate(line, m.contentWidth()-4, "…")
		if i == m.app.HistorySelected && m.app.ActivePanel == app.PanelHistory {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	return m.paneStyle(app.PanelHistory).
		Width(m.contentWidth()).
		Render(b.String())
}

func (m model) statusView() string {
	if m.app.Err != "" {
		return errorStyle.Render("✗ " + m.app.Err)
	}
	if m.app.Message != "" {
		return messageStyle.Render("✓ " + m.app.Message)
	}
	return dimStyle.Render(m.app.Status + " | Tab cycle panes, Ctrl+H help, Ctrl+Q quit")
}

func (m model) helpView() string {
	help := `
 Keyboard Shortcuts

 Query:
   Ctrl+R       Run query
   Ctrl+F       Format SQL

 Navigation:
   Tab          Cycle panes
   Arrows/hjkl  Move within panes
   1 / 2 / 3    Results tabs (data, columns, stats)

 Schema:
   Enter/Space  Expand or collapse
   i            Insert object into editor
   r            Reload schema

 History:
   Enter        Load entry into editor

 Export:
   Ctrl+E       Export results to CSV
   Ctrl+J       Export results to JSON

 Ctrl+Q quits. Press any key to close.
`
	return borderStyle.Render(help)
}

func (m model) contentWidth() int {
	return max(20, m.width-schemaPaneWidth-4)
}

func (m model) resultsHeight() int {
	return max(3, m.height-editorHeight-14)
}

// pad fits s to the given display width, truncating on rune boundaries.
func pad(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
