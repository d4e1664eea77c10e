// Package ui provides the interactive task tree viewer.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/taskmd/internal/config"
	"github.com/nibzard/taskmd/internal/todo"
)

// Filter selects which tasks the viewer shows.
type Filter string

const (
	FilterAll  Filter = ""
	FilterOpen Filter = "open"
	FilterDone Filter = "done"
)

// LoadFunc loads the document shown by the viewer.
type LoadFunc func() (*todo.Document, error)

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

type tuiConfig struct {
	refresh time.Duration
	filter  Filter
}

// WithRefresh sets the reload interval. Zero disables reloading.
func WithRefresh(d time.Duration) TUIOption {
	return func(c *tuiConfig) {
		c.refresh = d
	}
}

// WithFilter sets the initial filter.
func WithFilter(f Filter) TUIOption {
	return func(c *tuiConfig) {
		c.filter = f
	}
}

// RunTUI starts the viewer for the document at path.
func RunTUI(ctx context.Context, cfg *config.Config, path string, opts ...TUIOption) error {
	if path == "-" {
		return fmt.Errorf("tui cannot read the task file from stdin")
	}
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	d, err := cfg.TodoDialect()
	if err != nil {
		return err
	}

	c := &tuiConfig{refresh: time.Duration(cfg.RefreshSeconds) * time.Second}
	for _, opt := range opts {
		opt(c)
	}

	load := func() (*todo.Document, error) { return todo.Load(path, d) }
	model := newTUIModel(path, load, c)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	return err
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	cursorStyle   = lipgloss.NewStyle().Bold(true).Reverse(true)
	doneStyle     = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	footerStyle   = lipgloss.NewStyle().Faint(true)
	detailsBorder = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderTop(true)
)

type row struct {
	task        *todo.Task
	depth       int
	hasChildren bool
}

type tuiModel struct {
	path         string
	load         LoadFunc
	doc          *todo.Document
	loadErr      error
	rows         []row
	cursor       int
	collapsed    map[todo.ID]bool
	filter       Filter
	showHelp     bool
	showDetails  bool
	tickInterval time.Duration
}

type tickMsg time.Time

func newTUIModel(path string, load LoadFunc, c *tuiConfig) *tuiModel {
	return &tuiModel{
		path:         path,
		load:         load,
		collapsed:    make(map[todo.ID]bool),
		filter:       c.filter,
		showDetails:  true,
		tickInterval: c.refresh,
	}
}

func (m *tuiModel) Init() tea.Cmd {
	m.refresh()
	if m.tickInterval <= 0 {
		return nil
	}
	return tickCmd(m.tickInterval)
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r", "f5":
			m.refresh()
		case "h", "?":
			m.showHelp = !m.showHelp
		case "d":
			m.showDetails = !m.showDetails
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			if len(m.rows) > 0 {
				m.cursor = len(m.rows) - 1
			}
		case "enter", " ":
			m.toggle()
		case "left":
			m.setCollapsed(true)
		case "right":
			m.setCollapsed(false)
		case "1":
			m.setFilter(FilterOpen)
		case "2":
			m.setFilter(FilterDone)
		case "0":
			m.setFilter(FilterAll)
		}
		return m, nil
	case tickMsg:
		m.refresh()
		return m, tickCmd(m.tickInterval)
	}

	return m, nil
}

func (m *tuiModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("taskmd: "+m.path) + "\n\n")

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b, m.tickInterval)
		return b.String()
	}

	if m.loadErr != nil {
		b.WriteString(errorStyle.Render("Error loading task file:") + "\n")
		b.WriteString("  " + m.loadErr.Error() + "\n\n")
		writeFooter(&b, m.tickInterval)
		return b.String()
	}
	if m.doc == nil {
		b.WriteString("Loading...\n\n")
		writeFooter(&b, m.tickInterval)
		return b.String()
	}

	total, done := m.doc.Stats()
	fmt.Fprintf(&b, "%d of %d done", done, total)
	if m.filter != FilterAll {
		fmt.Fprintf(&b, " | filter: %s (0 to clear)", m.filter)
	}
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString("  No tasks.\n\n")
	}
	for i, r := range m.rows {
		line := formatRow(r, m.collapsed[r.task.ID])
		switch {
		case i == m.cursor:
			line = cursorStyle.Render(line)
		case r.task.Completed:
			line = doneStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	if m.showDetails {
		if t := m.selected(); t != nil {
			b.WriteString("\n" + detailsBorder.Render(formatDetails(t)) + "\n")
		}
	}

	b.WriteString("\n")
	writeFooter(&b, m.tickInterval)
	return b.String()
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh reloads the document and keeps the cursor on the same task when
// it still exists.
func (m *tuiModel) refresh() {
	doc, err := m.load()
	if err != nil {
		m.loadErr = err
		m.doc = nil
		m.rows = nil
		m.cursor = 0
		return
	}
	var keep todo.ID
	if t := m.selected(); t != nil {
		keep = t.ID
	}
	m.loadErr = nil
	m.doc = doc
	m.rebuild(keep)
}

func (m *tuiModel) selected() *todo.Task {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].task
}

func (m *tuiModel) toggle() {
	t := m.selected()
	if t == nil || len(t.Children) == 0 {
		return
	}
	m.collapsed[t.ID] = !m.collapsed[t.ID]
	m.rebuild(t.ID)
}

func (m *tuiModel) setCollapsed(collapsed bool) {
	t := m.selected()
	if t == nil || len(t.Children) == 0 {
		return
	}
	if collapsed {
		m.collapsed[t.ID] = true
	} else {
		delete(m.collapsed, t.ID)
	}
	m.rebuild(t.ID)
}

func (m *tuiModel) setFilter(f Filter) {
	var keep todo.ID
	if t := m.selected(); t != nil {
		keep = t.ID
	}
	m.filter = f
	m.rebuild(keep)
}

// rebuild recomputes the visible rows and moves the cursor to keep, or
// clamps it when keep is no longer visible.
func (m *tuiModel) rebuild(keep todo.ID) {
	m.rows = m.rows[:0]
	if m.doc != nil {
		m.appendRows(m.doc.Tasks, 0)
	}
	if keep != "" {
		for i, r := range m.rows {
			if r.task.ID == keep {
				m.cursor = i
				return
			}
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *tuiModel) appendRows(tasks []*todo.Task, depth int) {
	for _, t := range tasks {
		if !m.visible(t) {
			continue
		}
		m.rows = append(m.rows, row{task: t, depth: depth, hasChildren: len(t.Children) > 0})
		if !m.collapsed[t.ID] {
			m.appendRows(t.Children, depth+1)
		}
	}
}

// visible reports whether t or one of its descendants matches the filter.
func (m *tuiModel) visible(t *todo.Task) bool {
	if matches(t, m.filter) {
		return true
	}
	for _, c := range t.Children {
		if m.visible(c) {
			return true
		}
	}
	return false
}

func matches(t *todo.Task, f Filter) bool {
	switch f {
	case FilterOpen:
		return !t.Completed
	case FilterDone:
		return t.Completed
	default:
		return true
	}
}

func formatRow(r row, collapsed bool) string {
	fold := " "
	if r.hasChildren {
		fold = "▾"
		if collapsed {
			fold = "▸"
		}
	}
	mark := "[ ]"
	if r.task.Completed {
		mark = "[x]"
	}
	return fmt.Sprintf("%s%s %s %s %s", strings.Repeat("  ", r.depth), fold, mark, r.task.ID, r.task.Name)
}

func formatDetails(t *todo.Task) string {
	var b strings.Builder
	status := "open"
	if t.Completed {
		status = "done"
	}
	fmt.Fprintf(&b, "ID:      %s\n", t.ID)
	fmt.Fprintf(&b, "Name:    %s\n", t.Name)
	fmt.Fprintf(&b, "Status:  %s\n", status)
	if t.StartTime != nil {
		fmt.Fprintf(&b, "Started: %s\n", t.StartTime.Format(time.RFC3339))
	}
	if t.EndTime != nil {
		fmt.Fprintf(&b, "Ended:   %s\n", t.EndTime.Format(time.RFC3339))
	}
	if t.Comment != nil && *t.Comment != "" {
		b.WriteString("Comment:\n")
		for _, line := range strings.Split(*t.Comment, "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  q, ctrl+c    Quit\n")
	b.WriteString("  r, F5        Reload file\n")
	b.WriteString("  up/k down/j  Move\n")
	b.WriteString("  g, G         First / last task\n")
	b.WriteString("  enter/space  Collapse or expand\n")
	b.WriteString("  left, right  Collapse, expand\n")
	b.WriteString("  d            Toggle details pane\n")
	b.WriteString("  h, ?         Toggle this help screen\n")
	b.WriteString("  1            Show open tasks\n")
	b.WriteString("  2            Show done tasks\n")
	b.WriteString("  0            Clear filter\n\n")
}

func writeFooter(b *strings.Builder, interval time.Duration) {
	refresh := "reload with r"
	if interval > 0 {
		refresh = fmt.Sprintf("Refreshing every %s", interval)
	}
	b.WriteString(footerStyle.Render("Press h for help | q to quit | "+refresh) + "\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
