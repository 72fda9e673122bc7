// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/glyphtype/internal/model"
	"github.com/verte-zerg/glyphtype/internal/stats"
	"github.com/verte-zerg/glyphtype/internal/store"
)

const (
	tabOverview = iota
	tabChars
	tabFingers
	tabCharCurves
)

const (
	plotHeight   = 10
	defaultChars = 3
	dateLayout   = "2006-01-02"
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig
	now   func() time.Time

	report     stats.Report
	errMsg     string
	perSession map[int64]map[string]model.CharAggregate
	chars      []string
	// charsCustom keeps a user selection across reloads.
	charsCustom bool

	tabs      []string
	activeTab int
	viewports []viewport.Model
	charTable table.Model

	width  int
	height int

	// inputs holds the language, since and last filters, then the char selection.
	inputs     []textinput.Model
	inputIndex int
	editing    bool
	inputError string
}

const charInput = 3

// NewModel constructs a stats UI model. A nil now uses the wall clock.
func NewModel(st *store.Store, cfg model.StatsConfig, now func() time.Time) *Model {
	if now == nil {
		now = time.Now
	}
	m := &Model{
		store: st,
		cfg:   cfg,
		now:   now,
		tabs:  []string{"Overview", "Chars", "Fingers", "Char Curves"},
	}
	m.chars = stats.ParseChars(cfg.Chars)
	m.charsCustom = len(m.chars) > 0
	m.inputs = []textinput.Model{
		newInput("lang: "),
		newInput("since: "),
		newInput("last: "),
		newInput("chars: "),
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(80, 20)
	}
	m.charTable = table.New(
		table.WithColumns(charColumns(80)),
		table.WithHeight(10),
		table.WithStyles(charTableStyles()),
	)
	m.refreshReport()
	return m
}

func newInput(prompt string) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.CharLimit = 64
	return in
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.editing {
			return m.updateInputs(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, nil
		case "right", "l":
			m.moveTab(1)
			return m, nil
		case "=":
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			m.refreshReport()
			return m, nil
		case "-":
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			m.refreshReport()
			return m, nil
		case "/":
			return m, m.startEditing(0)
		case "enter":
			if m.activeTab == tabCharCurves {
				return m, m.startEditing(charInput)
			}
			return m, nil
		}
		if m.activeTab == tabChars {
			var cmd tea.Cmd
			m.charTable, cmd = m.charTable.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	parts := []string{m.renderTabs(), headerStyle.Render(m.filterSummary())}
	if m.errMsg != "" {
		parts = append(parts, errorStyle.Render(m.errMsg))
	}
	if m.activeTab == tabChars {
		parts = append(parts, m.charTable.View())
	} else {
		parts = append(parts, m.viewports[m.activeTab].View())
	}
	parts = append(parts, m.renderFooter())
	return strings.Join(parts, "\n")
}

func (m *Model) moveTab(delta int) {
	n := len(m.tabs)
	m.activeTab = (m.activeTab + delta + n) % n
	if m.activeTab == tabChars {
		m.charTable.Focus()
	} else {
		m.charTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	items := make([]string, len(m.tabs))
	for i, name := range m.tabs {
		if i == m.activeTab {
			items[i] = activeNavStyle.Render(name)
		} else {
			items[i] = inactiveNavStyle.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, items...)
}

func (m *Model) filterSummary() string {
	lang := m.cfg.Lang
	if lang == "" {
		lang = "all"
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format(dateLayout)
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	return fmt.Sprintf("lang %s | since %s | last %s | window %d", lang, since, last, m.cfg.CurveWindow)
}

func (m *Model) renderFooter() string {
	if !m.editing {
		return headerStyle.Render("←/→ tabs • / filter • enter chars • =/- window • q quit")
	}
	lines := make([]string, 0, len(m.inputs)+2)
	if m.inputIndex == charInput {
		lines = append(lines, m.inputs[charInput].View())
	} else {
		for _, in := range m.inputs[:charInput] {
			lines = append(lines, in.View())
		}
	}
	if m.inputError != "" {
		lines = append(lines, errorStyle.Render(m.inputError))
	}
	lines = append(lines, headerStyle.Render("tab next • enter apply • esc cancel"))
	return strings.Join(lines, "\n")
}

func (m *Model) updateLayout() {
	width := max(m.width, 20)
	footer := 1
	if m.editing {
		footer = len(m.inputs) + 2
	}
	// Tabs take three lines with their borders plus the filter line.
	body := max(m.height-4-footer, 3)
	for i := range m.viewports {
		m.viewports[i].Width = width
		m.viewports[i].Height = body
	}
	m.charTable.SetColumns(charColumns(width))
	m.charTable.SetWidth(width)
	m.charTable.SetHeight(body)
}

func (m *Model) refreshReport() {
	ctx := context.Background()
	m.errMsg = ""
	report, err := stats.BuildReport(ctx, m.store, m.cfg)
	if err != nil {
		m.errMsg = fmt.Sprintf("Failed to load stats: %v", err)
		m.report = stats.Report{}
	} else {
		m.report = report
	}
	if !m.charsCustom {
		m.chars = stats.TopCharsByFrequency(m.report.CharAggsWindow, defaultChars)
	}
	m.perSession = nil
	if len(m.chars) > 0 && len(m.report.Sessions) > 0 {
		ids := make([]int64, len(m.report.Sessions))
		for i, s := range m.report.Sessions {
			ids[i] = s.SessionID
		}
		perSession, err := m.store.ListCharStatsForSessions(ctx, ids, m.chars)
		if err != nil {
			m.errMsg = fmt.Sprintf("Failed to load char stats: %v", err)
		}
		m.perSession = perSession
	}
	m.charTable.SetRows(charRows(m.report.CharAggsWindow))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(m.renderOverview(width))
	m.viewports[tabFingers].SetContent(render(func(buf *bytes.Buffer) error {
		if len(m.report.Fingers) == 0 {
			_, err := buf.WriteString("No finger data for these sessions.")
			return err
		}
		return stats.RenderFingerTable(buf, m.report.Fingers)
	}))
	m.viewports[tabCharCurves].SetContent(render(func(buf *bytes.Buffer) error {
		if len(m.chars) == 0 || len(m.report.Sessions) == 0 {
			_, err := buf.WriteString("No characters selected.")
			return err
		}
		return stats.RenderCharCurvesWithSize(buf, m.report.Sessions, m.perSession, m.chars, m.cfg.CurveWindow, width, plotHeight, true)
	}))
}

func (m *Model) renderOverview(width int) string {
	sessions := m.report.Sessions
	if len(sessions) == 0 {
		return "No sessions found."
	}
	sum := stats.Summarize(sessions)
	cards := []string{
		metricCard("Sessions", humanize.Comma(int64(sum.Sessions))),
		metricCard("Avg WPM", fmt.Sprintf("%.1f", sum.AvgWPM)),
		metricCard("Best WPM", fmt.Sprintf("%.1f", sum.BestWPM)),
		metricCard("Avg Acc", fmt.Sprintf("%.1f%%", sum.AvgAccuracy)),
		metricCard("Consistency", fmt.Sprintf("%.1f%%", sum.AvgConsistency)),
		metricCard("Last", humanize.RelTime(sum.LastEndedAt, m.now(), "ago", "from now")),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		summary = lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.JoinHorizontal(lipgloss.Top, cards[:3]...),
			lipgloss.JoinHorizontal(lipgloss.Top, cards[3:]...),
		)
	}
	curves := render(func(buf *bytes.Buffer) error {
		if err := stats.RenderSparkline(buf, "Last session", m.report.LatestSamples); err != nil {
			return err
		}
		return stats.RenderCurvesWithSize(buf, sessions, m.cfg.CurveWindow, width, plotHeight, true)
	})
	return summary + "\n\n" + curves
}

func metricCard(label, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func render(fn func(buf *bytes.Buffer) error) string {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return fmt.Sprintf("Failed to render: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func charColumns(width int) []table.Column {
	fixed := []int{10, 18, 9, 10}
	first := width - 4*len(fixed)
	for _, w := range fixed {
		first -= w
	}
	first = min(max(first, 8), 12)
	cols := []table.Column{{Title: stats.CharHeaders[0], Width: first}}
	for i, w := range fixed {
		cols = append(cols, table.Column{Title: stats.CharHeaders[i+1], Width: w})
	}
	return cols
}

func charRows(aggs []model.CharAggregate) []table.Row {
	rows := stats.CharRows(aggs)
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = table.Row(r)
	}
	return out
}

func charTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#3A3A3A")).
		Bold(false)
	return styles
}

func (m *Model) startEditing(index int) tea.Cmd {
	m.editing = true
	m.inputError = ""
	m.inputs[0].SetValue(m.cfg.Lang)
	m.inputs[1].SetValue("")
	if m.cfg.Since != nil {
		m.inputs[1].SetValue(m.cfg.Since.Format(dateLayout))
	}
	m.inputs[2].SetValue("")
	if m.cfg.Last > 0 {
		m.inputs[2].SetValue(strconv.Itoa(m.cfg.Last))
	}
	m.inputs[charInput].SetValue(strings.Join(m.chars, ","))
	m.updateLayout()
	return m.focusInput(index)
}

func (m *Model) focusInput(index int) tea.Cmd {
	m.inputIndex = index
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == index {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) updateInputs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.updateLayout()
		return m, nil
	case "tab", "down":
		if m.inputIndex < charInput {
			return m, m.focusInput((m.inputIndex + 1) % charInput)
		}
		return m, nil
	case "shift+tab", "up":
		if m.inputIndex < charInput {
			return m, m.focusInput((m.inputIndex + charInput - 1) % charInput)
		}
		return m, nil
	case "enter":
		if err := m.applyInputs(); err != nil {
			m.inputError = err.Error()
			return m, nil
		}
		m.editing = false
		m.updateLayout()
		m.refreshReport()
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.inputIndex], cmd = m.inputs[m.inputIndex].Update(msg)
	return m, cmd
}

func (m *Model) applyInputs() error {
	if m.inputIndex == charInput {
		m.chars = stats.ParseChars(m.inputs[charInput].Value())
		m.charsCustom = len(m.chars) > 0
		return nil
	}
	cfg := m.cfg
	cfg.Lang = strings.TrimSpace(m.inputs[0].Value())
	cfg.Since = nil
	if v := strings.TrimSpace(m.inputs[1].Value()); v != "" {
		since, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			return fmt.Errorf("since must look like %s", dateLayout)
		}
		cfg.Since = &since
	}
	cfg.Last = 0
	if v := strings.TrimSpace(m.inputs[2].Value()); v != "" {
		last, err := strconv.Atoi(v)
		if err != nil || last < 0 {
			return fmt.Errorf("last must be a non-negative number")
		}
		cfg.Last = last
	}
	m.cfg = cfg
	return nil
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}
