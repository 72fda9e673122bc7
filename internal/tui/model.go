// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/glyphtype/internal/engine"
	"github.com/verte-zerg/glyphtype/internal/generator"
	"github.com/verte-zerg/glyphtype/internal/keyboard"
	"github.com/verte-zerg/glyphtype/internal/layout"
	"github.com/verte-zerg/glyphtype/internal/model"
	statsPkg "github.com/verte-zerg/glyphtype/internal/stats"
)

const tickInterval = 100 * time.Millisecond

// Store is the persistence the practice screen needs.
type Store interface {
	PersistResult(ctx context.Context, res model.TypingResults, rc model.ResultContext) (int64, error)
	GetWeakChars(ctx context.Context, window int, lang string) ([]model.CharAggregate, error)
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error)
}

// Options wires a practice screen.
type Options struct {
	Config    model.Config
	Engine    *engine.Engine
	Generator *generator.Generator
	Words     []string
	Target    *layout.Resolver
	// Host maps terminal runes back to physical keys. Nil types runes on the
	// target layout directly.
	Host *layout.Resolver
	// Store is optional. Without it results are shown but not saved.
	Store   Store
	WeakSet map[rune]struct{}
	Logger  *zap.Logger
	Now     func() time.Time
}

type tickMsg time.Time

// Model implements the Bubble Tea typing UI.
type Model struct {
	cfg    model.Config
	engine *engine.Engine
	gen    *generator.Generator
	words  []string
	target *layout.Resolver
	host   *layout.Resolver
	store  Store
	logger *zap.Logger
	now    func() time.Time

	weakSet map[rune]struct{}

	session     *engine.Session
	disp        *keyboard.Dispatcher
	targetRunes []rune
	result      *model.TypingResults
	notice      string

	width        int
	height       int
	showKeyboard bool
	keys         keyMap
	help         help.Model
	progress     progress.Model

	footer footerStats
}

type footerStats struct {
	hasLast bool
	lastWPM float64
	lastAcc float64
	allWPM  float64
	allAcc  float64
}

var (
	correctStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	headerStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	keyStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	nextKeyStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#141414")).Background(lipgloss.Color("#C89A3A"))
	needModifierStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#141414")).Background(lipgloss.Color("#8C6A2A"))
	activeModifierStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Underline(true)
	cardStyle           = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#6E6E6E")).Padding(1, 3)
)

// NewModel constructs a typing TUI model with its first session.
func NewModel(opts Options) (*Model, error) {
	if opts.Target == nil {
		return nil, errors.New("target layout is required")
	}
	if opts.Engine == nil {
		opts.Engine = engine.New(opts.Logger)
	}
	if opts.Generator == nil {
		opts.Generator = generator.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := &Model{
		cfg:          opts.Config,
		engine:       opts.Engine,
		gen:          opts.Generator,
		words:        opts.Words,
		target:       opts.Target,
		host:         opts.Host,
		store:        opts.Store,
		logger:       opts.Logger,
		now:          opts.Now,
		weakSet:      opts.WeakSet,
		disp:         keyboard.NewDispatcher(opts.Target),
		showKeyboard: true,
		keys:         defaultKeyMap(),
		help:         help.New(),
		progress:     progress.New(progress.WithSolidFill("#C89A3A"), progress.WithoutPercentage()),
	}
	if err := m.startSession(); err != nil {
		return nil, err
	}
	m.loadFooterStats()
	return m, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		if m.session.State() == engine.StateRunning {
			m.session.Tick(m.now().UnixMilli())
			m.checkFinished()
		}
		return m, m.tick()
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		m.session.Cancel()
		return tea.Quit
	}
	if m.result != nil {
		if key.Matches(msg, m.keys.Next) {
			m.restart()
		}
		return nil
	}
	switch {
	case key.Matches(msg, m.keys.Restart):
		m.restart()
		return nil
	case key.Matches(msg, m.keys.Pause):
		m.togglePause()
		return nil
	case key.Matches(msg, m.keys.Finish):
		if _, ok := m.session.Complete(m.now().UnixMilli()); ok {
			m.checkFinished()
		}
		return nil
	case key.Matches(msg, m.keys.Keyboard):
		m.showKeyboard = !m.showKeyboard
		return nil
	}
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete:
		m.disp.Feed(keyboard.Event{Code: keyboard.Backspace, Type: keyboard.KeyDown})
		m.applyInput()
	case tea.KeySpace:
		m.handleRunes([]rune{' '}, msg.Alt)
	case tea.KeyRunes:
		m.handleRunes(msg.Runes, msg.Alt)
	}
	return nil
}

func (m *Model) handleRunes(runes []rune, alt bool) {
	for _, r := range runes {
		if utf8.RuneCountInString(m.disp.Buffer()) >= len(m.targetRunes) {
			break
		}
		events, ok := m.eventsFor(r, alt)
		if !ok {
			m.logger.Debug("rune has no key", zap.String("rune", string(r)))
			continue
		}
		m.disp.FeedAll(events)
	}
	m.applyInput()
}

// eventsFor replays a terminal rune as key events. The host layout is tried
// first so a US keyboard can type Lisu or Myanmar. Runes the host does not
// know, such as those from a native input method, are typed on the target.
func (m *Model) eventsFor(r rune, alt bool) ([]keyboard.Event, bool) {
	ch := string(r)
	if m.host != nil {
		if events, ok := keyboard.HostEvents(m.host, ch, alt); ok {
			return events, true
		}
	}
	return keyboard.HostEvents(m.target, ch, alt)
}

func (m *Model) applyInput() {
	if m.session.State().Terminal() {
		return
	}
	m.session.ProcessInput(m.disp.Buffer(), m.now().UnixMilli())
	m.checkFinished()
}

func (m *Model) togglePause() {
	nowMs := m.now().UnixMilli()
	switch m.session.State() {
	case engine.StateRunning:
		if !m.session.Pause(nowMs) {
			m.notice = fmt.Sprintf("pause is only available in %s mode", model.ModePractice)
		}
	case engine.StatePaused:
		m.session.Resume(nowMs)
	}
}

func (m *Model) restart() {
	m.session.Cancel()
	if err := m.startSession(); err != nil {
		m.notice = err.Error()
		m.logger.Error("failed to start session", zap.Error(err))
	}
}

func (m *Model) startSession() error {
	text, err := m.gen.TargetText(m.words, generator.Request{
		Count:      m.wordCount(),
		Script:     m.target.Definition().Script,
		Difficulty: m.cfg.Difficulty,
		TextType:   m.cfg.TextType,
		Weak:       m.activeWeakSet(),
		WeakFactor: m.cfg.WeakFactor,
	})
	if err != nil {
		return fmt.Errorf("failed to generate text: %w", err)
	}
	wordTarget := 0
	if m.cfg.Termination == model.TerminationWords {
		wordTarget = m.cfg.Words
	}
	session, err := m.engine.Start(model.TypingTarget{
		Content:    text,
		Language:   m.cfg.Lang,
		TextType:   m.cfg.TextType,
		Difficulty: m.cfg.Difficulty,
	}, engine.Options{
		Mode:           m.cfg.Mode,
		Termination:    m.cfg.Termination,
		Duration:       m.cfg.Duration,
		WordTarget:     wordTarget,
		Commitment:     m.cfg.Commitment,
		SampleInterval: m.cfg.SampleInterval,
		Fingers:        m.target,
	})
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	m.session = session
	m.targetRunes = []rune(session.Target().Content)
	m.disp.Reset()
	m.result = nil
	m.notice = ""
	return nil
}

// wordCount sizes the text. Timed sessions get enough words for a fast typist.
func (m *Model) wordCount() int {
	count := m.cfg.Words
	if m.cfg.Termination == model.TerminationTime {
		count = max(count, int(m.cfg.Duration.Minutes()*150))
	}
	return max(count, 1)
}

func (m *Model) activeWeakSet() map[rune]struct{} {
	if !m.cfg.FocusWeak || len(m.weakSet) == 0 {
		return nil
	}
	return m.weakSet
}

func (m *Model) checkFinished() {
	if m.result != nil || m.session.State() != engine.StateCompleted {
		return
	}
	res, ok := m.session.Result()
	if !ok {
		return
	}
	m.result = &res
	m.finishSession(res)
}

func (m *Model) finishSession(res model.TypingResults) {
	m.footer.hasLast = true
	m.footer.lastWPM = res.WPM
	m.footer.lastAcc = res.Accuracy
	if m.store == nil {
		return
	}
	ctx := context.Background()
	if _, err := m.store.PersistResult(ctx, res, model.ResultContext{
		UserID:     m.cfg.User,
		Language:   m.cfg.Lang,
		Mode:       res.Mode,
		Difficulty: m.cfg.Difficulty,
		TextType:   m.cfg.TextType,
	}); err != nil {
		m.notice = "result not saved"
		m.logger.Error("failed to save result", zap.String("session", res.SessionID), zap.Error(err))
	}
	m.loadFooterStats()
	if m.cfg.FocusWeak {
		m.refreshWeakSet()
	}
}

func (m *Model) loadFooterStats() {
	if m.store == nil {
		return
	}
	sessions, err := m.store.ListSessions(context.Background(), model.StatsConfig{Lang: m.cfg.Lang})
	if err != nil {
		m.logger.Error("failed to load session stats", zap.Error(err))
		return
	}
	if len(sessions) == 0 {
		return
	}
	last := sessions[len(sessions)-1]
	sum := statsPkg.Summarize(sessions)
	m.footer = footerStats{
		hasLast: true,
		lastWPM: last.WPM,
		lastAcc: last.Accuracy,
		allWPM:  sum.AvgWPM,
		allAcc:  sum.AvgAccuracy,
	}
}

func (m *Model) refreshWeakSet() {
	aggs, err := m.store.GetWeakChars(context.Background(), m.cfg.WeakWindow, m.cfg.Lang)
	if err != nil {
		m.logger.Error("failed to load weak chars", zap.Error(err))
		return
	}
	m.weakSet = statsPkg.SelectWeakChars(aggs, m.cfg.WeakTop)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.result != nil {
		return m.place(renderResults(*m.result, m.notice))
	}
	cursor := -1
	input := []rune(m.session.Input())
	if len(input) < len(m.targetRunes) {
		cursor = len(input)
	}
	cells := buildCells(m.targetRunes, input, cursor)
	if m.width == 0 || m.height == 0 {
		return joinCells(cells)
	}
	contentWidth := max(1, int(float64(m.width)*0.70))
	parts := []string{
		m.renderHeader(),
		"",
		lipgloss.NewStyle().Width(contentWidth).Render(wrapCells(cells, contentWidth)),
	}
	if m.showKeyboard && cursor >= 0 && m.height > 20 {
		var next *layout.Stroke
		want := string(m.targetRunes[cursor])
		if st, ok := m.target.FindKeyStroke(want); ok {
			next = &st
		}
		parts = append(parts, "", RenderKeyboard(m.target.Definition(), m.disp.Modifiers(), next))
		if next != nil {
			parts = append(parts, footerStyle.Render(strokeHint(*next, displayChar(want))))
		}
	}
	if m.notice != "" {
		parts = append(parts, "", incorrectStyle.Render(m.notice))
	}
	return m.place(lipgloss.JoinVertical(lipgloss.Center, parts...))
}

func (m *Model) place(content string) string {
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter()
	if m.height < 4 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	helpLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, m.help.View(m.keys))
	return body + "\n" + footerLine + "\n" + helpLine
}

func (m *Model) renderHeader() string {
	segments := []string{m.target.Definition().Name, string(m.cfg.Mode), string(m.cfg.Difficulty)}
	nowMs := m.now().UnixMilli()
	switch {
	case m.session.State() == engine.StatePaused:
		segments = append(segments, "paused")
	case m.cfg.Termination == model.TerminationTime:
		segments = append(segments, formatClock(m.session.Remaining(nowMs)))
	}
	return headerStyle.Render(strings.Join(segments, " · "))
}

func (m *Model) renderFooter() string {
	if len(m.targetRunes) == 0 {
		return ""
	}
	m.progress.Width = max(10, min(40, m.width/4))
	done := float64(m.session.Cursor()) / float64(len(m.targetRunes))
	if m.result != nil {
		done = 1
	}
	return m.progress.ViewAs(done) + "  " + footerLine(m.footer, m.session.Stats())
}

func footerLine(f footerStats, live model.LiveTypingStats) string {
	segments := []string{fmt.Sprintf("Now %.1f WPM · %.1f%%", live.CurrentWPM, live.CurrentAccuracy)}
	if f.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f WPM · %.1f%%", f.lastWPM, f.lastAcc))
	}
	segments = append(segments, fmt.Sprintf("All-time %.1f WPM · %.1f%%", f.allWPM, f.allAcc))
	return footerStyle.Render(strings.Join(segments, "  "))
}

func renderResults(res model.TypingResults, notice string) string {
	lines := []string{
		headerStyle.Render(fmt.Sprintf("%.0f WPM", res.WPM)),
		"",
		fmt.Sprintf("Accuracy     %.2f%%", res.Accuracy),
		fmt.Sprintf("Consistency  %.2f%%", res.Consistency),
		fmt.Sprintf("Words        %d correct · %d incorrect", res.CorrectWords, res.IncorrectWords),
		fmt.Sprintf("Keystrokes   %d · %d errors", res.CharactersTyped, res.Errors),
		fmt.Sprintf("Time         %s", formatClock(time.Duration(res.DurationSeconds*float64(time.Second)))),
	}
	if len(res.WPMSamples) > 1 {
		lines = append(lines, fmt.Sprintf("Pace         %s", statsPkg.Sparkline(res.WPMSamples)))
	}
	if finger, share, ok := busiestFinger(res.FingerUtilization); ok {
		lines = append(lines, fmt.Sprintf("Busiest      %s (%.0f%%)", finger, share))
	}
	if notice != "" {
		lines = append(lines, "", incorrectStyle.Render(notice))
	}
	lines = append(lines, "", footerStyle.Render("enter: next text · ctrl+c: quit"))
	return cardStyle.Render(strings.Join(lines, "\n"))
}

// busiestFinger returns the finger with the most keystrokes and its share.
func busiestFinger(fingers map[string]int) (string, float64, bool) {
	total, best, bestCount := 0, "", 0
	for _, f := range layout.Fingers {
		n := fingers[string(f)]
		total += n
		if n > bestCount {
			best, bestCount = string(f), n
		}
	}
	if bestCount == 0 {
		return "", 0, false
	}
	return best, float64(bestCount) / float64(total) * 100, true
}

func formatClock(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func displayChar(ch string) string {
	if ch == " " {
		return "space"
	}
	return statsPkg.CharLabel(ch)
}
