package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/glyphtype/internal/config"
	"github.com/verte-zerg/glyphtype/internal/layout"
	"github.com/verte-zerg/glyphtype/internal/model"
	"github.com/verte-zerg/glyphtype/internal/modifier"
	"github.com/verte-zerg/glyphtype/internal/stats"
	"github.com/verte-zerg/glyphtype/internal/statsui"
	"github.com/verte-zerg/glyphtype/internal/store"
	"github.com/verte-zerg/glyphtype/internal/tui"
	"github.com/verte-zerg/glyphtype/internal/wordlist"
)

var (
	statsLang        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsChars       string
	statsPlain       bool

	layoutLang  string
	layoutShift bool
	layoutAlt   bool
)

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List languages with a layout",
		Args:  cobra.NoArgs,
		RunE:  runLangsCmd,
	}
}

func runLangsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	registry, err := loadLayouts(fileCfg.Layouts)
	if err != nil {
		return err
	}
	rows := [][]string{{"Lang", "Layout", "Script", "Words"}}
	for _, lang := range registry.Languages() {
		def, _ := registry.Definition(lang)
		words := "none"
		if list, src, err := wordlist.Load(lang, config.DefaultWordListDir()); err == nil {
			words = fmt.Sprintf("%d (%s)", len(list), src)
		}
		rows = append(rows, []string{lang, def.Name, string(def.Script), words})
	}
	return writeColumns(cmd.OutOrStdout(), rows)
}

func newLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Inspect keyboard layouts",
	}
	cmd.PersistentFlags().StringVar(&layoutLang, "lang", defaultLang, "layout language")

	show := &cobra.Command{
		Use:   "show",
		Short: "Render the virtual keyboard",
		Args:  cobra.NoArgs,
		RunE:  runLayoutShowCmd,
	}
	show.Flags().BoolVar(&layoutShift, "shift", false, "show the shift layer")
	show.Flags().BoolVar(&layoutAlt, "alt", false, "show the alt layer")

	find := &cobra.Command{
		Use:   "find <chars>...",
		Short: "Show the keys that type each character",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runLayoutFindCmd,
	}
	cmd.AddCommand(show, find)
	return cmd
}

func layoutResolver() (*layout.Resolver, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	registry, err := loadLayouts(fileCfg.Layouts)
	if err != nil {
		return nil, err
	}
	res, err := registry.Resolver(layoutLang)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(registry.Languages(), ", "))
	}
	return res, nil
}

func runLayoutShowCmd(cmd *cobra.Command, _ []string) error {
	res, err := layoutResolver()
	if err != nil {
		return err
	}
	def := res.Definition()
	mods := modifier.State{Shift: layoutShift, Alt: layoutAlt}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "%s (%s)\n%s\n", def.Name, def.Language, tui.RenderKeyboard(def, mods, nil)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runLayoutFindCmd(cmd *cobra.Command, args []string) error {
	res, err := layoutResolver()
	if err != nil {
		return err
	}
	rows := findRows(res, args)
	if len(rows) == 1 {
		return fmt.Errorf("no characters given")
	}
	return writeColumns(cmd.OutOrStdout(), rows)
}

// findRows lists the stroke for every rune of args. The first row is the header.
func findRows(res *layout.Resolver, args []string) [][]string {
	rows := [][]string{{"Char", "Key", "Modifiers", "Finger", "Types"}}
	for _, arg := range args {
		for _, r := range arg {
			ch := string(r)
			label := stats.CharLabel(ch)
			st, ok := res.FindKeyStroke(ch)
			if !ok {
				rows = append(rows, []string{label, "-", "-", "-", "not on this layout"})
				continue
			}
			mods := strokeModifiers(st.Modifiers())
			finger := string(st.Key.Finger)
			if finger == "" {
				finger = "-"
			}
			types := stats.CharLabel(st.Char)
			if st.Transliterated {
				types += " (transliterated)"
			}
			rows = append(rows, []string{label, st.Key.ID, mods, finger, types})
		}
	}
	return rows
}

func strokeModifiers(s modifier.State) string {
	var parts []string
	if s.Shift {
		parts = append(parts, "shift")
	}
	if s.Alt {
		parts = append(parts, "alt")
	}
	if s.Ctrl {
		parts = append(parts, "ctrl")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "+")
}

// writeColumns left-aligns rows by display width so Lisu and Myanmar cells line up.
func writeColumns(w io.Writer, rows [][]string) error {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for _, row := range rows {
		var b strings.Builder
		for i, cell := range row {
			b.WriteString(cell)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)+2))
			}
		}
		if _, err := fmt.Fprintln(w, b.String()); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsLang, "lang", "", "language filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().StringVar(&statsChars, "char", "", "characters for per-char curves")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a plain report instead of the TUI")
	return cmd
}

func parseSince(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --since value: %w", err)
	}
	return &parsed, nil
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	since, err := parseSince(statsSince)
	if err != nil {
		return err
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow <= 0 {
		return fmt.Errorf("--curve-window must be > 0")
	}
	cfg := model.StatsConfig{
		Lang:        statsLang,
		Since:       since,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		Chars:       statsChars,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsPlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		return renderPlainStats(cmd.Context(), cmd.OutOrStdout(), st, cfg, time.Now())
	}
	program := tea.NewProgram(statsui.NewModel(st, cfg, nil), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func renderPlainStats(ctx context.Context, w io.Writer, st *store.Store, cfg model.StatsConfig, now time.Time) error {
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := stats.BuildReport(ctx, st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	chars := stats.ParseChars(cfg.Chars)
	if len(chars) == 0 {
		chars = stats.TopCharsByFrequency(report.CharAggsWindow, 3)
	}
	var perSession map[int64]map[string]model.CharAggregate
	if len(chars) > 0 && len(report.Sessions) > 0 {
		ids := make([]int64, len(report.Sessions))
		for i, s := range report.Sessions {
			ids[i] = s.SessionID
		}
		if perSession, err = st.ListCharStatsForSessions(ctx, ids, chars); err != nil {
			return fmt.Errorf("failed to load char stats: %w", err)
		}
	}
	return report.Render(w, perSession, chars, cfg.CurveWindow, now)
}
