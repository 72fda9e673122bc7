// Package main provides the CLI entrypoint for glyphtype.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/glyphtype/internal/config"
	"github.com/verte-zerg/glyphtype/internal/engine"
	"github.com/verte-zerg/glyphtype/internal/generator"
	"github.com/verte-zerg/glyphtype/internal/layout"
	"github.com/verte-zerg/glyphtype/internal/logging"
	"github.com/verte-zerg/glyphtype/internal/model"
	"github.com/verte-zerg/glyphtype/internal/stats"
	"github.com/verte-zerg/glyphtype/internal/store"
	"github.com/verte-zerg/glyphtype/internal/tui"
	"github.com/verte-zerg/glyphtype/internal/wordlist"
)

const (
	defaultLang           = "en"
	defaultHostLayout     = "en"
	defaultMode           = string(model.ModeNormal)
	defaultTermination    = string(model.TerminationTime)
	defaultDuration       = 60 * time.Second
	defaultWords          = 25
	defaultDifficulty     = string(model.DifficultyNormal)
	defaultTextType       = string(model.TextWords)
	defaultCommitment     = string(model.CommitIrreversible)
	defaultSampleInterval = time.Second
	defaultWeakTop        = 8
	defaultWeakFactor     = 2.0
	defaultWeakWindow     = 20
	defaultCurveWindow    = 20
)

var (
	practiceLang           string
	practiceHostLayout     string
	practiceUser           string
	practiceMode           string
	practiceTermination    string
	practiceDuration       time.Duration
	practiceWords          int
	practiceDifficulty     string
	practiceTextType       string
	practiceCommitment     string
	practiceSampleInterval time.Duration
	practiceFocusWeak      bool
	practiceWeakTop        int
	practiceWeakFactor     float64
	practiceWeakWindow     int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "glyphtype",
		Short:         "TUI typing trainer for Latin, Lisu and Myanmar layouts",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	flags := rootCmd.Flags()
	flags.StringVar(&practiceLang, "lang", defaultLang, "target language (en, lisu, my)")
	flags.StringVar(&practiceHostLayout, "host-layout", defaultHostLayout, "layout of the physical keyboard")
	flags.StringVar(&practiceUser, "user", "", "user name stored with results")
	flags.StringVar(&practiceMode, "mode", defaultMode, "session mode (normal, practice, competition)")
	flags.StringVar(&practiceTermination, "termination", defaultTermination, "end condition (time, words)")
	flags.DurationVar(&practiceDuration, "duration", defaultDuration, "session length for time termination")
	flags.IntVar(&practiceWords, "words", defaultWords, "words per text")
	flags.StringVar(&practiceDifficulty, "difficulty", defaultDifficulty, "difficulty (easy, normal, hard)")
	flags.StringVar(&practiceTextType, "text-type", defaultTextType, "text type (words, sentences, numbers)")
	flags.StringVar(&practiceCommitment, "commitment", defaultCommitment, "word commitment (irreversible, retroactive)")
	flags.DurationVar(&practiceSampleInterval, "sample-interval", defaultSampleInterval, "WPM sample interval")
	flags.BoolVar(&practiceFocusWeak, "focus-weak", false, "bias practice toward weak characters")
	flags.IntVar(&practiceWeakTop, "weak-top", defaultWeakTop, "number of weak characters to focus on")
	flags.Float64Var(&practiceWeakFactor, "weak-factor", defaultWeakFactor, "weight factor for weak characters")
	flags.IntVar(&practiceWeakWindow, "weak-window", defaultWeakWindow, "number of recent sessions to compute weak chars")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLangsCmd())
	rootCmd.AddCommand(newLayoutCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newExportCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	p := fileCfg.Practice
	applyStringConfig(cmd, "lang", &practiceLang, p.Lang)
	applyStringConfig(cmd, "host-layout", &practiceHostLayout, p.HostLayout)
	applyStringConfig(cmd, "user", &practiceUser, fileCfg.Profile.User)
	applyStringConfig(cmd, "mode", &practiceMode, p.Mode)
	applyStringConfig(cmd, "termination", &practiceTermination, p.Termination)
	applyDurationConfig(cmd, "duration", &practiceDuration, p.Duration)
	applyIntConfig(cmd, "words", &practiceWords, p.Words)
	applyStringConfig(cmd, "difficulty", &practiceDifficulty, p.Difficulty)
	applyStringConfig(cmd, "text-type", &practiceTextType, p.TextType)
	applyStringConfig(cmd, "commitment", &practiceCommitment, p.Commitment)
	applyDurationConfig(cmd, "sample-interval", &practiceSampleInterval, p.SampleInterval)
	applyBoolConfig(cmd, "focus-weak", &practiceFocusWeak, p.FocusWeak)
	applyIntConfig(cmd, "weak-top", &practiceWeakTop, p.WeakTop)
	applyFloatConfig(cmd, "weak-factor", &practiceWeakFactor, p.WeakFactor)
	applyIntConfig(cmd, "weak-window", &practiceWeakWindow, p.WeakWindow)

	cfg := model.Config{
		Lang:           practiceLang,
		HostLayout:     practiceHostLayout,
		User:           practiceUser,
		Mode:           model.Mode(practiceMode),
		Termination:    model.Termination(practiceTermination),
		Duration:       practiceDuration,
		Words:          practiceWords,
		Difficulty:     model.Difficulty(practiceDifficulty),
		TextType:       model.TextType(practiceTextType),
		Commitment:     model.Commitment(practiceCommitment),
		SampleInterval: practiceSampleInterval,
		FocusWeak:      practiceFocusWeak,
		WeakTop:        practiceWeakTop,
		WeakFactor:     practiceWeakFactor,
		WeakWindow:     practiceWeakWindow,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	logger, err := newLogger(fileCfg.Logging)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	registry, err := loadLayouts(fileCfg.Layouts)
	if err != nil {
		return err
	}
	target, err := registry.Resolver(cfg.Lang)
	if err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(registry.Languages(), ", "))
	}
	host, err := registry.Resolver(cfg.HostLayout)
	if err != nil {
		return fmt.Errorf("failed to load host layout: %w", err)
	}
	// Results and weak chars are keyed by the canonical code, not an alias.
	cfg.Lang = target.Definition().Language

	words, src, err := wordlist.Load(cfg.Lang, config.DefaultWordListDir())
	if err != nil {
		return wordListLoadError(cfg.Lang, err)
	}
	logger.Info("practice starting",
		zap.String("lang", cfg.Lang),
		zap.String("host", host.Definition().Language),
		zap.String("wordlist", src.String()),
		zap.Int("words", len(words)),
	)

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	weakSet := map[rune]struct{}{}
	if cfg.FocusWeak {
		aggs, err := st.GetWeakChars(context.Background(), cfg.WeakWindow, cfg.Lang)
		if err != nil {
			logErrf("failed to load weak chars: %v\n", err)
		} else {
			weakSet = stats.SelectWeakChars(aggs, cfg.WeakTop)
			if len(weakSet) == 0 {
				logErrln("no stats available for weak-char focus yet; using normal generator")
			}
		}
	}

	m, err := tui.NewModel(tui.Options{
		Config:    cfg,
		Engine:    engine.New(logger),
		Generator: generator.New(),
		Words:     words,
		Target:    target,
		Host:      host,
		Store:     st,
		WeakSet:   weakSet,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to start practice: %w", err)
	}
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	opts := logging.Options{File: config.DefaultLogPath()}
	if cfg.Level != nil {
		opts.Level = *cfg.Level
	}
	if cfg.File != nil {
		opts.File = *cfg.File
	}
	logger, err := logging.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return logger, nil
}

func loadLayouts(cfg config.LayoutsConfig) (*layout.Registry, error) {
	dir := config.DefaultLayoutDir()
	if cfg.Dir != nil {
		dir = *cfg.Dir
	}
	registry, err := layout.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load layouts: %w", err)
	}
	return registry, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *config.Duration) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = value.Duration
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# glyphtype configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# lang = %q                 # Target language: en, lisu, my
# host-layout = %q          # Layout of your physical keyboard
# mode = %q             # normal, practice (pausable) or competition
# termination = %q        # time or words
# duration = %q            # Session length for time termination
# words = %d                  # Words per text
# difficulty = %q       # easy, normal or hard
# text-type = %q         # words, sentences or numbers
# commitment = %q # irreversible or retroactive
# sample-interval = %q      # WPM sample interval
# focus-weak = false          # Bias practice toward weak characters
# weak-top = %d                # Number of weak characters to focus on
# weak-factor = %.1f          # Weight factor for weak characters
# weak-window = %d            # Number of recent sessions to compute weak chars

[profile]
# user = ""                   # Stored with every result

[logging]
# level = %q               # debug, info, warn, error or off
# file = %q

[layouts]
# dir = %q
`,
		defaultLang,
		defaultHostLayout,
		defaultMode,
		defaultTermination,
		defaultDuration.String(),
		defaultWords,
		defaultDifficulty,
		defaultTextType,
		defaultCommitment,
		defaultSampleInterval.String(),
		defaultWeakTop,
		defaultWeakFactor,
		defaultWeakWindow,
		logging.DefaultLevel,
		config.DefaultLogPath(),
		config.DefaultLayoutDir(),
	)
}

func validateConfig(cfg model.Config) error {
	if err := oneOf("mode", cfg.Mode, model.ModeNormal, model.ModePractice, model.ModeCompetition); err != nil {
		return err
	}
	if err := oneOf("termination", cfg.Termination, model.TerminationTime, model.TerminationWords); err != nil {
		return err
	}
	if err := oneOf("difficulty", cfg.Difficulty, model.DifficultyEasy, model.DifficultyNormal, model.DifficultyHard); err != nil {
		return err
	}
	if err := oneOf("text-type", cfg.TextType, model.TextWords, model.TextSentences, model.TextNumbers); err != nil {
		return err
	}
	if err := oneOf("commitment", cfg.Commitment, model.CommitIrreversible, model.CommitRetroactive); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Lang) == "" {
		return fmt.Errorf("--lang must not be empty")
	}
	if cfg.Termination == model.TerminationTime && cfg.Duration <= 0 {
		return fmt.Errorf("--duration must be > 0")
	}
	if cfg.Words <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	if cfg.SampleInterval <= 0 {
		return fmt.Errorf("--sample-interval must be > 0")
	}
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakFactor < 0 {
		return fmt.Errorf("--weak-factor must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	return nil
}

func oneOf[T ~string](flag string, v T, allowed ...T) error {
	names := make([]string, len(allowed))
	for i, a := range allowed {
		if v == a {
			return nil
		}
		names[i] = string(a)
	}
	return fmt.Errorf("--%s must be one of %s, got %q", flag, strings.Join(names, ", "), string(v))
}

func wordListLoadError(lang string, err error) error {
	lines := []string{
		fmt.Sprintf("failed to load word list: %v", err),
		fmt.Sprintf("override path: %s", filepath.Join(config.DefaultWordListDir(), lang+".txt")),
		"Run: glyphtype langs",
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
