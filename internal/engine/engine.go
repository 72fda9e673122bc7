// Package engine scores a typing session against a target text.
//
// A Session is driven by the caller: every edit of the input buffer goes to
// ProcessInput together with a millisecond timestamp, and a periodic Tick lets
// timed sessions run out. The engine holds no timers and performs no I/O.
package engine

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/verte-zerg/glyphtype/internal/model"
)

// ErrEmptyTarget is returned when a session is started without target text.
var ErrEmptyTarget = errors.New("empty target text")

// DefaultSampleInterval is the WPM sampling interval used for consistency.
const DefaultSampleInterval = time.Second

// FingerLookup reports the finger that types a character.
type FingerLookup interface {
	FingerFor(ch string) (string, bool)
}

// Options configure a session.
type Options struct {
	Mode        model.Mode
	Termination model.Termination
	// Duration bounds a time-terminated session.
	Duration time.Duration
	// WordTarget ends a word-terminated session once that many words are committed.
	WordTarget     int
	Commitment     model.Commitment
	SampleInterval time.Duration
	Fingers        FingerLookup
}

// Engine starts sessions.
type Engine struct {
	logger *zap.Logger
}

// New returns an engine. A nil logger discards engine logs.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Start creates an idle session for target.
func (e *Engine) Start(target model.TypingTarget, opts Options) (*Session, error) {
	content := norm.NFC.String(target.Content)
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyTarget
	}
	opts = normalizeOptions(opts)
	target.Content = content

	s := &Session{
		id:        uuid.New().String(),
		target:    target,
		runes:     []rune(content),
		opts:      opts,
		logger:    e.logger,
		state:     StateIdle,
		charStats: map[rune]*model.CharStats{},
		fingers:   map[string]int{},
	}
	s.words = splitWords(s.runes)
	s.stats = s.liveStats(0)
	s.logger.Debug("session created",
		zap.String("session", s.id),
		zap.String("lang", target.Language),
		zap.Int("runes", len(s.runes)),
		zap.Int("words", len(s.words)),
	)
	return s, nil
}

func normalizeOptions(opts Options) Options {
	if opts.Mode == "" {
		opts.Mode = model.ModeNormal
	}
	if opts.Termination == "" {
		opts.Termination = model.TerminationWords
	}
	if opts.Commitment == "" || opts.Mode == model.ModeCompetition {
		opts.Commitment = model.CommitIrreversible
	}
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = DefaultSampleInterval
	}
	if opts.WordTarget < 0 {
		opts.WordTarget = 0
	}
	return opts
}
