// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// Mode selects the session rules.
type Mode string

const (
	ModeNormal      Mode = "normal"
	ModePractice    Mode = "practice"
	ModeCompetition Mode = "competition"
)

// Termination selects which condition ends a session.
type Termination string

const (
	TerminationTime  Termination = "time"
	TerminationWords Termination = "words"
)

// Difficulty selects a generator preset.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// TextType selects how generated words are shaped into text.
type TextType string

const (
	TextWords     TextType = "words"
	TextSentences TextType = "sentences"
	TextNumbers   TextType = "numbers"
)

// Commitment selects when a word's correctness becomes final.
type Commitment string

const (
	// CommitIrreversible fixes a word once its trailing boundary is crossed.
	CommitIrreversible Commitment = "irreversible"
	// CommitRetroactive re-evaluates a word when the input is deleted back across it.
	CommitRetroactive Commitment = "retroactive"
)

// Config defines practice settings.
type Config struct {
	Lang           string
	HostLayout     string
	User           string
	Mode           Mode
	Termination    Termination
	Duration       time.Duration
	Words          int
	Difficulty     Difficulty
	TextType       TextType
	Commitment     Commitment
	SampleInterval time.Duration
	FocusWeak      bool
	WeakTop        int
	WeakFactor     float64
	WeakWindow     int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Lang        string
	Since       *time.Time
	Last        int
	CurveWindow int
	Chars       string
}

// TypingTarget is the text the user has to reproduce.
type TypingTarget struct {
	Content    string
	Language   string
	TextType   TextType
	Difficulty Difficulty
}

// TypingMistake records a character that did not match when it was typed.
type TypingMistake struct {
	Position  int
	Expected  string
	Actual    string
	Timestamp int64
}

// LiveTypingStats is recomputed after every input event.
type LiveTypingStats struct {
	CurrentWPM          float64
	CurrentAccuracy     float64
	CharactersTyped     int
	CorrectCharacters   int
	IncorrectCharacters int
	TimeElapsedSeconds  float64
}

// CharStats stores per-character stats for a session.
type CharStats struct {
	Char         string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// TypingResults is the terminal scoring record of a session.
type TypingResults struct {
	SessionID         string
	Language          string
	Mode              Mode
	StartedAt         time.Time
	EndedAt           time.Time
	WPM               float64
	Accuracy          float64
	CorrectWords      int
	IncorrectWords    int
	TotalWords        int
	DurationSeconds   float64
	CharactersTyped   int
	Errors            int
	Consistency       float64
	FingerUtilization map[string]int
	WPMSamples        []float64
	Mistakes          []TypingMistake
	CharStats         []CharStats
}

// NewTypingResults validates the result invariants and returns the value.
// A violation is an engine bug and panics.
func NewTypingResults(r TypingResults) TypingResults {
	if r.TotalWords != r.CorrectWords+r.IncorrectWords {
		panic(fmt.Sprintf("typing results: total words %d != correct %d + incorrect %d", r.TotalWords, r.CorrectWords, r.IncorrectWords))
	}
	if r.Accuracy < 0 || r.Accuracy > 100 {
		panic(fmt.Sprintf("typing results: accuracy %.2f out of range", r.Accuracy))
	}
	if r.WPM < 0 {
		panic(fmt.Sprintf("typing results: negative wpm %.2f", r.WPM))
	}
	if r.FingerUtilization == nil {
		r.FingerUtilization = map[string]int{}
	}
	return r
}

// ResultContext carries the caller-side facts stored with a result.
type ResultContext struct {
	UserID     string
	Language   string
	Mode       Mode
	Difficulty Difficulty
	TextType   TextType
}

// Aggregated per-char stats for selection or reporting.

// CharAggregate aggregates character stats across sessions.
type CharAggregate struct {
	Char         string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// SessionAggregate summarizes a stored result for reporting.
type SessionAggregate struct {
	SessionID       int64
	UUID            string
	UserID          string
	Lang            string
	Mode            Mode
	Difficulty      Difficulty
	EndedAt         time.Time
	WPM             float64
	Accuracy        float64
	Consistency     float64
	CorrectWords    int
	IncorrectWords  int
	CharactersTyped int
	Errors          int
	DurationMs      int64
}

// StoredResult is a persisted result with its store identity and context.
type StoredResult struct {
	ID      int64
	Context ResultContext
	Results TypingResults
}
