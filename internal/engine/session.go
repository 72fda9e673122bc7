package engine

import (
	"math"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/verte-zerg/glyphtype/internal/model"
)

// State is the lifecycle state of a session.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
)

// Terminal reports whether the state accepts no further events.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Session tracks one attempt at a target text. It is not safe for concurrent use.
type Session struct {
	id     string
	target model.TypingTarget
	runes  []rune
	opts   Options
	logger *zap.Logger

	state State
	input []rune
	words []word

	startMs    int64
	lastMs     int64
	pausedAtMs int64
	pausedMs   int64

	typed     int
	correct   int
	incorrect int
	mistakes  []model.TypingMistake

	charStats   map[rune]*model.CharStats
	charOrder   []rune
	prevCorrect time.Duration
	hasPrev     bool
	fingers     map[string]int

	samples       []float64
	sampleEdge    time.Duration
	sampleCorrect int

	stats  model.LiveTypingStats
	result *model.TypingResults
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Target returns the normalized target.
func (s *Session) Target() model.TypingTarget { return s.target }

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// Cursor returns the rune index of the next character to type.
func (s *Session) Cursor() int { return len(s.input) }

// Input returns the current input buffer as accepted by the session.
func (s *Session) Input() string { return string(s.input) }

// Stats returns the most recent live stats.
func (s *Session) Stats() model.LiveTypingStats { return s.stats }

// Mistakes returns a copy of the mistake log.
func (s *Session) Mistakes() []model.TypingMistake {
	out := make([]model.TypingMistake, len(s.mistakes))
	copy(out, s.mistakes)
	return out
}

// Result returns the final results once the session has completed.
func (s *Session) Result() (model.TypingResults, bool) {
	if s.result == nil {
		return model.TypingResults{}, false
	}
	return *s.result, true
}

// Remaining returns the time left in a time-terminated session.
func (s *Session) Remaining(nowMs int64) time.Duration {
	if s.opts.Termination != model.TerminationTime || s.opts.Duration <= 0 {
		return 0
	}
	if s.state == StateIdle {
		return s.opts.Duration
	}
	left := s.opts.Duration - s.activeAt(nowMs)
	if left < 0 {
		return 0
	}
	return left
}

// ProcessInput scores the new input buffer. Only the runes inserted between
// the common prefix and suffix of the old and new buffers count as
// keystrokes, so a deletion records nothing. A mismatch is logged as one
// mistake. Text beyond the end of the target is ignored.
func (s *Session) ProcessInput(input string, tsMs int64) model.LiveTypingStats {
	switch s.state {
	case StateCompleted, StateCancelled:
		s.logger.Debug("input after session end ignored", zap.String("session", s.id), zap.String("state", string(s.state)))
		return s.stats
	case StateIdle:
		s.state = StateRunning
		s.startMs = tsMs
		s.lastMs = tsMs
	case StatePaused:
		s.resume(tsMs)
	}
	ts := s.advance(tsMs)
	if end, ok := s.deadline(ts); ok {
		s.finish(end)
		return s.stats
	}
	active := s.activeAt(ts)
	s.closeSamples(active)

	next := []rune(norm.NFC.String(input))
	if len(next) > len(s.runes) {
		next = next[:len(s.runes)]
	}
	from, to := insertedSpan(s.input, next)
	for i := from; i < to; i++ {
		s.recordKeystroke(i, next[i], ts, active)
	}
	s.input = next
	s.updateWords()
	s.stats = s.liveStats(ts)
	if s.shouldFinish() {
		s.finish(ts)
	}
	return s.stats
}

// Tick advances the clock. It samples WPM and ends timed sessions that ran out.
func (s *Session) Tick(nowMs int64) model.LiveTypingStats {
	if s.state != StateRunning {
		return s.stats
	}
	ts := s.advance(nowMs)
	if end, ok := s.deadline(ts); ok {
		s.finish(end)
		return s.stats
	}
	s.closeSamples(s.activeAt(ts))
	s.stats = s.liveStats(ts)
	if s.shouldFinish() {
		s.finish(ts)
	}
	return s.stats
}

// Pause stops the clock of a running practice session.
func (s *Session) Pause(nowMs int64) bool {
	if s.opts.Mode != model.ModePractice || s.state != StateRunning {
		s.logger.Debug("pause ignored", zap.String("session", s.id), zap.String("mode", string(s.opts.Mode)), zap.String("state", string(s.state)))
		return false
	}
	ts := s.advance(nowMs)
	s.closeSamples(s.activeAt(ts))
	s.pausedAtMs = ts
	s.state = StatePaused
	s.stats = s.liveStats(ts)
	return true
}

// Resume restarts the clock of a paused session.
func (s *Session) Resume(nowMs int64) bool {
	if s.state != StatePaused {
		s.logger.Debug("resume ignored", zap.String("session", s.id), zap.String("state", string(s.state)))
		return false
	}
	s.resume(nowMs)
	return true
}

// Complete ends the session and returns its results. A paused session ends at
// the moment it was paused. Calling Complete again returns the same results.
// Sessions that never started or were cancelled have no results.
func (s *Session) Complete(finalTsMs int64) (model.TypingResults, bool) {
	if s.result != nil {
		return *s.result, true
	}
	if s.state == StateIdle || s.state == StateCancelled {
		s.logger.Debug("complete ignored", zap.String("session", s.id), zap.String("state", string(s.state)))
		return model.TypingResults{}, false
	}
	end := finalTsMs
	if s.state == StateRunning {
		end = s.advance(finalTsMs)
		if deadline, ok := s.deadline(end); ok {
			end = deadline
		}
	}
	return s.finish(end), true
}

// Cancel abandons the session without results.
func (s *Session) Cancel() bool {
	if s.state.Terminal() {
		return false
	}
	s.state = StateCancelled
	s.logger.Debug("session cancelled", zap.String("session", s.id))
	return true
}

func (s *Session) resume(nowMs int64) {
	ts := s.advance(nowMs)
	s.pausedMs += ts - s.pausedAtMs
	s.state = StateRunning
}

// advance keeps timestamps monotonic.
func (s *Session) advance(tsMs int64) int64 {
	if tsMs < s.lastMs {
		return s.lastMs
	}
	s.lastMs = tsMs
	return tsMs
}

func (s *Session) activeAt(tsMs int64) time.Duration {
	switch s.state {
	case StateIdle:
		return 0
	case StatePaused:
		tsMs = s.pausedAtMs
	}
	ms := tsMs - s.startMs - s.pausedMs
	if ms < 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// deadline returns the end timestamp of a timed session whose time is up.
func (s *Session) deadline(tsMs int64) (int64, bool) {
	if s.opts.Termination != model.TerminationTime || s.opts.Duration <= 0 {
		return 0, false
	}
	if s.activeAt(tsMs) < s.opts.Duration {
		return 0, false
	}
	return s.startMs + s.pausedMs + s.opts.Duration.Milliseconds(), true
}

func (s *Session) shouldFinish() bool {
	if s.allCommitted() {
		return true
	}
	if s.opts.Termination == model.TerminationWords && s.opts.WordTarget > 0 {
		correct, incorrect := s.wordCounts()
		return correct+incorrect >= s.opts.WordTarget
	}
	return false
}

// insertedSpan returns the range of next that was written by the edit from
// prev. The common prefix is taken first, so appends resolve to the tail.
func insertedSpan(prev, next []rune) (int, int) {
	p := 0
	for p < len(prev) && p < len(next) && prev[p] == next[p] {
		p++
	}
	sfx := 0
	for sfx < len(prev)-p && sfx < len(next)-p && prev[len(prev)-1-sfx] == next[len(next)-1-sfx] {
		sfx++
	}
	return p, len(next) - sfx
}

func (s *Session) recordKeystroke(pos int, typed rune, tsMs int64, active time.Duration) {
	s.typed++
	expected := s.runes[pos]
	if typed == expected {
		s.correct++
		s.sampleCorrect++
		if s.opts.Fingers != nil {
			if finger, ok := s.opts.Fingers.FingerFor(string(expected)); ok {
				s.fingers[finger]++
			}
		}
		if unicode.IsSpace(expected) {
			return
		}
		entry := s.charEntry(expected)
		entry.Correct++
		if s.hasPrev {
			entry.LatencySumMs += (active - s.prevCorrect).Milliseconds()
			entry.LatencyCount++
		}
		s.prevCorrect = active
		s.hasPrev = true
		return
	}
	s.incorrect++
	s.mistakes = append(s.mistakes, model.TypingMistake{
		Position:  pos,
		Expected:  string(expected),
		Actual:    string(typed),
		Timestamp: tsMs,
	})
	if !unicode.IsSpace(expected) {
		s.charEntry(expected).Incorrect++
	}
}

func (s *Session) charEntry(ch rune) *model.CharStats {
	entry, ok := s.charStats[ch]
	if !ok {
		entry = &model.CharStats{Char: string(ch)}
		s.charStats[ch] = entry
		s.charOrder = append(s.charOrder, ch)
	}
	return entry
}

func (s *Session) closeSamples(active time.Duration) {
	for active-s.sampleEdge >= s.opts.SampleInterval {
		s.samples = append(s.samples, sampleWPM(s.sampleCorrect, s.opts.SampleInterval))
		s.sampleCorrect = 0
		s.sampleEdge += s.opts.SampleInterval
	}
}

// flushSample closes the trailing partial interval when it covers at least
// half an interval. Shorter tails are dropped.
func (s *Session) flushSample(active time.Duration) {
	rest := active - s.sampleEdge
	if rest*2 < s.opts.SampleInterval {
		return
	}
	s.samples = append(s.samples, sampleWPM(s.sampleCorrect, rest))
	s.sampleCorrect = 0
	s.sampleEdge = active
}

func (s *Session) liveStats(tsMs int64) model.LiveTypingStats {
	elapsed := s.activeAt(tsMs)
	correctWords, _ := s.wordCounts()
	return model.LiveTypingStats{
		CurrentWPM:          wordsPerMinute(correctWords, elapsed),
		CurrentAccuracy:     accuracy(s.correct, s.typed),
		CharactersTyped:     s.typed,
		CorrectCharacters:   s.correct,
		IncorrectCharacters: s.incorrect,
		TimeElapsedSeconds:  elapsed.Seconds(),
	}
}

func (s *Session) finish(endMs int64) model.TypingResults {
	if s.state == StatePaused {
		endMs = s.pausedAtMs
	}
	if endMs < s.startMs {
		endMs = s.startMs
	}
	elapsed := s.activeAt(endMs)
	s.commitTyped()
	s.closeSamples(elapsed)
	s.flushSample(elapsed)
	correctWords, incorrectWords := s.wordCounts()

	charStats := make([]model.CharStats, 0, len(s.charOrder))
	for _, ch := range s.charOrder {
		charStats = append(charStats, *s.charStats[ch])
	}
	fingers := make(map[string]int, len(s.fingers))
	for k, v := range s.fingers {
		fingers[k] = v
	}
	samples := make([]float64, len(s.samples))
	copy(samples, s.samples)

	res := model.NewTypingResults(model.TypingResults{
		SessionID:         s.id,
		Language:          s.target.Language,
		Mode:              s.opts.Mode,
		StartedAt:         time.UnixMilli(s.startMs),
		EndedAt:           time.UnixMilli(endMs),
		WPM:               math.Round(wordsPerMinute(correctWords, elapsed)),
		Accuracy:          round2(accuracy(s.correct, s.typed)),
		CorrectWords:      correctWords,
		IncorrectWords:    incorrectWords,
		TotalWords:        correctWords + incorrectWords,
		DurationSeconds:   elapsed.Seconds(),
		CharactersTyped:   s.typed,
		Errors:            len(s.mistakes),
		Consistency:       round2(consistency(samples)),
		FingerUtilization: fingers,
		WPMSamples:        samples,
		Mistakes:          s.Mistakes(),
		CharStats:         charStats,
	})
	s.stats = s.liveStats(endMs)
	s.state = StateCompleted
	s.result = &res
	s.logger.Debug("session completed",
		zap.String("session", s.id),
		zap.Float64("wpm", res.WPM),
		zap.Float64("accuracy", res.Accuracy),
		zap.Int("words", res.TotalWords),
	)
	return res
}
