package engine

import (
	"unicode"

	"github.com/verte-zerg/glyphtype/internal/model"
)

type word struct {
	start, end int
	committed  bool
	correct    bool
}

func splitWords(runes []rune) []word {
	var words []word
	start := -1
	for i, r := range runes {
		if unicode.IsSpace(r) {
			if start >= 0 {
				words = append(words, word{start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, word{start: start, end: len(runes)})
	}
	return words
}

func (s *Session) wordMatches(w word) bool {
	if len(s.input) < w.end {
		return false
	}
	for i := w.start; i < w.end; i++ {
		if s.input[i] != s.runes[i] {
			return false
		}
	}
	return true
}

// crossed reports whether the input has moved past the word. An inner word is
// crossed once any rune is typed at the separator position, even a wrong one;
// the last word only needs to be complete and correct, since nothing follows it.
func (s *Session) crossed(w word) bool {
	if w.end < len(s.runes) {
		return len(s.input) > w.end
	}
	return s.wordMatches(w)
}

func (s *Session) updateWords() {
	for i := range s.words {
		w := &s.words[i]
		switch {
		case !w.committed && s.crossed(*w):
			w.committed = true
			w.correct = s.wordMatches(*w)
		case w.committed && s.opts.Commitment == model.CommitRetroactive && !s.crossed(*w):
			w.committed = false
			w.correct = false
		}
	}
}

// commitTyped commits every fully typed word that is still open.
func (s *Session) commitTyped() {
	for i := range s.words {
		w := &s.words[i]
		if w.committed || len(s.input) < w.end {
			continue
		}
		w.committed = true
		w.correct = s.wordMatches(*w)
	}
}

func (s *Session) wordCounts() (correct, incorrect int) {
	for _, w := range s.words {
		if !w.committed {
			continue
		}
		if w.correct {
			correct++
		} else {
			incorrect++
		}
	}
	return correct, incorrect
}

func (s *Session) allCommitted() bool {
	for _, w := range s.words {
		if !w.committed {
			return false
		}
	}
	return true
}
