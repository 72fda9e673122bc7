package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/rivo/uniseg"
)

// cell is one rendered grapheme cluster of the target. Myanmar syllables
// stack several runes into one cluster, so styling works per cluster.
type cell struct {
	s       string
	width   int
	isSpace bool
	state   cellState
	cursor  bool
}

type cellState uint8

const (
	cellPending cellState = iota
	cellCurrent
	cellCorrect
	cellIncorrect
)

var cellStyles = map[cellState]lipgloss.Style{
	cellPending:   pendingStyle,
	cellCurrent:   currentWordStyle,
	cellCorrect:   correctStyle,
	cellIncorrect: incorrectStyle,
}

// buildCells styles the target against the input. cursor is the rune index of
// the next character, or -1 when the text is complete.
func buildCells(target, input []rune, cursor int) []cell {
	words := findWords(target)
	current := wordForCursor(words, cursor)

	out := make([]cell, 0, len(target))
	gr := uniseg.NewGraphemes(string(target))
	start := 0
	for gr.Next() {
		runes := gr.Runes()
		end := start + len(runes)
		cluster := string(runes)
		isSpace := len(runes) == 1 && unicode.IsSpace(runes[0])

		state := cellPending
		typed := max(0, min(len(input), end)-start)
		switch {
		case typed > 0 && !matches(runes[:typed], input[start:start+typed]):
			state = cellIncorrect
			if isSpace {
				cluster = "•"
			}
		case typed == len(runes):
			state = cellCorrect
		case !isSpace && current != nil && start >= current.start && start < current.end:
			state = cellCurrent
		}
		style := cellStyles[state]
		atCursor := cursor >= start && cursor < end
		if atCursor {
			style = style.Underline(true)
		}
		width := gr.Width()
		if width == 0 {
			cluster = "◌" + cluster
			width = 1
		}
		out = append(out, cell{s: style.Render(cluster), width: width, isSpace: isSpace, state: state, cursor: atCursor})
		start = end
	}
	return out
}

func matches(want, got []rune) bool {
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

type wordRange struct {
	start int
	end   int
}

func findWords(target []rune) []wordRange {
	var words []wordRange
	start := -1
	for i, r := range target {
		switch {
		case unicode.IsSpace(r) && start >= 0:
			words = append(words, wordRange{start: start, end: i})
			start = -1
		case !unicode.IsSpace(r) && start < 0:
			start = i
		}
	}
	if start >= 0 {
		words = append(words, wordRange{start: start, end: len(target)})
	}
	return words
}

// wordForCursor returns the word holding the cursor, or the next word when
// the cursor sits on a space.
func wordForCursor(words []wordRange, cursor int) *wordRange {
	if len(words) == 0 {
		return nil
	}
	if cursor < 0 {
		return &words[0]
	}
	for i := range words {
		if cursor < words[i].end {
			return &words[i]
		}
	}
	return &words[len(words)-1]
}

func joinCells(cells []cell) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteString(c.s)
	}
	return b.String()
}

// wrapCells breaks lines at the last space that fits within width. A word
// wider than the line is split.
func wrapCells(cells []cell, width int) string {
	if width <= 0 {
		return joinCells(cells)
	}
	var lines []string
	var line []cell
	lineWidth, lastSpace := 0, -1
	for _, c := range cells {
		if lineWidth+c.width > width && len(line) > 0 {
			if lastSpace >= 0 {
				lines = append(lines, joinCells(line[:lastSpace]))
				line = append([]cell(nil), line[lastSpace+1:]...)
			} else {
				lines = append(lines, joinCells(line))
				line = nil
			}
			lineWidth, lastSpace = 0, -1
			for i, rest := range line {
				lineWidth += rest.width
				if rest.isSpace {
					lastSpace = i
				}
			}
		}
		line = append(line, c)
		lineWidth += c.width
		if c.isSpace {
			lastSpace = len(line) - 1
		}
	}
	lines = append(lines, joinCells(line))
	return strings.Join(lines, "\n")
}
