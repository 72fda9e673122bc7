// Package generator builds typing text sequences.
package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/verte-zerg/glyphtype/internal/layout"
	"github.com/verte-zerg/glyphtype/internal/model"
)

// ErrNoWords is returned when there is nothing to build text from.
var ErrNoWords = errors.New("no words to generate from")

// Generator produces randomized typing text.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic Generator.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Request describes the text to build.
type Request struct {
	Count      int
	Script     layout.Script
	Difficulty model.Difficulty
	TextType   model.TextType
	// Weak biases selection toward words containing these characters.
	Weak       map[rune]struct{}
	WeakFactor float64
}

// Preset holds the shaping rules of a difficulty.
type Preset struct {
	CapsPct  float64
	PunctPct float64
	// MinRunes prefers words at least this long when enough exist.
	MinRunes int
}

// PresetFor returns the shaping rules for a difficulty.
func PresetFor(d model.Difficulty) Preset {
	switch d {
	case model.DifficultyEasy:
		return Preset{}
	case model.DifficultyHard:
		return Preset{CapsPct: 0.5, PunctPct: 0.5, MinRunes: 6}
	default:
		return Preset{CapsPct: 0.25, PunctPct: 0.25}
	}
}

// PunctSet returns the inline punctuation used for a script.
func PunctSet(script layout.Script) []rune {
	switch script {
	case layout.ScriptLisu:
		return []rune{'꓾', '꓿'}
	case layout.ScriptMyanmar:
		return []rune{'၊', '။'}
	default:
		return []rune{',', '.', ';', ':', '!', '?'}
	}
}

func fullStop(script layout.Script) string {
	switch script {
	case layout.ScriptLisu:
		return "꓿"
	case layout.ScriptMyanmar:
		return "။"
	default:
		return "."
	}
}

func digits(script layout.Script) []rune {
	if script == layout.ScriptMyanmar {
		return []rune("၀၁၂၃၄၅၆၇၈၉")
	}
	return []rune("0123456789")
}

// TargetText builds a target text for the request.
func (g *Generator) TargetText(words []string, req Request) (string, error) {
	if len(words) == 0 {
		return "", ErrNoWords
	}
	if req.Count <= 0 {
		return "", fmt.Errorf("word count must be positive: %d", req.Count)
	}
	preset := PresetFor(req.Difficulty)
	pool := preferLong(words, preset.MinRunes, req.Count)
	// Case only exists in latin text.
	caps := preset.CapsPct
	if req.Script != layout.ScriptLatin && req.Script != "" {
		caps = 0
	}
	punct := preset.PunctPct
	if req.TextType == model.TextSentences {
		punct = 0
		caps = 0
	}

	var out []string
	if len(req.Weak) > 0 && req.WeakFactor > 0 {
		out = g.GenerateWeighted(pool, req.Count, caps, punct, PunctSet(req.Script), req.Weak, req.WeakFactor)
	} else {
		out = g.Generate(pool, req.Count, caps, punct, PunctSet(req.Script))
	}

	switch req.TextType {
	case model.TextSentences:
		out = g.sentences(out, req.Script)
	case model.TextNumbers:
		out = g.numbers(out, req.Script)
	}
	return strings.Join(out, " "), nil
}

func preferLong(words []string, minRunes, count int) []string {
	if minRunes <= 0 {
		return words
	}
	var long []string
	for _, w := range words {
		if utf8.RuneCountInString(w) >= minRunes {
			long = append(long, w)
		}
	}
	if len(long) < count/2 || len(long) == 0 {
		return words
	}
	return long
}

// sentences groups words into sentences of 4 to 9 words.
func (g *Generator) sentences(words []string, script layout.Script) []string {
	stop := fullStop(script)
	for i := 0; i < len(words); {
		n := 4 + g.rnd.Intn(6)
		end := i + n
		if end > len(words) {
			end = len(words)
		}
		if script == layout.ScriptLatin || script == "" {
			words[i] = capitalize(words[i])
		}
		words[end-1] += stop
		i = end
	}
	return words
}

// numbers replaces roughly a third of the words with numbers.
func (g *Generator) numbers(words []string, script layout.Script) []string {
	set := digits(script)
	for i := range words {
		if g.rnd.Float64() > 0.33 {
			continue
		}
		n := 1 + g.rnd.Intn(4)
		var b strings.Builder
		for j := 0; j < n; j++ {
			b.WriteRune(set[g.rnd.Intn(len(set))])
		}
		words[i] = b.String()
	}
	return words
}

// Generate selects words uniformly and applies caps/punctuation rules.
func (g *Generator) Generate(words []string, count int, capsPct, punctPct float64, punctSet []rune) []string {
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		word := words[g.rnd.Intn(len(words))]
		word = applyCaps(g.rnd, word, capsPct)
		word = applyPunct(g.rnd, word, punctPct, punctSet)
		result = append(result, word)
	}
	return result
}

// GenerateWeighted selects words with a bias toward weak characters.
func (g *Generator) GenerateWeighted(words []string, count int, capsPct, punctPct float64, punctSet []rune, weakSet map[rune]struct{}, factor float64) []string {
	weights := make([]float64, len(words))
	total := 0.0
	for i, word := range words {
		weakCount := 0
		for _, r := range word {
			if _, ok := weakSet[r]; ok {
				weakCount++
			}
		}
		w := 1.0 + float64(weakCount)*factor
		weights[i] = w
		total += w
	}

	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		r := g.rnd.Float64() * total
		acc := 0.0
		idx := 0
		for j, w := range weights {
			acc += w
			if r <= acc {
				idx = j
				break
			}
		}
		word := words[idx]
		word = applyCaps(g.rnd, word, capsPct)
		word = applyPunct(g.rnd, word, punctPct, punctSet)
		result = append(result, word)
	}
	return result
}

func capitalize(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 {
		return word
	}
	if rnd.Float64() > capsPct {
		return word
	}
	return capitalize(word)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 {
		return word
	}
	if rnd.Float64() > punctPct {
		return word
	}
	punct := punctSet[rnd.Intn(len(punctSet))]
	return word + string(punct)
}
