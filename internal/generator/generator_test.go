package generator

import (
	"strings"
	"testing"
	"unicode"

	"github.com/verte-zerg/glyphtype/internal/layout"
	"github.com/verte-zerg/glyphtype/internal/model"
)

var sample = []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta"}

func TestTargetTextIsDeterministic(t *testing.T) {
	req := Request{Count: 20, Script: layout.ScriptLatin, Difficulty: model.DifficultyNormal, TextType: model.TextWords}
	a, err := NewSeeded(42).TargetText(sample, req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, _ := NewSeeded(42).TargetText(sample, req)
	if a != b {
		t.Fatalf("expected equal output for equal seeds:\n%s\n%s", a, b)
	}
	if n := len(strings.Fields(a)); n != 20 {
		t.Fatalf("expected 20 words, got %d", n)
	}
}

func TestEasyHasNoCapsOrPunctuation(t *testing.T) {
	text, err := NewSeeded(1).TargetText(sample, Request{Count: 50, Script: layout.ScriptLatin, Difficulty: model.DifficultyEasy})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, r := range text {
		if r != ' ' && (r < 'a' || r > 'z') {
			t.Fatalf("unexpected rune %q in easy text %q", r, text)
		}
	}
}

func TestHardPrefersLongWords(t *testing.T) {
	text, err := NewSeeded(3).TargetText(sample, Request{Count: 2, Script: layout.ScriptLatin, Difficulty: model.DifficultyHard})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, w := range strings.Fields(text) {
		w = strings.ToLower(strings.TrimRight(w, ",.;:!?"))
		if w != "epsilon" {
			t.Fatalf("expected only long words, got %q", text)
		}
	}
}

func TestSentencesEndWithScriptStop(t *testing.T) {
	cases := map[layout.Script]string{
		layout.ScriptLatin:   ".",
		layout.ScriptLisu:    "꓿",
		layout.ScriptMyanmar: "။",
	}
	for script, stop := range cases {
		text, err := NewSeeded(5).TargetText(sample, Request{Count: 12, Script: script, TextType: model.TextSentences})
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !strings.HasSuffix(text, stop) {
			t.Fatalf("%s: expected %q at end of %q", script, stop, text)
		}
		if script == layout.ScriptLatin && !unicode.IsUpper([]rune(text)[0]) {
			t.Fatalf("expected capitalized sentence, got %q", text)
		}
	}
}

func TestNumbersUseScriptDigits(t *testing.T) {
	text, err := NewSeeded(9).TargetText(sample, Request{Count: 60, Script: layout.ScriptMyanmar, TextType: model.TextNumbers, Difficulty: model.DifficultyEasy})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if strings.ContainsAny(text, "0123456789") {
		t.Fatalf("myanmar text should not contain latin digits: %q", text)
	}
	if !strings.ContainsAny(text, "၀၁၂၃၄၅၆၇၈၉") {
		t.Fatalf("expected myanmar digits in %q", text)
	}
}

func TestNonLatinScriptsSkipCaps(t *testing.T) {
	words := []string{"ꓡꓲ-ꓢꓴ"}
	text, err := NewSeeded(2).TargetText(words, Request{Count: 10, Script: layout.ScriptLisu, Difficulty: model.DifficultyHard})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, w := range strings.Fields(text) {
		if !strings.HasPrefix(w, "ꓡꓲ-ꓢꓴ") {
			t.Fatalf("unexpected word %q", w)
		}
	}
}

func TestWeightedFavorsWeakChars(t *testing.T) {
	words := []string{"aaaa", "zzzz"}
	weak := map[rune]struct{}{'z': {}}
	text, err := NewSeeded(7).TargetText(words, Request{Count: 200, Script: layout.ScriptLatin, Difficulty: model.DifficultyEasy, Weak: weak, WeakFactor: 5})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	z := strings.Count(text, "zzzz")
	if z < 150 {
		t.Fatalf("expected weak words to dominate, got %d/200", z)
	}
}

func TestTargetTextErrors(t *testing.T) {
	if _, err := NewSeeded(1).TargetText(nil, Request{Count: 3}); err == nil {
		t.Fatalf("expected error for empty word list")
	}
	if _, err := NewSeeded(1).TargetText(sample, Request{Count: 0}); err == nil {
		t.Fatalf("expected error for zero count")
	}
}
