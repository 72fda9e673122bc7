package wordlist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/unicode/norm"

	"github.com/verte-zerg/glyphtype/internal/layout"
)

func TestEmbeddedListsAreTypable(t *testing.T) {
	reg, err := layout.Builtin()
	if err != nil {
		t.Fatalf("load layouts: %v", err)
	}
	for _, lang := range Languages() {
		words, src, err := Load(lang, "")
		if err != nil {
			t.Fatalf("load %s: %v", lang, err)
		}
		if src.Path != "" {
			t.Fatalf("expected embedded source, got %s", src)
		}
		res, err := reg.Resolver(lang)
		if err != nil {
			t.Fatalf("resolver %s: %v", lang, err)
		}
		for _, w := range words {
			if !norm.NFC.IsNormalString(w) {
				t.Fatalf("%s word %q is not NFC", lang, w)
			}
			for _, r := range w {
				st, ok := res.FindKeyStroke(string(r))
				if !ok || st.Transliterated {
					t.Fatalf("%s word %q has untypable rune %q", lang, w, r)
				}
			}
		}
	}
}

func TestLoadPrefersOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "en.txt")
	if err := os.WriteFile(path, []byte("# comment\nalpha\nBeta\n\ngamma\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	words, src, err := Load("EN", dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if src.Path != path {
		t.Fatalf("expected override source, got %s", src)
	}
	if len(words) != 2 || words[0] != "alpha" || words[1] != "gamma" {
		t.Fatalf("unexpected words %v", words)
	}
}

func TestLoadFallsBackWhenOverrideMissing(t *testing.T) {
	words, src, err := Load("my", t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if src.String() != "embedded:my" || len(words) == 0 {
		t.Fatalf("expected embedded myanmar list, got %s with %d words", src, len(words))
	}
}

func TestLoadUnknownLanguage(t *testing.T) {
	_, _, err := Load("xx", "")
	if !errors.Is(err, ErrNoWordList) {
		t.Fatalf("expected ErrNoWordList, got %v", err)
	}
}

func TestLoadRejectsFullyFilteredList(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "en.txt"), []byte("Hello\nWORLD\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, err := Load("en", dir)
	if !errors.Is(err, ErrNoWordList) {
		t.Fatalf("expected ErrNoWordList, got %v", err)
	}
}
