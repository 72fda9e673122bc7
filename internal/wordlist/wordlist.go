// Package wordlist loads word lists from embedded data or user files.
package wordlist

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoWordList is returned for a language without a word list.
var ErrNoWordList = errors.New("no word list")

//go:embed lists/*.txt
var embedded embed.FS

// Source describes where a word list came from.
type Source struct {
	Lang string
	// Path is the override file, or empty for the embedded list.
	Path string
}

func (s Source) String() string {
	if s.Path == "" {
		return "embedded:" + s.Lang
	}
	return s.Path
}

// Load returns the filtered word list for lang. A <lang>.txt file in
// overrideDir replaces the embedded list.
func Load(lang, overrideDir string) ([]string, Source, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	src := Source{Lang: lang}
	var words []string
	if overrideDir != "" {
		path := filepath.Join(overrideDir, lang+".txt")
		loaded, err := LoadWords(path)
		switch {
		case err == nil:
			words = loaded
			src.Path = path
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, src, fmt.Errorf("failed to load word list: %w", err)
		}
	}
	if words == nil {
		file, err := embedded.Open("lists/" + lang + ".txt")
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, src, fmt.Errorf("%w for %q", ErrNoWordList, lang)
			}
			return nil, src, fmt.Errorf("failed to open embedded word list: %w", err)
		}
		defer func() {
			if cerr := file.Close(); cerr != nil {
				// Best-effort close for embedded data.
				_ = cerr
			}
		}()
		words, err = readWords(file)
		if err != nil {
			return nil, src, err
		}
	}

	filter := FilterForLang(lang)
	kept := words[:0]
	for _, w := range words {
		if filter(w) {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return nil, src, fmt.Errorf("%w: %s has no usable words", ErrNoWordList, src)
	}
	return kept, src, nil
}

// Languages lists the languages with an embedded word list.
func Languages() []string {
	entries, err := fs.ReadDir(embedded, "lists")
	if err != nil {
		return nil
	}
	langs := make([]string, 0, len(entries))
	for _, e := range entries {
		langs = append(langs, strings.TrimSuffix(e.Name(), ".txt"))
	}
	return langs
}

// LoadWords reads one word per line from the provided file path.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()
	return readWords(file)
}

func readWords(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}
