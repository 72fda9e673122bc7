package layout

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrLayoutUnavailable is returned for a language with no registered layout.
var ErrLayoutUnavailable = errors.New("layout unavailable")

//go:embed layouts/*.json
var builtinFS embed.FS

// Registry holds the layouts known to the program, keyed by language.
type Registry struct {
	mu        sync.RWMutex
	defs      map[string]*Definition
	aliases   map[string]string
	resolvers map[string]*Resolver
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:      map[string]*Definition{},
		aliases:   map[string]string{},
		resolvers: map[string]*Resolver{},
	}
}

// Builtin returns a registry with the embedded layouts.
func Builtin() (*Registry, error) {
	r := NewRegistry()
	if err := r.loadFS(builtinFS, "layouts"); err != nil {
		return nil, err
	}
	return r, nil
}

// Load returns the embedded layouts overlaid with any *.json layouts in dir.
// A missing dir is not an error.
func Load(dir string) (*Registry, error) {
	r, err := Builtin()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return r, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to stat layouts dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("layouts path is not a directory: %s", dir)
	}
	if err := r.loadFS(os.DirFS(dir), "."); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) loadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("failed to read layouts: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, entry.Name())))
		if err != nil {
			return fmt.Errorf("failed to read layout %s: %w", entry.Name(), err)
		}
		def, err := Parse(data)
		if err != nil {
			return fmt.Errorf("failed to load layout %s: %w", entry.Name(), err)
		}
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Register validates def and adds it, replacing any layout for the same language.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return fmt.Errorf("%w: nil definition", ErrInvalidLayout)
	}
	if err := def.Validate(); err != nil {
		return err
	}
	lang := normalizeLang(def.Language)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[lang] = def
	delete(r.resolvers, lang)
	for _, alias := range def.Aliases {
		r.aliases[normalizeLang(alias)] = lang
	}
	return nil
}

// Definition returns the layout registered for lang.
func (r *Registry) Definition(lang string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[r.canonical(lang)]
	return def, ok
}

// Resolver returns a resolver for lang, or ErrLayoutUnavailable.
func (r *Registry) Resolver(lang string) (*Resolver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := r.canonical(lang)
	if res, ok := r.resolvers[key]; ok {
		return res, nil
	}
	def, ok := r.defs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLayoutUnavailable, lang)
	}
	res := NewResolver(def)
	r.resolvers[key] = res
	return res, nil
}

// Languages returns the registered language codes in sorted order.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	langs := make([]string, 0, len(r.defs))
	for lang := range r.defs {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// canonical expects the lock to be held.
func (r *Registry) canonical(lang string) string {
	lang = normalizeLang(lang)
	if _, ok := r.defs[lang]; ok {
		return lang
	}
	if target, ok := r.aliases[lang]; ok {
		return target
	}
	return lang
}

func normalizeLang(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}
