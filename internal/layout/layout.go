// Package layout models per-language keyboard layouts and resolves key presses
// to the characters they emit.
package layout

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLayout reports a layout document that breaks a structural rule.
var ErrInvalidLayout = errors.New("invalid layout")

// Script tags the writing system a layout produces.
type Script string

const (
	ScriptLatin   Script = "latin"
	ScriptLisu    Script = "lisu"
	ScriptMyanmar Script = "myanmar"
)

// KeyType tags what a key does.
type KeyType string

const (
	KeyCharacter KeyType = "character"
	KeyModifier  KeyType = "modifier"
	KeySpace     KeyType = "space"
)

// Finger names the finger expected to strike a key.
type Finger string

const (
	LeftPinky   Finger = "left-pinky"
	LeftRing    Finger = "left-ring"
	LeftMiddle  Finger = "left-middle"
	LeftIndex   Finger = "left-index"
	RightIndex  Finger = "right-index"
	RightMiddle Finger = "right-middle"
	RightRing   Finger = "right-ring"
	RightPinky  Finger = "right-pinky"
	Thumb       Finger = "thumb"
)

// Fingers lists every finger in keyboard order, left to right.
var Fingers = []Finger{LeftPinky, LeftRing, LeftMiddle, LeftIndex, Thumb, RightIndex, RightMiddle, RightRing, RightPinky}

// KeyDefinition describes one physical key. Empty character slots mean the key
// emits nothing under that modifier.
type KeyDefinition struct {
	ID     string  `json:"id"`
	Base   string  `json:"base"`
	Shift  string  `json:"shift,omitempty"`
	Alt    string  `json:"alt,omitempty"`
	Ctrl   string  `json:"ctrl,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Type   KeyType `json:"type,omitempty"`
	Finger Finger  `json:"finger,omitempty"`
}

// Definition is an immutable layout for one language.
type Definition struct {
	Language        string            `json:"language"`
	Aliases         []string          `json:"aliases,omitempty"`
	Name            string            `json:"name"`
	Script          Script            `json:"script"`
	Rows            [][]KeyDefinition `json:"rows"`
	Transliteration map[string]string `json:"transliteration,omitempty"`
}

// Keys returns every key in row order.
func (d *Definition) Keys() []KeyDefinition {
	var keys []KeyDefinition
	for _, row := range d.Rows {
		keys = append(keys, row...)
	}
	return keys
}

func (d *Definition) applyDefaults() {
	for r := range d.Rows {
		for k := range d.Rows[r] {
			key := &d.Rows[r][k]
			if key.Width <= 0 {
				key.Width = 1
			}
			if key.Type == "" {
				key.Type = KeyCharacter
			}
		}
	}
}

// Validate checks the invariants the resolver relies on: the language is set,
// there is at least one row and key IDs are unique. A character may sit on more
// than one key; lookups then return the first one in row order.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Language) == "" {
		return fmt.Errorf("%w: language is empty", ErrInvalidLayout)
	}
	if len(d.Rows) == 0 {
		return fmt.Errorf("%w: %s has no rows", ErrInvalidLayout, d.Language)
	}
	ids := map[string]struct{}{}
	for _, key := range d.Keys() {
		if key.ID == "" {
			return fmt.Errorf("%w: %s has a key without id", ErrInvalidLayout, d.Language)
		}
		if _, ok := ids[key.ID]; ok {
			return fmt.Errorf("%w: %s repeats key id %q", ErrInvalidLayout, d.Language, key.ID)
		}
		ids[key.ID] = struct{}{}
	}
	return nil
}
