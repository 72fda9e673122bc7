package layout

import (
	"github.com/verte-zerg/glyphtype/internal/modifier"
)

// Slot identifies which character table of a key produced a character.
type Slot uint8

const (
	SlotBase Slot = iota
	SlotShift
	SlotAlt
	SlotCtrl
)

// Modifiers returns the modifier state that selects the slot.
func (s Slot) Modifiers() modifier.State {
	switch s {
	case SlotShift:
		return modifier.State{Shift: true}
	case SlotAlt:
		return modifier.State{Alt: true}
	case SlotCtrl:
		return modifier.State{Ctrl: true}
	}
	return modifier.State{}
}

// Stroke is the key plus modifiers needed to type a character.
type Stroke struct {
	Key            KeyDefinition
	Slot           Slot
	Char           string
	Transliterated bool
}

// Modifiers returns the modifier state the stroke needs.
func (s Stroke) Modifiers() modifier.State {
	return s.Slot.Modifiers()
}

type slotRef struct {
	key  int
	slot Slot
}

// Resolver answers character questions for one layout. It is read-only after
// construction and safe for concurrent use.
type Resolver struct {
	def   *Definition
	keys  []KeyDefinition
	byID  map[string]int
	chars map[string]slotRef
}

// NewResolver indexes a layout definition.
func NewResolver(def *Definition) *Resolver {
	r := &Resolver{
		def:   def,
		keys:  def.Keys(),
		byID:  map[string]int{},
		chars: map[string]slotRef{},
	}
	for i, key := range r.keys {
		r.byID[key.ID] = i
		for slot, ch := range []string{key.Base, key.Shift, key.Alt, key.Ctrl} {
			if ch == "" {
				continue
			}
			// First match in row order wins.
			if _, ok := r.chars[ch]; !ok {
				r.chars[ch] = slotRef{key: i, slot: Slot(slot)}
			}
		}
	}
	return r
}

// Definition returns the layout behind the resolver.
func (r *Resolver) Definition() *Definition {
	return r.def
}

// Key returns the key with the given ID.
func (r *Resolver) Key(id string) (KeyDefinition, bool) {
	i, ok := r.byID[id]
	if !ok {
		return KeyDefinition{}, false
	}
	return r.keys[i], true
}

// ResolveOutputChar returns the character a key emits under mods. Ctrl wins
// over alt, alt over shift, and caps lock acts as shift. A held modifier whose
// slot is empty yields to the next one, down to base. The empty string means
// the key emits nothing.
func (r *Resolver) ResolveOutputChar(key KeyDefinition, mods modifier.State) string {
	return ResolveOutputChar(key, mods)
}

// ResolveOutputChar is the layout-independent form of Resolver.ResolveOutputChar.
func ResolveOutputChar(key KeyDefinition, mods modifier.State) string {
	if key.Type == KeyModifier {
		return ""
	}
	switch {
	case mods.Ctrl && key.Ctrl != "":
		return key.Ctrl
	case mods.Alt && key.Alt != "":
		return key.Alt
	case (mods.Shift || mods.CapsLock) && key.Shift != "":
		return key.Shift
	}
	return key.Base
}

// FindKeyForChar returns the first key that produces ch. When no key does and
// the layout has a transliteration table, ch is mapped through it and looked
// up once more.
func (r *Resolver) FindKeyForChar(ch string) (KeyDefinition, bool) {
	st, ok := r.FindKeyStroke(ch)
	if !ok {
		return KeyDefinition{}, false
	}
	return st.Key, true
}

// FindKeyStroke is FindKeyForChar that also reports the modifiers to hold.
func (r *Resolver) FindKeyStroke(ch string) (Stroke, bool) {
	if ch == "" {
		return Stroke{}, false
	}
	if ref, ok := r.chars[ch]; ok {
		return Stroke{Key: r.keys[ref.key], Slot: ref.slot, Char: ch}, true
	}
	mapped, ok := r.def.Transliteration[ch]
	if !ok {
		return Stroke{}, false
	}
	ref, ok := r.chars[mapped]
	if !ok {
		return Stroke{}, false
	}
	return Stroke{Key: r.keys[ref.key], Slot: ref.slot, Char: mapped, Transliterated: true}, true
}

// FingerFor returns the finger assigned to the key that types ch.
func (r *Resolver) FingerFor(ch string) (string, bool) {
	key, ok := r.FindKeyForChar(ch)
	if !ok || key.Finger == "" {
		return "", false
	}
	return string(key.Finger), true
}
