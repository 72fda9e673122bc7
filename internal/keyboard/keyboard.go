// Package keyboard turns key events into modifier updates and typed characters.
package keyboard

import (
	"github.com/verte-zerg/glyphtype/internal/layout"
	"github.com/verte-zerg/glyphtype/internal/modifier"
)

// Backspace is the physical code that deletes the previous character.
const Backspace = "Backspace"

// EventType tags a key event.
type EventType uint8

const (
	KeyDown EventType = iota
	KeyUp
	VirtualClick
)

// Event is a key event from the terminal or the on-screen keyboard.
type Event struct {
	Code string
	Type EventType
}

// Action is the buffer edit an event asks for.
type Action uint8

const (
	ActionNone Action = iota
	ActionInsert
	ActionBackspace
)

// Delta describes the outcome of one event.
type Delta struct {
	Modifiers modifier.State
	Action    Action
	Output    string
	KeyID     string
}

// State is everything OnKeyEvent carries between events. It is a comparable value.
type State struct {
	Modifiers modifier.Machine
}

// KeyResolver is the slice of a layout resolver OnKeyEvent needs.
type KeyResolver interface {
	Key(id string) (layout.KeyDefinition, bool)
	ResolveOutputChar(key layout.KeyDefinition, mods modifier.State) string
}

// OnKeyEvent applies ev to st and reports what the event produced. It has no
// side effects beyond the returned state.
func OnKeyEvent(st State, res KeyResolver, ev Event) (State, Delta) {
	m := st.Modifiers
	if modifier.KindOf(ev.Code) != modifier.KindNone {
		var mods modifier.State
		switch ev.Type {
		case KeyDown:
			mods = m.OnKeyDown(ev.Code)
		case KeyUp:
			mods = m.OnKeyUp(ev.Code)
		case VirtualClick:
			mods = m.OnVirtualClick(ev.Code)
		}
		return State{Modifiers: m}, Delta{Modifiers: mods}
	}

	if ev.Type == KeyUp {
		return st, Delta{Modifiers: m.State()}
	}
	if ev.Code == Backspace {
		return st, Delta{Modifiers: m.State(), Action: ActionBackspace, KeyID: Backspace}
	}
	if res == nil {
		return st, Delta{Modifiers: m.State()}
	}
	key, ok := res.Key(ev.Code)
	if !ok {
		return st, Delta{Modifiers: m.State()}
	}
	out := res.ResolveOutputChar(key, m.State())
	if out == "" {
		return st, Delta{Modifiers: m.State(), KeyID: key.ID}
	}
	mods := m.OnCharacterResolved()
	return State{Modifiers: m}, Delta{Modifiers: mods, Action: ActionInsert, Output: out, KeyID: key.ID}
}
