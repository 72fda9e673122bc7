// Package modifier tracks shift, alt, ctrl and caps-lock state from key events.
package modifier

// Physical key codes, named after KeyboardEvent.code.
const (
	ShiftLeft    = "ShiftLeft"
	ShiftRight   = "ShiftRight"
	ControlLeft  = "ControlLeft"
	ControlRight = "ControlRight"
	AltLeft      = "AltLeft"
	AltRight     = "AltRight"
	CapsLock     = "CapsLock"
)

// Kind is a logical modifier.
type Kind uint8

const (
	KindNone Kind = iota
	KindShift
	KindAlt
	KindCtrl
	KindCapsLock
)

// State is the modifier view consumed by layout resolution.
type State struct {
	Shift    bool
	Alt      bool
	Ctrl     bool
	CapsLock bool
}

// Any reports whether any transient modifier is active.
func (s State) Any() bool {
	return s.Shift || s.Alt || s.Ctrl
}

type keyBit uint8

var physicalKeys = map[string]struct {
	kind Kind
	bit  keyBit
}{
	ShiftLeft:    {KindShift, 1 << 0},
	ShiftRight:   {KindShift, 1 << 1},
	ControlLeft:  {KindCtrl, 1 << 2},
	ControlRight: {KindCtrl, 1 << 3},
	AltLeft:      {KindAlt, 1 << 4},
	AltRight:     {KindAlt, 1 << 5},
	CapsLock:     {KindCapsLock, 1 << 6},
}

const (
	shiftBits = keyBit(1<<0 | 1<<1)
	ctrlBits  = keyBit(1<<2 | 1<<3)
	altBits   = keyBit(1<<4 | 1<<5)
)

// KindOf returns the modifier kind for a physical code, or KindNone.
func KindOf(code string) Kind {
	pk, ok := physicalKeys[code]
	if !ok {
		return KindNone
	}
	return pk.kind
}

// Machine is the modifier state machine. The zero value has every flag off.
// Machine is a comparable value; copying it snapshots the full state.
type Machine struct {
	held     keyBit
	sticky   State
	capsLock bool
}

// State returns the effective modifier flags.
func (m Machine) State() State {
	return State{
		Shift:    m.held&shiftBits != 0 || m.sticky.Shift,
		Alt:      m.held&altBits != 0 || m.sticky.Alt,
		Ctrl:     m.held&ctrlBits != 0 || m.sticky.Ctrl,
		CapsLock: m.capsLock,
	}
}

// OnKeyDown handles a physical key press. A press for a key that is already
// held is an auto-repeat and leaves the state unchanged.
func (m *Machine) OnKeyDown(code string) State {
	pk, ok := physicalKeys[code]
	if !ok {
		return m.State()
	}
	if m.held&pk.bit != 0 {
		return m.State()
	}
	m.held |= pk.bit
	if pk.kind == KindCapsLock {
		m.capsLock = !m.capsLock
	}
	return m.State()
}

// OnKeyUp handles a physical key release. Caps lock stays toggled.
func (m *Machine) OnKeyUp(code string) State {
	pk, ok := physicalKeys[code]
	if !ok {
		return m.State()
	}
	m.held &^= pk.bit
	return m.State()
}

// OnVirtualClick toggles the modifier behind an on-screen key. Pointer clicks
// have no release, so transient modifiers latch until the next character.
func (m *Machine) OnVirtualClick(code string) State {
	pk, ok := physicalKeys[code]
	if !ok {
		return m.State()
	}
	switch pk.kind {
	case KindShift:
		m.sticky.Shift = !m.sticky.Shift
	case KindAlt:
		m.sticky.Alt = !m.sticky.Alt
	case KindCtrl:
		m.sticky.Ctrl = !m.sticky.Ctrl
	case KindCapsLock:
		m.capsLock = !m.capsLock
	}
	return m.State()
}

// OnCharacterResolved clears latched virtual modifiers after a regular character.
func (m *Machine) OnCharacterResolved() State {
	m.sticky = State{}
	return m.State()
}

// Reset releases every key and clears caps lock.
func (m *Machine) Reset() {
	*m = Machine{}
}
