package keyboard

import (
	"github.com/verte-zerg/glyphtype/internal/layout"
	"github.com/verte-zerg/glyphtype/internal/modifier"
)

// Dispatcher owns an input buffer and feeds events through OnKeyEvent.
type Dispatcher struct {
	state  State
	res    KeyResolver
	buffer []rune
}

// NewDispatcher returns a dispatcher resolving keys through res.
func NewDispatcher(res KeyResolver) *Dispatcher {
	return &Dispatcher{res: res}
}

// Feed applies one event and edits the buffer.
func (d *Dispatcher) Feed(ev Event) Delta {
	var delta Delta
	d.state, delta = OnKeyEvent(d.state, d.res, ev)
	switch delta.Action {
	case ActionInsert:
		d.buffer = append(d.buffer, []rune(delta.Output)...)
	case ActionBackspace:
		if len(d.buffer) > 0 {
			d.buffer = d.buffer[:len(d.buffer)-1]
		}
	}
	return delta
}

// FeedAll applies events in order and returns the last delta.
func (d *Dispatcher) FeedAll(events []Event) Delta {
	var last Delta
	for _, ev := range events {
		last = d.Feed(ev)
	}
	return last
}

// Buffer returns the typed text.
func (d *Dispatcher) Buffer() string {
	return string(d.buffer)
}

// Modifiers returns the current modifier flags.
func (d *Dispatcher) Modifiers() modifier.State {
	return d.state.Modifiers.State()
}

// Reset clears the buffer and releases every modifier.
func (d *Dispatcher) Reset() {
	d.state = State{}
	d.buffer = d.buffer[:0]
}

// StrokeFinder looks up the key that types a character.
type StrokeFinder interface {
	FindKeyStroke(ch string) (layout.Stroke, bool)
}

// HostEvents maps a character delivered by the host keyboard back to the
// physical key that produced it, so the key can be replayed on another layout.
// Modifiers the host needed are sent as virtual clicks, which latch for exactly
// one character. alt adds a latched alt for terminals that report meta keys.
func HostEvents(host StrokeFinder, ch string, alt bool) ([]Event, bool) {
	st, ok := host.FindKeyStroke(ch)
	if !ok || st.Transliterated {
		return nil, false
	}
	var events []Event
	mods := st.Modifiers()
	if mods.Shift {
		events = append(events, Event{Code: modifier.ShiftLeft, Type: VirtualClick})
	}
	if mods.Alt || alt {
		events = append(events, Event{Code: modifier.AltRight, Type: VirtualClick})
	}
	if mods.Ctrl {
		events = append(events, Event{Code: modifier.ControlLeft, Type: VirtualClick})
	}
	events = append(events,
		Event{Code: st.Key.ID, Type: KeyDown},
		Event{Code: st.Key.ID, Type: KeyUp},
	)
	return events, true
}
