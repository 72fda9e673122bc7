package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rivo/uniseg"

	"github.com/verte-zerg/glyphtype/internal/layout"
	"github.com/verte-zerg/glyphtype/internal/modifier"
)

const keyUnit = 4

var modifierLabels = map[string]string{
	modifier.ShiftLeft:    "shift",
	modifier.ShiftRight:   "shift",
	modifier.ControlLeft:  "ctrl",
	modifier.ControlRight: "ctrl",
	modifier.AltLeft:      "alt",
	modifier.AltRight:     "alt",
	modifier.CapsLock:     "caps",
}

// RenderKeyboard draws the layout as the given modifiers would type it. The
// key of next is highlighted together with the modifiers it needs.
func RenderKeyboard(def *layout.Definition, mods modifier.State, next *layout.Stroke) string {
	var need modifier.State
	if next != nil {
		need = next.Modifiers()
	}
	rows := make([]string, 0, len(def.Rows))
	for _, row := range def.Rows {
		caps := make([]string, 0, len(row))
		for _, k := range row {
			style := keyStyle
			switch {
			case next != nil && k.ID == next.Key.ID:
				style = nextKeyStyle
			case wantsModifier(k.ID, need):
				style = needModifierStyle
			case wantsModifier(k.ID, mods):
				style = activeModifierStyle
			}
			width := max(3, int(k.Width*keyUnit+0.5)-1)
			caps = append(caps, style.Width(width).Align(lipgloss.Center).Render(keyLabel(k, mods)))
		}
		rows = append(rows, strings.Join(caps, " "))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func keyLabel(k layout.KeyDefinition, mods modifier.State) string {
	switch k.Type {
	case layout.KeyModifier:
		return modifierLabels[k.ID]
	case layout.KeySpace:
		return "space"
	}
	label := layout.ResolveOutputChar(k, mods)
	if label != "" && uniseg.StringWidth(label) == 0 {
		label = "◌" + label
	}
	return label
}

func wantsModifier(id string, mods modifier.State) bool {
	switch modifier.KindOf(id) {
	case modifier.KindShift:
		return mods.Shift
	case modifier.KindAlt:
		return mods.Alt
	case modifier.KindCtrl:
		return mods.Ctrl
	case modifier.KindCapsLock:
		return mods.CapsLock
	}
	return false
}

// strokeHint describes how to type the next character.
func strokeHint(st layout.Stroke, want string) string {
	var parts []string
	mods := st.Modifiers()
	if mods.Ctrl {
		parts = append(parts, "ctrl")
	}
	if mods.Alt {
		parts = append(parts, "alt")
	}
	if mods.Shift {
		parts = append(parts, "shift")
	}
	parts = append(parts, st.Key.ID)
	hint := fmt.Sprintf("next %s: %s", want, strings.Join(parts, "+"))
	if st.Key.Finger != "" {
		hint += " (" + string(st.Key.Finger) + ")"
	}
	return hint
}
