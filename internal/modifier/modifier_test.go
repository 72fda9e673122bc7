package modifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDownUpReturnsToFalse(t *testing.T) {
	for _, code := range []string{ShiftLeft, ShiftRight, AltLeft, AltRight, ControlLeft, ControlRight} {
		t.Run(code, func(t *testing.T) {
			var m Machine
			down := m.OnKeyDown(code)
			require.True(t, down.Any(), "expected a transient flag after key down")
			up := m.OnKeyUp(code)
			assert.Equal(t, State{}, up)
		})
	}
}

func TestAutoRepeatIsIdempotent(t *testing.T) {
	var m Machine
	m.OnKeyDown(ShiftLeft)
	m.OnKeyDown(ShiftLeft)
	m.OnKeyDown(ShiftLeft)
	st := m.OnKeyUp(ShiftLeft)
	assert.False(t, st.Shift, "single key up must release a repeated shift")
}

func TestBothShiftKeysHeld(t *testing.T) {
	var m Machine
	m.OnKeyDown(ShiftLeft)
	m.OnKeyDown(ShiftRight)
	st := m.OnKeyUp(ShiftLeft)
	assert.True(t, st.Shift, "right shift still held")
	st = m.OnKeyUp(ShiftRight)
	assert.False(t, st.Shift)
}

func TestCapsLockTogglesOncePerPress(t *testing.T) {
	var m Machine
	st := m.OnKeyDown(CapsLock)
	require.True(t, st.CapsLock)
	// Holding caps lock fires repeats.
	for i := 0; i < 5; i++ {
		st = m.OnKeyDown(CapsLock)
	}
	assert.True(t, st.CapsLock)
	st = m.OnKeyUp(CapsLock)
	assert.True(t, st.CapsLock, "key up must not toggle caps lock")

	m.OnKeyDown(CapsLock)
	st = m.OnKeyUp(CapsLock)
	assert.False(t, st.CapsLock)
}

func TestModifiersAreNotExclusive(t *testing.T) {
	var m Machine
	m.OnKeyDown(ShiftLeft)
	m.OnKeyDown(AltRight)
	st := m.OnKeyDown(ControlLeft)
	assert.Equal(t, State{Shift: true, Alt: true, Ctrl: true}, st)
}

func TestVirtualClickLatchesUntilCharacter(t *testing.T) {
	var m Machine
	st := m.OnVirtualClick(ShiftLeft)
	require.True(t, st.Shift)
	st = m.OnVirtualClick(AltRight)
	require.True(t, st.Alt)

	st = m.OnCharacterResolved()
	assert.False(t, st.Shift)
	assert.False(t, st.Alt)
}

func TestVirtualClickTogglesOff(t *testing.T) {
	var m Machine
	m.OnVirtualClick(ShiftLeft)
	st := m.OnVirtualClick(ShiftRight)
	assert.False(t, st.Shift)
}

func TestCharacterResolvedKeepsCapsLockAndHeldKeys(t *testing.T) {
	var m Machine
	m.OnVirtualClick(CapsLock)
	m.OnKeyDown(ShiftLeft)
	st := m.OnCharacterResolved()
	assert.True(t, st.CapsLock)
	assert.True(t, st.Shift, "physically held shift is not sticky")
}

func TestUnknownKeyIgnored(t *testing.T) {
	var m Machine
	m.OnKeyDown(ShiftLeft)
	before := m
	m.OnKeyDown("KeyA")
	m.OnKeyUp("MetaLeft")
	m.OnVirtualClick("Fn")
	assert.Equal(t, before, m)
	assert.Equal(t, KindNone, KindOf("KeyA"))
	assert.Equal(t, KindCapsLock, KindOf(CapsLock))
}
