package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/glyphtype/internal/modifier"
)

var modifierCombos = []modifier.State{
	{},
	{Shift: true},
	{CapsLock: true},
	{Alt: true},
	{Ctrl: true},
	{Shift: true, Alt: true},
	{Shift: true, Ctrl: true},
	{Alt: true, Ctrl: true},
	{Shift: true, Alt: true, Ctrl: true, CapsLock: true},
}

func builtin(t *testing.T) *Registry {
	t.Helper()
	reg, err := Builtin()
	require.NoError(t, err)
	return reg
}

func TestBuiltinLayoutsLoad(t *testing.T) {
	reg := builtin(t)
	assert.Equal(t, []string{"en", "lisu", "my"}, reg.Languages())

	def, ok := reg.Definition("lis")
	require.True(t, ok, "alias should resolve")
	assert.Equal(t, ScriptLisu, def.Script)

	def, ok = reg.Definition("Burmese")
	require.True(t, ok)
	assert.Equal(t, "my", def.Language)
}

func TestResolveFindRoundTrip(t *testing.T) {
	reg := builtin(t)
	for _, lang := range reg.Languages() {
		t.Run(lang, func(t *testing.T) {
			res, err := reg.Resolver(lang)
			require.NoError(t, err)
			for _, key := range res.Definition().Keys() {
				for _, mods := range modifierCombos {
					ch := res.ResolveOutputChar(key, mods)
					if ch == "" {
						continue
					}
					found, ok := res.FindKeyForChar(ch)
					require.True(t, ok, "no key for %q", ch)
					assert.Equal(t, ch, res.ResolveOutputChar(found, mods), "key %s mods %+v", key.ID, mods)
				}
			}
		})
	}
}

func TestNoSentinelOutputOrCaseFolding(t *testing.T) {
	key := KeyDefinition{ID: "KeyX", Base: "x", Type: KeyCharacter}
	for _, mods := range modifierCombos {
		assert.Equal(t, "x", ResolveOutputChar(key, mods), "empty slots fall back to base")
	}

	empty := KeyDefinition{ID: "Blank", Type: KeyCharacter}
	for _, mods := range modifierCombos {
		assert.Equal(t, "", ResolveOutputChar(empty, mods))
	}

	mod := KeyDefinition{ID: "ShiftLeft", Type: KeyModifier}
	assert.Equal(t, "", ResolveOutputChar(mod, modifier.State{Shift: true}))
}

func TestModifierPrecedence(t *testing.T) {
	key := KeyDefinition{ID: "KeyA", Base: "a", Shift: "A", Alt: "á", Ctrl: "\x01", Type: KeyCharacter}
	cases := []struct {
		mods modifier.State
		want string
	}{
		{modifier.State{}, "a"},
		{modifier.State{Shift: true}, "A"},
		{modifier.State{CapsLock: true}, "A"},
		{modifier.State{Shift: true, CapsLock: true}, "A"},
		{modifier.State{Alt: true, Shift: true}, "á"},
		{modifier.State{Ctrl: true, Alt: true}, "\x01"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ResolveOutputChar(key, tc.mods), "%+v", tc.mods)
	}
}

func TestModifierPrecedenceSkipsEmptySlots(t *testing.T) {
	noCtrl := KeyDefinition{ID: "KeyA", Base: "a", Shift: "A", Alt: "á", Type: KeyCharacter}
	shiftOnly := KeyDefinition{ID: "KeyB", Base: "b", Shift: "B", Type: KeyCharacter}
	cases := []struct {
		key  KeyDefinition
		mods modifier.State
		want string
	}{
		{noCtrl, modifier.State{Ctrl: true}, "a"},
		{noCtrl, modifier.State{Ctrl: true, Shift: true}, "A"},
		{noCtrl, modifier.State{Ctrl: true, Alt: true}, "á"},
		{noCtrl, modifier.State{Ctrl: true, Alt: true, CapsLock: true}, "á"},
		{shiftOnly, modifier.State{Alt: true, CapsLock: true}, "B"},
		{shiftOnly, modifier.State{Ctrl: true, Alt: true, Shift: true}, "B"},
		{shiftOnly, modifier.State{Alt: true}, "b"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ResolveOutputChar(tc.key, tc.mods), "%s %+v", tc.key.ID, tc.mods)
	}
}

func TestFindKeyStrokeReportsModifiers(t *testing.T) {
	res, err := builtin(t).Resolver("en")
	require.NoError(t, err)

	st, ok := res.FindKeyStroke("Q")
	require.True(t, ok)
	assert.Equal(t, "KeyQ", st.Key.ID)
	assert.Equal(t, modifier.State{Shift: true}, st.Modifiers())
	assert.False(t, st.Transliterated)

	st, ok = res.FindKeyStroke(" ")
	require.True(t, ok)
	assert.Equal(t, KeySpace, st.Key.Type)
	assert.Equal(t, Thumb, st.Key.Finger)

	_, ok = res.FindKeyStroke("ꓐ")
	assert.False(t, ok)
	_, ok = res.FindKeyStroke("")
	assert.False(t, ok)
}

func TestTransliterationRetry(t *testing.T) {
	reg := builtin(t)

	lisu, err := reg.Resolver("lisu")
	require.NoError(t, err)
	st, ok := lisu.FindKeyStroke("b")
	require.True(t, ok)
	assert.True(t, st.Transliterated)
	assert.Equal(t, "KeyB", st.Key.ID)
	assert.Equal(t, "ꓐ", st.Char)

	direct, ok := lisu.FindKeyStroke("ꓐ")
	require.True(t, ok)
	assert.False(t, direct.Transliterated)
	assert.Equal(t, st.Key.ID, direct.Key.ID)

	st, ok = lisu.FindKeyStroke(".")
	require.True(t, ok)
	assert.Equal(t, "꓿", st.Char)
	assert.Equal(t, modifier.State{Alt: true}, st.Modifiers())

	my, err := reg.Resolver("my")
	require.NoError(t, err)
	st, ok = my.FindKeyStroke("7")
	require.True(t, ok)
	assert.Equal(t, "၇", st.Char)
	assert.Equal(t, "Digit7", st.Key.ID)

	en, err := reg.Resolver("en")
	require.NoError(t, err)
	_, ok = en.FindKeyStroke("ꓐ")
	assert.False(t, ok, "latin layout has no transliteration")
}

func TestFingerFor(t *testing.T) {
	reg := builtin(t)
	en, err := reg.Resolver("en")
	require.NoError(t, err)
	finger, ok := en.FingerFor("f")
	require.True(t, ok)
	assert.Equal(t, string(LeftIndex), finger)

	my, err := reg.Resolver("my")
	require.NoError(t, err)
	_, ok = my.FingerFor("က")
	assert.False(t, ok, "myanmar layout carries no finger data")
}

func TestUnavailableLayout(t *testing.T) {
	reg := builtin(t)
	assert.NotPanics(t, func() {
		_, err := reg.Resolver("xx")
		assert.ErrorIs(t, err, ErrLayoutUnavailable)
	})
	_, ok := reg.Definition("xx")
	assert.False(t, ok)
}

func TestParseRejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"not json":       `{`,
		"missing rows":   `{"language":"xx","name":"X","script":"latin"}`,
		"bad script":     `{"language":"xx","name":"X","script":"klingon","rows":[[{"id":"A","base":"a"}]]}`,
		"bad finger":     `{"language":"xx","name":"X","script":"latin","rows":[[{"id":"A","base":"a","finger":"toe"}]]}`,
		"unknown field":  `{"language":"xx","name":"X","script":"latin","rows":[[{"id":"A","base":"a","meta":1}]]}`,
		"key without id": `{"language":"xx","name":"X","script":"latin","rows":[[{"base":"a"}]]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidLayout)
		})
	}
}

func TestParseRejectsStructuralViolations(t *testing.T) {
	dupID := `{"language":"xx","name":"X","script":"latin","rows":[[{"id":"A","base":"a"},{"id":"A","base":"b"}]]}`
	_, err := Parse([]byte(dupID))
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestRepeatedCharacterResolvesToFirstKey(t *testing.T) {
	doc := `{"language":"xx","name":"X","script":"latin","rows":[[{"id":"A","base":"a"},{"id":"B","base":"b","shift":"a"}]]}`
	def, err := Parse([]byte(doc))
	require.NoError(t, err)

	res := NewResolver(def)
	st, ok := res.FindKeyStroke("a")
	require.True(t, ok)
	assert.Equal(t, "A", st.Key.ID)
	assert.Equal(t, SlotBase, st.Slot)
	assert.Equal(t, "a", ResolveOutputChar(def.Rows[0][1], modifier.State{Shift: true}))
}

func TestBuiltinLayoutsProduceUniqueCharacters(t *testing.T) {
	reg := builtin(t)
	for _, lang := range reg.Languages() {
		def, ok := reg.Definition(lang)
		require.True(t, ok)
		owners := map[string]string{}
		for _, key := range def.Keys() {
			for _, ch := range []string{key.Base, key.Shift, key.Alt, key.Ctrl} {
				if ch == "" {
					continue
				}
				owner, dup := owners[ch]
				assert.False(t, dup, "%s: %q on %s and %s", lang, ch, owner, key.ID)
				owners[ch] = key.ID
			}
		}
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	def, err := Parse([]byte(`{"language":"xx","name":"X","script":"latin","rows":[[{"id":"A","base":"a"}]]}`))
	require.NoError(t, err)
	key := def.Rows[0][0]
	assert.Equal(t, 1.0, key.Width)
	assert.Equal(t, KeyCharacter, key.Type)
}

func TestLoadOverlaysUserLayouts(t *testing.T) {
	dir := t.TempDir()
	doc := `{"language":"en","name":"Tiny","script":"latin","rows":[[{"id":"KeyA","base":"a","shift":"A"}]]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.json"), []byte(doc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	reg, err := Load(dir)
	require.NoError(t, err)
	def, ok := reg.Definition("en")
	require.True(t, ok)
	assert.Equal(t, "Tiny", def.Name)
	assert.Len(t, reg.Languages(), 3)

	reg, err = Load(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	def, _ = reg.Definition("en")
	assert.NotEqual(t, "Tiny", def.Name)
}

func TestLoadReportsInvalidUserLayout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"language":""}`), 0o644))
	_, err := Load(dir)
	assert.ErrorIs(t, err, ErrInvalidLayout)
}
