package stats

import (
	"testing"

	"github.com/verte-zerg/glyphtype/internal/model"
)

func TestTopCharsByFrequency(t *testing.T) {
	aggs := []model.CharAggregate{
		{Char: "b", Correct: 3, Incorrect: 1},
		{Char: " ", Correct: 30},
		{Char: "a", Correct: 2, Incorrect: 2},
		{Char: "c", Correct: 1, Incorrect: 0},
	}
	top := TopCharsByFrequency(aggs, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 chars, got %d", len(top))
	}
	if top[0] != "a" || top[1] != "b" {
		t.Fatalf("unexpected order: %v", top)
	}
}

func TestParseChars(t *testing.T) {
	cases := map[string][]string{
		"":        nil,
		"ꓐ ꓮ":     {"ꓐ", "ꓮ"},
		"ab, c ,": {"ab", "c"},
		"ကိ":      {"က", "ိ"},
		"  x  ":   {"x"},
	}
	for in, want := range cases {
		got := ParseChars(in)
		if len(got) != len(want) {
			t.Fatalf("ParseChars(%q) = %v, want %v", in, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("ParseChars(%q) = %v, want %v", in, got, want)
			}
		}
	}
}
