package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/glyphtype/internal/model"
)

func TestSummarize(t *testing.T) {
	end := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	sum := Summarize([]model.SessionAggregate{
		{WPM: 20, Accuracy: 90, Consistency: 70, CharactersTyped: 600, DurationMs: 30000, EndedAt: end.Add(-time.Hour)},
		{WPM: 40, Accuracy: 100, Consistency: 90, CharactersTyped: 900, DurationMs: 45000, EndedAt: end},
	})
	if sum.Sessions != 2 || sum.AvgWPM != 30 || sum.BestWPM != 40 {
		t.Fatalf("unexpected wpm summary: %+v", sum)
	}
	if sum.AvgAccuracy != 95 || sum.AvgConsistency != 80 {
		t.Fatalf("unexpected averages: %+v", sum)
	}
	if sum.Practice != 75*time.Second || !sum.LastEndedAt.Equal(end) {
		t.Fatalf("unexpected totals: %+v", sum)
	}

	var buf bytes.Buffer
	if err := RenderSummary(&buf, []model.SessionAggregate{{WPM: 1, CharactersTyped: 1500, EndedAt: end}}, end.Add(2*time.Hour)); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	if !strings.Contains(buf.String(), "Characters: 1,500") || !strings.Contains(buf.String(), "2 hours ago") {
		t.Fatalf("unexpected summary:\n%s", buf.String())
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 7, 14}); got != "▁▅█" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{3, 3}); got != "▅▅" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
	if Sparkline(nil) != "" {
		t.Fatalf("expected empty sparkline")
	}
}

func TestFingerRowsFollowKeyboardOrder(t *testing.T) {
	rows := FingerRows(map[string]int{"right-pinky": 1, "left-pinky": 3})
	if len(rows) != 2 || rows[0][0] != "left-pinky" || rows[0][2] != "75.0%" {
		t.Fatalf("unexpected finger rows: %v", rows)
	}
	if len(FingerRows(map[string]int{})) != 0 {
		t.Fatalf("expected no rows for empty utilization")
	}
}

func TestSelectWeakChars(t *testing.T) {
	aggs := []model.CharAggregate{
		{Char: "a", Correct: 9, Incorrect: 1},
		{Char: "b", Correct: 5, Incorrect: 5},
		{Char: "c", Correct: 5, Incorrect: 5, LatencySumMs: 900, LatencyCount: 1},
		{Char: " ", Correct: 0, Incorrect: 9},
	}
	weak := SelectWeakChars(aggs, 1)
	if _, ok := weak['c']; !ok || len(weak) != 1 {
		t.Fatalf("expected the slower tie to win, got %v", weak)
	}
	all := SelectWeakChars(aggs, 0)
	if len(all) != 3 {
		t.Fatalf("expected spaces to be skipped, got %v", all)
	}
}
