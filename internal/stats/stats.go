// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/glyphtype/internal/layout"
	"github.com/verte-zerg/glyphtype/internal/model"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Summary aggregates a set of stored sessions.
type Summary struct {
	Sessions        int
	AvgWPM          float64
	BestWPM         float64
	AvgAccuracy     float64
	AvgConsistency  float64
	CharactersTyped int
	Practice        time.Duration
	LastEndedAt     time.Time
}

// Summarize averages the stored session scores.
func Summarize(sessions []model.SessionAggregate) Summary {
	var sum Summary
	if len(sessions) == 0 {
		return sum
	}
	for _, s := range sessions {
		sum.AvgWPM += s.WPM
		sum.AvgAccuracy += s.Accuracy
		sum.AvgConsistency += s.Consistency
		sum.BestWPM = math.Max(sum.BestWPM, s.WPM)
		sum.CharactersTyped += s.CharactersTyped
		sum.Practice += time.Duration(s.DurationMs) * time.Millisecond
		if s.EndedAt.After(sum.LastEndedAt) {
			sum.LastEndedAt = s.EndedAt
		}
	}
	n := float64(len(sessions))
	sum.Sessions = len(sessions)
	sum.AvgWPM /= n
	sum.AvgAccuracy /= n
	sum.AvgConsistency /= n
	return sum
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders values as one line of block characters.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := bounds(values)
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkBlocks[len(sparkBlocks)/2]), len(values))
	}
	var b strings.Builder
	top := float64(len(sparkBlocks) - 1)
	for _, v := range values {
		b.WriteRune(sparkBlocks[int(math.Round((v-lo)/(hi-lo)*top))])
	}
	return b.String()
}

// RenderSummary prints the session summary relative to now.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate, now time.Time) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	sum := Summarize(sessions)
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", sum.Sessions),
		fmt.Sprintf("Avg WPM: %.2f", sum.AvgWPM),
		fmt.Sprintf("Best WPM: %.2f", sum.BestWPM),
		fmt.Sprintf("Avg Accuracy: %.2f%%", sum.AvgAccuracy),
		fmt.Sprintf("Avg Consistency: %.2f%%", sum.AvgConsistency),
		fmt.Sprintf("Characters: %s", humanize.Comma(int64(sum.CharactersTyped))),
		fmt.Sprintf("Practice: %s", sum.Practice.Round(time.Second)),
		fmt.Sprintf("Last session: %s", humanize.RelTime(sum.LastEndedAt, now, "ago", "from now")),
		"",
	}
	return writeLines(w, lines)
}

// RenderSparkline prints one labelled sparkline of WPM samples.
func RenderSparkline(w io.Writer, label string, samples []float64) error {
	if len(samples) == 0 {
		return nil
	}
	lo, hi := bounds(samples)
	return writeLines(w, []string{
		fmt.Sprintf("%s %s  (%.0f-%.0f wpm)", label, Sparkline(samples), lo, hi),
		"",
	})
}

// RenderCurves prints learning curves for WPM, accuracy and consistency.
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window int) error {
	return RenderCurvesWithSize(w, sessions, window, 0, defaultPlotHeight, false)
}

// RenderCurvesWithSize prints learning curves sized to a given total width.
func RenderCurvesWithSize(w io.Writer, sessions []model.SessionAggregate, window, totalWidth, height int, color bool) error {
	if len(sessions) == 0 {
		return nil
	}
	wpms := make([]float64, len(sessions))
	accs := make([]float64, len(sessions))
	cons := make([]float64, len(sessions))
	for i, s := range sessions {
		wpms[i] = s.WPM
		accs[i] = s.Accuracy
		cons[i] = s.Consistency
	}
	return PlotSeriesWithColor(w, "Learning Curves", []Series{
		{Name: "WPM", Values: MovingAverage(wpms, window)},
		{Name: "Accuracy", Values: MovingAverage(accs, window)},
		{Name: "Consistency", Values: MovingAverage(cons, window)},
	}, plotWidth(totalWidth), height, color)
}

func plotWidth(totalWidth int) int {
	if totalWidth <= 0 {
		return 0
	}
	return PlotWidthFor(totalWidth)
}

// CharLabel makes a character printable in a table cell. Spaces are named
// and zero-width marks get a dotted circle base.
func CharLabel(ch string) string {
	switch {
	case ch == " ":
		return "<space>"
	case runewidth.StringWidth(ch) == 0:
		return "◌" + ch
	}
	return ch
}

// CharRows formats per-character aggregates, weakest first.
func CharRows(aggs []model.CharAggregate) [][]string {
	sorted := make([]model.CharAggregate, len(aggs))
	copy(sorted, aggs)
	sort.Slice(sorted, func(i, j int) bool {
		ai, aj := charAccuracy(sorted[i]), charAccuracy(sorted[j])
		if ai == aj {
			return sorted[i].Char < sorted[j].Char
		}
		return ai < aj
	})
	rows := make([][]string, len(sorted))
	for i, agg := range sorted {
		rows[i] = []string{
			CharLabel(agg.Char),
			fmt.Sprintf("%.2f%%", charAccuracy(agg)*100),
			fmt.Sprintf("%.1f", meanLatency(agg)),
			fmt.Sprintf("%d", agg.Correct),
			fmt.Sprintf("%d", agg.Incorrect),
		}
	}
	return rows
}

// CharHeaders are the column titles of CharRows.
var CharHeaders = []string{"Char", "Accuracy", "Avg Latency (ms)", "Correct", "Incorrect"}

// RenderCharTable prints per-character aggregates.
func RenderCharTable(w io.Writer, aggs []model.CharAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No character stats found.")
		return err
	}
	lines := append([]string{"Per-Character (Windowed)"},
		formatTable(CharHeaders, CharRows(aggs), map[int]bool{1: true, 2: true, 3: true, 4: true})...)
	return writeLines(w, append(lines, ""))
}

// FingerRows formats finger counts in keyboard order with their share.
func FingerRows(fingers map[string]int) [][]string {
	total := 0
	for _, n := range fingers {
		total += n
	}
	var rows [][]string
	for _, f := range layout.Fingers {
		n, ok := fingers[string(f)]
		if !ok {
			continue
		}
		share := 0.0
		if total > 0 {
			share = float64(n) / float64(total) * 100
		}
		rows = append(rows, []string{string(f), humanize.Comma(int64(n)), fmt.Sprintf("%.1f%%", share)})
	}
	return rows
}

// RenderFingerTable prints finger utilization. Layouts without finger data
// leave it empty.
func RenderFingerTable(w io.Writer, fingers map[string]int) error {
	rows := FingerRows(fingers)
	if len(rows) == 0 {
		return nil
	}
	lines := append([]string{"Finger Utilization"},
		formatTable([]string{"Finger", "Keystrokes", "Share"}, rows, map[int]bool{1: true, 2: true})...)
	return writeLines(w, append(lines, ""))
}

// RenderCharCurves prints per-character learning curves.
func RenderCharCurves(w io.Writer, sessions []model.SessionAggregate, perSession map[int64]map[string]model.CharAggregate, chars []string, window int) error {
	return RenderCharCurvesWithSize(w, sessions, perSession, chars, window, 0, defaultPlotHeight, false)
}

// RenderCharCurvesWithSize prints per-character learning curves sized to a given total width.
func RenderCharCurvesWithSize(w io.Writer, sessions []model.SessionAggregate, perSession map[int64]map[string]model.CharAggregate, chars []string, window, totalWidth, height int, color bool) error {
	if len(chars) == 0 || len(sessions) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Per-Character Curves"); err != nil {
		return err
	}
	for _, ch := range chars {
		acc := make([]float64, len(sessions))
		lat := make([]float64, len(sessions))
		for i, s := range sessions {
			agg, ok := perSession[s.SessionID][ch]
			if !ok {
				continue
			}
			if agg.Correct+agg.Incorrect > 0 {
				acc[i] = charAccuracy(agg) * 100
			}
			lat[i] = meanLatency(agg)
		}
		if err := PlotSeriesWithColor(w, "Char "+CharLabel(ch), []Series{
			{Name: "Accuracy", Values: MovingAverage(acc, window)},
			{Name: "Latency", Values: MovingAverage(lat, window)},
		}, plotWidth(totalWidth), height, color); err != nil {
			return err
		}
	}
	return nil
}

func meanLatency(agg model.CharAggregate) float64 {
	if agg.LatencyCount == 0 {
		return 0
	}
	return float64(agg.LatencySumMs) / float64(agg.LatencyCount)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
