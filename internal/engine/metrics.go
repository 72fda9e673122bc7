package engine

import (
	"math"
	"time"
)

// wordsPerMinute returns words per minute of active time, or 0 when no time
// has elapsed.
func wordsPerMinute(words int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(words) / elapsed.Minutes()
}

// accuracy returns the percentage of correct keystrokes, or 100 when nothing
// has been typed.
func accuracy(correct, typed int) float64 {
	if typed <= 0 {
		return 100
	}
	return clamp(float64(correct)/float64(typed)*100, 0, 100)
}

// sampleWPM converts correct characters typed in one interval to WPM using
// the five-characters-per-word convention.
func sampleWPM(correctChars int, interval time.Duration) float64 {
	if interval <= 0 {
		return 0
	}
	return float64(correctChars) / 5 / interval.Minutes()
}

// consistency maps the coefficient of variation of the WPM samples to a
// 0..100 score, where 100 means a perfectly even pace.
func consistency(samples []float64) float64 {
	if len(samples) < 2 {
		return 100
	}
	var sum float64
	for _, v := range samples {
		sum += v
	}
	mean := sum / float64(len(samples))
	if mean == 0 {
		return 0
	}
	var sq float64
	for _, v := range samples {
		d := v - mean
		sq += d * d
	}
	cv := math.Sqrt(sq/float64(len(samples))) / mean
	x := cv + math.Pow(cv, 3)/3 + math.Pow(cv, 5)/5
	return clamp(100*(1-math.Tanh(x)), 0, 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
