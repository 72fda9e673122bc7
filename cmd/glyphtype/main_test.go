package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/glyphtype/internal/config"
	"github.com/verte-zerg/glyphtype/internal/layout"
	"github.com/verte-zerg/glyphtype/internal/model"
	"github.com/verte-zerg/glyphtype/internal/store"
)

func validConfig() model.Config {
	return model.Config{
		Lang:           "lisu",
		Mode:           model.ModeNormal,
		Termination:    model.TerminationTime,
		Duration:       time.Minute,
		Words:          25,
		Difficulty:     model.DifficultyNormal,
		TextType:       model.TextWords,
		Commitment:     model.CommitIrreversible,
		SampleInterval: time.Second,
		WeakTop:        8,
		WeakFactor:     2,
		WeakWindow:     20,
	}
}

func TestValidateConfig(t *testing.T) {
	require.NoError(t, validateConfig(validConfig()))

	cases := map[string]func(*model.Config){
		"mode":            func(c *model.Config) { c.Mode = "ranked" },
		"termination":     func(c *model.Config) { c.Termination = "chars" },
		"duration":        func(c *model.Config) { c.Duration = 0 },
		"words":           func(c *model.Config) { c.Words = 0 },
		"difficulty":      func(c *model.Config) { c.Difficulty = "insane" },
		"text-type":       func(c *model.Config) { c.TextType = "code" },
		"commitment":      func(c *model.Config) { c.Commitment = "lazy" },
		"sample-interval": func(c *model.Config) { c.SampleInterval = 0 },
		"weak-factor":     func(c *model.Config) { c.WeakFactor = -1 },
		"lang":            func(c *model.Config) { c.Lang = " " },
	}
	for name, mutate := range cases {
		cfg := validConfig()
		mutate(&cfg)
		err := validateConfig(cfg)
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "--"+name)
	}
}

func TestDurationIgnoredForWordTermination(t *testing.T) {
	cfg := validConfig()
	cfg.Termination = model.TerminationWords
	cfg.Duration = 0
	assert.NoError(t, validateConfig(cfg))
}

func TestApplyConfigRespectsChangedFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	var d time.Duration
	var lang string
	cmd.Flags().DurationVar(&d, "duration", time.Minute, "")
	cmd.Flags().StringVar(&lang, "lang", "en", "")
	require.NoError(t, cmd.Flags().Set("lang", "my"))

	fromFile := "lisu"
	applyStringConfig(cmd, "lang", &lang, &fromFile)
	applyDurationConfig(cmd, "duration", &d, &config.Duration{Duration: 30 * time.Second})
	applyDurationConfig(cmd, "duration", &d, nil)

	assert.Equal(t, "my", lang)
	assert.Equal(t, 30*time.Second, d)
}

func TestFindRows(t *testing.T) {
	reg, err := layout.Builtin()
	require.NoError(t, err)
	res, err := reg.Resolver("lisu")
	require.NoError(t, err)

	rows := findRows(res, []string{"ꓐb€"})
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"ꓐ", "KeyB", "-", "left-index", "ꓐ"}, rows[1])
	assert.Equal(t, "KeyB", rows[2][1])
	assert.Equal(t, "ꓐ (transliterated)", rows[2][4])
	assert.Equal(t, "not on this layout", rows[3][4])
}

func TestWriteColumnsAlignsWideCells(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeColumns(&buf, [][]string{{"a", "x"}, {"ꓐꓮ", "y"}}))
	assert.Equal(t, "a   x\nꓐꓮ  y\n", buf.String())
}

func seedResult(t *testing.T, st *store.Store) {
	t.Helper()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	res := model.NewTypingResults(model.TypingResults{
		SessionID:         "s-1",
		Language:          "lisu",
		Mode:              model.ModePractice,
		StartedAt:         start,
		EndedAt:           start.Add(time.Minute),
		WPM:               31,
		Accuracy:          96.5,
		CorrectWords:      30,
		IncorrectWords:    1,
		TotalWords:        31,
		DurationSeconds:   60,
		CharactersTyped:   160,
		Errors:            2,
		Consistency:       81,
		FingerUtilization: map[string]int{"left-index": 12},
		WPMSamples:        []float64{28, 34},
		Mistakes:          []model.TypingMistake{{Position: 3, Expected: "ꓐ", Actual: "ꓮ", Timestamp: 1000}},
		CharStats:         []model.CharStats{{Char: "ꓐ", Correct: 9, Incorrect: 1, LatencySumMs: 1600, LatencyCount: 8}},
	})
	_, err := st.PersistResult(context.Background(), res, model.ResultContext{UserID: "ada", Difficulty: model.DifficultyHard})
	require.NoError(t, err)
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "glyphtype.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestExportFormats(t *testing.T) {
	st := openStore(t)
	seedResult(t, st)
	stored, err := st.LoadResults(context.Background(), []int64{1})
	require.NoError(t, err)
	records := toExportRecords(stored)
	require.Len(t, records, 1)
	assert.Equal(t, "ada", records[0].User)
	assert.Equal(t, "hard", records[0].Difficulty)
	assert.InDelta(t, 200.0, records[0].Chars[0].AvgLatencyMs, 0.001)

	var jsonBuf bytes.Buffer
	require.NoError(t, writeExport(&jsonBuf, "json", records))
	var fromJSON []map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &fromJSON))
	require.Len(t, fromJSON, 1)
	assert.Equal(t, "lisu", fromJSON[0]["language"])
	assert.Equal(t, 31.0, fromJSON[0]["wpm"])

	var yamlBuf bytes.Buffer
	require.NoError(t, writeExport(&yamlBuf, "yaml", records))
	var fromYAML []exportRecord
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML))
	require.Len(t, fromYAML, 1)
	assert.Equal(t, "s-1", fromYAML[0].SessionID)
	assert.Equal(t, []float64{28, 34}, fromYAML[0].WPMSamples)
	assert.Equal(t, "ꓮ", fromYAML[0].Mistakes[0].Actual)
}

func TestRenderPlainStats(t *testing.T) {
	st := openStore(t)
	seedResult(t, st)
	var buf bytes.Buffer
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := model.StatsConfig{CurveWindow: 5}
	require.NoError(t, renderPlainStats(context.Background(), &buf, st, cfg, now))
	out := buf.String()
	assert.Contains(t, out, "Sessions: 1")
	assert.Contains(t, out, "Best WPM: 31.00")
	assert.Contains(t, out, "Last session: 2 hours ago")
	assert.Contains(t, out, "Per-Character Curves")
}

func TestParseSince(t *testing.T) {
	since, err := parseSince("")
	require.NoError(t, err)
	assert.Nil(t, since)

	since, err = parseSince("2026-02-03")
	require.NoError(t, err)
	assert.Equal(t, 3, since.Day())

	_, err = parseSince("03/02/2026")
	assert.Error(t, err)
}
