package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/glyphtype/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "data", "glyphtype.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func sampleResult(id, lang string, ended time.Time) model.TypingResults {
	return model.NewTypingResults(model.TypingResults{
		SessionID:       id,
		Language:        lang,
		Mode:            model.ModeNormal,
		StartedAt:       ended.Add(-12 * time.Second),
		EndedAt:         ended,
		WPM:             15,
		Accuracy:        80,
		CorrectWords:    3,
		IncorrectWords:  1,
		TotalWords:      4,
		DurationSeconds: 12,
		CharactersTyped: 10,
		Errors:          2,
		Consistency:     91.5,
		FingerUtilization: map[string]int{
			"left-index":  4,
			"right-index": 2,
		},
		WPMSamples: []float64{24, 12, 36},
		Mistakes: []model.TypingMistake{
			{Position: 1, Expected: "a", Actual: "o", Timestamp: 1000},
			{Position: 5, Expected: "t", Actual: "r", Timestamp: 2000},
		},
		CharStats: []model.CharStats{
			{Char: "c", Correct: 2, LatencySumMs: 0, LatencyCount: 0},
			{Char: "a", Correct: 1, Incorrect: 1, LatencySumMs: 400, LatencyCount: 1},
		},
	})
}

func TestPersistAndLoadResult(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	ended := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	res := sampleResult("uuid-1", "en", ended)

	id, err := st.PersistResult(ctx, res, model.ResultContext{
		UserID:     "ada",
		Difficulty: model.DifficultyHard,
		TextType:   model.TextSentences,
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	loaded, err := st.LoadResults(ctx, []int64{id})
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	got := loaded[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "ada", got.Context.UserID)
	assert.Equal(t, "en", got.Context.Language)
	assert.Equal(t, model.DifficultyHard, got.Context.Difficulty)
	assert.Equal(t, model.TextSentences, got.Context.TextType)
	assert.Equal(t, res.SessionID, got.Results.SessionID)
	assert.True(t, res.EndedAt.Equal(got.Results.EndedAt))
	assert.Equal(t, res.WPM, got.Results.WPM)
	assert.Equal(t, res.TotalWords, got.Results.TotalWords)
	assert.InDelta(t, res.DurationSeconds, got.Results.DurationSeconds, 0.001)
	assert.Equal(t, res.FingerUtilization, got.Results.FingerUtilization)
	assert.Equal(t, res.WPMSamples, got.Results.WPMSamples)
	assert.Equal(t, res.Mistakes, got.Results.Mistakes)
	assert.Equal(t, res.CharStats, got.Results.CharStats)
}

func TestPersistRejectsDuplicateUUID(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	res := sampleResult("uuid-dup", "en", time.Now())
	_, err := st.PersistResult(ctx, res, model.ResultContext{})
	require.NoError(t, err)
	_, err = st.PersistResult(ctx, res, model.ResultContext{})
	require.Error(t, err)

	sessions, err := st.ListSessions(ctx, model.StatsConfig{})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestListSessionsFilters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, lang := range []string{"en", "lisu", "en", "my"} {
		_, err := st.PersistResult(ctx, sampleResult("u"+string(rune('a'+i)), lang, base.Add(time.Duration(i)*time.Hour)), model.ResultContext{})
		require.NoError(t, err)
	}

	all, err := st.ListSessions(ctx, model.StatsConfig{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.True(t, all[0].EndedAt.Before(all[3].EndedAt))

	en, err := st.ListSessions(ctx, model.StatsConfig{Lang: "en"})
	require.NoError(t, err)
	require.Len(t, en, 2)
	assert.Equal(t, "ua", en[0].UUID)
	assert.Equal(t, 15.0, en[0].WPM)
	assert.Equal(t, int64(12000), en[0].DurationMs)

	since := base.Add(90 * time.Minute)
	recent, err := st.ListSessions(ctx, model.StatsConfig{Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	last, err := st.ListSessions(ctx, model.StatsConfig{Last: 1})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "my", last[0].Lang)
}

func TestWeakCharsAndAggregates(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := st.PersistResult(ctx, sampleResult("w"+string(rune('a'+i)), "en", base.Add(time.Duration(i)*time.Minute)), model.ResultContext{})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	weak, err := st.GetWeakChars(ctx, 2, "en")
	require.NoError(t, err)
	require.Len(t, weak, 2)
	assert.Equal(t, model.CharAggregate{Char: "a", Correct: 2, Incorrect: 2, LatencySumMs: 800, LatencyCount: 2}, weak[0])

	none, err := st.GetWeakChars(ctx, 5, "lisu")
	require.NoError(t, err)
	assert.Empty(t, none)

	aggs, err := st.ListCharAggregatesForSessions(ctx, ids)
	require.NoError(t, err)
	require.Len(t, aggs, 2)
	assert.Equal(t, 6, aggs[1].Correct)

	per, err := st.ListCharStatsForSessions(ctx, ids[:1], []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, 1, per[ids[0]]["a"].Incorrect)

	fingers, err := st.FingerTotals(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"left-index": 12, "right-index": 6}, fingers)

	samples, err := st.ListWPMSamples(ctx, ids[1:2])
	require.NoError(t, err)
	assert.Equal(t, []float64{24, 12, 36}, samples[ids[1]])
}
