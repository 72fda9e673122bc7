package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/glyphtype/internal/model"
)

// PersistResult stores a completed result with its char stats, mistakes,
// finger counts and WPM samples in one transaction. Context fields left empty
// fall back to the values carried by the result.
func (s *Store) PersistResult(ctx context.Context, res model.TypingResults, rc model.ResultContext) (int64, error) {
	lang := rc.Language
	if lang == "" {
		lang = res.Language
	}
	mode := rc.Mode
	if mode == "" {
		mode = res.Mode
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				// Best-effort rollback.
				_ = rbErr
			}
		}
	}()

	var result sql.Result
	result, err = tx.ExecContext(ctx,
		`INSERT INTO results (uuid, user_id, lang, mode, difficulty, text_type, started_at, ended_at,
			wpm, accuracy, consistency, correct_words, incorrect_words, characters_typed, errors, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.SessionID,
		rc.UserID,
		lang,
		string(mode),
		string(rc.Difficulty),
		string(rc.TextType),
		res.StartedAt.UTC().Format(time.RFC3339Nano),
		res.EndedAt.UTC().Format(time.RFC3339Nano),
		res.WPM,
		res.Accuracy,
		res.Consistency,
		res.CorrectWords,
		res.IncorrectWords,
		res.CharactersTyped,
		res.Errors,
		int64(res.DurationSeconds*1000),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert result: %w", err)
	}
	var id int64
	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read result id: %w", err)
	}

	if err = insertMany(ctx, tx,
		`INSERT INTO result_char_stats (result_id, char, correct, incorrect, latency_sum_ms, latency_count) VALUES (?, ?, ?, ?, ?, ?)`,
		len(res.CharStats), func(i int) []any {
			cs := res.CharStats[i]
			return []any{id, cs.Char, cs.Correct, cs.Incorrect, cs.LatencySumMs, cs.LatencyCount}
		}); err != nil {
		return 0, fmt.Errorf("failed to insert char stats: %w", err)
	}
	if err = insertMany(ctx, tx,
		`INSERT INTO result_mistakes (result_id, seq, position, expected, actual, ts_ms) VALUES (?, ?, ?, ?, ?, ?)`,
		len(res.Mistakes), func(i int) []any {
			m := res.Mistakes[i]
			return []any{id, i, m.Position, m.Expected, m.Actual, m.Timestamp}
		}); err != nil {
		return 0, fmt.Errorf("failed to insert mistakes: %w", err)
	}
	fingers := sortedKeys(res.FingerUtilization)
	if err = insertMany(ctx, tx,
		`INSERT INTO result_fingers (result_id, finger, count) VALUES (?, ?, ?)`,
		len(fingers), func(i int) []any {
			return []any{id, fingers[i], res.FingerUtilization[fingers[i]]}
		}); err != nil {
		return 0, fmt.Errorf("failed to insert finger counts: %w", err)
	}
	if err = insertMany(ctx, tx,
		`INSERT INTO result_samples (result_id, seq, wpm) VALUES (?, ?, ?)`,
		len(res.WPMSamples), func(i int) []any {
			return []any{id, i, res.WPMSamples[i]}
		}); err != nil {
		return 0, fmt.Errorf("failed to insert wpm samples: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, nil
}

func insertMany(ctx context.Context, tx *sql.Tx, query string, n int, args func(int) []any) error {
	if n == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return err
		}
	}
	return nil
}

// ListSessions returns stored results ordered by end time, filtered by cfg.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT id, uuid, user_id, lang, mode, difficulty, ended_at, wpm, accuracy, consistency,
		correct_words, incorrect_words, characters_typed, errors, duration_ms FROM results WHERE 1=1`)
	args, clause := filterArgs(cfg)
	query.WriteString(clause)
	query.WriteString(" ORDER BY ended_at ASC, id ASC")

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer closeRows(rows)

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var mode, difficulty, endedAt string
		if err := rows.Scan(
			&agg.SessionID,
			&agg.UUID,
			&agg.UserID,
			&agg.Lang,
			&mode,
			&difficulty,
			&endedAt,
			&agg.WPM,
			&agg.Accuracy,
			&agg.Consistency,
			&agg.CorrectWords,
			&agg.IncorrectWords,
			&agg.CharactersTyped,
			&agg.Errors,
			&agg.DurationMs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		agg.Mode = model.Mode(mode)
		agg.Difficulty = model.Difficulty(difficulty)
		agg.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ended_at: %w", err)
		}
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	return sessions, nil
}

func filterArgs(cfg model.StatsConfig) ([]any, string) {
	var args []any
	var clause strings.Builder
	if cfg.Lang != "" {
		clause.WriteString(" AND lang = ?")
		args = append(args, cfg.Lang)
	}
	if cfg.Since != nil {
		clause.WriteString(" AND ended_at >= ?")
		args = append(args, cfg.Since.UTC().Format(time.RFC3339Nano))
	}
	return args, clause.String()
}

// LoadResults rebuilds the full stored results for the given ids, in id order.
func (s *Store) LoadResults(ctx context.Context, ids []int64) ([]model.StoredResult, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	in := placeholders(len(ids))
	args := idArgs(ids)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, uuid, user_id, lang, mode, difficulty, text_type, started_at, ended_at, wpm, accuracy,
			consistency, correct_words, incorrect_words, characters_typed, errors, duration_ms
		FROM results WHERE id IN (`+in+`) ORDER BY id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}
	defer closeRows(rows)

	var out []model.StoredResult
	index := make(map[int64]int, len(ids))
	for rows.Next() {
		var sr model.StoredResult
		var mode, difficulty, textType, startedAt, endedAt string
		var durationMs int64
		r := &sr.Results
		if err := rows.Scan(&sr.ID, &r.SessionID, &sr.Context.UserID, &r.Language, &mode, &difficulty, &textType,
			&startedAt, &endedAt, &r.WPM, &r.Accuracy, &r.Consistency, &r.CorrectWords, &r.IncorrectWords,
			&r.CharactersTyped, &r.Errors, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.Mode = model.Mode(mode)
		r.TotalWords = r.CorrectWords + r.IncorrectWords
		r.DurationSeconds = float64(durationMs) / 1000
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		if r.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, fmt.Errorf("failed to parse ended_at: %w", err)
		}
		r.FingerUtilization = map[string]int{}
		sr.Context.Language = r.Language
		sr.Context.Mode = r.Mode
		sr.Context.Difficulty = model.Difficulty(difficulty)
		sr.Context.TextType = model.TextType(textType)
		index[sr.ID] = len(out)
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	if err := s.scanEach(ctx, `SELECT result_id, char, correct, incorrect, latency_sum_ms, latency_count
		FROM result_char_stats WHERE result_id IN (`+in+`) ORDER BY result_id, rowid`, args, func(rows *sql.Rows) error {
		var id int64
		var cs model.CharStats
		if err := rows.Scan(&id, &cs.Char, &cs.Correct, &cs.Incorrect, &cs.LatencySumMs, &cs.LatencyCount); err != nil {
			return err
		}
		r := &out[index[id]].Results
		r.CharStats = append(r.CharStats, cs)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to load char stats: %w", err)
	}
	if err := s.scanEach(ctx, `SELECT result_id, position, expected, actual, ts_ms
		FROM result_mistakes WHERE result_id IN (`+in+`) ORDER BY result_id, seq`, args, func(rows *sql.Rows) error {
		var id int64
		var m model.TypingMistake
		if err := rows.Scan(&id, &m.Position, &m.Expected, &m.Actual, &m.Timestamp); err != nil {
			return err
		}
		r := &out[index[id]].Results
		r.Mistakes = append(r.Mistakes, m)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to load mistakes: %w", err)
	}
	if err := s.scanEach(ctx, `SELECT result_id, finger, count
		FROM result_fingers WHERE result_id IN (`+in+`)`, args, func(rows *sql.Rows) error {
		var id int64
		var finger string
		var count int
		if err := rows.Scan(&id, &finger, &count); err != nil {
			return err
		}
		out[index[id]].Results.FingerUtilization[finger] = count
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to load finger counts: %w", err)
	}
	samples, err := s.ListWPMSamples(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, values := range samples {
		out[index[id]].Results.WPMSamples = values
	}
	return out, nil
}

// ListWPMSamples returns the per-interval WPM samples keyed by result id.
func (s *Store) ListWPMSamples(ctx context.Context, ids []int64) (map[int64][]float64, error) {
	out := make(map[int64][]float64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	err := s.scanEach(ctx, `SELECT result_id, wpm FROM result_samples WHERE result_id IN (`+placeholders(len(ids))+`)
		ORDER BY result_id, seq`, idArgs(ids), func(rows *sql.Rows) error {
		var id int64
		var wpm float64
		if err := rows.Scan(&id, &wpm); err != nil {
			return err
		}
		out[id] = append(out[id], wpm)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list wpm samples: %w", err)
	}
	return out, nil
}

// FingerTotals sums finger utilization across the given results.
func (s *Store) FingerTotals(ctx context.Context, ids []int64) (map[string]int, error) {
	out := map[string]int{}
	if len(ids) == 0 {
		return out, nil
	}
	err := s.scanEach(ctx, `SELECT finger, SUM(count) FROM result_fingers WHERE result_id IN (`+placeholders(len(ids))+`)
		GROUP BY finger`, idArgs(ids), func(rows *sql.Rows) error {
		var finger string
		var count int
		if err := rows.Scan(&finger, &count); err != nil {
			return err
		}
		out[finger] = count
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sum finger counts: %w", err)
	}
	return out, nil
}

func (s *Store) scanEach(ctx context.Context, query string, args []any, fn func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer closeRows(rows)
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func idArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
