package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/verte-zerg/glyphtype/internal/model"
)

// GetWeakChars sums character stats over the newest window results in lang.
// An empty lang covers every language.
func (s *Store) GetWeakChars(ctx context.Context, window int, lang string) ([]model.CharAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	var out []model.CharAggregate
	err := s.scanEach(ctx, `WITH recent AS (
		SELECT id FROM results
		WHERE (? = '' OR lang = ?)
		ORDER BY ended_at DESC, id DESC
		LIMIT ?
	)
	SELECT cs.char, SUM(cs.correct), SUM(cs.incorrect), SUM(cs.latency_sum_ms), SUM(cs.latency_count)
	FROM result_char_stats cs
	JOIN recent r ON r.id = cs.result_id
	GROUP BY cs.char
	ORDER BY cs.char`, []any{lang, lang, window}, func(rows *sql.Rows) error {
		agg, err := scanAggregate(rows)
		if err != nil {
			return err
		}
		out = append(out, agg)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate weak chars: %w", err)
	}
	return out, nil
}

// ListCharAggregatesForSessions sums per-character stats across results.
func (s *Store) ListCharAggregatesForSessions(ctx context.Context, ids []int64) ([]model.CharAggregate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []model.CharAggregate
	err := s.scanEach(ctx, `SELECT char, SUM(correct), SUM(incorrect), SUM(latency_sum_ms), SUM(latency_count)
		FROM result_char_stats
		WHERE result_id IN (`+placeholders(len(ids))+`)
		GROUP BY char
		ORDER BY char`, idArgs(ids), func(rows *sql.Rows) error {
		agg, err := scanAggregate(rows)
		if err != nil {
			return err
		}
		out = append(out, agg)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate char stats: %w", err)
	}
	return out, nil
}

// ListCharStatsForSessions returns per-result stats for the selected characters.
func (s *Store) ListCharStatsForSessions(ctx context.Context, ids []int64, chars []string) (map[int64]map[string]model.CharAggregate, error) {
	out := map[int64]map[string]model.CharAggregate{}
	if len(ids) == 0 || len(chars) == 0 {
		return out, nil
	}
	args := idArgs(ids)
	for _, ch := range chars {
		args = append(args, ch)
	}
	err := s.scanEach(ctx, `SELECT result_id, char, correct, incorrect, latency_sum_ms, latency_count
		FROM result_char_stats
		WHERE result_id IN (`+placeholders(len(ids))+`) AND char IN (`+placeholders(len(chars))+`)`,
		args, func(rows *sql.Rows) error {
			var id int64
			var agg model.CharAggregate
			if err := rows.Scan(&id, &agg.Char, &agg.Correct, &agg.Incorrect, &agg.LatencySumMs, &agg.LatencyCount); err != nil {
				return err
			}
			if out[id] == nil {
				out[id] = map[string]model.CharAggregate{}
			}
			out[id][agg.Char] = agg
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list char stats: %w", err)
	}
	return out, nil
}

func scanAggregate(rows *sql.Rows) (model.CharAggregate, error) {
	var agg model.CharAggregate
	err := rows.Scan(&agg.Char, &agg.Correct, &agg.Incorrect, &agg.LatencySumMs, &agg.LatencyCount)
	return agg, err
}
