package stats

import (
	"sort"

	"github.com/verte-zerg/glyphtype/internal/model"
)

// SelectWeakChars picks the top lowest-accuracy characters. Ties go to the
// slower character, then to the lower code point. Spaces never count.
func SelectWeakChars(aggs []model.CharAggregate, top int) map[rune]struct{} {
	weak := map[rune]struct{}{}
	candidates := make([]model.CharAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Char != "" && agg.Char != " " {
			candidates = append(candidates, agg)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		ai, aj := charAccuracy(candidates[i]), charAccuracy(candidates[j])
		if ai != aj {
			return ai < aj
		}
		li, lj := meanLatency(candidates[i]), meanLatency(candidates[j])
		if li != lj {
			return li > lj
		}
		return candidates[i].Char < candidates[j].Char
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	for _, agg := range candidates[:top] {
		weak[[]rune(agg.Char)[0]] = struct{}{}
	}
	return weak
}

func charAccuracy(agg model.CharAggregate) float64 {
	total := agg.Correct + agg.Incorrect
	if total == 0 {
		return 1
	}
	return float64(agg.Correct) / float64(total)
}
