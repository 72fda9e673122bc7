package stats

import (
	"sort"
	"strings"
	"unicode"

	"github.com/verte-zerg/glyphtype/internal/model"
)

// TopCharsByFrequency returns the n most often typed characters, skipping
// spaces. Ties sort by character.
func TopCharsByFrequency(aggs []model.CharAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	type item struct {
		ch    string
		total int
	}
	items := make([]item, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Char == " " {
			continue
		}
		items = append(items, item{
			ch:    agg.Char,
			total: agg.Correct + agg.Incorrect,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].total == items[j].total {
			return items[i].ch < items[j].ch
		}
		return items[i].total > items[j].total
	})
	if n > len(items) {
		n = len(items)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, items[i].ch)
	}
	return out
}

// ParseChars splits a character selection. A comma separated list keeps each
// entry whole; otherwise every non-space rune is its own entry.
func ParseChars(input string) []string {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}
	if strings.Contains(input, ",") {
		parts := strings.Split(input, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	out := make([]string, 0, len(input))
	for _, r := range input {
		if unicode.IsSpace(r) {
			continue
		}
		out = append(out, string(r))
	}
	return out
}
