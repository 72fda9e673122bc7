package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// formatTable pads columns to their widest cell in terminal cells, so
// Myanmar marks and wide runes line up.
func formatTable(headers []string, rows [][]string, rightAlign map[int]bool) []string {
	cols := len(headers)
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return nil
	}
	widths := make([]int, cols)
	measure := func(row []string) {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlign))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlign))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlign map[int]bool) string {
	cells := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		pad := strings.Repeat(" ", max(0, width-runewidth.StringWidth(cell)))
		if rightAlign[i] {
			cells[i] = pad + cell
		} else {
			cells[i] = cell + pad
		}
	}
	return strings.Join(cells, " ")
}
