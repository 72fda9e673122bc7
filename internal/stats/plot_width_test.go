package stats

import "testing"

func TestPlotWidthFor(t *testing.T) {
	axis := len(axisTop) + 3
	if got := PlotWidthFor(80); got != 80-axis {
		t.Fatalf("expected width %d, got %d", 80-axis, got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
}
