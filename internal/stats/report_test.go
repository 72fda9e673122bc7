package stats

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/glyphtype/internal/model"
	"github.com/verte-zerg/glyphtype/internal/store"
)

func TestBuildReport(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "glyphtype.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Minute)
		res := model.NewTypingResults(model.TypingResults{
			SessionID:         fmt.Sprintf("session-%d", i),
			Language:          "lisu",
			Mode:              model.ModeNormal,
			StartedAt:         start,
			EndedAt:           start.Add(30 * time.Second),
			WPM:               float64(10 + i),
			Accuracy:          90,
			CorrectWords:      5,
			TotalWords:        5,
			DurationSeconds:   30,
			CharactersTyped:   11,
			Errors:            1,
			Consistency:       80,
			FingerUtilization: map[string]int{"left-index": 3},
			WPMSamples:        []float64{float64(i), 12},
			CharStats: []model.CharStats{
				{Char: "ꓐ", Correct: 5},
				{Char: "ꓮ", Correct: 4, Incorrect: 1},
			},
		})
		id, err := st.PersistResult(ctx, res, model.ResultContext{UserID: "tester"})
		if err != nil {
			t.Fatalf("persist result: %v", err)
		}
		ids = append(ids, id)
	}

	report, err := BuildReport(ctx, st, model.StatsConfig{Lang: "lisu", Last: 2, CurveWindow: 1})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(report.Sessions))
	}
	if report.Sessions[0].SessionID != ids[1] || report.Sessions[1].SessionID != ids[2] {
		t.Fatalf("unexpected session ids: %+v", report.Sessions)
	}
	if len(report.WindowSessionIDs) != 1 || report.WindowSessionIDs[0] != ids[2] {
		t.Fatalf("unexpected window ids: %v", report.WindowSessionIDs)
	}
	if len(report.CharAggsAll) != 2 || report.CharAggsAll[1].Incorrect != 2 {
		t.Fatalf("unexpected char aggregates: %+v", report.CharAggsAll)
	}
	if report.Fingers["left-index"] != 3 {
		t.Fatalf("expected window finger totals, got %v", report.Fingers)
	}
	if len(report.LatestSamples) != 2 || report.LatestSamples[0] != 2 {
		t.Fatalf("unexpected latest samples: %v", report.LatestSamples)
	}

	var buf bytes.Buffer
	now := time.Unix(0, 0).Add(3 * time.Hour)
	if err := report.Render(&buf, nil, nil, 1, now); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sessions: 2", "Best WPM: 12.00", "hours ago", "Learning Curves", "ꓮ", "left-index"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report:\n%s", want, out)
		}
	}
}

func TestRenderEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	if err := (Report{}).Render(&buf, nil, nil, 5, time.Now()); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No sessions found." {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
