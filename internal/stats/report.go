package stats

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/glyphtype/internal/model"
	"github.com/verte-zerg/glyphtype/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions         []model.SessionAggregate
	WindowSessionIDs []int64
	CharAggsAll      []model.CharAggregate
	CharAggsWindow   []model.CharAggregate
	Fingers          map[string]int
	// LatestSamples are the WPM samples of the newest session.
	LatestSamples []float64
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	allIDs := sessionIDs(sessions)
	windowIDs := lastSessionIDs(sessions, cfg.CurveWindow)

	report := Report{Sessions: sessions, WindowSessionIDs: windowIDs}
	if report.CharAggsAll, err = st.ListCharAggregatesForSessions(ctx, allIDs); err != nil {
		return Report{}, err
	}
	if report.CharAggsWindow, err = st.ListCharAggregatesForSessions(ctx, windowIDs); err != nil {
		return Report{}, err
	}
	if report.Fingers, err = st.FingerTotals(ctx, windowIDs); err != nil {
		return Report{}, err
	}
	if len(allIDs) > 0 {
		latest := allIDs[len(allIDs)-1]
		samples, err := st.ListWPMSamples(ctx, []int64{latest})
		if err != nil {
			return Report{}, err
		}
		report.LatestSamples = samples[latest]
	}
	return report, nil
}

// Render writes the plain text report. Curves are drawn for chars, or for the
// most frequent characters when chars is empty.
func (r Report) Render(w io.Writer, perSession map[int64]map[string]model.CharAggregate, chars []string, window int, now time.Time) error {
	if err := RenderSummary(w, r.Sessions, now); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	if len(r.Sessions) == 0 {
		return nil
	}
	if err := RenderSparkline(w, "Last session", r.LatestSamples); err != nil {
		return fmt.Errorf("failed to render sparkline: %w", err)
	}
	if err := RenderCurves(w, r.Sessions, window); err != nil {
		return fmt.Errorf("failed to render curves: %w", err)
	}
	if err := RenderCharTable(w, r.CharAggsWindow); err != nil {
		return fmt.Errorf("failed to render char table: %w", err)
	}
	if err := RenderFingerTable(w, r.Fingers); err != nil {
		return fmt.Errorf("failed to render finger table: %w", err)
	}
	if err := RenderCharCurves(w, r.Sessions, perSession, chars, window); err != nil {
		return fmt.Errorf("failed to render char curves: %w", err)
	}
	return nil
}

func sessionIDs(sessions []model.SessionAggregate) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	return ids
}

func lastSessionIDs(sessions []model.SessionAggregate, window int) []int64 {
	if window <= 0 || len(sessions) <= window {
		return sessionIDs(sessions)
	}
	return sessionIDs(sessions[len(sessions)-window:])
}
