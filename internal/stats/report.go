package stats

import (
	"context"

	"github.com/verte-zerg/lexiread/internal/model"
	"github.com/verte-zerg/lexiread/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions         []model.SessionAggregate
	WindowSessionIDs []int64
	WordAggsAll      []model.WordAggregate
	WordAggsWindow   []model.WordAggregate
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}

	windowIDs := SessionIDs(sessions)
	if cfg.CurveWindow > 0 && len(sessions) > cfg.CurveWindow {
		windowIDs = windowIDs[len(windowIDs)-cfg.CurveWindow:]
	}
	all, err := st.ListWordAggregatesForSessions(ctx, SessionIDs(sessions))
	if err != nil {
		return Report{}, err
	}
	window, err := st.ListWordAggregatesForSessions(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Sessions:         sessions,
		WindowSessionIDs: windowIDs,
		WordAggsAll:      all,
		WordAggsWindow:   window,
	}, nil
}

// SessionIDs returns the ids of sessions in order.
func SessionIDs(sessions []model.SessionAggregate) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	return ids
}
