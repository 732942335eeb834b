package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/zeu5/rl-route-finder/types"
)

func TestObserverCountsEpisodes(t *testing.T) {
	m := New()
	observer := m.Observer("qlearning")

	trace := types.NewTrace()
	trace.Append(types.StringState("a"), nil, types.StringState("b"), -1)
	observer.ObserveEpisode(&types.EpisodeResult{Outcome: types.GoalReached, Trace: trace, Duration: time.Millisecond})
	observer.ObserveEpisode(&types.EpisodeResult{Outcome: types.LimitExceeded, Trace: trace})
	observer.ObserveEpisode(&types.EpisodeResult{Outcome: types.GoalReached, Trace: types.NewTrace()})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.episodes.WithLabelValues("qlearning", "goal_reached")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.episodes.WithLabelValues("qlearning", "limit_exceeded")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.episodeSteps))
}

func TestObserveRoute(t *testing.T) {
	m := New()
	m.ObserveRoute(nil)
	m.ObserveRoute(&types.Route{Outcome: types.DeadEnd})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.routes.WithLabelValues("dead_end")))

	families, err := m.Registry().Gather()
	assert.NoError(t, err)
	names := make([]string, 0)
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "route_finder_routes_total")
	assert.Contains(t, names, "route_finder_route_steps")
}
