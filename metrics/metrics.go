// Package metrics exports training episodes and routes as prometheus metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/zeu5/rl-route-finder/types"
)

const namespace = "route_finder"

// Metrics groups the collectors registered on one registry
type Metrics struct {
	registry *prometheus.Registry

	episodes        *prometheus.CounterVec
	episodeSteps    *prometheus.HistogramVec
	episodeDuration *prometheus.HistogramVec
	episodeReward   *prometheus.HistogramVec
	routes          *prometheus.CounterVec
	routeSteps      prometheus.Histogram
}

// New registers the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		episodes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "episodes_total",
			Help:      "Training episodes by experiment and outcome",
		}, []string{"experiment", "outcome"}),
		episodeSteps: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "episode_steps",
			Help:      "Actions executed per training episode",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"experiment"}),
		episodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "episode_duration_seconds",
			Help:      "Wall time of training episodes",
			Buckets:   prometheus.DefBuckets,
		}, []string{"experiment"}),
		episodeReward: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "episode_reward",
			Help:      "Total reward collected per training episode",
			Buckets:   prometheus.LinearBuckets(-100, 25, 10),
		}, []string{"experiment"}),
		routes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routes_total",
			Help:      "Route searches by outcome",
		}, []string{"outcome"}),
		routeSteps: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_steps",
			Help:      "Steps of the returned routes",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

// Registry to be exposed by the http handler
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observer returns a trainer observer that records every episode under the experiment label
func (m *Metrics) Observer(experiment string) types.Observer {
	return types.ObserverFunc(func(r *types.EpisodeResult) {
		m.episodes.WithLabelValues(experiment, string(r.Outcome)).Inc()
		m.episodeSteps.WithLabelValues(experiment).Observe(float64(r.Trace.Len()))
		m.episodeDuration.WithLabelValues(experiment).Observe(r.Duration.Seconds())
		m.episodeReward.WithLabelValues(experiment).Observe(r.Trace.TotalReward())
	})
}

// ObserveRoute records the result of a route search
func (m *Metrics) ObserveRoute(route *types.Route) {
	if route == nil {
		return
	}
	m.routes.WithLabelValues(string(route.Outcome)).Inc()
	m.routeSteps.Observe(float64(len(route.Steps)))
}
