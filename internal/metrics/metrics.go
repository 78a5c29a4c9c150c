package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns the engine's prometheus collectors. A nil *Recorder is valid
// and records nothing, so tests and optional wiring can pass nil.
type Recorder struct {
	reg *prometheus.Registry

	matchesStarted *prometheus.CounterVec
	matchesEnded   *prometheus.CounterVec
	turnsResolved  prometheus.Counter
	turnTimeouts   prometheus.Counter
	defaultActions prometheus.Counter
	resolveLatency prometheus.Histogram
	queueDepth     *prometheus.GaugeVec
	spectators     prometheus.Gauge
	activeMatches  prometheus.Gauge
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		matchesStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moba_matches_started_total",
			Help: "Matches created by the queue.",
		}, []string{"type"}),
		matchesEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moba_matches_ended_total",
			Help: "Matches that reached ENDED.",
		}, []string{"type", "reason"}),
		turnsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moba_turns_resolved_total",
			Help: "Turns resolved across all matches.",
		}),
		turnTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moba_turn_timeouts_total",
			Help: "Turns resolved because the deadline passed.",
		}),
		defaultActions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moba_default_actions_total",
			Help: "Combatant actions filled with the position default.",
		}),
		resolveLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "moba_resolve_duration_seconds",
			Help:    "Time spent inside the action resolver.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "moba_queue_depth",
			Help: "Tickets waiting per match type.",
		}, []string{"type"}),
		spectators: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "moba_spectators",
			Help: "Currently attached spectators.",
		}),
		activeMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "moba_active_matches",
			Help: "Sessions currently running.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.matchesStarted, r.matchesEnded,
		r.turnsResolved, r.turnTimeouts, r.defaultActions, r.resolveLatency,
		r.queueDepth, r.spectators, r.activeMatches,
		r.httpRequests, r.httpLatency,
	)
	return r
}

// Handler serves the registry in the prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

func (r *Recorder) MatchStarted(matchType string) {
	if r == nil {
		return
	}
	r.matchesStarted.WithLabelValues(matchType).Inc()
	r.activeMatches.Inc()
}

func (r *Recorder) MatchEnded(matchType, reason string) {
	if r == nil {
		return
	}
	r.matchesEnded.WithLabelValues(matchType, reason).Inc()
	r.activeMatches.Dec()
}

// TurnResolved records one resolution. timedOut is true when the deadline,
// not both submissions, triggered it.
func (r *Recorder) TurnResolved(d time.Duration, defaults int, timedOut bool) {
	if r == nil {
		return
	}
	r.turnsResolved.Inc()
	r.resolveLatency.Observe(d.Seconds())
	r.defaultActions.Add(float64(defaults))
	if timedOut {
		r.turnTimeouts.Inc()
	}
}

func (r *Recorder) QueueDepth(matchType string, n int) {
	if r == nil {
		return
	}
	r.queueDepth.WithLabelValues(matchType).Set(float64(n))
}

func (r *Recorder) SpectatorsChanged(delta int) {
	if r == nil {
		return
	}
	r.spectators.Add(float64(delta))
}

func (r *Recorder) HTTPRequest(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}
