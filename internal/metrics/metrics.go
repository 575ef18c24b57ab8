package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SourceFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aviflux_source_fetches_total",
			Help: "Total weather source fetch attempts",
		},
		[]string{"kind", "status"},
	)

	FallbackSynthesesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aviflux_fallback_syntheses_total",
			Help: "Total synthetic observations generated after all sources failed",
		},
	)

	AssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aviflux_risk_assessments_total",
			Help: "Total risk assessments by classification",
		},
		[]string{"classification"},
	)

	RouteAnalysesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aviflux_route_analyses_total",
			Help: "Total route weather analyses performed",
		},
	)

	MonitorAlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aviflux_monitor_alerts_total",
			Help: "Total in-flight monitoring alerts raised by severity",
		},
		[]string{"severity"},
	)

	SnapshotLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aviflux_snapshot_latency_seconds",
			Help:    "Latency of building one merged weather snapshot",
			Buckets: prometheus.DefBuckets,
		},
	)
)
