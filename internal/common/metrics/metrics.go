package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeIssued       = "issued"
	OutcomeApplied      = "applied"
	OutcomeStale        = "stale"
	OutcomeFailed       = "failed"
	OutcomeShortCircuit = "short_circuit"

	OutcomeStarted  = "started"
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	AutocompleteQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "symptom_autocomplete_queries_total",
			Help: "Autocomplete queries by outcome",
		},
		[]string{"outcome"},
	)

	AnalyzeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "symptom_analyze_requests_total",
			Help: "Analyze requests by outcome",
		},
		[]string{"outcome"},
	)

	AnalyzeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "symptom_analyze_duration_seconds",
			Help: "Duration of analyze round trips in seconds",
		},
		[]string{"outcome"},
	)

	GraphLinksDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "symptom_graph_links_dropped_total",
			Help: "Graph links dropped because an endpoint node was missing",
		},
	)

	SuggestionCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "symptom_suggestion_cache_total",
			Help: "Suggestion cache lookups by result",
		},
		[]string{"result"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "symptom_sessions_active",
			Help: "Number of open symptom sessions",
		},
	)
)
