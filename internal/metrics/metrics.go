// Package metrics declares the Prometheus collectors for the recommendation pipeline
// and the HTTP layer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recommendation variants
const (
	VariantAll   = "all"
	VariantGenre = "genre"
)

// Scoring failure reasons
const (
	ReasonError   = "error"
	ReasonTimeout = "timeout"
	ReasonInvalid = "invalid_estimate"
)

var (
	// Pipeline Metrics
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_recommendations_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"variant", "outcome"}, // outcome: "ok", "error"
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movierec_recommendation_duration_seconds",
			Help:    "End-to-end recommendation latency (candidates, ranking, hydration)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"variant"},
	)

	Candidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movierec_candidates",
			Help:    "Number of unrated candidate movies scored per request",
			Buckets: []float64{0, 10, 50, 100, 250, 500, 1000, 1700, 5000},
		},
		[]string{"variant"},
	)

	ScoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "movierec_score_duration_seconds",
			Help:    "Latency of a single scorer call",
			Buckets: []float64{.00001, .0001, .001, .01, .1, 1},
		},
	)

	ScoringFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_scoring_failures_total",
			Help: "Total number of scorer calls that aborted a ranking",
		},
		[]string{"reason"},
	)

	HydrationMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movierec_hydration_misses_total",
			Help: "Ranked movies omitted because they disappeared before hydration",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movierec_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movierec_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordRecommendation records the outcome and latency of one Recommend call
func RecordRecommendation(variant string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	RecommendationsTotal.WithLabelValues(variant, outcome).Inc()
	RecommendationDuration.WithLabelValues(variant).Observe(duration.Seconds())
}

// RecordCandidates records the size of a candidate set
func RecordCandidates(variant string, n int) {
	Candidates.WithLabelValues(variant).Observe(float64(n))
}

// RecordScore records the latency of one scorer call
func RecordScore(duration time.Duration) {
	ScoreDuration.Observe(duration.Seconds())
}

// RecordScoringFailure counts a failed scorer call by reason
func RecordScoringFailure(reason string) {
	ScoringFailures.WithLabelValues(reason).Inc()
}

// RecordHydrationMiss counts a ranked movie dropped at hydration
func RecordHydrationMiss() {
	HydrationMisses.Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
