// Package metrics exposes Prometheus instrumentation for the HTTP API,
// the destination predictors and the saved-preferences store.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeNotFound = "not_found"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Prediction Metrics
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of destination predictions",
		},
		[]string{"variant", "outcome"},
	)

	PredictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prediction_duration_seconds",
			Help:    "Time spent encoding, classifying and enriching one request",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
		[]string{"variant"},
	)

	// IgnoredPreferenceValues counts request values that matched no feature
	// column. A steady rate usually means the client vocabulary drifted from
	// the training data.
	IgnoredPreferenceValues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ignored_preference_values_total",
			Help: "Total number of preference values with no matching feature column",
		},
		[]string{"variant", "category"},
	)

	DestinationInfoLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "destination_info_lookups_total",
			Help: "Destination info enrichments by source (table, fallback, none)",
		},
		[]string{"variant", "source"},
	)

	ModelInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "model_info",
			Help: "Loaded model bundle per variant (always 1)",
		},
		[]string{"variant", "version", "columns", "classes"},
	)

	// History Metrics
	HistoryOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preference_history_operations_total",
			Help: "Saved-preferences store operations",
		},
		[]string{"operation", "outcome"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPrediction records one predictor call
func RecordPrediction(variant string, duration time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	PredictionsTotal.WithLabelValues(variant, outcome).Inc()
	PredictionDuration.WithLabelValues(variant).Observe(duration.Seconds())
}

// RecordIgnoredValues adds n ignored values for a preference category
func RecordIgnoredValues(variant, category string, n int) {
	if n > 0 {
		IgnoredPreferenceValues.WithLabelValues(variant, category).Add(float64(n))
	}
}

// RecordDestinationInfo records where an enrichment record came from
func RecordDestinationInfo(variant, source string) {
	DestinationInfoLookups.WithLabelValues(variant, source).Inc()
}

// SetModelInfo publishes the bundle a variant is serving
func SetModelInfo(variant, version string, columns, classes int) {
	ModelInfo.WithLabelValues(variant, version, strconv.Itoa(columns), strconv.Itoa(classes)).Set(1)
}

// RecordHistoryOperation records a saved-preferences store call
func RecordHistoryOperation(operation, outcome string) {
	HistoryOperations.WithLabelValues(operation, outcome).Inc()
}
