// Package observability holds the Prometheus collectors shared by the
// generator, the engagement reconciler, issue mirroring and the HTTP API.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generation outcomes.
const (
	OutcomeOK            = "ok"
	OutcomeFallback      = "fallback"
	OutcomeUpstreamError = "upstream_error"
)

// Engagement outcomes.
const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
)

var (
	// generations counts generation requests.
	// Labels: content_type, outcome (ok, fallback, upstream_error)
	generations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devdash",
		Subsystem: "generate",
		Name:      "requests_total",
		Help:      "Generation requests by content type and outcome",
	}, []string{"content_type", "outcome"})

	// generationLatency measures the completion round trip.
	generationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "devdash",
		Subsystem: "generate",
		Name:      "latency_seconds",
		Help:      "Completion latency in seconds",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"content_type"})

	// engagementMutations counts committed vote/save actions.
	// Labels: kind (vote, save), outcome (committed, rolled_back)
	engagementMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devdash",
		Subsystem: "engagement",
		Name:      "mutations_total",
		Help:      "Vote and save mutations by outcome",
	}, []string{"kind", "outcome"})

	// issuesMirrored counts tasks mirrored to GitHub.
	// Labels: link_type (created, referenced), status (success, error)
	issuesMirrored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devdash",
		Subsystem: "issues",
		Name:      "mirrored_total",
		Help:      "Tasks mirrored to GitHub issues",
	}, []string{"link_type", "status"})

	// httpRequests counts API requests.
	// Labels: method, route, code
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devdash",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"method", "route", "code"})
)

// RecordGeneration records one generation request.
func RecordGeneration(contentType, outcome string, d time.Duration) {
	generations.WithLabelValues(contentType, outcome).Inc()
	generationLatency.WithLabelValues(contentType).Observe(d.Seconds())
}

// RecordEngagement records the terminal outcome of one mutation.
func RecordEngagement(kind string, committed bool) {
	outcome := OutcomeCommitted
	if !committed {
		outcome = OutcomeRolledBack
	}
	engagementMutations.WithLabelValues(kind, outcome).Inc()
}

// RecordIssueMirror records one mirrored task.
func RecordIssueMirror(linkType string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	issuesMirrored.WithLabelValues(linkType, status).Inc()
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route, code string) {
	httpRequests.WithLabelValues(method, route, code).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
