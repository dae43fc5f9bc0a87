// Package metrics exposes Prometheus collectors for the proxy.
//
// Labels stay low-cardinality: never put URLs, titles or request IDs in them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EngineRunsTotal counts engine invocations by stage (probe, fetch, info) and outcome.
	EngineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wavepipe_engine_runs_total",
		Help: "Total number of engine invocations, by stage and outcome.",
	}, []string{"stage", "outcome"})

	// EngineRunDuration observes wall time of engine invocations.
	EngineRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wavepipe_engine_run_duration_seconds",
		Help:    "Engine invocation wall time, by stage.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600, 1800},
	}, []string{"stage"})

	// DownloadsTotal counts download requests by format and outcome category.
	DownloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wavepipe_downloads_total",
		Help: "Total number of download requests, by format and outcome.",
	}, []string{"format", "outcome"})

	// InfoRequestsTotal counts metadata requests by outcome and cache result.
	InfoRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wavepipe_info_requests_total",
		Help: "Total number of info requests, by outcome and cache result.",
	}, []string{"outcome", "cache"})

	// BytesStreamedTotal counts payload bytes written to clients.
	BytesStreamedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wavepipe_bytes_streamed_total",
		Help: "Total payload bytes streamed to clients, by format.",
	}, []string{"format"})

	// DownloadsInFlight tracks downloads holding an admission slot.
	DownloadsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wavepipe_downloads_in_flight",
		Help: "Current number of downloads between admission and stream completion.",
	})

	// AdmissionRejectTotal counts requests turned away because all slots were busy.
	AdmissionRejectTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavepipe_admission_reject_total",
		Help: "Total number of downloads rejected by admission control.",
	})

	// WorkspaceDeletionsTotal counts deleted request workspaces.
	WorkspaceDeletionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavepipe_workspace_deletions_total",
		Help: "Total number of request workspaces deleted.",
	})

	// SweepRemovedTotal counts orphaned files removed by the sweeper.
	SweepRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavepipe_sweep_removed_total",
		Help: "Total number of orphaned workspace files removed by the sweeper.",
	})
)

// RecordEngineRun records one engine invocation.
func RecordEngineRun(stage, outcome string, elapsed time.Duration) {
	EngineRunsTotal.WithLabelValues(stage, outcome).Inc()
	EngineRunDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// RecordDownload records the final outcome of a download request.
func RecordDownload(format, outcome string) {
	DownloadsTotal.WithLabelValues(format, outcome).Inc()
}

// RecordInfo records the outcome of an info request. cache is hit, miss or shared.
func RecordInfo(outcome, cache string) {
	InfoRequestsTotal.WithLabelValues(outcome, cache).Inc()
}

// AddBytesStreamed adds n to the streamed byte counter.
func AddBytesStreamed(format string, n int64) {
	if n <= 0 {
		return
	}
	BytesStreamedTotal.WithLabelValues(format).Add(float64(n))
}

// IncDownloadsInFlight marks a download as admitted.
func IncDownloadsInFlight() { DownloadsInFlight.Inc() }

// DecDownloadsInFlight marks a download as finished.
func DecDownloadsInFlight() { DownloadsInFlight.Dec() }

// RecordAdmissionReject counts a busy rejection.
func RecordAdmissionReject() { AdmissionRejectTotal.Inc() }

// RecordWorkspaceDeletion counts one deleted workspace.
func RecordWorkspaceDeletion() { WorkspaceDeletionsTotal.Inc() }

// RecordSweepRemoved counts files removed by a sweep.
func RecordSweepRemoved(n int) {
	if n > 0 {
		SweepRemovedTotal.Add(float64(n))
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
