package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session metrics track a transload Session end to end: how many are
// running, how long they take, and how many source bytes they've pulled.
// There is no retry tracking (spec: a dead leg is never retried) and no
// per-error-type counter — each category from spec §7 is either fatal
// (returned, not counted) or already visible via a leg's state/timeout
// counters in leg.go.

var (
	// ActiveSessions is the number of Session.Run calls currently in flight.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "transload_active_sessions",
			Help: "Number of transload sessions currently running",
		},
	)

	// SessionDuration tracks wall-clock time from Run start to return, for
	// each Run that returns a result (error returns are not observed).
	SessionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "transload_session_duration_seconds",
			Help:    "Total session duration from start to completion",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to 2048s (~34 min)
		},
	)

	// BytesDownloadedTotal counts bytes read from the source response body,
	// across all sessions in this process.
	BytesDownloadedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transload_bytes_downloaded_total",
			Help: "Total bytes read from source downloads",
		},
	)
)

// RecordSession records the duration of a completed session.
func RecordSession(durationSeconds float64) {
	SessionDuration.Observe(durationSeconds)
}
