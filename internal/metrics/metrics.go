// Package metrics provides Prometheus metrics for monitoring transload
// sessions.
//
// The package is organized into logical modules:
//
//   - session.go: session lifecycle (active count, duration, bytes downloaded)
//   - leg.go: per-leg upload throughput, state, stuck/unstuck, idle timeouts
//
// Usage example, recording a completed session:
//
//	metrics.ActiveSessions.Inc()
//	defer metrics.ActiveSessions.Dec()
//	start := time.Now()
//	// ... run session ...
//	metrics.RecordSession(time.Since(start).Seconds())
//	metrics.BytesDownloadedTotal.Add(float64(n))
//
// All metrics are registered with the default Prometheus registry and are
// exposed by internal/progress when EnableMetrics is set, via
// promhttp.Handler().
package metrics
