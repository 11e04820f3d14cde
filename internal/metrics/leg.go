package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Leg metrics are all labeled by leg, the upload destination's URL, so an
// operator can tell which destination is slow or stuck without reading
// logs. The vectors are process-wide, so label cardinality grows with the
// number of distinct upload URLs seen by the process; nothing caps it.

var (
	// LegUploadedBytesTotal counts, per leg, the bytes of each upload whose
	// HTTP round trip completed; a failed leg adds nothing.
	LegUploadedBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transload_leg_uploaded_bytes_total",
			Help: "Total bytes uploaded to a leg's destination",
		},
		[]string{"leg"},
	)

	// LegState reports a leg's current state as a gauge: 0 Active, 1
	// Stalled, 2 Done, 3 Dead. Only one value is non-zero at a time per
	// leg in spirit, but Prometheus has no enum type, so callers set this
	// to the numeric state directly.
	LegState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "transload_leg_state",
			Help: "Current leg state: 0=Active 1=Stalled 2=Done 3=Dead",
		},
		[]string{"leg"},
	)

	// LegStuckTotal counts how many times a leg's buffer filled to capacity
	// and the leg transitioned to Stalled.
	LegStuckTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transload_leg_stuck_total",
			Help: "Total times a leg's buffer reached capacity",
		},
		[]string{"leg"},
	)

	// LegUnstuckTotal counts how many times a Stalled leg drained enough to
	// resume and transitioned back to Active.
	LegUnstuckTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transload_leg_unstuck_total",
			Help: "Total times a stalled leg resumed",
		},
		[]string{"leg"},
	)

	// LegIdleTimeoutsTotal counts idle-timeout firings per leg (spec §7
	// category 4), each of which kills that leg.
	LegIdleTimeoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transload_leg_idle_timeouts_total",
			Help: "Total idle-timeout terminations per leg",
		},
		[]string{"leg"},
	)
)

// Leg state values reported through LegState.
const (
	LegStateActive  = 0
	LegStateStalled = 1
	LegStateDone    = 2
	LegStateDead    = 3
)
