// Package coordinator implements the Fanout Coordinator (spec §4.2,
// component C2): it owns the set of Legs, broadcasts each downloaded
// chunk to every live one in source order, and turns per-Leg backpressure
// into stuck/unstuck/unusable signals for the Source Reader.
package coordinator

import (
	"sync"

	"go.uber.org/zap"

	"github.com/zulfikawr/transload/internal/leg"
	"github.com/zulfikawr/transload/internal/logging"
)

// Signals is implemented by the Source Reader to receive the
// Coordinator's level-triggered backpressure events.
type Signals interface {
	// Pause is called when at least one Leg cannot accept more without
	// growing memory.
	Pause()
	// Resume is called when no Leg is Stalled anymore.
	Resume()
	// Unusable is called when every Leg has died.
	Unusable()
}

// Coordinator fans a byte stream out to every live Leg.
type Coordinator struct {
	legs    []*leg.Leg
	signals Signals
	logger  *zap.Logger

	mu      sync.Mutex
	stalled map[int]bool
}

// New builds a Coordinator over legs, reporting backpressure transitions
// to signals.
func New(legs []*leg.Leg, signals Signals, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		legs:    legs,
		signals: signals,
		logger:  logging.Pick(logger),
		stalled: make(map[int]bool),
	}
}

// SetLegs binds the Leg set once all Legs are constructed — Legs need a
// reference to this Coordinator as their SignalSink before the
// Coordinator itself can be handed a final legs slice.
func (c *Coordinator) SetLegs(legs []*leg.Leg) {
	c.legs = legs
}

// SetSize forwards the declared content length to every Leg.
func (c *Coordinator) SetSize(contentLength uint64) {
	for _, l := range c.legs {
		l.SetSize(contentLength)
	}
}

// SetFilename forwards the session-derived filename to every Leg.
func (c *Coordinator) SetFilename(name string) {
	for _, l := range c.legs {
		l.SetFilename(name)
	}
}

// Broadcast delivers chunk to every live Leg, in input order, without
// reordering or coalescing (spec §4.2's ordering guarantee). A Leg whose
// write overflows its buffer reports Stuck itself, through the Leg's own
// SignalSink callback — Broadcast does not need to check the return
// value, since the Leg already notified the Coordinator synchronously.
func (c *Coordinator) Broadcast(chunk []byte) {
	for _, l := range c.legs {
		if !l.IsAlive() {
			continue
		}
		l.Write(chunk)
	}
}

// FinalizeAll finalizes every live Leg (clean end-of-stream).
func (c *Coordinator) FinalizeAll() {
	for _, l := range c.legs {
		if l.IsAlive() {
			l.Finalize()
		}
	}
}

// AbortAll aborts every Leg with err (source-side failure).
func (c *Coordinator) AbortAll(err error) {
	for _, l := range c.legs {
		l.Abort(err)
	}
}

// AllDead reports whether every Leg has terminated.
func (c *Coordinator) AllDead() bool {
	for _, l := range c.legs {
		if l.IsAlive() {
			return false
		}
	}
	return true
}

// Stuck implements leg.SignalSink: called the moment a Leg's buffer
// overflows into Stalled.
func (c *Coordinator) Stuck(idx int) {
	c.mu.Lock()
	wasEmpty := len(c.stalled) == 0
	c.stalled[idx] = true
	c.mu.Unlock()

	if wasEmpty {
		c.signals.Pause()
	}
}

// Unstuck implements leg.SignalSink: called when a Leg's buffer drains
// back to Active. Also used defensively by LegDone for a Leg that died
// while Stalled, so the producer is never left paused on a dead Leg.
func (c *Coordinator) Unstuck(idx int) {
	c.mu.Lock()
	delete(c.stalled, idx)
	empty := len(c.stalled) == 0
	c.mu.Unlock()

	if empty {
		c.signals.Resume()
	}
}

// LegDone handles a Leg's run() settling with err (spec §4.2: "on every
// run() rejection from a Leg"). A successful settle (err == nil) needs no
// handling here — the Leg's own state transition already recorded it.
func (c *Coordinator) LegDone(idx int, err error) {
	if err == nil {
		return
	}
	if c.AllDead() {
		c.signals.Unusable()
		return
	}
	c.Unstuck(idx)
}
