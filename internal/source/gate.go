package source

import (
	"context"
	"sync"
)

// pauseGate is a level-triggered pause switch: Pump blocks in
// waitWhilePaused for as long as the gate is paused, and wakes either when
// Resume flips the level back or the bound context is cancelled.
type pauseGate struct {
	mu     sync.Mutex
	cond   *sync.Cond
	paused bool
}

func newPauseGate() *pauseGate {
	g := &pauseGate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

func (g *pauseGate) pause() {
	g.mu.Lock()
	g.paused = true
	g.mu.Unlock()
}

// resume is idempotent: an unstuck signal with nothing stalled is not an
// error (spec §4.2: "even one unstuck suffices; producer treats signals
// as level, not edge").
func (g *pauseGate) resume() {
	g.mu.Lock()
	g.paused = false
	g.cond.Broadcast()
	g.mu.Unlock()
}

func (g *pauseGate) waitWhilePaused(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		g.mu.Lock()
		g.cond.Broadcast()
		g.mu.Unlock()
	})
	defer stop()

	g.mu.Lock()
	defer g.mu.Unlock()
	for g.paused {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.cond.Wait()
	}
	return ctx.Err()
}
