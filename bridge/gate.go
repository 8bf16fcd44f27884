package bridge

import (
	"sync"
	"time"
)

// Gate decides whether a classified command may proceed to delivery.
// Admit never mutates; the dispatcher calls Record once a delivery is
// under way.
type Gate struct {
	policy Policy

	mu     sync.Mutex
	last   Kind
	lastAt time.Time
}

func NewGate(policy Policy) *Gate {
	return &Gate{policy: policy}
}

// Admit applies the threshold, neutral and cooldown rules in that order.
// The cooldown comparison is strict: exactly Cooldown after the previous
// admission is allowed through.
func (g *Gate) Admit(cmd Command, now time.Time) error {
	if cmd.Strength < g.policy.Threshold {
		return ErrBelowThreshold
	}
	if cmd.Kind == Neutral {
		return ErrNeutralCommand
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last != "" && cmd.Kind == g.last && now.Sub(g.lastAt) < g.policy.Cooldown {
		return ErrThrottled
	}
	return nil
}

// Record marks kind as the last admitted command at the given instant.
func (g *Gate) Record(kind Kind, at time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = kind
	g.lastAt = at
}

// Last returns the most recently recorded command, if any.
func (g *Gate) Last() (Kind, time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last, g.lastAt, g.last != ""
}
