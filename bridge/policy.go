package bridge

import (
	"fmt"
	"time"
)

// Policy holds the admission and health-check tunables.
type Policy struct {
	Threshold       float64
	Cooldown        time.Duration
	PollInterval    time.Duration
	ProbeTimeout    time.Duration
	DeliveryTimeout time.Duration

	// CooldownOnAttempt records the cooldown slot when a delivery is
	// attempted rather than when it is acknowledged, so a failed send
	// still throttles a repeat of the same command.
	CooldownOnAttempt bool
}

func DefaultPolicy() Policy {
	return Policy{
		Threshold:         0.4,
		Cooldown:          200 * time.Millisecond,
		PollInterval:      5 * time.Second,
		ProbeTimeout:      2 * time.Second,
		DeliveryTimeout:   2 * time.Second,
		CooldownOnAttempt: true,
	}
}

func (p Policy) Validate() error {
	if p.Threshold < 0 || p.Threshold > 1 {
		return fmt.Errorf("threshold %v outside [0, 1]", p.Threshold)
	}
	if p.Cooldown < 0 {
		return fmt.Errorf("cooldown must not be negative, got %s", p.Cooldown)
	}
	checks := []struct {
		name string
		d    time.Duration
	}{
		{"poll interval", p.PollInterval},
		{"probe timeout", p.ProbeTimeout},
		{"delivery timeout", p.DeliveryTimeout},
	}
	for _, c := range checks {
		if c.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", c.name, c.d)
		}
	}
	return nil
}

// Clamp raises strength to the threshold. Values already above it pass
// through unchanged.
func (p Policy) Clamp(strength float64) float64 {
	if strength < p.Threshold {
		return p.Threshold
	}
	return strength
}
