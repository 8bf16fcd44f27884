package bridge

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Prober checks whether the consumer is reachable.
type Prober interface {
	Status(ctx context.Context) error
}

// Monitor caches the consumer's liveness for one poll interval. probeMu is
// held for the whole probe, so concurrent callers wait for the in-flight
// result instead of starting their own. mu guards only the cached state and
// is never held across the network call.
type Monitor struct {
	prober   Prober
	clock    Clock
	interval time.Duration
	timeout  time.Duration

	probeMu sync.Mutex

	mu        sync.Mutex
	alive     bool
	checkedAt time.Time
	probes    int
}

func NewMonitor(prober Prober, clock Clock, policy Policy) *Monitor {
	return &Monitor{
		prober:   prober,
		clock:    clock,
		interval: policy.PollInterval,
		timeout:  policy.ProbeTimeout,
	}
}

// IsAlive returns the cached answer while it is fresh and probes otherwise.
// Probe failures collapse to false; they are never returned as errors.
func (m *Monitor) IsAlive(ctx context.Context) bool {
	m.probeMu.Lock()
	defer m.probeMu.Unlock()

	now := m.clock.Now()
	if alive, fresh := m.cachedAt(now); fresh {
		return alive
	}

	// Only the probe's own timeout counts against the consumer; a caller
	// that goes away mid-probe must not mark it down for everyone.
	probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	err := m.prober.Status(probeCtx)
	cancel()

	alive := err == nil
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes++
	if alive != m.alive {
		if alive {
			slog.Info("consumer connected")
		} else {
			slog.Info("consumer disconnected", "err", err)
		}
	} else if err != nil {
		slog.Debug("consumer probe failed", "err", err)
	}
	m.alive = alive
	m.checkedAt = now
	return alive
}

func (m *Monitor) cachedAt(now time.Time) (alive, fresh bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.checkedAt.IsZero() && now.Sub(m.checkedAt) < m.interval {
		return m.alive, true
	}
	return false, false
}

// MarkDown drops the cached state so the next IsAlive probes immediately.
func (m *Monitor) MarkDown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.alive {
		slog.Info("consumer marked down after failed delivery")
	}
	m.alive = false
	m.checkedAt = time.Time{}
}

// Cached returns the last known state without probing.
func (m *Monitor) Cached() (alive bool, checkedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alive, m.checkedAt
}

// Probes reports how many probes have been issued.
func (m *Monitor) Probes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probes
}
