package bridge

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nicebartender/bci-bridge/consumer"
)

// Consumer is the downstream process as seen by the bridge.
type Consumer interface {
	Prober
	Sender
}

// Recorder persists results that touched the consumer.
type Recorder interface {
	RecordDispatch(ctx context.Context, res Result) error
}

// Observer is notified of every result the Recorder would see.
type Observer func(Result)

// Bridge runs classified commands through the gate, the liveness check and
// the dispatcher. Submit calls are serialized; commands are handled in the
// order they arrive and are never queued or reordered.
type Bridge struct {
	mu         sync.Mutex
	clock      Clock
	policy     Policy
	gate       *Gate
	monitor    *Monitor
	dispatcher *Dispatcher

	recorder  Recorder
	observers []Observer
}

type Option func(*Bridge)

func WithClock(c Clock) Option {
	return func(b *Bridge) { b.clock = c }
}

func WithRecorder(r Recorder) Option {
	return func(b *Bridge) { b.recorder = r }
}

func WithObserver(o Observer) Option {
	return func(b *Bridge) { b.observers = append(b.observers, o) }
}

func New(c Consumer, policy Policy, opts ...Option) *Bridge {
	b := &Bridge{clock: SystemClock, policy: policy}
	for _, opt := range opts {
		opt(b)
	}
	b.gate = NewGate(policy)
	b.monitor = NewMonitor(c, b.clock, policy)
	b.dispatcher = NewDispatcher(c, b.gate, b.monitor, policy)
	return b
}

// NewHTTP builds a bridge that talks to the consumer at baseURL.
func NewHTTP(baseURL string, policy Policy, opts ...Option) *Bridge {
	return New(consumer.NewClient(baseURL), policy, opts...)
}

func (b *Bridge) Policy() Policy { return b.policy }

// Submit offers one classified command. It never returns an error: policy
// rejections and consumer problems are reported in the Result.
func (b *Bridge) Submit(ctx context.Context, cmd Command) Result {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	if err := b.gate.Admit(cmd, now); err != nil {
		if err == ErrThrottled {
			slog.Debug("command throttled", "command", cmd.Kind)
		} else {
			slog.Debug("command rejected", "command", cmd.Kind, "strength", cmd.Strength, "reason", err)
		}
		return rejected(cmd, now, err)
	}

	if !b.monitor.IsAlive(ctx) {
		slog.Debug("command dropped, consumer unavailable", "command", cmd.Kind)
		res := rejected(cmd, now, ErrConsumerUnreachable)
		b.publish(ctx, res)
		return res
	}

	res := b.dispatcher.Send(ctx, cmd, now)
	b.publish(ctx, res)
	return res
}

func (b *Bridge) publish(ctx context.Context, res Result) {
	if b.recorder != nil {
		if err := b.recorder.RecordDispatch(ctx, res); err != nil {
			slog.Warn("record dispatch failed", "err", err)
		}
	}
	for _, o := range b.observers {
		o(res)
	}
}

// Tick refreshes the liveness cache if it has gone stale and returns the
// current state. It is safe to call from a timer alongside Submit.
func (b *Bridge) Tick(ctx context.Context) bool {
	return b.monitor.IsAlive(ctx)
}

// Run checks liveness immediately and then every interval until ctx is done.
func (b *Bridge) Run(ctx context.Context, every time.Duration) {
	b.Tick(ctx)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Tick(ctx)
		}
	}
}

// Status is a point-in-time view of the bridge state.
type Status struct {
	ConsumerAlive bool      `json:"consumerAlive"`
	LastCheckedAt time.Time `json:"lastCheckedAt"`
	LastCommand   Kind      `json:"lastCommand,omitempty"`
	LastCommandAt time.Time `json:"lastCommandAt"`
	Probes        int       `json:"probes"`
}

func (b *Bridge) Status() Status {
	alive, checked := b.monitor.Cached()
	last, lastAt, _ := b.gate.Last()
	return Status{
		ConsumerAlive: alive,
		LastCheckedAt: checked,
		LastCommand:   last,
		LastCommandAt: lastAt,
		Probes:        b.monitor.Probes(),
	}
}
