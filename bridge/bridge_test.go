package bridge

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nicebartender/bci-bridge/consumer"
)

type memRecorder struct {
	mu      sync.Mutex
	results []Result
}

func (r *memRecorder) RecordDispatch(ctx context.Context, res Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	return nil
}

func TestScenarioCooldown(t *testing.T) {
	clock := newFakeClock()
	fc := &fakeConsumer{}
	b := New(fc, DefaultPolicy(), WithClock(clock))
	ctx := context.Background()

	if res := b.Submit(ctx, mustCommand(t, Left, 0.8)); !res.Delivered() {
		t.Fatalf("t=0: outcome = %s (%v), want delivered", res.Outcome, res.Reason)
	}
	clock.Advance(50 * time.Millisecond)
	if res := b.Submit(ctx, mustCommand(t, Left, 0.8)); !errors.Is(res.Reason, ErrThrottled) {
		t.Fatalf("t=50ms: reason = %v, want ErrThrottled", res.Reason)
	}
	clock.Advance(200 * time.Millisecond)
	if res := b.Submit(ctx, mustCommand(t, Left, 0.8)); !res.Delivered() {
		t.Fatalf("t=250ms: outcome = %s (%v), want delivered", res.Outcome, res.Reason)
	}
	if got := len(fc.sentPayloads()); got != 2 {
		t.Errorf("deliveries = %d, want 2", got)
	}
}

func TestScenarioBelowThresholdTouchesNothing(t *testing.T) {
	clock := newFakeClock()
	fc := &fakeConsumer{}
	rec := &memRecorder{}
	b := New(fc, DefaultPolicy(), WithClock(clock), WithRecorder(rec))

	res := b.Submit(context.Background(), mustCommand(t, Push, 0.2))
	if res.Outcome != OutcomeRejected || !errors.Is(res.Reason, ErrBelowThreshold) {
		t.Fatalf("result = %s %v, want rejected below threshold", res.Outcome, res.Reason)
	}
	if fc.probeCount() != 0 || len(fc.sentPayloads()) != 0 {
		t.Error("no network call expected")
	}
	st := b.Status()
	if st.LastCommand != "" || !st.LastCheckedAt.IsZero() {
		t.Errorf("state changed: %+v", st)
	}
	if len(rec.results) != 0 {
		t.Errorf("policy rejection should not be recorded")
	}
}

func TestScenarioConsumerUnreachable(t *testing.T) {
	clock := newFakeClock()
	fc := &fakeConsumer{statusErr: errRefused}
	rec := &memRecorder{}
	b := New(fc, DefaultPolicy(), WithClock(clock), WithRecorder(rec))

	res := b.Submit(context.Background(), mustCommand(t, Lift, 0.9))
	if !errors.Is(res.Reason, ErrConsumerUnreachable) {
		t.Fatalf("reason = %v, want ErrConsumerUnreachable", res.Reason)
	}
	if len(fc.sentPayloads()) != 0 {
		t.Error("no delivery expected while consumer is down")
	}
	if _, _, ok := b.gate.Last(); ok {
		t.Error("unreachable rejection must not record gate state")
	}
	if len(rec.results) != 1 {
		t.Errorf("recorded %d results, want 1", len(rec.results))
	}
}

func TestScenarioNeutral(t *testing.T) {
	b := New(&fakeConsumer{}, DefaultPolicy(), WithClock(newFakeClock()))
	res := b.Submit(context.Background(), mustCommand(t, Neutral, 0.99))
	if !errors.Is(res.Reason, ErrNeutralCommand) {
		t.Fatalf("reason = %v, want ErrNeutralCommand", res.Reason)
	}
}

func TestSubmitFailureThenRecovery(t *testing.T) {
	clock := newFakeClock()
	fc := &fakeConsumer{}
	var observed []Outcome
	b := New(fc, DefaultPolicy(), WithClock(clock), WithObserver(func(r Result) {
		observed = append(observed, r.Outcome)
	}))
	ctx := context.Background()

	fc.setSendErr(errRefused)
	if res := b.Submit(ctx, mustCommand(t, Push, 0.9)); res.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %s, want failed", res.Outcome)
	}

	// Same command inside the cooldown is still throttled: the failed
	// attempt consumed the slot.
	clock.Advance(100 * time.Millisecond)
	if res := b.Submit(ctx, mustCommand(t, Push, 0.9)); !errors.Is(res.Reason, ErrThrottled) {
		t.Fatalf("reason = %v, want ErrThrottled", res.Reason)
	}

	fc.setSendErr(nil)
	clock.Advance(150 * time.Millisecond)
	if res := b.Submit(ctx, mustCommand(t, Push, 0.9)); !res.Delivered() {
		t.Fatalf("outcome = %s (%v), want delivered", res.Outcome, res.Reason)
	}
	if got := fc.probeCount(); got != 2 {
		t.Errorf("probes = %d, want 2 (fresh probe after failure)", got)
	}
	if len(observed) != 2 || observed[0] != OutcomeFailed || observed[1] != OutcomeDelivered {
		t.Errorf("observed = %v", observed)
	}
}

func TestTickRespectsPollInterval(t *testing.T) {
	clock := newFakeClock()
	fc := &fakeConsumer{}
	b := New(fc, DefaultPolicy(), WithClock(clock))
	ctx := context.Background()

	b.Tick(ctx)
	b.Tick(ctx)
	clock.Advance(5 * time.Second)
	b.Tick(ctx)
	if got := fc.probeCount(); got != 2 {
		t.Errorf("probes = %d, want 2", got)
	}
	if !b.Status().ConsumerAlive {
		t.Error("status should report alive")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	fc := &fakeConsumer{}
	b := New(fc, DefaultPolicy())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		b.Run(ctx, time.Hour)
		close(done)
	}()
	deadline := time.Now().Add(time.Second)
	for fc.probeCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if fc.probeCount() != 1 {
		t.Errorf("probes = %d, want immediate check", fc.probeCount())
	}
}

func TestBridgeOverHTTP(t *testing.T) {
	mock := consumer.NewMock()
	srv := httptest.NewServer(mock)
	defer srv.Close()

	clock := newFakeClock()
	b := NewHTTP(srv.URL, DefaultPolicy(), WithClock(clock))
	ctx := context.Background()

	if res := b.Submit(ctx, mustCommand(t, Left, 0.8)); !res.Delivered() {
		t.Fatalf("outcome = %s (%v)", res.Outcome, res.Reason)
	}
	got := mock.Received()
	if len(got) != 1 || got[0].Command != "left" || got[0].Strength != 0.8 {
		t.Fatalf("received = %+v", got)
	}
	if got[0].Timestamp != clock.Now().UnixMilli() {
		t.Errorf("timestamp = %d, want %d", got[0].Timestamp, clock.Now().UnixMilli())
	}

	mock.SetDown(true)
	clock.Advance(time.Second)
	res := b.Submit(ctx, mustCommand(t, Right, 0.8))
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %s, want failed", res.Outcome)
	}
	var derr *DeliveryError
	if !errors.As(res.Reason, &derr) || derr.StatusCode != 503 {
		t.Errorf("reason = %v, want 503 delivery error", res.Reason)
	}

	clock.Advance(time.Second)
	res = b.Submit(ctx, mustCommand(t, Pull, 0.8))
	if !errors.Is(res.Reason, ErrConsumerUnreachable) {
		t.Fatalf("reason = %v, want ErrConsumerUnreachable", res.Reason)
	}
	if mock.CommandHits() != 2 {
		t.Errorf("command hits = %d, want 2", mock.CommandHits())
	}
}

// ctxConsumer only fails when the context it is handed is done.
type ctxConsumer struct {
	mu     sync.Mutex
	probes int
	sent   int
}

func (c *ctxConsumer) Status(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes++
	return ctx.Err()
}

func (c *ctxConsumer) SendCommand(ctx context.Context, p consumer.CommandPayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent++
	return ctx.Err()
}

func TestCancelledCallerDoesNotMarkConsumerDown(t *testing.T) {
	clock := newFakeClock()
	cc := &ctxConsumer{}
	b := New(cc, DefaultPolicy(), WithClock(clock))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if res := b.Submit(cancelled, mustCommand(t, Lift, 0.9)); !res.Delivered() {
		t.Fatalf("cancelled caller: outcome = %s (%v), want delivered", res.Outcome, res.Reason)
	}

	clock.Advance(time.Second)
	res := b.Submit(context.Background(), mustCommand(t, Left, 0.9))
	if !res.Delivered() {
		t.Fatalf("next caller: outcome = %s (%v), want delivered", res.Outcome, res.Reason)
	}
	if !b.Status().ConsumerAlive {
		t.Error("consumer should still be alive")
	}
	if cc.probes != 1 || cc.sent != 2 {
		t.Errorf("probes = %d, sent = %d, want 1 and 2", cc.probes, cc.sent)
	}
}
