package bridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nicebartender/bci-bridge/consumer"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errRefused = errors.New("connection refused")

type fakeConsumer struct {
	mu        sync.Mutex
	statusErr error
	sendErr   error
	probes    int
	sent      []consumer.CommandPayload
}

func (f *fakeConsumer) Status(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	return f.statusErr
}

func (f *fakeConsumer) SendCommand(ctx context.Context, p consumer.CommandPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, p)
	return f.sendErr
}

func (f *fakeConsumer) setStatusErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusErr = err
}

func (f *fakeConsumer) setSendErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = err
}

func (f *fakeConsumer) probeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probes
}

func (f *fakeConsumer) sentPayloads() []consumer.CommandPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]consumer.CommandPayload(nil), f.sent...)
}

func mustCommand(t interface{ Fatalf(string, ...any) }, kind Kind, strength float64) Command {
	cmd, err := NewCommand(kind, strength, time.Time{})
	if err != nil {
		t.Fatalf("NewCommand(%s, %v): %v", kind, strength, err)
	}
	return cmd
}
