package bridge

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nicebartender/bci-bridge/consumer"
)

// Sender writes a command to the consumer.
type Sender interface {
	SendCommand(ctx context.Context, payload consumer.CommandPayload) error
}

// Dispatcher delivers admitted commands and reconciles gate and monitor
// state with the outcome. It never retries.
type Dispatcher struct {
	sender  Sender
	gate    *Gate
	monitor *Monitor
	policy  Policy
}

func NewDispatcher(sender Sender, gate *Gate, monitor *Monitor, policy Policy) *Dispatcher {
	return &Dispatcher{sender: sender, gate: gate, monitor: monitor, policy: policy}
}

// Send clamps the strength, posts the command and returns the outcome.
// A zero command timestamp is replaced by now.
func (d *Dispatcher) Send(ctx context.Context, cmd Command, now time.Time) Result {
	sent := d.policy.Clamp(cmd.Strength)
	ts := cmd.Timestamp
	if ts.IsZero() {
		ts = now
	}
	payload := consumer.CommandPayload{
		Command:   string(cmd.Kind),
		Strength:  sent,
		Timestamp: ts.UnixMilli(),
	}

	if d.policy.CooldownOnAttempt {
		d.gate.Record(cmd.Kind, now)
	}

	// Detached from the caller: only DeliveryTimeout abandons the send.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.policy.DeliveryTimeout)
	err := d.sender.SendCommand(sendCtx, payload)
	cancel()
	if err != nil {
		d.monitor.MarkDown()
		derr := &DeliveryError{Err: err}
		var serr *consumer.StatusError
		if errors.As(err, &serr) {
			derr.StatusCode = serr.Code
		}
		slog.Warn("command delivery failed", "command", cmd.Kind, "err", err)
		return Result{Outcome: OutcomeFailed, Reason: derr, Command: cmd, SentStrength: sent, At: now}
	}

	d.gate.Record(cmd.Kind, now)
	slog.Info("command delivered", "command", cmd.String())
	return Result{Outcome: OutcomeDelivered, Command: cmd, SentStrength: sent, At: now}
}
