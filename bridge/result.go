package bridge

import "time"

// Outcome classifies a Result.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
)

// Result is the outcome of offering one command to the bridge.
type Result struct {
	Outcome Outcome
	// Reason is nil when delivered, a policy or ErrConsumerUnreachable error
	// when rejected, and a *DeliveryError when failed.
	Reason       error
	Command      Command
	SentStrength float64
	At           time.Time
}

func (r Result) Delivered() bool { return r.Outcome == OutcomeDelivered }

// Attempted reports whether a network write to the consumer was made.
func (r Result) Attempted() bool {
	return r.Outcome == OutcomeDelivered || r.Outcome == OutcomeFailed
}

func (r Result) ReasonText() string {
	if r.Reason == nil {
		return ""
	}
	return r.Reason.Error()
}

func rejected(cmd Command, at time.Time, reason error) Result {
	return Result{Outcome: OutcomeRejected, Reason: reason, Command: cmd, At: at}
}
