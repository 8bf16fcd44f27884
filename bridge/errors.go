package bridge

import (
	"errors"
	"fmt"
)

// Policy rejections. These are expected and frequent.
var (
	ErrBelowThreshold = errors.New("below strength threshold")
	ErrNeutralCommand = errors.New("neutral command")
	ErrThrottled      = errors.New("throttled")
)

// Environment conditions.
var (
	ErrConsumerUnreachable = errors.New("consumer unreachable")
	ErrDeliveryFailed      = errors.New("delivery failed")
)

// DeliveryError describes a failed POST to the consumer. StatusCode is zero
// when no response was received.
type DeliveryError struct {
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("delivery failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) Is(target error) bool { return target == ErrDeliveryFailed }

// IsPolicyRejection reports whether err is one of the gate's own rejections
// rather than an environment problem.
func IsPolicyRejection(err error) bool {
	return errors.Is(err, ErrBelowThreshold) ||
		errors.Is(err, ErrNeutralCommand) ||
		errors.Is(err, ErrThrottled)
}
