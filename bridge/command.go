package bridge

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Kind is a classified mental command direction.
type Kind string

const (
	Left    Kind = "left"
	Right   Kind = "right"
	Lift    Kind = "lift"
	Push    Kind = "push"
	Pull    Kind = "pull"
	Neutral Kind = "neutral"
)

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrInvalidStrength = errors.New("strength must be within [0, 1]")
)

// Kinds lists every command the classifier can produce, neutral last.
func Kinds() []Kind {
	return []Kind{Left, Right, Lift, Push, Pull, Neutral}
}

// ParseKind maps a classifier label onto a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

// Command is one classification event. It is a value; nothing mutates it
// after construction.
type Command struct {
	Kind      Kind
	Strength  float64
	Timestamp time.Time
}

func NewCommand(kind Kind, strength float64, ts time.Time) (Command, error) {
	if math.IsNaN(strength) || strength < 0 || strength > 1 {
		return Command{}, fmt.Errorf("%w: %v", ErrInvalidStrength, strength)
	}
	return Command{Kind: kind, Strength: strength, Timestamp: ts}, nil
}

// ParseCommand builds a Command from the wire tuple. A zero epochMillis
// leaves the timestamp unset so the dispatcher stamps it at send time.
func ParseCommand(label string, strength float64, epochMillis int64) (Command, error) {
	kind, err := ParseKind(label)
	if err != nil {
		return Command{}, err
	}
	var ts time.Time
	if epochMillis > 0 {
		ts = time.UnixMilli(epochMillis)
	}
	return NewCommand(kind, strength, ts)
}

func (c Command) String() string {
	return fmt.Sprintf("%s (%.2f)", strings.ToUpper(string(c.Kind)), c.Strength)
}
