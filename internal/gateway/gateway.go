// Package gateway models the downstream card processor. The real system has
// none; Simulated stands in for it with a fixed latency and a fixed decline
// rate, both exported as named constants so tests can pin behavior.
package gateway

import (
	"context"
	"math/rand"
	"time"
)

const (
	// DeclineProbability is the chance a charge is rejected. Design-time
	// constant, independent of any submission data.
	DeclineProbability = 0.10

	// ProcessingDelay approximates gateway round-trip latency. The exact
	// value is not a correctness contract.
	ProcessingDelay = 1500 * time.Millisecond
)

// Result is the outcome of a charge attempt. A decline is a normal business
// outcome, not an error.
type Result struct {
	Approved bool
	Reason   string
}

// Provider is the charge seam the payment pipeline depends on.
type Provider interface {
	Charge(ctx context.Context, transactionID, amount string) (Result, error)
}

// Simulated draws a single random outcome per charge after sleeping for
// Latency. Once a charge starts it runs to completion; the context is
// accepted for interface symmetry but does not abort the delay. The zero
// value charges instantly and always approves.
type Simulated struct {
	Latency     time.Duration
	DeclineRate float64

	roll func() float64
}

// NewSimulated returns a provider with the production constants wired in.
func NewSimulated() *Simulated {
	return &Simulated{
		Latency:     ProcessingDelay,
		DeclineRate: DeclineProbability,
		roll:        rand.Float64,
	}
}

func (s *Simulated) Charge(ctx context.Context, transactionID, amount string) (Result, error) {
	if s.Latency > 0 {
		time.Sleep(s.Latency)
	}
	roll := s.roll
	if roll == nil {
		roll = rand.Float64
	}
	if roll() < s.DeclineRate {
		return Result{Approved: false, Reason: "card_declined"}, nil
	}
	return Result{Approved: true}, nil
}
