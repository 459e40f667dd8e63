package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/noah-isme/sfp-api/internal/models"
)

// PaymentGateway decides the outcome of a charge. There is no real gateway
// behind this system; adapters simulate one. A real integration would slot
// in behind the same interface.
type PaymentGateway interface {
	Charge(ctx context.Context, studentID, category string, amount float64) models.PaymentStatus
}

// SimulatedGateway approves charges with a configured probability.
type SimulatedGateway struct {
	successRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedGateway constructs a simulated gateway. successRate is clamped
// to (0, 1].
func NewSimulatedGateway(successRate float64) *SimulatedGateway {
	if successRate <= 0 || successRate > 1 {
		successRate = 0.5
	}
	return &SimulatedGateway{
		successRate: successRate,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Charge draws the outcome at random.
func (g *SimulatedGateway) Charge(ctx context.Context, studentID, category string, amount float64) models.PaymentStatus {
	g.mu.Lock()
	draw := g.rng.Float64()
	g.mu.Unlock()

	if draw < g.successRate {
		return models.PaymentSuccess
	}
	return models.PaymentFailed
}

// FixedGateway always returns the configured outcome. Used in tests.
type FixedGateway struct {
	Outcome models.PaymentStatus
}

// Charge returns the fixed outcome.
func (g *FixedGateway) Charge(ctx context.Context, studentID, category string, amount float64) models.PaymentStatus {
	return g.Outcome
}
