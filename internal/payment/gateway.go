// AngelaMos | 2026
// gateway.go

package payment

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/shopspring/decimal"
)

// Charge is what a gateway is asked to settle.
type Charge struct {
	TransactionID  string
	SubscriptionID string
	Amount         decimal.Decimal
	Method         string
}

// Gateway settles a charge. It reports a declined charge as false with a
// nil error; an error means the gateway could not be reached.
type Gateway interface {
	Settle(ctx context.Context, charge Charge) (bool, error)
}

// SimulatedGateway approves charges at random with a fixed success rate.
type SimulatedGateway struct {
	mu   sync.Mutex
	rate float64
	rng  *rand.Rand
}

func NewSimulatedGateway(successRate float64) *SimulatedGateway {
	//nolint:gosec // G404: simulated outcomes need no cryptographic source
	return NewSeededGateway(successRate, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

// NewSeededGateway uses rng for outcomes, which makes draws reproducible.
func NewSeededGateway(successRate float64, rng *rand.Rand) *SimulatedGateway {
	successRate = min(max(successRate, 0), 1)
	return &SimulatedGateway{rate: successRate, rng: rng}
}

func (g *SimulatedGateway) Settle(_ context.Context, _ Charge) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64() < g.rate, nil
}
