package workorders

import (
	"context"
	"fmt"
	"math/rand/v2"
)

// Work order ids are six-digit numbers.
const (
	MinID = 100000
	MaxID = 999999

	DefaultMaxIDAttempts = 100
)

// IDGenerator draws random six-digit ids and retries on collision.
type IDGenerator struct {
	MaxAttempts int
	// IntN returns a value in [0, n). Defaults to math/rand/v2.IntN.
	IntN func(n int) int
}

func NewIDGenerator(maxAttempts int) *IDGenerator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxIDAttempts
	}
	return &IDGenerator{MaxAttempts: maxAttempts, IntN: rand.IntN}
}

// Next returns the first drawn id for which taken reports false.
func (g *IDGenerator) Next(ctx context.Context, taken func(ctx context.Context, id int) (bool, error)) (int, error) {
	intN := g.IntN
	if intN == nil {
		intN = rand.IntN
	}
	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxIDAttempts
	}
	for i := 0; i < attempts; i++ {
		id := MinID + intN(MaxID-MinID+1)
		used, err := taken(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("check work order id %d: %w", id, err)
		}
		if !used {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w after %d attempts", ErrIDSpaceExhausted, attempts)
}
