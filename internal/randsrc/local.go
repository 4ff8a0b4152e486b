package randsrc

import (
	"context"
	"math/rand/v2"
	"sync"
)

// Local draws from an in-process PCG generator. Used offline and in tests.
type Local struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewLocal() *Local {
	return NewLocalSeeded(rand.Uint64(), rand.Uint64())
}

func NewLocalSeeded(seed1, seed2 uint64) *Local {
	return &Local{r: rand.New(rand.NewPCG(seed1, seed2))}
}

func (l *Local) Draw(ctx context.Context, min, max, count int) ([]int, error) {
	if err := checkArgs(min, max, count); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	span := int64(max) - int64(min) + 1
	out := make([]int, count)
	l.mu.Lock()
	for i := range out {
		out[i] = min + int(l.r.Int64N(span))
	}
	l.mu.Unlock()
	return out, nil
}
