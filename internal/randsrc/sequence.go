package randsrc

import (
	"context"
	"fmt"
	"sync"
)

// Sequence is an unbounded stream of integers.
type Sequence interface {
	Next(ctx context.Context) (int, error)
}

// Batched serves integers in [Min, Max] from a buffer filled one provider
// call at a time. A refill replaces the buffer; a failed refill leaves it
// empty so the next pull retries.
type Batched struct {
	p        Provider
	min, max int
	batch    int

	mu  sync.Mutex
	buf []int
	pos int
}

func NewSequence(p Provider, min, max, batch int) *Batched {
	if batch <= 0 {
		batch = DefaultBatch
	}
	if batch > MaxBatch {
		batch = MaxBatch
	}
	return &Batched{p: p, min: min, max: max, batch: batch}
}

func (s *Batched) Bounds() (int, int) { return s.min, s.max }

func (s *Batched) Next(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos >= len(s.buf) {
		s.buf, s.pos = nil, 0
		nums, err := s.p.Draw(ctx, s.min, s.max, s.batch)
		if err != nil {
			return 0, err
		}
		if len(nums) == 0 {
			return 0, fmt.Errorf("%w: empty batch", ErrSourceUnavailable)
		}
		s.buf = nums
	}
	v := s.buf[s.pos]
	s.pos++
	return v, nil
}

type zero struct{}

func (zero) Next(context.Context) (int, error) { return 0, nil }

// Zero always yields 0 and never touches a provider.
func Zero() Sequence { return zero{} }

// Index returns a sequence over [0, n-1], or Zero when n <= 1.
func Index(p Provider, n, batch int) Sequence {
	if n <= 1 {
		return Zero()
	}
	return NewSequence(p, 0, n-1, batch)
}
