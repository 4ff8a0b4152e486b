package randsrc

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// countingProvider wraps another provider and records calls.
type countingProvider struct {
	mu    sync.Mutex
	inner Provider
	calls int
	fail  int // fail the first N calls
}

func (c *countingProvider) Draw(ctx context.Context, min, max, count int) ([]int, error) {
	c.mu.Lock()
	c.calls++
	failing := c.calls <= c.fail
	c.mu.Unlock()
	if failing {
		return nil, ErrSourceUnavailable
	}
	return c.inner.Draw(ctx, min, max, count)
}

func TestSequenceWaitValuesInRangeProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("every draw lies in [min, max]", prop.ForAll(
		func(min, span, draws int) bool {
			max := min + span
			seq := NewSequence(NewLocalSeeded(uint64(min), uint64(span)), min, max, 7)
			for range draws {
				v, err := seq.Next(context.Background())
				if err != nil || v < min || v > max {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 1000),
		gen.IntRange(0, 240),
		gen.IntRange(1, 120),
	))

	properties.TestingRun(t)
}

func TestIndexSequenceProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("index draws stay within the message list", prop.ForAll(
		func(n, draws int) bool {
			cp := &countingProvider{inner: NewLocalSeeded(uint64(n), 1)}
			seq := Index(cp, n, DefaultBatch)
			for range draws {
				v, err := seq.Next(context.Background())
				if err != nil || v < 0 || v > n-1 {
					return false
				}
			}
			if n <= 1 {
				return cp.calls == 0
			}
			return true
		},
		gen.IntRange(1, 30),
		gen.IntRange(1, 200),
	))

	properties.TestingRun(t)
}

func TestSequenceRefillsOncePerBatch(t *testing.T) {
	cp := &countingProvider{inner: NewLocalSeeded(1, 2)}
	seq := NewSequence(cp, 1, 5, 10)
	for range 25 {
		if _, err := seq.Next(context.Background()); err != nil {
			t.Fatalf("next: %v", err)
		}
	}
	if cp.calls != 3 {
		t.Fatalf("provider calls = %d, want 3", cp.calls)
	}
}

func TestSequenceRetriesAfterFailedRefill(t *testing.T) {
	cp := &countingProvider{inner: NewLocalSeeded(1, 2), fail: 1}
	seq := NewSequence(cp, 3, 3, 4)

	if _, err := seq.Next(context.Background()); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("first pull err = %v, want ErrSourceUnavailable", err)
	}
	v, err := seq.Next(context.Background())
	if err != nil || v != 3 {
		t.Fatalf("second pull = %d, %v; want 3, nil", v, err)
	}
}

func TestZeroNeverFails(t *testing.T) {
	z := Zero()
	for range 5 {
		if v, err := z.Next(context.Background()); v != 0 || err != nil {
			t.Fatalf("Zero().Next() = %d, %v", v, err)
		}
	}
}

func TestLocalRejectsBadArgs(t *testing.T) {
	l := NewLocal()
	cases := []struct {
		name            string
		min, max, count int
	}{
		{"inverted", 5, 3, 1},
		{"zero count", 1, 2, 0},
		{"huge count", 1, 2, MaxBatch + 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := l.Draw(context.Background(), tc.min, tc.max, tc.count); !errors.Is(err, ErrInvalidRange) {
				t.Fatalf("err = %v, want ErrInvalidRange", err)
			}
		})
	}
}
