// Package randsrc turns an external integer provider into lazily refilled
// per-range sequences.
package randsrc

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable means the provider could not be reached or returned unusable data.
	ErrSourceUnavailable = errors.New("random source unavailable")
	ErrInvalidRange      = errors.New("invalid random range")
)

// MaxBatch mirrors random.org's per-request limit.
const MaxBatch = 10000

const DefaultBatch = 50

// Provider returns exactly count integers in the closed range [min, max].
type Provider interface {
	Draw(ctx context.Context, min, max, count int) ([]int, error)
}

func checkArgs(min, max, count int) error {
	if count <= 0 || count > MaxBatch {
		return fmt.Errorf("%w: count %d", ErrInvalidRange, count)
	}
	if min > max {
		return fmt.Errorf("%w: min %d > max %d", ErrInvalidRange, min, max)
	}
	return nil
}
