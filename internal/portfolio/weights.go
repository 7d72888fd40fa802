// Package portfolio computes maximum-Sharpe asset allocations under Modern
// Portfolio Theory with a long-only, fully-invested constraint.
package portfolio

import (
	"fmt"
	"math"
)

// WeightSumTolerance bounds the acceptable deviation of a weight vector's sum
// from 1.0.
const WeightSumTolerance = 1e-6

// cleanThreshold is the cutoff below which a weight is snapped to zero before
// renormalization.
const cleanThreshold = 1e-4

// WeightVector maps asset ticker to a non-negative allocation weight.
// A valid vector sums to 1.0 within WeightSumTolerance.
type WeightVector map[string]float64

// Sum returns the total allocation
func (w WeightVector) Sum() float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	return total
}

// Validate checks non-negativity and the unit-sum invariant
func (w WeightVector) Validate() error {
	for asset, v := range w {
		if v < 0 {
			return fmt.Errorf("negative weight %.6f for %s", v, asset)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > WeightSumTolerance {
		return fmt.Errorf("weights sum to %.8f, want 1.0", sum)
	}
	return nil
}

// Clean snaps weights below the threshold to exactly zero and renormalizes
// the remainder to sum to 1.0.
func Clean(w WeightVector) (WeightVector, error) {
	cleaned := make(WeightVector, len(w))
	sum := 0.0
	for asset, v := range w {
		if v < cleanThreshold {
			cleaned[asset] = 0
			continue
		}
		cleaned[asset] = v
		sum += v
	}
	if sum <= 0 {
		return nil, fmt.Errorf("all weights below threshold, nothing to allocate")
	}
	for asset, v := range cleaned {
		if v > 0 {
			cleaned[asset] = v / sum
		}
	}
	return cleaned, nil
}
