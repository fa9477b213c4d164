package simulation

import (
	"math/rand/v2"
	"time"
)

// NoiseSource supplies the random samples used by the simulation.
//
// Implementations must be deterministic for a given seed so that a session
// can be replayed in tests.
type NoiseSource interface {
	// Gaussian returns a normally distributed sample.
	Gaussian(mean, stddev float64) float64

	// Uniform returns a sample in [lo, hi).
	Uniform(lo, hi float64) float64
}

// RandNoise is a NoiseSource backed by a PCG generator.
type RandNoise struct {
	rng *rand.Rand
}

// NewRandNoise creates a NoiseSource.
// A seed of 0 draws the seed from the wall clock, so each session differs.
func NewRandNoise(seed uint64) *RandNoise {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // simulation noise, not security
	}
	return &RandNoise{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), //nolint:gosec // simulation noise
	}
}

// Gaussian implements NoiseSource.
func (n *RandNoise) Gaussian(mean, stddev float64) float64 {
	if stddev == 0 {
		return mean
	}
	return mean + n.rng.NormFloat64()*stddev
}

// Uniform implements NoiseSource.
func (n *RandNoise) Uniform(lo, hi float64) float64 {
	return lo + n.rng.Float64()*(hi-lo)
}

// ZeroNoise always returns the mean (or the lower bound for Uniform).
// It turns the simulation into a pure function of simulated time.
type ZeroNoise struct{}

// Gaussian implements NoiseSource.
func (ZeroNoise) Gaussian(mean, _ float64) float64 { return mean }

// Uniform implements NoiseSource.
func (ZeroNoise) Uniform(lo, _ float64) float64 { return lo }
