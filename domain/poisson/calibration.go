package poisson

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"ratewatch/domain/core"
)

// SimulationResult is one synthetic calibration draw: the cumulative
// likelihood of each synthetic count under its own generating rate, and the
// histogram-entropy statistic of those likelihoods.
type SimulationResult struct {
	Likelihoods []float64
	Entropy     float64
}

// Simulate draws sampleCount rates uniformly with replacement from
// rateOptions, samples one Poisson count per drawn rate, and scores the
// synthetic counts with the same histogram-entropy procedure the real-data
// diagnostic uses. Because each count is scored under the rate that generated
// it, the result is a baseline for "the rate model is exactly correct";
// callers compare real-data entropy against a batch of these.
//
// src is the only source of randomness and must be supplied, so runs are
// reproducible and reentrant.
func Simulate(rateOptions []float64, sampleCount, binCount int, eps float64, src rand.Source) (SimulationResult, error) {
	if len(rateOptions) == 0 {
		return SimulationResult{}, core.NewValidationError("rateOptions", "at least one candidate rate required")
	}
	if sampleCount <= 0 {
		return SimulationResult{}, core.NewValidationError("sampleCount", "must be positive")
	}
	if binCount < 2 {
		return SimulationResult{}, core.NewValidationError("binCount", "histogram needs at least 2 bins")
	}
	if src == nil {
		return SimulationResult{}, core.ErrSeedRequired
	}

	rng := rand.New(src)
	likelihoods := make([]float64, sampleCount)
	for i := 0; i < sampleCount; i++ {
		rate := rateOptions[rng.IntN(len(rateOptions))]
		var count float64
		if rate > 0 {
			count = distuv.Poisson{Lambda: rate, Src: src}.Rand()
		}
		likelihoods[i] = cumulativeLikelihood(rate, count)
	}

	entropy, err := HistogramEntropy(likelihoods, binCount, eps)
	if err != nil {
		return SimulationResult{}, err
	}
	return SimulationResult{Likelihoods: likelihoods, Entropy: entropy}, nil
}
