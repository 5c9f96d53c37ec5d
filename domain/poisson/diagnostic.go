package poisson

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"ratewatch/domain/core"
)

// Histogram defaults for the likelihood diagnostic.
const (
	DefaultBinCount = 20
	DefaultEpsilon  = 1e-6
)

// LikelihoodSamples computes, for each paired (rate, count), the Poisson CDF
// value of the count under the rate. Under a correctly specified rate model
// these values are approximately uniform on [0, 1].
func LikelihoodSamples(rates, counts []float64) ([]float64, error) {
	if len(rates) != len(counts) {
		return nil, core.NewShapeMismatchError("rates vs counts", len(rates), len(counts))
	}
	samples := make([]float64, len(rates))
	for i := range rates {
		samples[i] = cumulativeLikelihood(rates[i], counts[i])
	}
	return samples, nil
}

// Score reduces a rate trace and its matching observed counts to the
// histogram-entropy statistic: bin the cumulative-likelihood values into
// binCount equal-width bins over [0-eps, 1+eps] and sum log(c)/c over bins
// with nonzero count c. Skew away from a uniform histogram moves the
// statistic, flagging a miscalibrated rate model.
func Score(rates, counts []float64, binCount int, eps float64) (float64, error) {
	samples, err := LikelihoodSamples(rates, counts)
	if err != nil {
		return 0, err
	}
	return HistogramEntropy(samples, binCount, eps)
}

// HistogramEntropy bins likelihood samples and reduces the histogram to the
// scalar entropy statistic. The epsilon pad widens the outermost bin edges so
// samples landing exactly on 0 or 1 are kept rather than dropped by strict
// edge comparisons.
func HistogramEntropy(samples []float64, binCount int, eps float64) (float64, error) {
	if binCount < 2 {
		return 0, core.NewValidationError("binCount", "histogram needs at least 2 bins")
	}
	if eps <= 0 {
		eps = DefaultEpsilon
	}

	lo := 0 - eps
	hi := 1 + eps
	width := (hi - lo) / float64(binCount)

	binCounts := make([]int, binCount)
	for _, v := range samples {
		idx := int((v - lo) / width)
		if idx < 0 {
			idx = 0
		}
		if idx >= binCount {
			idx = binCount - 1
		}
		binCounts[idx]++
	}

	// Empty bins are skipped deliberately: log(0) would poison the sum, and
	// an empty bin carries no likelihood mass to score.
	var entropy float64
	for _, c := range binCounts {
		if c > 0 {
			entropy += math.Log(float64(c)) / float64(c)
		}
	}
	return entropy, nil
}

// cumulativeLikelihood is P(X <= count) for X ~ Poisson(rate). A clamped or
// degenerate rate of zero puts all mass at a zero count, so any observed
// count has full cumulative mass; that branch is explicit rather than left
// to the distribution code.
func cumulativeLikelihood(rate, count float64) float64 {
	if rate <= 0 {
		return 1
	}
	return distuv.Poisson{Lambda: rate}.CDF(count)
}
