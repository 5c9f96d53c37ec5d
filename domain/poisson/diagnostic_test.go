package poisson

import (
	"math"
	"testing"

	"ratewatch/domain/core"
)

// TestHistogramEntropyBalancedBins checks the statistic on a hand-computable
// histogram
func TestHistogramEntropyBalancedBins(t *testing.T) {
	samples := []float64{0.1, 0.2, 0.6, 0.9}

	entropy, err := HistogramEntropy(samples, 2, 1e-6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two bins with two samples each: 2 * log(2)/2 = log(2).
	if math.Abs(entropy-math.Log(2)) > 1e-12 {
		t.Errorf("expected log(2)=%f, got %f", math.Log(2), entropy)
	}
}

// TestHistogramEntropyConcentratedBin checks a fully skewed histogram
func TestHistogramEntropyConcentratedBin(t *testing.T) {
	samples := make([]float64, 8)
	for i := range samples {
		samples[i] = 0.5
	}

	entropy, err := HistogramEntropy(samples, 4, 1e-6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One bin of eight: log(8)/8. Empty bins contribute nothing.
	want := math.Log(8) / 8
	if math.Abs(entropy-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, entropy)
	}
}

// TestHistogramEntropyEdgeSamplesKept checks the epsilon pad keeps samples
// sitting exactly on 0 and 1
func TestHistogramEntropyEdgeSamplesKept(t *testing.T) {
	samples := []float64{0, 0, 1, 1}

	entropy, err := HistogramEntropy(samples, 4, 1e-6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// First and last bin each hold two samples; dropping edge samples would
	// give zero instead.
	if math.Abs(entropy-math.Log(2)) > 1e-12 {
		t.Errorf("expected log(2)=%f, got %f", math.Log(2), entropy)
	}
}

// TestHistogramEntropyBinValidation checks the bin-count precondition
func TestHistogramEntropyBinValidation(t *testing.T) {
	if _, err := HistogramEntropy([]float64{0.5}, 1, 1e-6); err == nil {
		t.Error("expected error for a single bin")
	}
}

// TestLikelihoodSamplesKnownCDF pins CDF values against closed forms
func TestLikelihoodSamplesKnownCDF(t *testing.T) {
	rates := []float64{10, 10, 2}
	counts := []float64{0, 100, 1}

	samples, err := LikelihoodSamples(rates, counts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// P(X <= 0 | rate 10) = e^-10.
	if math.Abs(samples[0]-math.Exp(-10)) > 1e-12 {
		t.Errorf("expected e^-10, got %g", samples[0])
	}
	// A count far above the rate has essentially full cumulative mass.
	if samples[1] < 1-1e-9 {
		t.Errorf("expected CDF near 1 for count 100 at rate 10, got %g", samples[1])
	}
	// P(X <= 1 | rate 2) = e^-2 (1 + 2) = 3 e^-2.
	if math.Abs(samples[2]-3*math.Exp(-2)) > 1e-9 {
		t.Errorf("expected 3e^-2=%f, got %f", 3*math.Exp(-2), samples[2])
	}
}

// TestLikelihoodSamplesDegenerateRate checks the explicit zero-rate branch
func TestLikelihoodSamplesDegenerateRate(t *testing.T) {
	samples, err := LikelihoodSamples([]float64{0}, []float64{3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if samples[0] != 1 {
		t.Errorf("expected full cumulative mass under zero rate, got %f", samples[0])
	}
}

// TestLikelihoodSamplesRange checks samples stay in [0, 1]
func TestLikelihoodSamplesRange(t *testing.T) {
	rates := []float64{0.5, 1, 3, 7.5, 20, 100}
	counts := []float64{0, 2, 3, 9, 18, 120}

	samples, err := LikelihoodSamples(rates, counts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, s := range samples {
		if s < 0 || s > 1 {
			t.Errorf("sample %d outside [0, 1]: %f", i, s)
		}
	}
}

// TestScoreShapeMismatch checks the pairing precondition
func TestScoreShapeMismatch(t *testing.T) {
	_, err := Score([]float64{1, 2}, []float64{1}, 20, 1e-6)
	if !core.IsShapeMismatchError(err) {
		t.Errorf("expected shape mismatch error, got %v", err)
	}
}
