package poisson

import (
	"math/rand/v2"
	"sort"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"
)

// TestSimulateDeterministicWithSeed checks runs with the same source are
// bit-identical
func TestSimulateDeterministicWithSeed(t *testing.T) {
	rates := []float64{2, 5, 11}

	first, err := Simulate(rates, 500, 20, 1e-6, rand.NewPCG(42, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Simulate(rates, 500, 20, 1e-6, rand.NewPCG(42, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Entropy != second.Entropy {
		t.Errorf("entropy differs across identical seeds: %f vs %f", first.Entropy, second.Entropy)
	}
	for i := range first.Likelihoods {
		if first.Likelihoods[i] != second.Likelihoods[i] {
			t.Fatalf("likelihood %d differs across identical seeds", i)
		}
	}
}

// TestSimulateDistinctSeedsDiffer guards against an ignored source
func TestSimulateDistinctSeedsDiffer(t *testing.T) {
	rates := []float64{2, 5, 11}

	first, err := Simulate(rates, 500, 20, 1e-6, rand.NewPCG(42, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Simulate(rates, 500, 20, 1e-6, rand.NewPCG(43, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	same := true
	for i := range first.Likelihoods {
		if first.Likelihoods[i] != second.Likelihoods[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical likelihood samples")
	}
}

// TestSimulateValidation checks the preconditions
func TestSimulateValidation(t *testing.T) {
	src := rand.NewPCG(1, 1)

	if _, err := Simulate(nil, 100, 20, 1e-6, src); err == nil {
		t.Error("expected error for empty rate options")
	}
	if _, err := Simulate([]float64{5}, 0, 20, 1e-6, src); err == nil {
		t.Error("expected error for zero sample count")
	}
	if _, err := Simulate([]float64{5}, 100, 1, 1e-6, src); err == nil {
		t.Error("expected error for single bin")
	}
	if _, err := Simulate([]float64{5}, 100, 20, 1e-6, nil); err == nil {
		t.Error("expected error for nil random source")
	}
}

// TestSimulateLikelihoodRange checks synthetic likelihoods stay in [0, 1]
func TestSimulateLikelihoodRange(t *testing.T) {
	result, err := Simulate([]float64{0.5, 3, 25}, 2000, 20, 1e-6, rand.NewPCG(7, 7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Likelihoods) != 2000 {
		t.Fatalf("expected 2000 likelihood samples, got %d", len(result.Likelihoods))
	}
	for i, s := range result.Likelihoods {
		if s < 0 || s > 1 {
			t.Errorf("likelihood %d outside [0, 1]: %f", i, s)
		}
	}
}

// TestDiagnosticAgreesWithCalibrationBaseline is the end-to-end calibration
// scenario: counts generated from a known fixed rate, scored under that rate,
// must not look anomalous against the simulated baseline for the same rate.
func TestDiagnosticAgreesWithCalibrationBaseline(t *testing.T) {
	const (
		lambda       = 10.0
		sampleCount  = 5000
		binCount     = 20
		baselineRuns = 200
	)

	// Real-data side: seeded synthetic counts from the known rate.
	src := rand.NewPCG(2024, 5)
	gen := distuv.Poisson{Lambda: lambda, Src: src}
	counts := make([]float64, sampleCount)
	rates := make([]float64, sampleCount)
	for i := range counts {
		counts[i] = gen.Rand()
		rates[i] = lambda
	}
	observed, err := Score(rates, counts, binCount, 1e-6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Baseline side: repeated simulator runs under the same rate.
	entropies := make([]float64, baselineRuns)
	for run := 0; run < baselineRuns; run++ {
		result, err := Simulate([]float64{lambda}, sampleCount, binCount, 1e-6, rand.NewPCG(9000, uint64(run)))
		if err != nil {
			t.Fatalf("baseline run %d: unexpected error: %v", run, err)
		}
		entropies[run] = result.Entropy
	}

	sort.Float64s(entropies)
	q1 := entropies[baselineRuns/4]
	q3 := entropies[3*baselineRuns/4]
	iqr := q3 - q1

	// Tukey fence around the baseline quartiles: a single draw from the
	// same distribution lands inside the raw interquartile range only about
	// half the time, so the fence is the bound that separates "consistent
	// with a correct model" from anomalous. See DESIGN.md, "Calibration
	// verdict bound", for the rationale behind this choice of bound.
	lo := q1 - 1.5*iqr
	hi := q3 + 1.5*iqr
	if observed < lo || observed > hi {
		t.Errorf("correctly specified model flagged: entropy %f outside [%f, %f] (q1=%f q3=%f)",
			observed, lo, hi, q1, q3)
	}
}
