package poisson

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"ratewatch/domain/core"
)

// DefaultMaxRate is the prediction ceiling used when the caller supplies no
// bound of its own. The rolling extractor always supplies a data-adaptive one.
const DefaultMaxRate = 1e4

// PredictOptions tunes a single rate prediction.
type PredictOptions struct {
	Degree  int     // polynomial degree of the rate trend; 0 fits a constant
	MaxRate float64 // prediction ceiling; <= 0 means DefaultMaxRate
	MaxIter int     // IRLS iteration budget; <= 0 means DefaultMaxIterations
	Tol     float64 // IRLS convergence tolerance; <= 0 means DefaultConvergenceTol
}

// Predict estimates the Poisson rate at targetTime from a window of counts
// observed at the given times. The rate is modelled as
//
//	λ(t) = exp(a₀ + a₁·t + a₂·t² + … + a_D·t^D)
//
// fitted by Poisson regression against the window. Callers are expected to
// have re-centered times so the last historical point sits at 0 and
// targetTime is a small positive delta; that keeps the powers of t well
// conditioned.
//
// For positive degrees the result is clamped to [0, MaxRate], and the
// degree-zero estimate is the plain window mean. A solver that fails to converge is
// not an error: the best iterate within the budget is used and the clamp
// bounds the damage, because every rolling position re-estimates from
// scratch.
func Predict(counts, times []float64, targetTime float64, opts PredictOptions) (float64, error) {
	if opts.Degree < 0 {
		return 0, core.NewValidationError("degree", "polynomial degree must be non-negative")
	}
	if len(counts) != len(times) {
		return 0, core.NewShapeMismatchError("counts vs times", len(counts), len(times))
	}
	if len(counts) <= opts.Degree {
		return 0, core.NewInsufficientDataError(len(counts), opts.Degree)
	}

	maxRate := opts.MaxRate
	if maxRate <= 0 {
		maxRate = DefaultMaxRate
	}

	// Degree zero is the constant-rate model, solved analytically: the
	// maximum-likelihood constant Poisson rate is the sample mean, returned
	// as is. The ceiling exists to bound extrapolation blow-ups and a mean
	// of observed counts cannot blow up, so it is not applied here.
	if opts.Degree == 0 {
		return stats.Mean(counts)
	}

	design := polynomialDesign(times, opts.Degree)
	fit := FitGLM(design, counts, opts.MaxIter, opts.Tol)

	eta := fit.Coef[0]
	for k := 1; k <= opts.Degree; k++ {
		eta += fit.Coef[k] * math.Pow(targetTime, float64(k))
	}
	return clamp(math.Exp(eta), 0, maxRate), nil
}

// polynomialDesign builds the design matrix: an intercept column followed by
// the times raised to powers 1..degree.
func polynomialDesign(times []float64, degree int) *mat.Dense {
	n := len(times)
	design := mat.NewDense(n, degree+1, nil)
	for i, t := range times {
		design.Set(i, 0, 1)
		pow := 1.0
		for k := 1; k <= degree; k++ {
			pow *= t
			design.Set(i, k, pow)
		}
	}
	return design
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
