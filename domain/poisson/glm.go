package poisson

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Default solver tuning. Both are overridable per call; the iteration cap is
// the only built-in bound on work.
const (
	DefaultMaxIterations  = 1000
	DefaultConvergenceTol = 1e-8
)

// FitResult is the outcome of one IRLS run. Converged=false is not a failure:
// Coef holds the best (lowest-deviance) iterate found within the iteration
// budget, and callers clamp the resulting prediction.
type FitResult struct {
	Coef       []float64
	Deviance   float64
	Converged  bool
	Iterations int
}

// FitGLM fits a log-link Poisson regression of y on the columns of design
// (the intercept column must be included by the caller) using iteratively
// reweighted least squares, minimizing Poisson deviance.
//
// Each iteration solves the weighted normal equations
//
//	(Xᵀ W X) β = Xᵀ W z,  W = diag(μ),  z = η + (y−μ)/μ
//
// with μ = exp(η). Iteration stops when the relative deviance change drops
// below tol or the budget runs out.
func FitGLM(design *mat.Dense, y []float64, maxIter int, tol float64) FitResult {
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	if tol <= 0 {
		tol = DefaultConvergenceTol
	}

	n, p := design.Dims()

	// Start from the constant-rate model: intercept at log of the sample
	// mean (offset keeps log finite on all-zero windows), slopes at zero.
	var total float64
	for _, v := range y {
		total += v
	}
	beta := make([]float64, p)
	beta[0] = math.Log(total/float64(n) + 0.1)

	best := append([]float64(nil), beta...)
	bestDev := poissonDeviance(design, y, beta)
	prevDev := bestDev
	converged := false

	row := make([]float64, p)
	iterations := 0
	for it := 1; it <= maxIter; it++ {
		iterations = it

		xtwx := mat.NewDense(p, p, nil)
		xtwz := mat.NewVecDense(p, nil)
		degenerate := false
		for i := 0; i < n; i++ {
			mat.Row(row, i, design)
			eta := dot(row, beta)
			mu := math.Exp(eta)
			if math.IsInf(mu, 0) || math.IsNaN(mu) || mu == 0 {
				degenerate = true
				break
			}
			z := eta + (y[i]-mu)/mu
			for a := 0; a < p; a++ {
				xtwz.SetVec(a, xtwz.AtVec(a)+mu*row[a]*z)
				for b := 0; b < p; b++ {
					xtwx.Set(a, b, xtwx.At(a, b)+mu*row[a]*row[b])
				}
			}
		}
		if degenerate {
			// The iterate ran away; keep the best one seen so far.
			break
		}

		var sol mat.VecDense
		if err := sol.SolveVec(xtwx, xtwz); err != nil {
			// Singular weighted system. Same policy as divergence.
			break
		}
		for a := 0; a < p; a++ {
			beta[a] = sol.AtVec(a)
		}

		dev := poissonDeviance(design, y, beta)
		if dev < bestDev {
			copy(best, beta)
			bestDev = dev
		}
		if math.Abs(prevDev-dev) < tol*(math.Abs(dev)+0.1) {
			converged = true
			break
		}
		prevDev = dev
	}

	return FitResult{
		Coef:       best,
		Deviance:   bestDev,
		Converged:  converged,
		Iterations: iterations,
	}
}

// poissonDeviance is twice the log-likelihood gap between the saturated model
// and the fitted one.
func poissonDeviance(design *mat.Dense, y []float64, beta []float64) float64 {
	n, p := design.Dims()
	row := make([]float64, p)
	var dev float64
	for i := 0; i < n; i++ {
		mat.Row(row, i, design)
		mu := math.Exp(dot(row, beta))
		if y[i] > 0 {
			dev += 2 * (y[i]*math.Log(y[i]/mu) - (y[i] - mu))
		} else {
			dev += 2 * mu
		}
	}
	return dev
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
