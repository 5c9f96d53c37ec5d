package poisson

import (
	"sort"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"ratewatch/domain/core"
	"ratewatch/domain/series"
)

// Extraction defaults, matching the monthly-series use the system was built
// for: half a year of history per window, quadratic trend.
const (
	DefaultWindowSize = 6
	DefaultDegree     = 2
)

// AdaptiveRateFactor scales the window mean into the per-window prediction
// ceiling, so bursts in recent history allow proportionally higher rates.
const AdaptiveRateFactor = 10.0

// TraceOptions tunes a rolling extraction. Degree zero is a valid choice (a
// rolling constant-rate model), so no default is imputed for it; use
// DefaultTraceOptions for the standard configuration.
type TraceOptions struct {
	WindowSize int // counts per fit window; <= 0 means DefaultWindowSize
	Degree     int // polynomial degree of the rate trend
	MaxIter    int // IRLS budget per window; <= 0 means DefaultMaxIterations
	Workers    int // parallel window fits; <= 1 runs sequentially
}

// DefaultTraceOptions returns the standard monthly-series configuration.
func DefaultTraceOptions() TraceOptions {
	return TraceOptions{
		WindowSize: DefaultWindowSize,
		Degree:     DefaultDegree,
		MaxIter:    DefaultMaxIterations,
	}
}

func (o TraceOptions) normalize() TraceOptions {
	if o.WindowSize <= 0 {
		o.WindowSize = DefaultWindowSize
	}
	if o.MaxIter <= 0 {
		o.MaxIter = DefaultMaxIterations
	}
	return o
}

// ExtractTrace slides a fixed-size window over a count series and predicts
// the Poisson rate one step ahead of each window, using only prior history.
// times may be nil, in which case counts are taken as equally spaced in index
// order. Input pairs are sorted by ascending time before windowing, so the
// result depends only on the time-ordered sequence.
//
// The trace has exactly len(counts)-WindowSize entries: the initial window
// never receives an estimate and there is no backfill.
func ExtractTrace(counts, times []float64, opts TraceOptions) (series.Trace, error) {
	opts = opts.normalize()

	if opts.Degree < 0 {
		return series.Trace{}, core.NewValidationError("degree", "polynomial degree must be non-negative")
	}
	if len(counts) <= opts.WindowSize {
		return series.Trace{}, core.NewInsufficientDataError(len(counts), opts.WindowSize)
	}
	if times != nil && len(times) != len(counts) {
		return series.Trace{}, core.NewShapeMismatchError("counts vs times", len(counts), len(times))
	}
	if opts.WindowSize <= opts.Degree {
		return series.Trace{}, core.NewInsufficientDataError(opts.WindowSize, opts.Degree)
	}

	n := len(counts)
	sortedTimes := make([]float64, n)
	sortedCounts := make([]float64, n)
	if times == nil {
		for i := range sortedTimes {
			sortedTimes[i] = float64(i)
		}
		copy(sortedCounts, counts)
	} else {
		// Stable sort keeps equal-time entries deterministic for a given
		// input order.
		order := make([]int, n)
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return times[order[a]] < times[order[b]]
		})
		for i, idx := range order {
			sortedTimes[i] = times[idx]
			sortedCounts[i] = counts[idx]
		}
	}

	w := opts.WindowSize
	trace := series.Trace{
		Times: make([]float64, n-w),
		Rates: make([]float64, n-w),
	}

	fitWindow := func(i int) error {
		window := sortedCounts[i-w : i]

		// Re-center so the last historical point sits at relative time 0
		// and the prediction target at a small positive delta. This is the
		// numerical-stability mechanism for the polynomial powers.
		relTimes := make([]float64, w)
		for j := 0; j < w; j++ {
			relTimes[j] = sortedTimes[i-w+j] - sortedTimes[i-1]
		}
		targetTime := sortedTimes[i] - sortedTimes[i-1]

		windowMean, err := stats.Mean(window)
		if err != nil {
			return err
		}
		rate, err := Predict(window, relTimes, targetTime, PredictOptions{
			Degree:  opts.Degree,
			MaxRate: windowMean * AdaptiveRateFactor,
			MaxIter: opts.MaxIter,
		})
		if err != nil {
			return err
		}
		trace.Times[i-w] = sortedTimes[i]
		trace.Rates[i-w] = rate
		return nil
	}

	// Window fits are independent, so positions can run in parallel; each
	// writes only its own output slot.
	if opts.Workers > 1 {
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for i := w; i < n; i++ {
			g.Go(func() error { return fitWindow(i) })
		}
		if err := g.Wait(); err != nil {
			return series.Trace{}, err
		}
		return trace, nil
	}

	for i := w; i < n; i++ {
		if err := fitWindow(i); err != nil {
			return series.Trace{}, err
		}
	}
	return trace, nil
}
