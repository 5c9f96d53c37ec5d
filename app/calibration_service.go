package app

import (
	"context"
	"fmt"

	"github.com/montanaflynn/stats"

	"ratewatch/domain/core"
	"ratewatch/domain/poisson"
	"ratewatch/ports"
)

// CalibrationVerdict classifies a real-data entropy against the baseline.
type CalibrationVerdict string

const (
	VerdictWellCalibrated CalibrationVerdict = "WELL_CALIBRATED"
	VerdictMiscalibrated  CalibrationVerdict = "MISCALIBRATED"
)

// CalibrationSettings tunes the Monte-Carlo baseline.
type CalibrationSettings struct {
	Runs        int
	SampleCount int
	BinCount    int
	Epsilon     float64
	BaseSeed    int64
}

// Baseline is the simulated "model is exactly correct" entropy distribution.
type Baseline struct {
	RunID     core.RunID `json:"run_id"`
	Entropies []float64  `json:"entropies"`
	Q1        float64    `json:"q1"`
	Median    float64    `json:"median"`
	Q3        float64    `json:"q3"`
}

// Judge classifies an observed entropy against the baseline spread. The
// bound is the Tukey fence around the quartiles: a draw from the baseline
// distribution itself lands inside the raw interquartile range only about
// half the time, so the fence is what separates consistent from anomalous.
func (b *Baseline) Judge(entropy float64) CalibrationVerdict {
	iqr := b.Q3 - b.Q1
	if entropy < b.Q1-1.5*iqr || entropy > b.Q3+1.5*iqr {
		return VerdictMiscalibrated
	}
	return VerdictWellCalibrated
}

// CalibrationService builds simulated entropy baselines with reproducible
// per-run random streams.
type CalibrationService struct {
	rng      ports.RNGPort
	settings CalibrationSettings
}

// NewCalibrationService creates a calibration service
func NewCalibrationService(rng ports.RNGPort, settings CalibrationSettings) *CalibrationService {
	return &CalibrationService{rng: rng, settings: settings}
}

// Baseline runs the configured number of simulator batches against the
// candidate rates and summarizes the entropy distribution
func (s *CalibrationService) Baseline(ctx context.Context, rateOptions []float64) (*Baseline, error) {
	if len(rateOptions) == 0 {
		return nil, core.NewValidationError("rateOptions", "at least one candidate rate required")
	}

	// Streams are keyed by batch index and base seed only, never by the run
	// ID: two baselines with the same settings must be identical.
	runID := core.RunID(core.NewID())
	entropies := make([]float64, s.settings.Runs)
	for i := 0; i < s.settings.Runs; i++ {
		stream, err := s.rng.Stream(ctx, "", "calibration", fmt.Sprintf("batch-%04d", i), s.settings.BaseSeed)
		if err != nil {
			return nil, err
		}
		result, err := poisson.Simulate(rateOptions, s.settings.SampleCount, s.settings.BinCount, s.settings.Epsilon, stream)
		if err != nil {
			return nil, err
		}
		entropies[i] = result.Entropy
	}

	q1, err := stats.Percentile(entropies, 25)
	if err != nil {
		return nil, err
	}
	median, err := stats.Median(entropies)
	if err != nil {
		return nil, err
	}
	q3, err := stats.Percentile(entropies, 75)
	if err != nil {
		return nil, err
	}

	return &Baseline{
		RunID:     runID,
		Entropies: entropies,
		Q1:        q1,
		Median:    median,
		Q3:        q3,
	}, nil
}
