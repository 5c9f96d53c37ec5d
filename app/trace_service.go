package app

import (
	"context"
	"time"

	"ratewatch/domain/core"
	"ratewatch/domain/poisson"
	"ratewatch/domain/series"
	"ratewatch/ports"
)

// TraceManifest captures what produced a rate trace, so runs can be compared
// and reproduced.
type TraceManifest struct {
	RunID       core.RunID     `json:"run_id"`
	Bucket      series.Bucket  `json:"bucket"`
	WindowSize  int            `json:"window_size"`
	Degree      int            `json:"degree"`
	MaxIter     int            `json:"max_iter"`
	PointCount  int            `json:"point_count"`
	RuntimeMs   int64          `json:"runtime_ms"`
	Fingerprint core.Hash      `json:"fingerprint"`
	CreatedAt   core.Timestamp `json:"created_at"`
}

// TraceResult bundles a trace with its manifest and the observed counts the
// trace aligns with (the series minus the initial window).
type TraceResult struct {
	Manifest TraceManifest `json:"manifest"`
	Trace    series.Trace  `json:"trace"`
	Observed []float64     `json:"observed"`
}

// DiagnosticResult is a trace result scored for calibration.
type DiagnosticResult struct {
	TraceResult
	Entropy     float64   `json:"entropy"`
	Likelihoods []float64 `json:"likelihoods"`
	BinCount    int       `json:"bin_count"`
}

// TraceService turns stored count series into rolling rate traces.
type TraceService struct {
	repo ports.SeriesRepository
	opts poisson.TraceOptions
}

// NewTraceService creates a trace service over the repository
func NewTraceService(repo ports.SeriesRepository, opts poisson.TraceOptions) *TraceService {
	if opts.WindowSize < 1 {
		opts.WindowSize = poisson.DefaultWindowSize
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = poisson.DefaultMaxIterations
	}
	return &TraceService{repo: repo, opts: opts}
}

// Buckets lists the available buckets for a batch
func (s *TraceService) Buckets(ctx context.Context, batch ports.BatchSpec) ([]series.Bucket, error) {
	return s.repo.Buckets(ctx, batch)
}

// TraceBucket loads one bucket's series and extracts its rate trace
func (s *TraceService) TraceBucket(ctx context.Context, bucket series.Bucket) (*TraceResult, error) {
	counts, err := s.repo.MonthlyCounts(ctx, bucket)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	trace, err := poisson.ExtractTrace(counts, nil, s.opts)
	if err != nil {
		return nil, err
	}

	return &TraceResult{
		Manifest: TraceManifest{
			RunID:       core.RunID(core.NewID()),
			Bucket:      bucket,
			WindowSize:  s.opts.WindowSize,
			Degree:      s.opts.Degree,
			MaxIter:     s.opts.MaxIter,
			PointCount:  trace.Len(),
			RuntimeMs:   time.Since(started).Milliseconds(),
			Fingerprint: core.ComputeRunFingerprint(string(bucket), s.opts.WindowSize, s.opts.Degree, s.opts.MaxIter),
			CreatedAt:   core.Now(),
		},
		Trace:    trace,
		Observed: counts[s.opts.WindowSize:],
	}, nil
}

// DiagnoseBucket extracts a bucket's trace and scores how well the fitted
// rates explain the counts they were asked to predict
func (s *TraceService) DiagnoseBucket(ctx context.Context, bucket series.Bucket, binCount int, eps float64) (*DiagnosticResult, error) {
	result, err := s.TraceBucket(ctx, bucket)
	if err != nil {
		return nil, err
	}

	likelihoods, err := poisson.LikelihoodSamples(result.Trace.Rates, result.Observed)
	if err != nil {
		return nil, err
	}
	entropy, err := poisson.HistogramEntropy(likelihoods, binCount, eps)
	if err != nil {
		return nil, err
	}

	return &DiagnosticResult{
		TraceResult: *result,
		Entropy:     entropy,
		Likelihoods: likelihoods,
		BinCount:    binCount,
	}, nil
}
