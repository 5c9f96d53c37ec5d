package app

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratewatch/domain/core"
	"ratewatch/domain/poisson"
	"ratewatch/domain/series"
	"ratewatch/internal/testkit"
	"ratewatch/ports"
)

func newTraceFixture(t *testing.T) (*TraceService, *testkit.InMemorySeriesRepository) {
	t.Helper()
	repo := testkit.NewInMemorySeriesRepository()
	opts := poisson.DefaultTraceOptions()
	opts.Degree = 1
	return NewTraceService(repo, opts), repo
}

func TestTraceBucketProducesAlignedTraceAndManifest(t *testing.T) {
	svc, repo := newTraceFixture(t)
	kit := testkit.NewKit(7)
	counts := kit.PoissonSeries(5.0, 30)
	repo.Put("AB1", counts)

	result, err := svc.TraceBucket(context.Background(), "AB1")
	require.NoError(t, err)

	assert.Equal(t, len(counts)-poisson.DefaultWindowSize, result.Trace.Len())
	assert.Equal(t, len(result.Observed), result.Trace.Len())
	assert.Equal(t, counts[poisson.DefaultWindowSize:], result.Observed)

	m := result.Manifest
	assert.Equal(t, series.Bucket("AB1"), m.Bucket)
	assert.Equal(t, poisson.DefaultWindowSize, m.WindowSize)
	assert.Equal(t, 1, m.Degree)
	assert.Equal(t, result.Trace.Len(), m.PointCount)
	assert.NotEmpty(t, m.RunID)
	assert.NotEmpty(t, m.Fingerprint)

	for _, r := range result.Trace.Rates {
		assert.False(t, math.IsNaN(r))
		assert.GreaterOrEqual(t, r, 0.0)
	}
}

func TestTraceBucketMissingBucket(t *testing.T) {
	svc, _ := newTraceFixture(t)

	_, err := svc.TraceBucket(context.Background(), "ZZ9")
	assert.True(t, core.IsNotFoundError(err))
}

func TestTraceBucketShortSeries(t *testing.T) {
	svc, repo := newTraceFixture(t)
	repo.Put("AB1", []float64{1, 2, 3})

	_, err := svc.TraceBucket(context.Background(), "AB1")
	assert.True(t, core.IsInsufficientDataError(err))
}

func TestDiagnoseBucketScoresTrace(t *testing.T) {
	svc, repo := newTraceFixture(t)
	kit := testkit.NewKit(11)
	repo.Put("AB1", kit.PoissonSeries(8.0, 60))

	result, err := svc.DiagnoseBucket(context.Background(), "AB1", poisson.DefaultBinCount, poisson.DefaultEpsilon)
	require.NoError(t, err)

	assert.Equal(t, result.Trace.Len(), len(result.Likelihoods))
	assert.Equal(t, poisson.DefaultBinCount, result.BinCount)
	assert.Greater(t, result.Entropy, 0.0)
	for _, p := range result.Likelihoods {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestBucketsRespectsBatchSlicing(t *testing.T) {
	svc, repo := newTraceFixture(t)
	for _, b := range []series.Bucket{"AB1", "CD2", "EF3", "GH4"} {
		repo.Put(b, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	}

	all, err := svc.Buckets(context.Background(), ports.BatchSpec{Salt: "basic_salt"})
	require.NoError(t, err)
	require.Len(t, all, 4)

	batch, err := svc.Buckets(context.Background(), ports.BatchSpec{Salt: "basic_salt", Start: 1, Stop: 3})
	require.NoError(t, err)
	assert.Equal(t, all[1:3], batch)
}
