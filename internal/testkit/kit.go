package testkit

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"ratewatch/domain/core"
	"ratewatch/domain/series"
	"ratewatch/ports"
)

// Kit provides seeded synthetic count series and an in-memory series
// repository, so services can be exercised without a database.
type Kit struct {
	seed uint64
}

// NewKit creates a test kit with a base seed
func NewKit(seed int64) *Kit {
	return &Kit{seed: uint64(seed)}
}

// PoissonSeries draws n counts from a fixed-rate Poisson process
func (k *Kit) PoissonSeries(rate float64, n int) []float64 {
	src := rand.NewPCG(k.seed, uint64(n))
	gen := distuv.Poisson{Lambda: rate, Src: src}
	counts := make([]float64, n)
	for i := range counts {
		counts[i] = gen.Rand()
	}
	return counts
}

// TrendSeries draws n counts from an exponentially trending rate, the
// regime the polynomial predictor is built for
func (k *Kit) TrendSeries(base, slope float64, n int) []float64 {
	src := rand.NewPCG(k.seed, uint64(n)+1)
	counts := make([]float64, n)
	for i := range counts {
		rate := base * math.Exp(slope*float64(i))
		counts[i] = distuv.Poisson{Lambda: rate, Src: src}.Rand()
	}
	return counts
}

// InMemorySeriesRepository is a map-backed ports.SeriesRepository. Batch
// ordering uses the same salted-hash scheme as the SQL adapter so batch
// slicing behaves identically in tests.
type InMemorySeriesRepository struct {
	data   map[series.Bucket][]float64
	period [2]string
}

// NewInMemorySeriesRepository creates an empty repository
func NewInMemorySeriesRepository() *InMemorySeriesRepository {
	return &InMemorySeriesRepository{
		data:   make(map[series.Bucket][]float64),
		period: [2]string{"2000-01-01", "2024-06-30"},
	}
}

var _ ports.SeriesRepository = (*InMemorySeriesRepository)(nil)

// Put stores a bucket's count series
func (r *InMemorySeriesRepository) Put(bucket series.Bucket, counts []float64) {
	r.data[bucket] = counts
}

// Buckets lists bucket labels in salted-hash order, sliced to the batch
func (r *InMemorySeriesRepository) Buckets(ctx context.Context, batch ports.BatchSpec) ([]series.Bucket, error) {
	buckets := make([]series.Bucket, 0, len(r.data))
	for b := range r.data {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return saltedHash(batch.Salt, buckets[i]) < saltedHash(batch.Salt, buckets[j])
	})

	start := batch.Start
	if start < 0 {
		start = 0
	}
	if start > len(buckets) {
		start = len(buckets)
	}
	stop := batch.Stop
	if stop <= 0 || stop > len(buckets) {
		stop = len(buckets)
	}
	if stop < start {
		stop = start
	}
	return buckets[start:stop], nil
}

// MonthlyCounts returns a stored series
func (r *InMemorySeriesRepository) MonthlyCounts(ctx context.Context, bucket series.Bucket) ([]float64, error) {
	counts, ok := r.data[bucket]
	if !ok {
		return nil, core.NewNotFoundError("bucket", string(bucket))
	}
	return counts, nil
}

// CountMatrix assembles all stored series in batch order
func (r *InMemorySeriesRepository) CountMatrix(ctx context.Context, batch ports.BatchSpec) (*series.CountMatrix, error) {
	buckets, err := r.Buckets(ctx, batch)
	if err != nil {
		return nil, err
	}
	m := &series.CountMatrix{
		Buckets:     buckets,
		Counts:      make([][]float64, len(buckets)),
		PeriodStart: r.period[0],
		PeriodEnd:   r.period[1],
	}
	for i, b := range buckets {
		m.Counts[i] = r.data[b]
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func saltedHash(salt string, bucket series.Bucket) string {
	sum := md5.Sum([]byte(salt + string(bucket)))
	return hex.EncodeToString(sum[:])
}
