package ports

import (
	"context"

	"ratewatch/domain/series"
)

// BatchSpec selects a deterministic slice of buckets. Buckets are ordered by
// a salted hash of their label before slicing, so batch membership is stable
// across runs with the same salt but uncorrelated with geography.
type BatchSpec struct {
	Salt  string
	Start int
	Stop  int // 0 means "to the end"
}

// SeriesRepository serves monthly count series grouped into geographic
// buckets. Implementations must zero-fill months with no observations: the
// rate engine requires gap-free series.
type SeriesRepository interface {
	// Buckets lists the bucket labels in the batch, in salted-hash order
	Buckets(ctx context.Context, batch BatchSpec) ([]series.Bucket, error)

	// MonthlyCounts returns one bucket's gap-free monthly count series
	MonthlyCounts(ctx context.Context, bucket series.Bucket) ([]float64, error)

	// CountMatrix assembles the batch into a rectangular bucket-by-month matrix
	CountMatrix(ctx context.Context, batch BatchSpec) (*series.CountMatrix, error)
}
