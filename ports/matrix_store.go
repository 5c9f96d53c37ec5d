package ports

import (
	"context"

	"ratewatch/domain/series"
)

// MatrixStore persists a count matrix with its bucket labels and period
// boundaries as named datasets, and reads one back.
type MatrixStore interface {
	Write(ctx context.Context, path string, m *series.CountMatrix) error
	Read(ctx context.Context, path string) (*series.CountMatrix, error)
}
