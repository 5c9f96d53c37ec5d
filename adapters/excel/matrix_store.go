package excel

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"ratewatch/domain/series"
	"ratewatch/ports"
)

// Sheet names act as the named datasets of a matrix workbook: the count
// matrix itself, the bucket labels row-for-row, and the period boundaries.
const (
	matrixSheet = "time_series_mat"
	bucketSheet = "bucket_list"
	periodSheet = "period"
)

// matrixStore persists count matrices as xlsx workbooks
type matrixStore struct{}

// NewMatrixStore creates a new workbook-backed matrix store
func NewMatrixStore() ports.MatrixStore {
	return &matrixStore{}
}

// Write saves the matrix, bucket labels and period bounds to path
func (s *matrixStore) Write(ctx context.Context, path string, m *series.CountMatrix) error {
	if err := m.Validate(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", matrixSheet)
	if _, err := f.NewSheet(bucketSheet); err != nil {
		return fmt.Errorf("failed to create bucket sheet: %w", err)
	}
	if _, err := f.NewSheet(periodSheet); err != nil {
		return fmt.Errorf("failed to create period sheet: %w", err)
	}

	for i, row := range m.Counts {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(matrixSheet, cell, v); err != nil {
				return fmt.Errorf("failed to write matrix cell: %w", err)
			}
		}
	}

	for i, bucket := range m.Buckets {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(bucketSheet, cell, string(bucket)); err != nil {
			return fmt.Errorf("failed to write bucket label: %w", err)
		}
	}

	if err := f.SetCellValue(periodSheet, "A1", m.PeriodStart); err != nil {
		return fmt.Errorf("failed to write period start: %w", err)
	}
	if err := f.SetCellValue(periodSheet, "A2", m.PeriodEnd); err != nil {
		return fmt.Errorf("failed to write period end: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save matrix workbook: %w", err)
	}
	return nil
}

// Read loads a matrix previously written by Write
func (s *matrixStore) Read(ctx context.Context, path string) (*series.CountMatrix, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open matrix workbook: %w", err)
	}
	defer f.Close()

	matrixRows, err := f.GetRows(matrixSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read matrix sheet: %w", err)
	}
	bucketRows, err := f.GetRows(bucketSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read bucket sheet: %w", err)
	}
	periodRows, err := f.GetRows(periodSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read period sheet: %w", err)
	}

	m := &series.CountMatrix{}
	width := 0
	for _, row := range matrixRows {
		if len(row) > width {
			width = len(row)
		}
	}
	for _, row := range matrixRows {
		counts := make([]float64, width)
		for j, cell := range row {
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("non-numeric matrix cell %q: %w", cell, err)
			}
			counts[j] = v
		}
		m.Counts = append(m.Counts, counts)
	}

	for _, row := range bucketRows {
		if len(row) > 0 {
			m.Buckets = append(m.Buckets, series.Bucket(row[0]))
		}
	}

	if len(periodRows) > 0 && len(periodRows[0]) > 0 {
		m.PeriodStart = periodRows[0][0]
	}
	if len(periodRows) > 1 && len(periodRows[1]) > 0 {
		m.PeriodEnd = periodRows[1][0]
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
