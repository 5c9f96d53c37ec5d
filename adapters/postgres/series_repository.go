package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"ratewatch/domain/core"
	"ratewatch/domain/series"
	"ratewatch/ports"
)

// Period bounds the incorporation dates that contribute to the count series.
type Period struct {
	Start string // YYYY-MM-DD
	End   string // YYYY-MM-DD
}

// seriesRepository implements ports.SeriesRepository on the companies table.
//
// Buckets are simplified postcodes: the trailing two characters dropped and
// spaces removed, which groups geographically co-located addresses. Months
// are reported relative to the period start, and months with no
// incorporations are zero-filled here so downstream series are gap-free.
type seriesRepository struct {
	db     *sqlx.DB
	period Period
}

// NewSeriesRepository creates a new monthly-count repository over the period
func NewSeriesRepository(db *sqlx.DB, period Period) (ports.SeriesRepository, error) {
	if _, err := monthSpan(period); err != nil {
		return nil, err
	}
	return &seriesRepository{db: db, period: period}, nil
}

const bucketCountsCTE = `
	WITH post_code_vw AS (
		SELECT
			company_number,
			(EXTRACT(YEAR FROM inc_date) - EXTRACT(YEAR FROM $1::date)) * 12
				+ (EXTRACT(MONTH FROM inc_date) - EXTRACT(MONTH FROM $1::date)) AS relative_month,
			REPLACE(LEFT(address_post_code, LENGTH(address_post_code) - 2), ' ', '') AS simplified_pc
		FROM companies
		WHERE inc_date >= $1::date
			AND inc_date <= $2::date
			AND address_post_code IS NOT NULL
	)`

// Buckets lists bucket labels in salted-hash order, sliced to the batch
func (r *seriesRepository) Buckets(ctx context.Context, batch ports.BatchSpec) ([]series.Bucket, error) {
	query := bucketCountsCTE + `
	SELECT DISTINCT simplified_pc
	FROM post_code_vw
	ORDER BY md5($3 || simplified_pc)`

	var labels []string
	if err := r.db.SelectContext(ctx, &labels, query, r.period.Start, r.period.End, batch.Salt); err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	start, stop := batchBounds(batch, len(labels))
	buckets := make([]series.Bucket, 0, stop-start)
	for _, label := range labels[start:stop] {
		buckets = append(buckets, series.Bucket(label))
	}
	return buckets, nil
}

// MonthlyCounts returns one bucket's zero-filled monthly count series
func (r *seriesRepository) MonthlyCounts(ctx context.Context, bucket series.Bucket) ([]float64, error) {
	query := bucketCountsCTE + `
	SELECT relative_month::int AS relative_month, COUNT(DISTINCT company_number) AS monthly_count
	FROM post_code_vw
	WHERE simplified_pc = $3
	GROUP BY relative_month`

	var rows []monthlyCountRow
	if err := r.db.SelectContext(ctx, &rows, query, r.period.Start, r.period.End, string(bucket)); err != nil {
		return nil, fmt.Errorf("failed to load monthly counts: %w", err)
	}
	if len(rows) == 0 {
		return nil, core.NewNotFoundError("bucket", string(bucket))
	}

	span, err := monthSpan(r.period)
	if err != nil {
		return nil, err
	}
	counts := make([]float64, span+1)
	for _, row := range rows {
		if row.RelativeMonth >= 0 && row.RelativeMonth < len(counts) {
			counts[row.RelativeMonth] = float64(row.MonthlyCount)
		}
	}
	return counts, nil
}

// CountMatrix assembles the batch into a rectangular bucket-by-month matrix
func (r *seriesRepository) CountMatrix(ctx context.Context, batch ports.BatchSpec) (*series.CountMatrix, error) {
	buckets, err := r.Buckets(ctx, batch)
	if err != nil {
		return nil, err
	}

	matrix := &series.CountMatrix{
		Buckets:     buckets,
		Counts:      make([][]float64, len(buckets)),
		PeriodStart: r.period.Start,
		PeriodEnd:   r.period.End,
	}
	for i, bucket := range buckets {
		counts, err := r.MonthlyCounts(ctx, bucket)
		if err != nil {
			return nil, err
		}
		matrix.Counts[i] = counts
	}

	if err := matrix.Validate(); err != nil {
		return nil, err
	}
	return matrix, nil
}

type monthlyCountRow struct {
	RelativeMonth int `db:"relative_month"`
	MonthlyCount  int `db:"monthly_count"`
}

// monthSpan counts calendar months from the period start to its end
func monthSpan(p Period) (int, error) {
	start, err := time.Parse("2006-01-02", p.Start)
	if err != nil {
		return 0, fmt.Errorf("invalid period start %q: %w", p.Start, err)
	}
	end, err := time.Parse("2006-01-02", p.End)
	if err != nil {
		return 0, fmt.Errorf("invalid period end %q: %w", p.End, err)
	}
	span := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if span < 0 {
		return 0, fmt.Errorf("period end %q precedes start %q", p.End, p.Start)
	}
	return span, nil
}

func batchBounds(batch ports.BatchSpec, total int) (int, int) {
	start := batch.Start
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	stop := batch.Stop
	if stop <= 0 || stop > total {
		stop = total
	}
	if stop < start {
		stop = start
	}
	return start, stop
}
