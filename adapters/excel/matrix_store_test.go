package excel

import (
	"context"
	"path/filepath"
	"testing"

	"ratewatch/domain/series"
)

func sampleMatrix() *series.CountMatrix {
	return &series.CountMatrix{
		Buckets: []series.Bucket{"AB1", "CD2", "EF3"},
		Counts: [][]float64{
			{0, 2, 5, 3},
			{1, 1, 0, 4},
			{7, 0, 2, 2},
		},
		PeriodStart: "2000-01-01",
		PeriodEnd:   "2000-04-30",
	}
}

func TestMatrixRoundTrip(t *testing.T) {
	store := NewMatrixStore()
	path := filepath.Join(t.TempDir(), "batch.xlsx")
	want := sampleMatrix()

	if err := store.Write(context.Background(), path, want); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := store.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if len(got.Buckets) != len(want.Buckets) {
		t.Fatalf("bucket count = %d, want %d", len(got.Buckets), len(want.Buckets))
	}
	for i := range want.Buckets {
		if got.Buckets[i] != want.Buckets[i] {
			t.Errorf("bucket[%d] = %q, want %q", i, got.Buckets[i], want.Buckets[i])
		}
	}
	for i, row := range want.Counts {
		for j, v := range row {
			if got.Counts[i][j] != v {
				t.Errorf("count[%d][%d] = %v, want %v", i, j, got.Counts[i][j], v)
			}
		}
	}
	if got.PeriodStart != want.PeriodStart || got.PeriodEnd != want.PeriodEnd {
		t.Errorf("period = [%s, %s], want [%s, %s]",
			got.PeriodStart, got.PeriodEnd, want.PeriodStart, want.PeriodEnd)
	}
}

func TestWriteRejectsRaggedMatrix(t *testing.T) {
	store := NewMatrixStore()
	m := sampleMatrix()
	m.Counts[1] = m.Counts[1][:2]

	err := store.Write(context.Background(), filepath.Join(t.TempDir(), "bad.xlsx"), m)
	if err == nil {
		t.Fatal("Write() accepted a ragged matrix")
	}
}

func TestReadMissingFile(t *testing.T) {
	store := NewMatrixStore()

	_, err := store.Read(context.Background(), filepath.Join(t.TempDir(), "absent.xlsx"))
	if err == nil {
		t.Fatal("Read() succeeded on a missing file")
	}
}
