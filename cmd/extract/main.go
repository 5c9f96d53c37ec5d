package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"ratewatch/adapters/excel"
	"ratewatch/adapters/postgres"
	"ratewatch/internal/config"
	"ratewatch/ports"
)

// extract pulls a batch of monthly incorporation-count series out of the
// database and writes them as a count-matrix workbook, so traces can be
// computed offline without a live connection.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	out := flag.String("out", appConfig.Extract.OutputPath, "output workbook path")
	salt := flag.String("salt", appConfig.Extract.Salt, "hash salt for batch ordering")
	start := flag.Int("start", appConfig.Extract.BatchStart, "batch start index (inclusive)")
	stop := flag.Int("stop", appConfig.Extract.BatchStop, "batch stop index (exclusive, 0 means all)")
	flag.Parse()

	if *start < 0 {
		fmt.Fprintln(os.Stderr, "start must be >= 0")
		os.Exit(2)
	}
	if *stop != 0 && *stop <= *start {
		fmt.Fprintln(os.Stderr, "stop must exceed start")
		os.Exit(2)
	}

	if appConfig.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo, err := postgres.NewSeriesRepository(db, postgres.Period{
		Start: appConfig.Extract.PeriodStart,
		End:   appConfig.Extract.PeriodEnd,
	})
	if err != nil {
		log.Fatalf("Failed to create series repository: %v", err)
	}

	ctx := context.Background()
	matrix, err := repo.CountMatrix(ctx, ports.BatchSpec{
		Salt:  *salt,
		Start: *start,
		Stop:  *stop,
	})
	if err != nil {
		log.Fatalf("Failed to assemble count matrix: %v", err)
	}

	store := excel.NewMatrixStore()
	if err := store.Write(ctx, *out, matrix); err != nil {
		log.Fatalf("Failed to write workbook: %v", err)
	}

	log.Printf("Wrote %d bucket series covering %s to %s into %s",
		len(matrix.Buckets), matrix.PeriodStart, matrix.PeriodEnd, *out)
}
