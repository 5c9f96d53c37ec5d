package main

import (
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"ratewatch/adapters/api"
	"ratewatch/adapters/postgres"
	"ratewatch/adapters/rng"
	"ratewatch/app"
	"ratewatch/domain/poisson"
	"ratewatch/internal"
	"ratewatch/internal/config"
	"ratewatch/internal/errors"
)

// initDatabase opens and verifies the PostgreSQL connection
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	if appConfig.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}
	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	repo, err := postgres.NewSeriesRepository(db, postgres.Period{
		Start: appConfig.Extract.PeriodStart,
		End:   appConfig.Extract.PeriodEnd,
	})
	if err != nil {
		log.Fatalf("Failed to create series repository: %v", err)
	}

	traceOpts := poisson.DefaultTraceOptions()
	traceOpts.WindowSize = appConfig.Trace.WindowSize
	traceOpts.Degree = appConfig.Trace.Degree
	traceOpts.MaxIter = appConfig.Trace.MaxIter
	traceOpts.Workers = appConfig.Trace.Workers

	traces := app.NewTraceService(repo, traceOpts)
	calibration := app.NewCalibrationService(rng.New(), app.CalibrationSettings{
		Runs:        appConfig.Calibration.Runs,
		SampleCount: appConfig.Calibration.SampleCount,
		BinCount:    appConfig.Calibration.BinCount,
		Epsilon:     appConfig.Calibration.Epsilon,
		BaseSeed:    appConfig.Calibration.BaseSeed,
	})

	server := api.NewServer(traces, calibration, internal.DefaultLogger)
	if err := server.Start(api.Config{Port: appConfig.Server.Port}); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
