package config

import (
	"os"
	"strconv"

	"ratewatch/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database    DatabaseConfig
	Server      ServerConfig
	Trace       TraceConfig
	Calibration CalibrationConfig
	Extract     ExtractConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// TraceConfig holds rolling rate extraction settings
type TraceConfig struct {
	WindowSize int
	Degree     int
	MaxIter    int
	Workers    int
}

// CalibrationConfig holds Monte-Carlo baseline settings
type CalibrationConfig struct {
	Runs        int
	SampleCount int
	BinCount    int
	Epsilon     float64
	BaseSeed    int64
}

// ExtractConfig holds batch export settings
type ExtractConfig struct {
	PeriodStart string // YYYY-MM-DD
	PeriodEnd   string // YYYY-MM-DD
	Salt        string
	BatchStart  int
	BatchStop   int
	OutputPath  string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Trace: TraceConfig{
			WindowSize: getEnvInt("TRACE_WINDOW_SIZE", 6),
			Degree:     getEnvInt("TRACE_DEGREE", 2),
			MaxIter:    getEnvInt("TRACE_MAX_ITER", 1000),
			Workers:    getEnvInt("TRACE_WORKERS", 1),
		},
		Calibration: CalibrationConfig{
			Runs:        getEnvInt("CALIBRATION_RUNS", 200),
			SampleCount: getEnvInt("CALIBRATION_SAMPLES", 1000),
			BinCount:    getEnvInt("CALIBRATION_BINS", 20),
			Epsilon:     getEnvFloat("CALIBRATION_EPSILON", 1e-6),
			BaseSeed:    int64(getEnvInt("CALIBRATION_SEED", 1)),
		},
		Extract: ExtractConfig{
			PeriodStart: getEnv("EXTRACT_PERIOD_START", "2000-01-01"),
			PeriodEnd:   getEnv("EXTRACT_PERIOD_END", "2024-06-30"),
			Salt:        getEnv("EXTRACT_HASH_SALT", "basic_salt"),
			BatchStart:  getEnvInt("EXTRACT_BATCH_START", 0),
			BatchStop:   getEnvInt("EXTRACT_BATCH_STOP", 0),
			OutputPath:  getEnv("EXTRACT_OUTPUT_PATH", "extracted_time_series_batch.xlsx"),
		},
	}

	if err := validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validate(c *Config) error {
	if c.Trace.WindowSize < 1 {
		return errors.ConfigInvalid("TRACE_WINDOW_SIZE must be at least 1")
	}
	if c.Trace.Degree < 0 {
		return errors.ConfigInvalid("TRACE_DEGREE must be non-negative")
	}
	if c.Trace.WindowSize <= c.Trace.Degree {
		return errors.ConfigInvalid("TRACE_WINDOW_SIZE must exceed TRACE_DEGREE")
	}
	if c.Calibration.BinCount < 2 {
		return errors.ConfigInvalid("CALIBRATION_BINS must be at least 2")
	}
	if c.Calibration.SampleCount < 1 {
		return errors.ConfigInvalid("CALIBRATION_SAMPLES must be positive")
	}
	if c.Calibration.Runs < 1 {
		return errors.ConfigInvalid("CALIBRATION_RUNS must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
