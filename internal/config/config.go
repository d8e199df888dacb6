package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds the process configuration, read from the environment.
type AppConfig struct {
	Port string

	// ModelPath locates the serialized ensemble artifact.
	ModelPath string

	// NASA POWER client settings.
	NASAPowerBaseURL string
	HTTPTimeout      time.Duration
	FetchMaxRetries  int
	FetchRetryDelay  time.Duration

	// MADPerKWh converts production to financial savings.
	MADPerKWh float64

	// GeocoderAPIKey enables city/country request resolution when set.
	GeocoderAPIKey string

	// Ephemeral export retention.
	ExportMaxHistory    int
	ExportMaxAge        time.Duration
	ExportSweepInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.ModelPath = getenvDefault("MODEL_PATH", "final_pv_model.json")
	cfg.NASAPowerBaseURL = getenvDefault("NASA_POWER_BASE_URL", "https://power.larc.nasa.gov/api/temporal")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	timeout, err := getenvDuration("HTTP_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = timeout

	cfg.FetchMaxRetries = getenvInt("FETCH_MAX_RETRIES", 3)

	retryDelay, err := getenvDuration("FETCH_RETRY_DELAY", "1s")
	if err != nil {
		return nil, err
	}
	cfg.FetchRetryDelay = retryDelay

	cfg.MADPerKWh = getenvFloat("MAD_PER_KWH", 1.2)

	cfg.ExportMaxHistory = getenvInt("EXPORT_MAX_HISTORY", 50)

	maxAge, err := getenvDuration("EXPORT_MAX_AGE", "1h")
	if err != nil {
		return nil, err
	}
	cfg.ExportMaxAge = maxAge

	sweep, err := getenvDuration("EXPORT_SWEEP_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}
	cfg.ExportSweepInterval = sweep

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
