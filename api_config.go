package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/cor0nius/meteomap/internal/assistant"
	"github.com/cor0nius/meteomap/internal/forecastclient"
	"github.com/cor0nius/meteomap/internal/geocode"
	"github.com/cor0nius/meteomap/internal/panel"
	"github.com/cor0nius/meteomap/internal/report"
	"github.com/cor0nius/meteomap/internal/selection"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type apiConfig struct {
	forecastBaseURL     string
	httpClient          *http.Client
	forecast            *forecastclient.Client
	panel               *panel.Panel
	selection           *selection.Controller
	geocoder            geocode.Provider
	searcher            *geocode.Searcher
	geocodeCacheTTL     time.Duration
	assistant           *assistant.Assistant
	reports             *report.Exporter
	validate            *validator.Validate
	redisURL            string
	gcpProjectID        string
	metricsPushInterval time.Duration
	port                string
	devMode             bool
	logger              *slog.Logger
}

// getRequiredEnv retrieves an environment variable by key and fails if it's unset or empty.
func getRequiredEnv(key string) (string, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return "", fmt.Errorf("environment variable %s must be set", key)
	}
	return val, nil
}

// getEnv retrieves an environment variable by key, with a fallback value.
func getEnv(key, fallback string, logger *slog.Logger) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	logger.Info("environment variable not set, using fallback", "key", key, "fallback", fallback)
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer, with a fallback value.
func getEnvAsInt(key string, fallback int, logger *slog.Logger) int {
	valStr, ok := os.LookupEnv(key)
	if !ok || valStr == "" {
		logger.Info("environment variable not set, using fallback", "key", key, "fallback", fallback)
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		logger.Warn("invalid integer value for environment variable, using fallback", "key", key, "value", valStr, "error", err)
		return fallback
	}
	return val
}

func newLogger(w io.Writer, devMode bool) *slog.Logger {
	if devMode {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, nil))
}

// NewAPIConfig reads the environment and wires the forecast, selection,
// geocoding, assistant and report components. It does not touch the network;
// the optional Redis cache is connected separately by connectCache.
func NewAPIConfig(logOutput io.Writer) (*apiConfig, error) {
	devMode, err := strconv.ParseBool(os.Getenv("DEV_MODE"))
	if err != nil {
		devMode = false
	}
	logger := newLogger(logOutput, devMode)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on environment variables")
	}

	forecastBaseURL, err := getRequiredEnv("FORECAST_BASE_URL")
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(getEnvAsInt("FORECAST_TIMEOUT_SEC", 30, logger)) * time.Second
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: &metricsTransport{wrapped: http.DefaultTransport},
	}

	forecast := forecastclient.New(forecastBaseURL, httpClient, logger, forecastMetrics{})
	display := panel.New(forecast)
	controller := selection.NewController(logger)
	controller.OnFinalize(display.Show)

	cfg := &apiConfig{
		forecastBaseURL:     forecastBaseURL,
		httpClient:          httpClient,
		forecast:            forecast,
		panel:               display,
		selection:           controller,
		geocodeCacheTTL:     time.Duration(getEnvAsInt("GEOCODE_CACHE_TTL_MIN", 1440, logger)) * time.Minute,
		reports:             report.NewExporter(logger),
		validate:            validator.New(validator.WithRequiredStructEnabled()),
		redisURL:            os.Getenv("REDIS_URL"),
		gcpProjectID:        os.Getenv("GCP_PROJECT_ID"),
		metricsPushInterval: time.Duration(getEnvAsInt("METRICS_PUSH_INTERVAL_MIN", 5, logger)) * time.Minute,
		port:                getEnv("PORT", "8080", logger),
		devMode:             devMode,
		logger:              logger,
	}

	gmpKey := os.Getenv("GMP_KEY")
	if gmpKey != "" {
		gmpGeocodeURL, err := getRequiredEnv("GMP_GEOCODE_URL")
		if err != nil {
			return nil, err
		}
		rps := getEnvAsInt("GEOCODE_RPS", 5, logger)
		cfg.geocoder = geocode.NewGmpService(gmpKey, gmpGeocodeURL, httpClient, float64(rps))
	} else {
		logger.Info("GMP_KEY not set, search accepts coordinates only")
	}
	cfg.searcher = geocode.NewSearcher(cfg.geocoder, geocode.NopCache{}, cfg.geocodeCacheTTL, logger)

	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		model := getEnv("GEMINI_MODEL", "gemini-2.5-flash", logger)
		gen, err := assistant.NewGeminiGenerator(context.Background(), apiKey, model)
		if err != nil {
			return nil, fmt.Errorf("couldn't create assistant: %w", err)
		}
		cfg.assistant = assistant.New(gen, getEnvAsInt("CHAT_RPM", 20, logger), logger)
	} else {
		logger.Info("GEMINI_API_KEY not set, chat assistant disabled")
	}

	return cfg, nil
}

// connectCache dials Redis and swaps the searcher's cache for it. Without
// REDIS_URL the searcher keeps working uncached.
func (cfg *apiConfig) connectCache(ctx context.Context) error {
	if cfg.redisURL == "" {
		cfg.logger.Info("REDIS_URL not set, geocode cache disabled")
		return nil
	}
	opt, err := redis.ParseURL(cfg.redisURL)
	if err != nil {
		return fmt.Errorf("could not parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("could not connect to Redis: %w", err)
	}
	cfg.searcher = geocode.NewSearcher(cfg.geocoder, geocode.NewRedisCache(client), cfg.geocodeCacheTTL, cfg.logger)
	return nil
}
