package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cor0nius/meteomap/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := NewAPIConfig(os.Stdout)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	cfg.logger.Info("configuration loaded", "forecast_base_url", cfg.forecastBaseURL, "dev_mode", cfg.devMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.connectCache(ctx); err != nil {
		cfg.logger.Error("couldn't connect to cache", "error", err)
		os.Exit(1)
	}

	scheduler := cfg.startTelemetry(ctx)

	server := &http.Server{
		Addr:              ":" + cfg.port,
		Handler:           cfg.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		cfg.logger.Info("starting server", "port", cfg.port)
		errCh <- server.ListenAndServe()
	}()

	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			cfg.logger.Error("server startup failed", "error", err)
			exitCode = 1
		}
	case <-ctx.Done():
		cfg.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := server.Shutdown(shutdownCtx); err != nil {
			cfg.logger.Error("server shutdown failed", "error", err)
			exitCode = 1
		}
		cancel()
	}

	if scheduler != nil {
		scheduler.Stop()
	}
	cfg.forecast.Reset()
	cfg.forecast.Wait()
	cfg.logger.Info("server stopped")

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// routes registers every endpoint and wraps the mux in the metrics and CORS
// middleware.
func (cfg *apiConfig) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/selection", cfg.handlerSelection)
	mux.HandleFunc("/api/selection/click", cfg.handlerSelectionClick)
	mux.HandleFunc("/api/selection/place", cfg.handlerSelectionPlace)
	mux.HandleFunc("/api/selection/confirm-point", cfg.handlerSelectionConfirmPoint)
	mux.HandleFunc("/api/selection/date", cfg.handlerSelectionDate)
	mux.HandleFunc("/api/selection/confirm-date", cfg.handlerSelectionConfirmDate)
	mux.HandleFunc("/api/selection/cancel", cfg.handlerSelectionCancel)

	mux.HandleFunc("/api/panel", cfg.handlerPanel)
	mux.HandleFunc("/api/panel/retry", cfg.handlerPanelRetry)
	mux.HandleFunc("/api/panel/close", cfg.handlerPanelClose)
	mux.HandleFunc("/api/panel/chart.png", cfg.handlerPanelChart)
	mux.HandleFunc("/api/report.pdf", cfg.handlerReport)

	mux.HandleFunc("/api/search", cfg.handlerSearch)
	mux.HandleFunc("/api/geocode/reverse", cfg.handlerReverseGeocode)
	mux.HandleFunc("/api/chat", cfg.handlerChat)
	mux.HandleFunc("/api/config", cfg.handlerConfig)

	mux.HandleFunc("/healthz", cfg.handlerHealthz)
	mux.Handle("/metrics", promhttp.Handler())

	if cfg.devMode {
		cfg.logger.Debug("development mode enabled. Registering /dev/reset-cache endpoint.")
		mux.HandleFunc("/dev/reset-cache", cfg.handlerResetCache)
	}

	return corsMiddleware(metricsMiddleware(mux))
}

// startTelemetry schedules the Cloud Monitoring push when GCP_PROJECT_ID is
// set. Failure to create the client only disables the push.
func (cfg *apiConfig) startTelemetry(ctx context.Context) *telemetry.Scheduler {
	if cfg.gcpProjectID == "" {
		return nil
	}
	writer, err := telemetry.NewCloudWriter(ctx)
	if err != nil {
		cfg.logger.Warn("couldn't create monitoring client, metrics push disabled", "error", err)
		return nil
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "meteomap"
	}
	exporter := telemetry.NewExporter(prometheus.DefaultGatherer, writer, cfg.gcpProjectID, hostname, cfg.logger)
	scheduler := telemetry.NewScheduler(exporter, cfg.metricsPushInterval, cfg.logger)

	cfg.logger.Info("starting metrics push", "project", cfg.gcpProjectID, "interval", cfg.metricsPushInterval.String())
	if err := scheduler.Start(); err != nil {
		cfg.logger.Warn("couldn't schedule metrics push", "error", err)
		_ = exporter.Close()
		return nil
	}
	return scheduler
}
