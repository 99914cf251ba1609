package main

import (
	"time"

	"github.com/cor0nius/meteomap/internal/forecastclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// This file defines the Prometheus metrics that are exposed by the application.

// httpRequestsTotal is a Prometheus counter vector that tracks the total number of HTTP requests.
// It is partitioned by the request's URL path, HTTP method, and the resulting status code.
var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "meteomap_http_requests_total",
	Help: "Total number of HTTP requests by path, method and code.",
}, []string{"path", "method", "code"})

// externalRequestDuration tracks outbound calls to the forecast and geocoding APIs by host.
var externalRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "meteomap_external_request_duration_seconds",
	Help:    "Duration of outbound HTTP requests by host.",
	Buckets: prometheus.DefBuckets,
}, []string{"host"})

var forecastFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "meteomap_forecast_fetches_total",
	Help: "Total number of completed forecast fetches by result.",
}, []string{"result"})

var forecastStaleDiscardsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "meteomap_forecast_stale_discards_total",
	Help: "Forecast results dropped because a newer selection was submitted.",
})

var forecastFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "meteomap_forecast_fetch_duration_seconds",
	Help:    "Duration of forecast fetches, including body decoding.",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
})

// forecastMetrics records forecast client events.
type forecastMetrics struct{}

func (forecastMetrics) ObserveFetch(kind forecastclient.Kind, elapsed time.Duration) {
	forecastFetchesTotal.WithLabelValues(string(kind)).Inc()
	forecastFetchDuration.Observe(elapsed.Seconds())
}

func (forecastMetrics) ObserveStale() {
	forecastStaleDiscardsTotal.Inc()
}
