// Package telemetry pushes the service's Prometheus metrics to Google Cloud
// Monitoring on a schedule.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	monitoring "cloud.google.com/go/monitoring/apiv3/v2"
	"cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/genproto/googleapis/api/distribution"
	"google.golang.org/genproto/googleapis/api/metric"
	"google.golang.org/genproto/googleapis/api/monitoredres"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Cloud Monitoring accepts at most this many series per request.
const maxSeriesPerRequest = 200

// Writer stores time series in a monitoring backend.
type Writer interface {
	Write(ctx context.Context, projectID string, series []*monitoringpb.TimeSeries) error
}

// CloudWriter writes to Google Cloud Monitoring.
type CloudWriter struct {
	client *monitoring.MetricClient
}

func NewCloudWriter(ctx context.Context) (*CloudWriter, error) {
	client, err := monitoring.NewMetricClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create monitoring client: %w", err)
	}
	return &CloudWriter{client: client}, nil
}

func (w *CloudWriter) Write(ctx context.Context, projectID string, series []*monitoringpb.TimeSeries) error {
	for start := 0; start < len(series); start += maxSeriesPerRequest {
		end := min(start+maxSeriesPerRequest, len(series))
		req := &monitoringpb.CreateTimeSeriesRequest{
			Name:       "projects/" + projectID,
			TimeSeries: series[start:end],
		}
		if err := w.client.CreateTimeSeries(ctx, req); err != nil {
			return fmt.Errorf("failed to write time series data: %w", err)
		}
	}
	return nil
}

func (w *CloudWriter) Close() error {
	return w.client.Close()
}

// Exporter converts gathered metric families into Cloud Monitoring series.
type Exporter struct {
	gatherer  prometheus.Gatherer
	writer    Writer
	projectID string
	instance  string
	logger    *slog.Logger
	now       func() time.Time
}

func NewExporter(gatherer prometheus.Gatherer, writer Writer, projectID, instance string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		gatherer:  gatherer,
		writer:    writer,
		projectID: projectID,
		instance:  instance,
		logger:    logger,
		now:       time.Now,
	}
}

// Push gathers the current metrics and writes them.
func (e *Exporter) Push(ctx context.Context) error {
	families, err := e.gatherer.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	series := e.convert(families)
	if len(series) == 0 {
		e.logger.Info("no metric samples found to ingest")
		return nil
	}
	if err := e.writer.Write(ctx, e.projectID, series); err != nil {
		return fmt.Errorf("failed to ingest metrics: %w", err)
	}
	e.logger.Debug("pushed metrics", "series", len(series))
	return nil
}

// Close releases the writer if it holds a connection.
func (e *Exporter) Close() error {
	if c, ok := e.writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// convert handles counter, gauge, untyped and histogram families. Summaries
// are skipped.
func (e *Exporter) convert(families []*dto.MetricFamily) []*monitoringpb.TimeSeries {
	resource := &monitoredres.MonitoredResource{
		Type: "prometheus_target",
		Labels: map[string]string{
			"project_id": e.projectID,
			"location":   "europe-west1",
			"cluster":    "__gce__",
			"namespace":  "meteomap",
			"job":        "meteomap",
			"instance":   e.instance,
		},
	}

	var timeSeriesList []*monitoringpb.TimeSeries
	now := timestamppb.New(e.now())

	for _, mf := range families {
		name := mf.GetName()
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}

			var point *monitoringpb.Point
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				point = createPoint(now, m.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				point = createPoint(now, m.GetGauge().GetValue())
			case dto.MetricType_UNTYPED:
				point = createPoint(now, m.GetUntyped().GetValue())
			case dto.MetricType_HISTOGRAM:
				point = createDistributionPoint(now, m.GetHistogram(), e.logger)
			case dto.MetricType_SUMMARY:
				e.logger.Debug("skipping metric with unhandled summary type", "metric", name)
				continue
			default:
				e.logger.Warn("skipping metric with unhandled type", "metric", name, "type", mf.GetType())
				continue
			}

			timeSeriesList = append(timeSeriesList, &monitoringpb.TimeSeries{
				Metric: &metric.Metric{
					Type:   "prometheus.googleapis.com/" + name,
					Labels: labels,
				},
				Resource: resource,
				Points:   []*monitoringpb.Point{point},
			})
		}
	}
	return timeSeriesList
}

func createPoint(timestamp *timestamppb.Timestamp, value float64) *monitoringpb.Point {
	return &monitoringpb.Point{
		Interval: &monitoringpb.TimeInterval{
			EndTime: timestamp,
		},
		Value: &monitoringpb.TypedValue{
			Value: &monitoringpb.TypedValue_DoubleValue{
				DoubleValue: value,
			},
		},
	}
}

// createDistributionPoint turns cumulative Prometheus buckets into per-bucket
// counts. The +Inf bucket contributes a count but no bound.
func createDistributionPoint(timestamp *timestamppb.Timestamp, h *dto.Histogram, logger *slog.Logger) *monitoringpb.Point {
	promBuckets := h.GetBucket()
	var bounds []float64
	bucketCounts := make([]int64, 0, len(promBuckets)+1)
	var lastCumulativeCount uint64

	for i, b := range promBuckets {
		if !math.IsInf(b.GetUpperBound(), 1) {
			bounds = append(bounds, b.GetUpperBound())
		}
		cumulativeCount := b.GetCumulativeCount()
		bucketCounts = append(bucketCounts, capCount(cumulativeCount-lastCumulativeCount, "bucket", i, logger))
		lastCumulativeCount = cumulativeCount
	}
	if len(bucketCounts) == len(bounds) {
		// client_golang omits the +Inf bucket from the exposition.
		bucketCounts = append(bucketCounts, capCount(h.GetSampleCount()-lastCumulativeCount, "bucket", len(promBuckets), logger))
	}

	var mean float64
	if h.GetSampleCount() > 0 {
		mean = h.GetSampleSum() / float64(h.GetSampleCount())
	}

	dist := &distribution.Distribution{
		Count: capCount(h.GetSampleCount(), "sample_count", 0, logger),
		Mean:  mean,
		BucketOptions: &distribution.Distribution_BucketOptions{
			Options: &distribution.Distribution_BucketOptions_ExplicitBuckets{
				ExplicitBuckets: &distribution.Distribution_BucketOptions_Explicit{
					Bounds: bounds,
				},
			},
		},
		BucketCounts: bucketCounts,
	}

	return &monitoringpb.Point{
		Interval: &monitoringpb.TimeInterval{
			EndTime: timestamp,
		},
		Value: &monitoringpb.TypedValue{
			Value: &monitoringpb.TypedValue_DistributionValue{
				DistributionValue: dist,
			},
		},
	}
}

func capCount(v uint64, what string, index int, logger *slog.Logger) int64 {
	if v > math.MaxInt64 {
		logger.Warn("histogram count exceeds MaxInt64, capping value", "field", what, "index", index, "value", v)
		return math.MaxInt64
	}
	return int64(v)
}
