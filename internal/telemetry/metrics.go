package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/libbuild"
)

// Metrics holds the OpenTelemetry instruments recorded by library builds
type Metrics struct {
	BuildsTotal       metric.Int64Counter
	BuildErrorsTotal  metric.Int64Counter
	BuildDuration     metric.Float64Histogram
	EntryPointsTotal  metric.Int64Counter
	OutputBytesTotal  metric.Int64Counter
	DeclarationsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.BuildsTotal, _ = meter.Int64Counter(
		"libbuild.builds.total",
		metric.WithDescription("Total number of format builds run"),
		metric.WithUnit("{build}"),
	)

	m.BuildErrorsTotal, _ = meter.Int64Counter(
		"libbuild.builds.errors.total",
		metric.WithDescription("Total number of format builds that reported errors"),
		metric.WithUnit("{error}"),
	)

	m.BuildDuration, _ = meter.Float64Histogram(
		"libbuild.builds.duration",
		metric.WithDescription("Duration of a single format build"),
		metric.WithUnit("ms"),
	)

	m.EntryPointsTotal, _ = meter.Int64Counter(
		"libbuild.entrypoints.total",
		metric.WithDescription("Total number of entry points built"),
		metric.WithUnit("{entrypoint}"),
	)

	m.OutputBytesTotal, _ = meter.Int64Counter(
		"libbuild.outputs.bytes.total",
		metric.WithDescription("Total size of written output files"),
		metric.WithUnit("By"),
	)

	m.DeclarationsTotal, _ = meter.Int64Counter(
		"libbuild.declarations.total",
		metric.WithDescription("Total number of declaration emission runs"),
		metric.WithUnit("{run}"),
	)

	return m
}
