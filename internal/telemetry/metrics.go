package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/graphgate/graphgate"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Registry metrics
	GraphsCreatedTotal      metric.Int64Counter
	GraphsDeletedTotal      metric.Int64Counter
	GraphCreateErrorsTotal  metric.Int64Counter
	EngineCompensationTotal metric.Int64Counter

	// Authorization metrics
	AuthzDecisionsTotal metric.Int64Counter
	AuthzDeniedTotal    metric.Int64Counter

	// Schema metrics
	NodeTypesDefinedTotal   metric.Int64Counter
	EdgeTypesDefinedTotal   metric.Int64Counter
	ValidationFailuresTotal metric.Int64Counter

	// Vertex metrics
	VerticesCreatedTotal metric.Int64Counter
	VertexWriteDuration  metric.Float64Histogram
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

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.GraphsCreatedTotal, _ = meter.Int64Counter(
		"graphgate.graphs.created.total",
		metric.WithDescription("Total number of graphs created"),
		metric.WithUnit("{graph}"),
	)

	m.GraphsDeletedTotal, _ = meter.Int64Counter(
		"graphgate.graphs.deleted.total",
		metric.WithDescription("Total number of graphs deleted"),
		metric.WithUnit("{graph}"),
	)

	m.GraphCreateErrorsTotal, _ = meter.Int64Counter(
		"graphgate.graphs.create_errors.total",
		metric.WithDescription("Total number of failed graph create attempts"),
		metric.WithUnit("{error}"),
	)

	m.EngineCompensationTotal, _ = meter.Int64Counter(
		"graphgate.graphs.compensations.total",
		metric.WithDescription("Total number of engine allocations rolled back after a failed registry commit"),
		metric.WithUnit("{graph}"),
	)

	m.AuthzDecisionsTotal, _ = meter.Int64Counter(
		"graphgate.authz.decisions.total",
		metric.WithDescription("Total number of authorization decisions"),
		metric.WithUnit("{decision}"),
	)

	m.AuthzDeniedTotal, _ = meter.Int64Counter(
		"graphgate.authz.denied.total",
		metric.WithDescription("Total number of denied authorization decisions"),
		metric.WithUnit("{decision}"),
	)

	m.NodeTypesDefinedTotal, _ = meter.Int64Counter(
		"graphgate.schema.node_types.total",
		metric.WithDescription("Total number of node types defined"),
		metric.WithUnit("{type}"),
	)

	m.EdgeTypesDefinedTotal, _ = meter.Int64Counter(
		"graphgate.schema.edge_types.total",
		metric.WithDescription("Total number of edge types defined"),
		metric.WithUnit("{type}"),
	)

	m.ValidationFailuresTotal, _ = meter.Int64Counter(
		"graphgate.schema.validation_failures.total",
		metric.WithDescription("Total number of vertex payloads rejected by schema validation"),
		metric.WithUnit("{payload}"),
	)

	m.VerticesCreatedTotal, _ = meter.Int64Counter(
		"graphgate.vertices.created.total",
		metric.WithDescription("Total number of vertices created"),
		metric.WithUnit("{vertex}"),
	)

	m.VertexWriteDuration, _ = meter.Float64Histogram(
		"graphgate.vertices.write.duration",
		metric.WithDescription("Duration of vertex write operations"),
		metric.WithUnit("ms"),
	)

	return m
}
