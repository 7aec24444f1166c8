package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/modelcontextprotocol/crawler"

// Metrics holds the crawler's OpenTelemetry instruments. A nil *Metrics is
// valid and turns every recording call into a no-op, so components can be
// constructed without telemetry in tests.
type Metrics struct {
	pagesFetched     metric.Int64Counter
	fetchRetries     metric.Int64Counter
	duplicatePaths   metric.Int64Counter
	filesWritten     metric.Int64Counter
	subtreeFailures  metric.Int64Counter
	entriesCataloged metric.Int64Counter
}

// New sets up the Prometheus exporter backed meter provider, registers Go
// runtime instrumentation and returns the instruments plus the /metrics
// handler to mount.
func New() (*Metrics, http.Handler, error) {
	exporter, err := otelprom.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	if err := runtime.Start(runtime.WithMeterProvider(provider)); err != nil {
		return nil, nil, fmt.Errorf("failed to start runtime instrumentation: %w", err)
	}

	meter := provider.Meter(meterName)

	m := &Metrics{}
	for _, inst := range []struct {
		counter *metric.Int64Counter
		name    string
		desc    string
	}{
		{&m.pagesFetched, "crawler_pages_fetched_total", "Directory listing and registry pages fetched"},
		{&m.fetchRetries, "crawler_fetch_retries_total", "Fetch attempts that failed and were retried"},
		{&m.duplicatePaths, "crawler_duplicate_paths_total", "Entries skipped because their normalized path was already visited"},
		{&m.filesWritten, "crawler_files_written_total", "Files materialized to the local mirror"},
		{&m.subtreeFailures, "crawler_subtree_failures_total", "Subdirectory walks abandoned after retry exhaustion"},
		{&m.entriesCataloged, "crawler_entries_cataloged_total", "Server entries recorded in the catalog"},
	} {
		c, err := meter.Int64Counter(inst.name, metric.WithDescription(inst.desc))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create counter %s: %w", inst.name, err)
		}
		*inst.counter = c
	}

	return m, promhttp.Handler(), nil
}

func (m *Metrics) PageFetched(ctx context.Context) {
	if m != nil {
		m.pagesFetched.Add(ctx, 1)
	}
}

func (m *Metrics) FetchRetried(ctx context.Context) {
	if m != nil {
		m.fetchRetries.Add(ctx, 1)
	}
}

func (m *Metrics) DuplicatePath(ctx context.Context) {
	if m != nil {
		m.duplicatePaths.Add(ctx, 1)
	}
}

func (m *Metrics) FileWritten(ctx context.Context) {
	if m != nil {
		m.filesWritten.Add(ctx, 1)
	}
}

func (m *Metrics) SubtreeFailed(ctx context.Context) {
	if m != nil {
		m.subtreeFailures.Add(ctx, 1)
	}
}

func (m *Metrics) EntryCataloged(ctx context.Context) {
	if m != nil {
		m.entriesCataloged.Add(ctx, 1)
	}
}
