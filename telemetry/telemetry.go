// Package telemetry sets up the open telemetry meter provider steward records its metrics with
// and exposes them in the prometheus format
package telemetry

import (
	"context"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"net/http"
)

// Telemetry holds a meter provider backed by a prometheus exporter
type Telemetry struct {
	name          string
	meterProvider *sdkmetric.MeterProvider
	handler       http.Handler
}

// New creates a meter provider exporting to its own prometheus registry. The registry also
// carries the go runtime and process collectors
func New(name string) (t *Telemetry, err error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, errors.Wrap(err, "creating prometheus exporter")
	}

	t = new(Telemetry)
	t.name = name
	t.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	t.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return t, nil
}

// Install makes the meter provider the global one so that instrumentation libraries record to it
func (t *Telemetry) Install() {
	otel.SetMeterProvider(t.meterProvider)
}

// MeterProvider returns the meter provider
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// Meter returns the meter named after the application
func (t *Telemetry) Meter() metric.Meter {
	return t.meterProvider.Meter(t.name)
}

// Handler returns the http handler serving the metrics in the prometheus format
func (t *Telemetry) Handler() http.Handler {
	return t.handler
}

// Shutdown flushes and stops the meter provider
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.meterProvider.Shutdown(ctx)
}
