package steward

import (
	"context"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"time"
)

const (
	outcomeApplied = "applied"
	outcomeFailed  = "failed"
)

// instrumenter holds the dispatcher instruments
type instrumenter struct {
	appName string
	attrs   metric.MeasurementOption

	eventsSeen                   metric.Int64Counter
	eventsProcessed              metric.Int64Counter
	eventsIgnored                metric.Int64Counter
	effectsApplied               metric.Int64Counter
	settingsDegraded             metric.Int64Counter
	eventProcessingLatencyMillis metric.Int64Histogram
	eventDispatchLatencyMillis   metric.Int64Histogram
	slackLatencyMillis           metric.Int64Gauge
}

// newInstrumenter creates the dispatcher instruments on meter
func newInstrumenter(appName string, meter metric.Meter) (ins *instrumenter, err error) {
	ins = new(instrumenter)
	ins.appName = appName
	ins.attrs = metric.WithAttributes(attribute.String("name", appName))

	if ins.eventsSeen, err = meter.Int64Counter("eventsSeen", metric.WithDescription("Chat message events received")); err != nil {
		return nil, err
	}

	if ins.eventsProcessed, err = meter.Int64Counter("eventsProcessed", metric.WithDescription("Chat message events run through the policy")); err != nil {
		return nil, err
	}

	if ins.eventsIgnored, err = meter.Int64Counter("eventsIgnored", metric.WithDescription("Chat message events filtered out before processing")); err != nil {
		return nil, err
	}

	if ins.effectsApplied, err = meter.Int64Counter("effectsApplied", metric.WithDescription("Effects applied by kind and outcome")); err != nil {
		return nil, err
	}

	if ins.settingsDegraded, err = meter.Int64Counter("settingsDegraded", metric.WithDescription("Events processed with default settings because the store failed")); err != nil {
		return nil, err
	}

	if ins.eventProcessingLatencyMillis, err = meter.Int64Histogram("eventProcessingLatencyMillis", metric.WithUnit("ms")); err != nil {
		return nil, err
	}

	if ins.eventDispatchLatencyMillis, err = meter.Int64Histogram("eventDispatchLatencyMillis", metric.WithUnit("ms")); err != nil {
		return nil, err
	}

	if ins.slackLatencyMillis, err = meter.Int64Gauge("slackLatencyMillis", metric.WithUnit("ms")); err != nil {
		return nil, err
	}

	return ins, nil
}

func (ins *instrumenter) recordEffect(kind string, applied bool) {
	outcome := outcomeApplied
	if !applied {
		outcome = outcomeFailed
	}

	ins.effectsApplied.Add(context.Background(), 1, metric.WithAttributes(attribute.String("name", ins.appName), attribute.String("kind", kind), attribute.String("outcome", outcome)))
}

func (ins *instrumenter) recordIgnored(reason string) {
	ins.eventsIgnored.Add(context.Background(), 1, metric.WithAttributes(attribute.String("name", ins.appName), attribute.String("reason", reason)))
}

type timed func()

// measure returns the execution duration of a timed function
func measure(operation timed) (d time.Duration) {
	before := time.Now()

	operation()

	return time.Since(before)
}
