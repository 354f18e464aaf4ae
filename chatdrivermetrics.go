package steward

import (
	"context"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"time"
)

// chatClientWithTelemetry implements ChatClient with all methods wrapped with open telemetry metrics
type chatClientWithTelemetry struct {
	base             ChatClient
	attrs            metric.MeasurementOption
	calls            metric.Int64Counter
	errs             metric.Int64Counter
	processingMillis metric.Int64Histogram
}

// newChatClientWithTelemetry returns base decorated with open telemetry timing and count metrics
func newChatClientWithTelemetry(base ChatClient, name string, meter metric.Meter) (c chatClientWithTelemetry, err error) {
	c = chatClientWithTelemetry{base: base, attrs: metric.WithAttributes(attribute.String("name", name))}

	if c.calls, err = meter.Int64Counter("chatClientCalls"); err != nil {
		return c, err
	}

	if c.errs, err = meter.Int64Counter("chatClientErrors"); err != nil {
		return c, err
	}

	if c.processingMillis, err = meter.Int64Histogram("chatClientProcessingTimeMillis", metric.WithUnit("ms")); err != nil {
		return c, err
	}

	return c, nil
}

func (_d chatClientWithTelemetry) record(method string, since time.Time, err error) {
	ctx := context.Background()
	m := metric.WithAttributes(attribute.String("method", method))

	if err != nil {
		_d.errs.Add(ctx, 1, _d.attrs, m)
	}

	_d.calls.Add(ctx, 1, _d.attrs, m)
	_d.processingMillis.Record(ctx, time.Since(since).Milliseconds(), _d.attrs, m)
}

// Reply implements ChatClient
func (_d chatClientWithTelemetry) Reply(channelID string, threadTimestamp string, authorID string, text string) (err error) {
	_since := time.Now()
	defer func() {
		_d.record("Reply", _since, err)
	}()
	return _d.base.Reply(channelID, threadTimestamp, authorID, text)
}

// DeleteMessage implements ChatClient
func (_d chatClientWithTelemetry) DeleteMessage(channelID string, messageID string) (err error) {
	_since := time.Now()
	defer func() {
		_d.record("DeleteMessage", _since, err)
	}()
	return _d.base.DeleteMessage(channelID, messageID)
}

// SendDirect implements ChatClient
func (_d chatClientWithTelemetry) SendDirect(memberID string, text string) (err error) {
	_since := time.Now()
	defer func() {
		_d.record("SendDirect", _since, err)
	}()
	return _d.base.SendDirect(memberID, text)
}
