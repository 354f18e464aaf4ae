package steward

import (
	"context"
	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"time"
)

// userInfoFinderWithTelemetry implements UserInfoFinder with all methods wrapped with open telemetry metrics
type userInfoFinderWithTelemetry struct {
	base             UserInfoFinder
	attrs            metric.MeasurementOption
	calls            metric.Int64Counter
	errs             metric.Int64Counter
	processingMillis metric.Int64Histogram
}

// newUserInfoFinderWithTelemetry returns base decorated with open telemetry timing and count metrics
func newUserInfoFinderWithTelemetry(base UserInfoFinder, name string, meter metric.Meter) (f userInfoFinderWithTelemetry, err error) {
	f = userInfoFinderWithTelemetry{base: base, attrs: metric.WithAttributes(attribute.String("name", name))}

	if f.calls, err = meter.Int64Counter("userInfoFinderGetUserInfoCalls"); err != nil {
		return f, err
	}

	if f.errs, err = meter.Int64Counter("userInfoFinderGetUserInfoErrors"); err != nil {
		return f, err
	}

	if f.processingMillis, err = meter.Int64Histogram("userInfoFinderGetUserInfoProcessingTimeMillis", metric.WithUnit("ms")); err != nil {
		return f, err
	}

	return f, nil
}

// GetUserInfo implements UserInfoFinder
func (_d userInfoFinderWithTelemetry) GetUserInfo(userID string) (user *slack.User, err error) {
	_since := time.Now()
	defer func() {
		ctx := context.Background()
		if err != nil {
			_d.errs.Add(ctx, 1, _d.attrs)
		}

		_d.calls.Add(ctx, 1, _d.attrs)
		_d.processingMillis.Record(ctx, time.Since(_since).Milliseconds(), _d.attrs)
	}()
	return _d.base.GetUserInfo(userID)
}
