package middleware

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	otelinfra "marketplace-mock/internal/infrastructure/observability/otel"
)

func newObservedLogger(t *testing.T) (*otelinfra.Logger, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	return otelinfra.NewLogger(zap.New(core)), logs
}
