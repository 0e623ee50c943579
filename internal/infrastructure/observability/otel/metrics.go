package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー数
	ErrorCount metric.Int64Counter

	// リソースの変更件数
	MutationCount metric.Int64Counter

	// フィクスチャの再読み込み回数
	ReloadCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	mutationCount, err := meter.Int64Counter(
		"resource_mutations_total",
		metric.WithDescription("Total number of fixture resource mutations"),
	)
	if err != nil {
		return nil, err
	}

	reloadCount, err := meter.Int64Counter(
		"fixture_reloads_total",
		metric.WithDescription("Total number of fixture file reloads"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCount:  requestCount,
		ResponseTime:  responseTime,
		ErrorCount:    errorCount,
		MutationCount: mutationCount,
		ReloadCount:   reloadCount,
	}, nil
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}

// RecordMutation リソースの変更を記録
func (m *Metrics) RecordMutation(ctx context.Context, resourceName, operation string) {
	m.MutationCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("resource", resourceName),
			attribute.String("operation", operation),
		),
	)
}

// RecordFixtureReload フィクスチャの再読み込みを記録
func (m *Metrics) RecordFixtureReload(ctx context.Context, result string) {
	m.ReloadCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("result", result),
		),
	)
}
