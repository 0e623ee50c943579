package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	otelinfra "marketplace-mock/internal/infrastructure/observability/otel"
)

// TracingMiddleware リクエストごとのサーバースパンを記録するミドルウェア
//
// 受信したtraceparentを引き継ぎ、レスポンスヘッダーにも書き戻す。
func TracingMiddleware() echo.MiddlewareFunc {
	tracer := otelinfra.Tracer("marketplace-mock")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			propagator := otel.GetTextMapPropagator()
			ctx := propagator.Extract(req.Context(), propagation.HeaderCarrier(req.Header))

			ctx, span := tracer.Start(ctx, req.Method+" "+c.Path(),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(routeAttributes(c)...),
			)
			defer span.End()

			propagator.Inject(ctx, propagation.HeaderCarrier(c.Response().Header()))
			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			status := c.Response().Status
			span.SetAttributes(attribute.Int("http.status_code", status))
			if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
				span.SetAttributes(attribute.String("http.request_id", id))
			}
			if err != nil {
				span.RecordError(err)
			}
			if status >= http.StatusInternalServerError {
				span.SetStatus(otelcodes.Error, http.StatusText(status))
			}

			return err
		}
	}
}

// routeAttributes ルートとモックリソースの属性
func routeAttributes(c echo.Context) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", c.Request().Method),
		attribute.String("http.route", c.Path()),
		attribute.String("http.target", c.Request().URL.RequestURI()),
	}
	for _, p := range []struct{ param, key string }{
		{"resource", "mock.resource"},
		{"id", "mock.record_id"},
		{"nested", "mock.nested_resource"},
	} {
		if v := c.Param(p.param); v != "" {
			attrs = append(attrs, attribute.String(p.key, v))
		}
	}
	return attrs
}
