package rest

import (
	"context"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	resourceapp "marketplace-mock/internal/application/resource"
	"marketplace-mock/internal/infrastructure/config"
	otelinfra "marketplace-mock/internal/infrastructure/observability/otel"
	"marketplace-mock/internal/presentation/rest/handler"
	restmiddleware "marketplace-mock/internal/presentation/rest/middleware"
)

// TokenPath フェイクトークン発行のパス
const TokenPath = "/api-security/om-auth/cloud/token"

// Router REST APIルーター
type Router struct {
	echo            *echo.Echo
	tokenHandler    *handler.TokenHandler
	resourceHandler *handler.ResourceHandler
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	resourceService *resourceapp.ResourceApplicationService,
) (*Router, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = JSONSerializer{}

	// ミドルウェアの外側で発生したエラー（panicの回復など）のみ処理
	e.HTTPErrorHandler = restmiddleware.HTTPErrorHandler(logger)

	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	setupMiddleware(e, cfg, logger, metrics)

	tokenHandler := handler.NewTokenHandler()
	resourceHandler := handler.NewResourceHandler(resourceService)

	setupRoutes(e, cfg, tokenHandler, resourceHandler)

	return &Router{
		echo:            e,
		tokenHandler:    tokenHandler,
		resourceHandler: resourceHandler,
	}, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, cfg *config.Config, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders: []string{
			handler.HeaderTotalCount,
			handler.HeaderLink,
		},
	}))

	// promhttpは自前で圧縮するため対象外
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			return cfg.OpenTelemetry.PrometheusEnabled() && c.Path() == cfg.OpenTelemetry.MetricsPath
		},
	}))
	e.Use(middleware.RequestID())
	e.Use(restmiddleware.TracingMiddleware())
	e.Use(restmiddleware.MetricsMiddleware(metrics))
	e.Use(restmiddleware.LoggingMiddleware(logger))
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))

	// 静的ファイル（ディレクトリが存在する場合のみ）
	if info, err := os.Stat(cfg.Static.Dir); err == nil && info.IsDir() {
		e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
			Root: cfg.Static.Dir,
			Skipper: func(c echo.Context) bool {
				m := c.Request().Method
				return m != http.MethodGet && m != http.MethodHead
			},
		}))
	}
}

// setupRoutes ルーティングを設定
//
// 静的なパスはパラメータ付きのパスより優先してマッチするため、
// フィクスチャのキーがトークンのパスと衝突しても横取りされない。
func setupRoutes(
	e *echo.Echo,
	cfg *config.Config,
	tokenHandler *handler.TokenHandler,
	resourceHandler *handler.ResourceHandler,
) {
	// フェイクトークン（読み取り専用モード・遅延の対象外）
	e.POST(TokenPath, tokenHandler.IssueToken)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.OpenTelemetry.PrometheusEnabled() {
		e.GET(cfg.OpenTelemetry.MetricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	mw := []echo.MiddlewareFunc{
		restmiddleware.NoCacheMiddleware(),
		restmiddleware.ReadOnlyMiddleware(cfg.Server.ReadOnly),
		restmiddleware.DelayMiddleware(cfg.Server.ResponseDelay),
	}

	e.GET("/", resourceHandler.Index, mw...)
	e.GET("/db", resourceHandler.Database, mw...)

	e.GET("/:resource", resourceHandler.List, mw...)
	e.POST("/:resource", resourceHandler.Create, mw...)
	e.PUT("/:resource", resourceHandler.ReplaceSingular, mw...)
	e.PATCH("/:resource", resourceHandler.PatchSingular, mw...)

	e.GET("/:resource/:id", resourceHandler.Get, mw...)
	e.PUT("/:resource/:id", resourceHandler.Replace, mw...)
	e.PATCH("/:resource/:id", resourceHandler.Patch, mw...)
	e.DELETE("/:resource/:id", resourceHandler.Delete, mw...)

	e.GET("/:resource/:id/:nested", resourceHandler.ListNested, mw...)
	e.POST("/:resource/:id/:nested", resourceHandler.CreateNested, mw...)
}

// ServeHTTP http.Handlerとして振る舞う
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.echo.ServeHTTP(w, req)
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	return r.echo.Start(address)
}

// Shutdown 処理中のリクエストを待ってサーバーを停止
func (r *Router) Shutdown(ctx context.Context) error {
	return r.echo.Shutdown(ctx)
}
