package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	resourceapp "marketplace-mock/internal/application/resource"
	"marketplace-mock/internal/infrastructure/config"
	otelinfra "marketplace-mock/internal/infrastructure/observability/otel"
	"marketplace-mock/internal/infrastructure/persistence/jsonfile"
	"marketplace-mock/internal/presentation/rest"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := otelinfra.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Error("Server exited with error", zap.Error(err))
		_ = zl.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry)
	if err != nil {
		return err
	}
	defer shutdownWithTimeout(zl, "tracer", tracerShutdown)

	meterShutdown, err := otelinfra.InitMeter(&cfg.OpenTelemetry)
	if err != nil {
		return err
	}
	defer shutdownWithTimeout(zl, "meter", meterShutdown)

	// ロガーとメトリクスの初期化
	logger := otelinfra.NewLogger(zl)
	metrics, err := otelinfra.NewMetrics("marketplace-mock")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// フィクスチャの読み込み
	db, err := jsonfile.NewDB(&cfg.Fixture)
	if err != nil {
		return err
	}

	if cfg.Fixture.Watch {
		watcher, err := jsonfile.NewWatcher(db, logger, metrics)
		if err != nil {
			return err
		}
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error(ctx, "Fixture watcher stopped", err, nil)
			}
		}()
	}

	repo := jsonfile.NewResourceRepository(db, cfg.Fixture.IDField)
	resourceService := resourceapp.NewResourceApplicationService(repo, cfg.Fixture.IDField, logger, metrics)

	// REST APIルーターの初期化
	router, err := rest.NewRouter(cfg, logger, metrics, resourceService)
	if err != nil {
		return err
	}

	address := cfg.Server.Address()
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Mock server starting", map[string]interface{}{
			"address":   address,
			"fixture":   cfg.Fixture.Path,
			"read_only": cfg.Server.ReadOnly,
			"watch":     cfg.Fixture.Watch,
		})
		if err := router.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// シグナルまたは起動エラーを待機
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			return err
		}
	}

	logger.Info(context.Background(), "Shutting down server", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info(context.Background(), "Server stopped", nil)
	return nil
}

func shutdownWithTimeout(zl *zap.Logger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		zl.Warn("Failed to shutdown "+name, zap.Error(err))
	}
}
