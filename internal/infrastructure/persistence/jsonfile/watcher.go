package jsonfile

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	otelinfra "marketplace-mock/internal/infrastructure/observability/otel"
)

// Watcher フィクスチャファイルの外部変更を検知してDBを再読み込み
type Watcher struct {
	db      *DB
	fsw     *fsnotify.Watcher
	target  string
	logger  *otelinfra.Logger
	metrics *otelinfra.Metrics
}

// NewWatcher フィクスチャファイルのあるディレクトリを監視するWatcherを作成
//
// エディタの置き換え保存にも追従するため、ファイルではなくディレクトリを監視する。
func NewWatcher(db *DB, logger *otelinfra.Logger, metrics *otelinfra.Metrics) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	target, err := filepath.Abs(db.Path())
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to resolve fixture path: %w", err)
	}

	if err := fsw.Add(filepath.Dir(target)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch fixture directory: %w", err)
	}

	return &Watcher{
		db:      db,
		fsw:     fsw,
		target:  target,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Run ctxがキャンセルされるまでイベントを処理
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()

	w.logger.Info(ctx, "Watching fixture for changes", map[string]interface{}{
		"path": w.target,
	})

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.matches(evt) {
				continue
			}
			w.reload(ctx)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(ctx, "Fixture watcher error received", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

func (w *Watcher) matches(evt fsnotify.Event) bool {
	if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) {
		return false
	}
	name, err := filepath.Abs(evt.Name)
	if err != nil {
		return false
	}
	return name == w.target
}

func (w *Watcher) reload(ctx context.Context) {
	changed, err := w.db.Reload()
	if err != nil {
		w.logger.Warn(ctx, "Fixture reload failed, keeping previous document", map[string]interface{}{
			"path":  w.target,
			"error": err.Error(),
		})
		if w.metrics != nil {
			w.metrics.RecordFixtureReload(ctx, "failed")
		}
		return
	}
	if !changed {
		return
	}

	w.logger.Info(ctx, "Fixture reloaded", map[string]interface{}{
		"path": w.target,
	})
	if w.metrics != nil {
		w.metrics.RecordFixtureReload(ctx, "success")
	}
}
