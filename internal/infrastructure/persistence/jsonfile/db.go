package jsonfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/renameio/v2"

	"marketplace-mock/internal/domain/resource"
	"marketplace-mock/internal/infrastructure/config"
)

// ErrInvalidFixture フィクスチャの内容が不正なエラー
var ErrInvalidFixture = errors.New("invalid fixture document")

// DB フィクスチャファイルを保持するインメモリのJSONドキュメント
type DB struct {
	path    string
	persist bool

	mu          sync.RWMutex
	data        map[string]interface{}
	lastWritten []byte
}

// NewDB フィクスチャファイルを読み込んでDBを作成
//
// ファイルが存在しない場合は空のドキュメントから始める。
func NewDB(cfg *config.FixtureConfig) (*DB, error) {
	db := &DB{
		path:    cfg.Path,
		persist: cfg.Persist,
	}

	content, err := os.ReadFile(cfg.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		db.data = make(map[string]interface{})
		if db.persist {
			if err := db.flush(db.data); err != nil {
				return nil, err
			}
		}
		return db, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	data, err := decodeDocument(content)
	if err != nil {
		return nil, err
	}
	db.data = data
	db.lastWritten = content

	return db, nil
}

// Path フィクスチャファイルのパス
func (db *DB) Path() string {
	return db.path
}

// View 読み取りロックの下でドキュメントを参照
func (db *DB) View(fn func(data map[string]interface{}) error) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return fn(db.data)
}

// Update 書き込みロックの下でドキュメントを変更し、永続化が有効ならファイルへ書き出す
//
// fnはドキュメントのコピーを受け取る。fnまたは書き出しが失敗した場合、メモリ上のドキュメントは変更されない。
func (db *DB) Update(fn func(data map[string]interface{}) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	working := resource.CloneValue(db.data).(map[string]interface{})
	if err := fn(working); err != nil {
		return err
	}
	if db.persist {
		if err := db.flush(working); err != nil {
			return err
		}
	}
	db.data = working
	return nil
}

// Reload ファイルから読み込み直す
//
// 自身が最後に書き出した内容と同じ場合は何もしない。不正な内容の場合は現在のドキュメントを保持する。
func (db *DB) Reload() (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	content, err := os.ReadFile(db.path)
	if err != nil {
		return false, fmt.Errorf("failed to read fixture: %w", err)
	}
	if bytes.Equal(content, db.lastWritten) {
		return false, nil
	}

	data, err := decodeDocument(content)
	if err != nil {
		return false, err
	}
	db.data = data
	db.lastWritten = content

	return true, nil
}

// flush ドキュメントをアトミックにファイルへ書き出す（呼び出し側でロックを保持）
func (db *DB) flush(data map[string]interface{}) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode fixture: %w", err)
	}
	content = append(content, '\n')

	if err := renameio.WriteFile(db.path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write fixture: %w", err)
	}

	db.lastWritten = content
	return nil
}

func decodeDocument(content []byte) (map[string]interface{}, error) {
	var v interface{}
	if err := resource.Unmarshal(content, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	data, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: root must be a JSON object", ErrInvalidFixture)
	}
	return data, nil
}
