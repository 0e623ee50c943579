package jsonfile

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-mock/internal/infrastructure/config"
)

const sampleFixture = `{
  "posts": [
    {"id": 1, "title": "json-server", "author": "typicode"},
    {"id": 2, "title": "hello", "author": "someone"}
  ],
  "comments": [
    {"id": 1, "body": "some comment", "postId": 1},
    {"id": 2, "body": "other comment", "postId": 2}
  ],
  "profile": {"name": "typicode"}
}`

func writeFixture(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestDB(t *testing.T, content string, persist bool) *DB {
	t.Helper()

	db, err := NewDB(&config.FixtureConfig{
		Path:    writeFixture(t, content),
		IDField: "id",
		Persist: persist,
	})
	require.NoError(t, err)
	return db
}

func TestNewDB(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "正常系: オブジェクトのドキュメント", content: sampleFixture},
		{name: "正常系: 空のオブジェクト", content: `{}`},
		{name: "異常系: 不正なJSON", content: `{"posts": [`, wantErr: true},
		{name: "異常系: ルートが配列", content: `[]`, wantErr: true},
		{name: "異常系: 空ファイル", content: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := NewDB(&config.FixtureConfig{
				Path:    writeFixture(t, tt.content),
				IDField: "id",
			})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFixture)
				assert.Nil(t, db)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, db)
		})
	}
}

func TestNewDB_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")

	db, err := NewDB(&config.FixtureConfig{Path: path, IDField: "id", Persist: true})
	require.NoError(t, err)

	_ = db.View(func(data map[string]interface{}) error {
		assert.Empty(t, data)
		return nil
	})

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(content))
}

func TestNewDB_MissingFileWithoutPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")

	_, err := NewDB(&config.FixtureConfig{Path: path, IDField: "id", Persist: false})
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDB_UpdatePersists(t *testing.T) {
	db := newTestDB(t, `{"posts": []}`, true)

	err := db.Update(func(data map[string]interface{}) error {
		data["posts"] = append(data["posts"].([]interface{}), map[string]interface{}{"id": 1})
		return nil
	})
	require.NoError(t, err)

	content, err := os.ReadFile(db.Path())
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"posts\": [\n    {\n      \"id\": 1\n    }\n  ]\n}\n", string(content))

	entries, err := os.ReadDir(filepath.Dir(db.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestDB_UpdateWithoutPersist(t *testing.T) {
	db := newTestDB(t, `{"posts": []}`, false)

	err := db.Update(func(data map[string]interface{}) error {
		data["posts"] = []interface{}{map[string]interface{}{"id": 1}}
		return nil
	})
	require.NoError(t, err)

	content, err := os.ReadFile(db.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"posts": []}`, string(content))
}

func TestDB_UpdateFailureKeepsDocument(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, db *DB)
		fn      func(data map[string]interface{}) error
		wantErr error
	}{
		{
			name: "異常系: コールバックのエラー",
			fn: func(data map[string]interface{}) error {
				data["posts"] = append(data["posts"].([]interface{}), map[string]interface{}{"id": 1})
				return assert.AnError
			},
			wantErr: assert.AnError,
		},
		{
			name: "異常系: 書き出しの失敗",
			prepare: func(t *testing.T, db *DB) {
				require.NoError(t, os.RemoveAll(filepath.Dir(db.Path())))
			},
			fn: func(data map[string]interface{}) error {
				data["posts"] = append(data["posts"].([]interface{}), map[string]interface{}{"id": 1})
				return nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t, `{"posts": []}`, true)
			if tt.prepare != nil {
				tt.prepare(t, db)
			}

			err := db.Update(tt.fn)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			}

			_ = db.View(func(data map[string]interface{}) error {
				assert.Empty(t, data["posts"])
				return nil
			})

			if content, err := os.ReadFile(db.Path()); err == nil {
				assert.JSONEq(t, `{"posts": []}`, string(content))
			}
		})
	}
}

func TestDB_ReloadAfterOwnWrite(t *testing.T) {
	db := newTestDB(t, `{"posts": []}`, true)

	require.NoError(t, db.Update(func(data map[string]interface{}) error {
		data["posts"] = []interface{}{map[string]interface{}{"id": 1}}
		return nil
	}))

	changed, err := db.Reload()
	require.NoError(t, err)
	assert.False(t, changed)

	_ = db.View(func(data map[string]interface{}) error {
		assert.Len(t, data["posts"], 1)
		return nil
	})
}

func TestDB_ConcurrentUpdateAndReload(t *testing.T) {
	db := newTestDB(t, `{"posts": []}`, true)

	const writers = 50
	done := make(chan struct{})
	var reloads sync.WaitGroup
	reloads.Add(1)
	go func() {
		defer reloads.Done()
		for {
			select {
			case <-done:
				return
			default:
				_, _ = db.Reload()
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			assert.NoError(t, db.Update(func(data map[string]interface{}) error {
				data["posts"] = append(data["posts"].([]interface{}), map[string]interface{}{"id": id})
				return nil
			}))
		}(i)
	}
	wg.Wait()
	close(done)
	reloads.Wait()

	_ = db.View(func(data map[string]interface{}) error {
		assert.Len(t, data["posts"], writers)
		return nil
	})
}

func TestDB_Reload(t *testing.T) {
	db := newTestDB(t, `{"posts": []}`, true)

	t.Run("正常系: 同じ内容は無視", func(t *testing.T) {
		changed, err := db.Reload()
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("正常系: 自身の書き込みは無視", func(t *testing.T) {
		require.NoError(t, db.Update(func(data map[string]interface{}) error {
			data["tags"] = []interface{}{}
			return nil
		}))

		changed, err := db.Reload()
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("正常系: 外部の変更を反映", func(t *testing.T) {
		require.NoError(t, os.WriteFile(db.Path(), []byte(`{"users": []}`), 0o644))

		changed, err := db.Reload()
		require.NoError(t, err)
		assert.True(t, changed)

		_ = db.View(func(data map[string]interface{}) error {
			assert.Contains(t, data, "users")
			assert.NotContains(t, data, "posts")
			return nil
		})
	})

	t.Run("異常系: 不正な内容では以前のドキュメントを保持", func(t *testing.T) {
		require.NoError(t, os.WriteFile(db.Path(), []byte(`{"users": [`), 0o644))

		changed, err := db.Reload()
		assert.ErrorIs(t, err, ErrInvalidFixture)
		assert.False(t, changed)

		_ = db.View(func(data map[string]interface{}) error {
			assert.Contains(t, data, "users")
			return nil
		})
	})
}
