package resource

import (
	"fmt"
	"strconv"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/goccy/go-json"
)

// Record コレクション内の1件、または単一リソースの値
type Record map[string]interface{}

// Kind リソースの種類
type Kind string

const (
	// KindCollection 配列で表現されるリソース
	KindCollection Kind = "collection"
	// KindSingular オブジェクトで表現されるリソース
	KindSingular Kind = "singular"
)

// Descriptor リソースの概要
type Descriptor struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// ID IDフィールドの値を文字列で取得
func (r Record) ID(field string) (string, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", false
	}
	return FormatID(v), true
}

// Clone ディープコピーを作成
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return Record(CloneValue(map[string]interface{}(r)).(map[string]interface{}))
}

// Merge RFC 7386 のマージパッチを適用した新しいレコードを返す
func (r Record) Merge(patch []byte) (Record, error) {
	if _, err := DecodeRecord(patch); err != nil {
		return nil, err
	}

	original, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	merged, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	return DecodeRecord(merged)
}

// FormatID ID値を比較用の文字列に変換
func FormatID(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	default:
		return fmt.Sprint(id)
	}
}

// CloneValue JSON由来の値をディープコピー
func CloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = CloneValue(item)
		}
		return out
	case Record:
		return CloneValue(map[string]interface{}(val))
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}
		return out
	default:
		return val
	}
}
