package resource

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// NextID 新しいレコードのIDを採番
//
// 既存IDがすべて整数なら最大値+1、それ以外はUUIDを返す。
func NextID(records []Record, idField string) interface{} {
	var highest int64
	for _, r := range records {
		v, ok := r[idField]
		if !ok || v == nil {
			continue
		}
		n, ok := integerOf(v)
		if !ok {
			return uuid.NewString()
		}
		if n > highest {
			highest = n
		}
	}
	return json.Number(strconv.FormatInt(highest+1, 10))
}

// ParseID パスパラメータのIDを型付きの値に変換
func ParseID(raw string) interface{} {
	if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return json.Number(raw)
	}
	return raw
}

func integerOf(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

// Singular ネストされたルートの外部キー名に使う単数形
func Singular(name string) string {
	switch {
	case strings.HasSuffix(name, "ies") && len(name) > 3:
		return strings.TrimSuffix(name, "ies") + "y"
	case strings.HasSuffix(name, "s") && len(name) > 1:
		return strings.TrimSuffix(name, "s")
	default:
		return name
	}
}

// ForeignKey 親リソースを参照する外部キー名
func ForeignKey(parent string) string {
	return Singular(parent) + "Id"
}
