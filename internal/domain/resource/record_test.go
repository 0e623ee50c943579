package resource

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecord(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError bool
	}{
		{name: "正常系: オブジェクト", body: `{"title":"a"}`},
		{name: "正常系: 空オブジェクト", body: `{}`},
		{name: "異常系: 空ボディ", body: ``, wantError: true},
		{name: "異常系: 配列", body: `[1,2]`, wantError: true},
		{name: "異常系: 不正なJSON", body: `{"title":`, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := DecodeRecord([]byte(tt.body))
			if tt.wantError {
				assert.ErrorIs(t, err, ErrInvalidRecord)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, rec)
		})
	}
}

func TestDecodeRecord_KeepsNumbers(t *testing.T) {
	rec, err := DecodeRecord([]byte(`{"id": 9007199254740993}`))
	require.NoError(t, err)

	assert.Equal(t, json.Number("9007199254740993"), rec["id"])
}

func TestRecord_ID(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   string
		ok     bool
	}{
		{name: "json.Number", record: Record{"id": json.Number("1")}, want: "1", ok: true},
		{name: "文字列", record: Record{"id": "abc"}, want: "abc", ok: true},
		{name: "float64", record: Record{"id": float64(2)}, want: "2", ok: true},
		{name: "未設定", record: Record{}, ok: false},
		{name: "null", record: Record{"id": nil}, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.record.ID("id")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecord_Clone(t *testing.T) {
	original := Record{
		"id":     json.Number("1"),
		"author": map[string]interface{}{"name": "typicode"},
		"tags":   []interface{}{"a"},
	}

	clone := original.Clone()
	clone["author"].(map[string]interface{})["name"] = "changed"
	clone["tags"].([]interface{})[0] = "b"

	assert.Equal(t, "typicode", original["author"].(map[string]interface{})["name"])
	assert.Equal(t, "a", original["tags"].([]interface{})[0])
}

func TestRecord_Merge(t *testing.T) {
	original := Record{
		"id":     json.Number("1"),
		"title":  "old",
		"author": map[string]interface{}{"name": "typicode", "age": json.Number("30")},
		"draft":  true,
	}

	merged, err := original.Merge([]byte(`{"title":"new","author":{"age":31},"draft":null}`))
	require.NoError(t, err)

	assert.Equal(t, "new", merged["title"])
	assert.Equal(t, json.Number("1"), merged["id"])
	assert.Equal(t, "typicode", merged["author"].(map[string]interface{})["name"])
	assert.Equal(t, json.Number("31"), merged["author"].(map[string]interface{})["age"])
	assert.NotContains(t, merged, "draft")

	// 元のレコードは変更されない
	assert.Equal(t, "old", original["title"])
}

func TestRecord_Merge_InvalidPatch(t *testing.T) {
	_, err := Record{"id": "1"}.Merge([]byte(`["not","an","object"]`))
	assert.ErrorIs(t, err, ErrInvalidRecord)
}
