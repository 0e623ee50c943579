package resource

import (
	"net/url"

	"marketplace-mock/internal/domain/resource"
)

// UpdateMode 更新方法
type UpdateMode string

const (
	// UpdateModeReplace ボディで置き換え（PUT）
	UpdateModeReplace UpdateMode = "replace"
	// UpdateModePatch マージパッチを適用（PATCH）
	UpdateModePatch UpdateMode = "patch"
)

// ListRequest 一覧取得リクエスト
type ListRequest struct {
	Resource string
	Query    url.Values
}

// ListNestedRequest ネストされた一覧取得リクエスト（/:parent/:id/:resource）
type ListNestedRequest struct {
	Parent   string
	ParentID string
	Resource string
	Query    url.Values
}

// ListResponse 一覧取得レスポンス
type ListResponse struct {
	Records []resource.Record
	// Total フィルタ後・ページング前の件数
	Total    int
	Sliced   bool
	Page     int
	Limit    int
	LastPage int
}

// CreateRequest レコード作成リクエスト
type CreateRequest struct {
	Resource string
	Body     []byte
}

// CreateNestedRequest ネストされたレコード作成リクエスト
type CreateNestedRequest struct {
	Parent   string
	ParentID string
	Resource string
	Body     []byte
}

// UpdateRequest レコード更新リクエスト（単一リソースの場合IDは空）
type UpdateRequest struct {
	Resource string
	ID       string
	Body     []byte
	Mode     UpdateMode
}
