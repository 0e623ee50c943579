package handler

import "marketplace-mock/internal/domain/resource"

// IndexResponse リソース一覧レスポンス
type IndexResponse struct {
	Resources []resource.Descriptor `json:"resources"`
}
