package handler

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	"marketplace-mock/internal/domain/token"
)

// TokenHandler フェイクトークン発行ハンドラー
type TokenHandler struct{}

// NewTokenHandler 新しいTokenHandlerを作成
func NewTokenHandler() *TokenHandler {
	return &TokenHandler{}
}

// IssueToken 固定のフェイクトークンを返す
//
// リクエストの内容は参照しない。
func (h *TokenHandler) IssueToken(c echo.Context) error {
	t := token.Issue()

	body, err := json.Marshal(TokenResponse{
		AccessToken: t.AccessToken,
		Expiration:  t.Expiration,
	})
	if err != nil {
		return err
	}

	return c.JSONBlob(http.StatusOK, body)
}
