package handler

// TokenResponse フェイクトークンレスポンス
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	Expiration  int64  `json:"expiration"`
}
