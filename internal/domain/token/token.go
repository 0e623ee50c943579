package token

const (
	// FakeAccessToken 常に返却する固定のアクセストークン
	FakeAccessToken = "fakeString"

	// FakeExpiration 固定の有効期限（2050-01-01T00:00:00+01:00 のUNIX秒）
	FakeExpiration int64 = 2524604400
)

// Token マーケットプレイス互換のBearerトークン
type Token struct {
	AccessToken string
	Expiration  int64
}

// Issue 固定値のトークンを発行
//
// リクエストの内容に依存せず、呼び出しごとに同じ値を持つ新しいTokenを返す。
func Issue() Token {
	return Token{
		AccessToken: FakeAccessToken,
		Expiration:  FakeExpiration,
	}
}
