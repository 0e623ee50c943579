package resource

import "errors"

var (
	// ErrResourceNotFound リソースが存在しないエラー
	ErrResourceNotFound = errors.New("resource not found")
	// ErrRecordNotFound レコードが存在しないエラー
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicateID ID重複エラー
	ErrDuplicateID = errors.New("duplicate id")
	// ErrInvalidRecord 不正なレコードエラー
	ErrInvalidRecord = errors.New("invalid record")
	// ErrInvalidQuery 不正なクエリパラメータエラー
	ErrInvalidQuery = errors.New("invalid query")
	// ErrReadOnly 読み取り専用モードエラー
	ErrReadOnly = errors.New("read-only mode")
)
