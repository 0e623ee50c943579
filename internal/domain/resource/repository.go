package resource

import "context"

// Mutator 現在の値から新しい値を作る関数
type Mutator func(current Record) (Record, error)

// Repository フィクスチャデータのリポジトリインターフェース
type Repository interface {
	// Snapshot フィクスチャ全体のコピーを取得
	Snapshot(ctx context.Context) (map[string]interface{}, error)

	// Resources リソース一覧を名前順で取得
	Resources(ctx context.Context) ([]Descriptor, error)

	// Kind リソースの種類を取得
	Kind(ctx context.Context, name string) (Kind, error)

	// List コレクションの全レコードを取得
	List(ctx context.Context, name string) ([]Record, error)

	// FindByID IDでレコードを取得
	FindByID(ctx context.Context, name, id string) (Record, error)

	// Create レコードを追加（ID未指定なら採番）
	Create(ctx context.Context, name string, record Record) (Record, error)

	// Update レコードを更新（IDは変更されない）
	Update(ctx context.Context, name, id string, mutate Mutator) (Record, error)

	// Delete レコードを削除
	Delete(ctx context.Context, name, id string) error

	// FindSingular 単一リソースを取得
	FindSingular(ctx context.Context, name string) (Record, error)

	// UpdateSingular 単一リソースを更新
	UpdateSingular(ctx context.Context, name string, mutate Mutator) (Record, error)
}
