package jsonfile

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"marketplace-mock/internal/domain/resource"
)

// ResourceRepository フィクスチャファイル実装のresource.Repository
type ResourceRepository struct {
	db      *DB
	idField string
	tracer  trace.Tracer
}

// NewResourceRepository 新しいResourceRepositoryを作成
func NewResourceRepository(db *DB, idField string) *ResourceRepository {
	return &ResourceRepository{
		db:      db,
		idField: idField,
		tracer:  otel.Tracer("resource-repository"),
	}
}

func (r *ResourceRepository) startSpan(ctx context.Context, op, name string) (context.Context, trace.Span) {
	ctx, span := r.tracer.Start(ctx, "ResourceRepository."+op)
	span.SetAttributes(
		attribute.String("db.system", "jsonfile"),
		attribute.String("db.operation", op),
	)
	if name != "" {
		span.SetAttributes(attribute.String("db.resource", name))
	}
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	} else {
		span.SetStatus(otelcodes.Ok, "")
	}
	span.End()
}

// Snapshot フィクスチャ全体のコピーを取得
func (r *ResourceRepository) Snapshot(ctx context.Context) (map[string]interface{}, error) {
	_, span := r.startSpan(ctx, "Snapshot", "")

	var out map[string]interface{}
	err := r.db.View(func(data map[string]interface{}) error {
		out = resource.CloneValue(data).(map[string]interface{})
		return nil
	})
	endSpan(span, err)
	return out, err
}

// Resources リソース一覧を名前順で取得
func (r *ResourceRepository) Resources(ctx context.Context) ([]resource.Descriptor, error) {
	_, span := r.startSpan(ctx, "Resources", "")

	var out []resource.Descriptor
	err := r.db.View(func(data map[string]interface{}) error {
		names := make([]string, 0, len(data))
		for name := range data {
			names = append(names, name)
		}
		sort.Strings(names)

		out = make([]resource.Descriptor, 0, len(names))
		for _, name := range names {
			if kind, ok := kindOf(data[name]); ok {
				out = append(out, resource.Descriptor{Name: name, Kind: kind})
			}
		}
		return nil
	})
	endSpan(span, err)
	return out, err
}

// Kind リソースの種類を取得
func (r *ResourceRepository) Kind(ctx context.Context, name string) (resource.Kind, error) {
	_, span := r.startSpan(ctx, "Kind", name)

	var kind resource.Kind
	err := r.db.View(func(data map[string]interface{}) error {
		k, ok := kindOf(data[name])
		if !ok {
			return fmt.Errorf("%w: %s", resource.ErrResourceNotFound, name)
		}
		kind = k
		return nil
	})
	endSpan(span, err)
	return kind, err
}

// List コレクションの全レコードを取得
func (r *ResourceRepository) List(ctx context.Context, name string) ([]resource.Record, error) {
	_, span := r.startSpan(ctx, "List", name)

	var out []resource.Record
	err := r.db.View(func(data map[string]interface{}) error {
		items, err := collection(data, name)
		if err != nil {
			return err
		}
		out = make([]resource.Record, 0, len(items))
		for _, item := range items {
			if m, ok := item.(map[string]interface{}); ok {
				out = append(out, resource.Record(m).Clone())
			}
		}
		return nil
	})
	if err == nil {
		span.SetAttributes(attribute.Int("db.rows", len(out)))
	}
	endSpan(span, err)
	return out, err
}

// FindByID IDでレコードを取得
func (r *ResourceRepository) FindByID(ctx context.Context, name, id string) (resource.Record, error) {
	_, span := r.startSpan(ctx, "FindByID", name)
	span.SetAttributes(attribute.String("db.record_id", id))

	var out resource.Record
	err := r.db.View(func(data map[string]interface{}) error {
		items, err := collection(data, name)
		if err != nil {
			return err
		}
		i := r.indexOf(items, id)
		if i < 0 {
			return fmt.Errorf("%w: %s/%s", resource.ErrRecordNotFound, name, id)
		}
		out = resource.Record(items[i].(map[string]interface{})).Clone()
		return nil
	})
	endSpan(span, err)
	return out, err
}

// Create レコードを追加（ID未指定なら採番）
func (r *ResourceRepository) Create(ctx context.Context, name string, record resource.Record) (resource.Record, error) {
	_, span := r.startSpan(ctx, "Create", name)

	var out resource.Record
	err := r.db.Update(func(data map[string]interface{}) error {
		items, err := collection(data, name)
		if err != nil {
			return err
		}

		created := record.Clone()
		if created == nil {
			created = resource.Record{}
		}
		if id, ok := created.ID(r.idField); ok {
			if r.indexOf(items, id) >= 0 {
				return fmt.Errorf("%w: %s/%s", resource.ErrDuplicateID, name, id)
			}
		} else {
			created[r.idField] = resource.NextID(records(items), r.idField)
		}

		data[name] = append(items, map[string]interface{}(created))
		out = created.Clone()
		return nil
	})
	if err == nil {
		id, _ := out.ID(r.idField)
		span.SetAttributes(attribute.String("db.record_id", id))
	}
	endSpan(span, err)
	return out, err
}

// Update レコードを更新（IDは変更されない）
func (r *ResourceRepository) Update(ctx context.Context, name, id string, mutate resource.Mutator) (resource.Record, error) {
	_, span := r.startSpan(ctx, "Update", name)
	span.SetAttributes(attribute.String("db.record_id", id))

	var out resource.Record
	err := r.db.Update(func(data map[string]interface{}) error {
		items, err := collection(data, name)
		if err != nil {
			return err
		}
		i := r.indexOf(items, id)
		if i < 0 {
			return fmt.Errorf("%w: %s/%s", resource.ErrRecordNotFound, name, id)
		}

		current := resource.Record(items[i].(map[string]interface{}))
		next, err := mutate(current.Clone())
		if err != nil {
			return err
		}
		next = next.Clone()
		if next == nil {
			next = resource.Record{}
		}
		next[r.idField] = current[r.idField]

		items[i] = map[string]interface{}(next)
		out = next.Clone()
		return nil
	})
	endSpan(span, err)
	return out, err
}

// Delete レコードを削除し、外部キーで参照している他コレクションのレコードも削除
func (r *ResourceRepository) Delete(ctx context.Context, name, id string) error {
	_, span := r.startSpan(ctx, "Delete", name)
	span.SetAttributes(attribute.String("db.record_id", id))

	err := r.db.Update(func(data map[string]interface{}) error {
		items, err := collection(data, name)
		if err != nil {
			return err
		}
		i := r.indexOf(items, id)
		if i < 0 {
			return fmt.Errorf("%w: %s/%s", resource.ErrRecordNotFound, name, id)
		}
		data[name] = append(items[:i:i], items[i+1:]...)

		removeDependents(data, name, id)
		return nil
	})
	endSpan(span, err)
	return err
}

// FindSingular 単一リソースを取得
func (r *ResourceRepository) FindSingular(ctx context.Context, name string) (resource.Record, error) {
	_, span := r.startSpan(ctx, "FindSingular", name)

	var out resource.Record
	err := r.db.View(func(data map[string]interface{}) error {
		obj, err := singular(data, name)
		if err != nil {
			return err
		}
		out = obj.Clone()
		return nil
	})
	endSpan(span, err)
	return out, err
}

// UpdateSingular 単一リソースを更新
func (r *ResourceRepository) UpdateSingular(ctx context.Context, name string, mutate resource.Mutator) (resource.Record, error) {
	_, span := r.startSpan(ctx, "UpdateSingular", name)

	var out resource.Record
	err := r.db.Update(func(data map[string]interface{}) error {
		obj, err := singular(data, name)
		if err != nil {
			return err
		}
		next, err := mutate(obj.Clone())
		if err != nil {
			return err
		}
		next = next.Clone()
		if next == nil {
			next = resource.Record{}
		}
		data[name] = map[string]interface{}(next)
		out = next.Clone()
		return nil
	})
	endSpan(span, err)
	return out, err
}

func (r *ResourceRepository) indexOf(items []interface{}, id string) int {
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if v, ok := resource.Record(m).ID(r.idField); ok && v == id {
			return i
		}
	}
	return -1
}

func kindOf(v interface{}) (resource.Kind, bool) {
	switch v.(type) {
	case []interface{}:
		return resource.KindCollection, true
	case map[string]interface{}:
		return resource.KindSingular, true
	default:
		return "", false
	}
}

func collection(data map[string]interface{}, name string) ([]interface{}, error) {
	items, ok := data[name].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s", resource.ErrResourceNotFound, name)
	}
	return items, nil
}

func singular(data map[string]interface{}, name string) (resource.Record, error) {
	obj, ok := data[name].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s", resource.ErrResourceNotFound, name)
	}
	return resource.Record(obj), nil
}

func records(items []interface{}) []resource.Record {
	out := make([]resource.Record, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, resource.Record(m))
		}
	}
	return out
}

func removeDependents(data map[string]interface{}, parent, id string) {
	fk := resource.ForeignKey(parent)
	for name, v := range data {
		items, ok := v.([]interface{})
		if !ok || name == parent {
			continue
		}
		kept := items[:0:0]
		for _, item := range items {
			if m, ok := item.(map[string]interface{}); ok {
				if ref, ok := resource.Record(m).ID(fk); ok && ref == id {
					continue
				}
			}
			kept = append(kept, item)
		}
		if len(kept) != len(items) {
			data[name] = kept
		}
	}
}
