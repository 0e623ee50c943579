package resource

import (
	"context"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"marketplace-mock/internal/domain/resource"
	otelinfra "marketplace-mock/internal/infrastructure/observability/otel"
)

// ResourceApplicationService フィクスチャリソースのアプリケーションサービス
type ResourceApplicationService struct {
	repo    resource.Repository
	idField string
	logger  *otelinfra.Logger
	metrics *otelinfra.Metrics
	tracer  trace.Tracer
}

// NewResourceApplicationService 新しいResourceApplicationServiceを作成
func NewResourceApplicationService(
	repo resource.Repository,
	idField string,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *ResourceApplicationService {
	return &ResourceApplicationService{
		repo:    repo,
		idField: idField,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer("resource-service"),
	}
}

func (s *ResourceApplicationService) fail(ctx context.Context, span trace.Span, msg string, err error, fields map[string]interface{}) {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	s.logger.Warn(ctx, msg, withError(fields, err))
}

func withError(fields map[string]interface{}, err error) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}

// Resources リソース一覧を取得
func (s *ResourceApplicationService) Resources(ctx context.Context) ([]resource.Descriptor, error) {
	ctx, span := s.tracer.Start(ctx, "ResourceApplicationService.Resources")
	defer span.End()

	descriptors, err := s.repo.Resources(ctx)
	if err != nil {
		s.fail(ctx, span, "Failed to list resources", err, nil)
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	return descriptors, nil
}

// Database フィクスチャ全体を取得
func (s *ResourceApplicationService) Database(ctx context.Context) (map[string]interface{}, error) {
	ctx, span := s.tracer.Start(ctx, "ResourceApplicationService.Database")
	defer span.End()

	snapshot, err := s.repo.Snapshot(ctx)
	if err != nil {
		s.fail(ctx, span, "Failed to read database", err, nil)
		return nil, fmt.Errorf("failed to read database: %w", err)
	}
	return snapshot, nil
}

// Kind リソースの種類を取得
func (s *ResourceApplicationService) Kind(ctx context.Context, name string) (resource.Kind, error) {
	return s.repo.Kind(ctx, name)
}

// List コレクションをクエリ条件で取得
func (s *ResourceApplicationService) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ResourceApplicationService.List")
	defer span.End()

	span.SetAttributes(attribute.String("resource", req.Resource))

	q, err := resource.ParseQuery(req.Query)
	if err != nil {
		s.fail(ctx, span, "Invalid list query", err, map[string]interface{}{
			"resource": req.Resource,
		})
		return nil, err
	}

	return s.list(ctx, span, req.Resource, q)
}

// ListNested 親レコードに紐づくレコードを取得
func (s *ResourceApplicationService) ListNested(ctx context.Context, req *ListNestedRequest) (*ListResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ResourceApplicationService.ListNested")
	defer span.End()

	span.SetAttributes(
		attribute.String("parent", req.Parent),
		attribute.String("parent_id", req.ParentID),
		attribute.String("resource", req.Resource),
	)

	q, err := resource.ParseQuery(withoutKey(req.Query, resource.ForeignKey(req.Parent)))
	if err != nil {
		s.fail(ctx, span, "Invalid nested list query", err, map[string]interface{}{
			"resource": req.Resource,
		})
		return nil, err
	}

	fk, err := resource.NewFilter(resource.ForeignKey(req.Parent), resource.OperatorEq, req.ParentID)
	if err != nil {
		return nil, err
	}
	q.Filters = append([]resource.Filter{fk}, q.Filters...)

	return s.list(ctx, span, req.Resource, q)
}

func (s *ResourceApplicationService) list(ctx context.Context, span trace.Span, name string, q *resource.Query) (*ListResponse, error) {
	records, err := s.repo.List(ctx, name)
	if err != nil {
		s.fail(ctx, span, "Failed to list records", err, map[string]interface{}{
			"resource": name,
		})
		return nil, fmt.Errorf("failed to list %s: %w", name, err)
	}

	result, err := q.Apply(records)
	if err != nil {
		s.fail(ctx, span, "Failed to apply query", err, map[string]interface{}{
			"resource": name,
		})
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}

	span.SetAttributes(
		attribute.Int("total", result.Total),
		attribute.Int("returned", len(result.Records)),
	)

	return &ListResponse{
		Records:  result.Records,
		Total:    result.Total,
		Sliced:   result.Sliced,
		Page:     result.Page,
		Limit:    result.Limit,
		LastPage: result.LastPage,
	}, nil
}

// Get IDでレコードを取得
func (s *ResourceApplicationService) Get(ctx context.Context, name, id string) (resource.Record, error) {
	ctx, span := s.tracer.Start(ctx, "ResourceApplicationService.Get")
	defer span.End()

	span.SetAttributes(
		attribute.String("resource", name),
		attribute.String("id", id),
	)

	record, err := s.repo.FindByID(ctx, name, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to get %s/%s: %w", name, id, err)
	}
	return record, nil
}

// Create レコードを作成
func (s *ResourceApplicationService) Create(ctx context.Context, req *CreateRequest) (resource.Record, error) {
	ctx, span := s.tracer.Start(ctx, "ResourceApplicationService.Create")
	defer span.End()

	span.SetAttributes(attribute.String("resource", req.Resource))

	record, err := resource.DecodeRecord(req.Body)
	if err != nil {
		s.fail(ctx, span, "Invalid record body", err, map[string]interface{}{
			"resource": req.Resource,
		})
		return nil, err
	}

	return s.create(ctx, span, req.Resource, record)
}

// CreateNested 親レコードに紐づくレコードを作成
func (s *ResourceApplicationService) CreateNested(ctx context.Context, req *CreateNestedRequest) (resource.Record, error) {
	ctx, span := s.tracer.Start(ctx, "ResourceApplicationService.CreateNested")
	defer span.End()

	span.SetAttributes(
		attribute.String("parent", req.Parent),
		attribute.String("parent_id", req.ParentID),
		attribute.String("resource", req.Resource),
	)

	record, err := resource.DecodeRecord(req.Body)
	if err != nil {
		s.fail(ctx, span, "Invalid record body", err, map[string]interface{}{
			"resource": req.Resource,
		})
		return nil, err
	}

	parent, err := s.repo.FindByID(ctx, req.Parent, req.ParentID)
	if err != nil {
		s.fail(ctx, span, "Parent record not found", err, map[string]interface{}{
			"parent":    req.Parent,
			"parent_id": req.ParentID,
		})
		return nil, fmt.Errorf("failed to find parent %s/%s: %w", req.Parent, req.ParentID, err)
	}
	record[resource.ForeignKey(req.Parent)] = parent[s.idField]

	return s.create(ctx, span, req.Resource, record)
}

func (s *ResourceApplicationService) create(ctx context.Context, span trace.Span, name string, record resource.Record) (resource.Record, error) {
	created, err := s.repo.Create(ctx, name, record)
	if err != nil {
		s.fail(ctx, span, "Failed to create record", err, map[string]interface{}{
			"resource": name,
		})
		return nil, fmt.Errorf("failed to create %s: %w", name, err)
	}

	id, _ := created.ID(s.idField)
	span.SetAttributes(attribute.String("id", id))
	s.metrics.RecordMutation(ctx, name, "create")
	s.logger.Info(ctx, "Record created", map[string]interface{}{
		"resource": name,
		"id":       id,
	})
	return created, nil
}

// Update レコードを置き換え、またはマージ
func (s *ResourceApplicationService) Update(ctx context.Context, req *UpdateRequest) (resource.Record, error) {
	ctx, span := s.tracer.Start(ctx, "ResourceApplicationService.Update")
	defer span.End()

	span.SetAttributes(
		attribute.String("resource", req.Resource),
		attribute.String("id", req.ID),
		attribute.String("mode", string(req.Mode)),
	)

	mutate, err := mutatorFor(req)
	if err != nil {
		s.fail(ctx, span, "Invalid record body", err, map[string]interface{}{
			"resource": req.Resource,
			"id":       req.ID,
		})
		return nil, err
	}

	updated, err := s.repo.Update(ctx, req.Resource, req.ID, mutate)
	if err != nil {
		s.fail(ctx, span, "Failed to update record", err, map[string]interface{}{
			"resource": req.Resource,
			"id":       req.ID,
		})
		return nil, fmt.Errorf("failed to update %s/%s: %w", req.Resource, req.ID, err)
	}

	s.metrics.RecordMutation(ctx, req.Resource, string(req.Mode))
	s.logger.Info(ctx, "Record updated", map[string]interface{}{
		"resource": req.Resource,
		"id":       req.ID,
		"mode":     string(req.Mode),
	})
	return updated, nil
}

// Delete レコードを削除
func (s *ResourceApplicationService) Delete(ctx context.Context, name, id string) error {
	ctx, span := s.tracer.Start(ctx, "ResourceApplicationService.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.String("resource", name),
		attribute.String("id", id),
	)

	if err := s.repo.Delete(ctx, name, id); err != nil {
		s.fail(ctx, span, "Failed to delete record", err, map[string]interface{}{
			"resource": name,
			"id":       id,
		})
		return fmt.Errorf("failed to delete %s/%s: %w", name, id, err)
	}

	s.metrics.RecordMutation(ctx, name, "delete")
	s.logger.Info(ctx, "Record deleted", map[string]interface{}{
		"resource": name,
		"id":       id,
	})
	return nil
}

// GetSingular 単一リソースを取得
func (s *ResourceApplicationService) GetSingular(ctx context.Context, name string) (resource.Record, error) {
	ctx, span := s.tracer.Start(ctx, "ResourceApplicationService.GetSingular")
	defer span.End()

	span.SetAttributes(attribute.String("resource", name))

	record, err := s.repo.FindSingular(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to get %s: %w", name, err)
	}
	return record, nil
}

// UpdateSingular 単一リソースを置き換え、またはマージ
func (s *ResourceApplicationService) UpdateSingular(ctx context.Context, req *UpdateRequest) (resource.Record, error) {
	ctx, span := s.tracer.Start(ctx, "ResourceApplicationService.UpdateSingular")
	defer span.End()

	span.SetAttributes(
		attribute.String("resource", req.Resource),
		attribute.String("mode", string(req.Mode)),
	)

	mutate, err := mutatorFor(req)
	if err != nil {
		s.fail(ctx, span, "Invalid record body", err, map[string]interface{}{
			"resource": req.Resource,
		})
		return nil, err
	}

	updated, err := s.repo.UpdateSingular(ctx, req.Resource, mutate)
	if err != nil {
		s.fail(ctx, span, "Failed to update singular resource", err, map[string]interface{}{
			"resource": req.Resource,
		})
		return nil, fmt.Errorf("failed to update %s: %w", req.Resource, err)
	}

	s.metrics.RecordMutation(ctx, req.Resource, string(req.Mode))
	s.logger.Info(ctx, "Singular resource updated", map[string]interface{}{
		"resource": req.Resource,
		"mode":     string(req.Mode),
	})
	return updated, nil
}

func mutatorFor(req *UpdateRequest) (resource.Mutator, error) {
	switch req.Mode {
	case UpdateModePatch:
		if _, err := resource.DecodeRecord(req.Body); err != nil {
			return nil, err
		}
		return func(current resource.Record) (resource.Record, error) {
			return current.Merge(req.Body)
		}, nil
	default:
		replacement, err := resource.DecodeRecord(req.Body)
		if err != nil {
			return nil, err
		}
		return func(resource.Record) (resource.Record, error) {
			return replacement, nil
		}, nil
	}
}

func withoutKey(values url.Values, key string) url.Values {
	out := make(url.Values, len(values))
	for k, v := range values {
		if k != key {
			out[k] = v
		}
	}
	return out
}
