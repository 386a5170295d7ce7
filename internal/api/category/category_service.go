package category

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carelinnk/carelinnk-api/internal/api"
	"github.com/carelinnk/carelinnk-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service enforces the category rules shared by every family: unique
// names, family-scoped defaults and the dependent-record guards on
// deactivation and deletion.
type Service interface {
	Create(ctx context.Context, family types.Family, params types.CreateCategoryParams) (*types.Category, error)
	GetAll(ctx context.Context, family types.Family) ([]types.Category, error)
	GetActive(ctx context.Context, family types.Family) ([]types.Category, error)
	GetByID(ctx context.Context, family types.Family, id uuid.UUID) (*types.Category, error)
	Update(ctx context.Context, family types.Family, id uuid.UUID, params types.UpdateCategoryParams) (*types.Category, error)
	Delete(ctx context.Context, family types.Family, id uuid.UUID) error
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
}

func NewService(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *ServiceImpl) Create(ctx context.Context, family types.Family, params types.CreateCategoryParams) (*types.Category, error) {
	ctx, span := otel.Tracer("CategoryService").Start(ctx, "Create", trace.WithAttributes(
		attribute.String("family", family.Slug),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Create"), slog.String("family", family.Slug))

	isActive := family.CategoryDefaultActive
	if params.IsActive != nil {
		isActive = *params.IsActive
	}

	created, err := s.repo.Create(ctx, family.Slug, &types.Category{
		Name:        params.Name,
		Description: params.Description,
		IsActive:    isActive,
	})
	if err != nil {
		if errors.Is(err, api.ErrConflict) {
			return nil, fmt.Errorf("Category with this name already exists: %w", api.ErrConflict)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create category")
		return nil, err
	}

	l.InfoContext(ctx, "Category created", slog.String("categoryID", created.ID.String()))
	span.SetStatus(codes.Ok, "Category created")
	return created, nil
}

func (s *ServiceImpl) GetAll(ctx context.Context, family types.Family) ([]types.Category, error) {
	ctx, span := otel.Tracer("CategoryService").Start(ctx, "GetAll", trace.WithAttributes(
		attribute.String("family", family.Slug),
	))
	defer span.End()

	categories, err := s.repo.GetAll(ctx, family.Slug)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return categories, nil
}

func (s *ServiceImpl) GetActive(ctx context.Context, family types.Family) ([]types.Category, error) {
	ctx, span := otel.Tracer("CategoryService").Start(ctx, "GetActive", trace.WithAttributes(
		attribute.String("family", family.Slug),
	))
	defer span.End()

	categories, err := s.repo.GetActive(ctx, family.Slug)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return categories, nil
}

func (s *ServiceImpl) GetByID(ctx context.Context, family types.Family, id uuid.UUID) (*types.Category, error) {
	ctx, span := otel.Tracer("CategoryService").Start(ctx, "GetByID", trace.WithAttributes(
		attribute.String("family", family.Slug),
	))
	defer span.End()

	c, err := s.repo.GetByID(ctx, family.Slug, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("Category not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		return nil, err
	}
	return c, nil
}

func (s *ServiceImpl) Update(ctx context.Context, family types.Family, id uuid.UUID, params types.UpdateCategoryParams) (*types.Category, error) {
	ctx, span := otel.Tracer("CategoryService").Start(ctx, "Update", trace.WithAttributes(
		attribute.String("family", family.Slug),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Update"), slog.String("family", family.Slug))

	if _, err := s.repo.GetByID(ctx, family.Slug, id); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("Category not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		return nil, err
	}

	// Deactivation is refused while records still point at the
	// category, even when the category is already inactive; the count
	// goes into the message so admins know the cleanup size.
	if params.IsActive != nil && !*params.IsActive {
		count, err := s.repo.CountDependents(ctx, family.Slug, id)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("Cannot deactivate category. %d record(s) are still using it: %w", count, api.ErrBadRequest)
		}
	}

	updated, err := s.repo.Update(ctx, family.Slug, id, params)
	if err != nil {
		switch {
		case errors.Is(err, api.ErrConflict):
			return nil, fmt.Errorf("Category with this name already exists: %w", api.ErrConflict)
		case errors.Is(err, api.ErrNotFound):
			return nil, fmt.Errorf("Category not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update category")
		return nil, err
	}

	l.InfoContext(ctx, "Category updated", slog.String("categoryID", id.String()))
	span.SetStatus(codes.Ok, "Category updated")
	return updated, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, family types.Family, id uuid.UUID) error {
	ctx, span := otel.Tracer("CategoryService").Start(ctx, "Delete", trace.WithAttributes(
		attribute.String("family", family.Slug),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Delete"), slog.String("family", family.Slug))

	// Dependents are checked before existence so a guarded category
	// never reports 404.
	count, err := s.repo.CountDependents(ctx, family.Slug, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if count > 0 {
		return fmt.Errorf("Cannot delete category. %d record(s) are still using it: %w", count, api.ErrBadRequest)
	}

	if err := s.repo.Delete(ctx, family.Slug, id); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("Category not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete category")
		return err
	}

	l.InfoContext(ctx, "Category deleted", slog.String("categoryID", id.String()))
	span.SetStatus(codes.Ok, "Category deleted")
	return nil
}
