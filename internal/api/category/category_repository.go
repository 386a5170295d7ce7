package category

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/carelinnk/carelinnk-api/internal/api"
	"github.com/carelinnk/carelinnk-api/internal/types"
)

var _ Repository = (*PostgresCategoryRepo)(nil)

// Repository persists categories for every family. The family slug
// scopes each query; names are unique per family, not globally.
type Repository interface {
	Create(ctx context.Context, family string, c *types.Category) (*types.Category, error)
	GetAll(ctx context.Context, family string) ([]types.Category, error)
	GetActive(ctx context.Context, family string) ([]types.Category, error)
	GetByID(ctx context.Context, family string, id uuid.UUID) (*types.Category, error)
	GetByName(ctx context.Context, family, name string) (*types.Category, error)
	Update(ctx context.Context, family string, id uuid.UUID, params types.UpdateCategoryParams) (*types.Category, error)
	Delete(ctx context.Context, family string, id uuid.UUID) error

	// CountDependents reports how many records of the family still
	// reference the category. The job and course families count their
	// own tables; every other family counts listings.
	CountDependents(ctx context.Context, family string, id uuid.UUID) (int, error)
}

type PostgresCategoryRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresCategoryRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const categoryColumns = `id, family, name, description, is_active, created_at, updated_at`

func scanCategory(row pgx.Row) (*types.Category, error) {
	var c types.Category
	err := row.Scan(&c.ID, &c.Family, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func translatePgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return api.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return api.ErrConflict
	}
	return err
}

func (r *PostgresCategoryRepo) Create(ctx context.Context, family string, c *types.Category) (*types.Category, error) {
	ctx, span := otel.Tracer("CategoryRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "categories"),
		attribute.String("family", family),
	))
	defer span.End()

	query := fmt.Sprintf(`
		INSERT INTO categories (family, name, description, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING %s`, categoryColumns)

	created, err := scanCategory(r.pgpool.QueryRow(ctx, query, family, c.Name, c.Description, c.IsActive))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return nil, fmt.Errorf("database error creating category: %w", translatePgError(err))
	}

	r.logger.DebugContext(ctx, "Category created",
		slog.String("family", family), slog.String("categoryID", created.ID.String()))
	span.SetStatus(codes.Ok, "Category created")
	return created, nil
}

func (r *PostgresCategoryRepo) list(ctx context.Context, family, clause string) ([]types.Category, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM categories WHERE family = $1%s ORDER BY name ASC",
		categoryColumns, clause)

	rows, err := r.pgpool.Query(ctx, query, family)
	if err != nil {
		return nil, fmt.Errorf("database error listing categories: %w", translatePgError(err))
	}
	defer rows.Close()

	categories := make([]types.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning category: %w", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating categories: %w", err)
	}
	return categories, nil
}

func (r *PostgresCategoryRepo) GetAll(ctx context.Context, family string) ([]types.Category, error) {
	ctx, span := otel.Tracer("CategoryRepo").Start(ctx, "GetAll", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "categories"),
		attribute.String("family", family),
	))
	defer span.End()

	return r.list(ctx, family, "")
}

func (r *PostgresCategoryRepo) GetActive(ctx context.Context, family string) ([]types.Category, error) {
	ctx, span := otel.Tracer("CategoryRepo").Start(ctx, "GetActive", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "categories"),
		attribute.String("family", family),
	))
	defer span.End()

	return r.list(ctx, family, " AND is_active")
}

func (r *PostgresCategoryRepo) GetByID(ctx context.Context, family string, id uuid.UUID) (*types.Category, error) {
	ctx, span := otel.Tracer("CategoryRepo").Start(ctx, "GetByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "categories"),
		attribute.String("family", family),
	))
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM categories WHERE family = $1 AND id = $2", categoryColumns)
	c, err := scanCategory(r.pgpool.QueryRow(ctx, query, family, id))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB query failed")
		}
		return nil, fmt.Errorf("database error fetching category: %w", translatePgError(err))
	}
	return c, nil
}

func (r *PostgresCategoryRepo) GetByName(ctx context.Context, family, name string) (*types.Category, error) {
	ctx, span := otel.Tracer("CategoryRepo").Start(ctx, "GetByName", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "categories"),
		attribute.String("family", family),
	))
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM categories WHERE family = $1 AND name = $2", categoryColumns)
	c, err := scanCategory(r.pgpool.QueryRow(ctx, query, family, name))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB query failed")
		}
		return nil, fmt.Errorf("database error fetching category by name: %w", translatePgError(err))
	}
	return c, nil
}

func (r *PostgresCategoryRepo) Update(ctx context.Context, family string, id uuid.UUID, params types.UpdateCategoryParams) (*types.Category, error) {
	ctx, span := otel.Tracer("CategoryRepo").Start(ctx, "Update", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "categories"),
		attribute.String("family", family),
	))
	defer span.End()

	query := fmt.Sprintf(`
		UPDATE categories
		SET name = COALESCE($3, name),
			description = COALESCE($4, description),
			is_active = COALESCE($5, is_active),
			updated_at = now()
		WHERE family = $1 AND id = $2
		RETURNING %s`, categoryColumns)

	updated, err := scanCategory(r.pgpool.QueryRow(ctx, query, family, id,
		params.Name, params.Description, params.IsActive))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB update failed")
		}
		return nil, fmt.Errorf("database error updating category: %w", translatePgError(err))
	}

	span.SetStatus(codes.Ok, "Category updated")
	return updated, nil
}

func (r *PostgresCategoryRepo) Delete(ctx context.Context, family string, id uuid.UUID) error {
	ctx, span := otel.Tracer("CategoryRepo").Start(ctx, "Delete", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "categories"),
		attribute.String("family", family),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx,
		"DELETE FROM categories WHERE family = $1 AND id = $2", family, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB delete failed")
		return fmt.Errorf("database error deleting category: %w", translatePgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category missing while deleting: %w", api.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "Category deleted")
	return nil
}

func (r *PostgresCategoryRepo) CountDependents(ctx context.Context, family string, id uuid.UUID) (int, error) {
	ctx, span := otel.Tracer("CategoryRepo").Start(ctx, "CountDependents", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("family", family),
	))
	defer span.End()

	query := "SELECT COUNT(*) FROM listings WHERE family = $1 AND category_id = $2"
	args := []any{family, id}
	switch family {
	case types.FamilyJob:
		query = "SELECT COUNT(*) FROM jobs WHERE category_id = $1"
		args = []any{id}
	case types.FamilyCourse:
		query = "SELECT COUNT(*) FROM courses WHERE category_id = $1"
		args = []any{id}
	}

	var count int
	if err := r.pgpool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return 0, fmt.Errorf("database error counting dependents: %w", translatePgError(err))
	}
	return count, nil
}
