package listing

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

var _ Repository = (*PostgresListingRepo)(nil)

// Repository persists directory listings for every family. Rows come
// back with only the category id set; the service populates the name
// and description.
type Repository interface {
	Create(ctx context.Context, family string, l *types.Listing) (*types.Listing, error)
	GetAll(ctx context.Context, family string) ([]types.Listing, error)
	GetActive(ctx context.Context, family string) ([]types.Listing, error)
	GetByID(ctx context.Context, family string, id uuid.UUID) (*types.Listing, error)
	GetByCategory(ctx context.Context, family string, categoryID uuid.UUID) ([]types.Listing, error)
	GetByPincode(ctx context.Context, family string, pincode int) ([]types.Listing, error)
	Search(ctx context.Context, family string, query string, categoryID *uuid.UUID, pincode *int) ([]types.Listing, error)
	Update(ctx context.Context, family string, id uuid.UUID, params types.UpdateListingParams, categoryID *uuid.UUID) (*types.Listing, error)
	Delete(ctx context.Context, family string, id uuid.UUID) error
}

type PostgresListingRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresListingRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresListingRepo {
	return &PostgresListingRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const listingColumns = `id, family, name, category_id, address, pincode, contact_number,
	email, specialties, about, amenities, is_active, cover_img, images, created_at, updated_at`

func scanListing(row pgx.Row) (*types.Listing, error) {
	var l types.Listing
	err := row.Scan(
		&l.ID, &l.Family, &l.Name, &l.Category.ID, &l.Address, &l.Pincode, &l.ContactNumber,
		&l.Email, &l.Specialties, &l.About, &l.Amenities, &l.IsActive, &l.CoverImg, &l.Images,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
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

func (r *PostgresListingRepo) startSpan(ctx context.Context, name, family string) (context.Context, trace.Span) {
	return otel.Tracer("ListingRepo").Start(ctx, name, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "listings"),
		attribute.String("family", family),
	))
}

func (r *PostgresListingRepo) Create(ctx context.Context, family string, l *types.Listing) (*types.Listing, error) {
	ctx, span := r.startSpan(ctx, "Create", family)
	defer span.End()

	query := fmt.Sprintf(`
		INSERT INTO listings (family, name, category_id, address, pincode, contact_number,
			email, specialties, about, amenities, is_active, cover_img, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING %s`, listingColumns)

	created, err := scanListing(r.pgpool.QueryRow(ctx, query,
		family, l.Name, l.Category.ID, l.Address, l.Pincode, l.ContactNumber,
		l.Email, l.Specialties, l.About, l.Amenities, l.IsActive, l.CoverImg, l.Images))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return nil, fmt.Errorf("database error creating listing: %w", translatePgError(err))
	}

	r.logger.DebugContext(ctx, "Listing created",
		slog.String("family", family), slog.String("listingID", created.ID.String()))
	span.SetStatus(codes.Ok, "Listing created")
	return created, nil
}

func (r *PostgresListingRepo) queryMany(ctx context.Context, query string, args ...any) ([]types.Listing, error) {
	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("database error listing records: %w", translatePgError(err))
	}
	defer rows.Close()

	listings := make([]types.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning listing: %w", err)
		}
		listings = append(listings, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating listings: %w", err)
	}
	return listings, nil
}

func (r *PostgresListingRepo) GetAll(ctx context.Context, family string) ([]types.Listing, error) {
	ctx, span := r.startSpan(ctx, "GetAll", family)
	defer span.End()

	query := fmt.Sprintf(
		"SELECT %s FROM listings WHERE family = $1 ORDER BY name ASC", listingColumns)
	return r.queryMany(ctx, query, family)
}

func (r *PostgresListingRepo) GetActive(ctx context.Context, family string) ([]types.Listing, error) {
	ctx, span := r.startSpan(ctx, "GetActive", family)
	defer span.End()

	query := fmt.Sprintf(
		"SELECT %s FROM listings WHERE family = $1 AND is_active ORDER BY name ASC", listingColumns)
	return r.queryMany(ctx, query, family)
}

func (r *PostgresListingRepo) GetByID(ctx context.Context, family string, id uuid.UUID) (*types.Listing, error) {
	ctx, span := r.startSpan(ctx, "GetByID", family)
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM listings WHERE family = $1 AND id = $2", listingColumns)
	l, err := scanListing(r.pgpool.QueryRow(ctx, query, family, id))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB query failed")
		}
		return nil, fmt.Errorf("database error fetching listing: %w", translatePgError(err))
	}
	return l, nil
}

func (r *PostgresListingRepo) GetByCategory(ctx context.Context, family string, categoryID uuid.UUID) ([]types.Listing, error) {
	ctx, span := r.startSpan(ctx, "GetByCategory", family)
	defer span.End()

	query := fmt.Sprintf(
		"SELECT %s FROM listings WHERE family = $1 AND category_id = $2 AND is_active ORDER BY name ASC",
		listingColumns)
	return r.queryMany(ctx, query, family, categoryID)
}

func (r *PostgresListingRepo) GetByPincode(ctx context.Context, family string, pincode int) ([]types.Listing, error) {
	ctx, span := r.startSpan(ctx, "GetByPincode", family)
	defer span.End()

	query := fmt.Sprintf(
		"SELECT %s FROM listings WHERE family = $1 AND pincode = $2 AND is_active ORDER BY name ASC",
		listingColumns)
	return r.queryMany(ctx, query, family, pincode)
}

func (r *PostgresListingRepo) Search(ctx context.Context, family string, query string, categoryID *uuid.UUID, pincode *int) ([]types.Listing, error) {
	ctx, span := r.startSpan(ctx, "Search", family)
	defer span.End()

	sql := fmt.Sprintf(`
		SELECT %s FROM listings
		WHERE family = $1 AND is_active`, listingColumns)
	args := []any{family}

	if query != "" {
		args = append(args, "%"+query+"%")
		n := len(args)
		sql += fmt.Sprintf(` AND (name ILIKE $%d OR address ILIKE $%d
			OR EXISTS (SELECT 1 FROM unnest(specialties) sp WHERE sp ILIKE $%d))`, n, n, n)
	}
	if categoryID != nil {
		args = append(args, *categoryID)
		sql += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if pincode != nil {
		args = append(args, *pincode)
		sql += fmt.Sprintf(" AND pincode = $%d", len(args))
	}
	sql += " ORDER BY name ASC"

	return r.queryMany(ctx, sql, args...)
}

func (r *PostgresListingRepo) Update(ctx context.Context, family string, id uuid.UUID, params types.UpdateListingParams, categoryID *uuid.UUID) (*types.Listing, error) {
	ctx, span := r.startSpan(ctx, "Update", family)
	defer span.End()

	query := fmt.Sprintf(`
		UPDATE listings
		SET name = COALESCE($3, name),
			category_id = COALESCE($4, category_id),
			address = COALESCE($5, address),
			pincode = COALESCE($6, pincode),
			contact_number = COALESCE($7, contact_number),
			email = COALESCE($8, email),
			specialties = COALESCE($9, specialties),
			about = COALESCE($10, about),
			amenities = COALESCE($11, amenities),
			is_active = COALESCE($12, is_active),
			cover_img = COALESCE($13, cover_img),
			images = COALESCE($14, images),
			updated_at = now()
		WHERE family = $1 AND id = $2
		RETURNING %s`, listingColumns)

	updated, err := scanListing(r.pgpool.QueryRow(ctx, query, family, id,
		params.Name, categoryID, params.Address, params.Pincode, params.ContactNumber,
		params.Email, params.Specialties, params.About, params.Amenities,
		params.IsActive, params.CoverImg, params.Images))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB update failed")
		}
		return nil, fmt.Errorf("database error updating listing: %w", translatePgError(err))
	}

	span.SetStatus(codes.Ok, "Listing updated")
	return updated, nil
}

func (r *PostgresListingRepo) Delete(ctx context.Context, family string, id uuid.UUID) error {
	ctx, span := r.startSpan(ctx, "Delete", family)
	defer span.End()

	tag, err := r.pgpool.Exec(ctx,
		"DELETE FROM listings WHERE family = $1 AND id = $2", family, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB delete failed")
		return fmt.Errorf("database error deleting listing: %w", translatePgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("listing missing while deleting: %w", api.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "Listing deleted")
	return nil
}
