package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carelinnk/carelinnk-api/internal/api"
	"github.com/carelinnk/carelinnk-api/internal/api/category"
	"github.com/carelinnk/carelinnk-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service implements the shared listing behavior: required-field
// validation, category resolution, family-scoped email uniqueness,
// search and the populated category reference on every response.
type Service interface {
	Create(ctx context.Context, family types.Family, params types.CreateListingParams) (*types.Listing, error)
	GetAll(ctx context.Context, family types.Family) ([]types.Listing, error)
	GetActive(ctx context.Context, family types.Family) ([]types.Listing, error)
	GetByID(ctx context.Context, family types.Family, id uuid.UUID) (*types.Listing, error)
	GetByCategory(ctx context.Context, family types.Family, categoryID uuid.UUID) ([]types.Listing, error)
	GetByPincode(ctx context.Context, family types.Family, pincode string) ([]types.Listing, error)
	Search(ctx context.Context, family types.Family, params types.SearchListingsParams) ([]types.Listing, error)
	Update(ctx context.Context, family types.Family, id uuid.UUID, params types.UpdateListingParams) (*types.Listing, error)
	Delete(ctx context.Context, family types.Family, id uuid.UUID) error
}

type ServiceImpl struct {
	logger       *slog.Logger
	repo         Repository
	categoryRepo category.Repository

	// categoryCache holds resolved category refs for the populate
	// step. Reads tolerate a minute of staleness.
	categoryCache *cache.Cache
}

func NewService(repo Repository, categoryRepo category.Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:        logger,
		repo:          repo,
		categoryRepo:  categoryRepo,
		categoryCache: cache.New(1*time.Minute, 5*time.Minute),
	}
}

func (s *ServiceImpl) Create(ctx context.Context, family types.Family, params types.CreateListingParams) (*types.Listing, error) {
	ctx, span := otel.Tracer("ListingService").Start(ctx, "Create", trace.WithAttributes(
		attribute.String("family", family.Slug),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Create"), slog.String("family", family.Slug))

	if params.Name == "" || params.Category == "" || params.Address == "" ||
		params.ContactNumber == "" || params.Email == "" || len(params.Specialties) == 0 ||
		params.About == "" || params.CoverImg == "" || len(params.Images) == 0 {
		return nil, fmt.Errorf("All required fields must be filled: %w", api.ErrBadRequest)
	}

	cat, err := s.resolveCategory(ctx, family, params.Category)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	isActive := false
	if params.IsActive != nil {
		isActive = *params.IsActive
	}

	created, err := s.repo.Create(ctx, family.Slug, &types.Listing{
		Name:          params.Name,
		Category:      types.CategoryRef{ID: cat.ID},
		Address:       params.Address,
		Pincode:       params.Pincode,
		ContactNumber: params.ContactNumber,
		Email:         params.Email,
		Specialties:   params.Specialties,
		About:         params.About,
		Amenities:     params.Amenities,
		IsActive:      isActive,
		CoverImg:      params.CoverImg,
		Images:        params.Images,
	})
	if err != nil {
		if errors.Is(err, api.ErrConflict) {
			return nil, fmt.Errorf("A listing with this email already exists: %w", api.ErrConflict)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create listing")
		return nil, err
	}

	s.populate(ctx, family, created)
	l.InfoContext(ctx, "Listing created", slog.String("listingID", created.ID.String()))
	span.SetStatus(codes.Ok, "Listing created")
	return created, nil
}

func (s *ServiceImpl) GetAll(ctx context.Context, family types.Family) ([]types.Listing, error) {
	ctx, span := otel.Tracer("ListingService").Start(ctx, "GetAll", trace.WithAttributes(
		attribute.String("family", family.Slug),
	))
	defer span.End()

	listings, err := s.repo.GetAll(ctx, family.Slug)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.populateAll(ctx, family, listings)
	return listings, nil
}

func (s *ServiceImpl) GetActive(ctx context.Context, family types.Family) ([]types.Listing, error) {
	ctx, span := otel.Tracer("ListingService").Start(ctx, "GetActive", trace.WithAttributes(
		attribute.String("family", family.Slug),
	))
	defer span.End()

	listings, err := s.repo.GetActive(ctx, family.Slug)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.populateAll(ctx, family, listings)
	return listings, nil
}

func (s *ServiceImpl) GetByID(ctx context.Context, family types.Family, id uuid.UUID) (*types.Listing, error) {
	ctx, span := otel.Tracer("ListingService").Start(ctx, "GetByID", trace.WithAttributes(
		attribute.String("family", family.Slug),
	))
	defer span.End()

	listing, err := s.repo.GetByID(ctx, family.Slug, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("%s not found: %w", family.Display, api.ErrNotFound)
		}
		span.RecordError(err)
		return nil, err
	}
	s.populate(ctx, family, listing)
	return listing, nil
}

func (s *ServiceImpl) GetByCategory(ctx context.Context, family types.Family, categoryID uuid.UUID) ([]types.Listing, error) {
	ctx, span := otel.Tracer("ListingService").Start(ctx, "GetByCategory", trace.WithAttributes(
		attribute.String("family", family.Slug),
	))
	defer span.End()

	listings, err := s.repo.GetByCategory(ctx, family.Slug, categoryID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.populateAll(ctx, family, listings)
	return listings, nil
}

func (s *ServiceImpl) GetByPincode(ctx context.Context, family types.Family, pincode string) ([]types.Listing, error) {
	ctx, span := otel.Tracer("ListingService").Start(ctx, "GetByPincode", trace.WithAttributes(
		attribute.String("family", family.Slug),
	))
	defer span.End()

	// A non-numeric pincode matches nothing rather than erroring.
	code, err := strconv.Atoi(pincode)
	if err != nil {
		return []types.Listing{}, nil
	}

	listings, err := s.repo.GetByPincode(ctx, family.Slug, code)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.populateAll(ctx, family, listings)
	return listings, nil
}

func (s *ServiceImpl) Search(ctx context.Context, family types.Family, params types.SearchListingsParams) ([]types.Listing, error) {
	ctx, span := otel.Tracer("ListingService").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("family", family.Slug),
		attribute.String("query", params.Query),
	))
	defer span.End()

	var categoryID *uuid.UUID
	if params.Category != "" {
		cat, err := s.resolveCategory(ctx, family, params.Category)
		if err != nil {
			if errors.Is(err, api.ErrNotFound) {
				// Filtering on an unknown category matches nothing.
				return []types.Listing{}, nil
			}
			span.RecordError(err)
			return nil, err
		}
		categoryID = &cat.ID
	}

	var pincode *int
	if params.Pincode != "" {
		code, err := strconv.Atoi(params.Pincode)
		if err != nil {
			return []types.Listing{}, nil
		}
		pincode = &code
	}

	listings, err := s.repo.Search(ctx, family.Slug, params.Query, categoryID, pincode)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.populateAll(ctx, family, listings)
	return listings, nil
}

func (s *ServiceImpl) Update(ctx context.Context, family types.Family, id uuid.UUID, params types.UpdateListingParams) (*types.Listing, error) {
	ctx, span := otel.Tracer("ListingService").Start(ctx, "Update", trace.WithAttributes(
		attribute.String("family", family.Slug),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Update"), slog.String("family", family.Slug))

	var categoryID *uuid.UUID
	if params.Category != nil {
		cat, err := s.resolveCategory(ctx, family, *params.Category)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		categoryID = &cat.ID
	}

	updated, err := s.repo.Update(ctx, family.Slug, id, params, categoryID)
	if err != nil {
		switch {
		case errors.Is(err, api.ErrNotFound):
			return nil, fmt.Errorf("%s not found: %w", family.Display, api.ErrNotFound)
		case errors.Is(err, api.ErrConflict):
			return nil, fmt.Errorf("A listing with this email already exists: %w", api.ErrConflict)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update listing")
		return nil, err
	}

	s.populate(ctx, family, updated)
	l.InfoContext(ctx, "Listing updated", slog.String("listingID", id.String()))
	span.SetStatus(codes.Ok, "Listing updated")
	return updated, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, family types.Family, id uuid.UUID) error {
	ctx, span := otel.Tracer("ListingService").Start(ctx, "Delete", trace.WithAttributes(
		attribute.String("family", family.Slug),
	))
	defer span.End()

	if err := s.repo.Delete(ctx, family.Slug, id); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("%s not found: %w", family.Display, api.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete listing")
		return err
	}

	s.logger.InfoContext(ctx, "Listing deleted",
		slog.String("family", family.Slug), slog.String("listingID", id.String()))
	span.SetStatus(codes.Ok, "Listing deleted")
	return nil
}

// resolveCategory accepts a category id or an exact name and returns
// the matching category of the family.
func (s *ServiceImpl) resolveCategory(ctx context.Context, family types.Family, ref string) (*types.Category, error) {
	var (
		cat *types.Category
		err error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		cat, err = s.categoryRepo.GetByID(ctx, family.Slug, id)
	} else {
		cat, err = s.categoryRepo.GetByName(ctx, family.Slug, ref)
	}
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("Category not found: %w", api.ErrNotFound)
		}
		return nil, err
	}
	return cat, nil
}

func (s *ServiceImpl) populateAll(ctx context.Context, family types.Family, listings []types.Listing) {
	for i := range listings {
		s.populate(ctx, family, &listings[i])
	}
}

// populate fills the category name and description on a listing. A
// lookup failure leaves the bare id in place; the listing itself is
// still served.
func (s *ServiceImpl) populate(ctx context.Context, family types.Family, listing *types.Listing) {
	if listing.Category.ID == uuid.Nil {
		return
	}

	key := family.Slug + "/" + listing.Category.ID.String()
	if cached, ok := s.categoryCache.Get(key); ok {
		listing.Category = cached.(types.CategoryRef)
		return
	}

	cat, err := s.categoryRepo.GetByID(ctx, family.Slug, listing.Category.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to populate category reference",
			slog.String("family", family.Slug),
			slog.String("categoryID", listing.Category.ID.String()),
			slog.Any("error", err))
		return
	}

	ref := types.CategoryRef{ID: cat.ID, Name: cat.Name, Description: cat.Description}
	s.categoryCache.Set(key, ref, cache.DefaultExpiration)
	listing.Category = ref
}
