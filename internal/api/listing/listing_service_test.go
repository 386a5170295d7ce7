package listing

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/carelinnk/carelinnk-api/internal/api"
	"github.com/carelinnk/carelinnk-api/internal/types"
)

// MockListingRepo is a mock implementation of the Repository interface
type MockListingRepo struct {
	mock.Mock
}

func (m *MockListingRepo) Create(ctx context.Context, family string, l *types.Listing) (*types.Listing, error) {
	args := m.Called(ctx, family, l)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Listing), args.Error(1)
}

func (m *MockListingRepo) GetAll(ctx context.Context, family string) ([]types.Listing, error) {
	args := m.Called(ctx, family)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Listing), args.Error(1)
}

func (m *MockListingRepo) GetActive(ctx context.Context, family string) ([]types.Listing, error) {
	args := m.Called(ctx, family)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Listing), args.Error(1)
}

func (m *MockListingRepo) GetByID(ctx context.Context, family string, id uuid.UUID) (*types.Listing, error) {
	args := m.Called(ctx, family, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Listing), args.Error(1)
}

func (m *MockListingRepo) GetByCategory(ctx context.Context, family string, categoryID uuid.UUID) ([]types.Listing, error) {
	args := m.Called(ctx, family, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Listing), args.Error(1)
}

func (m *MockListingRepo) GetByPincode(ctx context.Context, family string, pincode int) ([]types.Listing, error) {
	args := m.Called(ctx, family, pincode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Listing), args.Error(1)
}

func (m *MockListingRepo) Search(ctx context.Context, family string, query string, categoryID *uuid.UUID, pincode *int) ([]types.Listing, error) {
	args := m.Called(ctx, family, query, categoryID, pincode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Listing), args.Error(1)
}

func (m *MockListingRepo) Update(ctx context.Context, family string, id uuid.UUID, params types.UpdateListingParams, categoryID *uuid.UUID) (*types.Listing, error) {
	args := m.Called(ctx, family, id, params, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Listing), args.Error(1)
}

func (m *MockListingRepo) Delete(ctx context.Context, family string, id uuid.UUID) error {
	args := m.Called(ctx, family, id)
	return args.Error(0)
}

// MockCategoryReader mocks the category repository used for
// resolution and populate.
type MockCategoryReader struct {
	mock.Mock
}

func (m *MockCategoryReader) Create(ctx context.Context, family string, c *types.Category) (*types.Category, error) {
	args := m.Called(ctx, family, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Category), args.Error(1)
}

func (m *MockCategoryReader) GetAll(ctx context.Context, family string) ([]types.Category, error) {
	args := m.Called(ctx, family)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Category), args.Error(1)
}

func (m *MockCategoryReader) GetActive(ctx context.Context, family string) ([]types.Category, error) {
	args := m.Called(ctx, family)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Category), args.Error(1)
}

func (m *MockCategoryReader) GetByID(ctx context.Context, family string, id uuid.UUID) (*types.Category, error) {
	args := m.Called(ctx, family, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Category), args.Error(1)
}

func (m *MockCategoryReader) GetByName(ctx context.Context, family, name string) (*types.Category, error) {
	args := m.Called(ctx, family, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Category), args.Error(1)
}

func (m *MockCategoryReader) Update(ctx context.Context, family string, id uuid.UUID, params types.UpdateCategoryParams) (*types.Category, error) {
	args := m.Called(ctx, family, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Category), args.Error(1)
}

func (m *MockCategoryReader) Delete(ctx context.Context, family string, id uuid.UUID) error {
	args := m.Called(ctx, family, id)
	return args.Error(0)
}

func (m *MockCategoryReader) CountDependents(ctx context.Context, family string, id uuid.UUID) (int, error) {
	args := m.Called(ctx, family, id)
	return args.Int(0), args.Error(1)
}

var ambulanceFamily = types.Family{Slug: "ambulance", Display: "Ambulance"}

func validCreateParams(category string) types.CreateListingParams {
	return types.CreateListingParams{
		Name:          "City Ambulance",
		Category:      category,
		Address:       "12 Main Road",
		ContactNumber: "9990001111",
		Email:         "city@example.com",
		Specialties:   types.StringList{"ICU"},
		About:         "24x7 service",
		CoverImg:      "cover.jpg",
		Images:        types.StringList{"a.jpg"},
	}
}

func TestCreateListing(t *testing.T) {
	ctx := context.Background()
	categoryID := uuid.New()
	category := &types.Category{ID: categoryID, Family: "ambulance", Name: "ICU", Description: "Intensive care"}

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockListingRepo)
		mockCats := new(MockCategoryReader)
		service := NewService(mockRepo, mockCats, slog.Default())

		params := validCreateParams("ICU")
		mockCats.On("GetByName", mock.Anything, "ambulance", "ICU").Return(category, nil).Once()
		mockRepo.On("Create", mock.Anything, "ambulance", mock.AnythingOfType("*types.Listing")).
			Run(func(args mock.Arguments) {
				l := args.Get(2).(*types.Listing)
				assert.False(t, l.IsActive)
				assert.Equal(t, categoryID, l.Category.ID)
			}).
			Return(&types.Listing{ID: uuid.New(), Family: "ambulance", Name: params.Name,
				Category: types.CategoryRef{ID: categoryID}}, nil).Once()
		mockCats.On("GetByID", mock.Anything, "ambulance", categoryID).Return(category, nil).Once()

		created, err := service.Create(ctx, ambulanceFamily, params)

		assert.NoError(t, err)
		assert.Equal(t, "ICU", created.Category.Name)
		assert.Equal(t, "Intensive care", created.Category.Description)
		mockRepo.AssertExpectations(t)
		mockCats.AssertExpectations(t)
	})

	t.Run("MissingRequiredField", func(t *testing.T) {
		mockRepo := new(MockListingRepo)
		mockCats := new(MockCategoryReader)
		service := NewService(mockRepo, mockCats, slog.Default())

		params := validCreateParams("ICU")
		params.Email = ""

		_, err := service.Create(ctx, ambulanceFamily, params)

		assert.ErrorIs(t, err, api.ErrBadRequest)
		assert.Contains(t, err.Error(), "All required fields must be filled")
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CategoryNotFound", func(t *testing.T) {
		mockRepo := new(MockListingRepo)
		mockCats := new(MockCategoryReader)
		service := NewService(mockRepo, mockCats, slog.Default())

		mockCats.On("GetByName", mock.Anything, "ambulance", "Unknown").Return(nil, api.ErrNotFound).Once()

		_, err := service.Create(ctx, ambulanceFamily, validCreateParams("Unknown"))

		assert.ErrorIs(t, err, api.ErrNotFound)
		mockCats.AssertExpectations(t)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		mockRepo := new(MockListingRepo)
		mockCats := new(MockCategoryReader)
		service := NewService(mockRepo, mockCats, slog.Default())

		mockCats.On("GetByName", mock.Anything, "ambulance", "ICU").Return(category, nil).Once()
		mockRepo.On("Create", mock.Anything, "ambulance", mock.AnythingOfType("*types.Listing")).
			Return(nil, api.ErrConflict).Once()

		_, err := service.Create(ctx, ambulanceFamily, validCreateParams("ICU"))

		assert.ErrorIs(t, err, api.ErrConflict)
		mockRepo.AssertExpectations(t)
	})
}

func TestGetByPincode(t *testing.T) {
	ctx := context.Background()

	t.Run("NonNumericPincodeMatchesNothing", func(t *testing.T) {
		mockRepo := new(MockListingRepo)
		service := NewService(mockRepo, new(MockCategoryReader), slog.Default())

		listings, err := service.GetByPincode(ctx, ambulanceFamily, "abc123")

		assert.NoError(t, err)
		assert.Empty(t, listings)
		mockRepo.AssertNotCalled(t, "GetByPincode", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NumericPincode", func(t *testing.T) {
		mockRepo := new(MockListingRepo)
		service := NewService(mockRepo, new(MockCategoryReader), slog.Default())

		mockRepo.On("GetByPincode", mock.Anything, "ambulance", 700001).
			Return([]types.Listing{}, nil).Once()

		_, err := service.GetByPincode(ctx, ambulanceFamily, "700001")

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}

func TestSearchListings(t *testing.T) {
	ctx := context.Background()

	t.Run("NonNumericPincodeFilterMatchesNothing", func(t *testing.T) {
		mockRepo := new(MockListingRepo)
		service := NewService(mockRepo, new(MockCategoryReader), slog.Default())

		listings, err := service.Search(ctx, ambulanceFamily, types.SearchListingsParams{
			Query:   "city",
			Pincode: "not-a-number",
		})

		assert.NoError(t, err)
		assert.Empty(t, listings)
		mockRepo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UnknownCategoryFilterMatchesNothing", func(t *testing.T) {
		mockRepo := new(MockListingRepo)
		mockCats := new(MockCategoryReader)
		service := NewService(mockRepo, mockCats, slog.Default())

		mockCats.On("GetByName", mock.Anything, "ambulance", "Nope").Return(nil, api.ErrNotFound).Once()

		listings, err := service.Search(ctx, ambulanceFamily, types.SearchListingsParams{Category: "Nope"})

		assert.NoError(t, err)
		assert.Empty(t, listings)
		mockCats.AssertExpectations(t)
	})

	t.Run("QueryOnly", func(t *testing.T) {
		mockRepo := new(MockListingRepo)
		service := NewService(mockRepo, new(MockCategoryReader), slog.Default())

		mockRepo.On("Search", mock.Anything, "ambulance", "city", (*uuid.UUID)(nil), (*int)(nil)).
			Return([]types.Listing{}, nil).Once()

		_, err := service.Search(ctx, ambulanceFamily, types.SearchListingsParams{Query: "city"})

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}

func TestUpdateListing(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("NotFound", func(t *testing.T) {
		mockRepo := new(MockListingRepo)
		service := NewService(mockRepo, new(MockCategoryReader), slog.Default())

		params := types.UpdateListingParams{}
		mockRepo.On("Update", mock.Anything, "ambulance", id, params, (*uuid.UUID)(nil)).
			Return(nil, api.ErrNotFound).Once()

		_, err := service.Update(ctx, ambulanceFamily, id, params)

		assert.ErrorIs(t, err, api.ErrNotFound)
		assert.Contains(t, err.Error(), "Ambulance not found")
		mockRepo.AssertExpectations(t)
	})

	t.Run("NewCategoryNotFound", func(t *testing.T) {
		mockRepo := new(MockListingRepo)
		mockCats := new(MockCategoryReader)
		service := NewService(mockRepo, mockCats, slog.Default())

		name := "Unknown"
		mockCats.On("GetByName", mock.Anything, "ambulance", name).Return(nil, api.ErrNotFound).Once()

		_, err := service.Update(ctx, ambulanceFamily, id, types.UpdateListingParams{Category: &name})

		assert.ErrorIs(t, err, api.ErrNotFound)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("EmailCollision", func(t *testing.T) {
		mockRepo := new(MockListingRepo)
		service := NewService(mockRepo, new(MockCategoryReader), slog.Default())

		email := "taken@example.com"
		params := types.UpdateListingParams{Email: &email}
		mockRepo.On("Update", mock.Anything, "ambulance", id, params, (*uuid.UUID)(nil)).
			Return(nil, api.ErrConflict).Once()

		_, err := service.Update(ctx, ambulanceFamily, id, params)

		assert.ErrorIs(t, err, api.ErrConflict)
		mockRepo.AssertExpectations(t)
	})
}

func TestDeleteListing(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("NotFound", func(t *testing.T) {
		mockRepo := new(MockListingRepo)
		service := NewService(mockRepo, new(MockCategoryReader), slog.Default())

		mockRepo.On("Delete", mock.Anything, "ambulance", id).Return(api.ErrNotFound).Once()

		err := service.Delete(ctx, ambulanceFamily, id)

		assert.ErrorIs(t, err, api.ErrNotFound)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockListingRepo)
		service := NewService(mockRepo, new(MockCategoryReader), slog.Default())

		mockRepo.On("Delete", mock.Anything, "ambulance", id).Return(nil).Once()

		err := service.Delete(ctx, ambulanceFamily, id)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}

func TestPopulateUsesCache(t *testing.T) {
	ctx := context.Background()
	categoryID := uuid.New()
	category := &types.Category{ID: categoryID, Family: "ambulance", Name: "ICU", Description: "Intensive care"}

	mockRepo := new(MockListingRepo)
	mockCats := new(MockCategoryReader)
	service := NewService(mockRepo, mockCats, slog.Default())

	listings := []types.Listing{
		{ID: uuid.New(), Family: "ambulance", Category: types.CategoryRef{ID: categoryID}},
		{ID: uuid.New(), Family: "ambulance", Category: types.CategoryRef{ID: categoryID}},
	}
	mockRepo.On("GetAll", mock.Anything, "ambulance").Return(listings, nil).Once()
	// Two listings sharing a category trigger a single lookup.
	mockCats.On("GetByID", mock.Anything, "ambulance", categoryID).Return(category, nil).Once()

	out, err := service.GetAll(ctx, ambulanceFamily)

	assert.NoError(t, err)
	assert.Equal(t, "ICU", out[0].Category.Name)
	assert.Equal(t, "ICU", out[1].Category.Name)
	mockCats.AssertExpectations(t)
}
