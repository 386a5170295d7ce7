package category

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

// MockCategoryRepo is a mock implementation of the Repository interface
type MockCategoryRepo struct {
	mock.Mock
}

func (m *MockCategoryRepo) Create(ctx context.Context, family string, c *types.Category) (*types.Category, error) {
	args := m.Called(ctx, family, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Category), args.Error(1)
}

func (m *MockCategoryRepo) GetAll(ctx context.Context, family string) ([]types.Category, error) {
	args := m.Called(ctx, family)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Category), args.Error(1)
}

func (m *MockCategoryRepo) GetActive(ctx context.Context, family string) ([]types.Category, error) {
	args := m.Called(ctx, family)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Category), args.Error(1)
}

func (m *MockCategoryRepo) GetByID(ctx context.Context, family string, id uuid.UUID) (*types.Category, error) {
	args := m.Called(ctx, family, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Category), args.Error(1)
}

func (m *MockCategoryRepo) GetByName(ctx context.Context, family, name string) (*types.Category, error) {
	args := m.Called(ctx, family, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Category), args.Error(1)
}

func (m *MockCategoryRepo) Update(ctx context.Context, family string, id uuid.UUID, params types.UpdateCategoryParams) (*types.Category, error) {
	args := m.Called(ctx, family, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Category), args.Error(1)
}

func (m *MockCategoryRepo) Delete(ctx context.Context, family string, id uuid.UUID) error {
	args := m.Called(ctx, family, id)
	return args.Error(0)
}

func (m *MockCategoryRepo) CountDependents(ctx context.Context, family string, id uuid.UUID) (int, error) {
	args := m.Called(ctx, family, id)
	return args.Int(0), args.Error(1)
}

func boolPtr(b bool) *bool { return &b }

func mustFamily(t *testing.T, slug string) types.Family {
	t.Helper()
	f, ok := types.FamilyBySlug(slug)
	assert.True(t, ok)
	return f
}

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("FamilyDefaultActiveApplied", func(t *testing.T) {
		// blood-bank defaults to active, ambulance to inactive. The
		// default must come from the registry, not a shared constant.
		for _, tc := range []struct {
			slug string
			want bool
		}{
			{"blood-bank", true},
			{"ambulance", false},
		} {
			mockRepo := new(MockCategoryRepo)
			service := NewService(mockRepo, slog.Default())
			family := mustFamily(t, tc.slug)

			mockRepo.On("Create", mock.Anything, tc.slug, mock.AnythingOfType("*types.Category")).
				Run(func(args mock.Arguments) {
					c := args.Get(2).(*types.Category)
					assert.Equal(t, tc.want, c.IsActive, tc.slug)
				}).
				Return(&types.Category{ID: uuid.New(), Family: tc.slug, Name: "ICU"}, nil).Once()

			_, err := service.Create(ctx, family, types.CreateCategoryParams{Name: "ICU"})
			assert.NoError(t, err)
			mockRepo.AssertExpectations(t)
		}
	})

	t.Run("ExplicitIsActiveWins", func(t *testing.T) {
		mockRepo := new(MockCategoryRepo)
		service := NewService(mockRepo, slog.Default())
		family := mustFamily(t, "ambulance")

		mockRepo.On("Create", mock.Anything, "ambulance", mock.AnythingOfType("*types.Category")).
			Run(func(args mock.Arguments) {
				c := args.Get(2).(*types.Category)
				assert.True(t, c.IsActive)
			}).
			Return(&types.Category{ID: uuid.New()}, nil).Once()

		_, err := service.Create(ctx, family, types.CreateCategoryParams{Name: "ICU", IsActive: boolPtr(true)})
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("DuplicateName", func(t *testing.T) {
		mockRepo := new(MockCategoryRepo)
		service := NewService(mockRepo, slog.Default())
		family := mustFamily(t, "blood-bank")

		mockRepo.On("Create", mock.Anything, "blood-bank", mock.AnythingOfType("*types.Category")).
			Return(nil, api.ErrConflict).Once()

		_, err := service.Create(ctx, family, types.CreateCategoryParams{Name: "ICU"})

		assert.ErrorIs(t, err, api.ErrConflict)
		assert.Contains(t, err.Error(), "already exists")
		mockRepo.AssertExpectations(t)
	})
}

func TestUpdateCategory(t *testing.T) {
	ctx := context.Background()
	family := types.Family{Slug: "doctor", Display: "Doctor"}
	id := uuid.New()

	t.Run("DeactivateBlockedByDependents", func(t *testing.T) {
		mockRepo := new(MockCategoryRepo)
		service := NewService(mockRepo, slog.Default())

		mockRepo.On("GetByID", mock.Anything, "doctor", id).
			Return(&types.Category{ID: id, Family: "doctor", IsActive: true}, nil).Once()
		mockRepo.On("CountDependents", mock.Anything, "doctor", id).Return(3, nil).Once()

		_, err := service.Update(ctx, family, id, types.UpdateCategoryParams{IsActive: boolPtr(false)})

		assert.ErrorIs(t, err, api.ErrBadRequest)
		assert.Contains(t, err.Error(), "3")
		mockRepo.AssertExpectations(t)
	})

	t.Run("DeactivateAllowedWithoutDependents", func(t *testing.T) {
		mockRepo := new(MockCategoryRepo)
		service := NewService(mockRepo, slog.Default())

		params := types.UpdateCategoryParams{IsActive: boolPtr(false)}
		mockRepo.On("GetByID", mock.Anything, "doctor", id).
			Return(&types.Category{ID: id, Family: "doctor", IsActive: true}, nil).Once()
		mockRepo.On("CountDependents", mock.Anything, "doctor", id).Return(0, nil).Once()
		mockRepo.On("Update", mock.Anything, "doctor", id, params).
			Return(&types.Category{ID: id, Family: "doctor", IsActive: false}, nil).Once()

		updated, err := service.Update(ctx, family, id, params)

		assert.NoError(t, err)
		assert.False(t, updated.IsActive)
		mockRepo.AssertExpectations(t)
	})

	t.Run("DeactivateBlockedEvenWhenAlreadyInactive", func(t *testing.T) {
		mockRepo := new(MockCategoryRepo)
		service := NewService(mockRepo, slog.Default())

		mockRepo.On("GetByID", mock.Anything, "doctor", id).
			Return(&types.Category{ID: id, Family: "doctor", IsActive: false}, nil).Once()
		mockRepo.On("CountDependents", mock.Anything, "doctor", id).Return(3, nil).Once()

		_, err := service.Update(ctx, family, id, types.UpdateCategoryParams{IsActive: boolPtr(false)})

		assert.ErrorIs(t, err, api.ErrBadRequest)
		assert.Contains(t, err.Error(), "3")
		mockRepo.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockRepo := new(MockCategoryRepo)
		service := NewService(mockRepo, slog.Default())

		mockRepo.On("GetByID", mock.Anything, "doctor", id).Return(nil, api.ErrNotFound).Once()

		_, err := service.Update(ctx, family, id, types.UpdateCategoryParams{})

		assert.ErrorIs(t, err, api.ErrNotFound)
		mockRepo.AssertExpectations(t)
	})

	t.Run("RenameCollision", func(t *testing.T) {
		mockRepo := new(MockCategoryRepo)
		service := NewService(mockRepo, slog.Default())

		name := "Cardiology"
		params := types.UpdateCategoryParams{Name: &name}
		mockRepo.On("GetByID", mock.Anything, "doctor", id).
			Return(&types.Category{ID: id, Family: "doctor", IsActive: true}, nil).Once()
		mockRepo.On("Update", mock.Anything, "doctor", id, params).Return(nil, api.ErrConflict).Once()

		_, err := service.Update(ctx, family, id, params)

		assert.ErrorIs(t, err, api.ErrConflict)
		mockRepo.AssertExpectations(t)
	})
}

func TestDeleteCategory(t *testing.T) {
	ctx := context.Background()
	family := types.Family{Slug: "doctor", Display: "Doctor"}
	id := uuid.New()

	t.Run("BlockedByDependents", func(t *testing.T) {
		mockRepo := new(MockCategoryRepo)
		service := NewService(mockRepo, slog.Default())

		mockRepo.On("CountDependents", mock.Anything, "doctor", id).Return(2, nil).Once()

		err := service.Delete(ctx, family, id)

		assert.ErrorIs(t, err, api.ErrBadRequest)
		assert.Contains(t, err.Error(), "2")
		// Delete must never have been attempted.
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, "doctor", id)
		mockRepo.AssertExpectations(t)
	})

	t.Run("NotFoundAfterGuard", func(t *testing.T) {
		mockRepo := new(MockCategoryRepo)
		service := NewService(mockRepo, slog.Default())

		mockRepo.On("CountDependents", mock.Anything, "doctor", id).Return(0, nil).Once()
		mockRepo.On("Delete", mock.Anything, "doctor", id).Return(api.ErrNotFound).Once()

		err := service.Delete(ctx, family, id)

		assert.ErrorIs(t, err, api.ErrNotFound)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockCategoryRepo)
		service := NewService(mockRepo, slog.Default())

		mockRepo.On("CountDependents", mock.Anything, "doctor", id).Return(0, nil).Once()
		mockRepo.On("Delete", mock.Anything, "doctor", id).Return(nil).Once()

		err := service.Delete(ctx, family, id)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}
