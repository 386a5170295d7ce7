package job

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

// MockJobRepo is a mock implementation of the Repository interface
type MockJobRepo struct {
	mock.Mock
}

func (m *MockJobRepo) Create(ctx context.Context, j *types.Job) (*types.Job, error) {
	args := m.Called(ctx, j)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Job), args.Error(1)
}

func (m *MockJobRepo) GetAll(ctx context.Context) ([]types.Job, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Job), args.Error(1)
}

func (m *MockJobRepo) GetActive(ctx context.Context) ([]types.Job, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Job), args.Error(1)
}

func (m *MockJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Job), args.Error(1)
}

func (m *MockJobRepo) GetByCategory(ctx context.Context, categoryID uuid.UUID) ([]types.Job, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Job), args.Error(1)
}

func (m *MockJobRepo) Search(ctx context.Context, query string, categoryID *uuid.UUID, location, employmentType string) ([]types.Job, error) {
	args := m.Called(ctx, query, categoryID, location, employmentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Job), args.Error(1)
}

func (m *MockJobRepo) Update(ctx context.Context, id uuid.UUID, params types.UpdateJobParams, categoryID *uuid.UUID) (*types.Job, error) {
	args := m.Called(ctx, id, params, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Job), args.Error(1)
}

func (m *MockJobRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockJobRepo) CreateApplication(ctx context.Context, a *types.JobApplication) (*types.JobApplication, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.JobApplication), args.Error(1)
}

func (m *MockJobRepo) CountApplications(ctx context.Context, jobID uuid.UUID) (int, error) {
	args := m.Called(ctx, jobID)
	return args.Int(0), args.Error(1)
}

func (m *MockJobRepo) GetApplications(ctx context.Context, jobID uuid.UUID) ([]types.JobApplication, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.JobApplication), args.Error(1)
}

// MockJobCategoryRepo mocks the category repository for job category
// resolution.
type MockJobCategoryRepo struct {
	mock.Mock
}

func (m *MockJobCategoryRepo) Create(ctx context.Context, family string, c *types.Category) (*types.Category, error) {
	args := m.Called(ctx, family, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Category), args.Error(1)
}

func (m *MockJobCategoryRepo) GetAll(ctx context.Context, family string) ([]types.Category, error) {
	args := m.Called(ctx, family)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Category), args.Error(1)
}

func (m *MockJobCategoryRepo) GetActive(ctx context.Context, family string) ([]types.Category, error) {
	args := m.Called(ctx, family)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Category), args.Error(1)
}

func (m *MockJobCategoryRepo) GetByID(ctx context.Context, family string, id uuid.UUID) (*types.Category, error) {
	args := m.Called(ctx, family, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Category), args.Error(1)
}

func (m *MockJobCategoryRepo) GetByName(ctx context.Context, family, name string) (*types.Category, error) {
	args := m.Called(ctx, family, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Category), args.Error(1)
}

func (m *MockJobCategoryRepo) Update(ctx context.Context, family string, id uuid.UUID, params types.UpdateCategoryParams) (*types.Category, error) {
	args := m.Called(ctx, family, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Category), args.Error(1)
}

func (m *MockJobCategoryRepo) Delete(ctx context.Context, family string, id uuid.UUID) error {
	args := m.Called(ctx, family, id)
	return args.Error(0)
}

func (m *MockJobCategoryRepo) CountDependents(ctx context.Context, family string, id uuid.UUID) (int, error) {
	args := m.Called(ctx, family, id)
	return args.Int(0), args.Error(1)
}

func intPtr(i int) *int    { return &i }
func boolPtr(b bool) *bool { return &b }

func TestCreateJob(t *testing.T) {
	ctx := context.Background()
	categoryID := uuid.New()
	category := &types.Category{ID: categoryID, Family: types.FamilyJob, Name: "Nursing"}

	validParams := types.CreateJobParams{
		Title:              "Staff Nurse",
		Category:           "Nursing",
		Description:        "Ward duty",
		EmploymentType:     "full-time",
		ExperienceRequired: "2 years",
		SalaryRange:        "20k-30k",
		Location:           "Kolkata",
		Vacancies:          intPtr(3),
	}

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockJobRepo)
		mockCats := new(MockJobCategoryRepo)
		service := NewService(mockRepo, mockCats, slog.Default())

		mockCats.On("GetByName", mock.Anything, types.FamilyJob, "Nursing").Return(category, nil).Once()
		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*types.Job")).
			Run(func(args mock.Arguments) {
				j := args.Get(1).(*types.Job)
				assert.Equal(t, 3, j.Vacancies)
				assert.Equal(t, categoryID, j.Category.ID)
			}).
			Return(&types.Job{ID: uuid.New(), Title: "Staff Nurse",
				Category: types.CategoryRef{ID: categoryID}}, nil).Once()
		mockCats.On("GetByID", mock.Anything, types.FamilyJob, categoryID).Return(category, nil).Once()

		created, err := service.Create(ctx, validParams)

		assert.NoError(t, err)
		assert.Equal(t, "Nursing", created.Category.Name)
		mockRepo.AssertExpectations(t)
	})

	t.Run("MissingFields", func(t *testing.T) {
		mockRepo := new(MockJobRepo)
		service := NewService(mockRepo, new(MockJobCategoryRepo), slog.Default())

		params := validParams
		params.Title = ""

		_, err := service.Create(ctx, params)

		assert.ErrorIs(t, err, api.ErrBadRequest)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("ZeroVacancies", func(t *testing.T) {
		mockRepo := new(MockJobRepo)
		service := NewService(mockRepo, new(MockJobCategoryRepo), slog.Default())

		params := validParams
		params.Vacancies = intPtr(0)

		_, err := service.Create(ctx, params)

		assert.ErrorIs(t, err, api.ErrBadRequest)
	})
}

func TestUpdateJob(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("DeactivateBlockedByApplications", func(t *testing.T) {
		mockRepo := new(MockJobRepo)
		service := NewService(mockRepo, new(MockJobCategoryRepo), slog.Default())

		mockRepo.On("GetByID", mock.Anything, id).
			Return(&types.Job{ID: id, IsActive: true}, nil).Once()
		mockRepo.On("CountApplications", mock.Anything, id).Return(4, nil).Once()

		_, err := service.Update(ctx, id, types.UpdateJobParams{IsActive: boolPtr(false)})

		assert.ErrorIs(t, err, api.ErrBadRequest)
		assert.Contains(t, err.Error(), "4")
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("DeactivateBlockedEvenWhenAlreadyInactive", func(t *testing.T) {
		mockRepo := new(MockJobRepo)
		service := NewService(mockRepo, new(MockJobCategoryRepo), slog.Default())

		mockRepo.On("GetByID", mock.Anything, id).
			Return(&types.Job{ID: id, IsActive: false}, nil).Once()
		mockRepo.On("CountApplications", mock.Anything, id).Return(4, nil).Once()

		_, err := service.Update(ctx, id, types.UpdateJobParams{IsActive: boolPtr(false)})

		assert.ErrorIs(t, err, api.ErrBadRequest)
		assert.Contains(t, err.Error(), "4")
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("DeactivateAllowedWithoutApplications", func(t *testing.T) {
		mockRepo := new(MockJobRepo)
		service := NewService(mockRepo, new(MockJobCategoryRepo), slog.Default())

		params := types.UpdateJobParams{IsActive: boolPtr(false)}
		mockRepo.On("GetByID", mock.Anything, id).
			Return(&types.Job{ID: id, IsActive: true}, nil).Once()
		mockRepo.On("CountApplications", mock.Anything, id).Return(0, nil).Once()
		mockRepo.On("Update", mock.Anything, id, params, (*uuid.UUID)(nil)).
			Return(&types.Job{ID: id, IsActive: false}, nil).Once()

		updated, err := service.Update(ctx, id, params)

		assert.NoError(t, err)
		assert.False(t, updated.IsActive)
		mockRepo.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockRepo := new(MockJobRepo)
		service := NewService(mockRepo, new(MockJobCategoryRepo), slog.Default())

		mockRepo.On("GetByID", mock.Anything, id).Return(nil, api.ErrNotFound).Once()

		_, err := service.Update(ctx, id, types.UpdateJobParams{})

		assert.ErrorIs(t, err, api.ErrNotFound)
		mockRepo.AssertExpectations(t)
	})
}

func TestDeleteJob(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("BlockedByApplications", func(t *testing.T) {
		mockRepo := new(MockJobRepo)
		service := NewService(mockRepo, new(MockJobCategoryRepo), slog.Default())

		mockRepo.On("CountApplications", mock.Anything, id).Return(1, nil).Once()

		err := service.Delete(ctx, id)

		assert.ErrorIs(t, err, api.ErrBadRequest)
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, id)
	})

	t.Run("NotFoundAfterGuard", func(t *testing.T) {
		mockRepo := new(MockJobRepo)
		service := NewService(mockRepo, new(MockJobCategoryRepo), slog.Default())

		mockRepo.On("CountApplications", mock.Anything, id).Return(0, nil).Once()
		mockRepo.On("Delete", mock.Anything, id).Return(api.ErrNotFound).Once()

		err := service.Delete(ctx, id)

		assert.ErrorIs(t, err, api.ErrNotFound)
		mockRepo.AssertExpectations(t)
	})
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	params := types.ApplyJobParams{ApplicantName: "A. Person", Email: "a@example.com", Phone: "9990001111"}

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockJobRepo)
		service := NewService(mockRepo, new(MockJobCategoryRepo), slog.Default())

		mockRepo.On("GetByID", mock.Anything, id).
			Return(&types.Job{ID: id, IsActive: true}, nil).Once()
		mockRepo.On("CreateApplication", mock.Anything, mock.AnythingOfType("*types.JobApplication")).
			Return(&types.JobApplication{ID: uuid.New(), JobID: id}, nil).Once()

		application, err := service.Apply(ctx, id, params)

		assert.NoError(t, err)
		assert.Equal(t, id, application.JobID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("InactiveJob", func(t *testing.T) {
		mockRepo := new(MockJobRepo)
		service := NewService(mockRepo, new(MockJobCategoryRepo), slog.Default())

		mockRepo.On("GetByID", mock.Anything, id).
			Return(&types.Job{ID: id, IsActive: false}, nil).Once()

		_, err := service.Apply(ctx, id, params)

		assert.ErrorIs(t, err, api.ErrBadRequest)
		mockRepo.AssertNotCalled(t, "CreateApplication", mock.Anything, mock.Anything)
	})

	t.Run("MissingFields", func(t *testing.T) {
		mockRepo := new(MockJobRepo)
		service := NewService(mockRepo, new(MockJobCategoryRepo), slog.Default())

		_, err := service.Apply(ctx, id, types.ApplyJobParams{Email: "a@example.com"})

		assert.ErrorIs(t, err, api.ErrBadRequest)
	})
}
