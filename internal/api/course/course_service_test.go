package course

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

// MockCourseRepo is a mock implementation of the Repository interface
type MockCourseRepo struct {
	mock.Mock
}

func (m *MockCourseRepo) Create(ctx context.Context, c *types.Course) (*types.Course, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Course), args.Error(1)
}

func (m *MockCourseRepo) GetAll(ctx context.Context, isActive *bool, categoryID *uuid.UUID) ([]types.Course, error) {
	args := m.Called(ctx, isActive, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Course), args.Error(1)
}

func (m *MockCourseRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Course), args.Error(1)
}

func (m *MockCourseRepo) Update(ctx context.Context, id uuid.UUID, params types.UpdateCourseParams, categoryID *uuid.UUID) (*types.Course, error) {
	args := m.Called(ctx, id, params, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Course), args.Error(1)
}

func (m *MockCourseRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) (*types.Course, error) {
	args := m.Called(ctx, id, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Course), args.Error(1)
}

func (m *MockCourseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCourseRepo) CreateRegistration(ctx context.Context, reg *types.CourseRegistration) (uuid.UUID, error) {
	args := m.Called(ctx, reg)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockCourseRepo) CountRegistrations(ctx context.Context, courseID uuid.UUID) (int, error) {
	args := m.Called(ctx, courseID)
	return args.Int(0), args.Error(1)
}

func (m *MockCourseRepo) GetRegistrations(ctx context.Context, filter types.RegistrationFilter) ([]types.CourseRegistration, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.CourseRegistration), args.Error(1)
}

func (m *MockCourseRepo) GetRegistrationByID(ctx context.Context, id uuid.UUID) (*types.CourseRegistration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.CourseRegistration), args.Error(1)
}

func (m *MockCourseRepo) DeleteRegistration(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCourseCategoryRepo mocks the category repository for course
// category resolution.
type MockCourseCategoryRepo struct {
	mock.Mock
}

func (m *MockCourseCategoryRepo) Create(ctx context.Context, family string, c *types.Category) (*types.Category, error) {
	args := m.Called(ctx, family, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Category), args.Error(1)
}

func (m *MockCourseCategoryRepo) GetAll(ctx context.Context, family string) ([]types.Category, error) {
	args := m.Called(ctx, family)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Category), args.Error(1)
}

func (m *MockCourseCategoryRepo) GetActive(ctx context.Context, family string) ([]types.Category, error) {
	args := m.Called(ctx, family)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Category), args.Error(1)
}

func (m *MockCourseCategoryRepo) GetByID(ctx context.Context, family string, id uuid.UUID) (*types.Category, error) {
	args := m.Called(ctx, family, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Category), args.Error(1)
}

func (m *MockCourseCategoryRepo) GetByName(ctx context.Context, family, name string) (*types.Category, error) {
	args := m.Called(ctx, family, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Category), args.Error(1)
}

func (m *MockCourseCategoryRepo) Update(ctx context.Context, family string, id uuid.UUID, params types.UpdateCategoryParams) (*types.Category, error) {
	args := m.Called(ctx, family, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Category), args.Error(1)
}

func (m *MockCourseCategoryRepo) Delete(ctx context.Context, family string, id uuid.UUID) error {
	args := m.Called(ctx, family, id)
	return args.Error(0)
}

func (m *MockCourseCategoryRepo) CountDependents(ctx context.Context, family string, id uuid.UUID) (int, error) {
	args := m.Called(ctx, family, id)
	return args.Int(0), args.Error(1)
}

func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool        { return &b }

func TestCreateCourse(t *testing.T) {
	ctx := context.Background()
	categoryID := uuid.New()
	category := &types.Category{ID: categoryID, Family: types.FamilyCourse, Name: "First Aid"}

	validParams := types.CreateCourseParams{
		Title:       "Basic Life Support",
		Category:    "First Aid",
		Description: "CPR and emergency response",
		Instructor:  "Dr. Sen",
		Duration:    "6 weeks",
		Price:       floatPtr(4999),
	}

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockCourseRepo)
		mockCats := new(MockCourseCategoryRepo)
		service := NewService(mockRepo, mockCats, slog.Default())

		mockCats.On("GetByName", mock.Anything, types.FamilyCourse, "First Aid").Return(category, nil).Once()
		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*types.Course")).
			Run(func(args mock.Arguments) {
				c := args.Get(1).(*types.Course)
				assert.Equal(t, categoryID, c.Category.ID)
				assert.False(t, c.IsActive)
			}).
			Return(&types.Course{ID: uuid.New(), Title: "Basic Life Support",
				Category: types.CategoryRef{ID: categoryID}}, nil).Once()
		mockCats.On("GetByID", mock.Anything, types.FamilyCourse, categoryID).Return(category, nil).Once()

		created, err := service.Create(ctx, validParams)

		assert.NoError(t, err)
		assert.Equal(t, "First Aid", created.Category.Name)
		mockRepo.AssertExpectations(t)
	})

	t.Run("MissingFields", func(t *testing.T) {
		mockRepo := new(MockCourseRepo)
		service := NewService(mockRepo, new(MockCourseCategoryRepo), slog.Default())

		params := validParams
		params.Instructor = ""

		_, err := service.Create(ctx, params)

		assert.ErrorIs(t, err, api.ErrBadRequest)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("DuplicateTitle", func(t *testing.T) {
		mockRepo := new(MockCourseRepo)
		mockCats := new(MockCourseCategoryRepo)
		service := NewService(mockRepo, mockCats, slog.Default())

		mockCats.On("GetByName", mock.Anything, types.FamilyCourse, "First Aid").Return(category, nil).Once()
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil, api.ErrConflict).Once()

		_, err := service.Create(ctx, validParams)

		assert.ErrorIs(t, err, api.ErrConflict)
		assert.Contains(t, err.Error(), "title already exists")
	})

	t.Run("NegativePrice", func(t *testing.T) {
		service := NewService(new(MockCourseRepo), new(MockCourseCategoryRepo), slog.Default())

		params := validParams
		params.Price = floatPtr(-1)

		_, err := service.Create(ctx, params)

		assert.ErrorIs(t, err, api.ErrBadRequest)
	})
}

func TestUpdateCourse(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("DeactivateBlockedByRegistrations", func(t *testing.T) {
		mockRepo := new(MockCourseRepo)
		service := NewService(mockRepo, new(MockCourseCategoryRepo), slog.Default())

		mockRepo.On("GetByID", mock.Anything, id).
			Return(&types.Course{ID: id, IsActive: true}, nil).Once()
		mockRepo.On("CountRegistrations", mock.Anything, id).Return(7, nil).Once()

		_, err := service.Update(ctx, id, types.UpdateCourseParams{IsActive: boolPtr(false)})

		assert.ErrorIs(t, err, api.ErrBadRequest)
		assert.Contains(t, err.Error(), "7")
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("DeactivateBlockedEvenWhenAlreadyInactive", func(t *testing.T) {
		mockRepo := new(MockCourseRepo)
		service := NewService(mockRepo, new(MockCourseCategoryRepo), slog.Default())

		mockRepo.On("GetByID", mock.Anything, id).
			Return(&types.Course{ID: id, IsActive: false}, nil).Once()
		mockRepo.On("CountRegistrations", mock.Anything, id).Return(7, nil).Once()

		_, err := service.Update(ctx, id, types.UpdateCourseParams{IsActive: boolPtr(false)})

		assert.ErrorIs(t, err, api.ErrBadRequest)
		assert.Contains(t, err.Error(), "7")
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockRepo := new(MockCourseRepo)
		service := NewService(mockRepo, new(MockCourseCategoryRepo), slog.Default())

		mockRepo.On("GetByID", mock.Anything, id).Return(nil, api.ErrNotFound).Once()

		_, err := service.Update(ctx, id, types.UpdateCourseParams{})

		assert.ErrorIs(t, err, api.ErrNotFound)
	})
}

func TestToggleCourseStatus(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("DeactivateBlockedByRegistrations", func(t *testing.T) {
		mockRepo := new(MockCourseRepo)
		service := NewService(mockRepo, new(MockCourseCategoryRepo), slog.Default())

		mockRepo.On("GetByID", mock.Anything, id).
			Return(&types.Course{ID: id, IsActive: true}, nil).Once()
		mockRepo.On("CountRegistrations", mock.Anything, id).Return(2, nil).Once()

		_, err := service.ToggleStatus(ctx, id)

		assert.ErrorIs(t, err, api.ErrBadRequest)
		mockRepo.AssertNotCalled(t, "SetActive", mock.Anything, id, mock.Anything)
	})

	t.Run("ActivateSkipsRegistrationGuard", func(t *testing.T) {
		mockRepo := new(MockCourseRepo)
		service := NewService(mockRepo, new(MockCourseCategoryRepo), slog.Default())

		mockRepo.On("GetByID", mock.Anything, id).
			Return(&types.Course{ID: id, IsActive: false}, nil).Once()
		mockRepo.On("SetActive", mock.Anything, id, true).
			Return(&types.Course{ID: id, IsActive: true}, nil).Once()

		updated, err := service.ToggleStatus(ctx, id)

		assert.NoError(t, err)
		assert.True(t, updated.IsActive)
		mockRepo.AssertNotCalled(t, "CountRegistrations", mock.Anything, id)
	})
}

func TestDeleteCourse(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("BlockedByRegistrations", func(t *testing.T) {
		mockRepo := new(MockCourseRepo)
		service := NewService(mockRepo, new(MockCourseCategoryRepo), slog.Default())

		mockRepo.On("CountRegistrations", mock.Anything, id).Return(1, nil).Once()

		err := service.Delete(ctx, id)

		assert.ErrorIs(t, err, api.ErrBadRequest)
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, id)
	})

	t.Run("NotFoundAfterGuard", func(t *testing.T) {
		mockRepo := new(MockCourseRepo)
		service := NewService(mockRepo, new(MockCourseCategoryRepo), slog.Default())

		mockRepo.On("CountRegistrations", mock.Anything, id).Return(0, nil).Once()
		mockRepo.On("Delete", mock.Anything, id).Return(api.ErrNotFound).Once()

		err := service.Delete(ctx, id)

		assert.ErrorIs(t, err, api.ErrNotFound)
		mockRepo.AssertExpectations(t)
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	courseID := uuid.New()
	studentID := uuid.New()
	params := types.RegisterCourseParams{
		FirstName: "Rhea",
		LastName:  "Das",
		Resume:    "https://example.com/resume.pdf",
		Phone:     "9990001111",
		Email:     "rhea@example.com",
		Location:  "Kolkata",
	}

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockCourseRepo)
		service := NewService(mockRepo, new(MockCourseCategoryRepo), slog.Default())

		regID := uuid.New()
		mockRepo.On("GetByID", mock.Anything, courseID).
			Return(&types.Course{ID: courseID, IsActive: true}, nil).Once()
		mockRepo.On("CreateRegistration", mock.Anything, mock.AnythingOfType("*types.CourseRegistration")).
			Run(func(args mock.Arguments) {
				reg := args.Get(1).(*types.CourseRegistration)
				assert.Equal(t, courseID, reg.Course.ID)
				assert.Equal(t, studentID, reg.Student.ID)
			}).
			Return(regID, nil).Once()
		mockRepo.On("GetRegistrationByID", mock.Anything, regID).
			Return(&types.CourseRegistration{
				ID:      regID,
				Course:  types.CourseRef{ID: courseID, Title: "Basic Life Support"},
				Student: types.StudentRef{ID: studentID, Name: "Rhea Das"},
			}, nil).Once()

		registration, err := service.Register(ctx, courseID, studentID, params)

		assert.NoError(t, err)
		assert.Equal(t, "Basic Life Support", registration.Course.Title)
		mockRepo.AssertExpectations(t)
	})

	t.Run("AlreadyRegistered", func(t *testing.T) {
		mockRepo := new(MockCourseRepo)
		service := NewService(mockRepo, new(MockCourseCategoryRepo), slog.Default())

		mockRepo.On("GetByID", mock.Anything, courseID).
			Return(&types.Course{ID: courseID, IsActive: true}, nil).Once()
		mockRepo.On("CreateRegistration", mock.Anything, mock.Anything).
			Return(uuid.Nil, api.ErrConflict).Once()

		_, err := service.Register(ctx, courseID, studentID, params)

		assert.ErrorIs(t, err, api.ErrConflict)
		assert.Contains(t, err.Error(), "already registered")
	})

	t.Run("CourseNotFound", func(t *testing.T) {
		mockRepo := new(MockCourseRepo)
		service := NewService(mockRepo, new(MockCourseCategoryRepo), slog.Default())

		mockRepo.On("GetByID", mock.Anything, courseID).Return(nil, api.ErrNotFound).Once()

		_, err := service.Register(ctx, courseID, studentID, params)

		assert.ErrorIs(t, err, api.ErrNotFound)
		mockRepo.AssertNotCalled(t, "CreateRegistration", mock.Anything, mock.Anything)
	})

	t.Run("MissingFields", func(t *testing.T) {
		mockRepo := new(MockCourseRepo)
		service := NewService(mockRepo, new(MockCourseCategoryRepo), slog.Default())

		incomplete := params
		incomplete.Resume = ""

		_, err := service.Register(ctx, courseID, studentID, incomplete)

		assert.ErrorIs(t, err, api.ErrBadRequest)
		mockRepo.AssertNotCalled(t, "CreateRegistration", mock.Anything, mock.Anything)
	})
}

func TestGetRegistrationsByCourse(t *testing.T) {
	ctx := context.Background()
	courseID := uuid.New()

	t.Run("CourseNotFound", func(t *testing.T) {
		mockRepo := new(MockCourseRepo)
		service := NewService(mockRepo, new(MockCourseCategoryRepo), slog.Default())

		mockRepo.On("GetByID", mock.Anything, courseID).Return(nil, api.ErrNotFound).Once()

		_, err := service.GetRegistrationsByCourse(ctx, courseID)

		assert.ErrorIs(t, err, api.ErrNotFound)
		mockRepo.AssertNotCalled(t, "GetRegistrations", mock.Anything, mock.Anything)
	})

	t.Run("FiltersByCourse", func(t *testing.T) {
		mockRepo := new(MockCourseRepo)
		service := NewService(mockRepo, new(MockCourseCategoryRepo), slog.Default())

		mockRepo.On("GetByID", mock.Anything, courseID).
			Return(&types.Course{ID: courseID}, nil).Once()
		mockRepo.On("GetRegistrations", mock.Anything, types.RegistrationFilter{CourseID: &courseID}).
			Return([]types.CourseRegistration{{ID: uuid.New()}}, nil).Once()

		registrations, err := service.GetRegistrationsByCourse(ctx, courseID)

		assert.NoError(t, err)
		assert.Len(t, registrations, 1)
		mockRepo.AssertExpectations(t)
	})
}
