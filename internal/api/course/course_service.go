package course

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/carelinnk/carelinnk-api/internal/api"
	"github.com/carelinnk/carelinnk-api/internal/api/category"
	"github.com/carelinnk/carelinnk-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service implements course rules. A course with student
// registrations on file cannot be deactivated or deleted, and a
// student may register for a course only once.
type Service interface {
	Create(ctx context.Context, params types.CreateCourseParams) (*types.Course, error)
	GetAll(ctx context.Context, params types.ListCoursesParams) ([]types.Course, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Course, error)
	Update(ctx context.Context, id uuid.UUID, params types.UpdateCourseParams) (*types.Course, error)
	ToggleStatus(ctx context.Context, id uuid.UUID) (*types.Course, error)
	Delete(ctx context.Context, id uuid.UUID) error

	Register(ctx context.Context, courseID, studentID uuid.UUID, params types.RegisterCourseParams) (*types.CourseRegistration, error)
	GetRegistrations(ctx context.Context, filter types.RegistrationFilter) ([]types.CourseRegistration, error)
	GetRegistrationsByCourse(ctx context.Context, courseID uuid.UUID) ([]types.CourseRegistration, error)
	GetStudentRegistrations(ctx context.Context, studentID uuid.UUID) ([]types.CourseRegistration, error)
	GetRegistrationByID(ctx context.Context, id uuid.UUID) (*types.CourseRegistration, error)
	DeleteRegistration(ctx context.Context, id uuid.UUID) error
}

type ServiceImpl struct {
	logger       *slog.Logger
	repo         Repository
	categoryRepo category.Repository
}

func NewService(repo Repository, categoryRepo category.Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:       logger,
		repo:         repo,
		categoryRepo: categoryRepo,
	}
}

func (s *ServiceImpl) Create(ctx context.Context, params types.CreateCourseParams) (*types.Course, error) {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "Create")
	defer span.End()

	l := s.logger.With(slog.String("method", "Create"))

	if params.Title == "" || params.Category == "" || params.Description == "" ||
		params.Instructor == "" || params.Duration == "" || params.Price == nil {
		return nil, fmt.Errorf("All fields are required: %w", api.ErrBadRequest)
	}
	if *params.Price < 0 {
		return nil, fmt.Errorf("Price cannot be negative: %w", api.ErrBadRequest)
	}

	cat, err := s.resolveCategory(ctx, params.Category)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	isActive := params.IsActive != nil && *params.IsActive
	created, err := s.repo.Create(ctx, &types.Course{
		Title:       params.Title,
		Category:    types.CategoryRef{ID: cat.ID},
		Description: params.Description,
		Instructor:  params.Instructor,
		Duration:    params.Duration,
		Price:       *params.Price,
		Images:      params.Images,
		IsActive:    isActive,
	})
	if err != nil {
		if errors.Is(err, api.ErrConflict) {
			return nil, fmt.Errorf("Course with this title already exists: %w", api.ErrConflict)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create course")
		return nil, err
	}

	s.populate(ctx, created)
	l.InfoContext(ctx, "Course created", slog.String("courseID", created.ID.String()))
	span.SetStatus(codes.Ok, "Course created")
	return created, nil
}

func (s *ServiceImpl) GetAll(ctx context.Context, params types.ListCoursesParams) ([]types.Course, error) {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "GetAll")
	defer span.End()

	var categoryID *uuid.UUID
	if params.Category != "" {
		cat, err := s.resolveCategory(ctx, params.Category)
		if err != nil {
			if errors.Is(err, api.ErrNotFound) {
				return []types.Course{}, nil
			}
			span.RecordError(err)
			return nil, err
		}
		categoryID = &cat.ID
	}

	courses, err := s.repo.GetAll(ctx, params.IsActive, categoryID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.populateAll(ctx, courses)
	return courses, nil
}

func (s *ServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*types.Course, error) {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "GetByID")
	defer span.End()

	course, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("Course not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		return nil, err
	}
	s.populate(ctx, course)
	return course, nil
}

func (s *ServiceImpl) Update(ctx context.Context, id uuid.UUID, params types.UpdateCourseParams) (*types.Course, error) {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "Update")
	defer span.End()

	l := s.logger.With(slog.String("method", "Update"), slog.String("courseID", id.String()))

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("Course not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		return nil, err
	}

	if params.Price != nil && *params.Price < 0 {
		return nil, fmt.Errorf("Price cannot be negative: %w", api.ErrBadRequest)
	}

	if params.IsActive != nil && !*params.IsActive {
		count, err := s.repo.CountRegistrations(ctx, id)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("Cannot deactivate course. %d student(s) are registered for this course: %w", count, api.ErrBadRequest)
		}
	}

	var categoryID *uuid.UUID
	if params.Category != nil {
		cat, err := s.resolveCategory(ctx, *params.Category)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		categoryID = &cat.ID
	}

	updated, err := s.repo.Update(ctx, id, params, categoryID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("Course not found: %w", api.ErrNotFound)
		}
		if errors.Is(err, api.ErrConflict) {
			return nil, fmt.Errorf("Course with this title already exists: %w", api.ErrConflict)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update course")
		return nil, err
	}

	s.populate(ctx, updated)
	l.InfoContext(ctx, "Course updated")
	span.SetStatus(codes.Ok, "Course updated")
	return updated, nil
}

// ToggleStatus flips is_active. Deactivation is blocked while
// registrations are on file; re-activation is always allowed.
func (s *ServiceImpl) ToggleStatus(ctx context.Context, id uuid.UUID) (*types.Course, error) {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "ToggleStatus")
	defer span.End()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("Course not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		return nil, err
	}

	if current.IsActive {
		count, err := s.repo.CountRegistrations(ctx, id)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("Cannot deactivate course. %d student(s) are registered for this course: %w", count, api.ErrBadRequest)
		}
	}

	updated, err := s.repo.SetActive(ctx, id, !current.IsActive)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("Course not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		return nil, err
	}

	s.populate(ctx, updated)
	s.logger.InfoContext(ctx, "Course status toggled",
		slog.String("courseID", id.String()), slog.Bool("isActive", updated.IsActive))
	span.SetStatus(codes.Ok, "Course status toggled")
	return updated, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "Delete")
	defer span.End()

	count, err := s.repo.CountRegistrations(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if count > 0 {
		return fmt.Errorf("Cannot delete course. %d student(s) are registered for this course: %w", count, api.ErrBadRequest)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("Course not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete course")
		return err
	}

	s.logger.InfoContext(ctx, "Course deleted", slog.String("courseID", id.String()))
	span.SetStatus(codes.Ok, "Course deleted")
	return nil
}

func (s *ServiceImpl) Register(ctx context.Context, courseID, studentID uuid.UUID, params types.RegisterCourseParams) (*types.CourseRegistration, error) {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "Register")
	defer span.End()

	if params.FirstName == "" || params.LastName == "" || params.Resume == "" ||
		params.Phone == "" || params.Email == "" || params.Location == "" {
		return nil, fmt.Errorf("All required fields must be filled: %w", api.ErrBadRequest)
	}

	if _, err := s.repo.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("Course not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		return nil, err
	}

	// The unique (course, student) index is the duplicate guard; two
	// concurrent registrations cannot both slip past it.
	id, err := s.repo.CreateRegistration(ctx, &types.CourseRegistration{
		Course:    types.CourseRef{ID: courseID},
		Student:   types.StudentRef{ID: studentID},
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Resume:    params.Resume,
		Phone:     params.Phone,
		Email:     params.Email,
		Location:  params.Location,
	})
	if err != nil {
		if errors.Is(err, api.ErrConflict) {
			return nil, fmt.Errorf("You are already registered for this course: %w", api.ErrConflict)
		}
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("User not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create registration")
		return nil, err
	}

	created, err := s.repo.GetRegistrationByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Course registration received",
		slog.String("courseID", courseID.String()), slog.String("registrationID", id.String()))
	span.SetStatus(codes.Ok, "Registration created")
	return created, nil
}

func (s *ServiceImpl) GetRegistrations(ctx context.Context, filter types.RegistrationFilter) ([]types.CourseRegistration, error) {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "GetRegistrations")
	defer span.End()

	registrations, err := s.repo.GetRegistrations(ctx, filter)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return registrations, nil
}

func (s *ServiceImpl) GetRegistrationsByCourse(ctx context.Context, courseID uuid.UUID) ([]types.CourseRegistration, error) {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "GetRegistrationsByCourse")
	defer span.End()

	if _, err := s.repo.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("Course not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		return nil, err
	}

	registrations, err := s.repo.GetRegistrations(ctx, types.RegistrationFilter{CourseID: &courseID})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return registrations, nil
}

func (s *ServiceImpl) GetStudentRegistrations(ctx context.Context, studentID uuid.UUID) ([]types.CourseRegistration, error) {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "GetStudentRegistrations")
	defer span.End()

	registrations, err := s.repo.GetRegistrations(ctx, types.RegistrationFilter{StudentID: &studentID})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return registrations, nil
}

func (s *ServiceImpl) GetRegistrationByID(ctx context.Context, id uuid.UUID) (*types.CourseRegistration, error) {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "GetRegistrationByID")
	defer span.End()

	reg, err := s.repo.GetRegistrationByID(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("Registration not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		return nil, err
	}
	return reg, nil
}

func (s *ServiceImpl) DeleteRegistration(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "DeleteRegistration")
	defer span.End()

	if err := s.repo.DeleteRegistration(ctx, id); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("Registration not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete registration")
		return err
	}

	s.logger.InfoContext(ctx, "Registration deleted", slog.String("registrationID", id.String()))
	span.SetStatus(codes.Ok, "Registration deleted")
	return nil
}

func (s *ServiceImpl) resolveCategory(ctx context.Context, ref string) (*types.Category, error) {
	var (
		cat *types.Category
		err error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		cat, err = s.categoryRepo.GetByID(ctx, types.FamilyCourse, id)
	} else {
		cat, err = s.categoryRepo.GetByName(ctx, types.FamilyCourse, ref)
	}
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("Category not found: %w", api.ErrNotFound)
		}
		return nil, err
	}
	return cat, nil
}

func (s *ServiceImpl) populateAll(ctx context.Context, courses []types.Course) {
	for i := range courses {
		s.populate(ctx, &courses[i])
	}
}

func (s *ServiceImpl) populate(ctx context.Context, course *types.Course) {
	if course.Category.ID == uuid.Nil {
		return
	}
	cat, err := s.categoryRepo.GetByID(ctx, types.FamilyCourse, course.Category.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to populate course category",
			slog.String("categoryID", course.Category.ID.String()), slog.Any("error", err))
		return
	}
	course.Category = types.CategoryRef{ID: cat.ID, Name: cat.Name, Description: cat.Description}
}
