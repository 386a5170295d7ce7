package job

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
	"github.com/carelinnk/carelinnk-api/internal/api/category"
	"github.com/carelinnk/carelinnk-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service implements job posting rules. Jobs with applications on file
// cannot be deactivated or deleted.
type Service interface {
	Create(ctx context.Context, params types.CreateJobParams) (*types.Job, error)
	GetAll(ctx context.Context) ([]types.Job, error)
	GetActive(ctx context.Context) ([]types.Job, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Job, error)
	GetByCategory(ctx context.Context, categoryID uuid.UUID) ([]types.Job, error)
	Search(ctx context.Context, params types.SearchJobsParams) ([]types.Job, error)
	Update(ctx context.Context, id uuid.UUID, params types.UpdateJobParams) (*types.Job, error)
	Delete(ctx context.Context, id uuid.UUID) error

	Apply(ctx context.Context, jobID uuid.UUID, params types.ApplyJobParams) (*types.JobApplication, error)
	GetApplications(ctx context.Context, jobID uuid.UUID) ([]types.JobApplication, error)
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

func (s *ServiceImpl) Create(ctx context.Context, params types.CreateJobParams) (*types.Job, error) {
	ctx, span := otel.Tracer("JobService").Start(ctx, "Create")
	defer span.End()

	l := s.logger.With(slog.String("method", "Create"))

	if params.Title == "" || params.Category == "" || params.Description == "" ||
		params.EmploymentType == "" || params.ExperienceRequired == "" ||
		params.SalaryRange == "" || params.Location == "" || params.Vacancies == nil {
		return nil, fmt.Errorf("All required fields must be filled: %w", api.ErrBadRequest)
	}
	if *params.Vacancies < 1 {
		return nil, fmt.Errorf("Vacancies must be at least 1: %w", api.ErrBadRequest)
	}

	cat, err := s.resolveCategory(ctx, params.Category)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	created, err := s.repo.Create(ctx, &types.Job{
		Title:              params.Title,
		Category:           types.CategoryRef{ID: cat.ID},
		Description:        params.Description,
		EmploymentType:     params.EmploymentType,
		ExperienceRequired: params.ExperienceRequired,
		SalaryRange:        params.SalaryRange,
		Location:           params.Location,
		Vacancies:          *params.Vacancies,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create job")
		return nil, err
	}

	s.populate(ctx, created)
	l.InfoContext(ctx, "Job created", slog.String("jobID", created.ID.String()))
	span.SetStatus(codes.Ok, "Job created")
	return created, nil
}

func (s *ServiceImpl) GetAll(ctx context.Context) ([]types.Job, error) {
	ctx, span := otel.Tracer("JobService").Start(ctx, "GetAll")
	defer span.End()

	jobs, err := s.repo.GetAll(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.populateAll(ctx, jobs)
	return jobs, nil
}

func (s *ServiceImpl) GetActive(ctx context.Context) ([]types.Job, error) {
	ctx, span := otel.Tracer("JobService").Start(ctx, "GetActive")
	defer span.End()

	jobs, err := s.repo.GetActive(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.populateAll(ctx, jobs)
	return jobs, nil
}

func (s *ServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*types.Job, error) {
	ctx, span := otel.Tracer("JobService").Start(ctx, "GetByID")
	defer span.End()

	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("Job not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		return nil, err
	}
	s.populate(ctx, job)
	return job, nil
}

func (s *ServiceImpl) GetByCategory(ctx context.Context, categoryID uuid.UUID) ([]types.Job, error) {
	ctx, span := otel.Tracer("JobService").Start(ctx, "GetByCategory")
	defer span.End()

	jobs, err := s.repo.GetByCategory(ctx, categoryID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.populateAll(ctx, jobs)
	return jobs, nil
}

func (s *ServiceImpl) Search(ctx context.Context, params types.SearchJobsParams) ([]types.Job, error) {
	ctx, span := otel.Tracer("JobService").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("query", params.Query),
	))
	defer span.End()

	var categoryID *uuid.UUID
	if params.Category != "" {
		cat, err := s.resolveCategory(ctx, params.Category)
		if err != nil {
			if errors.Is(err, api.ErrNotFound) {
				return []types.Job{}, nil
			}
			span.RecordError(err)
			return nil, err
		}
		categoryID = &cat.ID
	}

	jobs, err := s.repo.Search(ctx, params.Query, categoryID, params.Location, params.EmploymentType)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.populateAll(ctx, jobs)
	return jobs, nil
}

func (s *ServiceImpl) Update(ctx context.Context, id uuid.UUID, params types.UpdateJobParams) (*types.Job, error) {
	ctx, span := otel.Tracer("JobService").Start(ctx, "Update")
	defer span.End()

	l := s.logger.With(slog.String("method", "Update"), slog.String("jobID", id.String()))

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("Job not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		return nil, err
	}

	if params.Vacancies != nil && *params.Vacancies < 1 {
		return nil, fmt.Errorf("Vacancies must be at least 1: %w", api.ErrBadRequest)
	}

	// Deactivation is blocked while applications are on file so
	// applicants are never orphaned silently, no matter the current
	// state of the posting.
	if params.IsActive != nil && !*params.IsActive {
		count, err := s.repo.CountApplications(ctx, id)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("Cannot deactivate job. %d application(s) are on file: %w", count, api.ErrBadRequest)
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
			return nil, fmt.Errorf("Job not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update job")
		return nil, err
	}

	s.populate(ctx, updated)
	l.InfoContext(ctx, "Job updated")
	span.SetStatus(codes.Ok, "Job updated")
	return updated, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.Tracer("JobService").Start(ctx, "Delete")
	defer span.End()

	count, err := s.repo.CountApplications(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if count > 0 {
		return fmt.Errorf("Cannot delete job. %d application(s) are on file: %w", count, api.ErrBadRequest)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("Job not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete job")
		return err
	}

	s.logger.InfoContext(ctx, "Job deleted", slog.String("jobID", id.String()))
	span.SetStatus(codes.Ok, "Job deleted")
	return nil
}

func (s *ServiceImpl) Apply(ctx context.Context, jobID uuid.UUID, params types.ApplyJobParams) (*types.JobApplication, error) {
	ctx, span := otel.Tracer("JobService").Start(ctx, "Apply")
	defer span.End()

	if params.ApplicantName == "" || params.Email == "" || params.Phone == "" {
		return nil, fmt.Errorf("All fields are required: %w", api.ErrBadRequest)
	}

	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("Job not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		return nil, err
	}
	if !job.IsActive {
		return nil, fmt.Errorf("Job is no longer accepting applications: %w", api.ErrBadRequest)
	}

	created, err := s.repo.CreateApplication(ctx, &types.JobApplication{
		JobID:         jobID,
		ApplicantName: params.ApplicantName,
		Email:         params.Email,
		Phone:         params.Phone,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create application")
		return nil, err
	}

	s.logger.InfoContext(ctx, "Job application received",
		slog.String("jobID", jobID.String()), slog.String("applicationID", created.ID.String()))
	span.SetStatus(codes.Ok, "Application created")
	return created, nil
}

func (s *ServiceImpl) GetApplications(ctx context.Context, jobID uuid.UUID) ([]types.JobApplication, error) {
	ctx, span := otel.Tracer("JobService").Start(ctx, "GetApplications")
	defer span.End()

	if _, err := s.repo.GetByID(ctx, jobID); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("Job not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		return nil, err
	}

	applications, err := s.repo.GetApplications(ctx, jobID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return applications, nil
}

func (s *ServiceImpl) resolveCategory(ctx context.Context, ref string) (*types.Category, error) {
	var (
		cat *types.Category
		err error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		cat, err = s.categoryRepo.GetByID(ctx, types.FamilyJob, id)
	} else {
		cat, err = s.categoryRepo.GetByName(ctx, types.FamilyJob, ref)
	}
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("Category not found: %w", api.ErrNotFound)
		}
		return nil, err
	}
	return cat, nil
}

func (s *ServiceImpl) populateAll(ctx context.Context, jobs []types.Job) {
	for i := range jobs {
		s.populate(ctx, &jobs[i])
	}
}

func (s *ServiceImpl) populate(ctx context.Context, job *types.Job) {
	if job.Category.ID == uuid.Nil {
		return
	}
	cat, err := s.categoryRepo.GetByID(ctx, types.FamilyJob, job.Category.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to populate job category",
			slog.String("categoryID", job.Category.ID.String()), slog.Any("error", err))
		return
	}
	job.Category = types.CategoryRef{ID: cat.ID, Name: cat.Name, Description: cat.Description}
}
