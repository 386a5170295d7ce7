package job

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

var _ Repository = (*PostgresJobRepo)(nil)

// Repository persists job postings and their applications.
type Repository interface {
	Create(ctx context.Context, j *types.Job) (*types.Job, error)
	GetAll(ctx context.Context) ([]types.Job, error)
	GetActive(ctx context.Context) ([]types.Job, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Job, error)
	GetByCategory(ctx context.Context, categoryID uuid.UUID) ([]types.Job, error)
	Search(ctx context.Context, query string, categoryID *uuid.UUID, location, employmentType string) ([]types.Job, error)
	Update(ctx context.Context, id uuid.UUID, params types.UpdateJobParams, categoryID *uuid.UUID) (*types.Job, error)
	Delete(ctx context.Context, id uuid.UUID) error

	CreateApplication(ctx context.Context, a *types.JobApplication) (*types.JobApplication, error)
	CountApplications(ctx context.Context, jobID uuid.UUID) (int, error)
	GetApplications(ctx context.Context, jobID uuid.UUID) ([]types.JobApplication, error)
}

type PostgresJobRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresJobRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresJobRepo {
	return &PostgresJobRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const jobColumns = `id, title, category_id, description, employment_type,
	experience_required, salary_range, location, vacancies, is_active, created_at, updated_at`

func scanJob(row pgx.Row) (*types.Job, error) {
	var j types.Job
	err := row.Scan(
		&j.ID, &j.Title, &j.Category.ID, &j.Description, &j.EmploymentType,
		&j.ExperienceRequired, &j.SalaryRange, &j.Location, &j.Vacancies, &j.IsActive,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
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

func (r *PostgresJobRepo) startSpan(ctx context.Context, name, table string) (context.Context, trace.Span) {
	return otel.Tracer("JobRepo").Start(ctx, name, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", table),
	))
}

func (r *PostgresJobRepo) Create(ctx context.Context, j *types.Job) (*types.Job, error) {
	ctx, span := r.startSpan(ctx, "Create", "jobs")
	defer span.End()

	query := fmt.Sprintf(`
		INSERT INTO jobs (title, category_id, description, employment_type,
			experience_required, salary_range, location, vacancies, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
		RETURNING %s`, jobColumns)

	created, err := scanJob(r.pgpool.QueryRow(ctx, query,
		j.Title, j.Category.ID, j.Description, j.EmploymentType,
		j.ExperienceRequired, j.SalaryRange, j.Location, j.Vacancies))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return nil, fmt.Errorf("database error creating job: %w", translatePgError(err))
	}

	r.logger.DebugContext(ctx, "Job created", slog.String("jobID", created.ID.String()))
	span.SetStatus(codes.Ok, "Job created")
	return created, nil
}

func (r *PostgresJobRepo) queryMany(ctx context.Context, query string, args ...any) ([]types.Job, error) {
	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("database error listing jobs: %w", translatePgError(err))
	}
	defer rows.Close()

	jobs := make([]types.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating jobs: %w", err)
	}
	return jobs, nil
}

func (r *PostgresJobRepo) GetAll(ctx context.Context) ([]types.Job, error) {
	ctx, span := r.startSpan(ctx, "GetAll", "jobs")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM jobs ORDER BY title ASC", jobColumns)
	return r.queryMany(ctx, query)
}

func (r *PostgresJobRepo) GetActive(ctx context.Context) ([]types.Job, error) {
	ctx, span := r.startSpan(ctx, "GetActive", "jobs")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM jobs WHERE is_active ORDER BY title ASC", jobColumns)
	return r.queryMany(ctx, query)
}

func (r *PostgresJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Job, error) {
	ctx, span := r.startSpan(ctx, "GetByID", "jobs")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM jobs WHERE id = $1", jobColumns)
	j, err := scanJob(r.pgpool.QueryRow(ctx, query, id))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB query failed")
		}
		return nil, fmt.Errorf("database error fetching job: %w", translatePgError(err))
	}
	return j, nil
}

func (r *PostgresJobRepo) GetByCategory(ctx context.Context, categoryID uuid.UUID) ([]types.Job, error) {
	ctx, span := r.startSpan(ctx, "GetByCategory", "jobs")
	defer span.End()

	query := fmt.Sprintf(
		"SELECT %s FROM jobs WHERE category_id = $1 AND is_active ORDER BY title ASC", jobColumns)
	return r.queryMany(ctx, query, categoryID)
}

func (r *PostgresJobRepo) Search(ctx context.Context, query string, categoryID *uuid.UUID, location, employmentType string) ([]types.Job, error) {
	ctx, span := r.startSpan(ctx, "Search", "jobs")
	defer span.End()

	sql := fmt.Sprintf("SELECT %s FROM jobs WHERE is_active", jobColumns)
	args := []any{}

	if query != "" {
		args = append(args, "%"+query+"%")
		n := len(args)
		sql += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", n, n)
	}
	if categoryID != nil {
		args = append(args, *categoryID)
		sql += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if location != "" {
		args = append(args, "%"+location+"%")
		sql += fmt.Sprintf(" AND location ILIKE $%d", len(args))
	}
	if employmentType != "" {
		args = append(args, employmentType)
		sql += fmt.Sprintf(" AND employment_type = $%d", len(args))
	}
	sql += " ORDER BY title ASC"

	return r.queryMany(ctx, sql, args...)
}

func (r *PostgresJobRepo) Update(ctx context.Context, id uuid.UUID, params types.UpdateJobParams, categoryID *uuid.UUID) (*types.Job, error) {
	ctx, span := r.startSpan(ctx, "Update", "jobs")
	defer span.End()

	query := fmt.Sprintf(`
		UPDATE jobs
		SET title = COALESCE($2, title),
			category_id = COALESCE($3, category_id),
			description = COALESCE($4, description),
			employment_type = COALESCE($5, employment_type),
			experience_required = COALESCE($6, experience_required),
			salary_range = COALESCE($7, salary_range),
			location = COALESCE($8, location),
			vacancies = COALESCE($9, vacancies),
			is_active = COALESCE($10, is_active),
			updated_at = now()
		WHERE id = $1
		RETURNING %s`, jobColumns)

	updated, err := scanJob(r.pgpool.QueryRow(ctx, query, id,
		params.Title, categoryID, params.Description, params.EmploymentType,
		params.ExperienceRequired, params.SalaryRange, params.Location,
		params.Vacancies, params.IsActive))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB update failed")
		}
		return nil, fmt.Errorf("database error updating job: %w", translatePgError(err))
	}

	span.SetStatus(codes.Ok, "Job updated")
	return updated, nil
}

func (r *PostgresJobRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := r.startSpan(ctx, "Delete", "jobs")
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, "DELETE FROM jobs WHERE id = $1", id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB delete failed")
		return fmt.Errorf("database error deleting job: %w", translatePgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job missing while deleting: %w", api.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "Job deleted")
	return nil
}

func (r *PostgresJobRepo) CreateApplication(ctx context.Context, a *types.JobApplication) (*types.JobApplication, error) {
	ctx, span := r.startSpan(ctx, "CreateApplication", "job_applications")
	defer span.End()

	var created types.JobApplication
	err := r.pgpool.QueryRow(ctx, `
		INSERT INTO job_applications (job_id, applicant_name, email, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id, job_id, applicant_name, email, phone, created_at`,
		a.JobID, a.ApplicantName, a.Email, a.Phone).Scan(
		&created.ID, &created.JobID, &created.ApplicantName, &created.Email,
		&created.Phone, &created.CreatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return nil, fmt.Errorf("database error creating application: %w", translatePgError(err))
	}

	span.SetStatus(codes.Ok, "Application created")
	return &created, nil
}

func (r *PostgresJobRepo) CountApplications(ctx context.Context, jobID uuid.UUID) (int, error) {
	ctx, span := r.startSpan(ctx, "CountApplications", "job_applications")
	defer span.End()

	var count int
	err := r.pgpool.QueryRow(ctx,
		"SELECT COUNT(*) FROM job_applications WHERE job_id = $1", jobID).Scan(&count)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return 0, fmt.Errorf("database error counting applications: %w", translatePgError(err))
	}
	return count, nil
}

func (r *PostgresJobRepo) GetApplications(ctx context.Context, jobID uuid.UUID) ([]types.JobApplication, error) {
	ctx, span := r.startSpan(ctx, "GetApplications", "job_applications")
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
		SELECT id, job_id, applicant_name, email, phone, created_at
		FROM job_applications WHERE job_id = $1 ORDER BY created_at DESC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("database error listing applications: %w", translatePgError(err))
	}
	defer rows.Close()

	applications := make([]types.JobApplication, 0)
	for rows.Next() {
		var a types.JobApplication
		if err := rows.Scan(&a.ID, &a.JobID, &a.ApplicantName, &a.Email, &a.Phone, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("database error scanning application: %w", err)
		}
		applications = append(applications, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating applications: %w", err)
	}
	return applications, nil
}
