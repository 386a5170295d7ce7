package course

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

var _ Repository = (*PostgresCourseRepo)(nil)

// Repository persists courses and their registrations. Registration
// rows always come back with the course and student references
// resolved, joined in a single query.
type Repository interface {
	Create(ctx context.Context, c *types.Course) (*types.Course, error)
	GetAll(ctx context.Context, isActive *bool, categoryID *uuid.UUID) ([]types.Course, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Course, error)
	Update(ctx context.Context, id uuid.UUID, params types.UpdateCourseParams, categoryID *uuid.UUID) (*types.Course, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*types.Course, error)
	Delete(ctx context.Context, id uuid.UUID) error

	CreateRegistration(ctx context.Context, reg *types.CourseRegistration) (uuid.UUID, error)
	CountRegistrations(ctx context.Context, courseID uuid.UUID) (int, error)
	GetRegistrations(ctx context.Context, filter types.RegistrationFilter) ([]types.CourseRegistration, error)
	GetRegistrationByID(ctx context.Context, id uuid.UUID) (*types.CourseRegistration, error)
	DeleteRegistration(ctx context.Context, id uuid.UUID) error
}

type PostgresCourseRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresCourseRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresCourseRepo {
	return &PostgresCourseRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const courseColumns = `id, title, category_id, description, instructor, duration,
	price, images, is_active, created_at, updated_at`

func scanCourse(row pgx.Row) (*types.Course, error) {
	var c types.Course
	err := row.Scan(
		&c.ID, &c.Title, &c.Category.ID, &c.Description, &c.Instructor, &c.Duration,
		&c.Price, &c.Images, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// translatePgError maps driver errors onto the shared sentinels.
// 23503 surfaces when a registration references a user or course
// deleted between the guard read and the insert.
func translatePgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return api.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return api.ErrConflict
		case "23503":
			return api.ErrNotFound
		}
	}
	return err
}

func (r *PostgresCourseRepo) startSpan(ctx context.Context, name, table string) (context.Context, trace.Span) {
	return otel.Tracer("CourseRepo").Start(ctx, name, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", table),
	))
}

func (r *PostgresCourseRepo) Create(ctx context.Context, c *types.Course) (*types.Course, error) {
	ctx, span := r.startSpan(ctx, "Create", "courses")
	defer span.End()

	query := fmt.Sprintf(`
		INSERT INTO courses (title, category_id, description, instructor, duration, price, images, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s`, courseColumns)

	created, err := scanCourse(r.pgpool.QueryRow(ctx, query,
		c.Title, c.Category.ID, c.Description, c.Instructor, c.Duration,
		c.Price, c.Images, c.IsActive))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return nil, fmt.Errorf("database error creating course: %w", translatePgError(err))
	}

	r.logger.DebugContext(ctx, "Course created", slog.String("courseID", created.ID.String()))
	span.SetStatus(codes.Ok, "Course created")
	return created, nil
}

func (r *PostgresCourseRepo) GetAll(ctx context.Context, isActive *bool, categoryID *uuid.UUID) ([]types.Course, error) {
	ctx, span := r.startSpan(ctx, "GetAll", "courses")
	defer span.End()

	sql := fmt.Sprintf("SELECT %s FROM courses WHERE TRUE", courseColumns)
	args := []any{}

	if isActive != nil {
		args = append(args, *isActive)
		sql += fmt.Sprintf(" AND is_active = $%d", len(args))
	}
	if categoryID != nil {
		args = append(args, *categoryID)
		sql += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	sql += " ORDER BY created_at DESC"

	rows, err := r.pgpool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("database error listing courses: %w", translatePgError(err))
	}
	defer rows.Close()

	courses := make([]types.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning course: %w", err)
		}
		courses = append(courses, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating courses: %w", err)
	}
	return courses, nil
}

func (r *PostgresCourseRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Course, error) {
	ctx, span := r.startSpan(ctx, "GetByID", "courses")
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	c, err := scanCourse(r.pgpool.QueryRow(ctx, query, id))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB query failed")
		}
		return nil, fmt.Errorf("database error fetching course: %w", translatePgError(err))
	}
	return c, nil
}

func (r *PostgresCourseRepo) Update(ctx context.Context, id uuid.UUID, params types.UpdateCourseParams, categoryID *uuid.UUID) (*types.Course, error) {
	ctx, span := r.startSpan(ctx, "Update", "courses")
	defer span.End()

	query := fmt.Sprintf(`
		UPDATE courses
		SET title = COALESCE($2, title),
			category_id = COALESCE($3, category_id),
			description = COALESCE($4, description),
			instructor = COALESCE($5, instructor),
			duration = COALESCE($6, duration),
			price = COALESCE($7, price),
			images = COALESCE($8, images),
			is_active = COALESCE($9, is_active),
			updated_at = now()
		WHERE id = $1
		RETURNING %s`, courseColumns)

	updated, err := scanCourse(r.pgpool.QueryRow(ctx, query, id,
		params.Title, categoryID, params.Description, params.Instructor,
		params.Duration, params.Price, params.Images, params.IsActive))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB update failed")
		}
		return nil, fmt.Errorf("database error updating course: %w", translatePgError(err))
	}

	span.SetStatus(codes.Ok, "Course updated")
	return updated, nil
}

func (r *PostgresCourseRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) (*types.Course, error) {
	ctx, span := r.startSpan(ctx, "SetActive", "courses")
	defer span.End()

	query := fmt.Sprintf(`
		UPDATE courses SET is_active = $2, updated_at = now()
		WHERE id = $1
		RETURNING %s`, courseColumns)

	updated, err := scanCourse(r.pgpool.QueryRow(ctx, query, id, active))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB update failed")
		}
		return nil, fmt.Errorf("database error toggling course: %w", translatePgError(err))
	}
	return updated, nil
}

func (r *PostgresCourseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := r.startSpan(ctx, "Delete", "courses")
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, "DELETE FROM courses WHERE id = $1", id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB delete failed")
		return fmt.Errorf("database error deleting course: %w", translatePgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("course missing while deleting: %w", api.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "Course deleted")
	return nil
}

func (r *PostgresCourseRepo) CreateRegistration(ctx context.Context, reg *types.CourseRegistration) (uuid.UUID, error) {
	ctx, span := r.startSpan(ctx, "CreateRegistration", "course_registrations")
	defer span.End()

	var id uuid.UUID
	err := r.pgpool.QueryRow(ctx, `
		INSERT INTO course_registrations (course_id, student_id, first_name, last_name, resume, phone, email, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		reg.Course.ID, reg.Student.ID, reg.FirstName, reg.LastName,
		reg.Resume, reg.Phone, reg.Email, reg.Location).Scan(&id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return uuid.Nil, fmt.Errorf("database error creating registration: %w", translatePgError(err))
	}

	span.SetStatus(codes.Ok, "Registration created")
	return id, nil
}

func (r *PostgresCourseRepo) CountRegistrations(ctx context.Context, courseID uuid.UUID) (int, error) {
	ctx, span := r.startSpan(ctx, "CountRegistrations", "course_registrations")
	defer span.End()

	var count int
	err := r.pgpool.QueryRow(ctx,
		"SELECT COUNT(*) FROM course_registrations WHERE course_id = $1", courseID).Scan(&count)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return 0, fmt.Errorf("database error counting registrations: %w", translatePgError(err))
	}
	return count, nil
}

const registrationColumns = `r.id, r.course_id, c.title, c.instructor,
	r.student_id, u.name, u.email,
	r.first_name, r.last_name, r.resume, r.phone, r.email, r.location, r.created_at`

const registrationFrom = `
	FROM course_registrations r
	JOIN courses c ON c.id = r.course_id
	JOIN users u ON u.id = r.student_id`

func scanRegistration(row pgx.Row) (*types.CourseRegistration, error) {
	var reg types.CourseRegistration
	err := row.Scan(
		&reg.ID, &reg.Course.ID, &reg.Course.Title, &reg.Course.Instructor,
		&reg.Student.ID, &reg.Student.Name, &reg.Student.Email,
		&reg.FirstName, &reg.LastName, &reg.Resume, &reg.Phone, &reg.Email,
		&reg.Location, &reg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *PostgresCourseRepo) GetRegistrations(ctx context.Context, filter types.RegistrationFilter) ([]types.CourseRegistration, error) {
	ctx, span := r.startSpan(ctx, "GetRegistrations", "course_registrations")
	defer span.End()

	sql := "SELECT " + registrationColumns + registrationFrom + " WHERE TRUE"
	args := []any{}

	if filter.CourseID != nil {
		args = append(args, *filter.CourseID)
		sql += fmt.Sprintf(" AND r.course_id = $%d", len(args))
	}
	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		sql += fmt.Sprintf(" AND r.student_id = $%d", len(args))
	}
	sql += " ORDER BY r.created_at DESC"

	rows, err := r.pgpool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("database error listing registrations: %w", translatePgError(err))
	}
	defer rows.Close()

	registrations := make([]types.CourseRegistration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning registration: %w", err)
		}
		registrations = append(registrations, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating registrations: %w", err)
	}
	return registrations, nil
}

func (r *PostgresCourseRepo) GetRegistrationByID(ctx context.Context, id uuid.UUID) (*types.CourseRegistration, error) {
	ctx, span := r.startSpan(ctx, "GetRegistrationByID", "course_registrations")
	defer span.End()

	sql := "SELECT " + registrationColumns + registrationFrom + " WHERE r.id = $1"
	reg, err := scanRegistration(r.pgpool.QueryRow(ctx, sql, id))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB query failed")
		}
		return nil, fmt.Errorf("database error fetching registration: %w", translatePgError(err))
	}
	return reg, nil
}

func (r *PostgresCourseRepo) DeleteRegistration(ctx context.Context, id uuid.UUID) error {
	ctx, span := r.startSpan(ctx, "DeleteRegistration", "course_registrations")
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, "DELETE FROM course_registrations WHERE id = $1", id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB delete failed")
		return fmt.Errorf("database error deleting registration: %w", translatePgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("registration missing while deleting: %w", api.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "Registration deleted")
	return nil
}
