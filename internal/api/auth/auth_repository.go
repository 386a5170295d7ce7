package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

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

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo defines the contract for user identity persistence.
type AuthRepo interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	GetVerifiedUserByEmail(ctx context.Context, email string) (*types.User, error)
	GetVerifiedUserByPhone(ctx context.Context, phone string) (*types.User, error)
	GetUnverifiedUserByEmail(ctx context.Context, email string) (*types.User, error)

	// UnverifiedPhoneInUse reports whether an unverified user other
	// than excludeEmail already holds the phone number. excludeEmail
	// may be empty for the new-user path.
	UnverifiedPhoneInUse(ctx context.Context, phone, excludeEmail string) (bool, error)

	CreateUser(ctx context.Context, u *types.User) (*types.User, error)

	// OverwriteUnverifiedUser replaces the mutable registration fields
	// of an existing unverified user, OTP state included.
	OverwriteUnverifiedUser(ctx context.Context, u *types.User) (*types.User, error)

	SetOTP(ctx context.Context, userID uuid.UUID, code string, expiry time.Time) error
	MarkVerified(ctx context.Context, userID uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresAuthRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const userColumns = `id, name, email, phone_number, password_hash, account_type,
	referral_id, is_verified, otp_code, otp_expiry, created_at, updated_at`

func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PhoneNumber, &u.PasswordHash, &u.AccountType,
		&u.ReferralID, &u.IsVerified, &u.OTPCode, &u.OTPExpiry, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// translatePgError maps store failures onto the shared sentinels so
// callers never branch on driver types.
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

func (r *PostgresAuthRepo) getUserWhere(ctx context.Context, span trace.Span, clause string, args ...any) (*types.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE %s", userColumns, clause)
	u, err := scanUser(r.pgpool.QueryRow(ctx, query, args...))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB query failed")
		}
		return nil, fmt.Errorf("database error fetching user: %w", translatePgError(err))
	}
	return u, nil
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	return r.getUserWhere(ctx, span, "id = $1", userID)
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByEmail", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	return r.getUserWhere(ctx, span, "email = $1", email)
}

func (r *PostgresAuthRepo) GetVerifiedUserByEmail(ctx context.Context, email string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetVerifiedUserByEmail", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	return r.getUserWhere(ctx, span, "email = $1 AND is_verified", email)
}

func (r *PostgresAuthRepo) GetVerifiedUserByPhone(ctx context.Context, phone string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetVerifiedUserByPhone", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	return r.getUserWhere(ctx, span, "phone_number = $1 AND is_verified", phone)
}

func (r *PostgresAuthRepo) GetUnverifiedUserByEmail(ctx context.Context, email string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUnverifiedUserByEmail", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	return r.getUserWhere(ctx, span, "email = $1 AND NOT is_verified", email)
}

func (r *PostgresAuthRepo) UnverifiedPhoneInUse(ctx context.Context, phone, excludeEmail string) (bool, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "UnverifiedPhoneInUse", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	var count int
	err := r.pgpool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users
		 WHERE phone_number = $1 AND NOT is_verified AND email <> $2`,
		phone, excludeEmail).Scan(&count)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return false, fmt.Errorf("database error checking phone number: %w", translatePgError(err))
	}
	return count > 0, nil
}

func (r *PostgresAuthRepo) CreateUser(ctx context.Context, u *types.User) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "CreateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "CreateUser"), slog.String("email", u.Email))

	query := fmt.Sprintf(`
		INSERT INTO users (name, email, phone_number, password_hash, account_type,
			referral_id, is_verified, otp_code, otp_expiry)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8)
		RETURNING %s`, userColumns)

	created, err := scanUser(r.pgpool.QueryRow(ctx, query,
		u.Name, u.Email, u.PhoneNumber, u.PasswordHash, u.AccountType,
		u.ReferralID, u.OTPCode, u.OTPExpiry))
	if err != nil {
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB insert failed")
		return nil, fmt.Errorf("database error creating user: %w", translatePgError(err))
	}

	l.DebugContext(ctx, "User created", slog.String("userID", created.ID.String()))
	span.SetStatus(codes.Ok, "User created")
	return created, nil
}

func (r *PostgresAuthRepo) OverwriteUnverifiedUser(ctx context.Context, u *types.User) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "OverwriteUnverifiedUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	query := fmt.Sprintf(`
		UPDATE users
		SET name = $2, phone_number = $3, password_hash = $4, account_type = $5,
			referral_id = $6, otp_code = $7, otp_expiry = $8, updated_at = now()
		WHERE id = $1 AND NOT is_verified
		RETURNING %s`, userColumns)

	updated, err := scanUser(r.pgpool.QueryRow(ctx, query,
		u.ID, u.Name, u.PhoneNumber, u.PasswordHash, u.AccountType,
		u.ReferralID, u.OTPCode, u.OTPExpiry))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		return nil, fmt.Errorf("database error updating unverified user: %w", translatePgError(err))
	}

	span.SetStatus(codes.Ok, "User overwritten")
	return updated, nil
}

func (r *PostgresAuthRepo) SetOTP(ctx context.Context, userID uuid.UUID, code string, expiry time.Time) error {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "SetOTP", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx,
		`UPDATE users SET otp_code = $2, otp_expiry = $3, updated_at = now() WHERE id = $1`,
		userID, code, expiry)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		return fmt.Errorf("database error storing OTP: %w", translatePgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user missing while storing OTP: %w", api.ErrNotFound)
	}
	return nil
}

func (r *PostgresAuthRepo) MarkVerified(ctx context.Context, userID uuid.UUID) error {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "MarkVerified", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx,
		`UPDATE users
		 SET is_verified = TRUE, otp_code = NULL, otp_expiry = NULL, updated_at = now()
		 WHERE id = $1`, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		return fmt.Errorf("database error verifying user: %w", translatePgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user missing while verifying: %w", api.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "User verified")
	return nil
}

func (r *PostgresAuthRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "UpdatePassword", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	// A password reset invalidates any pending OTP.
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE users
		 SET password_hash = $2, otp_code = NULL, otp_expiry = NULL, updated_at = now()
		 WHERE id = $1`, userID, passwordHash)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB update failed")
		return fmt.Errorf("database error updating password: %w", translatePgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user missing while updating password: %w", api.ErrNotFound)
	}
	return nil
}
