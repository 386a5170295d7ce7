package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/carelinnk/carelinnk-api/app/mail"
	"github.com/carelinnk/carelinnk-api/app/observability/metrics"
	"github.com/carelinnk/carelinnk-api/config"
	"github.com/carelinnk/carelinnk-api/internal/api"
	"github.com/carelinnk/carelinnk-api/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService owns registration, OTP verification and session tokens.
type AuthService interface {
	// Register creates or refreshes an unverified account and sends an
	// OTP to the email. created reports whether the account is new as
	// opposed to a re-registration of a pending one.
	Register(ctx context.Context, req RegisterRequest) (data *RegisterData, created bool, err error)
	// VerifyOtp marks the account verified and logs the user straight
	// in: the payload carries the sanitized user plus a token pair.
	VerifyOtp(ctx context.Context, email, otp string) (*AuthPayload, error)
	ResendOtp(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*AuthPayload, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*types.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, newPassword string) (*types.User, error)
}

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	mailer mail.Sender
	jwtCfg config.JWTConfig
	otpCfg config.OTPConfig
}

func NewAuthService(repo AuthRepo, mailer mail.Sender, cfg *config.Config, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		mailer: mailer,
		jwtCfg: cfg.JWT,
		otpCfg: cfg.OTP,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, req RegisterRequest) (*RegisterData, bool, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register", trace.WithAttributes(attribute.String("email", req.Email)))
	defer span.End()

	l := s.logger.With(slog.String("method", "Register"), slog.String("email", req.Email))
	metrics.Get().RegisterRequestsTotal.Add(ctx, 1)

	// A verified account owns its email and phone for good.
	if _, err := s.repo.GetVerifiedUserByEmail(ctx, req.Email); err == nil {
		return nil, false, fmt.Errorf("Email already registered and verified: %w", api.ErrConflict)
	} else if !errors.Is(err, api.ErrNotFound) {
		span.RecordError(err)
		return nil, false, err
	}
	if _, err := s.repo.GetVerifiedUserByPhone(ctx, req.Phone); err == nil {
		return nil, false, fmt.Errorf("Phone number already registered and verified: %w", api.ErrConflict)
	} else if !errors.Is(err, api.ErrNotFound) {
		span.RecordError(err)
		return nil, false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	otp, err := s.generateOTP()
	if err != nil {
		span.RecordError(err)
		return nil, false, err
	}
	expiry := time.Now().Add(s.otpCfg.TTL)

	pending, err := s.repo.GetUnverifiedUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		// Re-registration of a pending account: make sure the new phone
		// number is not parked on some other pending account first.
		inUse, err := s.repo.UnverifiedPhoneInUse(ctx, req.Phone, req.Email)
		if err != nil {
			span.RecordError(err)
			return nil, false, err
		}
		if inUse {
			return nil, false, fmt.Errorf("Phone number already in use: %w", api.ErrConflict)
		}

		pending.Name = req.Name
		pending.PhoneNumber = req.Phone
		pending.PasswordHash = string(hash)
		pending.AccountType = req.AccountType
		pending.ReferralID = req.ReferralID
		pending.OTPCode = &otp
		pending.OTPExpiry = &expiry

		updated, err := s.repo.OverwriteUnverifiedUser(ctx, pending)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to update pending user")
			return nil, false, err
		}
		s.sendOTPAsync(updated.Email, otp)
		l.InfoContext(ctx, "Pending registration refreshed", slog.String("userID", updated.ID.String()))
		return &RegisterData{UserID: updated.ID.String(), Email: updated.Email}, false, nil

	case errors.Is(err, api.ErrNotFound):
		inUse, err := s.repo.UnverifiedPhoneInUse(ctx, req.Phone, "")
		if err != nil {
			span.RecordError(err)
			return nil, false, err
		}
		if inUse {
			return nil, false, fmt.Errorf("Phone number already in use: %w", api.ErrConflict)
		}

		created, err := s.repo.CreateUser(ctx, &types.User{
			Name:         req.Name,
			Email:        req.Email,
			PhoneNumber:  req.Phone,
			PasswordHash: string(hash),
			AccountType:  req.AccountType,
			ReferralID:   req.ReferralID,
			OTPCode:      &otp,
			OTPExpiry:    &expiry,
		})
		if err != nil {
			// Unique index races land here even though the pre-checks passed.
			if errors.Is(err, api.ErrConflict) {
				return nil, false, fmt.Errorf("Email or phone number already registered: %w", api.ErrConflict)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to create user")
			return nil, false, err
		}
		s.sendOTPAsync(created.Email, otp)
		l.InfoContext(ctx, "User registered", slog.String("userID", created.ID.String()))
		span.SetStatus(codes.Ok, "User registered")
		return &RegisterData{UserID: created.ID.String(), Email: created.Email}, true, nil

	default:
		span.RecordError(err)
		return nil, false, err
	}
}

func (s *AuthServiceImpl) VerifyOtp(ctx context.Context, email, otp string) (*AuthPayload, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "VerifyOtp", trace.WithAttributes(attribute.String("email", email)))
	defer span.End()

	l := s.logger.With(slog.String("method", "VerifyOtp"), slog.String("email", email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("User not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		return nil, err
	}
	if user.IsVerified {
		return nil, fmt.Errorf("User already verified: %w", api.ErrBadRequest)
	}

	// Expiry wins over a wrong code so a stale OTP never leaks whether
	// it would have matched.
	if user.OTPExpiry == nil || time.Now().After(*user.OTPExpiry) {
		metrics.Get().OTPExpiredTotal.Add(ctx, 1)
		return nil, fmt.Errorf("OTP expired. Please request a new one.: %w", api.ErrBadRequest)
	}
	if user.OTPCode == nil || subtle.ConstantTimeCompare([]byte(*user.OTPCode), []byte(otp)) != 1 {
		return nil, fmt.Errorf("Invalid OTP: %w", api.ErrBadRequest)
	}

	if err := s.repo.MarkVerified(ctx, user.ID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to mark user verified")
		return nil, err
	}
	user.IsVerified = true
	user.OTPCode = nil
	user.OTPExpiry = nil

	// Verification doubles as the first login.
	tokens, err := s.issueTokenPair(user)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	metrics.Get().OTPVerifiedTotal.Add(ctx, 1)
	l.InfoContext(ctx, "User verified", slog.String("userID", user.ID.String()))
	span.SetStatus(codes.Ok, "User verified")
	return &AuthPayload{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

func (s *AuthServiceImpl) ResendOtp(ctx context.Context, email string) error {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "ResendOtp", trace.WithAttributes(attribute.String("email", email)))
	defer span.End()

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("User not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		return err
	}
	// Resend works for verified accounts too; forgot-password reuses
	// the same mechanism.
	return s.issueOTP(ctx, span, user)
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login", trace.WithAttributes(attribute.String("email", email)))
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"), slog.String("email", email))
	metrics.Get().LoginRequestsTotal.Add(ctx, 1)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			// Same message for unknown email and bad password.
			return nil, fmt.Errorf("Invalid email or password: %w", api.ErrUnauthenticated)
		}
		span.RecordError(err)
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, fmt.Errorf("Invalid email or password: %w", api.ErrUnauthenticated)
	}
	if !user.IsVerified {
		return nil, fmt.Errorf("Please verify your email first: %w", api.ErrForbidden)
	}

	tokens, err := s.issueTokenPair(user)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	l.InfoContext(ctx, "User logged in", slog.String("userID", user.ID.String()))
	span.SetStatus(codes.Ok, "Login successful")
	return &AuthPayload{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

func (s *AuthServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "RefreshToken")
	defer span.End()

	token, err := jwt.ParseWithClaims(refreshToken, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtCfg.RefreshSecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("Refresh token expired: %w", api.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("Invalid refresh token: %w", api.ErrUnauthenticated)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("Invalid refresh token: %w", api.ErrUnauthenticated)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("Invalid refresh token: %w", api.ErrUnauthenticated)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("User not found: %w", api.ErrUnauthenticated)
		}
		span.RecordError(err)
		return nil, err
	}

	tokens, err := s.issueTokenPair(user)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "Token refreshed")
	return tokens, nil
}

func (s *AuthServiceImpl) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "GetCurrentUser")
	defer span.End()

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("User not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		return nil, err
	}
	return user, nil
}

func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, email string) error {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "ForgotPassword", trace.WithAttributes(attribute.String("email", email)))
	defer span.End()

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("User not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		return err
	}
	return s.issueOTP(ctx, span, user)
}

// ResetPassword overwrites the password for the account and clears
// any pending OTP. The email is the only lookup key; the OTP issued
// by ForgotPassword is advisory (it proves mailbox access to the user,
// not to us) which mirrors the upstream behavior this API replaces.
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, email, newPassword string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "ResetPassword", trace.WithAttributes(attribute.String("email", email)))
	defer span.End()

	l := s.logger.With(slog.String("method", "ResetPassword"), slog.String("email", email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("User not found: %w", api.ErrNotFound)
		}
		span.RecordError(err)
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update password")
		return nil, err
	}
	user.OTPCode = nil
	user.OTPExpiry = nil

	l.InfoContext(ctx, "Password reset", slog.String("userID", user.ID.String()))
	span.SetStatus(codes.Ok, "Password reset")
	return user, nil
}

// issueOTP stores a fresh code on the user and kicks off delivery.
// Shared by resend and forgot-password.
func (s *AuthServiceImpl) issueOTP(ctx context.Context, span trace.Span, user *types.User) error {
	otp, err := s.generateOTP()
	if err != nil {
		return err
	}
	expiry := time.Now().Add(s.otpCfg.TTL)
	if err := s.repo.SetOTP(ctx, user.ID, otp, expiry); err != nil {
		span.RecordError(err)
		return err
	}
	s.sendOTPAsync(user.Email, otp)
	return nil
}

// sendOTPAsync delivers the OTP off the request path. The code is
// already persisted, so a delivery failure is logged and the user can
// ask for a resend.
func (s *AuthServiceImpl) sendOTPAsync(email, otp string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.SendOTP(ctx, email, otp); err != nil {
			s.logger.ErrorContext(ctx, "Failed to send OTP email",
				slog.String("email", email), slog.Any("error", err))
		}
	}()
}

func (s *AuthServiceImpl) generateOTP() (string, error) {
	length := s.otpCfg.Length
	if length <= 0 {
		length = 6
	}
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate OTP: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

func (s *AuthServiceImpl) issueTokenPair(user *types.User) (*TokenPair, error) {
	now := time.Now()

	access, err := s.signToken(user, s.jwtCfg.SecretKey, now, s.jwtCfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := s.signToken(user, s.jwtCfg.RefreshSecretKey, now, s.jwtCfg.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthServiceImpl) signToken(user *types.User, secret string, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		AccountType: user.AccountType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.jwtCfg.Issuer,
			Audience:  jwt.ClaimStrings{s.jwtCfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
