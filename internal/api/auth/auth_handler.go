package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carelinnk/carelinnk-api/internal/api"
)

type Handler struct {
	service AuthService
	logger  *slog.Logger
}

func NewHandler(service AuthService, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register handles POST /api/v1/user/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Register", trace.WithAttributes(
		semconvHTTPRoute("/api/v1/user/register"),
	))
	defer span.End()
	r = r.WithContext(ctx)

	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Phone == "" || req.Password == "" || req.AccountType == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "All fields are required")
		return
	}

	data, created, err := h.service.Register(ctx, req)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}

	if created {
		api.WriteEnvelope(w, r, http.StatusCreated, data, "User registered successfully. OTP sent to email.")
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, data, "OTP resent successfully to your email.")
}

// VerifyOtp handles POST /api/v1/user/verify-otp.
func (h *Handler) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "VerifyOtp")
	defer span.End()
	r = r.WithContext(ctx)

	var req VerifyOtpRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.OTP == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Email and OTP are required")
		return
	}

	payload, err := h.service.VerifyOtp(ctx, req.Email, req.OTP)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, payload, "OTP verified successfully")
}

// ResendOtp handles POST /api/v1/user/resend-otp.
func (h *Handler) ResendOtp(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "ResendOtp")
	defer span.End()
	r = r.WithContext(ctx)

	var req EmailRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Email is required")
		return
	}

	if err := h.service.ResendOtp(ctx, req.Email); err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, nil, "OTP resent successfully to your email.")
}

// Login handles POST /api/v1/user/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Login")
	defer span.End()
	r = r.WithContext(ctx)

	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Email and password are required")
		return
	}

	payload, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, payload, "Login successful")
}

// RefreshToken handles POST /api/v1/user/refresh-token.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "RefreshToken")
	defer span.End()
	r = r.WithContext(ctx)

	var req RefreshTokenRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.RefreshToken == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Refresh token is required")
		return
	}

	tokens, err := h.service.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, tokens, "Token refreshed successfully")
}

// ForgotPassword handles POST /api/v1/user/forgot-password.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "ForgotPassword")
	defer span.End()
	r = r.WithContext(ctx)

	var req EmailRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Email is required")
		return
	}

	if err := h.service.ForgotPassword(ctx, req.Email); err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, nil, "OTP sent to your email for password reset")
}

// ResetPassword handles POST /api/v1/user/reset-password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "ResetPassword")
	defer span.End()
	r = r.WithContext(ctx)

	var req ResetPasswordRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.NewPassword == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Email and new password are required")
		return
	}

	user, err := h.service.ResetPassword(ctx, req.Email, req.NewPassword)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, user, "Password reset successful. You can now log in.")
}

// Me handles GET /api/v1/user/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Me")
	defer span.End()
	r = r.WithContext(ctx)

	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.service.GetCurrentUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, err)
		return
	}
	api.WriteEnvelope(w, r, http.StatusOK, user, "User retrieved successfully")
}

// Logout handles POST /api/v1/user/logout. Sessions are stateless
// JWTs, so logout is an acknowledgment; clients drop their tokens.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Logout")
	defer span.End()
	r = r.WithContext(ctx)

	api.WriteEnvelope(w, r, http.StatusOK, nil, "Logout successful")
}

func semconvHTTPRoute(route string) attribute.KeyValue {
	return attribute.String("http.route", route)
}
