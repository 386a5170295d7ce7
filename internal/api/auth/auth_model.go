package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/carelinnk/carelinnk-api/internal/types"
)

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	Password    string  `json:"password"`
	AccountType string  `json:"accountType"`
	ReferralID  *string `json:"referralId,omitempty"`
}

// RegisterData is the payload returned after registration; the OTP
// itself is only ever delivered by mail.
type RegisterData struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type VerifyOtpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// AuthPayload carries a sanitized user plus a fresh token pair.
type AuthPayload struct {
	User         *types.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Claims are the access-token claims. Refresh tokens carry only the
// registered claims with the user id as subject.
type Claims struct {
	AccountType string `json:"accountType,omitempty"`
	jwt.RegisteredClaims
}
