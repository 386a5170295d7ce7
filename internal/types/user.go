package types

import (
	"time"

	"github.com/google/uuid"
)

// User is the only entity with real lifecycle state: created
// unverified with a pending OTP, then verified once the code matches
// before expiry. Credentials and OTP fields never serialize.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PhoneNumber  string     `json:"phoneNumber"`
	PasswordHash string     `json:"-"`
	AccountType  string     `json:"accountType"`
	ReferralID   *string    `json:"referralId,omitempty"`
	IsVerified   bool       `json:"isVerified"`
	OTPCode      *string    `json:"-"`
	OTPExpiry    *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
