package types

import (
	"time"

	"github.com/google/uuid"
)

// Category is a named grouping that listings reference. Its active
// flag and its deletion are guarded by dependent-listing counts.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Family      string    `json:"-"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CategoryRef is the populated form of a category reference embedded
// in listing responses.
type CategoryRef struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

type CreateCategoryParams struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
}

type UpdateCategoryParams struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}
