package types

import (
	"time"

	"github.com/google/uuid"
)

// Listing is a directory entry for a service provider (ambulance,
// blood bank, lab, shop, ...). All families share this shape; the
// family registry decides which routes it is served under.
type Listing struct {
	ID            uuid.UUID   `json:"id"`
	Family        string      `json:"-"`
	Name          string      `json:"name"`
	Category      CategoryRef `json:"category"`
	Address       string      `json:"address"`
	Pincode       *int        `json:"pincode"`
	ContactNumber string      `json:"contactNumber"`
	Email         string      `json:"email"`
	Specialties   []string    `json:"specialties"`
	About         string      `json:"about"`
	Amenities     []string    `json:"amenities"`
	IsActive      bool        `json:"isActive"`
	CoverImg      string      `json:"coverImg"`
	Images        []string    `json:"images"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

type CreateListingParams struct {
	Name          string     `json:"name"`
	Category      string     `json:"category"`
	Address       string     `json:"address"`
	Pincode       *int       `json:"pincode"`
	ContactNumber string     `json:"contactNumber"`
	Email         string     `json:"email"`
	Specialties   StringList `json:"specialties"`
	About         string     `json:"about"`
	Amenities     StringList `json:"amenities"`
	IsActive      *bool      `json:"isActive"`
	CoverImg      string     `json:"coverImg"`
	Images        StringList `json:"images"`
}

// UpdateListingParams is the explicit allow-list for partial updates.
// Unknown keys are rejected at decode time; ids and timestamps are not
// updatable through the API.
type UpdateListingParams struct {
	Name          *string     `json:"name,omitempty"`
	Category      *string     `json:"category,omitempty"`
	Address       *string     `json:"address,omitempty"`
	Pincode       *int        `json:"pincode,omitempty"`
	ContactNumber *string     `json:"contactNumber,omitempty"`
	Email         *string     `json:"email,omitempty"`
	Specialties   *StringList `json:"specialties,omitempty"`
	About         *string     `json:"about,omitempty"`
	Amenities     *StringList `json:"amenities,omitempty"`
	IsActive      *bool       `json:"isActive,omitempty"`
	CoverImg      *string     `json:"coverImg,omitempty"`
	Images        *StringList `json:"images,omitempty"`
}

// SearchListingsParams carries the free-text search filters. A
// non-numeric pincode yields an empty result set rather than an error.
type SearchListingsParams struct {
	Query    string
	Category string
	Pincode  string
}
