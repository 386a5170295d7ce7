package types

import (
	"time"

	"github.com/google/uuid"
)

// Course is a training course offered through the marketplace.
// Course categories ride the generic category machinery under the
// "course" family; registrations block deactivation and deletion the
// same way job applications do.
type Course struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Category    CategoryRef `json:"category"`
	Description string      `json:"description"`
	Instructor  string      `json:"instructor"`
	Duration    string      `json:"duration"`
	Price       float64     `json:"price"`
	Images      []string    `json:"images"`
	IsActive    bool        `json:"isActive"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type CreateCourseParams struct {
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Instructor  string     `json:"instructor"`
	Duration    string     `json:"duration"`
	Price       *float64   `json:"price"`
	IsActive    *bool      `json:"isActive"`
	Images      StringList `json:"images"`
}

type UpdateCourseParams struct {
	Title       *string     `json:"title,omitempty"`
	Category    *string     `json:"category,omitempty"`
	Description *string     `json:"description,omitempty"`
	Instructor  *string     `json:"instructor,omitempty"`
	Duration    *string     `json:"duration,omitempty"`
	Price       *float64    `json:"price,omitempty"`
	IsActive    *bool       `json:"isActive,omitempty"`
	Images      *StringList `json:"images,omitempty"`
}

// ListCoursesParams carries the optional query filters on the course
// collection endpoint.
type ListCoursesParams struct {
	IsActive *bool
	Category string
}

// CourseRef is the denormalized course reference embedded in
// registration responses.
type CourseRef struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title,omitempty"`
	Instructor string    `json:"instructor,omitempty"`
}

// StudentRef is the denormalized user reference embedded in
// registration responses.
type StudentRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name,omitempty"`
	Email string    `json:"email,omitempty"`
}

// CourseRegistration enrolls a verified user in a course. One
// registration per (course, student) pair.
type CourseRegistration struct {
	ID        uuid.UUID  `json:"id"`
	Course    CourseRef  `json:"course"`
	Student   StudentRef `json:"student"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Resume    string     `json:"resume"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email"`
	Location  string     `json:"location"`
	CreatedAt time.Time  `json:"createdAt"`
}

type RegisterCourseParams struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Resume    string `json:"resume"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Location  string `json:"location"`
}

// RegistrationFilter narrows the admin registration listing.
type RegistrationFilter struct {
	CourseID  *uuid.UUID
	StudentID *uuid.UUID
}
