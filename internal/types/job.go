package types

import (
	"time"

	"github.com/google/uuid"
)

// Job is the one directory entity whose shape differs from the shared
// listing template. Job categories ride the generic category
// machinery under the "job" family.
type Job struct {
	ID                 uuid.UUID   `json:"id"`
	Title              string      `json:"title"`
	Category           CategoryRef `json:"category"`
	Description        string      `json:"description"`
	EmploymentType     string      `json:"employmentType"`
	ExperienceRequired string      `json:"experienceRequired"`
	SalaryRange        string      `json:"salaryRange"`
	Location           string      `json:"location"`
	Vacancies          int         `json:"vacancies"`
	IsActive           bool        `json:"isActive"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

type CreateJobParams struct {
	Title              string `json:"title"`
	Category           string `json:"category"`
	Description        string `json:"description"`
	EmploymentType     string `json:"employmentType"`
	ExperienceRequired string `json:"experienceRequired"`
	SalaryRange        string `json:"salaryRange"`
	Location           string `json:"location"`
	Vacancies          *int   `json:"vacancies"`
}

type UpdateJobParams struct {
	Title              *string `json:"title,omitempty"`
	Category           *string `json:"category,omitempty"`
	Description        *string `json:"description,omitempty"`
	EmploymentType     *string `json:"employmentType,omitempty"`
	ExperienceRequired *string `json:"experienceRequired,omitempty"`
	SalaryRange        *string `json:"salaryRange,omitempty"`
	Location           *string `json:"location,omitempty"`
	Vacancies          *int    `json:"vacancies,omitempty"`
	IsActive           *bool   `json:"isActive,omitempty"`
}

// JobApplication records an applicant against a job. Open
// applications block job deactivation and deletion.
type JobApplication struct {
	ID            uuid.UUID `json:"id"`
	JobID         uuid.UUID `json:"jobId"`
	ApplicantName string    `json:"applicantName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ApplyJobParams struct {
	ApplicantName string `json:"applicantName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
}

type SearchJobsParams struct {
	Query          string
	Category       string
	Location       string
	EmploymentType string
}
