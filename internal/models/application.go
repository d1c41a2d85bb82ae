// internal/models/application.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus is the lifecycle state of a mortgage application.
// It starts at PENDING and transitions exactly once, driven by a committed Decision.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "PENDING"
	StatusApproved ApplicationStatus = "APPROVED"
	StatusRejected ApplicationStatus = "REJECTED"
)

// Valid reports whether s is one of the known application statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Application is a submitted mortgage loan request.
type Application struct {
	ID          uuid.UUID         `json:"id"`
	ApplicantID uuid.UUID         `json:"applicantId"`
	NationalID  string            `json:"nationalId"`
	Amount      float64           `json:"amount"`
	Status      ApplicationStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	Documents   []Document        `json:"documents,omitempty"`
}

// ApplicationPage is one page of a filtered application listing.
type ApplicationPage struct {
	Items         []Application `json:"content"`
	Page          int           `json:"page"`
	Size          int           `json:"size"`
	TotalElements int64         `json:"totalElements"`
	TotalPages    int           `json:"totalPages"`
}
