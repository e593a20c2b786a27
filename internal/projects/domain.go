// Package projects manages the construction project registry that
// material exits are issued against.
package projects

import (
	"errors"
	"time"
)

// Status enumerates project lifecycle states.
type Status string

const (
	StatusPlanned   Status = "PLANNED"
	StatusActive    Status = "ACTIVE"
	StatusOnHold    Status = "ON_HOLD"
	StatusCompleted Status = "COMPLETED"
)

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPlanned, StatusActive, StatusOnHold, StatusCompleted:
		return true
	}
	return false
}

// Project is a construction site that consumes materials.
type Project struct {
	ID        int64      `json:"id"`
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	Client    string     `json:"client,omitempty"`
	Location  string     `json:"location,omitempty"`
	Status    Status     `json:"status"`
	Budget    float64    `json:"budget,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ListFilters narrows project listings.
type ListFilters struct {
	Search string
	Status *Status
	Page   int
	Limit  int
}

var (
	// ErrNotFound indicates the project does not exist.
	ErrNotFound = errors.New("projects: project not found")
	// ErrCodeExists indicates the project code is already taken.
	ErrCodeExists = errors.New("projects: code already exists")
	// ErrInvalidStatus indicates an unknown lifecycle status.
	ErrInvalidStatus = errors.New("projects: invalid status")
)

// CreateProjectRequest is the payload for registering a project.
type CreateProjectRequest struct {
	Code      string     `json:"code" validate:"required,max=20"`
	Name      string     `json:"name" validate:"required,max=200"`
	Client    string     `json:"client,omitempty" validate:"omitempty,max=200"`
	Location  string     `json:"location,omitempty" validate:"omitempty,max=300"`
	Status    string     `json:"status,omitempty" validate:"omitempty,oneof=PLANNED ACTIVE ON_HOLD COMPLETED"`
	Budget    float64    `json:"budget,omitempty" validate:"omitempty,gte=0"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// UpdateProjectRequest is the payload for editing a project. Code is immutable.
type UpdateProjectRequest struct {
	Name      string     `json:"name" validate:"required,max=200"`
	Client    string     `json:"client,omitempty" validate:"omitempty,max=200"`
	Location  string     `json:"location,omitempty" validate:"omitempty,max=300"`
	Status    string     `json:"status" validate:"required,oneof=PLANNED ACTIVE ON_HOLD COMPLETED"`
	Budget    float64    `json:"budget,omitempty" validate:"omitempty,gte=0"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}
