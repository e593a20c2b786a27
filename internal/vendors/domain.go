// Package vendors manages the supplier registry referenced by purchase entries.
package vendors

import (
	"errors"
	"time"
)

// Vendor is a registered material supplier.
type Vendor struct {
	ID            int64     `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	GSTIN         string    `json:"gstin,omitempty"`
	Address       string    `json:"address,omitempty"`
	City          string    `json:"city,omitempty"`
	State         string    `json:"state,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListFilters narrows vendor listings.
type ListFilters struct {
	Search   string
	IsActive *bool
	Page     int
	Limit    int
}

var (
	// ErrNotFound indicates the vendor does not exist.
	ErrNotFound = errors.New("vendors: vendor not found")
	// ErrCodeExists indicates the vendor code is already taken.
	ErrCodeExists = errors.New("vendors: code already exists")
)

// CreateVendorRequest is the payload for registering a vendor.
type CreateVendorRequest struct {
	Code          string `json:"code" validate:"required,max=20"`
	Name          string `json:"name" validate:"required,max=200"`
	ContactPerson string `json:"contact_person,omitempty" validate:"omitempty,max=100"`
	Phone         string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	GSTIN         string `json:"gstin,omitempty" validate:"omitempty,len=15"`
	Address       string `json:"address,omitempty" validate:"omitempty,max=500"`
	City          string `json:"city,omitempty" validate:"omitempty,max=100"`
	State         string `json:"state,omitempty" validate:"omitempty,max=100"`
}

// UpdateVendorRequest is the payload for editing a vendor. Code is immutable.
type UpdateVendorRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	ContactPerson string `json:"contact_person,omitempty" validate:"omitempty,max=100"`
	Phone         string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	GSTIN         string `json:"gstin,omitempty" validate:"omitempty,len=15"`
	Address       string `json:"address,omitempty" validate:"omitempty,max=500"`
	City          string `json:"city,omitempty" validate:"omitempty,max=100"`
	State         string `json:"state,omitempty" validate:"omitempty,max=100"`
	IsActive      *bool  `json:"is_active,omitempty"`
}
