// Package movements implements the stock ledger: immutable entry and exit
// records and the atomic adjustment operation that keeps the material
// catalog's running quantity consistent with the ledger.
package movements

import (
	"errors"
	"time"
)

// EntryType enumerates inbound movement kinds.
type EntryType string

const (
	// EntryTypePurchase records stock bought from a vendor.
	EntryTypePurchase EntryType = "PURCHASE"
	// EntryTypeReturn records stock returned from a project site.
	EntryTypeReturn EntryType = "RETURN"
	// EntryTypeAdjustment records a manual stock correction.
	EntryTypeAdjustment EntryType = "ADJUSTMENT"
)

// Entry is an immutable record of stock added to a material.
type Entry struct {
	ID         int64      `json:"id"`
	Code       string     `json:"code"`
	MaterialID int64      `json:"material_id"`
	Type       EntryType  `json:"entry_type"`
	Quantity   float64    `json:"quantity"`
	UnitPrice  float64    `json:"unit_price"`
	TotalValue float64    `json:"total_value"`
	VendorID   *int64     `json:"vendor_id,omitempty"`
	InvoiceRef string     `json:"invoice_ref,omitempty"`
	Remarks    string     `json:"remarks,omitempty"`
	RecordedBy string     `json:"recorded_by"`
	PostedAt   time.Time  `json:"posted_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Exit is an immutable record of stock issued out of a material.
type Exit struct {
	ID             int64      `json:"id"`
	Code           string     `json:"code"`
	MaterialID     int64      `json:"material_id"`
	ProjectID      *int64     `json:"project_id,omitempty"`
	Quantity       float64    `json:"quantity"`
	Purpose        string     `json:"purpose"`
	IssuedTo       string     `json:"issued_to"`
	ApprovedBy     string     `json:"approved_by,omitempty"`
	ReturnExpected bool       `json:"return_expected"`
	ReturnedAt     *time.Time `json:"returned_at,omitempty"`
	ReturnedQty    float64    `json:"returned_qty,omitempty"`
	Remarks        string     `json:"remarks,omitempty"`
	RecordedBy     string     `json:"recorded_by"`
	PostedAt       time.Time  `json:"posted_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// MaterialStock is the slice of the material row the adjustment
// operation reads and writes under a row lock.
type MaterialStock struct {
	ID           int64
	Code         string
	Name         string
	CurrentStock float64
	MinimumStock float64
	UnitPrice    float64
	IsActive     bool
}

// LedgerLine is one row of the combined per-material ledger view.
type LedgerLine struct {
	PostedAt  time.Time `json:"posted_at"`
	Code      string    `json:"code"`
	Kind      string    `json:"kind"` // ENTRY or EXIT
	Type      string    `json:"type"`
	Quantity  float64   `json:"quantity"` // signed: positive in, negative out
	Value     float64   `json:"value"`
	Actor     string    `json:"actor"`
	Reference string    `json:"reference,omitempty"`
}

// EntryFilter narrows entry listings.
type EntryFilter struct {
	MaterialID int64
	VendorID   *int64
	Type       *EntryType
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// ExitFilter narrows exit listings.
type ExitFilter struct {
	MaterialID int64
	ProjectID  *int64
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// Tolerance for float comparisons on quantities.
const qtyEpsilon = 1e-9

// AdjustmentIssuee marks exits posted by the manual correction path so
// the ledger can tell corrections apart from site issuances.
const AdjustmentIssuee = "stock-adjustment"

// Ledger line types for exits.
const (
	LedgerTypeIssue      = "ISSUE"
	LedgerTypeAdjustment = "ADJUSTMENT"
)

// ErrMaterialNotFound indicates the referenced material does not exist.
var ErrMaterialNotFound = errors.New("movements: material not found")

// ErrMaterialInactive indicates the material is deactivated.
var ErrMaterialInactive = errors.New("movements: material is inactive")

// ErrInsufficientStock triggered when an exit would overdraw the material.
var ErrInsufficientStock = errors.New("movements: insufficient stock")

// ErrInvalidQuantity indicates a non-positive quantity.
var ErrInvalidQuantity = errors.New("movements: quantity must be positive")

// ErrInvalidUnitPrice indicates a negative price.
var ErrInvalidUnitPrice = errors.New("movements: unit price must be >= 0")

// ErrInvalidEntryType indicates an unknown entry type.
var ErrInvalidEntryType = errors.New("movements: invalid entry type")

// ErrExitNotFound indicates the referenced exit does not exist.
var ErrExitNotFound = errors.New("movements: exit not found")

// ErrEntryNotFound indicates the referenced entry does not exist.
var ErrEntryNotFound = errors.New("movements: entry not found")

// ErrReturnNotExpected indicates a return against an exit that did not expect one.
var ErrReturnNotExpected = errors.New("movements: exit does not expect a return")

// ErrAlreadyReturned indicates the exit already has a recorded return.
var ErrAlreadyReturned = errors.New("movements: exit already returned")

// ErrReturnExceedsIssue indicates the returned quantity exceeds what was issued.
var ErrReturnExceedsIssue = errors.New("movements: returned quantity exceeds issued quantity")

// ValidEntryType reports whether t is a known entry type.
func ValidEntryType(t EntryType) bool {
	switch t {
	case EntryTypePurchase, EntryTypeReturn, EntryTypeAdjustment:
		return true
	}
	return false
}
