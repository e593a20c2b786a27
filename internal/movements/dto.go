package movements

import "time"

// RecordEntryRequest is the payload for posting an inbound movement.
type RecordEntryRequest struct {
	MaterialID int64   `json:"material_id" validate:"required,gt=0"`
	EntryType  string  `json:"entry_type" validate:"required,oneof=PURCHASE RETURN ADJUSTMENT"`
	Quantity   float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice  float64 `json:"unit_price" validate:"gte=0"`
	VendorID   *int64  `json:"vendor_id,omitempty" validate:"omitempty,gt=0"`
	InvoiceRef string  `json:"invoice_ref,omitempty" validate:"omitempty,max=64"`
	Remarks    string  `json:"remarks,omitempty" validate:"omitempty,max=500"`
	Code       string  `json:"code,omitempty" validate:"omitempty,max=40"`
}

// RecordExitRequest is the payload for posting an outbound movement.
type RecordExitRequest struct {
	MaterialID     int64   `json:"material_id" validate:"required,gt=0"`
	Quantity       float64 `json:"quantity" validate:"required,gt=0"`
	Purpose        string  `json:"purpose" validate:"required,max=200"`
	IssuedTo       string  `json:"issued_to" validate:"required,max=100"`
	ProjectID      *int64  `json:"project_id,omitempty" validate:"omitempty,gt=0"`
	ApprovedBy     string  `json:"approved_by,omitempty" validate:"omitempty,max=100"`
	ReturnExpected bool    `json:"return_expected,omitempty"`
	Remarks        string  `json:"remarks,omitempty" validate:"omitempty,max=500"`
	Code           string  `json:"code,omitempty" validate:"omitempty,max=40"`
}

// UpdateStockRequest is the payload for the manual correction endpoint.
// It is ledgered as an ADJUSTMENT movement, never a bare counter write.
type UpdateStockRequest struct {
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	Operation string  `json:"operation" validate:"required,oneof=add subtract"`
	Reason    string  `json:"reason,omitempty" validate:"omitempty,max=200"`
}

// ReturnRequest is the payload for recording a return against an exit.
type ReturnRequest struct {
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
}

// LedgerResponse wraps the combined per-material ledger.
type LedgerResponse struct {
	MaterialID   int64        `json:"material_id"`
	CurrentStock float64      `json:"current_stock"`
	Lines        []LedgerLine `json:"lines"`
	AsOf         time.Time    `json:"as_of"`
}
