package vendors

import (
	"context"
)

// RepositoryPort abstracts vendor persistence.
type RepositoryPort interface {
	List(ctx context.Context, filters ListFilters) ([]Vendor, int, error)
	Get(ctx context.Context, id int64) (Vendor, error)
	Create(ctx context.Context, v Vendor) (Vendor, error)
	Update(ctx context.Context, v Vendor) (Vendor, error)
	Deactivate(ctx context.Context, id int64) error
}

// Service holds vendor business logic.
type Service struct {
	repo RepositoryPort
}

// NewService constructs Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns vendors plus the total match count.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Vendor, int, error) {
	return s.repo.List(ctx, filters)
}

// Get loads one vendor.
func (s *Service) Get(ctx context.Context, id int64) (Vendor, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a vendor.
func (s *Service) Create(ctx context.Context, req CreateVendorRequest) (Vendor, error) {
	return s.repo.Create(ctx, Vendor{
		Code:          req.Code,
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		GSTIN:         req.GSTIN,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
	})
}

// Update edits a vendor. Code is immutable.
func (s *Service) Update(ctx context.Context, id int64, req UpdateVendorRequest) (Vendor, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Vendor{}, err
	}
	current.Name = req.Name
	current.ContactPerson = req.ContactPerson
	current.Phone = req.Phone
	current.Email = req.Email
	current.GSTIN = req.GSTIN
	current.Address = req.Address
	current.City = req.City
	current.State = req.State
	if req.IsActive != nil {
		current.IsActive = *req.IsActive
	}
	return s.repo.Update(ctx, current)
}

// Deactivate soft-deletes a vendor; existing entries keep referencing it.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}
