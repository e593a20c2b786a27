package materials

import (
	"fmt"
	"strings"

	"github.com/keystone-erp/keystone-erp/internal/platform/httpx"
)

func (s *Service) validate(m Material) error {
	if strings.TrimSpace(m.Code) == "" {
		return fmt.Errorf("%w: code is required", httpx.ErrValidation)
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name is required", httpx.ErrValidation)
	}
	if !ValidCategory(m.Category) {
		return ErrInvalidCategory
	}
	if !ValidUnit(m.Unit) {
		return ErrInvalidUnit
	}
	if m.CurrentStock < 0 || m.MinimumStock < 0 || m.MaximumStock < 0 || m.UnitPrice < 0 {
		return fmt.Errorf("%w: quantities and price must be non-negative", httpx.ErrValidation)
	}
	if m.MaximumStock > 0 && m.MaximumStock < m.MinimumStock {
		return fmt.Errorf("%w: maximum stock below minimum stock", httpx.ErrValidation)
	}
	return nil
}
