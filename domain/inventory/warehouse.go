package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/stocker/stocker/data/pkg/errors"
)

// Warehouse is a physical storage location. Warehouses are tenant scoped
// but carry no version token; last write wins.
type Warehouse struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenantId"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	City      string    `json:"city,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewWarehouse creates a warehouse.
func NewWarehouse(code, name string) (*Warehouse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.InvalidArgument("warehouse code is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.InvalidArgument("warehouse name is required")
	}
	now := time.Now().UTC()
	return &Warehouse{
		ID:        uuid.New(),
		Code:      code,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Relocate updates the warehouse city.
func (w *Warehouse) Relocate(city string) {
	w.City = city
	w.UpdatedAt = time.Now().UTC()
}
