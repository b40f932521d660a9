// Package inventory holds the sample stock-keeping entities the data layer
// ships with. They double as the reference wiring for mappers, relations
// and the unit-of-work contracts.
package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/stocker/stocker/data/pkg/errors"
)

// Product is a sellable item. Code is unique within a tenant and the
// Version field carries the optimistic-concurrency token.
type Product struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenantId"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	UnitPrice   float64   `json:"unitPrice"`
	Active      bool      `json:"active"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// StockItems is populated on demand via the "StockItems" include.
	StockItems []*StockItem `json:"stockItems,omitempty"`
}

// NewProduct creates an active product. The tenant is stamped by the unit
// of work on Add.
func NewProduct(code, name string, unitPrice float64) (*Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.InvalidArgument("product code is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.InvalidArgument("product name is required")
	}
	if unitPrice < 0 {
		return nil, apperrors.InvalidArgument("unit price must not be negative")
	}
	now := time.Now().UTC()
	return &Product{
		ID:        uuid.New(),
		Code:      code,
		Name:      name,
		UnitPrice: unitPrice,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Rename changes the display name.
func (p *Product) Rename(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.InvalidArgument("product name is required")
	}
	p.Name = name
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// ChangePrice sets a new unit price.
func (p *Product) ChangePrice(unitPrice float64) error {
	if unitPrice < 0 {
		return apperrors.InvalidArgument("unit price must not be negative")
	}
	p.UnitPrice = unitPrice
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Deactivate takes the product off sale. Deactivating twice is harmless.
func (p *Product) Deactivate() {
	p.Active = false
	p.UpdatedAt = time.Now().UTC()
}

// Activate puts the product back on sale.
func (p *Product) Activate() {
	p.Active = true
	p.UpdatedAt = time.Now().UTC()
}
