package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/stocker/stocker/data/pkg/errors"
)

// StockItem tracks the on-hand quantity of one product in one warehouse.
// Quantity changes race between operators, so the entity is versioned.
type StockItem struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenantId"`
	ProductID   uuid.UUID `json:"productId"`
	WarehouseID uuid.UUID `json:"warehouseId"`
	Quantity    int64     `json:"quantity"`
	ReorderAt   int64     `json:"reorderAt"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewStockItem creates an empty stock record for a product in a warehouse.
func NewStockItem(productID, warehouseID uuid.UUID) (*StockItem, error) {
	if productID == uuid.Nil {
		return nil, apperrors.InvalidArgument("product id is required")
	}
	if warehouseID == uuid.Nil {
		return nil, apperrors.InvalidArgument("warehouse id is required")
	}
	now := time.Now().UTC()
	return &StockItem{
		ID:          uuid.New(),
		ProductID:   productID,
		WarehouseID: warehouseID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Receive adds incoming stock.
func (s *StockItem) Receive(quantity int64) error {
	if quantity <= 0 {
		return apperrors.InvalidArgument("received quantity must be positive")
	}
	s.Quantity += quantity
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Issue removes stock for an outbound movement. Issuing more than is on
// hand fails without changing the quantity.
func (s *StockItem) Issue(quantity int64) error {
	if quantity <= 0 {
		return apperrors.InvalidArgument("issued quantity must be positive")
	}
	if quantity > s.Quantity {
		return apperrors.InvalidArgument(
			fmt.Sprintf("cannot issue %d, only %d on hand", quantity, s.Quantity))
	}
	s.Quantity -= quantity
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// SetReorderPoint sets the quantity at which the item shows as low.
func (s *StockItem) SetReorderPoint(quantity int64) error {
	if quantity < 0 {
		return apperrors.InvalidArgument("reorder point must not be negative")
	}
	s.ReorderAt = quantity
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// NeedsReorder reports whether on-hand stock is at or below the reorder
// point.
func (s *StockItem) NeedsReorder() bool {
	return s.ReorderAt > 0 && s.Quantity <= s.ReorderAt
}
