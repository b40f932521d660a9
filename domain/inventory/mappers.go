package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/stocker/stocker/data/store"
)

// Table names shared by the mappers and the schema.
const (
	ProductsTable   = "products"
	WarehousesTable = "warehouses"
	StockItemsTable = "stock_items"
)

// RelationStockItems is the include name that loads a product's stock
// items.
const RelationStockItems = "StockItems"

// ProductMapper maps Product to the products table.
var ProductMapper = &store.Mapper[Product, uuid.UUID]{
	Table:    ProductsTable,
	Resource: "product",
	Columns: []store.Column[Product]{
		{Name: "id", Value: func(p *Product) any { return p.ID }, Scan: func(p *Product) any { return &p.ID }},
		{Name: "tenant_id", Value: func(p *Product) any { return p.TenantID }, Scan: func(p *Product) any { return &p.TenantID }},
		{Name: "code", Value: func(p *Product) any { return p.Code }, Scan: func(p *Product) any { return &p.Code }},
		{Name: "name", Value: func(p *Product) any { return p.Name }, Scan: func(p *Product) any { return &p.Name }},
		{Name: "description", Value: func(p *Product) any { return p.Description }, Scan: func(p *Product) any { return &p.Description }},
		{Name: "unit_price", Value: func(p *Product) any { return p.UnitPrice }, Scan: func(p *Product) any { return &p.UnitPrice }},
		{Name: "active", Value: func(p *Product) any { return p.Active }, Scan: func(p *Product) any { return &p.Active }},
		{Name: "version", Value: func(p *Product) any { return p.Version }, Scan: func(p *Product) any { return &p.Version }},
		{Name: "created_at", Value: func(p *Product) any { return p.CreatedAt }, Scan: func(p *Product) any { return &p.CreatedAt }},
		{Name: "updated_at", Value: func(p *Product) any { return p.UpdatedAt }, Scan: func(p *Product) any { return &p.UpdatedAt }},
	},
	IDColumn:      "id",
	ID:            func(p *Product) uuid.UUID { return p.ID },
	TenantColumn:  "tenant_id",
	SetTenant:     func(p *Product, tenant uuid.UUID) { p.TenantID = tenant },
	VersionColumn: "version",
	Version:       func(p *Product) int64 { return p.Version },
	SetVersion:    func(p *Product, v int64) { p.Version = v },
	Unique:        []string{"code"},
	Relations: []store.Relation[Product]{
		{Name: RelationStockItems, Load: loadProductStockItems},
	},
}

// loadProductStockItems fetches the stock items for all parents in one
// query and groups them by product.
func loadProductStockItems(ctx context.Context, q store.RelationQuerier, parents []*Product) error {
	keys := make([]any, len(parents))
	byID := make(map[uuid.UUID]*Product, len(parents))
	for i, p := range parents {
		keys[i] = p.ID
		byID[p.ID] = p
		p.StockItems = nil
	}
	related, err := q.Related(ctx, StockItemsTable, "product_id", keys)
	if err != nil {
		return err
	}
	for _, r := range related {
		item := r.(*StockItem)
		if p, ok := byID[item.ProductID]; ok {
			p.StockItems = append(p.StockItems, item)
		}
	}
	return nil
}

// WarehouseMapper maps Warehouse to the warehouses table.
var WarehouseMapper = &store.Mapper[Warehouse, uuid.UUID]{
	Table:    WarehousesTable,
	Resource: "warehouse",
	Columns: []store.Column[Warehouse]{
		{Name: "id", Value: func(w *Warehouse) any { return w.ID }, Scan: func(w *Warehouse) any { return &w.ID }},
		{Name: "tenant_id", Value: func(w *Warehouse) any { return w.TenantID }, Scan: func(w *Warehouse) any { return &w.TenantID }},
		{Name: "code", Value: func(w *Warehouse) any { return w.Code }, Scan: func(w *Warehouse) any { return &w.Code }},
		{Name: "name", Value: func(w *Warehouse) any { return w.Name }, Scan: func(w *Warehouse) any { return &w.Name }},
		{Name: "city", Value: func(w *Warehouse) any { return w.City }, Scan: func(w *Warehouse) any { return &w.City }},
		{Name: "created_at", Value: func(w *Warehouse) any { return w.CreatedAt }, Scan: func(w *Warehouse) any { return &w.CreatedAt }},
		{Name: "updated_at", Value: func(w *Warehouse) any { return w.UpdatedAt }, Scan: func(w *Warehouse) any { return &w.UpdatedAt }},
	},
	IDColumn:     "id",
	ID:           func(w *Warehouse) uuid.UUID { return w.ID },
	TenantColumn: "tenant_id",
	SetTenant:    func(w *Warehouse, tenant uuid.UUID) { w.TenantID = tenant },
	Unique:       []string{"code"},
}

// StockItemMapper maps StockItem to the stock_items table.
var StockItemMapper = &store.Mapper[StockItem, uuid.UUID]{
	Table:    StockItemsTable,
	Resource: "stock item",
	Columns: []store.Column[StockItem]{
		{Name: "id", Value: func(s *StockItem) any { return s.ID }, Scan: func(s *StockItem) any { return &s.ID }},
		{Name: "tenant_id", Value: func(s *StockItem) any { return s.TenantID }, Scan: func(s *StockItem) any { return &s.TenantID }},
		{Name: "product_id", Value: func(s *StockItem) any { return s.ProductID }, Scan: func(s *StockItem) any { return &s.ProductID }},
		{Name: "warehouse_id", Value: func(s *StockItem) any { return s.WarehouseID }, Scan: func(s *StockItem) any { return &s.WarehouseID }},
		{Name: "quantity", Value: func(s *StockItem) any { return s.Quantity }, Scan: func(s *StockItem) any { return &s.Quantity }},
		{Name: "reorder_at", Value: func(s *StockItem) any { return s.ReorderAt }, Scan: func(s *StockItem) any { return &s.ReorderAt }},
		{Name: "version", Value: func(s *StockItem) any { return s.Version }, Scan: func(s *StockItem) any { return &s.Version }},
		{Name: "created_at", Value: func(s *StockItem) any { return s.CreatedAt }, Scan: func(s *StockItem) any { return &s.CreatedAt }},
		{Name: "updated_at", Value: func(s *StockItem) any { return s.UpdatedAt }, Scan: func(s *StockItem) any { return &s.UpdatedAt }},
	},
	IDColumn:      "id",
	ID:            func(s *StockItem) uuid.UUID { return s.ID },
	TenantColumn:  "tenant_id",
	SetTenant:     func(s *StockItem, tenant uuid.UUID) { s.TenantID = tenant },
	VersionColumn: "version",
	Version:       func(s *StockItem) int64 { return s.Version },
	SetVersion:    func(s *StockItem, v int64) { s.Version = v },
}

// NewRegistry returns a registry with all inventory mappers registered.
func NewRegistry() (*store.Registry, error) {
	return store.NewRegistry(ProductMapper, WarehouseMapper, StockItemMapper)
}
