package store

import (
	"fmt"

	"github.com/google/uuid"
)

// EntityMapper is the type-erased view of a Mapper. Backends use it for
// relation loading and table-keyed lookups where the entity type parameters
// are not in scope.
type EntityMapper interface {
	TableName() string
	ResourceName() string
	ColumnNames() []string
	IDColumnName() string
	TenantColumnName() string
	VersionColumnName() string
	HasColumn(name string) bool
	UniqueColumns() []string
	NewEntity() any
	ScanDests(entity any) []any
	ValueOf(entity any, column string) any
	IDOf(entity any) any
	VersionOf(entity any) int64
	SetVersionOf(entity any, version int64)
	SetTenantOf(entity any, tenant uuid.UUID)
}

// Registry holds the mappers of a bounded context, keyed by table name.
// Build one per module at wiring time and share it across unit of works.
type Registry struct {
	byTable map[string]EntityMapper
}

// NewRegistry builds a registry from the given mappers.
func NewRegistry(mappers ...EntityMapper) (*Registry, error) {
	r := &Registry{byTable: make(map[string]EntityMapper, len(mappers))}
	for _, m := range mappers {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a mapper to the registry.
func (r *Registry) Register(m EntityMapper) error {
	if v, ok := m.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	table := m.TableName()
	if _, exists := r.byTable[table]; exists {
		return fmt.Errorf("registry: duplicate mapper for table %q", table)
	}
	r.byTable[table] = m
	return nil
}

// Lookup returns the mapper registered for a table.
func (r *Registry) Lookup(table string) (EntityMapper, bool) {
	m, ok := r.byTable[table]
	return m, ok
}

// Tables returns the registered table names.
func (r *Registry) Tables() []string {
	tables := make([]string, 0, len(r.byTable))
	for t := range r.byTable {
		tables = append(tables, t)
	}
	return tables
}
