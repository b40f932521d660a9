package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Column maps one entity field to one table column. Value reads the field
// for inserts, updates and in-memory filtering; Scan returns a pointer
// target for row scanning.
type Column[T any] struct {
	Name  string
	Value func(e *T) any
	Scan  func(e *T) any
}

// Relation declares related data that can be eagerly loaded via
// Specification.Include. Load fetches the related rows for all parents in
// one pass through the backend-neutral RelationQuerier and attaches them.
type Relation[T any] struct {
	Name string
	Load func(ctx context.Context, q RelationQuerier, parents []*T) error
}

// Mapper describes how one entity type maps to its table: the column set,
// the identifier, and the optional tenant column, optimistic-concurrency
// version column, unique constraints and relations. Mappers are immutable
// after construction and shared across unit of works.
type Mapper[T any, ID comparable] struct {
	// Table is the table name.
	Table string
	// Resource names the entity in error messages; defaults to Table.
	Resource string
	// Columns lists every persisted column, including the identifier and,
	// when declared, the tenant and version columns.
	Columns []Column[T]
	// IDColumn names the primary-key column.
	IDColumn string
	// ID reads the entity identifier.
	ID func(e *T) ID
	// TenantColumn names the tenant-scoping column; empty for entities that
	// are not tenant scoped.
	TenantColumn string
	// SetTenant stamps the unit of work's tenant onto a staged insert.
	// Required when TenantColumn is set.
	SetTenant func(e *T, tenant uuid.UUID)
	// VersionColumn names the optimistic-concurrency column; empty for
	// entities without a version token.
	VersionColumn string
	// Version reads the current version token. Required when VersionColumn
	// is set.
	Version func(e *T) int64
	// SetVersion writes the version token. Required when VersionColumn is
	// set.
	SetVersion func(e *T, version int64)
	// Unique lists single-column unique constraints, scoped to the tenant
	// when the entity is tenant scoped. The in-memory backend enforces
	// them; the Postgres backend maps the engine's constraint errors.
	Unique []string
	// Relations lists the eagerly loadable relations.
	Relations []Relation[T]
}

// Validate checks the mapper is internally consistent. Backends call it
// when a repository is first constructed.
func (m *Mapper[T, ID]) Validate() error {
	if m.Table == "" {
		return fmt.Errorf("mapper: table name is required")
	}
	if len(m.Columns) == 0 {
		return fmt.Errorf("mapper %s: at least one column is required", m.Table)
	}
	seen := make(map[string]bool, len(m.Columns))
	for _, c := range m.Columns {
		if c.Name == "" || c.Value == nil || c.Scan == nil {
			return fmt.Errorf("mapper %s: column %q needs a name, value reader and scan target", m.Table, c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("mapper %s: duplicate column %q", m.Table, c.Name)
		}
		seen[c.Name] = true
	}
	if m.IDColumn == "" || !seen[m.IDColumn] {
		return fmt.Errorf("mapper %s: id column %q must be one of the mapped columns", m.Table, m.IDColumn)
	}
	if m.ID == nil {
		return fmt.Errorf("mapper %s: id reader is required", m.Table)
	}
	if m.TenantColumn != "" && (!seen[m.TenantColumn] || m.SetTenant == nil) {
		return fmt.Errorf("mapper %s: tenant column %q must be mapped and have a setter", m.Table, m.TenantColumn)
	}
	if m.VersionColumn != "" && (!seen[m.VersionColumn] || m.Version == nil || m.SetVersion == nil) {
		return fmt.Errorf("mapper %s: version column %q must be mapped and have a reader and setter", m.Table, m.VersionColumn)
	}
	for _, u := range m.Unique {
		if !seen[u] {
			return fmt.Errorf("mapper %s: unique column %q is not mapped", m.Table, u)
		}
	}
	names := make(map[string]bool, len(m.Relations))
	for _, r := range m.Relations {
		if r.Name == "" || r.Load == nil {
			return fmt.Errorf("mapper %s: relation %q needs a name and loader", m.Table, r.Name)
		}
		if names[r.Name] {
			return fmt.Errorf("mapper %s: duplicate relation %q", m.Table, r.Name)
		}
		names[r.Name] = true
	}
	return nil
}

// Column returns the named column.
func (m *Mapper[T, ID]) Column(name string) (Column[T], bool) {
	for _, c := range m.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column[T]{}, false
}

// Relation returns the named relation.
func (m *Mapper[T, ID]) Relation(name string) (Relation[T], bool) {
	for _, r := range m.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return Relation[T]{}, false
}

// TableName implements EntityMapper.
func (m *Mapper[T, ID]) TableName() string { return m.Table }

// ResourceName implements EntityMapper.
func (m *Mapper[T, ID]) ResourceName() string {
	if m.Resource != "" {
		return m.Resource
	}
	return m.Table
}

// ColumnNames implements EntityMapper.
func (m *Mapper[T, ID]) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}
	return names
}

// IDColumnName implements EntityMapper.
func (m *Mapper[T, ID]) IDColumnName() string { return m.IDColumn }

// TenantColumnName implements EntityMapper.
func (m *Mapper[T, ID]) TenantColumnName() string { return m.TenantColumn }

// VersionColumnName implements EntityMapper.
func (m *Mapper[T, ID]) VersionColumnName() string { return m.VersionColumn }

// HasColumn implements EntityMapper.
func (m *Mapper[T, ID]) HasColumn(name string) bool {
	_, ok := m.Column(name)
	return ok
}

// NewEntity implements EntityMapper.
func (m *Mapper[T, ID]) NewEntity() any { return new(T) }

// ScanDests implements EntityMapper.
func (m *Mapper[T, ID]) ScanDests(entity any) []any {
	e := entity.(*T)
	dests := make([]any, len(m.Columns))
	for i, c := range m.Columns {
		dests[i] = c.Scan(e)
	}
	return dests
}

// ValueOf implements EntityMapper.
func (m *Mapper[T, ID]) ValueOf(entity any, column string) any {
	e := entity.(*T)
	if c, ok := m.Column(column); ok {
		return c.Value(e)
	}
	return nil
}

// UniqueColumns implements EntityMapper.
func (m *Mapper[T, ID]) UniqueColumns() []string { return m.Unique }

// IDOf implements EntityMapper.
func (m *Mapper[T, ID]) IDOf(entity any) any {
	return m.ID(entity.(*T))
}

// VersionOf implements EntityMapper.
func (m *Mapper[T, ID]) VersionOf(entity any) int64 {
	if m.Version == nil {
		return 0
	}
	return m.Version(entity.(*T))
}

// SetVersionOf implements EntityMapper.
func (m *Mapper[T, ID]) SetVersionOf(entity any, version int64) {
	if m.SetVersion != nil {
		m.SetVersion(entity.(*T), version)
	}
}

// SetTenantOf implements EntityMapper.
func (m *Mapper[T, ID]) SetTenantOf(entity any, tenant uuid.UUID) {
	if m.SetTenant != nil {
		m.SetTenant(entity.(*T), tenant)
	}
}
