// Package memory implements the store contracts on a shared in-memory
// store. It backs the layer's unit tests and is a drop-in dev backend: the
// same tenant scoping, staged-commit atomicity, optimistic-concurrency and
// unique-constraint semantics the Postgres backend gets from the engine are
// enforced here at commit time.
package memory

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/stocker/stocker/data/store"
)

// Store is the shared backing state. Unit of works created from one Store
// see each other's committed changes, which is what lets tests exercise
// concurrent-modification conflicts.
type Store struct {
	registry *store.Registry

	mu     sync.RWMutex
	tables map[string]*table
}

type table struct {
	mapper store.EntityMapper
	rows   map[any]any
}

// NewStore creates an empty store over the given mapper registry.
func NewStore(registry *store.Registry) *Store {
	return &Store{
		registry: registry,
		tables:   make(map[string]*table),
	}
}

// NewUnitOfWork creates a unit of work scoped to one tenant.
func (s *Store) NewUnitOfWork(tenantID uuid.UUID) *UnitOfWork {
	return &UnitOfWork{
		store:    s,
		tenantID: tenantID,
		repos:    make(map[string]any),
	}
}

// ensureTable creates the table for a mapper on first use.
func (s *Store) ensureTable(m store.EntityMapper) *table {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[m.TableName()]; ok {
		return t
	}
	t := &table{mapper: m, rows: make(map[any]any)}
	s.tables[m.TableName()] = t
	return t
}

// lookupTable returns the table for a registered mapper, creating it lazily.
func (s *Store) lookupTable(name string) (*table, error) {
	s.mu.RLock()
	t, ok := s.tables[name]
	s.mu.RUnlock()
	if ok {
		return t, nil
	}
	m, ok := s.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("no mapper registered for table %q", name)
	}
	return s.ensureTable(m), nil
}

// cloneEntity deep-copies the top-level struct of a type-erased entity so
// stored rows never alias caller-held references.
func cloneEntity(entity any) any {
	v := reflect.ValueOf(entity)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return entity
	}
	c := reflect.New(v.Elem().Type())
	c.Elem().Set(v.Elem())
	return c.Interface()
}
