package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/stocker/stocker/data/pkg/errors"
	"github.com/stocker/stocker/data/pkg/metrics"
	"github.com/stocker/stocker/data/store"
)

type uowState int

const (
	stateActive uowState = iota
	stateCommitting
	stateDisposed
)

type changeKind int

const (
	kindAdd changeKind = iota
	kindUpdate
	kindRemove
)

// change is one staged mutation. Column values are read from the caller's
// entity when the commit runs.
type change struct {
	kind   changeKind
	mapper store.EntityMapper
	entity any
	// newVersion is filled during a successful commit and written back to
	// the entity afterwards.
	newVersion int64
}

// UnitOfWork is the in-memory unit of work. Semantics mirror the Postgres
// backend: reads see only committed state, mutations stage until
// SaveChanges, and a commit applies all staged changes or none.
type UnitOfWork struct {
	store    *Store
	tenantID uuid.UUID

	mu     sync.Mutex
	state  uowState
	staged []change
	repos  map[string]any
}

var (
	_ store.UnitOfWork      = (*UnitOfWork)(nil)
	_ store.RelationQuerier = (*UnitOfWork)(nil)
)

// Repository returns the cached repository for the mapper's entity type,
// constructing it on first request.
func Repository[T any, ID comparable](u *UnitOfWork, m *store.Mapper[T, ID]) (store.Repository[T, ID], error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state == stateDisposed {
		return nil, apperrors.InvalidState("unit of work is disposed")
	}
	if cached, ok := u.repos[m.Table]; ok {
		repo, ok := cached.(*Repo[T, ID])
		if !ok {
			return nil, fmt.Errorf("repository for table %q already constructed with a different entity type", m.Table)
		}
		return repo, nil
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	u.store.ensureTable(m)
	repo := &Repo[T, ID]{uow: u, m: m}
	u.repos[m.Table] = repo
	return repo, nil
}

// ReadRepository returns the same cached instance as Repository, narrowed
// to the read-only contract.
func ReadRepository[T any, ID comparable](u *UnitOfWork, m *store.Mapper[T, ID]) (store.ReadRepository[T, ID], error) {
	return Repository(u, m)
}

// TenantID implements store.UnitOfWork.
func (u *UnitOfWork) TenantID() uuid.UUID {
	return u.tenantID
}

// Pending implements store.UnitOfWork.
func (u *UnitOfWork) Pending() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.staged)
}

func (u *UnitOfWork) stage(ch change) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != stateActive {
		return apperrors.InvalidState("unit of work is not accepting changes")
	}
	u.staged = append(u.staged, ch)
	return nil
}

func (u *UnitOfWork) active() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state == stateDisposed {
		return apperrors.InvalidState("unit of work is disposed")
	}
	return nil
}

// SaveChanges implements store.UnitOfWork. Changes apply to scratch copies
// of the touched tables first; only a fully valid batch is swapped in, so
// a failed commit leaves both the store and the staged changes untouched.
func (u *UnitOfWork) SaveChanges(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	switch u.state {
	case stateDisposed:
		return 0, apperrors.InvalidState("unit of work is disposed")
	case stateCommitting:
		return 0, apperrors.InvalidState("commit already in progress")
	}
	if len(u.staged) == 0 {
		return 0, nil
	}

	u.state = stateCommitting
	defer func() { u.state = stateActive }()

	start := time.Now()

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	overlays := make(map[string]map[any]any)
	overlay := func(m store.EntityMapper) map[any]any {
		name := m.TableName()
		if ov, ok := overlays[name]; ok {
			return ov
		}
		var src map[any]any
		if t, ok := u.store.tables[name]; ok {
			src = t.rows
		}
		ov := make(map[any]any, len(src)+1)
		for id, e := range src {
			ov[id] = e
		}
		overlays[name] = ov
		return ov
	}

	var affected int64
	for i := range u.staged {
		ch := &u.staged[i]
		ov := overlay(ch.mapper)
		id := ch.mapper.IDOf(ch.entity)

		switch ch.kind {
		case kindAdd:
			if _, exists := ov[id]; exists {
				metrics.RecordCommitError("memory", "constraint_violation")
				return 0, apperrors.ConstraintViolation(
					fmt.Sprintf("duplicate %s id", ch.mapper.ResourceName()))
			}
			if err := u.checkUnique(ov, ch.mapper, ch.entity, id); err != nil {
				metrics.RecordCommitError("memory", "constraint_violation")
				return 0, err
			}
			ov[id] = cloneEntity(ch.entity)
			affected++

		case kindUpdate:
			existing, exists := ov[id]
			versioned := ch.mapper.VersionColumnName() != ""
			if !exists {
				if versioned {
					metrics.RecordCommitError("memory", "concurrency_conflict")
					return 0, apperrors.ConcurrencyConflict(ch.mapper.ResourceName())
				}
				continue
			}
			if versioned {
				base := ch.mapper.VersionOf(ch.entity)
				if ch.mapper.VersionOf(existing) != base {
					metrics.RecordCommitError("memory", "concurrency_conflict")
					return 0, apperrors.ConcurrencyConflict(ch.mapper.ResourceName())
				}
				ch.newVersion = base + 1
			}
			if err := u.checkUnique(ov, ch.mapper, ch.entity, id); err != nil {
				metrics.RecordCommitError("memory", "constraint_violation")
				return 0, err
			}
			updated := cloneEntity(ch.entity)
			if versioned {
				ch.mapper.SetVersionOf(updated, ch.newVersion)
			}
			ov[id] = updated
			affected++

		case kindRemove:
			if _, exists := ov[id]; exists {
				delete(ov, id)
				affected++
			}
		}
	}

	// All staged changes validated; swap the overlays in.
	for name, ov := range overlays {
		t, ok := u.store.tables[name]
		if !ok {
			m, _ := u.store.registry.Lookup(name)
			t = &table{mapper: m, rows: ov}
			u.store.tables[name] = t
			continue
		}
		t.rows = ov
	}
	for i := range u.staged {
		ch := &u.staged[i]
		if ch.kind == kindUpdate && ch.newVersion > 0 {
			ch.mapper.SetVersionOf(ch.entity, ch.newVersion)
		}
	}
	flushed := len(u.staged)
	u.staged = nil

	metrics.RecordCommit("memory", flushed, time.Since(start))
	return affected, nil
}

// checkUnique enforces the mapper's single-column unique constraints within
// this tenant, against the scratch overlay.
func (u *UnitOfWork) checkUnique(ov map[any]any, m store.EntityMapper, entity any, selfID any) error {
	tenantCol := m.TenantColumnName()
	for _, col := range m.UniqueColumns() {
		value := m.ValueOf(entity, col)
		for id, other := range ov {
			if id == selfID {
				continue
			}
			if tenantCol != "" && !valuesEqual(m.ValueOf(other, tenantCol), u.tenantID) {
				continue
			}
			if valuesEqual(m.ValueOf(other, col), value) {
				return apperrors.ConstraintViolation(
					fmt.Sprintf("duplicate %s %s", m.ResourceName(), col))
			}
		}
	}
	return nil
}

// Close implements store.UnitOfWork. Staged, uncommitted changes are
// discarded; Close is idempotent.
func (u *UnitOfWork) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state == stateDisposed {
		return nil
	}
	u.state = stateDisposed
	u.staged = nil
	u.repos = nil
	return nil
}

// Related implements store.RelationQuerier for eager loading.
func (u *UnitOfWork) Related(ctx context.Context, tableName, keyColumn string, keys []any) ([]any, error) {
	if err := u.active(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}
	t, err := u.store.lookupTable(tableName)
	if err != nil {
		return nil, apperrors.InvalidArgument(err.Error())
	}
	if !t.mapper.HasColumn(keyColumn) {
		return nil, apperrors.InvalidArgument(fmt.Sprintf("unknown column %q", keyColumn))
	}
	tenantCol := t.mapper.TenantColumnName()

	u.store.mu.RLock()
	defer u.store.mu.RUnlock()

	var out []any
	for _, e := range t.rows {
		if tenantCol != "" && !valuesEqual(t.mapper.ValueOf(e, tenantCol), u.tenantID) {
			continue
		}
		value := t.mapper.ValueOf(e, keyColumn)
		for _, k := range keys {
			if valuesEqual(value, k) {
				out = append(out, cloneEntity(e))
				break
			}
		}
	}
	return out, nil
}
