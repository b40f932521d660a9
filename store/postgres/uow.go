package postgres

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/stocker/stocker/data/pkg/database"
	apperrors "github.com/stocker/stocker/data/pkg/errors"
	"github.com/stocker/stocker/data/pkg/logger"
	"github.com/stocker/stocker/data/pkg/metrics"
	"github.com/stocker/stocker/data/store"
)

type uowState int

const (
	stateActive uowState = iota
	stateCommitting
	stateDisposed
)

// change is one staged mutation. apply runs inside the commit transaction;
// committed runs after a successful commit (version bumps).
type change struct {
	table     string
	apply     func(ctx context.Context, tx pgx.Tx) (int64, error)
	committed func()
}

// UnitOfWork is the pgx-backed unit of work. It stages adds, updates and
// removes from the repositories it owns and replays them inside a single
// transaction on SaveChanges. One instance serves one logical operation;
// it is not for concurrent use by two operations.
type UnitOfWork struct {
	db       *database.PostgresDB
	registry *store.Registry
	tenantID uuid.UUID
	log      *zap.Logger

	mu     sync.Mutex
	state  uowState
	staged []change
	repos  map[string]any
}

var (
	_ store.UnitOfWork      = (*UnitOfWork)(nil)
	_ store.RelationQuerier = (*UnitOfWork)(nil)
)

// NewUnitOfWork creates a unit of work scoped to one tenant.
func NewUnitOfWork(db *database.PostgresDB, registry *store.Registry, tenantID uuid.UUID) *UnitOfWork {
	return &UnitOfWork{
		db:       db,
		registry: registry,
		tenantID: tenantID,
		log:      logger.WithTenantID(tenantID.String()),
		repos:    make(map[string]any),
	}
}

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
	repo := newRepo(u, m)
	u.repos[m.Table] = repo
	return repo, nil
}

// ReadRepository returns the same cached instance as Repository, narrowed to
// the read-only contract.
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

// stage appends a change to the change log.
func (u *UnitOfWork) stage(ch change) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != stateActive {
		return apperrors.InvalidState("unit of work is not accepting changes")
	}
	u.staged = append(u.staged, ch)
	return nil
}

// active reports an INVALID_STATE error when the unit of work no longer
// serves operations.
func (u *UnitOfWork) active() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state == stateDisposed {
		return apperrors.InvalidState("unit of work is disposed")
	}
	return nil
}

// SaveChanges implements store.UnitOfWork. Every staged change is replayed
// in order inside one transaction; on any failure the transaction rolls
// back and the staged changes are kept for a retry.
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
	var affected int64
	err := database.Transaction(ctx, u.db, func(tx pgx.Tx) error {
		for _, ch := range u.staged {
			n, err := ch.apply(ctx, tx)
			if err != nil {
				return err
			}
			affected += n
		}
		return nil
	})
	if err != nil {
		mapped := mapStorageError(err, "unit of work")
		metrics.RecordCommitError("postgres", errorReason(mapped))
		return 0, mapped
	}

	for _, ch := range u.staged {
		if ch.committed != nil {
			ch.committed()
		}
	}
	flushed := len(u.staged)
	u.staged = nil

	metrics.RecordCommit("postgres", flushed, time.Since(start))
	u.log.Debug("unit of work committed",
		zap.Int("changes", flushed),
		zap.Int64("affected_rows", affected),
	)
	return affected, nil
}

// Close implements store.UnitOfWork. Staged, uncommitted changes are
// discarded; repositories obtained from this unit of work must not be used
// afterwards.
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

// Related implements store.RelationQuerier for eager loading: rows of table
// whose keyColumn is among keys, scoped to this unit of work's tenant.
func (u *UnitOfWork) Related(ctx context.Context, table, keyColumn string, keys []any) ([]any, error) {
	if err := u.active(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}
	m, ok := u.registry.Lookup(table)
	if !ok {
		return nil, apperrors.InvalidArgument(fmt.Sprintf("no mapper registered for table %q", table))
	}
	if !m.HasColumn(keyColumn) {
		return nil, apperrors.InvalidArgument(fmt.Sprintf("unknown column %q", keyColumn))
	}

	args := make([]any, 0, len(keys)+1)
	placeholders := make([]string, len(keys))
	for i, k := range keys {
		args = append(args, k)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (%s)",
		strings.Join(m.ColumnNames(), ", "), table, keyColumn, strings.Join(placeholders, ", "))
	if tc := m.TenantColumnName(); tc != "" {
		args = append(args, u.tenantID)
		sql += fmt.Sprintf(" AND %s = $%d", tc, len(args))
	}

	rows, err := u.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapStorageError(err, m.ResourceName())
	}
	defer rows.Close()

	var out []any
	for rows.Next() {
		e := m.NewEntity()
		if err := rows.Scan(m.ScanDests(e)...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", m.ResourceName(), err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStorageError(err, m.ResourceName())
	}
	return out, nil
}
