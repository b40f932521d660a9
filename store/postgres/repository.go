package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/stocker/stocker/data/pkg/database"
	apperrors "github.com/stocker/stocker/data/pkg/errors"
	"github.com/stocker/stocker/data/store"
)

// Repo is the pgx-backed generic repository. Instances are created and
// cached by their owning UnitOfWork; obtain one through Repository or
// ReadRepository.
type Repo[T any, ID comparable] struct {
	uow        *UnitOfWork
	m          *store.Mapper[T, ID]
	baseSelect string
}

var _ store.Repository[struct{}, int] = (*Repo[struct{}, int])(nil)

func newRepo[T any, ID comparable](u *UnitOfWork, m *store.Mapper[T, ID]) *Repo[T, ID] {
	return &Repo[T, ID]{
		uow:        u,
		m:          m,
		baseSelect: fmt.Sprintf("SELECT %s FROM %s", strings.Join(m.ColumnNames(), ", "), m.Table),
	}
}

// tenantScope seeds the WHERE conjunction with this unit of work's tenant.
func (r *Repo[T, ID]) tenantScope() ([]string, []any) {
	if r.m.TenantColumn == "" {
		return nil, nil
	}
	return []string{fmt.Sprintf("%s = $1", r.m.TenantColumn)}, []any{r.uow.tenantID}
}

func (r *Repo[T, ID]) scanDests(e *T) []any {
	dests := make([]any, len(r.m.Columns))
	for i, c := range r.m.Columns {
		dests[i] = c.Scan(e)
	}
	return dests
}

func (r *Repo[T, ID]) queryEntities(ctx context.Context, sql string, args []any) ([]*T, error) {
	rows, err := r.uow.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapStorageError(err, r.m.ResourceName())
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		e := new(T)
		if err := rows.Scan(r.scanDests(e)...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.m.ResourceName(), err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStorageError(err, r.m.ResourceName())
	}
	return out, nil
}

// resolveIncludes validates the include names before any SQL runs.
func (r *Repo[T, ID]) resolveIncludes(names []string) ([]store.Relation[T], error) {
	relations := make([]store.Relation[T], 0, len(names))
	for _, name := range names {
		rel, ok := r.m.Relation(name)
		if !ok {
			return nil, apperrors.InvalidArgument(fmt.Sprintf("unknown relation %q on %s", name, r.m.ResourceName()))
		}
		relations = append(relations, rel)
	}
	return relations, nil
}

func (r *Repo[T, ID]) loadIncludes(ctx context.Context, relations []store.Relation[T], entities []*T) error {
	if len(entities) == 0 {
		return nil
	}
	for _, rel := range relations {
		if err := rel.Load(ctx, r.uow, entities); err != nil {
			return fmt.Errorf("failed to load relation %q: %w", rel.Name, err)
		}
	}
	return nil
}

func (r *Repo[T, ID]) find(ctx context.Context, spec *store.Specification, override *pageBounds) ([]*T, error) {
	if err := r.uow.active(); err != nil {
		return nil, err
	}
	relations, err := r.resolveIncludes(spec.Includes())
	if err != nil {
		return nil, err
	}
	where, args := r.tenantScope()
	sql, args, err := applySpecification(r.baseSelect, where, args, r.m, spec, override)
	if err != nil {
		return nil, err
	}
	entities, err := r.queryEntities(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	if err := r.loadIncludes(ctx, relations, entities); err != nil {
		return nil, err
	}
	return entities, nil
}

// GetByID implements store.ReadRepository. A missing row is not an error.
func (r *Repo[T, ID]) GetByID(ctx context.Context, id ID) (*T, error) {
	entities, err := r.find(ctx, store.Query().Where(store.Eq(r.m.IDColumn, id)), &pageBounds{skip: 0, take: 1})
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, nil
	}
	return entities[0], nil
}

// GetAll implements store.ReadRepository.
func (r *Repo[T, ID]) GetAll(ctx context.Context, includes ...string) ([]*T, error) {
	return r.find(ctx, store.Query().Include(includes...), nil)
}

// Find implements store.ReadRepository.
func (r *Repo[T, ID]) Find(ctx context.Context, spec *store.Specification) ([]*T, error) {
	return r.find(ctx, spec, nil)
}

// FindWhere implements store.ReadRepository.
func (r *Repo[T, ID]) FindWhere(ctx context.Context, conditions ...store.Condition) ([]*T, error) {
	return r.find(ctx, store.Query().Where(conditions...), nil)
}

// SingleOrDefault implements store.ReadRepository.
func (r *Repo[T, ID]) SingleOrDefault(ctx context.Context, spec *store.Specification) (*T, error) {
	// Fetch two rows at most: one is the answer, a second proves ambiguity.
	entities, err := r.find(ctx, spec, &pageBounds{skip: 0, take: 2})
	if err != nil {
		return nil, err
	}
	switch len(entities) {
	case 0:
		return nil, nil
	case 1:
		return entities[0], nil
	default:
		return nil, apperrors.MultipleResults(r.m.ResourceName())
	}
}

// SingleWhere implements store.ReadRepository.
func (r *Repo[T, ID]) SingleWhere(ctx context.Context, conditions ...store.Condition) (*T, error) {
	return r.SingleOrDefault(ctx, store.Query().Where(conditions...))
}

// Any implements store.ReadRepository.
func (r *Repo[T, ID]) Any(ctx context.Context, conditions ...store.Condition) (bool, error) {
	return r.AnyMatching(ctx, store.Query().Where(conditions...))
}

// AnyMatching implements store.ReadRepository.
func (r *Repo[T, ID]) AnyMatching(ctx context.Context, spec *store.Specification) (bool, error) {
	if err := r.uow.active(); err != nil {
		return false, err
	}
	if err := spec.Validate(); err != nil {
		return false, err
	}
	where, args := r.tenantScope()
	clauses, args, err := buildWhere(r.m, spec.Conditions(), args)
	if err != nil {
		return false, err
	}
	where = append(where, clauses...)

	sql := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s", r.m.Table)
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += ")"

	var exists bool
	if err := r.uow.db.Pool.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, mapStorageError(err, r.m.ResourceName())
	}
	return exists, nil
}

// Count implements store.ReadRepository.
func (r *Repo[T, ID]) Count(ctx context.Context, conditions ...store.Condition) (int64, error) {
	return r.CountMatching(ctx, store.Query().Where(conditions...))
}

// CountMatching implements store.ReadRepository. Paging on the
// specification is ignored: the count is the filtered, unpaged cardinality.
func (r *Repo[T, ID]) CountMatching(ctx context.Context, spec *store.Specification) (int64, error) {
	if err := r.uow.active(); err != nil {
		return 0, err
	}
	if err := spec.Validate(); err != nil {
		return 0, err
	}
	where, args := r.tenantScope()
	clauses, args, err := buildWhere(r.m, spec.Conditions(), args)
	if err != nil {
		return 0, err
	}
	where = append(where, clauses...)

	sql := fmt.Sprintf("SELECT count(*) FROM %s", r.m.Table)
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}

	var count int64
	if err := r.uow.db.Pool.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, mapStorageError(err, r.m.ResourceName())
	}
	return count, nil
}

// GetPaged implements store.ReadRepository.
func (r *Repo[T, ID]) GetPaged(ctx context.Context, spec *store.Specification, pageIndex, pageSize int) (store.PagedResult[*T], error) {
	var zero store.PagedResult[*T]
	if pageIndex < 0 {
		return zero, apperrors.InvalidArgument("page index must not be negative")
	}
	if pageSize <= 0 {
		return zero, apperrors.InvalidArgument("page size must be positive")
	}

	total, err := r.CountMatching(ctx, spec)
	if err != nil {
		return zero, err
	}
	items, err := r.find(ctx, spec, &pageBounds{skip: pageIndex * pageSize, take: pageSize})
	if err != nil {
		return zero, err
	}
	return store.NewPagedResult(items, total, pageIndex, pageSize), nil
}

// GetPagedWhere implements store.ReadRepository.
func (r *Repo[T, ID]) GetPagedWhere(ctx context.Context, pageIndex, pageSize int, orderings []store.Ordering, conditions ...store.Condition) (store.PagedResult[*T], error) {
	spec := store.Query().Where(conditions...)
	for _, o := range orderings {
		if o.Descending {
			spec.OrderByDescending(o.Column)
		} else {
			spec.OrderBy(o.Column)
		}
	}
	return r.GetPaged(ctx, spec, pageIndex, pageSize)
}

// Add implements store.Repository. The entity is stamped with the unit of
// work's tenant and staged; column values are read when the commit runs.
func (r *Repo[T, ID]) Add(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, apperrors.InvalidArgument("entity must not be nil")
	}
	if r.m.TenantColumn != "" {
		r.m.SetTenant(entity, r.uow.tenantID)
	}
	if r.m.VersionColumn != "" && r.m.Version(entity) == 0 {
		r.m.SetVersion(entity, 1)
	}

	cols := r.m.ColumnNames()
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.m.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	err := r.uow.stage(change{
		table: r.m.Table,
		apply: func(ctx context.Context, tx pgx.Tx) (int64, error) {
			args := make([]any, len(r.m.Columns))
			for i, c := range r.m.Columns {
				args[i] = c.Value(entity)
			}
			tag, err := tx.Exec(ctx, sql, args...)
			if err != nil {
				return 0, err
			}
			return tag.RowsAffected(), nil
		},
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// AddRange implements store.Repository.
func (r *Repo[T, ID]) AddRange(ctx context.Context, entities ...*T) error {
	for _, e := range entities {
		if _, err := r.Add(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Update implements store.Repository. Entities with a version column carry
// an optimistic-concurrency predicate: a vanished or concurrently modified
// row fails the whole commit with CONCURRENCY_CONFLICT.
func (r *Repo[T, ID]) Update(ctx context.Context, entity *T) error {
	if entity == nil {
		return apperrors.InvalidArgument("entity must not be nil")
	}
	set := make([]string, 0, len(r.m.Columns))
	setCols := make([]store.Column[T], 0, len(r.m.Columns))
	n := 0
	for _, c := range r.m.Columns {
		if c.Name == r.m.IDColumn || c.Name == r.m.TenantColumn || c.Name == r.m.VersionColumn {
			continue
		}
		n++
		set = append(set, fmt.Sprintf("%s = $%d", c.Name, n))
		setCols = append(setCols, c)
	}
	if r.m.VersionColumn != "" {
		n++
		set = append(set, fmt.Sprintf("%s = $%d", r.m.VersionColumn, n))
	}
	if len(set) == 0 {
		return apperrors.InvalidArgument(fmt.Sprintf("%s has no updatable columns", r.m.ResourceName()))
	}

	var next int64
	sb := strings.Builder{}
	fmt.Fprintf(&sb, "UPDATE %s SET %s", r.m.Table, strings.Join(set, ", "))
	n++
	fmt.Fprintf(&sb, " WHERE %s = $%d", r.m.IDColumn, n)
	if r.m.TenantColumn != "" {
		n++
		fmt.Fprintf(&sb, " AND %s = $%d", r.m.TenantColumn, n)
	}
	if r.m.VersionColumn != "" {
		n++
		fmt.Fprintf(&sb, " AND %s = $%d", r.m.VersionColumn, n)
	}
	sql := sb.String()

	return r.uow.stage(change{
		table: r.m.Table,
		apply: func(ctx context.Context, tx pgx.Tx) (int64, error) {
			args := make([]any, 0, n)
			for _, c := range setCols {
				args = append(args, c.Value(entity))
			}
			var current int64
			if r.m.VersionColumn != "" {
				current = r.m.Version(entity)
				next = current + 1
				args = append(args, next)
			}
			args = append(args, r.m.ID(entity))
			if r.m.TenantColumn != "" {
				args = append(args, r.uow.tenantID)
			}
			if r.m.VersionColumn != "" {
				args = append(args, current)
			}
			tag, err := tx.Exec(ctx, sql, args...)
			if err != nil {
				return 0, err
			}
			if r.m.VersionColumn != "" && tag.RowsAffected() == 0 {
				return 0, apperrors.ConcurrencyConflict(r.m.ResourceName())
			}
			return tag.RowsAffected(), nil
		},
		committed: func() {
			if r.m.VersionColumn != "" {
				r.m.SetVersion(entity, next)
			}
		},
	})
}

// UpdateRange implements store.Repository.
func (r *Repo[T, ID]) UpdateRange(ctx context.Context, entities ...*T) error {
	for _, e := range entities {
		if err := r.Update(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Remove implements store.Repository.
func (r *Repo[T, ID]) Remove(ctx context.Context, entity *T) error {
	if entity == nil {
		return apperrors.InvalidArgument("entity must not be nil")
	}
	where := fmt.Sprintf("%s = $1", r.m.IDColumn)
	if r.m.TenantColumn != "" {
		where += fmt.Sprintf(" AND %s = $2", r.m.TenantColumn)
	}
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s", r.m.Table, where)

	return r.uow.stage(change{
		table: r.m.Table,
		apply: func(ctx context.Context, tx pgx.Tx) (int64, error) {
			args := []any{r.m.ID(entity)}
			if r.m.TenantColumn != "" {
				args = append(args, r.uow.tenantID)
			}
			tag, err := tx.Exec(ctx, sql, args...)
			if err != nil {
				return 0, err
			}
			return tag.RowsAffected(), nil
		},
	})
}

// RemoveRange implements store.Repository.
func (r *Repo[T, ID]) RemoveRange(ctx context.Context, entities ...*T) error {
	for _, e := range entities {
		if err := r.Remove(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// RemoveByID implements store.Repository. A missing row is a silent no-op.
func (r *Repo[T, ID]) RemoveByID(ctx context.Context, id ID) error {
	entity, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if entity == nil {
		return nil
	}
	return r.Remove(ctx, entity)
}

// BaseQuery exposes the repository's base SELECT and its tenant arguments
// for bespoke projections. Prefer specifications; this is the escape hatch.
func (r *Repo[T, ID]) BaseQuery() (string, []any) {
	where, args := r.tenantScope()
	sql := r.baseSelect
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	return sql, args
}

// DB exposes the underlying database for ad hoc composition.
func (r *Repo[T, ID]) DB() *database.PostgresDB {
	return r.uow.db
}
