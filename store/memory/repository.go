package memory

import (
	"context"
	"fmt"
	"sort"

	apperrors "github.com/stocker/stocker/data/pkg/errors"
	"github.com/stocker/stocker/data/store"
)

// Repo implements store.Repository against the in-memory store. Reads
// evaluate specifications over a snapshot of committed rows; writes stage
// on the owning unit of work.
type Repo[T any, ID comparable] struct {
	uow *UnitOfWork
	m   *store.Mapper[T, ID]
}

var _ store.Repository[struct{}, int] = (*Repo[struct{}, int])(nil)

// snapshot copies the committed rows for this repository's tenant.
func (r *Repo[T, ID]) snapshot() []*T {
	t := r.uow.store.ensureTable(r.m)

	r.uow.store.mu.RLock()
	defer r.uow.store.mu.RUnlock()

	tenantCol := r.m.TenantColumnName()
	out := make([]*T, 0, len(t.rows))
	for _, e := range t.rows {
		if tenantCol != "" && !valuesEqual(r.m.ValueOf(e, tenantCol), r.uow.tenantID) {
			continue
		}
		out = append(out, cloneEntity(e).(*T))
	}
	return out
}

// Snapshot returns tenant-scoped copies of all committed rows. It is the
// backend-specific escape hatch for inspection the portable interface does
// not cover.
func (r *Repo[T, ID]) Snapshot() ([]*T, error) {
	if err := r.uow.active(); err != nil {
		return nil, err
	}
	return r.snapshot(), nil
}

func (r *Repo[T, ID]) resolveIncludes(names []string) ([]store.Relation[T], error) {
	if len(names) == 0 {
		return nil, nil
	}
	rels := make([]store.Relation[T], 0, len(names))
	for _, name := range names {
		rel, ok := r.m.Relation(name)
		if !ok {
			return nil, apperrors.InvalidArgument(fmt.Sprintf("unknown relation %q", name))
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

func (r *Repo[T, ID]) loadIncludes(ctx context.Context, rels []store.Relation[T], entities []*T) error {
	if len(entities) == 0 {
		return nil
	}
	for _, rel := range rels {
		if err := rel.Load(ctx, r.uow, entities); err != nil {
			return err
		}
	}
	return nil
}

// find is the single evaluation path: filter, order, page, then load
// includes.
func (r *Repo[T, ID]) find(ctx context.Context, spec *store.Specification, override *pageBounds) ([]*T, error) {
	if err := r.uow.active(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	rels, err := r.resolveIncludes(spec.Includes())
	if err != nil {
		return nil, err
	}

	matched, err := r.filter(spec.Conditions())
	if err != nil {
		return nil, err
	}
	if err := r.order(matched, spec.Orderings()); err != nil {
		return nil, err
	}
	matched = page(matched, spec, override)

	if err := r.loadIncludes(ctx, rels, matched); err != nil {
		return nil, err
	}
	return matched, nil
}

func (r *Repo[T, ID]) filter(conditions []store.Condition) ([]*T, error) {
	for _, c := range conditions {
		if !r.m.HasColumn(c.Column) {
			return nil, apperrors.InvalidArgument(fmt.Sprintf("unknown column %q", c.Column))
		}
	}
	rows := r.snapshot()
	out := rows[:0]
	for _, e := range rows {
		keep := true
		for _, c := range conditions {
			ok, err := matches(c, r.m.ValueOf(e, c.Column))
			if err != nil {
				return nil, err
			}
			if !ok {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *Repo[T, ID]) order(rows []*T, orderings []store.Ordering) error {
	if len(orderings) == 0 {
		return nil
	}
	for _, o := range orderings {
		if !r.m.HasColumn(o.Column) {
			return apperrors.InvalidArgument(fmt.Sprintf("unknown column %q", o.Column))
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orderings {
			cmp := compareValues(r.m.ValueOf(rows[i], o.Column), r.m.ValueOf(rows[j], o.Column))
			if cmp == 0 {
				continue
			}
			if o.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return nil
}

type pageBounds struct {
	skip, take int
}

func page[T any](rows []*T, spec *store.Specification, override *pageBounds) []*T {
	skip, take := 0, -1
	if s, t, ok := spec.Paging(); ok {
		skip, take = s, t
	}
	if override != nil {
		skip, take = override.skip, override.take
	}
	if skip > 0 {
		if skip >= len(rows) {
			return nil
		}
		rows = rows[skip:]
	}
	if take >= 0 && take < len(rows) {
		rows = rows[:take]
	}
	return rows
}

// GetByID implements store.ReadRepository. A missing row is not an error.
func (r *Repo[T, ID]) GetByID(ctx context.Context, id ID) (*T, error) {
	spec := store.Query().Where(store.Eq(r.m.IDColumn, id)).Page(0, 1)
	rows, err := r.find(ctx, spec, nil)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
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
	rows, err := r.find(ctx, spec, &pageBounds{skip: 0, take: 2})
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return rows[0], nil
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
	rows, err := r.find(ctx, spec, &pageBounds{skip: 0, take: 1})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Count implements store.ReadRepository.
func (r *Repo[T, ID]) Count(ctx context.Context, conditions ...store.Condition) (int64, error) {
	return r.CountMatching(ctx, store.Query().Where(conditions...))
}

// CountMatching implements store.ReadRepository. Paging on the
// specification does not affect the count.
func (r *Repo[T, ID]) CountMatching(ctx context.Context, spec *store.Specification) (int64, error) {
	if err := r.uow.active(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := spec.Validate(); err != nil {
		return 0, err
	}
	rows, err := r.filter(spec.Conditions())
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
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
	rows, err := r.find(ctx, spec, &pageBounds{skip: pageIndex * pageSize, take: pageSize})
	if err != nil {
		return zero, err
	}
	return store.NewPagedResult(rows, total, pageIndex, pageSize), nil
}

// GetPagedWhere implements store.ReadRepository.
func (r *Repo[T, ID]) GetPagedWhere(ctx context.Context, pageIndex, pageSize int, orderings []store.Ordering, conditions ...store.Condition) (store.PagedResult[*T], error) {
	spec := store.Query().Where(conditions...)
	for _, o := range orderings {
		if o.Descending {
			spec = spec.OrderByDescending(o.Column)
		} else {
			spec = spec.OrderBy(o.Column)
		}
	}
	return r.GetPaged(ctx, spec, pageIndex, pageSize)
}

// Add implements store.Repository. It stamps the tenant, seeds the version
// for versioned entities, and stages an insert.
func (r *Repo[T, ID]) Add(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, apperrors.InvalidArgument("entity must not be nil")
	}
	r.m.SetTenantOf(entity, r.uow.tenantID)
	if r.m.VersionColumn != "" && r.m.VersionOf(entity) == 0 {
		r.m.SetVersionOf(entity, 1)
	}
	if err := r.uow.stage(change{kind: kindAdd, mapper: r.m, entity: entity}); err != nil {
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

// Update implements store.Repository.
func (r *Repo[T, ID]) Update(ctx context.Context, entity *T) error {
	if entity == nil {
		return apperrors.InvalidArgument("entity must not be nil")
	}
	return r.uow.stage(change{kind: kindUpdate, mapper: r.m, entity: entity})
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
	return r.uow.stage(change{kind: kindRemove, mapper: r.m, entity: entity})
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

// RemoveByID implements store.Repository. Removing an absent id is a
// silent no-op.
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
