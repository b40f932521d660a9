package store

import "context"

// ReadRepository is the read-only query surface over one entity type. It
// exists so callers that must not mutate can ask for the narrower
// capability; the restriction is an interface-level contract, not a runtime
// check.
//
// Absent rows are not errors: GetByID and SingleOrDefault return a nil
// entity with a nil error when nothing matches. Reads that fail in the
// storage engine surface as STORAGE_UNAVAILABLE; no retries happen at this
// layer.
type ReadRepository[T any, ID comparable] interface {
	// GetByID returns the entity with the given identifier, or nil if no
	// row matches.
	GetByID(ctx context.Context, id ID) (*T, error)

	// GetAll returns every entity, optionally eager-loading the named
	// relations. Prefer Find or GetPaged for production queries against
	// large tables.
	GetAll(ctx context.Context, includes ...string) ([]*T, error)

	// Find returns the entities matching the specification, with its
	// includes, orderings and paging applied.
	Find(ctx context.Context, spec *Specification) ([]*T, error)

	// FindWhere returns the entities matching the condition conjunction.
	FindWhere(ctx context.Context, conditions ...Condition) ([]*T, error)

	// SingleOrDefault returns the only entity matching the specification,
	// nil if none matches, or a MULTIPLE_RESULTS error if more than one
	// does.
	SingleOrDefault(ctx context.Context, spec *Specification) (*T, error)

	// SingleWhere is SingleOrDefault over a condition conjunction.
	SingleWhere(ctx context.Context, conditions ...Condition) (*T, error)

	// Any reports whether any entity matches the conditions.
	Any(ctx context.Context, conditions ...Condition) (bool, error)

	// AnyMatching reports whether any entity matches the specification's
	// filter.
	AnyMatching(ctx context.Context, spec *Specification) (bool, error)

	// Count returns how many entities match the conditions.
	Count(ctx context.Context, conditions ...Condition) (int64, error)

	// CountMatching returns how many entities match the specification's
	// filter, ignoring its paging.
	CountMatching(ctx context.Context, spec *Specification) (int64, error)

	// GetPaged returns the page at pageIndex of the entities matching the
	// specification. TotalCount reflects the filtered-but-unpaged count;
	// the page bounds override any paging set on the specification.
	GetPaged(ctx context.Context, spec *Specification, pageIndex, pageSize int) (PagedResult[*T], error)

	// GetPagedWhere is GetPaged over a condition conjunction with explicit
	// orderings.
	GetPagedWhere(ctx context.Context, pageIndex, pageSize int, orderings []Ordering, conditions ...Condition) (PagedResult[*T], error)
}

// Repository adds the mutation surface. Mutations stage changes in the
// owning unit of work; nothing persists until its SaveChanges commits.
type Repository[T any, ID comparable] interface {
	ReadRepository[T, ID]

	// Add stages the entity for insertion and returns the same reference.
	// Generated fields are not guaranteed until commit.
	Add(ctx context.Context, entity *T) (*T, error)

	// AddRange stages several entities for insertion.
	AddRange(ctx context.Context, entities ...*T) error

	// Update stages the entity's current state for the next commit.
	Update(ctx context.Context, entity *T) error

	// UpdateRange stages several updates.
	UpdateRange(ctx context.Context, entities ...*T) error

	// Remove stages the entity for deletion.
	Remove(ctx context.Context, entity *T) error

	// RemoveRange stages several deletions.
	RemoveRange(ctx context.Context, entities ...*T) error

	// RemoveByID loads the entity and stages its deletion; if no row
	// matches it silently no-ops.
	RemoveByID(ctx context.Context, id ID) error
}
