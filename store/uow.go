package store

import (
	"context"

	"github.com/google/uuid"
)

// UnitOfWork bounds the lifetime of a set of repositories sharing one
// persistence session and one tenant. It serves a single logical operation:
// create one per request, commit with SaveChanges, then Close.
//
// Repositories are obtained through the backend's generic accessor (one
// cached instance per entity type per unit of work) and are invalid after
// Close. A closed unit of work fails every further operation with
// INVALID_STATE.
type UnitOfWork interface {
	// TenantID returns the tenant every operation of this unit of work is
	// scoped to.
	TenantID() uuid.UUID

	// Pending returns the number of staged, uncommitted changes.
	Pending() int

	// SaveChanges commits every staged change in one atomic operation and
	// returns the number of affected rows. On failure nothing is applied
	// and the staged changes are kept so the caller may retry or Close.
	SaveChanges(ctx context.Context) (int64, error)

	// Close releases the session. Staged, uncommitted changes are
	// discarded. Close is idempotent.
	Close() error
}

// RelationQuerier is the backend-neutral lookup relation loaders use:
// all rows of table whose keyColumn value is one of keys, scoped to the
// unit of work's tenant, returned as type-erased entities.
type RelationQuerier interface {
	Related(ctx context.Context, table, keyColumn string, keys []any) ([]any, error)
}
