// Package store defines the portable data-access contracts of the Stocker
// platform: specifications, generic repositories, unit of work, and the
// entity mapping that backs them.
//
// This package defines:
//   - Specification: a declarative query shape (filter conditions, includes,
//     orderings, paging) decoupled from any engine syntax
//   - Repository / ReadRepository: generic CRUD and query access for one
//     entity type, parameterized by identifier type
//   - UnitOfWork: a session-scoped aggregator of repositories sharing one
//     persistence session, one tenant, and one commit boundary
//   - PagedResult: one page of results plus total-count metadata
//   - Mapper / Registry: declarative entity-to-row mapping consumed by the
//     storage backends
//
// # Backends
//
// Concrete implementations live in subpackages: store/postgres (pgx-backed),
// store/memory (in-memory, used by tests and for dev wiring) and
// store/cached (a read-through caching decorator for ReadRepository).
//
// # Multi-tenancy
//
// A tenant id is fixed at unit-of-work construction. Every repository the
// unit of work hands out scopes reads to that tenant and stamps it onto
// staged inserts for entities whose mapper declares a tenant column.
//
// # Lifecycle
//
// A unit of work serves exactly one logical operation. Repositories obtained
// from it are owned by it and become invalid once it is closed; mutations
// stage until SaveChanges flushes them atomically.
package store
