// Package postgres implements the store contracts on PostgreSQL via pgx.
//
// A UnitOfWork hands out one generic repository per entity type. Reads run
// against the pool immediately; specifications compile to SQL with the
// evaluation order fixed as filter, orderings, then skip/take, and includes
// run as follow-up relation queries. Mutations stage into an ordered change
// log that SaveChanges replays inside a single transaction, so a commit is
// all-or-nothing.
//
// Optimistic concurrency uses the mapper's version column: updates carry a
// version predicate and a zero-row result fails the commit with
// CONCURRENCY_CONFLICT. Uniqueness and foreign keys stay with the engine;
// its errors are mapped onto the layer's taxonomy in mapStorageError.
package postgres
