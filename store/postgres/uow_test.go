package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocker/stocker/data/domain/inventory"
	apperrors "github.com/stocker/stocker/data/pkg/errors"
	"github.com/stocker/stocker/data/store"
)

func TestUnitOfWork_CommitRoundTrip(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	registry := testRegistry(t)
	tenant := uuid.New()
	cleanupTenant(t, db, tenant)
	defer cleanupTenant(t, db, tenant)
	ctx := context.Background()

	u := NewUnitOfWork(db, registry, tenant)
	defer u.Close()
	repo, err := Repository(u, inventory.ProductMapper)
	require.NoError(t, err)

	p, err := inventory.NewProduct("IT-100", "Integration widget", 12.5)
	require.NoError(t, err)
	_, err = repo.Add(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Pending())

	affected, err := u.SaveChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.Zero(t, u.Pending())

	fetched, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "IT-100", fetched.Code)
	assert.Equal(t, tenant, fetched.TenantID)
	assert.Equal(t, int64(1), fetched.Version)
}

func TestUnitOfWork_CommitIsAtomic(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	registry := testRegistry(t)
	tenant := uuid.New()
	cleanupTenant(t, db, tenant)
	defer cleanupTenant(t, db, tenant)
	ctx := context.Background()

	u := NewUnitOfWork(db, registry, tenant)
	defer u.Close()
	repo, err := Repository(u, inventory.ProductMapper)
	require.NoError(t, err)

	first, err := inventory.NewProduct("IT-200", "First", 1)
	require.NoError(t, err)
	_, err = repo.Add(ctx, first)
	require.NoError(t, err)
	_, err = u.SaveChanges(ctx)
	require.NoError(t, err)

	good, err := inventory.NewProduct("IT-201", "Good", 1)
	require.NoError(t, err)
	dup, err := inventory.NewProduct("IT-200", "Duplicate", 1)
	require.NoError(t, err)
	_, err = repo.Add(ctx, good)
	require.NoError(t, err)
	_, err = repo.Add(ctx, dup)
	require.NoError(t, err)

	_, err = u.SaveChanges(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsConstraintViolation(err))
	assert.Equal(t, 2, u.Pending(), "failed commit keeps the staged changes")

	found, err := repo.FindWhere(ctx, store.Eq("code", "IT-201"))
	require.NoError(t, err)
	assert.Empty(t, found, "the valid change must not land either")
}

func TestUnitOfWork_ConcurrentUpdateConflicts(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	registry := testRegistry(t)
	tenant := uuid.New()
	cleanupTenant(t, db, tenant)
	defer cleanupTenant(t, db, tenant)
	ctx := context.Background()

	setup := NewUnitOfWork(db, registry, tenant)
	repo, err := Repository(setup, inventory.ProductMapper)
	require.NoError(t, err)
	p, err := inventory.NewProduct("IT-300", "Contended", 1)
	require.NoError(t, err)
	_, err = repo.Add(ctx, p)
	require.NoError(t, err)
	_, err = setup.SaveChanges(ctx)
	require.NoError(t, err)
	require.NoError(t, setup.Close())

	u1 := NewUnitOfWork(db, registry, tenant)
	defer u1.Close()
	u2 := NewUnitOfWork(db, registry, tenant)
	defer u2.Close()

	r1, err := Repository(u1, inventory.ProductMapper)
	require.NoError(t, err)
	r2, err := Repository(u2, inventory.ProductMapper)
	require.NoError(t, err)

	p1, err := r1.GetByID(ctx, p.ID)
	require.NoError(t, err)
	p2, err := r2.GetByID(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, p1.Rename("First writer"))
	require.NoError(t, r1.Update(ctx, p1))
	_, err = u1.SaveChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p1.Version)

	require.NoError(t, p2.Rename("Second writer"))
	require.NoError(t, r2.Update(ctx, p2))
	_, err = u2.SaveChanges(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsConcurrencyConflict(err))

	final, err := r1.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "First writer", final.Name)
}

func TestUnitOfWork_CancelledSaveChangesLeavesStagedUntouched(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	registry := testRegistry(t)
	tenant := uuid.New()
	cleanupTenant(t, db, tenant)
	defer cleanupTenant(t, db, tenant)
	ctx := context.Background()

	u := NewUnitOfWork(db, registry, tenant)
	defer u.Close()
	repo, err := Repository(u, inventory.ProductMapper)
	require.NoError(t, err)

	p, err := inventory.NewProduct("IT-500", "Cancelled", 1)
	require.NoError(t, err)
	_, err = repo.Add(ctx, p)
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = u.SaveChanges(cancelled)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, u.Pending(), "cancellation keeps the staged changes")

	found, err := repo.FindWhere(ctx, store.Eq("code", "IT-500"))
	require.NoError(t, err)
	assert.Empty(t, found, "nothing became visible")

	// A retry with a live context commits the same staged batch.
	affected, err := u.SaveChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.Zero(t, u.Pending())
}

func TestUnitOfWork_DisposedFailsEverything(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	registry := testRegistry(t)
	ctx := context.Background()

	u := NewUnitOfWork(db, registry, uuid.New())
	repo, err := Repository(u, inventory.ProductMapper)
	require.NoError(t, err)
	require.NoError(t, u.Close())
	require.NoError(t, u.Close())

	_, err = repo.GetByID(ctx, uuid.New())
	assert.True(t, apperrors.IsInvalidState(err))

	_, err = u.SaveChanges(ctx)
	assert.True(t, apperrors.IsInvalidState(err))

	_, err = Repository(u, inventory.ProductMapper)
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestUnitOfWork_RemoveByIDMissingIsNoop(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	registry := testRegistry(t)
	tenant := uuid.New()
	cleanupTenant(t, db, tenant)
	ctx := context.Background()

	u := NewUnitOfWork(db, registry, tenant)
	defer u.Close()
	repo, err := Repository(u, inventory.ProductMapper)
	require.NoError(t, err)

	require.NoError(t, repo.RemoveByID(ctx, uuid.New()))
	assert.Zero(t, u.Pending())

	affected, err := u.SaveChanges(ctx)
	require.NoError(t, err)
	assert.Zero(t, affected)
}
