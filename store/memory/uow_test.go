package memory

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

func TestUnitOfWork_TenantID(t *testing.T) {
	s := newTestStore(t)
	tenant := uuid.New()
	u := s.NewUnitOfWork(tenant)
	defer u.Close()
	assert.Equal(t, tenant, u.TenantID())
}

func TestUnitOfWork_RepositoryIsCachedPerType(t *testing.T) {
	s := newTestStore(t)
	u := s.NewUnitOfWork(uuid.New())
	defer u.Close()

	first, err := Repository(u, inventory.ProductMapper)
	require.NoError(t, err)
	second, err := Repository(u, inventory.ProductMapper)
	require.NoError(t, err)
	assert.Same(t, first, second)

	read, err := ReadRepository(u, inventory.ProductMapper)
	require.NoError(t, err)
	assert.Same(t, first, read)
}

func TestUnitOfWork_SaveChangesEmptyIsNoop(t *testing.T) {
	s := newTestStore(t)
	u := s.NewUnitOfWork(uuid.New())
	defer u.Close()

	affected, err := u.SaveChanges(context.Background())
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestUnitOfWork_CommitIsAtomic(t *testing.T) {
	s := newTestStore(t)
	tenant := uuid.New()
	seedProducts(t, s, tenant, 1)
	ctx := context.Background()

	u := s.NewUnitOfWork(tenant)
	defer u.Close()
	repo := productRepo(t, u)

	good := newProduct(t, "NEW-1", "New", 1)
	dup := newProduct(t, "CODE-000", "Duplicate code", 1)
	_, err := repo.Add(ctx, good)
	require.NoError(t, err)
	_, err = repo.Add(ctx, dup)
	require.NoError(t, err)

	_, err = u.SaveChanges(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsConstraintViolation(err))

	// Nothing from the failed batch is visible, including the valid change.
	fetched, err := repo.FindWhere(ctx, store.Eq("code", "NEW-1"))
	require.NoError(t, err)
	assert.Empty(t, fetched)
}

func TestUnitOfWork_FailedCommitKeepsStagedChanges(t *testing.T) {
	s := newTestStore(t)
	tenant := uuid.New()
	seedProducts(t, s, tenant, 1)
	ctx := context.Background()

	u := s.NewUnitOfWork(tenant)
	defer u.Close()
	repo := productRepo(t, u)

	dup := newProduct(t, "CODE-000", "Duplicate", 1)
	_, err := repo.Add(ctx, dup)
	require.NoError(t, err)

	_, err = u.SaveChanges(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, u.Pending(), "failed commit keeps the staged changes")

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "store is untouched by the failed commit")
}

func TestUnitOfWork_UniqueConstraintScopedToTenant(t *testing.T) {
	s := newTestStore(t)
	seedProducts(t, s, uuid.New(), 1)
	ctx := context.Background()

	// The same code under another tenant is fine.
	u := s.NewUnitOfWork(uuid.New())
	defer u.Close()
	repo := productRepo(t, u)
	_, err := repo.Add(ctx, newProduct(t, "CODE-000", "Other tenant", 1))
	require.NoError(t, err)
	_, err = u.SaveChanges(ctx)
	require.NoError(t, err)
}

func TestUnitOfWork_ConcurrentUpdateConflicts(t *testing.T) {
	s := newTestStore(t)
	tenant := uuid.New()
	products := seedProducts(t, s, tenant, 1)
	ctx := context.Background()

	u1 := s.NewUnitOfWork(tenant)
	defer u1.Close()
	u2 := s.NewUnitOfWork(tenant)
	defer u2.Close()

	p1, err := productRepo(t, u1).GetByID(ctx, products[0].ID)
	require.NoError(t, err)
	p2, err := productRepo(t, u2).GetByID(ctx, products[0].ID)
	require.NoError(t, err)

	require.NoError(t, p1.Rename("First writer"))
	require.NoError(t, productRepo(t, u1).Update(ctx, p1))
	_, err = u1.SaveChanges(ctx)
	require.NoError(t, err)

	require.NoError(t, p2.Rename("Second writer"))
	require.NoError(t, productRepo(t, u2).Update(ctx, p2))
	_, err = u2.SaveChanges(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsConcurrencyConflict(err))

	// The first write stands.
	final, err := productRepo(t, u1).GetByID(ctx, products[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "First writer", final.Name)
}

func TestUnitOfWork_UnversionedUpdateLastWriteWins(t *testing.T) {
	s := newTestStore(t)
	tenant := uuid.New()
	ctx := context.Background()

	u := s.NewUnitOfWork(tenant)
	defer u.Close()
	warehouses, err := Repository(u, inventory.WarehouseMapper)
	require.NoError(t, err)

	w, err := inventory.NewWarehouse("WH-1", "Main")
	require.NoError(t, err)
	_, err = warehouses.Add(ctx, w)
	require.NoError(t, err)
	_, err = u.SaveChanges(ctx)
	require.NoError(t, err)

	w.Relocate("Istanbul")
	require.NoError(t, warehouses.Update(ctx, w))
	affected, err := u.SaveChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	// Updating a row that no longer exists affects nothing and is no error.
	require.NoError(t, warehouses.Remove(ctx, w))
	_, err = u.SaveChanges(ctx)
	require.NoError(t, err)

	require.NoError(t, warehouses.Update(ctx, w))
	affected, err = u.SaveChanges(ctx)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestUnitOfWork_CancelledSaveChangesLeavesStagedUntouched(t *testing.T) {
	s := newTestStore(t)
	tenant := uuid.New()
	ctx := context.Background()

	u := s.NewUnitOfWork(tenant)
	defer u.Close()
	repo := productRepo(t, u)

	p := newProduct(t, "WID-1", "Widget", 1)
	_, err := repo.Add(ctx, p)
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = u.SaveChanges(cancelled)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, u.Pending(), "cancellation keeps the staged changes")

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "nothing became visible")

	// A retry with a live context commits the same staged batch.
	affected, err := u.SaveChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	fetched, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
}

func TestUnitOfWork_CloseDiscardsStagedChanges(t *testing.T) {
	s := newTestStore(t)
	tenant := uuid.New()
	ctx := context.Background()

	u := s.NewUnitOfWork(tenant)
	repo := productRepo(t, u)
	_, err := repo.Add(ctx, newProduct(t, "WID-1", "Widget", 1))
	require.NoError(t, err)

	require.NoError(t, u.Close())
	require.NoError(t, u.Close(), "close is idempotent")

	// Nothing was committed.
	u2 := s.NewUnitOfWork(tenant)
	defer u2.Close()
	n, err := productRepo(t, u2).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUnitOfWork_DisposedFailsEverything(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := s.NewUnitOfWork(uuid.New())
	repo := productRepo(t, u)
	require.NoError(t, u.Close())

	_, err := repo.GetByID(ctx, uuid.New())
	assert.True(t, apperrors.IsInvalidState(err))

	_, err = repo.Add(ctx, newProduct(t, "WID-1", "Widget", 1))
	assert.True(t, apperrors.IsInvalidState(err))

	_, err = u.SaveChanges(ctx)
	assert.True(t, apperrors.IsInvalidState(err))

	_, err = Repository(u, inventory.ProductMapper)
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestUnitOfWork_ChangesApplyInOrder(t *testing.T) {
	s := newTestStore(t)
	tenant := uuid.New()
	ctx := context.Background()

	u := s.NewUnitOfWork(tenant)
	defer u.Close()
	repo := productRepo(t, u)

	p := newProduct(t, "WID-1", "Widget", 1)
	_, err := repo.Add(ctx, p)
	require.NoError(t, err)
	require.NoError(t, repo.Remove(ctx, p))

	affected, err := u.SaveChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	fetched, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched, "add then remove in one batch leaves nothing")
}
