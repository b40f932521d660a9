package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/stocker/stocker/data/domain/inventory"
	"github.com/stocker/stocker/data/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	registry, err := inventory.NewRegistry()
	require.NoError(t, err)
	return NewStore(registry)
}

func productRepo(t *testing.T, u *UnitOfWork) store.Repository[inventory.Product, uuid.UUID] {
	t.Helper()
	repo, err := Repository(u, inventory.ProductMapper)
	require.NoError(t, err)
	return repo
}

func stockRepo(t *testing.T, u *UnitOfWork) store.Repository[inventory.StockItem, uuid.UUID] {
	t.Helper()
	repo, err := Repository(u, inventory.StockItemMapper)
	require.NoError(t, err)
	return repo
}

func newProduct(t *testing.T, code, name string, price float64) *inventory.Product {
	t.Helper()
	p, err := inventory.NewProduct(code, name, price)
	require.NoError(t, err)
	return p
}

// seedProducts commits n products CODE-000..CODE-n with ascending prices
// for one tenant and returns them.
func seedProducts(t *testing.T, s *Store, tenant uuid.UUID, n int) []*inventory.Product {
	t.Helper()
	ctx := context.Background()

	u := s.NewUnitOfWork(tenant)
	defer u.Close()
	repo := productRepo(t, u)

	products := make([]*inventory.Product, 0, n)
	for i := 0; i < n; i++ {
		p := newProduct(t, fmt.Sprintf("CODE-%03d", i), fmt.Sprintf("Product %d", i), float64(i))
		_, err := repo.Add(ctx, p)
		require.NoError(t, err)
		products = append(products, p)
	}
	affected, err := u.SaveChanges(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(n), affected)
	return products
}
