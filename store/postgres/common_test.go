package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/stocker/stocker/data/config"
	"github.com/stocker/stocker/data/domain/inventory"
	"github.com/stocker/stocker/data/pkg/database"
	"github.com/stocker/stocker/data/store"
)

// testSchema creates the inventory tables the integration tests use.
const testSchema = `
CREATE TABLE IF NOT EXISTS products (
	id          uuid PRIMARY KEY,
	tenant_id   uuid NOT NULL,
	code        text NOT NULL,
	name        text NOT NULL,
	description text NOT NULL DEFAULT '',
	unit_price  double precision NOT NULL DEFAULT 0,
	active      boolean NOT NULL DEFAULT true,
	version     bigint NOT NULL DEFAULT 1,
	created_at  timestamptz NOT NULL,
	updated_at  timestamptz NOT NULL,
	UNIQUE (tenant_id, code)
);
CREATE TABLE IF NOT EXISTS warehouses (
	id         uuid PRIMARY KEY,
	tenant_id  uuid NOT NULL,
	code       text NOT NULL,
	name       text NOT NULL,
	city       text NOT NULL DEFAULT '',
	created_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL,
	UNIQUE (tenant_id, code)
);
CREATE TABLE IF NOT EXISTS stock_items (
	id           uuid PRIMARY KEY,
	tenant_id    uuid NOT NULL,
	product_id   uuid NOT NULL,
	warehouse_id uuid NOT NULL,
	quantity     bigint NOT NULL DEFAULT 0,
	reorder_at   bigint NOT NULL DEFAULT 0,
	version      bigint NOT NULL DEFAULT 1,
	created_at   timestamptz NOT NULL,
	updated_at   timestamptz NOT NULL
);`

// getTestDB returns a database connection for integration tests, or skips
// the test when POSTGRES_TEST_HOST is not set.
func getTestDB(t *testing.T) *database.PostgresDB {
	t.Helper()
	if os.Getenv("POSTGRES_TEST_HOST") == "" {
		t.Skip("Skipping integration test: POSTGRES_TEST_HOST not set")
		return nil
	}

	cfg := config.PostgresConfig{
		Host:     os.Getenv("POSTGRES_TEST_HOST"),
		Port:     5432,
		User:     os.Getenv("POSTGRES_TEST_USER"),
		Password: os.Getenv("POSTGRES_TEST_PASS"),
		Database: os.Getenv("POSTGRES_TEST_DB"),
		SSLMode:  "disable",
		MaxConns: 5,
		MinConns: 1,
	}
	if cfg.User == "" {
		cfg.User = "postgres"
	}
	if cfg.Database == "" {
		cfg.Database = "test_stocker"
	}
	storeCfg := config.StoreConfig{SlowQueryThreshold: 200 * time.Millisecond}

	db, err := database.NewPostgres(context.Background(), cfg, storeCfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to PostgreSQL: %v", err)
		return nil
	}

	_, err = db.Pool.Exec(context.Background(), testSchema)
	require.NoError(t, err)
	return db
}

func testRegistry(t *testing.T) *store.Registry {
	t.Helper()
	registry, err := inventory.NewRegistry()
	require.NoError(t, err)
	return registry
}

// cleanupTenant removes all rows of one tenant across the test tables.
func cleanupTenant(t *testing.T, db *database.PostgresDB, tenant uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	for _, table := range []string{"stock_items", "products", "warehouses"} {
		_, _ = db.Pool.Exec(ctx, "DELETE FROM "+table+" WHERE tenant_id = $1", tenant)
	}
}
