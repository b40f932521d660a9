package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/stocker/stocker/data/pkg/errors"
	"github.com/stocker/stocker/data/store"
)

// testColumns fakes a mapper for SQL-generation tests.
type testColumns map[string]bool

func (c testColumns) HasColumn(name string) bool { return c[name] }

var productColumns = testColumns{
	"id": true, "tenant_id": true, "code": true, "name": true, "unit_price": true,
}

func TestBuildWhere_Operators(t *testing.T) {
	tests := []struct {
		name       string
		condition  store.Condition
		wantClause string
		wantArgs   []any
	}{
		{"eq", store.Eq("code", "WID-1"), "code = $1", []any{"WID-1"}},
		{"neq", store.NotEq("code", "WID-1"), "code <> $1", []any{"WID-1"}},
		{"gt", store.Gt("unit_price", 5), "unit_price > $1", []any{5}},
		{"gte", store.Gte("unit_price", 5), "unit_price >= $1", []any{5}},
		{"lt", store.Lt("unit_price", 5), "unit_price < $1", []any{5}},
		{"lte", store.Lte("unit_price", 5), "unit_price <= $1", []any{5}},
		{"like", store.Like("name", "Wid%"), "name LIKE $1", []any{"Wid%"}},
		{"in", store.In("code", "A", "B"), "code IN ($1, $2)", []any{"A", "B"}},
		{"in empty", store.In("code"), "FALSE", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clauses, args, err := buildWhere(productColumns, []store.Condition{tt.condition}, nil)
			require.NoError(t, err)
			require.Len(t, clauses, 1)
			assert.Equal(t, tt.wantClause, clauses[0])
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuildWhere_PlaceholdersContinueFromSeededArgs(t *testing.T) {
	clauses, args, err := buildWhere(productColumns,
		[]store.Condition{store.Eq("code", "WID-1"), store.Gt("unit_price", 5)},
		[]any{"tenant-value"})
	require.NoError(t, err)
	assert.Equal(t, []string{"code = $2", "unit_price > $3"}, clauses)
	assert.Equal(t, []any{"tenant-value", "WID-1", 5}, args)
}

func TestBuildWhere_UnknownColumn(t *testing.T) {
	_, _, err := buildWhere(productColumns, []store.Condition{store.Eq("nope", 1)}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestBuildWhere_UnsupportedOperator(t *testing.T) {
	_, _, err := buildWhere(productColumns,
		[]store.Condition{{Column: "code", Op: "between", Value: 1}}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestApplySpecification_FullShape(t *testing.T) {
	spec := store.Query().
		Where(store.Eq("code", "WID-1"), store.Gte("unit_price", 5)).
		OrderBy("name").
		OrderByDescending("unit_price").
		Page(20, 10)

	sql, args, err := applySpecification(
		"SELECT id, code FROM products",
		[]string{"tenant_id = $1"},
		[]any{"tenant"},
		productColumns, spec, nil)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, code FROM products WHERE tenant_id = $1 AND code = $2 AND unit_price >= $3"+
			" ORDER BY name ASC, unit_price DESC OFFSET 20 LIMIT 10",
		sql)
	assert.Equal(t, []any{"tenant", "WID-1", 5}, args)
}

func TestApplySpecification_NilSpec(t *testing.T) {
	sql, args, err := applySpecification(
		"SELECT id FROM products", nil, nil, productColumns, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM products", sql)
	assert.Empty(t, args)
}

func TestApplySpecification_OverrideWinsOverSpecPaging(t *testing.T) {
	spec := store.Query().Page(0, 100)
	sql, _, err := applySpecification(
		"SELECT id FROM products", nil, nil, productColumns, spec, &pageBounds{skip: 5, take: 2})
	require.NoError(t, err)
	assert.Contains(t, sql, "OFFSET 5 LIMIT 2")
	assert.NotContains(t, sql, "LIMIT 100")
}

func TestApplySpecification_UnknownOrderingColumn(t *testing.T) {
	_, _, err := applySpecification(
		"SELECT id FROM products", nil, nil, productColumns,
		store.Query().OrderBy("nope"), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestApplySpecification_RejectsNegativeBounds(t *testing.T) {
	_, _, err := applySpecification(
		"SELECT id FROM products", nil, nil, productColumns,
		store.Query().Page(-1, 10), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidArgument(err))
}
