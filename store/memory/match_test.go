package memory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/stocker/stocker/data/pkg/errors"
	"github.com/stocker/stocker/data/store"
)

func TestMatches_NumericWidths(t *testing.T) {
	// Mixed integer widths compare by value.
	ok, err := matches(store.Eq("n", int32(5)), int64(5))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = matches(store.Gt("n", 3), int64(5))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = matches(store.Lte("n", float32(2.5)), float64(2.5))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatches_Time(t *testing.T) {
	utc := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	local := utc.In(time.FixedZone("X", 3*3600))

	ok, err := matches(store.Eq("at", utc), local)
	require.NoError(t, err)
	assert.True(t, ok, "equal instants in different zones must match")

	ok, err = matches(store.Lt("at", utc.Add(time.Hour)), utc)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatches_Like(t *testing.T) {
	tests := []struct {
		pattern string
		value   string
		want    bool
	}{
		{"Wid%", "Widget", true},
		{"%get", "Widget", true},
		{"W_dget", "Widget", true},
		{"Widget", "Widget", true},
		{"wid%", "Widget", false},
		{"%xyz%", "Widget", false},
		{"W.d%", "Widget", false},
	}
	for _, tt := range tests {
		ok, err := matches(store.Like("s", tt.pattern), tt.value)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "pattern %q against %q", tt.pattern, tt.value)
	}
}

func TestMatches_In(t *testing.T) {
	ok, err := matches(store.In("id", uuid.Nil, uuid.Max), uuid.Nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = matches(store.In("n", 1, 2, 3), int64(4))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = matches(store.Condition{Column: "n", Op: store.OpIn, Value: "not a list"}, 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestMatches_UnsupportedOperator(t *testing.T) {
	_, err := matches(store.Condition{Column: "n", Op: "between", Value: 1}, 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestCompareValues_Strings(t *testing.T) {
	assert.Negative(t, compareValues("alpha", "bravo"))
	assert.Zero(t, compareValues("alpha", "alpha"))
	assert.Positive(t, compareValues("bravo", "alpha"))
}
