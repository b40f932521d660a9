package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPagedResult_TotalPages(t *testing.T) {
	tests := []struct {
		name       string
		totalCount int64
		pageSize   int
		want       int
	}{
		{"exact fit", 20, 10, 2},
		{"partial last page", 25, 10, 3},
		{"empty", 0, 10, 0},
		{"single short page", 3, 10, 1},
		{"zero page size", 25, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagedResult[int](nil, tt.totalCount, 0, tt.pageSize)
			assert.Equal(t, tt.want, p.TotalPages())
		})
	}
}

func TestPagedResult_Navigation(t *testing.T) {
	first := NewPagedResult([]int{1, 2}, 25, 0, 10)
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrevious())

	middle := NewPagedResult([]int{1, 2}, 25, 1, 10)
	assert.True(t, middle.HasNext())
	assert.True(t, middle.HasPrevious())

	last := NewPagedResult([]int{1, 2}, 25, 2, 10)
	assert.False(t, last.HasNext())
	assert.True(t, last.HasPrevious())
}
