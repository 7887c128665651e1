package tenantkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestListOptionsNormalize tests pagination normalization
func TestListOptionsNormalize(t *testing.T) {
	tests := []struct {
		name      string
		opts      ListOptions
		wantPage  int
		wantLimit int
	}{
		{"Defaults", ListOptions{}, 1, 50},
		{"Explicit", ListOptions{Page: 3, Limit: 20}, 3, 20},
		{"Zero page", ListOptions{Page: 0, Limit: 10}, 1, 10},
		{"Negative page", ListOptions{Page: -5, Limit: 10}, 1, 10},
		{"Limit above max", ListOptions{Page: 1, Limit: 500}, 1, 100},
		{"Limit at max", ListOptions{Page: 1, Limit: 100}, 1, 100},
		{"Negative limit", ListOptions{Page: 1, Limit: -1}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit := tt.opts.normalize()
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

// TestListOptionsBuilders tests the fluent option builders
func TestListOptionsBuilders(t *testing.T) {
	opts := NewListOptions().
		WithFilter("industry", "Tech").
		WithFilter("country", "ES").
		WithSearch("acme").
		WithPage(2).
		WithLimit(25)

	assert.Equal(t, "Tech", opts.Filters["industry"])
	assert.Equal(t, "ES", opts.Filters["country"])
	assert.Equal(t, "acme", opts.Search)
	assert.Equal(t, 2, opts.Page)
	assert.Equal(t, 25, opts.Limit)

	// Value receivers: the original is not mutated
	base := NewListOptions()
	_ = base.WithFilter("stage", "won")
	assert.Empty(t, base.Filters)
}

// TestNewPage tests page metadata derivation
func TestNewPage(t *testing.T) {
	t.Run("Middle page", func(t *testing.T) {
		page := newPage([]int{1, 2, 3}, 10, 2, 3)
		assert.Equal(t, 10, page.Total)
		assert.Equal(t, 2, page.Page)
		assert.Equal(t, 3, page.Limit)
		assert.Equal(t, 4, page.TotalPages) // ceil(10/3)
		assert.True(t, page.HasNext)
		assert.True(t, page.HasPrev)
	})

	t.Run("First page", func(t *testing.T) {
		page := newPage([]int{1, 2, 3}, 10, 1, 3)
		assert.True(t, page.HasNext)
		assert.False(t, page.HasPrev)
	})

	t.Run("Last page", func(t *testing.T) {
		page := newPage([]int{1}, 10, 4, 3)
		assert.False(t, page.HasNext)
		assert.True(t, page.HasPrev)
	})

	t.Run("Exact division", func(t *testing.T) {
		page := newPage([]int{1, 2}, 10, 5, 2)
		assert.Equal(t, 5, page.TotalPages)
		assert.False(t, page.HasNext)
	})

	t.Run("Past the end", func(t *testing.T) {
		page := newPage[int](nil, 10, 9, 3)
		assert.NotNil(t, page.Items)
		assert.Empty(t, page.Items)
		assert.Equal(t, 10, page.Total)
		assert.Equal(t, 4, page.TotalPages)
		assert.False(t, page.HasNext)
		assert.True(t, page.HasPrev)
	})

	t.Run("Empty result set", func(t *testing.T) {
		page := newPage[int](nil, 0, 1, 50)
		assert.Empty(t, page.Items)
		assert.Equal(t, 0, page.Total)
		assert.Equal(t, 0, page.TotalPages)
		assert.False(t, page.HasNext)
		assert.False(t, page.HasPrev)
	})
}
