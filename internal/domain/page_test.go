package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageRequestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		in        PageRequest
		wantPage  int
		wantLimit int
	}{
		{"zero values", PageRequest{}, 1, 20},
		{"negative values", PageRequest{Page: -3, Limit: -1}, 1, 20},
		{"explicit values kept", PageRequest{Page: 4, Limit: 50}, 4, 50},
		{"page one limit one", PageRequest{Page: 1, Limit: 1}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			require.Equal(t, tt.wantPage, got.Page)
			require.Equal(t, tt.wantLimit, got.Limit)
		})
	}
}

func TestPageRequestOffset(t *testing.T) {
	require.Equal(t, 0, PageRequest{Page: 1, Limit: 20}.Offset())
	require.Equal(t, 20, PageRequest{Page: 2, Limit: 20}.Offset())
	require.Equal(t, 45, PageRequest{Page: 10, Limit: 5}.Offset())
}

func TestPageRequestKeyword(t *testing.T) {
	req := PageRequest{Key: "Alice"}
	require.True(t, req.HasKeyword())
	require.Equal(t, "%alice%", req.Keyword())

	require.False(t, PageRequest{}.HasKeyword())
}

func TestNewPageMeta(t *testing.T) {
	tests := []struct {
		name       string
		items      int
		totalItems int
		page       int
		limit      int
		wantPages  int
	}{
		{"empty collection", 0, 0, 1, 20, 0},
		{"exactly divisible", 20, 40, 1, 20, 2},
		{"remainder adds a page", 20, 41, 1, 20, 3},
		{"single partial page", 3, 3, 1, 20, 1},
		{"limit one", 1, 7, 2, 1, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]int, tt.items)
			page := NewPage(items, tt.totalItems, tt.page, tt.limit)
			require.Equal(t, tt.wantPages, page.Meta.TotalPages)
			require.Equal(t, tt.totalItems, page.Meta.TotalItems)
			require.Equal(t, tt.items, page.Meta.ItemCount)
			require.Equal(t, tt.limit, page.Meta.ItemsPerPage)
			require.Equal(t, tt.page, page.Meta.CurrentPage)
		})
	}
}

func TestNewPageNilItems(t *testing.T) {
	page := NewPage[int](nil, 0, 1, 20)
	require.NotNil(t, page.Items)
	require.Len(t, page.Items, 0)
	require.Equal(t, 0, page.Meta.TotalPages)
}
