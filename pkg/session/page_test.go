package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbered(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("c%02d", i)
	}
	return out
}

func TestPaginateEmpty(t *testing.T) {
	assert.Empty(t, Paginate(nil, 10))
	assert.Empty(t, Paginate([]string{}, 10))
}

func TestPaginateSizes(t *testing.T) {
	tests := []struct {
		name  string
		count int
		size  int
		want  []int
	}{
		{"one short page", 3, 10, []int{3}},
		{"exact page", 10, 10, []int{10}},
		{"remainder", 23, 10, []int{10, 10, 3}},
		{"default size", 12, 0, []int{10, 2}},
		{"single candidate pages", 3, 1, []int{1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := Paginate(numbered(tt.count), tt.size)
			require.Len(t, pages, len(tt.want))
			for i, p := range pages {
				assert.Len(t, p, tt.want[i], "page %d", i)
			}
		})
	}
}

func TestPaginatePreservesOrder(t *testing.T) {
	candidates := numbered(23)
	var joined []string
	for _, p := range Paginate(candidates, 10) {
		joined = append(joined, p...)
	}
	assert.Equal(t, candidates, joined)
}

func TestPaginatePagesDoNotOverlap(t *testing.T) {
	candidates := numbered(4)
	pages := Paginate(candidates, 2)
	require.Len(t, pages, 2)

	// Appending to a page must not clobber the next one.
	_ = append(pages[0], "x")
	assert.Equal(t, Page{"c02", "c03"}, pages[1])
}
