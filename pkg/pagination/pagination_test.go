package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClamps(t *testing.T) {
	assert.Equal(t, Params{Page: 1, Limit: 20}, New(0, 0))
	assert.Equal(t, Params{Page: 3, Limit: 100}, New(3, 500))
	assert.Equal(t, Params{Page: 1, Limit: 20}, Parse("x", "-4"))
	assert.Equal(t, Params{Page: 2, Limit: 5}, Parse("2", "5"))
}

func TestNewPageMeta(t *testing.T) {
	p := New(2, 10)
	assert.Equal(t, 10, p.Offset())

	page := NewPage([]int{11, 12}, p, 25)
	assert.Equal(t, 3, page.Meta.TotalPages)
	assert.True(t, page.Meta.HasNextPage)
	assert.True(t, page.Meta.HasPreviousPage)

	last := NewPage([]int{21}, New(3, 10), 21)
	assert.False(t, last.Meta.HasNextPage)

	empty := NewPage[int](nil, New(1, 10), 0)
	assert.NotNil(t, empty.Data)
	assert.Equal(t, 0, empty.Meta.TotalPages)
	assert.False(t, empty.Meta.HasNextPage)
	assert.False(t, empty.Meta.HasPreviousPage)
}

func TestMapKeepsMeta(t *testing.T) {
	in := NewPage([]int{1, 2}, New(1, 2), 4)
	out := Map(in, func(v int) string { return string(rune('a' + v)) })
	assert.Equal(t, []string{"b", "c"}, out.Data)
	assert.Equal(t, in.Meta, out.Meta)
}
