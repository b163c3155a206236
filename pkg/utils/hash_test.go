package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHashNormalizesWhitespace(t *testing.T) {
	a := ContentHash("Build a todo app")
	b := ContentHash("  Build   a\ttodo\napp ")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, ContentHash("Build a todo app!"))
}
