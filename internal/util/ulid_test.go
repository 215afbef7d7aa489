package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewULID(t *testing.T) {
	a := NewULID()
	b := NewULID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
	assert.True(t, IsULID(a))
	assert.Less(t, a, b)
}

func TestIsULID(t *testing.T) {
	assert.False(t, IsULID(""))
	assert.False(t, IsULID("not-a-ulid"))
	assert.True(t, IsULID("01ARZ3NDEKTSV4RRFFQ69G5FAV"))
}
