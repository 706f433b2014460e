package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_IsValid(t *testing.T) {
	r := NewRegistry([]string{"billing", "payments"})

	assert.True(t, r.IsValid("billing"))
	assert.True(t, r.IsValid("payments"))
	assert.False(t, r.IsValid("orders"))
	assert.False(t, r.IsValid(""))
}

func TestRegistry_ListKeepsOrderAndDropsDuplicates(t *testing.T) {
	r := NewRegistry([]string{"b", "a", "b", "c"})

	assert.Equal(t, []string{"b", "a", "c"}, r.List())
}

func TestRegistry_Empty(t *testing.T) {
	r := NewRegistry(nil)

	assert.Empty(t, r.List())
	assert.False(t, r.IsValid("anything"))
}
