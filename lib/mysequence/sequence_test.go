package mysequence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/centralshop/storebackend/lib/mystore"
)

func TestAllocator(t *testing.T) {
	c := context.TODO()
	store, cleanup, err := mystore.NewInMemoryStore[Sequence](c)
	assert.NoError(t, err)
	defer cleanup()

	allocator := New(store)

	t.Run("Values strictly increase", func(t *testing.T) {
		previous := int64(0)
		for i := 0; i < 5; i++ {
			value, err := allocator.Next(c, "carrito")
			assert.NoError(t, err)
			assert.Greater(t, value, previous)
			previous = value
		}
	})

	t.Run("Sequences are independent", func(t *testing.T) {
		value, err := allocator.Next(c, "transaccion")
		assert.NoError(t, err)
		assert.Equal(t, int64(1), value)
	})
}
