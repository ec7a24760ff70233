package ecs_test

import (
	"fmt"
	"testing"

	"github.com/plus3/quadforge/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityIdEncoding(t *testing.T) {
	tests := []struct {
		index      uint32
		generation uint32
	}{
		{0, 1},
		{0xFFFFFFFF, 0xFFFFFFFF},
		{1, 0},
		{0x12345678, 0x9ABCDEF0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("index=%d,gen=%d", tt.index, tt.generation), func(t *testing.T) {
			id := ecs.NewEntityId(tt.index, tt.generation)
			assert.Equal(t, tt.index, id.Index())
			assert.Equal(t, tt.generation, id.Generation())
		})
	}
}

func TestEntityRegistryCreate(t *testing.T) {
	registry := ecs.NewEntityRegistry()

	a := registry.Create()
	b := registry.Create()

	assert.False(t, a.IsZero())
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a.Index(), b.Index())
	assert.True(t, registry.IsAlive(a))
	assert.True(t, registry.IsAlive(b))
	assert.Equal(t, 2, registry.Len())
}

func TestEntityRegistryReuseBumpsGeneration(t *testing.T) {
	registry := ecs.NewEntityRegistry()

	old := registry.Create()
	require.NoError(t, registry.Destroy(old))
	assert.False(t, registry.IsAlive(old))

	reused := registry.Create()
	assert.Equal(t, old.Index(), reused.Index())
	assert.NotEqual(t, old, reused)
	assert.Equal(t, old.Generation()+1, reused.Generation())

	// the stale handle must not resolve to the new entity
	assert.False(t, registry.IsAlive(old))
	assert.ErrorIs(t, registry.Destroy(old), ecs.ErrInvalidEntity)
	assert.True(t, registry.IsAlive(reused))
}

func TestEntityRegistryDoubleDestroy(t *testing.T) {
	registry := ecs.NewEntityRegistry()

	id := registry.Create()
	require.NoError(t, registry.Destroy(id))
	assert.ErrorIs(t, registry.Destroy(id), ecs.ErrInvalidEntity)
	assert.Equal(t, 0, registry.Len())
}

func TestEntityRegistryUnknownHandle(t *testing.T) {
	registry := ecs.NewEntityRegistry()

	assert.False(t, registry.IsAlive(0))
	assert.False(t, registry.IsAlive(ecs.NewEntityId(42, 1)))
	assert.ErrorIs(t, registry.Destroy(ecs.NewEntityId(42, 1)), ecs.ErrInvalidEntity)
}

func TestEntityRegistryReusesOldestFreeIndex(t *testing.T) {
	registry := ecs.NewEntityRegistry()

	ids := []ecs.EntityId{registry.Create(), registry.Create(), registry.Create()}
	require.NoError(t, registry.Destroy(ids[2]))
	require.NoError(t, registry.Destroy(ids[0]))

	assert.Equal(t, ids[2].Index(), registry.Create().Index())
	assert.Equal(t, ids[0].Index(), registry.Create().Index())
	assert.Equal(t, uint32(3), registry.Create().Index())
	assert.Equal(t, 4, registry.Capacity())
}
