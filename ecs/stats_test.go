package ecs_test

import (
	"testing"

	"github.com/plus3/quadforge/ecs"
	"github.com/stretchr/testify/assert"
)

func TestCollectStats(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	storage.Spawn(Position{})
	storage.Spawn(Position{})
	storage.Spawn(Position{}, Velocity{})
	gone := storage.Spawn(Health{})
	_ = storage.Destroy(gone)

	storage.AddSingleton(GameClock{})

	stats := storage.CollectStats()
	assert.Equal(t, 2, stats.ArchetypeCount)
	assert.Equal(t, 3, stats.TotalEntityCount)
	assert.Equal(t, 1, stats.SingletonCount)
	assert.Equal(t, []string{"ecs_test.GameClock"}, stats.SingletonTypes)

	counts := map[int]int{}
	for _, archetype := range stats.ArchetypeBreakdown {
		counts[len(archetype.ComponentTypes)] = archetype.EntityCount
	}
	assert.Equal(t, map[int]int{1: 2, 2: 1}, counts)
}
