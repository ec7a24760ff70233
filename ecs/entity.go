package ecs

import (
	"fmt"
	"math"
)

// EntityId encodes the entity generation (upper 32 bits) and the entity index (lower 32 bits).
// The zero EntityId never names a live entity.
type EntityId uint64

// NewEntityId creates an EntityId from an entity index and generation
func NewEntityId(index uint32, generation uint32) EntityId {
	return EntityId(uint64(generation)<<32 | uint64(index))
}

// Index extracts the entity index from the entity ID
func (e EntityId) Index() uint32 {
	return uint32(e & 0xFFFFFFFF)
}

// Generation extracts the generation from the entity ID
func (e EntityId) Generation() uint32 {
	return uint32(e >> 32)
}

// IsZero reports whether the id is the zero (never valid) handle
func (e EntityId) IsZero() bool {
	return e == 0
}

func (e EntityId) String() string {
	return fmt.Sprintf("%d:%d", e.Index(), e.Generation())
}

// EntityRegistry owns entity identity: it hands out generational handles and
// recycles freed indices with a bumped generation so stale handles never
// resolve to a newer entity.
type EntityRegistry struct {
	generations []uint32
	alive       []bool
	free        []uint32
	freeHead    int
	live        int
}

// NewEntityRegistry creates an empty entity registry
func NewEntityRegistry() *EntityRegistry {
	return &EntityRegistry{
		generations: make([]uint32, 0, 1024),
		alive:       make([]bool, 0, 1024),
		free:        make([]uint32, 0, 256),
	}
}

// Create returns a fresh live entity handle
func (r *EntityRegistry) Create() EntityId {
	r.live++

	// Freed indices are reused oldest first, so a just-destroyed handle stays
	// unresolvable for as long as possible.
	if r.freeHead < len(r.free) {
		idx := r.free[r.freeHead]
		r.freeHead++
		if r.freeHead == len(r.free) {
			r.free = r.free[:0]
			r.freeHead = 0
		}
		r.alive[idx] = true
		return NewEntityId(idx, r.generations[idx])
	}

	idx := uint32(len(r.generations))
	r.generations = append(r.generations, 1)
	r.alive = append(r.alive, true)
	return NewEntityId(idx, 1)
}

// Destroy frees the entity's index and bumps its generation.
// Returns ErrInvalidEntity if the handle is stale or unknown.
func (r *EntityRegistry) Destroy(id EntityId) error {
	if !r.IsAlive(id) {
		return fmt.Errorf("%w: %s", ErrInvalidEntity, id)
	}

	idx := id.Index()
	r.alive[idx] = false
	r.live--

	if r.generations[idx] == math.MaxUint32 {
		// generation space exhausted: retire the index for good
		return nil
	}
	r.generations[idx]++
	r.free = append(r.free, idx)
	return nil
}

// IsAlive reports whether the handle names a live entity
func (r *EntityRegistry) IsAlive(id EntityId) bool {
	idx := id.Index()
	if int(idx) >= len(r.generations) {
		return false
	}
	return r.alive[idx] && r.generations[idx] == id.Generation()
}

// Len returns the number of live entities
func (r *EntityRegistry) Len() int {
	return r.live
}

// Capacity returns the number of indices ever allocated
func (r *EntityRegistry) Capacity() int {
	return len(r.generations)
}
