package ecs

import (
	"fmt"
	"iter"
	"reflect"
	"slices"

	"github.com/kamstrup/intmap"
	"go.uber.org/zap"
)

type entityLocation struct {
	archetype *Archetype
	row       int
}

// Storage is the main ECS storage: it owns the entity registry and every
// archetype's component columns, and maps each live entity to its row.
type Storage struct {
	registry   *ComponentRegistry
	entities   *EntityRegistry
	locations  []entityLocation
	archetypes []*Archetype
	byHash     *intmap.Map[uint32, *Archetype]
	empty      *Archetype
	singletons map[reflect.Type]*singletonEntry
	// bumped on RemoveSingleton to invalidate cached accessors
	singletonEpoch uint64
	// entities whose removal hooks are running
	destroying map[EntityId]struct{}

	log   *zap.Logger
	debug bool
}

// StorageOption configures a Storage.
type StorageOption func(*Storage)

// WithLogger sets the logger used to report structural errors.
func WithLogger(log *zap.Logger) StorageOption {
	return func(s *Storage) {
		if log != nil {
			s.log = log
		}
	}
}

// WithDebug makes structural errors (duplicate/missing components, stale
// handles) panic instead of being logged and returned.
func WithDebug(debug bool) StorageOption {
	return func(s *Storage) {
		s.debug = debug
	}
}

// NewStorage creates a new ECS storage system with the given component registry
func NewStorage(registry *ComponentRegistry, opts ...StorageOption) *Storage {
	s := &Storage{
		registry:   registry,
		entities:   NewEntityRegistry(),
		byHash:     intmap.New[uint32, *Archetype](64),
		singletons: make(map[reflect.Type]*singletonEntry),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.empty = s.archetypeFor(nil)
	return s
}

// Registry returns the component registry backing this storage
func (s *Storage) Registry() *ComponentRegistry {
	return s.registry
}

// Logger returns the storage's logger
func (s *Storage) Logger() *zap.Logger {
	return s.log
}

func (s *Storage) fail(err error) error {
	if s.debug {
		panic(err)
	}
	s.log.Warn("ecs structural error", zap.Error(err))
	return err
}

// Create creates a new entity without components
func (s *Storage) Create() EntityId {
	id := s.entities.Create()
	s.place(id, s.empty)
	return id
}

// Spawn creates a new entity with the provided components.
// Panics if a component type is unregistered or given twice.
func (s *Storage) Spawn(components ...any) EntityId {
	infos := make([]*componentInfo, 0, len(components))
	values := make(map[ComponentId]any, len(components))
	for _, comp := range components {
		info := s.registry.lookup(componentType(comp))
		if info == nil {
			panic("component type " + componentType(comp).String() + " not registered")
		}
		if _, dup := values[info.id]; dup {
			panic("component type " + info.typ.String() + " given twice")
		}
		values[info.id] = comp
		infos = append(infos, info)
	}
	sortInfos(infos)

	archetype := s.archetypeFor(infos)
	id := s.entities.Create()
	s.place(id, archetype)
	for idx, cid := range archetype.ids {
		archetype.storages[idx].Append(values[cid])
	}
	return id
}

// place appends id to archetype's entity list and records its location.
// Component columns must be appended by the caller.
func (s *Storage) place(id EntityId, archetype *Archetype) int {
	row := len(archetype.entities)
	archetype.entities = append(archetype.entities, id)

	idx := int(id.Index())
	for idx >= len(s.locations) {
		s.locations = append(s.locations, entityLocation{})
	}
	s.locations[idx] = entityLocation{archetype: archetype, row: row}
	return row
}

// detach removes the entity's row from its archetype, patching the location
// of whichever entity is moved into the freed row.
func (s *Storage) detach(loc entityLocation) {
	if moved, ok := loc.archetype.swapRemove(loc.row); ok {
		s.locations[moved.Index()].row = loc.row
	}
}

// IsAlive reports whether id names a live entity
func (s *Storage) IsAlive(id EntityId) bool {
	return s.entities.IsAlive(id)
}

// Len returns the number of live entities
func (s *Storage) Len() int {
	return s.entities.Len()
}

// Destroy removes the entity and all of its components.
// Removal hooks run before any data is dropped.
func (s *Storage) Destroy(id EntityId) error {
	if !s.entities.IsAlive(id) {
		return s.fail(fmt.Errorf("%w: destroy %s", ErrInvalidEntity, id))
	}

	// a hook destroying the same entity again leaves the outer call to finish
	if _, ok := s.destroying[id]; ok {
		return nil
	}
	if s.destroying == nil {
		s.destroying = make(map[EntityId]struct{})
	}
	s.destroying[id] = struct{}{}
	defer delete(s.destroying, id)

	// a hook may reshape the entity, so its location is looked up again
	// before each one
	for _, cid := range slices.Clone(s.locations[id.Index()].archetype.ids) {
		info := s.registry.byId[cid]
		if info.onRemove == nil {
			continue
		}
		if !s.entities.IsAlive(id) {
			return nil
		}
		loc := s.locations[id.Index()]
		if col := slices.Index(loc.archetype.ids, cid); col >= 0 {
			info.onRemove(s, id, loc.archetype.storages[col].Get(loc.row))
		}
	}

	if !s.entities.IsAlive(id) {
		return nil
	}
	loc := s.locations[id.Index()]
	s.detach(loc)
	s.locations[id.Index()] = entityLocation{}
	return s.entities.Destroy(id)
}

// Delete removes all data related to the entity ID, ignoring stale handles
func (s *Storage) Delete(id EntityId) {
	if s.entities.IsAlive(id) {
		_ = s.Destroy(id)
	}
}

// AddComponent attaches component to the entity, moving it to the archetype
// that contains its old component set plus the new type.
func (s *Storage) AddComponent(id EntityId, component any) error {
	if !s.entities.IsAlive(id) {
		return s.fail(fmt.Errorf("%w: add component to %s", ErrInvalidEntity, id))
	}
	compType := componentType(component)
	info := s.registry.lookup(compType)
	if info == nil {
		return s.fail(fmt.Errorf("%w: %s", ErrUnregisteredComponent, compType))
	}

	loc := s.locations[id.Index()]
	if loc.archetype.hasId(info.id) {
		return s.fail(fmt.Errorf("%w: %s already has %s", ErrDuplicateComponent, id, compType))
	}

	target := s.addEdge(loc.archetype, info)
	s.place(id, target)
	for idx, cid := range target.ids {
		if cid == info.id {
			target.storages[idx].Append(component)
			continue
		}
		src := loc.archetype.storages[loc.archetype.columnIndex(target.types[idx])]
		target.storages[idx].AppendFrom(src, loc.row)
	}
	s.detach(loc)
	return nil
}

// RemoveComponent detaches the component of compType from the entity, moving
// it to the archetype without that type. An entity whose last component is
// removed stays alive in the empty archetype.
func (s *Storage) RemoveComponent(id EntityId, compType reflect.Type) error {
	if !s.entities.IsAlive(id) {
		return s.fail(fmt.Errorf("%w: remove component from %s", ErrInvalidEntity, id))
	}
	info := s.registry.lookup(compType)
	if info == nil {
		return s.fail(fmt.Errorf("%w: %s", ErrUnregisteredComponent, compType))
	}

	loc := s.locations[id.Index()]
	if !loc.archetype.hasId(info.id) {
		return s.fail(fmt.Errorf("%w: %s has no %s", ErrMissingComponent, id, compType))
	}

	if info.onRemove != nil {
		info.onRemove(s, id, loc.archetype.GetComponent(loc.row, compType))
		if !s.entities.IsAlive(id) {
			return nil
		}
		loc = s.locations[id.Index()]
		if !loc.archetype.hasId(info.id) {
			return nil
		}
	}

	target := s.removeEdge(loc.archetype, info)
	s.place(id, target)
	for idx, typ := range target.types {
		src := loc.archetype.storages[loc.archetype.columnIndex(typ)]
		target.storages[idx].AppendFrom(src, loc.row)
	}
	s.detach(loc)
	return nil
}

// SetComponent overwrites an existing component value in place
func (s *Storage) SetComponent(id EntityId, component any) error {
	if !s.entities.IsAlive(id) {
		return s.fail(fmt.Errorf("%w: set component on %s", ErrInvalidEntity, id))
	}
	compType := componentType(component)
	loc := s.locations[id.Index()]
	idx := loc.archetype.columnIndex(compType)
	if idx == -1 {
		return s.fail(fmt.Errorf("%w: %s has no %s", ErrMissingComponent, id, compType))
	}
	loc.archetype.storages[idx].Set(loc.row, component)
	return nil
}

// GetComponent returns a pointer to the entity's component of compType,
// or nil if the entity is not alive or lacks the component
func (s *Storage) GetComponent(id EntityId, compType reflect.Type) any {
	if !s.entities.IsAlive(id) {
		return nil
	}
	loc := s.locations[id.Index()]
	return loc.archetype.GetComponent(loc.row, compType)
}

// Component is GetComponent with a recoverable error for absent data
func (s *Storage) Component(id EntityId, compType reflect.Type) (any, error) {
	if !s.entities.IsAlive(id) {
		return nil, s.fail(fmt.Errorf("%w: get component of %s", ErrInvalidEntity, id))
	}
	loc := s.locations[id.Index()]
	comp := loc.archetype.GetComponent(loc.row, compType)
	if comp == nil {
		return nil, s.fail(fmt.Errorf("%w: %s has no %s", ErrMissingComponent, id, compType))
	}
	return comp, nil
}

// HasComponent checks if an entity has a specific component type
func (s *Storage) HasComponent(id EntityId, compType reflect.Type) bool {
	if !s.entities.IsAlive(id) {
		return false
	}
	return s.locations[id.Index()].archetype.HasComponent(compType)
}

// Signature returns the component types the entity currently has
func (s *Storage) Signature(id EntityId) []reflect.Type {
	if !s.entities.IsAlive(id) {
		return nil
	}
	return slices.Clone(s.locations[id.Index()].archetype.types)
}

// ArchetypeOf returns the archetype currently holding the entity
func (s *Storage) ArchetypeOf(id EntityId) *Archetype {
	if !s.entities.IsAlive(id) {
		return nil
	}
	return s.locations[id.Index()].archetype
}

// Entities iterates over every live entity in archetype then row order
func (s *Storage) Entities() iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		for _, archetype := range s.archetypes {
			for id := range archetype.Iter() {
				if !yield(id) {
					return
				}
			}
		}
	}
}

// GetArchetypes returns all archetypes in registration order
func (s *Storage) GetArchetypes() []*Archetype {
	return s.archetypes
}

// GetArchetypeById returns the archetype with the given signature hash
func (s *Storage) GetArchetypeById(id uint32) *Archetype {
	a, _ := s.byHash.Get(id)
	return a
}

// GetArchetypeByTypes returns the archetype for exactly these types (if one exists)
func (s *Storage) GetArchetypeByTypes(types ...reflect.Type) *Archetype {
	infos := make([]*componentInfo, 0, len(types))
	for _, t := range types {
		info := s.registry.lookup(t)
		if info == nil {
			return nil
		}
		infos = append(infos, info)
	}
	sortInfos(infos)
	return s.findArchetype(componentIds(infos))
}

// archetypeFor returns the archetype for the sorted infos, creating it if needed
func (s *Storage) archetypeFor(infos []*componentInfo) *Archetype {
	ids := componentIds(infos)
	if a := s.findArchetype(ids); a != nil {
		return a
	}

	hash := hashComponentIds(ids)
	a := newArchetype(hash, len(s.archetypes), infos)
	s.archetypes = append(s.archetypes, a)
	if _, taken := s.byHash.Get(hash); !taken {
		s.byHash.Put(hash, a)
	}
	return a
}

func (s *Storage) findArchetype(ids []ComponentId) *Archetype {
	hash := hashComponentIds(ids)
	if a, ok := s.byHash.Get(hash); ok && slices.Equal(a.ids, ids) {
		return a
	}
	// hash collision fallback
	for _, a := range s.archetypes {
		if slices.Equal(a.ids, ids) {
			return a
		}
	}
	return nil
}

func (s *Storage) addEdge(from *Archetype, info *componentInfo) *Archetype {
	if to, ok := from.addEdges.Get(info.id); ok {
		return to
	}
	infos := s.infosOf(from)
	infos = append(infos, info)
	sortInfos(infos)
	to := s.archetypeFor(infos)
	from.addEdges.Put(info.id, to)
	to.removeEdges.Put(info.id, from)
	return to
}

func (s *Storage) removeEdge(from *Archetype, info *componentInfo) *Archetype {
	if to, ok := from.removeEdges.Get(info.id); ok {
		return to
	}
	infos := make([]*componentInfo, 0, len(from.ids)-1)
	for _, cid := range from.ids {
		if cid != info.id {
			infos = append(infos, s.registry.byId[cid])
		}
	}
	to := s.archetypeFor(infos)
	from.removeEdges.Put(info.id, to)
	to.addEdges.Put(info.id, from)
	return to
}

func (s *Storage) infosOf(a *Archetype) []*componentInfo {
	infos := make([]*componentInfo, 0, len(a.ids)+1)
	for _, cid := range a.ids {
		infos = append(infos, s.registry.byId[cid])
	}
	return infos
}

func sortInfos(infos []*componentInfo) {
	slices.SortFunc(infos, func(a, b *componentInfo) int {
		return int(a.id) - int(b.id)
	})
}

func componentIds(infos []*componentInfo) []ComponentId {
	ids := make([]ComponentId, len(infos))
	for i, info := range infos {
		ids[i] = info.id
	}
	return ids
}

// componentType returns the value type of a component, dereferencing pointers
func componentType(component any) reflect.Type {
	compType := reflect.TypeOf(component)
	if compType.Kind() == reflect.Ptr {
		compType = compType.Elem()
	}
	return compType
}

// hashComponentIds generates a uint32 hash for a sorted slice of component ids
func hashComponentIds(ids []ComponentId) uint32 {
	var h uint32 = 2166136261     // FNV-1a 32-bit offset basis
	const prime uint32 = 16777619 // FNV-1a 32-bit prime

	for _, id := range ids {
		h ^= uint32(id)
		h *= prime
		h ^= uint32(id >> 8)
		h *= prime
	}

	return h
}

type ComponentReader interface {
	GetComponent(EntityId, reflect.Type) any
}

// ReadComponent returns the entity's T component, or nil if absent
func ReadComponent[T any](reader ComponentReader, entityId EntityId) *T {
	comp := reader.GetComponent(entityId, reflect.TypeFor[T]())
	if comp == nil {
		return nil
	}
	return comp.(*T)
}

// Add attaches a T component to the entity
func Add[T any](s *Storage, id EntityId, value T) error {
	return s.AddComponent(id, value)
}

// Remove detaches the entity's T component
func Remove[T any](s *Storage, id EntityId) error {
	return s.RemoveComponent(id, reflect.TypeFor[T]())
}

// Get returns a pointer to the entity's T component
func Get[T any](s *Storage, id EntityId) (*T, error) {
	comp, err := s.Component(id, reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return comp.(*T), nil
}

// Has reports whether the entity has a T component
func Has[T any](s *Storage, id EntityId) bool {
	return s.HasComponent(id, reflect.TypeFor[T]())
}
