package ecs

import "reflect"

// singletonEntry holds a pointer to the stored value. The pointer stays the
// same while the singleton exists so accessors can cache it.
type singletonEntry struct {
	ptr reflect.Value
}

// AddSingleton stores value as the singleton of its type, overwriting an
// existing one in place. Singletons belong to no entity and need no
// registration.
func (s *Storage) AddSingleton(value any) {
	src := reflect.ValueOf(value)
	if src.Kind() == reflect.Pointer {
		src = src.Elem()
	}
	if entry, ok := s.singletons[src.Type()]; ok {
		entry.ptr.Elem().Set(src)
		return
	}
	ptr := reflect.New(src.Type())
	ptr.Elem().Set(src)
	s.singletons[src.Type()] = &singletonEntry{ptr: ptr}
}

// RemoveSingleton drops the singleton of type t. Accessors notice on their
// next Get.
func (s *Storage) RemoveSingleton(t reflect.Type) {
	if _, ok := s.singletons[t]; ok {
		delete(s.singletons, t)
		s.singletonEpoch++
	}
}

// Singleton is a typed accessor for a value stored outside any entity.
// As a system field it is bound by the Scheduler on Register.
type Singleton[T any] struct {
	storage *Storage
	value   *T
	epoch   uint64
}

// NewSingleton returns an accessor, storing initializer (or the zero value)
// first when no singleton of type T exists yet
func NewSingleton[T any](storage *Storage, initializer ...T) *Singleton[T] {
	if _, ok := storage.singletons[reflect.TypeFor[T]()]; !ok {
		var value T
		if len(initializer) > 0 {
			value = initializer[0]
		}
		storage.AddSingleton(value)
	}
	s := &Singleton[T]{}
	s.Init(storage)
	return s
}

func (s *Singleton[T]) Init(storage *Storage) {
	s.storage = storage
	s.resolve()
}

func (s *Singleton[T]) resolve() {
	s.value = nil
	if s.storage == nil {
		return
	}
	s.epoch = s.storage.singletonEpoch
	if entry, ok := s.storage.singletons[reflect.TypeFor[T]()]; ok {
		s.value = entry.ptr.Interface().(*T)
	}
}

// Get returns the stored value, or nil when there is none
func (s *Singleton[T]) Get() *T {
	if s.storage != nil && (s.value == nil || s.epoch != s.storage.singletonEpoch) {
		s.resolve()
	}
	return s.value
}

func (s *Singleton[T]) Exists() bool {
	return s.Get() != nil
}
