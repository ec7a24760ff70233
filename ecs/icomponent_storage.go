package ecs

import (
	"reflect"
	"unsafe"
)

// iComponentStorage is a type-erased dense column of components.
// Rows are kept in lockstep with the owning archetype's entity list.
type iComponentStorage interface {
	Append(item any) int
	AppendFrom(src iComponentStorage, row int) int
	Set(row int, item any) bool
	Get(row int) any
	Pointer(row int) unsafe.Pointer
	SwapRemove(row int)
	Len() int
	Type() reflect.Type
}
