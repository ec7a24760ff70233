// Package event defines the window and input records delivered to the camera
// controller and to scripts. Events are plain values; a consumer marks one
// handled to stop further dispatch.
package event

import "fmt"

type Type uint8

const (
	TypeNone Type = iota
	TypeWindowResize
	TypeKeyPressed
	TypeKeyReleased
	TypeMouseButtonPressed
	TypeMouseButtonReleased
	TypeMouseMoved
	TypeMouseScrolled
)

var typeNames = [...]string{
	TypeNone:                "None",
	TypeWindowResize:        "WindowResize",
	TypeKeyPressed:          "KeyPressed",
	TypeKeyReleased:         "KeyReleased",
	TypeMouseButtonPressed:  "MouseButtonPressed",
	TypeMouseButtonReleased: "MouseButtonReleased",
	TypeMouseMoved:          "MouseMoved",
	TypeMouseScrolled:       "MouseScrolled",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", t)
}

// Event is implemented by every event record.
type Event interface {
	Type() Type
	IsHandled() bool
	SetHandled()
}

// Base carries the handled flag. Embed it in event records.
type Base struct {
	Handled bool
}

func (b *Base) IsHandled() bool { return b.Handled }
func (b *Base) SetHandled()     { b.Handled = true }

type WindowResize struct {
	Base
	Width, Height int
}

func (*WindowResize) Type() Type { return TypeWindowResize }

// Key codes are backend independent; adapters translate from their own keys.
type Key int

const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeySpace
	KeyEscape
	KeyF1
)

var keyNames = [...]string{
	KeyUnknown: "unknown",
	KeyW:       "w",
	KeyA:       "a",
	KeyS:       "s",
	KeyD:       "d",
	KeyQ:       "q",
	KeyE:       "e",
	KeyUp:      "up",
	KeyDown:    "down",
	KeyLeft:    "left",
	KeyRight:   "right",
	KeySpace:   "space",
	KeyEscape:  "escape",
	KeyF1:      "f1",
}

func (k Key) String() string {
	if k >= 0 && int(k) < len(keyNames) {
		return keyNames[k]
	}
	return fmt.Sprintf("Key(%d)", int(k))
}

type KeyEvent struct {
	Base
	Key     Key
	Pressed bool
	Repeat  bool
}

func (e *KeyEvent) Type() Type {
	if e.Pressed {
		return TypeKeyPressed
	}
	return TypeKeyReleased
}

type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)

func (b MouseButton) String() string {
	switch b {
	case MouseButtonLeft:
		return "left"
	case MouseButtonRight:
		return "right"
	case MouseButtonMiddle:
		return "middle"
	}
	return fmt.Sprintf("MouseButton(%d)", int(b))
}

type MouseButtonEvent struct {
	Base
	Button  MouseButton
	Pressed bool
	X, Y    float32
}

func (e *MouseButtonEvent) Type() Type {
	if e.Pressed {
		return TypeMouseButtonPressed
	}
	return TypeMouseButtonReleased
}

type MouseMove struct {
	Base
	X, Y float32
}

func (*MouseMove) Type() Type { return TypeMouseMoved }

type MouseScroll struct {
	Base
	XOffset, YOffset float32
}

func (*MouseScroll) Type() Type { return TypeMouseScrolled }

// Dispatch calls fn when ev has concrete type T and is not yet handled.
// A true result from fn marks the event handled.
func Dispatch[T Event](ev Event, fn func(T) bool) bool {
	if ev.IsHandled() {
		return false
	}
	typed, ok := ev.(T)
	if !ok {
		return false
	}
	if fn(typed) {
		ev.SetHandled()
	}
	return true
}
