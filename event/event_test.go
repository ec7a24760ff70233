package event_test

import (
	"testing"

	"github.com/plus3/quadforge/event"
	"github.com/stretchr/testify/assert"
)

func TestDispatchMatchesConcreteType(t *testing.T) {
	ev := &event.WindowResize{Width: 800, Height: 600}

	var got *event.WindowResize
	matched := event.Dispatch(ev, func(e *event.WindowResize) bool {
		got = e
		return true
	})

	assert.True(t, matched)
	assert.Same(t, ev, got)
	assert.True(t, ev.IsHandled())
}

func TestDispatchSkipsOtherTypesAndHandled(t *testing.T) {
	ev := &event.MouseScroll{YOffset: 1}

	called := false
	assert.False(t, event.Dispatch(ev, func(*event.KeyEvent) bool {
		called = true
		return true
	}))
	assert.False(t, called)

	event.Dispatch(ev, func(*event.MouseScroll) bool { return false })
	assert.False(t, ev.IsHandled())

	ev.SetHandled()
	assert.False(t, event.Dispatch(ev, func(*event.MouseScroll) bool {
		called = true
		return true
	}))
	assert.False(t, called)
}

func TestEventTypes(t *testing.T) {
	assert.Equal(t, event.TypeKeyPressed, (&event.KeyEvent{Pressed: true}).Type())
	assert.Equal(t, event.TypeKeyReleased, (&event.KeyEvent{}).Type())
	assert.Equal(t, event.TypeMouseButtonPressed, (&event.MouseButtonEvent{Pressed: true}).Type())
	assert.Equal(t, "MouseMoved", (&event.MouseMove{}).Type().String())
	assert.Equal(t, "Type(99)", event.Type(99).String())
}

func TestInputNames(t *testing.T) {
	assert.Equal(t, "space", event.KeySpace.String())
	assert.Equal(t, "f1", event.KeyF1.String())
	assert.Equal(t, "Key(-1)", event.Key(-1).String())
	assert.Equal(t, "right", event.MouseButtonRight.String())
	assert.Equal(t, "MouseButton(7)", event.MouseButton(7).String())
}
