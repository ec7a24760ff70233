package app

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/plus3/quadforge/event"
)

// Key repeat timing in ticks
const (
	repeatDelay    = 30
	repeatInterval = 4
)

var keyMap = map[ebiten.Key]event.Key{
	ebiten.KeyW:          event.KeyW,
	ebiten.KeyA:          event.KeyA,
	ebiten.KeyS:          event.KeyS,
	ebiten.KeyD:          event.KeyD,
	ebiten.KeyQ:          event.KeyQ,
	ebiten.KeyE:          event.KeyE,
	ebiten.KeyArrowUp:    event.KeyUp,
	ebiten.KeyArrowDown:  event.KeyDown,
	ebiten.KeyArrowLeft:  event.KeyLeft,
	ebiten.KeyArrowRight: event.KeyRight,
	ebiten.KeySpace:      event.KeySpace,
	ebiten.KeyEscape:     event.KeyEscape,
	ebiten.KeyF1:         event.KeyF1,
}

var reverseKeyMap = func() map[event.Key]ebiten.Key {
	m := make(map[event.Key]ebiten.Key, len(keyMap))
	for k, v := range keyMap {
		m[v] = k
	}
	return m
}()

var mouseButtons = []struct {
	ebiten ebiten.MouseButton
	event  event.MouseButton
}{
	{ebiten.MouseButtonLeft, event.MouseButtonLeft},
	{ebiten.MouseButtonRight, event.MouseButtonRight},
	{ebiten.MouseButtonMiddle, event.MouseButtonMiddle},
}

// InputSource is the slice of ebiten's input API the app polls
type InputSource interface {
	AppendJustPressedKeys(keys []ebiten.Key) []ebiten.Key
	AppendJustReleasedKeys(keys []ebiten.Key) []ebiten.Key
	AppendPressedKeys(keys []ebiten.Key) []ebiten.Key
	KeyPressDuration(key ebiten.Key) int
	IsKeyPressed(key ebiten.Key) bool
	IsMouseButtonJustPressed(button ebiten.MouseButton) bool
	IsMouseButtonJustReleased(button ebiten.MouseButton) bool
	CursorPosition() (x, y int)
	Wheel() (x, y float64)
}

type ebitenInput struct{}

func (ebitenInput) AppendJustPressedKeys(k []ebiten.Key) []ebiten.Key {
	return inpututil.AppendJustPressedKeys(k)
}
func (ebitenInput) AppendJustReleasedKeys(k []ebiten.Key) []ebiten.Key {
	return inpututil.AppendJustReleasedKeys(k)
}
func (ebitenInput) AppendPressedKeys(k []ebiten.Key) []ebiten.Key { return inpututil.AppendPressedKeys(k) }
func (ebitenInput) KeyPressDuration(k ebiten.Key) int             { return inpututil.KeyPressDuration(k) }
func (ebitenInput) IsKeyPressed(k ebiten.Key) bool                { return ebiten.IsKeyPressed(k) }
func (ebitenInput) IsMouseButtonJustPressed(b ebiten.MouseButton) bool {
	return inpututil.IsMouseButtonJustPressed(b)
}
func (ebitenInput) IsMouseButtonJustReleased(b ebiten.MouseButton) bool {
	return inpututil.IsMouseButtonJustReleased(b)
}
func (ebitenInput) CursorPosition() (int, int)  { return ebiten.CursorPosition() }
func (ebitenInput) Wheel() (float64, float64) { return ebiten.Wheel() }

// Input turns polled ebiten state into event records once per tick.
// It also serves as the render.KeyState for camera controllers.
type Input struct {
	source InputSource
	keys   []ebiten.Key
	cursor [2]int
	moved  bool
}

func NewInput(source InputSource) *Input {
	if source == nil {
		source = ebitenInput{}
	}
	return &Input{source: source}
}

// IsKeyPressed implements render.KeyState
func (in *Input) IsKeyPressed(key event.Key) bool {
	k, ok := reverseKeyMap[key]
	return ok && in.source.IsKeyPressed(k)
}

// Poll returns the events of this tick: key releases, presses and repeats,
// then mouse buttons, cursor movement and scrolling. Keys without an
// event.Key are dropped.
func (in *Input) Poll() []event.Event {
	var events []event.Event

	in.keys = in.source.AppendJustReleasedKeys(in.keys[:0])
	for _, k := range in.keys {
		if key, ok := keyMap[k]; ok {
			events = append(events, &event.KeyEvent{Key: key})
		}
	}
	in.keys = in.source.AppendJustPressedKeys(in.keys[:0])
	for _, k := range in.keys {
		if key, ok := keyMap[k]; ok {
			events = append(events, &event.KeyEvent{Key: key, Pressed: true})
		}
	}
	in.keys = in.source.AppendPressedKeys(in.keys[:0])
	for _, k := range in.keys {
		key, ok := keyMap[k]
		if ok && repeats(in.source.KeyPressDuration(k)) {
			events = append(events, &event.KeyEvent{Key: key, Pressed: true, Repeat: true})
		}
	}

	x, y := in.source.CursorPosition()
	for _, b := range mouseButtons {
		switch {
		case in.source.IsMouseButtonJustPressed(b.ebiten):
			events = append(events, &event.MouseButtonEvent{Button: b.event, Pressed: true, X: float32(x), Y: float32(y)})
		case in.source.IsMouseButtonJustReleased(b.ebiten):
			events = append(events, &event.MouseButtonEvent{Button: b.event, X: float32(x), Y: float32(y)})
		}
	}
	if cursor := [2]int{x, y}; !in.moved || cursor != in.cursor {
		if in.moved {
			events = append(events, &event.MouseMove{X: float32(x), Y: float32(y)})
		}
		in.cursor, in.moved = cursor, true
	}
	if dx, dy := in.source.Wheel(); dx != 0 || dy != 0 {
		events = append(events, &event.MouseScroll{XOffset: float32(dx), YOffset: float32(dy)})
	}
	return events
}

func repeats(ticks int) bool {
	return ticks > repeatDelay && (ticks-repeatDelay)%repeatInterval == 0
}

// keyboardOrMouse reports whether ev comes from the keyboard or the mouse
func keyboardOrMouse(ev event.Event) (keyboard, mouse bool) {
	switch ev.(type) {
	case *event.KeyEvent:
		return true, false
	case *event.MouseButtonEvent, *event.MouseMove, *event.MouseScroll:
		return false, true
	}
	return false, false
}
