package render

import "errors"

var (
	// ErrSceneNotOpen is returned by draw calls issued outside BeginScene/EndScene.
	ErrSceneNotOpen = errors.New("render: scene not open")

	// ErrSceneAlreadyOpen is returned by BeginScene while a scene is open.
	ErrSceneAlreadyOpen = errors.New("render: scene already open")

	// ErrResourceCreationFailed is returned when the backend hands back a zero handle.
	ErrResourceCreationFailed = errors.New("render: gpu resource creation failed")

	// ErrRendererClosed is returned by a Renderer2D after Close.
	ErrRendererClosed = errors.New("render: renderer closed")
)
