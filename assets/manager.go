// Package assets loads textures from a file system. Decoding runs on a job
// pool; the decoded pixels are uploaded to the GPU by Integrate, which must
// be called from the thread that owns the render surface.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/plus3/quadforge/jobs"
	"github.com/plus3/quadforge/render"
)

var ErrNotFound = errors.New("assets: not loaded")

type decoded struct {
	name  string
	image Image
	err   error
}

// Manager owns every texture it loads and releases them on Close
type Manager struct {
	files   fs.FS
	surface render.Surface
	pool    *jobs.Pool
	log     *zap.Logger
	maxSize int

	mu       sync.Mutex
	ready    []decoded
	pending  map[string]struct{}
	textures map[string]*render.Texture2D
}

type Option func(*Manager)

func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithMaxTextureSize scales larger images down on decode
func WithMaxTextureSize(size int) Option {
	return func(m *Manager) { m.maxSize = size }
}

func NewManager(files fs.FS, surface render.Surface, pool *jobs.Pool, opts ...Option) *Manager {
	m := &Manager{
		files:    files,
		surface:  surface,
		pool:     pool,
		log:      zap.NewNop(),
		pending:  make(map[string]struct{}),
		textures: make(map[string]*render.Texture2D),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadTextureAsync queues name for decoding. Names already loaded or queued
// are ignored.
func (m *Manager) LoadTextureAsync(name string) error {
	m.mu.Lock()
	if _, ok := m.textures[name]; ok {
		m.mu.Unlock()
		return nil
	}
	if _, ok := m.pending[name]; ok {
		m.mu.Unlock()
		return nil
	}
	m.pending[name] = struct{}{}
	m.mu.Unlock()

	err := m.pool.Submit(func() {
		img, err := m.decode(name)
		m.mu.Lock()
		m.ready = append(m.ready, decoded{name: name, image: img, err: err})
		m.mu.Unlock()
	})
	if err != nil {
		m.mu.Lock()
		delete(m.pending, name)
		m.mu.Unlock()
		return fmt.Errorf("queue texture %s: %w", name, err)
	}
	return nil
}

// LoadTexture decodes and uploads name on the calling thread
func (m *Manager) LoadTexture(name string) (*render.Texture2D, error) {
	if tex, ok := m.Texture(name); ok {
		return tex, nil
	}
	img, err := m.decode(name)
	if err != nil {
		return nil, err
	}
	return m.upload(name, img)
}

// Integrate uploads every texture decoded since the last call and returns
// how many were uploaded. Failed loads are joined into the error.
func (m *Manager) Integrate() (int, error) {
	m.mu.Lock()
	ready := m.ready
	m.ready = nil
	for _, d := range ready {
		delete(m.pending, d.name)
	}
	m.mu.Unlock()

	var errs []error
	uploaded := 0
	for _, d := range ready {
		if d.err != nil {
			errs = append(errs, d.err)
			continue
		}
		if _, err := m.upload(d.name, d.image); err != nil {
			errs = append(errs, err)
			continue
		}
		uploaded++
	}
	if len(errs) > 0 {
		m.log.Warn("texture loads failed", zap.Int("failed", len(errs)), zap.Error(errors.Join(errs...)))
	}
	return uploaded, errors.Join(errs...)
}

// Texture implements scene.TextureSource
func (m *Manager) Texture(name string) (*render.Texture2D, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tex, ok := m.textures[name]
	return tex, ok
}

// Pending counts queued or decoded textures not yet integrated
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Names lists loaded textures in sorted order
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.textures))
}

// Release destroys one texture
func (m *Manager) Release(name string) error {
	m.mu.Lock()
	tex, ok := m.textures[name]
	delete(m.textures, name)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	tex.Release()
	return nil
}

// Close releases every texture and drops decodes not yet integrated.
// Wait on the pool first so no decode lands afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	textures := m.textures
	m.textures = make(map[string]*render.Texture2D)
	m.ready = nil
	m.mu.Unlock()

	for _, tex := range textures {
		tex.Release()
	}
	m.log.Debug("assets released", zap.Int("textures", len(textures)))
}

func (m *Manager) decode(name string) (Image, error) {
	f, err := m.files.Open(name)
	if err != nil {
		return Image{}, fmt.Errorf("open texture %s: %w", name, err)
	}
	defer f.Close()

	img, err := Decode(f, m.maxSize)
	if err != nil {
		return Image{}, fmt.Errorf("texture %s: %w", name, err)
	}
	return img, nil
}

func (m *Manager) upload(name string, img Image) (*render.Texture2D, error) {
	tex, err := render.NewTexture2D(m.surface, img.Width, img.Height, img.Pixels, m.log)
	if err != nil {
		return nil, fmt.Errorf("upload texture %s: %w", name, err)
	}

	m.mu.Lock()
	old := m.textures[name]
	m.textures[name] = tex
	m.mu.Unlock()
	if old != nil {
		old.Release()
	}
	m.log.Debug("texture loaded",
		zap.String("name", name),
		zap.String("format", img.Format),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
	)
	return tex, nil
}
