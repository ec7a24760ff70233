package scene

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/plus3/quadforge/ecs"
)

type sceneFile struct {
	Scene    string         `yaml:"scene"`
	Entities []entityRecord `yaml:"entities"`
}

type entityRecord struct {
	ID        string           `yaml:"id"`
	Tag       string           `yaml:"tag,omitempty"`
	Transform *transformRecord `yaml:"transform,omitempty"`
	Movement  *movementRecord  `yaml:"movement,omitempty"`
	Sprite    *spriteRecord    `yaml:"sprite,omitempty"`
	Circle    *circleRecord    `yaml:"circle,omitempty"`
	Text      *textRecord      `yaml:"text,omitempty"`
	Camera    *cameraRecord    `yaml:"camera,omitempty"`
	Script    string           `yaml:"script,omitempty"`
}

type transformRecord struct {
	Position []float32 `yaml:"position,flow"`
	Rotation float32   `yaml:"rotation,omitempty"`
	Scale    []float32 `yaml:"scale,flow"`
}

type movementRecord struct {
	Velocity        []float32 `yaml:"velocity,flow"`
	AngularVelocity float32   `yaml:"angular_velocity,omitempty"`
}

type spriteRecord struct {
	Color        []float32 `yaml:"color,flow"`
	Texture      string    `yaml:"texture,omitempty"`
	TilingFactor float32   `yaml:"tiling_factor,omitempty"`
}

type circleRecord struct {
	Color     []float32 `yaml:"color,flow"`
	Thickness float32   `yaml:"thickness,omitempty"`
	Segments  int       `yaml:"segments,omitempty"`
}

type textRecord struct {
	Value string    `yaml:"value"`
	Color []float32 `yaml:"color,flow"`
	Size  float32   `yaml:"size,omitempty"`
}

type cameraRecord struct {
	Primary     bool    `yaml:"primary"`
	Size        float32 `yaml:"size"`
	FixedAspect bool    `yaml:"fixed_aspect,omitempty"`
}

type persisted struct {
	Entity    ecs.EntityId
	*ID
	Tag       *Tag       `ecs:"optional"`
	Transform *Transform `ecs:"optional"`
	Movement  *Movement  `ecs:"optional"`
	Sprite    *Sprite    `ecs:"optional"`
	Circle    *Circle    `ecs:"optional"`
	Text      *Text      `ecs:"optional"`
	Camera    *Camera    `ecs:"optional"`
	Script    *ScriptRef `ecs:"optional"`
}

// Serializer saves and loads the persistent part of a scene as YAML.
// Only entities with an ID component are written.
type Serializer struct {
	scene *Scene
}

func NewSerializer(s *Scene) *Serializer {
	return &Serializer{scene: s}
}

func (z *Serializer) Serialize(w io.Writer) error {
	view := ecs.NewView[persisted](z.scene.storage)
	var items []persisted
	for _, item := range view.Iter() {
		items = append(items, item)
	}
	// creation order reads better than archetype order
	slices.SortFunc(items, func(a, b persisted) int {
		return cmp.Compare(a.Entity.Index(), b.Entity.Index())
	})

	file := sceneFile{Scene: z.scene.Name, Entities: make([]entityRecord, 0, len(items))}
	for _, item := range items {
		file.Entities = append(file.Entities, record(item))
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&file); err != nil {
		return fmt.Errorf("encode scene %s: %w", z.scene.Name, err)
	}
	return enc.Close()
}

func (z *Serializer) SerializeFile(path string) error {
	var buf bytes.Buffer
	if err := z.Serialize(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write scene %s: %w", path, err)
	}
	return nil
}

// Deserialize spawns the entities in r into the scene and adopts its name.
// Nothing is spawned when any record is invalid.
func (z *Serializer) Deserialize(r io.Reader) error {
	var file sceneFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return fmt.Errorf("decode scene: %w", err)
	}

	spawns := make([][]any, 0, len(file.Entities))
	for i, rec := range file.Entities {
		components, err := rec.components()
		if err != nil {
			return fmt.Errorf("scene %s entity %d: %w", file.Scene, i, err)
		}
		spawns = append(spawns, components)
	}

	if file.Scene != "" {
		z.scene.Name = file.Scene
	}
	for _, components := range spawns {
		z.scene.storage.Spawn(components...)
	}
	z.scene.log.Info("scene loaded", zap.Int("entities", len(spawns)))
	return nil
}

func (z *Serializer) DeserializeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scene %s: %w", path, err)
	}
	return z.Deserialize(bytes.NewReader(data))
}

func record(item persisted) entityRecord {
	rec := entityRecord{ID: item.ID.UUID.String()}
	if item.Tag != nil {
		rec.Tag = item.Tag.Name
	}
	if t := item.Transform; t != nil {
		rec.Transform = &transformRecord{Position: t.Position[:], Rotation: t.Rotation, Scale: t.Scale[:]}
	}
	if m := item.Movement; m != nil {
		rec.Movement = &movementRecord{Velocity: m.Velocity[:], AngularVelocity: m.AngularVelocity}
	}
	if s := item.Sprite; s != nil {
		rec.Sprite = &spriteRecord{Color: s.Color[:], Texture: s.Texture, TilingFactor: s.TilingFactor}
	}
	if c := item.Circle; c != nil {
		rec.Circle = &circleRecord{Color: c.Color[:], Thickness: c.Thickness, Segments: c.Segments}
	}
	if t := item.Text; t != nil {
		rec.Text = &textRecord{Value: t.Value, Color: t.Color[:], Size: t.Size}
	}
	if c := item.Camera; c != nil {
		rec.Camera = &cameraRecord{Primary: c.Primary, Size: c.Size, FixedAspect: c.FixedAspect}
	}
	if s := item.Script; s != nil {
		rec.Script = s.Path
	}
	return rec
}

func (rec entityRecord) components() ([]any, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("id %q: %w", rec.ID, err)
	}
	components := []any{ID{UUID: id}}
	if rec.Tag != "" {
		components = append(components, Tag{Name: rec.Tag})
	}
	if t := rec.Transform; t != nil {
		transform := Transform{Rotation: t.Rotation}
		if transform.Position, err = vec3(t.Position); err != nil {
			return nil, fmt.Errorf("transform position: %w", err)
		}
		if transform.Scale, err = vec2(t.Scale, mgl32.Vec2{1, 1}); err != nil {
			return nil, fmt.Errorf("transform scale: %w", err)
		}
		components = append(components, transform)
	}
	if m := rec.Movement; m != nil {
		movement := Movement{AngularVelocity: m.AngularVelocity}
		if movement.Velocity, err = vec2(m.Velocity, mgl32.Vec2{}); err != nil {
			return nil, fmt.Errorf("movement velocity: %w", err)
		}
		components = append(components, movement)
	}
	if s := rec.Sprite; s != nil {
		sprite := Sprite{Texture: s.Texture, TilingFactor: s.TilingFactor}
		if sprite.Color, err = vec4(s.Color); err != nil {
			return nil, fmt.Errorf("sprite color: %w", err)
		}
		components = append(components, sprite)
	}
	if c := rec.Circle; c != nil {
		circle := Circle{Thickness: c.Thickness, Segments: c.Segments}
		if circle.Color, err = vec4(c.Color); err != nil {
			return nil, fmt.Errorf("circle color: %w", err)
		}
		components = append(components, circle)
	}
	if t := rec.Text; t != nil {
		text := Text{Value: t.Value, Size: t.Size}
		if text.Color, err = vec4(t.Color); err != nil {
			return nil, fmt.Errorf("text color: %w", err)
		}
		components = append(components, text)
	}
	if c := rec.Camera; c != nil {
		camera := NewCamera(c.Size, c.Primary)
		camera.FixedAspect = c.FixedAspect
		components = append(components, camera)
	}
	if rec.Script != "" {
		components = append(components, ScriptRef{Path: rec.Script})
	}
	return components, nil
}

func vec2(v []float32, def mgl32.Vec2) (mgl32.Vec2, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 2:
		return mgl32.Vec2{v[0], v[1]}, nil
	}
	return mgl32.Vec2{}, fmt.Errorf("want 2 components, got %d", len(v))
}

func vec3(v []float32) (mgl32.Vec3, error) {
	switch len(v) {
	case 0:
		return mgl32.Vec3{}, nil
	case 2:
		return mgl32.Vec3{v[0], v[1], 0}, nil
	case 3:
		return mgl32.Vec3{v[0], v[1], v[2]}, nil
	}
	return mgl32.Vec3{}, fmt.Errorf("want 2 or 3 components, got %d", len(v))
}

func vec4(v []float32) (mgl32.Vec4, error) {
	switch len(v) {
	case 0:
		return mgl32.Vec4{}, nil
	case 3:
		return mgl32.Vec4{v[0], v[1], v[2], 1}, nil
	case 4:
		return mgl32.Vec4{v[0], v[1], v[2], v[3]}, nil
	}
	return mgl32.Vec4{}, fmt.Errorf("want 3 or 4 components, got %d", len(v))
}
