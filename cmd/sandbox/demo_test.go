package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/quadforge/config"
	"github.com/plus3/quadforge/ecs"
	"github.com/plus3/quadforge/scene"
	"github.com/plus3/quadforge/script/lua"
)

func TestDemoSceneOrbits(t *testing.T) {
	s := newDemoScene("demo")
	populate(s)

	assert.Equal(t, 1+gridSize*gridSize+6+1+1, s.Storage().Len())
	_, _, ok := s.PrimaryCamera()
	assert.True(t, ok)

	id, ok := s.FindByName("orbit-1")
	require.True(t, ok)
	s.Update(1)
	transform := ecs.ReadComponent[scene.Transform](s.Storage(), id)
	orbit := ecs.ReadComponent[Orbit](s.Storage(), id)
	assert.InDelta(t, 90, orbit.Angle, 1e-4)
	assert.InDelta(t, 0, transform.Position.X(), 1e-4)
	assert.InDelta(t, 5, transform.Position.Y(), 1e-4)
}

func TestDemoSceneSaves(t *testing.T) {
	s := newDemoScene("demo")
	populate(s)

	var buf bytes.Buffer
	require.NoError(t, scene.NewSerializer(s).Serialize(&buf))

	loaded := newDemoScene("empty")
	require.NoError(t, scene.NewSerializer(loaded).Deserialize(&buf))
	assert.Equal(t, "demo", loaded.Name)
	assert.Equal(t, 1+6+1+1, loaded.Storage().Len(), "only named entities persist")

	player, ok := loaded.FindByName("player")
	require.True(t, ok)
	ref := ecs.ReadComponent[scene.ScriptRef](loaded.Storage(), player)
	require.NotNil(t, ref)
	assert.Equal(t, "player.lua", ref.Path)
}

func TestPlayerScriptLoads(t *testing.T) {
	engine := lua.NewEngine("scripts", nil)
	defer engine.Close()

	s := newDemoScene("demo")
	populate(s)
	n, err := lua.BindRefs(engine, s.Storage())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	s.Update(0.1)
}

func TestShippedConfigIsValid(t *testing.T) {
	cfg, err := config.Load("quadforge.toml")
	require.NoError(t, err)
	assert.Equal(t, "quadforge sandbox", cfg.Window.Title)
	assert.DirExists(t, filepath.Join(".", cfg.Scripts.Dir))

	_, err = os.Stat(filepath.Join(cfg.Scripts.Dir, "player.lua"))
	assert.NoError(t, err)
}
