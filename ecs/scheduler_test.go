package ecs_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/plus3/quadforge/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MovementSystem struct {
	Movers ecs.Query[movable]
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) {
	for _, item := range s.Movers.Iter() {
		item.Position.X += item.Velocity.DX * float32(frame.DeltaTime)
		item.Position.Y += item.Velocity.DY * float32(frame.DeltaTime)
	}
}

type recordingSystem struct {
	name string
	log  *[]string
}

func (s *recordingSystem) Execute(frame *ecs.UpdateFrame) {
	*s.log = append(*s.log, s.name)
}

type GameClock struct {
	Ticks int
}

type clockSystem struct {
	Clock ecs.Singleton[GameClock]
}

func (s *clockSystem) Execute(frame *ecs.UpdateFrame) {
	s.Clock.Get().Ticks++
}

type registeringSystem struct {
	scheduler *ecs.Scheduler
	err       error
}

func (s *registeringSystem) Execute(frame *ecs.UpdateFrame) {
	s.err = s.scheduler.Register(&recordingSystem{})
}

func TestSchedulerInitializesQueries(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	id := storage.Spawn(Position{}, Velocity{DX: 10, DY: 20})

	scheduler := ecs.NewScheduler(storage)
	require.NoError(t, scheduler.Register(&MovementSystem{}))

	scheduler.Once(0.5)

	pos := ecs.ReadComponent[Position](storage, id)
	assert.Equal(t, Position{X: 5, Y: 10}, *pos)
	assert.Equal(t, uint64(1), scheduler.Frame())
}

func TestSchedulerRunsInRegistrationOrder(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	scheduler := ecs.NewScheduler(storage)

	var log []string
	scheduler.MustRegister(
		&recordingSystem{name: "input", log: &log},
		&recordingSystem{name: "physics", log: &log},
		&recordingSystem{name: "render", log: &log},
	)

	scheduler.Once(0.016)
	scheduler.Once(0.016)

	assert.Equal(t, []string{"input", "physics", "render", "input", "physics", "render"}, log)
	assert.Len(t, scheduler.Systems(), 3)
}

func TestSchedulerInitializesSingletons(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	storage.AddSingleton(GameClock{})

	scheduler := ecs.NewScheduler(storage)
	scheduler.MustRegister(&clockSystem{})

	scheduler.Once(0)
	scheduler.Once(0)

	clock := ecs.NewSingleton[GameClock](storage)
	assert.Equal(t, 2, clock.Get().Ticks)
}

func TestSchedulerRejectsRegistrationDuringFrame(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	scheduler := ecs.NewScheduler(storage)

	system := &registeringSystem{scheduler: scheduler}
	require.NoError(t, scheduler.Register(system))

	scheduler.Once(0)
	assert.ErrorIs(t, system.err, ecs.ErrSchedulerBusy)
	assert.Len(t, scheduler.Systems(), 1)

	// outside a frame registration works again
	assert.NoError(t, scheduler.Register(&recordingSystem{log: new([]string)}))
}

func TestSchedulerFlushesCommandsAfterFrame(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	scheduler := ecs.NewScheduler(storage)

	var spawned ecs.EntityId
	var countDuringFrame int
	scheduler.MustRegister(ecs.SystemFunc(func(frame *ecs.UpdateFrame) {
		if frame.Storage.Len() == 0 {
			frame.Commands.SpawnThen(func(id ecs.EntityId) { spawned = id }, Position{X: 3})
		}
		countDuringFrame = frame.Storage.Len()
	}))

	scheduler.Once(0)
	assert.Equal(t, 0, countDuringFrame)
	assert.Equal(t, 1, storage.Len())
	assert.Equal(t, float32(3), ecs.ReadComponent[Position](storage, spawned).X)
}

func TestSchedulerStats(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	scheduler := ecs.NewScheduler(storage)
	scheduler.MustRegister(&MovementSystem{})

	for i := 0; i < 3; i++ {
		scheduler.Once(0.016)
	}

	stats := scheduler.GetStats()
	assert.Equal(t, 1, stats.SystemCount)
	assert.Equal(t, int64(3), stats.TotalExecutions)
	require.Len(t, stats.Systems, 1)
	assert.Equal(t, "MovementSystem", stats.Systems[0].Name)
	assert.Equal(t, int64(3), stats.Systems[0].ExecutionCount)
	assert.LessOrEqual(t, stats.Systems[0].MinDuration, stats.Systems[0].MaxDuration)
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	scheduler := ecs.NewScheduler(storage)

	var log []string
	scheduler.MustRegister(&recordingSystem{name: "tick", log: &log})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	scheduler.Run(ctx, time.Millisecond)

	assert.NotEmpty(t, log)
	assert.Equal(t, uint64(len(log)), scheduler.Frame())
}

func TestSchedulerFuncSystem(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	scheduler := ecs.NewScheduler(storage)

	var total float64
	require.NoError(t, scheduler.Register(ecs.SystemFunc(func(frame *ecs.UpdateFrame) {
		total += frame.DeltaTime
	})))
	scheduler.Once(0.5)
	scheduler.Once(0.25)

	assert.InDelta(t, 0.75, total, 1e-9)
	assert.Equal(t, "SystemFunc", scheduler.GetStats().Systems[0].Name)
}

func TestSingletonRemovedAfterBind(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	clock := ecs.NewSingleton(storage, GameClock{Ticks: 4})
	require.True(t, clock.Exists())

	storage.RemoveSingleton(reflect.TypeFor[GameClock]())
	assert.False(t, clock.Exists())

	storage.AddSingleton(GameClock{Ticks: 9})
	require.True(t, clock.Exists())
	assert.Equal(t, 9, clock.Get().Ticks)
}
