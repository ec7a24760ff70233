// Command ecs-stress spawns a large scene and runs its systems flat out,
// churning entities and components every frame, then prints a report.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/profile"
	"go.uber.org/zap"

	"github.com/plus3/quadforge/config"
	"github.com/plus3/quadforge/ecs"
	"github.com/plus3/quadforge/logging"
	"github.com/plus3/quadforge/scene"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "how long to run the update loop")
	entityCount := flag.Int("entities", 10000, "entities spawned before the run")
	churn := flag.Int("churn", 100, "entities destroyed, respawned and reshaped each frame")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "include GC pause totals in the report")
	profileMode := flag.String("profile", "", "write a cpu, mem or allocs profile to the working directory")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	log, err := logging.New(config.LoggingConfig{Level: "info", Format: "console"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if stop := startProfile(*profileMode); stop != nil {
		defer stop()
	}

	rng := rand.New(rand.NewPCG(*seed, *seed))
	s := scene.New("stress", scene.WithLogger(log))
	storage := s.Storage()

	log.Info("populating", zap.Int("entities", *entityCount))
	live := make([]ecs.EntityId, 0, *entityCount)
	for range *entityCount {
		live = append(live, spawn(storage, rng))
	}

	report := &Report{Setup: Setup{
		Duration:    *duration,
		Entities:    *entityCount,
		Types:       len(s.Registry().Types()),
		Systems:     len(s.Scheduler().Systems()),
		Churn:       *churn,
		TrackPauses: *gcPauseMetrics,
	}}
	runtime.ReadMemStats(&report.Before)

	log.Info("running", zap.Duration("duration", *duration))
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	last := start
	for ctx.Err() == nil {
		now := time.Now()
		dt := now.Sub(last).Seconds()
		last = now

		for range min(*churn, len(live)) {
			i := rng.IntN(len(live))
			reshape(storage, live[i], rng)
			if rng.IntN(4) == 0 {
				if err := storage.Destroy(live[i]); err != nil {
					log.Fatal("destroy failed", zap.Stringer("entity", live[i]), zap.Error(err))
				}
				live[i] = spawn(storage, rng)
			}
		}

		updateStart := time.Now()
		s.Update(dt)
		report.FrameTime.Samples = append(report.FrameTime.Samples, time.Since(updateStart))
		report.Frames++
	}

	report.Elapsed = time.Since(start)
	report.FrameTime.Summarize()
	report.Archetypes = len(storage.GetArchetypes())
	report.LiveEntities = storage.Len()
	runtime.ReadMemStats(&report.After)
	log.Info("finished", zap.Int64("frames", report.Frames))

	if err := report.Write(os.Stdout); err != nil {
		log.Fatal("report failed", zap.Error(err))
	}
}

func startProfile(mode string) func() {
	var opt func(*profile.Profile)
	switch mode {
	case "":
		return nil
	case "cpu":
		opt = profile.CPUProfile
	case "mem":
		opt = profile.MemProfile
	case "allocs":
		opt = profile.MemProfileAllocs
	default:
		fmt.Fprintf(os.Stderr, "unknown profile %q\n", mode)
		os.Exit(2)
	}
	return profile.Start(opt, profile.ProfilePath("."), profile.NoShutdownHook).Stop
}

// spawn creates an entity with a Transform and a random mix of the other
// scene components
func spawn(storage *ecs.Storage, rng *rand.Rand) ecs.EntityId {
	pos := mgl32.Vec3{rng.Float32()*200 - 100, rng.Float32()*200 - 100, 0}
	components := []any{scene.NewTransform(pos)}
	if rng.IntN(2) == 0 {
		components = append(components, velocity(rng))
	}
	switch rng.IntN(3) {
	case 0:
		components = append(components, scene.Sprite{Color: mgl32.Vec4{1, 1, 1, 1}})
	case 1:
		components = append(components, scene.Circle{Color: mgl32.Vec4{1, 0, 0, 1}, Thickness: rng.Float32()})
	}
	if rng.IntN(8) == 0 {
		components = append(components, scene.Tag{Name: "tagged"})
	}
	return storage.Spawn(components...)
}

// reshape toggles Movement so the entity changes archetype
func reshape(storage *ecs.Storage, id ecs.EntityId, rng *rand.Rand) {
	if ecs.Has[scene.Movement](storage, id) {
		_ = ecs.Remove[scene.Movement](storage, id)
		return
	}
	_ = ecs.Add(storage, id, velocity(rng))
}

func velocity(rng *rand.Rand) scene.Movement {
	return scene.Movement{
		Velocity:        mgl32.Vec2{rng.Float32()*2 - 1, rng.Float32()*2 - 1},
		AngularVelocity: rng.Float32() * 90,
	}
}
