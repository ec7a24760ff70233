package ecs

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"
)

// SchedulerStats summarises execution of every registered system
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats is the timing record of one system. Min is zero until the
// system has run.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

func (st *SystemStats) record(d time.Duration) {
	if st.ExecutionCount == 0 || d < st.MinDuration {
		st.MinDuration = d
	}
	st.MaxDuration = max(st.MaxDuration, d)
	st.ExecutionCount++
	st.LastDuration = d
	st.TotalDuration += d
	st.AvgDuration = st.TotalDuration / time.Duration(st.ExecutionCount)
}

// storageBinder is implemented by system fields that need the storage,
// such as Query and Singleton
type storageBinder interface {
	Init(storage *Storage)
}

type scheduled struct {
	system System
	stats  SystemStats
}

// Scheduler runs systems in registration order. A system registered after
// another observes that system's writes from the same frame; no other
// ordering is implied.
type Scheduler struct {
	storage  *Storage
	systems  []*scheduled
	commands *Commands
	running  bool
	frame    uint64
}

func NewScheduler(storage *Storage) *Scheduler {
	return &Scheduler{storage: storage, commands: newCommands()}
}

// Register appends system and binds its exported Query and Singleton
// fields to the storage. It fails while a frame is running.
func (s *Scheduler) Register(system System) error {
	if s.running {
		return fmt.Errorf("%w: register %T", ErrSchedulerBusy, system)
	}
	s.bindFields(system)

	t := reflect.TypeOf(system)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		name = t.String()
	}
	s.systems = append(s.systems, &scheduled{system: system, stats: SystemStats{Name: name}})
	s.storage.log.Debug("system registered", zap.String("system", name), zap.Int("order", len(s.systems)-1))
	return nil
}

// MustRegister registers systems in order and panics on the first failure
func (s *Scheduler) MustRegister(systems ...System) {
	for _, system := range systems {
		if err := s.Register(system); err != nil {
			panic(err)
		}
	}
}

// Systems returns the registered systems in execution order
func (s *Scheduler) Systems() []System {
	systems := make([]System, len(s.systems))
	for i, entry := range s.systems {
		systems[i] = entry.system
	}
	return systems
}

// Frame counts completed calls to Once
func (s *Scheduler) Frame() uint64 {
	return s.frame
}

func (s *Scheduler) bindFields(system System) {
	v := reflect.ValueOf(system)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}
		if binder, ok := field.Addr().Interface().(storageBinder); ok {
			binder.Init(s.storage)
		}
	}
}

// Once runs every system with dt, then flushes the commands they deferred
func (s *Scheduler) Once(dt float64) {
	frame := &UpdateFrame{DeltaTime: dt, Commands: s.commands, Storage: s.storage}

	s.running = true
	defer func() { s.running = false }()

	for _, entry := range s.systems {
		start := time.Now()
		entry.system.Execute(frame)
		entry.stats.record(time.Since(start))
	}

	if err := frame.Commands.Flush(s.storage); err != nil {
		s.storage.log.Warn("deferred commands failed", zap.Uint64("frame", s.frame), zap.Error(err))
	}
	s.frame++
}

// Run calls Once on every tick of interval until ctx is done
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			s.Once(dt)
		}
	}
}

// GetStats returns a copy of the per-system timing records
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.systems),
		Systems:     make([]SystemStats, len(s.systems)),
	}
	for i, entry := range s.systems {
		stats.Systems[i] = entry.stats
		stats.TotalExecutions += entry.stats.ExecutionCount
	}
	return stats
}
