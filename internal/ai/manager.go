package ai

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTickInterval is the frame tick period (20 Hz).
	DefaultTickInterval = 50 * time.Millisecond
	// DefaultPhysicsInterval is the fixed physics step (50 Hz).
	DefaultPhysicsInterval = 20 * time.Millisecond
)

// TickManager drives frame and physics ticks for all registered controllers.
// Controllers are ticked in parallel; each controller is ticked by at most one
// goroutine at a time and frame and physics phases never overlap.
type TickManager struct {
	controllers     sync.Map // map[uint32]Controller (objectID → controller)
	controllerCount atomic.Int32

	tickInterval    time.Duration
	physicsInterval time.Duration
	workers         int

	stepMu   sync.Mutex // serializes phases
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewTickManager creates a tick manager. Non-positive arguments fall back to defaults.
func NewTickManager(tickInterval, physicsInterval time.Duration, workers int) *TickManager {
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	if physicsInterval <= 0 {
		physicsInterval = DefaultPhysicsInterval
	}
	if workers <= 0 {
		workers = 1
	}
	return &TickManager{
		tickInterval:    tickInterval,
		physicsInterval: physicsInterval,
		workers:         workers,
		stopCh:          make(chan struct{}),
	}
}

// Register registers and initializes a controller.
// Replaces a controller already registered under the same objectID.
func (m *TickManager) Register(objectID uint32, controller Controller) {
	if prev, loaded := m.controllers.Swap(objectID, controller); loaded {
		prev.(Controller).Stop()
	} else {
		m.controllerCount.Add(1)
	}
	controller.Init()

	slog.Debug("AI controller registered",
		"objectID", objectID,
		"behavior", controller.CurrentBehavior())
}

// Unregister stops and removes a controller.
func (m *TickManager) Unregister(objectID uint32) {
	value, ok := m.controllers.LoadAndDelete(objectID)
	if !ok {
		return
	}
	m.controllerCount.Add(-1)
	value.(Controller).Stop()

	slog.Debug("AI controller unregistered", "objectID", objectID)
}

// Start runs the tick loops until ctx is canceled or Stop is called.
func (m *TickManager) Start(ctx context.Context) error {
	frame := time.NewTicker(m.tickInterval)
	defer frame.Stop()
	physics := time.NewTicker(m.physicsInterval)
	defer physics.Stop()

	slog.Info("AI tick manager started",
		"tickInterval", m.tickInterval,
		"physicsInterval", m.physicsInterval,
		"workers", m.workers)

	lastFrame := time.Now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("AI tick manager stopping")
			return ctx.Err()

		case <-m.stopCh:
			slog.Info("AI tick manager stopped")
			return nil

		case now := <-frame.C:
			dt := now.Sub(lastFrame)
			lastFrame = now
			if err := m.Step(dt); err != nil {
				slog.Error("AI tick failed", "error", err)
			}

		case <-physics.C:
			if err := m.PhysicsStep(m.physicsInterval); err != nil {
				slog.Error("AI physics step failed", "error", err)
			}
		}
	}
}

// Stop stops the tick loop. Safe to call more than once.
func (m *TickManager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Step runs one frame tick on every controller.
func (m *TickManager) Step(dt time.Duration) error {
	return m.forEach(func(c Controller) { c.Tick(dt) })
}

// PhysicsStep runs one physics step on every controller.
func (m *TickManager) PhysicsStep(dt time.Duration) error {
	return m.forEach(func(c Controller) { c.PhysicsTick(dt) })
}

// Advance runs one frame tick followed by one physics step of the same length.
// Used by fixed-step simulations and tests.
func (m *TickManager) Advance(dt time.Duration) error {
	if err := m.Step(dt); err != nil {
		return err
	}
	return m.PhysicsStep(dt)
}

// forEach fans fn out over the registered controllers.
// A panicking controller is reported as an error; the others still run.
func (m *TickManager) forEach(fn func(Controller)) error {
	m.stepMu.Lock()
	defer m.stepMu.Unlock()

	var eg errgroup.Group
	eg.SetLimit(m.workers)

	count := 0
	m.controllers.Range(func(key, value any) bool {
		objectID := key.(uint32)
		controller := value.(Controller)
		count++
		eg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("controller %d panicked: %v\n%s", objectID, r, debug.Stack())
				}
			}()
			fn(controller)
			return nil
		})
		return true
	})

	err := eg.Wait()
	if count > 0 && IsDebugEnabled() {
		slog.Debug("AI tick completed", "controllers", count)
	}
	return err
}

// Count returns the number of registered controllers.
func (m *TickManager) Count() int {
	return int(m.controllerCount.Load())
}

// GetController returns the controller registered for objectID.
func (m *TickManager) GetController(objectID uint32) (Controller, error) {
	value, ok := m.controllers.Load(objectID)
	if !ok {
		return nil, fmt.Errorf("controller not found for objectID %d", objectID)
	}
	return value.(Controller), nil
}
