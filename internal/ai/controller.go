package ai

import (
	"time"

	"github.com/udisondev/npcmind/internal/model"
)

// Controller represents an AI controller driven by the TickManager.
type Controller interface {
	// Init activates the controller in its initial behavior
	Init()

	// Tick runs one frame tick
	Tick(dt time.Duration)

	// PhysicsTick runs one fixed physics step
	PhysicsTick(dt time.Duration)

	// Stop deactivates the controller
	Stop()

	// CurrentBehavior returns the active behavior label
	CurrentBehavior() model.Behavior
}

var _ Controller = (*Machine)(nil)
