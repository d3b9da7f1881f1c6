package model

import (
	"sync"

	"github.com/udisondev/npcmind/internal/geo"
)

// Agent is an autonomous NPC driven by a behavior state machine.
// The state machine writes Direction every tick; the physics step reads it.
type Agent struct {
	*Character // embedded

	agentMu   sync.RWMutex
	direction geo.Vec3
	target    Target
}

// NewAgent creates an agent at full health without a target.
func NewAgent(objectID uint32, name string, pos geo.Vec3, maxHP int32) *Agent {
	return &Agent{
		Character: NewCharacter(objectID, name, pos, maxHP),
	}
}

// Direction returns the planar movement direction set for this tick.
// The zero vector means "no movement".
func (a *Agent) Direction() geo.Vec3 {
	a.agentMu.RLock()
	defer a.agentMu.RUnlock()
	return a.direction
}

// SetDirection sets the movement direction.
func (a *Agent) SetDirection(dir geo.Vec3) {
	a.agentMu.Lock()
	defer a.agentMu.Unlock()
	a.direction = dir
}

// Target returns the current target, or nil.
func (a *Agent) Target() Target {
	a.agentMu.RLock()
	defer a.agentMu.RUnlock()
	return a.target
}

// SetTarget sets the current target. A nil target clears it.
func (a *Agent) SetTarget(t Target) {
	a.agentMu.Lock()
	defer a.agentMu.Unlock()
	a.target = t
}

// ClearTarget removes the current target.
func (a *Agent) ClearTarget() {
	a.SetTarget(nil)
}
