package model

import (
	"sync"

	"github.com/udisondev/npcmind/internal/geo"
)

// Target is anything an agent can chase, attack or flee from.
type Target interface {
	ObjectID() uint32
	Position() geo.Vec3
}

// Damageable is a Target that can receive damage.
type Damageable interface {
	Target
	// TakeDamage applies damage and reports whether this hit was lethal.
	TakeDamage(amount int32) bool
}

// WorldObject is the base of every positioned object in the simulation.
type WorldObject struct {
	objectID uint32
	name     string
	position geo.Vec3

	mu sync.RWMutex
}

// NewWorldObject creates a new object at pos.
func NewWorldObject(objectID uint32, name string, pos geo.Vec3) *WorldObject {
	return &WorldObject{
		objectID: objectID,
		name:     name,
		position: pos,
	}
}

// ObjectID returns the unique object ID (immutable after creation).
func (w *WorldObject) ObjectID() uint32 {
	return w.objectID
}

// Name returns the object name.
func (w *WorldObject) Name() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.name
}

// SetName sets the object name.
func (w *WorldObject) SetName(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.name = name
}

// Position returns a copy of the object's world position.
func (w *WorldObject) Position() geo.Vec3 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.position
}

// SetPosition moves the object to pos.
func (w *WorldObject) SetPosition(pos geo.Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.position = pos
}

// Translate moves the object by delta and returns the new position.
func (w *WorldObject) Translate(delta geo.Vec3) geo.Vec3 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.position = w.position.Add(delta)
	return w.position
}

// DistanceTo returns the Euclidean distance to another target.
func (w *WorldObject) DistanceTo(t Target) float64 {
	return w.Position().Distance(t.Position())
}
