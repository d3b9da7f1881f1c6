package model

import (
	"sync"

	"github.com/udisondev/npcmind/internal/geo"
)

// Character is a living WorldObject: it has health and can die.
type Character struct {
	*WorldObject // embedded

	hpMu      sync.RWMutex
	currentHP int32
	maxHP     int32
	dead      bool // set by the lethal hit; guarded by hpMu
}

// NewCharacter creates a character at full health.
// maxHP is floored at 1.
func NewCharacter(objectID uint32, name string, pos geo.Vec3, maxHP int32) *Character {
	maxHP = max(maxHP, 1)
	return &Character{
		WorldObject: NewWorldObject(objectID, name, pos),
		currentHP:   maxHP,
		maxHP:       maxHP,
	}
}

// CurrentHP returns current health.
func (c *Character) CurrentHP() int32 {
	c.hpMu.RLock()
	defer c.hpMu.RUnlock()
	return c.currentHP
}

// MaxHP returns maximum health.
func (c *Character) MaxHP() int32 {
	c.hpMu.RLock()
	defer c.hpMu.RUnlock()
	return c.maxHP
}

// SetCurrentHP sets health, clamped to [0, maxHP].
// Raising health above zero lets the next lethal hit be reported again.
func (c *Character) SetCurrentHP(hp int32) {
	c.hpMu.Lock()
	defer c.hpMu.Unlock()
	c.currentHP = min(max(hp, 0), c.maxHP)
	c.dead = c.currentHP == 0
}

// IsDead reports whether health has reached zero.
func (c *Character) IsDead() bool {
	return c.CurrentHP() <= 0
}

// TakeDamage reduces health by amount (minimum 0).
// Returns true only for the hit that killed the character.
//
// Thread-safe: many agents may hit the same character in one frame.
func (c *Character) TakeDamage(amount int32) bool {
	if amount <= 0 {
		return false
	}

	c.hpMu.Lock()
	defer c.hpMu.Unlock()

	if c.dead {
		return false
	}
	c.currentHP = max(c.currentHP-amount, 0)
	c.dead = c.currentHP == 0
	return c.dead
}
