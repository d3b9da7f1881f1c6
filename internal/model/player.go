package model

import (
	"sync/atomic"

	"github.com/udisondev/npcmind/internal/geo"
)

// Player is the target agents hunt. Position is driven from outside the
// core (input, replay or a scripted path).
type Player struct {
	*Character // embedded

	damageTaken atomic.Int64
	hits        atomic.Int32
}

// NewPlayer creates a player at full health.
func NewPlayer(objectID uint32, name string, pos geo.Vec3, maxHP int32) *Player {
	return &Player{
		Character: NewCharacter(objectID, name, pos, maxHP),
	}
}

// TakeDamage applies damage and records hit statistics.
// Returns true for the lethal hit.
func (p *Player) TakeDamage(amount int32) bool {
	if amount > 0 {
		p.hits.Add(1)
		p.damageTaken.Add(int64(amount))
	}
	return p.Character.TakeDamage(amount)
}

// Hits returns how many damaging hits the player received.
func (p *Player) Hits() int32 {
	return p.hits.Load()
}

// DamageTaken returns the total damage received.
func (p *Player) DamageTaken() int64 {
	return p.damageTaken.Load()
}
