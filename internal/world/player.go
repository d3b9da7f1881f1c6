package world

import (
	"time"

	"github.com/udisondev/npcmind/internal/geo"
	"github.com/udisondev/npcmind/internal/model"
)

// waypointRadius is the distance at which the scripted player switches waypoints.
const waypointRadius = 0.1

// PlayerDriver walks the player along a looped waypoint route.
// Not safe for concurrent use; the world calls it from its own goroutine.
type PlayerDriver struct {
	player    *model.Player
	waypoints []geo.Vec3
	speed     float64
	next      int
}

// NewPlayerDriver creates a driver. No waypoints or zero speed keeps the player in place.
func NewPlayerDriver(player *model.Player, waypoints []geo.Vec3, speed float64) *PlayerDriver {
	return &PlayerDriver{
		player:    player,
		waypoints: waypoints,
		speed:     speed,
	}
}

// Step moves the player toward the current waypoint by speed*dt.
func (d *PlayerDriver) Step(dt time.Duration) {
	if len(d.waypoints) == 0 || d.speed <= 0 || d.player.IsDead() {
		return
	}

	budget := d.speed * dt.Seconds()
	for range len(d.waypoints) {
		pos := d.player.Position()
		dest := d.waypoints[d.next]
		dist := pos.Distance(dest)

		if dist <= waypointRadius {
			d.next = (d.next + 1) % len(d.waypoints)
			continue
		}
		if budget >= dist {
			d.player.SetPosition(dest)
			d.next = (d.next + 1) % len(d.waypoints)
			return
		}
		d.player.Translate(dest.Sub(pos).Normalize().Scale(budget))
		return
	}
}
