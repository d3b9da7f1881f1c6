package ai

import (
	"time"

	"github.com/udisondev/npcmind/internal/geo"
	"github.com/udisondev/npcmind/internal/model"
)

// EventKind classifies a state machine notification.
type EventKind uint8

const (
	// EventTransition - active behavior changed (From -> To)
	EventTransition EventKind = iota + 1
	// EventAttack - agent hit its target for Amount
	EventAttack
	// EventDamaged - agent received Amount damage (drives hit flash)
	EventDamaged
	// EventDied - agent health reached zero
	EventDied
)

// String returns the kind name used in logs and the journal.
func (k EventKind) String() string {
	switch k {
	case EventTransition:
		return "transition"
	case EventAttack:
		return "attack"
	case EventDamaged:
		return "damaged"
	case EventDied:
		return "died"
	default:
		return "unknown"
	}
}

// Event is a fire-and-forget notification emitted during a tick.
type Event struct {
	Kind     EventKind
	AgentID  uint32
	Agent    string
	From     model.Behavior
	To       model.Behavior
	TargetID uint32
	Amount   int32
	Position geo.Vec3
	At       time.Duration // simulated time of the agent's clock
}

// Observer receives events synchronously from the ticking goroutine.
// When a TickManager ticks agents in parallel, an Observer shared between
// agents must be safe for concurrent use and must not block.
type Observer func(Event)

// Observers fans one event out to several observers.
func Observers(obs ...Observer) Observer {
	return func(e Event) {
		for _, o := range obs {
			if o != nil {
				o(e)
			}
		}
	}
}
