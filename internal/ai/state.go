package ai

import (
	"time"

	"github.com/udisondev/npcmind/internal/geo"
	"github.com/udisondev/npcmind/internal/model"
)

// PatrolArrivalRadius is the planar distance at which a waypoint counts as reached.
const PatrolArrivalRadius = 0.3

// State is one behavior of the state machine.
// Exactly one State is active per agent; Enter and Exit bracket its lifetime.
type State interface {
	// Behavior returns the label of this state
	Behavior() model.Behavior

	// Enter is called once when the state becomes active
	Enter()

	// Update runs one frame tick
	Update(dt time.Duration)

	// Exit is called once when the state is replaced
	Exit()
}

// newState creates the state for a behavior label.
// Unknown labels fall back to patrol.
func newState(b model.Behavior, m *Machine) State {
	switch b {
	case model.BehaviorChase:
		return &chaseState{m: m}
	case model.BehaviorAttack:
		return &attackState{m: m}
	case model.BehaviorFlee:
		return &fleeState{m: m}
	default:
		return &patrolState{m: m}
	}
}

// patrolState walks the waypoint cycle, waiting at each point.
// Waypoint index and wait timer live on the Machine so re-entering patrol
// resumes where it left off.
type patrolState struct {
	m *Machine
}

func (s *patrolState) Behavior() model.Behavior { return model.BehaviorPatrol }

func (s *patrolState) Enter() {
	s.m.agent.SetDirection(geo.Vec3{})
}

func (s *patrolState) Update(dt time.Duration) {
	m := s.m
	points := m.settings.PatrolPoints
	if len(points) == 0 {
		m.agent.SetDirection(geo.Vec3{})
		return
	}

	m.patrolIndex %= len(points)
	dest := points[m.patrolIndex]
	pos := m.agent.Position()

	if pos.Flatten().Distance(dest.Flatten()) < PatrolArrivalRadius {
		m.agent.SetDirection(geo.Vec3{})
		m.waitTimer += dt
		if m.waitTimer >= m.settings.PatrolWait {
			m.patrolIndex = (m.patrolIndex + 1) % len(points)
			m.waitTimer = 0
		}
		return
	}

	m.steerToward(dest)
}

func (s *patrolState) Exit() {}

// chaseState steers toward the target, around obstacles when a grid is attached.
type chaseState struct {
	m *Machine
}

func (s *chaseState) Behavior() model.Behavior { return model.BehaviorChase }

func (s *chaseState) Enter() {}

func (s *chaseState) Update(time.Duration) {
	target := s.m.agent.Target()
	if target == nil {
		s.m.agent.SetDirection(geo.Vec3{})
		return
	}
	s.m.steerToward(target.Position())
}

func (s *chaseState) Exit() {}

// attackState holds position and hits the target when the cooldown allows.
type attackState struct {
	m *Machine
}

func (s *attackState) Behavior() model.Behavior { return model.BehaviorAttack }

func (s *attackState) Enter() {
	s.m.agent.SetDirection(geo.Vec3{})
}

func (s *attackState) Update(time.Duration) {
	m := s.m
	m.agent.SetDirection(geo.Vec3{})

	target := m.agent.Target()
	if target == nil {
		return
	}
	if !m.cooldownReady() {
		return
	}

	m.damageFunc(target, m.settings.Damage)
	m.lastAttack = m.now
	m.hasAttacked = true

	m.emit(Event{
		Kind:     EventAttack,
		TargetID: target.ObjectID(),
		Amount:   m.settings.Damage,
	})
}

func (s *attackState) Exit() {}

// fleeState runs straight away from the target. Obstacles are ignored.
type fleeState struct {
	m *Machine
}

func (s *fleeState) Behavior() model.Behavior { return model.BehaviorFlee }

func (s *fleeState) Enter() {}

func (s *fleeState) Update(time.Duration) {
	target := s.m.agent.Target()
	if target == nil {
		s.m.agent.SetDirection(geo.Vec3{})
		return
	}
	s.m.agent.SetDirection(geo.PlanarDirection(target.Position(), s.m.agent.Position()))
}

func (s *fleeState) Exit() {}
