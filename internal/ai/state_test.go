package ai

import (
	"testing"

	"github.com/udisondev/npcmind/internal/geo"
	"github.com/udisondev/npcmind/internal/model"
)

func TestNewState(t *testing.T) {
	m := NewMachine(newTestAgent(geo.Vec3{}), DefaultSettings())

	for _, b := range model.Behaviors {
		if got := newState(b, m).Behavior(); got != b {
			t.Errorf("newState(%v).Behavior() = %v", b, got)
		}
	}

	if got := newState(model.Behavior(42), m).Behavior(); got != model.BehaviorPatrol {
		t.Errorf("newState(unknown).Behavior() = %v, want PATROL", got)
	}
}

func TestStates_MissingTarget(t *testing.T) {
	tests := []struct {
		name     string
		behavior model.Behavior
	}{
		{"chase", model.BehaviorChase},
		{"attack", model.BehaviorAttack},
		{"flee", model.BehaviorFlee},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := newTestAgent(geo.Vec3{})
			calls := 0
			m := NewMachine(agent, DefaultSettings(), WithDamageFunc(func(model.Target, int32) {
				calls++
			}))

			s := newState(tt.behavior, m)
			s.Enter()
			agent.SetDirection(geo.Vec3{X: 1})
			s.Update(frame)

			if !agent.Direction().IsZero() {
				t.Errorf("Direction() = %+v, want zero", agent.Direction())
			}
			if calls != 0 {
				t.Errorf("damage calls = %d, want 0", calls)
			}
		})
	}
}

func TestAttackState_EnterZeroesDirection(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})
	agent.SetDirection(geo.Vec3{X: 1})

	m := NewMachine(agent, DefaultSettings())
	newState(model.BehaviorAttack, m).Enter()

	if !agent.Direction().IsZero() {
		t.Errorf("Direction() = %+v, want zero", agent.Direction())
	}
}

func TestFleeState_IgnoresGrid(t *testing.T) {
	agent := newTestAgent(geo.Vec3{X: 1.5, Z: 0.5})
	agent.SetTarget(newTestPlayer(geo.Vec3{X: 2.5, Z: 0.5}))

	// cell 0 behind the agent is a wall; flee still points into it
	grid, err := geo.NewGrid(geo.Vec3{X: 1.5, Z: 0.5}, 3, 1, 1, geo.Boxes{
		{Min: geo.Vec3{X: 0, Z: 0}, Max: geo.Vec3{X: 1, Z: 1}},
	})
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}

	m := NewMachine(agent, DefaultSettings(), WithPathFinder(geo.NewPathFinder(grid)))
	newState(model.BehaviorFlee, m).Update(frame)

	if got := agent.Direction(); got != (geo.Vec3{X: -1}) {
		t.Errorf("Direction() = %+v, want (-1,0,0)", got)
	}
}

func TestChaseState_UnreachableTargetHolds(t *testing.T) {
	grid, err := geo.NewGrid(geo.Vec3{X: 1.5, Z: 0.5}, 3, 1, 1, geo.Boxes{
		{Min: geo.Vec3{X: 1, Z: 0}, Max: geo.Vec3{X: 2, Z: 1}},
	})
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}

	agent := newTestAgent(geo.Vec3{X: 0.5, Z: 0.5})
	agent.SetTarget(newTestPlayer(geo.Vec3{X: 2.5, Z: 0.5}))

	m := NewMachine(agent, DefaultSettings(), WithPathFinder(geo.NewPathFinder(grid)))
	s := newState(model.BehaviorChase, m)
	s.Update(frame)

	if !agent.Direction().IsZero() {
		t.Errorf("Direction() toward unreachable target = %+v, want zero", agent.Direction())
	}
}

func TestStates_AgentOnTarget(t *testing.T) {
	grid, err := geo.NewGrid(geo.Vec3{X: 2.5, Z: 2.5}, 5, 5, 1, nil)
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}

	tests := []struct {
		name     string
		behavior model.Behavior
		target   geo.Vec3
		finder   bool
	}{
		{"flee same point", model.BehaviorFlee, geo.Vec3{X: 2.5, Z: 2.5}, false},
		{"flee target above", model.BehaviorFlee, geo.Vec3{X: 2.5, Y: 3, Z: 2.5}, false},
		{"chase same point", model.BehaviorChase, geo.Vec3{X: 2.5, Z: 2.5}, false},
		{"chase target above", model.BehaviorChase, geo.Vec3{X: 2.5, Y: 3, Z: 2.5}, false},
		{"chase target above on grid", model.BehaviorChase, geo.Vec3{X: 2.5, Y: 3, Z: 2.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := newTestAgent(geo.Vec3{X: 2.5, Z: 2.5})
			agent.SetDirection(geo.Vec3{X: 1})
			agent.SetTarget(newTestPlayer(tt.target))

			var opts []Option
			if tt.finder {
				opts = append(opts, WithPathFinder(geo.NewPathFinder(grid)))
			}
			m := NewMachine(agent, DefaultSettings(), opts...)
			newState(tt.behavior, m).Update(frame)

			if got := agent.Direction(); !got.IsZero() {
				t.Errorf("Direction() = %+v, want zero", got)
			}
		})
	}
}
