package ai

import (
	"math"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/udisondev/npcmind/internal/geo"
	"github.com/udisondev/npcmind/internal/model"
	"github.com/udisondev/npcmind/internal/testutil"
)

const frame = 100 * time.Millisecond

func newTestAgent(pos geo.Vec3) *model.Agent {
	return model.NewAgent(1, "Guard", pos, 50)
}

func newTestPlayer(pos geo.Vec3) *model.Player {
	return model.NewPlayer(100, "Player", pos, 1000)
}

// recordingState wraps a real state and logs lifecycle calls.
type recordingState struct {
	inner State
	log   *[]string
}

func (s *recordingState) Behavior() model.Behavior { return s.inner.Behavior() }

func (s *recordingState) Enter() {
	*s.log = append(*s.log, "enter "+s.inner.Behavior().String())
	s.inner.Enter()
}

func (s *recordingState) Update(dt time.Duration) {
	*s.log = append(*s.log, "update "+s.inner.Behavior().String())
	s.inner.Update(dt)
}

func (s *recordingState) Exit() {
	*s.log = append(*s.log, "exit "+s.inner.Behavior().String())
	s.inner.Exit()
}

func TestMachine_InitStartsInPatrol(t *testing.T) {
	m := NewMachine(newTestAgent(geo.Vec3{}), DefaultSettings())

	if m.IsRunning() {
		t.Error("IsRunning() before Init() = true, want false")
	}

	m.Init()
	m.Init() // second call is a no-op

	if !m.IsRunning() {
		t.Error("IsRunning() after Init() = false, want true")
	}
	if m.CurrentBehavior() != model.BehaviorPatrol {
		t.Errorf("CurrentBehavior() = %v, want PATROL", m.CurrentBehavior())
	}
}

func TestMachine_TransitionHygiene(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})
	player := newTestPlayer(geo.Vec3{X: 5})
	agent.SetTarget(player)

	var log []string
	m := NewMachine(agent, DefaultSettings())
	m.factory = func(b model.Behavior, m *Machine) State {
		return &recordingState{inner: newState(b, m), log: &log}
	}

	m.Init()
	for i := range 4 {
		if i%2 == 0 {
			player.SetPosition(geo.Vec3{X: 5}) // chase
		} else {
			player.SetPosition(geo.Vec3{X: 20}) // patrol
		}
		m.Tick(frame)
	}

	want := []string{
		"enter PATROL",
		"exit PATROL", "enter CHASE", "update CHASE",
		"exit CHASE", "enter PATROL", "update PATROL",
		"exit PATROL", "enter CHASE", "update CHASE",
		"exit CHASE", "enter PATROL", "update PATROL",
	}
	if !slices.Equal(log, want) {
		t.Errorf("lifecycle log mismatch\ngot:  %v\nwant: %v", log, want)
	}
}

func TestMachine_NoTransitionWhenLabelUnchanged(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})
	agent.SetTarget(newTestPlayer(geo.Vec3{X: 5}))

	var log []string
	m := NewMachine(agent, DefaultSettings())
	m.factory = func(b model.Behavior, m *Machine) State {
		return &recordingState{inner: newState(b, m), log: &log}
	}

	m.Init()
	for range 3 {
		m.Tick(frame)
	}

	want := []string{
		"enter PATROL",
		"exit PATROL", "enter CHASE", "update CHASE",
		"update CHASE",
		"update CHASE",
	}
	if !slices.Equal(log, want) {
		t.Errorf("lifecycle log mismatch\ngot:  %v\nwant: %v", log, want)
	}
}

func TestMachine_AttackCooldown(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})
	player := newTestPlayer(geo.Vec3{X: 1})
	agent.SetTarget(player)

	var (
		m    *Machine
		hits []time.Duration
	)
	m = NewMachine(agent, DefaultSettings(), WithDamageFunc(func(target model.Target, amount int32) {
		if target.ObjectID() != player.ObjectID() {
			t.Errorf("damage target = %d, want %d", target.ObjectID(), player.ObjectID())
		}
		if amount != 30 {
			t.Errorf("damage amount = %d, want 30", amount)
		}
		hits = append(hits, m.Now())
	}))
	m.Init()

	// t = 0.0 .. 2.0 inclusive
	for range 21 {
		m.Tick(frame)
	}

	want := []time.Duration{0, time.Second, 2 * time.Second}
	if !slices.Equal(hits, want) {
		t.Errorf("damage times = %v, want %v", hits, want)
	}
	if m.CurrentBehavior() != model.BehaviorAttack {
		t.Errorf("CurrentBehavior() = %v, want ATTACK", m.CurrentBehavior())
	}
}

func TestMachine_CooldownSurvivesStateChange(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})
	player := newTestPlayer(geo.Vec3{X: 1})
	agent.SetTarget(player)

	var (
		m    *Machine
		hits []time.Duration
	)
	m = NewMachine(agent, DefaultSettings(), WithDamageFunc(func(model.Target, int32) {
		hits = append(hits, m.Now())
	}))
	m.Init()

	m.Tick(frame) // t=0, first hit

	player.SetPosition(geo.Vec3{X: 5})
	for range 3 {
		m.Tick(frame) // chase
	}
	if m.CurrentBehavior() != model.BehaviorChase {
		t.Fatalf("CurrentBehavior() = %v, want CHASE", m.CurrentBehavior())
	}

	player.SetPosition(geo.Vec3{X: 1})
	for range 7 {
		m.Tick(frame) // t=0.4 .. 1.0
	}

	want := []time.Duration{0, time.Second}
	if !slices.Equal(hits, want) {
		t.Errorf("damage times = %v, want %v", hits, want)
	}
}

func TestMachine_AttackAppliesDamageToTarget(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})
	player := newTestPlayer(geo.Vec3{X: 1})
	agent.SetTarget(player)

	m := NewMachine(agent, DefaultSettings())
	m.Init()
	m.Tick(frame)

	if player.CurrentHP() != 970 {
		t.Errorf("player CurrentHP() = %d, want 970", player.CurrentHP())
	}
	if player.Hits() != 1 {
		t.Errorf("player Hits() = %d, want 1", player.Hits())
	}
}

func TestMachine_PatrolWaitAndCycle(t *testing.T) {
	a := geo.Vec3{}
	b := geo.Vec3{X: 10}
	agent := newTestAgent(a)

	settings := DefaultSettings()
	settings.PatrolPoints = []geo.Vec3{a, b}
	m := NewMachine(agent, settings)
	m.Init()

	for range 19 {
		m.Tick(frame)
	}
	if m.patrolIndex != 0 {
		t.Fatalf("patrolIndex after 1.9s = %d, want 0", m.patrolIndex)
	}
	if !agent.Direction().IsZero() {
		t.Errorf("Direction() while waiting = %+v, want zero", agent.Direction())
	}

	m.Tick(frame) // wait reaches 2s
	if m.patrolIndex != 1 {
		t.Fatalf("patrolIndex after 2.0s = %d, want 1", m.patrolIndex)
	}

	m.Tick(frame)
	if got := agent.Direction(); !testutil.VecNear(got, geo.Vec3{X: 1}, 1e-9) {
		t.Errorf("Direction() toward B = %+v, want (1,0,0)", got)
	}

	// arrive at B and wrap back to A
	agent.SetPosition(geo.Vec3{X: 9.8})
	for range 20 {
		m.Tick(frame)
	}
	if m.patrolIndex != 0 {
		t.Errorf("patrolIndex after waiting at B = %d, want 0", m.patrolIndex)
	}
}

func TestMachine_PatrolIndexSurvivesChase(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})
	player := newTestPlayer(geo.Vec3{X: 50})
	agent.SetTarget(player)

	settings := DefaultSettings()
	settings.PatrolPoints = []geo.Vec3{{}, {X: -10}}
	m := NewMachine(agent, settings)
	m.Init()

	for range 20 {
		m.Tick(frame)
	}
	if m.patrolIndex != 1 {
		t.Fatalf("patrolIndex = %d, want 1", m.patrolIndex)
	}

	player.SetPosition(geo.Vec3{X: 5})
	m.Tick(frame)
	player.SetPosition(geo.Vec3{X: 50})
	m.Tick(frame)

	if m.CurrentBehavior() != model.BehaviorPatrol {
		t.Fatalf("CurrentBehavior() = %v, want PATROL", m.CurrentBehavior())
	}
	if m.patrolIndex != 1 {
		t.Errorf("patrolIndex after chase = %d, want 1", m.patrolIndex)
	}
	if got := agent.Direction(); !testutil.VecNear(got, geo.Vec3{X: -1}, 1e-9) {
		t.Errorf("Direction() = %+v, want (-1,0,0)", got)
	}
}

func TestMachine_PatrolWithoutPointsHolds(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})
	agent.SetDirection(geo.Vec3{X: 1})

	m := NewMachine(agent, DefaultSettings())
	m.Init()
	m.Tick(frame)

	if !agent.Direction().IsZero() {
		t.Errorf("Direction() = %+v, want zero", agent.Direction())
	}
}

func TestMachine_ChaseStraightLine(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})
	agent.SetTarget(newTestPlayer(geo.Vec3{X: 3, Y: 5, Z: 4}))

	m := NewMachine(agent, DefaultSettings())
	m.Init()
	m.Tick(frame)

	if m.CurrentBehavior() != model.BehaviorChase {
		t.Fatalf("CurrentBehavior() = %v, want CHASE", m.CurrentBehavior())
	}
	want := geo.Vec3{X: 0.6, Z: 0.8}
	if got := agent.Direction(); !testutil.VecNear(got, want, 1e-9) {
		t.Errorf("Direction() = %+v, want %+v", got, want)
	}
}

func TestMachine_ChaseWithPathFinder(t *testing.T) {
	grid := testutil.LayoutGrid(t,
		".....",
		".###.",
		".....",
	)
	pf := geo.NewPathFinder(grid)

	start := testutil.CellCenter(2, 0)
	goal := testutil.CellCenter(2, 2)

	agent := newTestAgent(start)
	agent.SetTarget(newTestPlayer(goal))

	m := NewMachine(agent, DefaultSettings(), WithPathFinder(pf))
	m.Init()
	m.Tick(frame)

	if m.CurrentBehavior() != model.BehaviorChase {
		t.Fatalf("CurrentBehavior() = %v, want CHASE", m.CurrentBehavior())
	}

	got := agent.Direction()
	want := geo.PlanarDirection(start, pf.NextStep(start, goal))
	if !testutil.VecNear(got, want, 1e-9) {
		t.Errorf("Direction() = %+v, want %+v", got, want)
	}
	// the wall blocks the straight line, so the first step is sideways
	if math.Abs(got.Z) > 1e-9 || math.Abs(math.Abs(got.X)-1) > 1e-9 {
		t.Errorf("Direction() = %+v, want sideways step around the wall", got)
	}
}

func TestMachine_FleeDirection(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})
	agent.SetCurrentHP(10) // 0.2 of 50
	agent.SetTarget(newTestPlayer(geo.Vec3{X: 3, Z: 4}))

	m := NewMachine(agent, DefaultSettings())
	m.Init()
	m.Tick(frame)

	if m.CurrentBehavior() != model.BehaviorFlee {
		t.Fatalf("CurrentBehavior() = %v, want FLEE", m.CurrentBehavior())
	}
	want := geo.Vec3{X: -0.6, Z: -0.8}
	if got := agent.Direction(); !testutil.VecNear(got, want, 1e-9) {
		t.Errorf("Direction() = %+v, want %+v", got, want)
	}
}

func TestMachine_FleeWithTargetOverhead(t *testing.T) {
	agent := newTestAgent(geo.Vec3{X: 2, Z: 2})
	agent.SetCurrentHP(10)
	agent.SetTarget(newTestPlayer(geo.Vec3{X: 2, Y: 3, Z: 2}))

	m := NewMachine(agent, DefaultSettings())
	m.Init()
	m.Tick(frame)

	if m.CurrentBehavior() != model.BehaviorFlee {
		t.Fatalf("CurrentBehavior() = %v, want FLEE", m.CurrentBehavior())
	}
	if got := agent.Direction(); !got.IsZero() {
		t.Errorf("Direction() = %+v, want zero", got)
	}
}

func TestMachine_NoTarget(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})
	m := NewMachine(agent, DefaultSettings())
	m.Init()

	m.Tick(frame)
	if m.CurrentBehavior() != model.BehaviorPatrol {
		t.Errorf("CurrentBehavior() without target = %v, want PATROL", m.CurrentBehavior())
	}

	agent.SetCurrentHP(5)
	m.Tick(frame)
	if m.CurrentBehavior() != model.BehaviorFlee {
		t.Errorf("CurrentBehavior() without target and low health = %v, want FLEE", m.CurrentBehavior())
	}
	if !agent.Direction().IsZero() {
		t.Errorf("Direction() = %+v, want zero", agent.Direction())
	}
}

func TestMachine_NoHysteresis(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})
	player := newTestPlayer(geo.Vec3{})
	agent.SetTarget(player)

	transitions := 0
	m := NewMachine(agent, DefaultSettings(), WithObserver(func(e Event) {
		if e.Kind == EventTransition {
			transitions++
		}
	}))
	m.Init()

	for i := range 10 {
		if i%2 == 0 {
			player.SetPosition(geo.Vec3{X: 7.9})
		} else {
			player.SetPosition(geo.Vec3{X: 8.1})
		}
		m.Tick(frame)
	}

	if transitions != 10 {
		t.Errorf("transitions = %d, want 10 (one per tick at the chase boundary)", transitions)
	}
}

func TestMachine_TransitionEvents(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})
	player := newTestPlayer(geo.Vec3{X: 1})
	agent.SetTarget(player)

	var events []Event
	m := NewMachine(agent, DefaultSettings(), WithObserver(func(e Event) {
		events = append(events, e)
	}))
	m.Init()
	m.Tick(frame)

	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}

	tr := events[0]
	if tr.Kind != EventTransition || tr.From != model.BehaviorPatrol || tr.To != model.BehaviorAttack {
		t.Errorf("events[0] = %+v, want PATROL -> ATTACK transition", tr)
	}
	if tr.AgentID != agent.ObjectID() || tr.Agent != "Guard" {
		t.Errorf("events[0] agent = %d/%q, want %d/Guard", tr.AgentID, tr.Agent, agent.ObjectID())
	}

	atk := events[1]
	if atk.Kind != EventAttack || atk.TargetID != player.ObjectID() || atk.Amount != 30 {
		t.Errorf("events[1] = %+v, want attack on %d for 30", atk, player.ObjectID())
	}
}

func TestMachine_PhysicsTick(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})
	m := NewMachine(agent, DefaultSettings())

	agent.SetDirection(geo.Vec3{X: 1})
	m.PhysicsTick(500 * time.Millisecond)
	if agent.Position() != (geo.Vec3{}) {
		t.Errorf("Position() before Init = %+v, want origin", agent.Position())
	}

	m.Init()
	agent.SetDirection(geo.Vec3{X: 1})
	m.PhysicsTick(500 * time.Millisecond)

	want := geo.Vec3{X: 2}
	if got := agent.Position(); !testutil.VecNear(got, want, 1e-9) {
		t.Errorf("Position() = %+v, want %+v", got, want)
	}
}

func TestMachine_MoveFunc(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})

	var moved geo.Vec3
	m := NewMachine(agent, DefaultSettings(), WithMoveFunc(func(_ *model.Agent, delta geo.Vec3) {
		moved = delta
	}))
	m.Init()
	agent.SetDirection(geo.Vec3{Z: 1})
	m.PhysicsTick(250 * time.Millisecond)

	if !testutil.VecNear(moved, geo.Vec3{Z: 1}, 1e-9) {
		t.Errorf("delta = %+v, want (0,0,1)", moved)
	}
	if agent.Position() != (geo.Vec3{}) {
		t.Errorf("Position() = %+v, want unchanged", agent.Position())
	}
}

func TestMachine_DeadAgentStopsTicking(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})
	agent.SetTarget(newTestPlayer(geo.Vec3{X: 5}))

	events := 0
	m := NewMachine(agent, DefaultSettings(), WithObserver(func(Event) { events++ }))
	m.Init()

	agent.TakeDamage(50)
	agent.SetDirection(geo.Vec3{X: 1})

	m.Tick(frame)
	m.PhysicsTick(frame)

	if m.CurrentBehavior() != model.BehaviorPatrol {
		t.Errorf("CurrentBehavior() = %v, want PATROL", m.CurrentBehavior())
	}
	if events != 0 {
		t.Errorf("events = %d, want 0", events)
	}
	if agent.Position() != (geo.Vec3{}) {
		t.Errorf("Position() = %+v, want origin", agent.Position())
	}
	if m.Now() != 0 {
		t.Errorf("Now() = %v, want 0", m.Now())
	}
}

func TestMachine_TakeDamage(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})

	var kinds []EventKind
	m := NewMachine(agent, DefaultSettings(), WithObserver(func(e Event) {
		kinds = append(kinds, e.Kind)
	}))
	m.Init()

	if m.TakeDamage(20) {
		t.Error("TakeDamage(20) = true, want false")
	}
	if !m.TakeDamage(40) {
		t.Error("TakeDamage(40) = false, want true (lethal)")
	}
	if m.TakeDamage(5) {
		t.Error("TakeDamage on dead agent = true, want false")
	}
	if m.TakeDamage(0) {
		t.Error("TakeDamage(0) = true, want false")
	}

	want := []EventKind{EventDamaged, EventDamaged, EventDied}
	if !slices.Equal(kinds, want) {
		t.Errorf("event kinds = %v, want %v", kinds, want)
	}
	if m.IsRunning() {
		t.Error("IsRunning() after death = true, want false")
	}
}

func TestMachine_QueueDamage(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})
	agent.SetTarget(newTestPlayer(geo.Vec3{X: 5}))

	var kinds []EventKind
	m := NewMachine(agent, DefaultSettings(), WithObserver(func(e Event) {
		kinds = append(kinds, e.Kind)
	}))
	m.Init()

	m.QueueDamage(15)
	m.QueueDamage(25)
	m.QueueDamage(-3)
	if agent.CurrentHP() != 50 {
		t.Fatalf("CurrentHP() before Tick = %d, want 50", agent.CurrentHP())
	}

	m.Tick(frame)
	if agent.CurrentHP() != 10 {
		t.Errorf("CurrentHP() after Tick = %d, want 10", agent.CurrentHP())
	}
	if m.CurrentBehavior() != model.BehaviorFlee {
		t.Errorf("CurrentBehavior() = %v, want FLEE", m.CurrentBehavior())
	}
	if len(kinds) == 0 || kinds[0] != EventDamaged {
		t.Errorf("first event = %v, want damaged", kinds)
	}

	m.QueueDamage(10)
	m.Tick(frame)
	if !agent.IsDead() || m.IsRunning() {
		t.Errorf("after lethal queued damage: dead=%v running=%v", agent.IsDead(), m.IsRunning())
	}
	if kinds[len(kinds)-1] != EventDied {
		t.Errorf("last event = %v, want died", kinds[len(kinds)-1])
	}
}

func TestMachine_QueueDamageConcurrent(t *testing.T) {
	agent := model.NewAgent(1, "Guard", geo.Vec3{}, 10000)
	m := NewMachine(agent, DefaultSettings())
	m.Init()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.QueueDamage(10)
		}()
	}
	wg.Wait()

	m.Tick(frame)
	if agent.CurrentHP() != 10000-500 {
		t.Errorf("CurrentHP() = %d, want %d", agent.CurrentHP(), 10000-500)
	}
}

func TestMachine_StopAndResume(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})
	agent.SetTarget(newTestPlayer(geo.Vec3{X: 5}))

	m := NewMachine(agent, DefaultSettings())
	m.Init()
	m.Tick(frame)

	m.Stop()
	if !agent.Direction().IsZero() {
		t.Errorf("Direction() after Stop = %+v, want zero", agent.Direction())
	}
	m.Tick(frame)
	if m.Now() != frame {
		t.Errorf("Now() after stopped tick = %v, want %v", m.Now(), frame)
	}

	m.Init()
	if m.CurrentBehavior() != model.BehaviorChase {
		t.Errorf("CurrentBehavior() after resume = %v, want CHASE", m.CurrentBehavior())
	}
}

func TestMachine_ChaseThenAttack(t *testing.T) {
	agent := newTestAgent(geo.Vec3{})
	player := newTestPlayer(geo.Vec3{X: 5})
	agent.SetTarget(player)

	m := NewMachine(agent, DefaultSettings())
	m.Init()

	// 0.4 units per step: attack range is reached on tick 9, then hits every second
	for range 30 {
		m.Tick(frame)
		m.PhysicsTick(frame)
	}

	if m.CurrentBehavior() != model.BehaviorAttack {
		t.Errorf("CurrentBehavior() = %v, want ATTACK", m.CurrentBehavior())
	}
	if player.Hits() != 3 {
		t.Errorf("player Hits() = %d, want 3", player.Hits())
	}
	if d := agent.DistanceTo(player); d > 1.5 || d < 1.3 {
		t.Errorf("distance = %v, want just inside attack range", d)
	}
}

func BenchmarkMachine_TickChase(b *testing.B) {
	grid := testutil.LayoutGrid(b,
		"..........",
		"..######..",
		"..........",
		"..........",
	)
	agent := newTestAgent(testutil.CellCenter(0, 0))
	agent.SetTarget(newTestPlayer(testutil.CellCenter(5, 2)))

	m := NewMachine(agent, DefaultSettings(), WithPathFinder(geo.NewPathFinder(grid)))
	m.Init()

	for b.Loop() {
		m.Tick(frame)
	}
}
