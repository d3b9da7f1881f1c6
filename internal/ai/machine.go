package ai

import (
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/udisondev/npcmind/internal/geo"
	"github.com/udisondev/npcmind/internal/model"
)

// DamageFunc applies damage to the attack target.
// Injected so the machine does not depend on how targets store health.
type DamageFunc func(target model.Target, amount int32)

// MoveFunc applies a displacement to the agent during the physics step.
// Injected to plug in collision handling; the default translates directly.
type MoveFunc func(agent *model.Agent, delta geo.Vec3)

// Settings holds per-agent tuning.
type Settings struct {
	Speed           float64 // world units per second
	ChaseDistance   float64
	AttackDistance  float64
	FleeHealthRatio float64
	Damage          int32
	AttackCooldown  time.Duration
	PatrolPoints    []geo.Vec3
	PatrolWait      time.Duration
}

// DefaultSettings returns the stock agent tuning.
func DefaultSettings() Settings {
	return Settings{
		Speed:           4,
		ChaseDistance:   8,
		AttackDistance:  1.5,
		FleeHealthRatio: DefaultFleeHealthRatio,
		Damage:          30,
		AttackCooldown:  time.Second,
		PatrolWait:      2 * time.Second,
	}
}

// Thresholds returns the decision thresholds of these settings.
func (s Settings) Thresholds() Thresholds {
	return Thresholds{
		Chase:           s.ChaseDistance,
		Attack:          s.AttackDistance,
		FleeHealthRatio: s.FleeHealthRatio,
	}
}

// Option configures a Machine.
type Option func(*Machine)

// WithPathFinder enables grid navigation for patrol and chase.
// Without it agents steer in a straight line.
func WithPathFinder(pf *geo.PathFinder) Option {
	return func(m *Machine) { m.finder = pf }
}

// WithDamageFunc overrides how attacks are applied.
func WithDamageFunc(fn DamageFunc) Option {
	return func(m *Machine) {
		if fn != nil {
			m.damageFunc = fn
		}
	}
}

// WithMoveFunc overrides how the physics step moves the agent.
func WithMoveFunc(fn MoveFunc) Option {
	return func(m *Machine) {
		if fn != nil {
			m.moveFunc = fn
		}
	}
}

// WithObserver sets the event observer.
func WithObserver(obs Observer) Option {
	return func(m *Machine) { m.observer = obs }
}

// Machine is the behavior state machine of one agent.
// Tick and PhysicsTick must not be called concurrently for the same machine;
// CurrentBehavior may be read from any goroutine.
type Machine struct {
	agent      *model.Agent
	settings   Settings
	thresholds Thresholds

	finder     *geo.PathFinder
	damageFunc DamageFunc
	moveFunc   MoveFunc
	observer   Observer
	factory    func(model.Behavior, *Machine) State

	isRunning atomic.Bool
	behavior  atomic.Int32
	current   State

	pendingDamage atomic.Int32 // queued by QueueDamage, applied on the next Tick

	// simulated time at the start of the current tick
	now time.Duration

	// state data that outlives a single state instance
	patrolIndex int
	waitTimer   time.Duration
	lastAttack  time.Duration
	hasAttacked bool
}

// NewMachine creates a state machine for agent. Call Init before ticking.
func NewMachine(agent *model.Agent, settings Settings, opts ...Option) *Machine {
	m := &Machine{
		agent:      agent,
		settings:   settings,
		thresholds: settings.Thresholds(),
		damageFunc: applyDamage,
		moveFunc:   translate,
		factory:    newState,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Agent returns the driven agent.
func (m *Machine) Agent() *model.Agent { return m.agent }

// Settings returns the agent tuning.
func (m *Machine) Settings() Settings { return m.settings }

// Now returns the simulated time at the start of the current tick.
func (m *Machine) Now() time.Duration { return m.now }

// Init activates the machine in Patrol. Calling Init on a running machine is a no-op.
func (m *Machine) Init() {
	if !m.isRunning.CompareAndSwap(false, true) {
		return
	}
	if m.current == nil {
		m.setState(model.BehaviorPatrol)
		m.current.Enter()
	}

	if IsDebugEnabled() {
		slog.Debug("AI started",
			"agent", m.agent.Name(),
			"objectID", m.agent.ObjectID(),
			"patrolPoints", len(m.settings.PatrolPoints),
			"pathfinding", m.finder != nil)
	}
}

// Stop halts the machine. The active state is kept so Init resumes it.
func (m *Machine) Stop() {
	m.isRunning.Store(false)
	m.agent.SetDirection(geo.Vec3{})
}

// IsRunning reports whether the machine is active.
func (m *Machine) IsRunning() bool {
	return m.isRunning.Load()
}

// CurrentBehavior returns the label of the active state.
func (m *Machine) CurrentBehavior() model.Behavior {
	return model.Behavior(m.behavior.Load())
}

// Tick runs one frame: apply queued damage, decide, transition if the label
// changed, update. Dead or stopped agents are skipped.
func (m *Machine) Tick(dt time.Duration) {
	if !m.isRunning.Load() || m.current == nil {
		return
	}
	if amount := m.pendingDamage.Swap(0); amount > 0 {
		m.TakeDamage(amount)
	}
	if m.agent.IsDead() {
		m.agent.SetDirection(geo.Vec3{})
		return
	}

	want := m.thresholds.Evaluate(m.targetDistance(), HealthRatio(m.agent.CurrentHP(), m.agent.MaxHP()))
	if want != m.current.Behavior() {
		m.transition(want)
	}

	m.current.Update(dt)
	m.now += dt
}

// PhysicsTick moves the agent along its direction by speed*dt.
func (m *Machine) PhysicsTick(dt time.Duration) {
	if !m.isRunning.Load() || m.agent.IsDead() {
		return
	}
	dir := m.agent.Direction()
	if dir.IsZero() {
		return
	}
	m.moveFunc(m.agent, dir.Scale(m.settings.Speed*dt.Seconds()))
}

// TakeDamage applies incoming damage to the agent and notifies the observer.
// Returns true for the lethal hit; the machine stops afterwards.
// Must be called from the goroutine that ticks the machine.
func (m *Machine) TakeDamage(amount int32) bool {
	if amount <= 0 || m.agent.IsDead() {
		return false
	}

	died := m.agent.TakeDamage(amount)
	m.emit(Event{Kind: EventDamaged, Amount: amount})

	if died {
		m.emit(Event{Kind: EventDied})
		m.Stop()
		slog.Info("agent died",
			"agent", m.agent.Name(),
			"objectID", m.agent.ObjectID())
	}
	return died
}

// QueueDamage schedules incoming damage for the start of the next Tick.
// Safe for concurrent use.
func (m *Machine) QueueDamage(amount int32) {
	if amount > 0 {
		m.pendingDamage.Add(amount)
	}
}

// transition runs Exit on the old state and Enter on the new one.
func (m *Machine) transition(to model.Behavior) {
	from := m.current.Behavior()
	m.current.Exit()
	m.setState(to)
	m.current.Enter()

	m.emit(Event{Kind: EventTransition, From: from, To: to})
}

func (m *Machine) setState(b model.Behavior) {
	m.current = m.factory(b, m)
	m.behavior.Store(int32(m.current.Behavior()))
}

// targetDistance returns the distance to the target, or +Inf without one.
func (m *Machine) targetDistance() float64 {
	target := m.agent.Target()
	if target == nil {
		return math.Inf(1)
	}
	return m.agent.DistanceTo(target)
}

// cooldownReady reports whether an attack may fire at the current time.
func (m *Machine) cooldownReady() bool {
	return !m.hasAttacked || m.now-m.lastAttack >= m.settings.AttackCooldown
}

// steerToward sets a planar direction toward dest, via the grid when attached.
func (m *Machine) steerToward(dest geo.Vec3) {
	pos := m.agent.Position()
	next := dest
	if m.finder != nil {
		next = m.finder.NextStep(pos, dest)
	}
	m.agent.SetDirection(geo.PlanarDirection(pos, next))
}

func (m *Machine) emit(e Event) {
	e.AgentID = m.agent.ObjectID()
	e.Agent = m.agent.Name()
	e.Position = m.agent.Position()
	e.At = m.now
	if e.Kind != EventTransition {
		e.From = m.CurrentBehavior()
		e.To = e.From
	}

	debugEvent(e)
	if m.observer != nil {
		m.observer(e)
	}
}

func applyDamage(target model.Target, amount int32) {
	if d, ok := target.(model.Damageable); ok {
		d.TakeDamage(amount)
	}
}

func translate(agent *model.Agent, delta geo.Vec3) {
	agent.Translate(delta)
}
