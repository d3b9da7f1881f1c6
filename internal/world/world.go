package world

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/npcmind/internal/ai"
	"github.com/udisondev/npcmind/internal/config"
	"github.com/udisondev/npcmind/internal/geo"
	"github.com/udisondev/npcmind/internal/model"
)

// World is one simulated scene: a navigation grid, the player and the agents
// hunting it. Agents are driven by the TickManager passed to Build.
type World struct {
	grid   *geo.Grid
	finder *geo.PathFinder

	player *model.Player
	driver *PlayerDriver

	machines []*ai.Machine
	agents   sync.Map // map[uint32]*model.Agent (objectID → agent)
	byName   map[string]*ai.Machine

	manager *ai.TickManager
	ids     *ObjectIDGenerator

	playerMu sync.Mutex // serializes player driver steps and strikes
	attack   playerAttack
}

// playerAttack is the player's counterattack: every cooldown it hits the
// nearest live agent within range. Guarded by World.playerMu.
type playerAttack struct {
	damage   int32
	rng      float64
	cooldown time.Duration

	clock      time.Duration
	lastStrike time.Duration
	hasStruck  bool
}

// Build creates the world described by scene and registers every agent
// with manager. obs receives events of all agents and may be nil.
func Build(scene config.Scene, manager *ai.TickManager, obs ai.Observer) (*World, error) {
	if err := scene.Validate(); err != nil {
		return nil, fmt.Errorf("validating scene: %w", err)
	}

	grid, err := BuildGrid(scene.Grid, scene.Obstacles)
	if err != nil {
		return nil, err
	}

	w := &World{
		grid:    grid,
		finder:  geo.NewPathFinder(grid),
		manager: manager,
		ids:     NewObjectIDGenerator(),
		byName:  make(map[string]*ai.Machine, len(scene.Agents)),
	}

	pc := scene.Player
	w.player = model.NewPlayer(w.ids.NextPlayerID(), pc.Name, toVec(pc.Position), pc.MaxHealth)
	w.driver = NewPlayerDriver(w.player, toVecs(pc.Waypoints), pc.Speed)
	w.attack = playerAttack{
		damage:   pc.AttackDamage,
		rng:      pc.AttackRange,
		cooldown: pc.AttackCooldown,
	}

	for _, ac := range scene.Agents {
		w.spawn(ac, obs)
	}

	slog.Info("world built",
		"grid", fmt.Sprintf("%dx%d", grid.Width(), grid.Height()),
		"walkable", grid.WalkableCount(),
		"agents", len(w.machines),
		"player", w.player.Name())

	return w, nil
}

func (w *World) spawn(ac config.Agent, obs ai.Observer) {
	agent := model.NewAgent(w.ids.NextAgentID(), ac.Name, toVec(ac.Position), ac.MaxHealth)
	agent.SetTarget(w.player)

	opts := []ai.Option{
		ai.WithDamageFunc(w.damagePlayer),
		ai.WithObserver(obs),
	}
	if ac.UsePathfinding {
		opts = append(opts, ai.WithPathFinder(w.finder))
	}

	m := ai.NewMachine(agent, SettingsFor(ac), opts...)
	w.machines = append(w.machines, m)
	w.agents.Store(agent.ObjectID(), agent)
	w.byName[ac.Name] = m
	w.manager.Register(agent.ObjectID(), m)
}

// SettingsFor converts scene tuning to state machine settings.
func SettingsFor(ac config.Agent) ai.Settings {
	return ai.Settings{
		Speed:           ac.Speed,
		ChaseDistance:   ac.ChaseDistance,
		AttackDistance:  ac.AttackDistance,
		FleeHealthRatio: ac.FleeHealthRatio,
		Damage:          ac.Damage,
		AttackCooldown:  ac.AttackCooldown,
		PatrolPoints:    toVecs(ac.PatrolPoints),
		PatrolWait:      ac.PatrolWait,
	}
}

// damagePlayer is the damage sink of every agent. A lethal hit clears all
// agent targets so the agents go back to patrolling.
func (w *World) damagePlayer(target model.Target, amount int32) {
	p, ok := target.(*model.Player)
	if !ok {
		return
	}
	if !p.TakeDamage(amount) {
		return
	}

	slog.Info("player died", "player", p.Name(), "hits", p.Hits(), "damage", p.DamageTaken())
	w.agents.Range(func(_, value any) bool {
		value.(*model.Agent).ClearTarget()
		return true
	})
}

// StepPlayer advances the scripted player by dt and lets it strike back.
// Damage reaches the agent on its next tick.
func (w *World) StepPlayer(dt time.Duration) {
	w.playerMu.Lock()
	defer w.playerMu.Unlock()

	w.driver.Step(dt)
	w.strike()
	w.attack.clock += dt
}

func (w *World) strike() {
	a := &w.attack
	if a.damage <= 0 || w.player.IsDead() {
		return
	}
	if a.hasStruck && a.clock-a.lastStrike < a.cooldown {
		return
	}

	m := w.nearestInRange(a.rng)
	if m == nil {
		return
	}
	m.QueueDamage(a.damage)
	a.lastStrike = a.clock
	a.hasStruck = true

	slog.Debug("player strikes",
		"player", w.player.Name(),
		"agent", m.Agent().Name(),
		"damage", a.damage)
}

// nearestInRange returns the closest live agent within rng of the player, or nil.
func (w *World) nearestInRange(rng float64) *ai.Machine {
	var (
		best     *ai.Machine
		bestDist = rng
	)
	for _, m := range w.machines {
		agent := m.Agent()
		if agent.IsDead() || !m.IsRunning() {
			continue
		}
		if _, ok := w.agents.Load(agent.ObjectID()); !ok {
			continue
		}
		if d := agent.DistanceTo(w.player); d <= bestDist {
			best, bestDist = m, d
		}
	}
	return best
}

// Advance runs one deterministic step: player, agent decisions, physics.
func (w *World) Advance(dt time.Duration) error {
	w.StepPlayer(dt)
	return w.manager.Advance(dt)
}

// Despawn removes an agent from the world and stops its controller.
func (w *World) Despawn(objectID uint32) {
	if _, ok := w.agents.LoadAndDelete(objectID); !ok {
		return
	}
	w.manager.Unregister(objectID)
}

// Grid returns the navigation grid.
func (w *World) Grid() *geo.Grid { return w.grid }

// PathFinder returns the shared path finder.
func (w *World) PathFinder() *geo.PathFinder { return w.finder }

// Player returns the player.
func (w *World) Player() *model.Player { return w.player }

// Machines returns the state machines in spawn order.
func (w *World) Machines() []*ai.Machine { return w.machines }

// Machine returns the state machine of the named agent.
func (w *World) Machine(name string) (*ai.Machine, bool) {
	m, ok := w.byName[name]
	return m, ok
}

// Agent returns the agent with objectID.
func (w *World) Agent(objectID uint32) (*model.Agent, bool) {
	v, ok := w.agents.Load(objectID)
	if !ok {
		return nil, false
	}
	return v.(*model.Agent), true
}

// Census counts live agents per behavior.
func (w *World) Census() map[model.Behavior]int {
	out := make(map[model.Behavior]int, len(model.Behaviors))
	for _, m := range w.machines {
		if m.Agent().IsDead() || !m.IsRunning() {
			continue
		}
		out[m.CurrentBehavior()]++
	}
	return out
}
