package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Point is a world position in scene files.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Scene describes the navigation grid and the actors placed on it.
type Scene struct {
	Grid      GridConfig   `yaml:"grid"`
	Obstacles []BoxConfig  `yaml:"obstacles"`
	Player    PlayerConfig `yaml:"player"`
	Agents    []Agent      `yaml:"agents"`
}

// GridConfig describes the walkability grid. Origin is the grid center.
type GridConfig struct {
	Origin   Point   `yaml:"origin"`
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	CellSize float64 `yaml:"cell_size"`

	// Layout rows, '#' blocked. Row 0 is grid Y 0.
	Layout []string `yaml:"layout"`

	// Walls are cell segments rasterized onto the grid.
	Walls []WallConfig `yaml:"walls"`
}

// WallConfig is a straight wall between two cells (inclusive).
type WallConfig struct {
	From [2]int `yaml:"from"`
	To   [2]int `yaml:"to"`
}

// BoxConfig is an axis-aligned box obstacle in world units.
type BoxConfig struct {
	Min Point `yaml:"min"`
	Max Point `yaml:"max"`
}

// PlayerConfig places the player.
type PlayerConfig struct {
	Name      string  `yaml:"name"`
	Position  Point   `yaml:"position"`
	MaxHealth int32   `yaml:"max_health"`
	Waypoints []Point `yaml:"waypoints"` // scripted walk, looped
	Speed     float64 `yaml:"speed"`

	// Counterattack against the nearest agent in range. Zero damage disables it.
	AttackDamage   int32         `yaml:"attack_damage"`
	AttackRange    float64       `yaml:"attack_range"`
	AttackCooldown time.Duration `yaml:"attack_cooldown"`
}

const (
	defaultPlayerAttackRange    = 1.5
	defaultPlayerAttackCooldown = time.Second
)

// Agent holds per-agent tuning.
type Agent struct {
	Name            string        `yaml:"name"`
	Position        Point         `yaml:"position"`
	MaxHealth       int32         `yaml:"max_health"`
	Damage          int32         `yaml:"damage"`
	Speed           float64       `yaml:"speed"`
	ChaseDistance   float64       `yaml:"chase_distance"`
	AttackDistance  float64       `yaml:"attack_distance"`
	PatrolPoints    []Point       `yaml:"patrol_points"`
	PatrolWait      time.Duration `yaml:"patrol_wait"`
	AttackCooldown  time.Duration `yaml:"attack_cooldown"`
	FleeHealthRatio float64       `yaml:"flee_health_ratio"`
	UsePathfinding  bool          `yaml:"use_pathfinding"`
}

// DefaultAgent returns agent tuning with sensible defaults.
func DefaultAgent() Agent {
	return Agent{
		Name:            "agent",
		MaxHealth:       50,
		Damage:          30,
		Speed:           4,
		ChaseDistance:   8,
		AttackDistance:  1.5,
		PatrolWait:      2 * time.Second,
		AttackCooldown:  time.Second,
		FleeHealthRatio: 0.25,
		UsePathfinding:  true,
	}
}

// UnmarshalYAML fills unset fields with DefaultAgent values.
func (a *Agent) UnmarshalYAML(node *yaml.Node) error {
	type plain Agent
	def := DefaultAgent()
	if err := node.Decode((*plain)(&def)); err != nil {
		return err
	}
	*a = def
	return nil
}

// DefaultScene returns a small open scene with one guard.
func DefaultScene() Scene {
	guard := DefaultAgent()
	guard.Name = "guard"
	guard.Position = Point{X: -5, Z: -5}
	guard.PatrolPoints = []Point{{X: -5, Z: -5}, {X: 5, Z: -5}, {X: 5, Z: 5}, {X: -5, Z: 5}}

	return Scene{
		Grid: GridConfig{
			Width:    20,
			Height:   20,
			CellSize: 1,
		},
		Player: PlayerConfig{
			Name:      "player",
			Position:  Point{X: 8, Z: 8},
			MaxHealth: 100,
			Speed:     3,
		},
		Agents: []Agent{guard},
	}
}

// LoadScene loads a scene from a YAML file.
// If the file doesn't exist, returns DefaultScene.
func LoadScene(path string) (Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultScene(), nil
		}
		return Scene{}, fmt.Errorf("reading scene %s: %w", path, err)
	}

	var scene Scene
	if err := yaml.Unmarshal(data, &scene); err != nil {
		return Scene{}, fmt.Errorf("parsing scene %s: %w", path, err)
	}

	if scene.Player.MaxHealth == 0 {
		scene.Player.MaxHealth = 100
	}
	if scene.Player.Name == "" {
		scene.Player.Name = "player"
	}
	if scene.Player.AttackDamage > 0 {
		if scene.Player.AttackRange == 0 {
			scene.Player.AttackRange = defaultPlayerAttackRange
		}
		if scene.Player.AttackCooldown == 0 {
			scene.Player.AttackCooldown = defaultPlayerAttackCooldown
		}
	}

	return scene, nil
}

// Validate checks grid geometry and agent tuning.
func (s Scene) Validate() error {
	g := s.Grid
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: grid size must be positive, got %dx%d", ErrInvalidConfig, g.Width, g.Height)
	}
	if g.CellSize <= 0 {
		return fmt.Errorf("%w: grid cell_size must be positive, got %v", ErrInvalidConfig, g.CellSize)
	}
	if len(g.Layout) > g.Height {
		return fmt.Errorf("%w: layout has %d rows, grid height is %d", ErrInvalidConfig, len(g.Layout), g.Height)
	}
	for i, row := range g.Layout {
		if len(row) > g.Width {
			return fmt.Errorf("%w: layout row %d has %d columns, grid width is %d", ErrInvalidConfig, i, len(row), g.Width)
		}
	}
	if s.Player.Speed < 0 {
		return fmt.Errorf("%w: player speed must not be negative", ErrInvalidConfig)
	}
	if s.Player.AttackDamage < 0 || s.Player.AttackRange < 0 || s.Player.AttackCooldown < 0 {
		return fmt.Errorf("%w: player attack settings must not be negative", ErrInvalidConfig)
	}

	names := make(map[string]struct{}, len(s.Agents))
	for i, a := range s.Agents {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("agent %d (%s): %w", i, a.Name, err)
		}
		if _, dup := names[a.Name]; dup {
			return fmt.Errorf("%w: duplicate agent name %q", ErrInvalidConfig, a.Name)
		}
		names[a.Name] = struct{}{}
	}
	return nil
}

// Validate checks agent tuning.
func (a Agent) Validate() error {
	switch {
	case a.MaxHealth <= 0:
		return fmt.Errorf("%w: max_health must be positive, got %d", ErrInvalidConfig, a.MaxHealth)
	case a.Damage < 0:
		return fmt.Errorf("%w: damage must not be negative, got %d", ErrInvalidConfig, a.Damage)
	case a.Speed < 0:
		return fmt.Errorf("%w: speed must not be negative, got %v", ErrInvalidConfig, a.Speed)
	case a.ChaseDistance < 0 || a.AttackDistance < 0:
		return fmt.Errorf("%w: distances must not be negative", ErrInvalidConfig)
	case a.AttackDistance > a.ChaseDistance:
		return fmt.Errorf("%w: attack_distance %v exceeds chase_distance %v", ErrInvalidConfig, a.AttackDistance, a.ChaseDistance)
	case a.PatrolWait < 0 || a.AttackCooldown < 0:
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	case a.FleeHealthRatio < 0 || a.FleeHealthRatio > 1:
		return fmt.Errorf("%w: flee_health_ratio must be in [0, 1], got %v", ErrInvalidConfig, a.FleeHealthRatio)
	}
	return nil
}
