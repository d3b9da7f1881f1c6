package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate for out-of-range settings.
var ErrInvalidConfig = errors.New("invalid config")

// Simulation holds configuration for the simulator process.
type Simulation struct {
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	// Tick loop
	TickInterval    time.Duration `yaml:"tick_interval"`    // frame tick (default: 50ms)
	PhysicsInterval time.Duration `yaml:"physics_interval"` // physics step (default: 20ms)
	Workers         int           `yaml:"workers"`          // parallel controllers per tick
	Duration        time.Duration `yaml:"duration"`         // 0 = run until signal

	// Scene file with grid, player and agents
	Scene string `yaml:"scene"`

	// Behavior event journal
	Journal JournalConfig `yaml:"journal"`
}

// JournalConfig controls persisting behavior events to PostgreSQL.
type JournalConfig struct {
	Enabled       bool           `yaml:"enabled"`
	BufferSize    int            `yaml:"buffer_size"`    // events queued before drops
	BatchSize     int            `yaml:"batch_size"`     // events per COPY
	FlushInterval time.Duration  `yaml:"flush_interval"` // max time an event waits
	Database      DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultSimulation returns Simulation config with sensible defaults.
func DefaultSimulation() Simulation {
	return Simulation{
		LogLevel:        "info",
		TickInterval:    50 * time.Millisecond,
		PhysicsInterval: 20 * time.Millisecond,
		Workers:         4,
		Scene:           "config/scene.yaml",
		Journal: JournalConfig{
			BufferSize:    4096,
			BatchSize:     256,
			FlushInterval: time.Second,
			Database: DatabaseConfig{
				Host:     "127.0.0.1",
				Port:     5432,
				User:     "npcmind",
				Password: "npcmind",
				DBName:   "npcmind",
				SSLMode:  "disable",
			},
		},
	}
}

// LoadSimulation loads simulator config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadSimulation(path string) (Simulation, error) {
	cfg := DefaultSimulation()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the tick loop and journal settings.
func (c Simulation) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick_interval must be positive, got %v", ErrInvalidConfig, c.TickInterval)
	}
	if c.PhysicsInterval <= 0 {
		return fmt.Errorf("%w: physics_interval must be positive, got %v", ErrInvalidConfig, c.PhysicsInterval)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative, got %v", ErrInvalidConfig, c.Duration)
	}
	if c.Journal.Enabled {
		if c.Journal.BufferSize <= 0 || c.Journal.BatchSize <= 0 {
			return fmt.Errorf("%w: journal buffer_size and batch_size must be positive", ErrInvalidConfig)
		}
		if c.Journal.FlushInterval <= 0 {
			return fmt.Errorf("%w: journal flush_interval must be positive, got %v", ErrInvalidConfig, c.Journal.FlushInterval)
		}
	}
	return nil
}

// ParseLogLevel maps a config log level to slog.Level.
// Empty string means info.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, level)
	}
}
