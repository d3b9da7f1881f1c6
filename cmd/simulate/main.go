package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/npcmind/internal/ai"
	"github.com/udisondev/npcmind/internal/config"
	"github.com/udisondev/npcmind/internal/db"
	"github.com/udisondev/npcmind/internal/model"
	"github.com/udisondev/npcmind/internal/world"
)

const (
	SimulationConfigPath = "config/simulation.yaml"
	statusInterval       = time.Second
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := SimulationConfigPath
	if p := os.Getenv("NPCMIND_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadSimulation(cfgPath)
	if err != nil {
		return fmt.Errorf("loading simulation config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating simulation config: %w", err)
	}

	logLevel, _ := config.ParseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
	ai.EnableDebugLogging(logLevel == slog.LevelDebug)

	slog.Info("npcmind simulator starting", "log_level", cfg.LogLevel, "config", cfgPath)

	scenePath := cfg.Scene
	if p := os.Getenv("NPCMIND_SCENE"); p != "" {
		scenePath = p
	}
	scene, err := config.LoadScene(scenePath)
	if err != nil {
		return fmt.Errorf("loading scene: %w", err)
	}

	var journal *db.Journal
	if cfg.Journal.Enabled {
		dsn := cfg.Journal.Database.DSN()

		database, err := db.New(ctx, dsn)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, dsn); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		journal = db.NewJournal(db.NewEventRepository(database.Pool()), uuid.New(), db.JournalOptions{
			BufferSize:    cfg.Journal.BufferSize,
			BatchSize:     cfg.Journal.BatchSize,
			FlushInterval: cfg.Journal.FlushInterval,
		})
		slog.Info("behavior journal enabled", "runID", journal.RunID())
	}

	manager := ai.NewTickManager(cfg.TickInterval, cfg.PhysicsInterval, cfg.Workers)

	var observer ai.Observer
	if journal != nil {
		observer = journal.Observe
	}
	w, err := world.Build(scene, manager, observer)
	if err != nil {
		return fmt.Errorf("building world: %w", err)
	}

	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return manager.Start(gctx)
	})

	g.Go(func() error {
		return drivePlayer(gctx, w, cfg.TickInterval)
	})

	g.Go(func() error {
		return reportStatus(gctx, w)
	})

	if journal != nil {
		g.Go(func() error {
			return journal.Run(gctx)
		})
	}

	slog.Info("simulation running",
		"agents", manager.Count(),
		"tickInterval", cfg.TickInterval,
		"duration", cfg.Duration)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	logSummary(w)
	return nil
}

// drivePlayer moves the scripted player until ctx is canceled.
func drivePlayer(ctx context.Context, w *world.World, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			w.StepPlayer(now.Sub(last))
			last = now
		}
	}
}

// reportStatus periodically logs how many agents are in each behavior.
func reportStatus(ctx context.Context, w *world.World) error {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			census := w.Census()
			player := w.Player()
			slog.Info("status",
				"patrol", census[model.BehaviorPatrol],
				"chase", census[model.BehaviorChase],
				"attack", census[model.BehaviorAttack],
				"flee", census[model.BehaviorFlee],
				"playerHP", player.CurrentHP())
		}
	}
}

func logSummary(w *world.World) {
	player := w.Player()
	slog.Info("simulation finished",
		"playerHP", player.CurrentHP(),
		"playerMaxHP", player.MaxHP(),
		"hits", player.Hits(),
		"damage", player.DamageTaken())

	for _, m := range w.Machines() {
		agent := m.Agent()
		slog.Info("agent",
			"name", agent.Name(),
			"behavior", m.CurrentBehavior(),
			"hp", agent.CurrentHP(),
			"position", fmt.Sprintf("(%.2f, %.2f, %.2f)", agent.Position().X, agent.Position().Y, agent.Position().Z))
	}
}
