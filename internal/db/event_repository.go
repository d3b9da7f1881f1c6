package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/npcmind/internal/ai"
)

// EventRow is a persisted behavior event.
type EventRow struct {
	ID        int64
	RunID     uuid.UUID
	Kind      string
	AgentID   uint32
	AgentName string
	FromState string
	ToState   string
	TargetID  uint32
	Amount    int32
	X, Y, Z   float64
	SimTime   time.Duration
}

// EventRepository stores behavior events in PostgreSQL.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates a new event repository.
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: pool}
}

// InsertEvents bulk-inserts events of one run via COPY.
func (r *EventRepository) InsertEvents(ctx context.Context, runID uuid.UUID, events []ai.Event) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(events))
	for _, e := range events {
		rows = append(rows, []any{
			runID,
			e.Kind.String(),
			int64(e.AgentID),
			e.Agent,
			e.From.String(),
			e.To.String(),
			int64(e.TargetID),
			e.Amount,
			e.Position.X, e.Position.Y, e.Position.Z,
			e.At.Milliseconds(),
		})
	}

	_, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"behavior_events"},
		[]string{
			"run_id", "kind", "agent_id", "agent_name", "from_state", "to_state",
			"target_id", "amount", "pos_x", "pos_y", "pos_z", "sim_time_ms",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("inserting %d behavior events for run %s: %w", len(events), runID, err)
	}

	slog.Debug("saved behavior events", "runID", runID, "count", len(events))
	return nil
}

// CountByKind returns the number of events per kind for a run.
func (r *EventRepository) CountByKind(ctx context.Context, runID uuid.UUID) (map[string]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT kind, count(*) FROM behavior_events WHERE run_id = $1 GROUP BY kind`, runID)
	if err != nil {
		return nil, fmt.Errorf("counting events for run %s: %w", runID, err)
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var (
			kind  string
			count int64
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scanning event count: %w", err)
		}
		result[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event counts: %w", err)
	}
	return result, nil
}

// ListByAgent returns up to limit events of one agent ordered by simulated time.
func (r *EventRepository) ListByAgent(ctx context.Context, runID uuid.UUID, agentID uint32, limit int) ([]EventRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, run_id, kind, agent_id, agent_name, from_state, to_state,
		       target_id, amount, pos_x, pos_y, pos_z, sim_time_ms
		FROM behavior_events
		WHERE run_id = $1 AND agent_id = $2
		ORDER BY sim_time_ms, id
		LIMIT $3`, runID, int64(agentID), limit)
	if err != nil {
		return nil, fmt.Errorf("querying events of agent %d: %w", agentID, err)
	}
	defer rows.Close()

	var result []EventRow
	for rows.Next() {
		var (
			row              EventRow
			agentIDv, target int64
			simMs            int64
		)
		if err := rows.Scan(&row.ID, &row.RunID, &row.Kind, &agentIDv, &row.AgentName,
			&row.FromState, &row.ToState, &target, &row.Amount,
			&row.X, &row.Y, &row.Z, &simMs); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		row.AgentID = uint32(agentIDv)
		row.TargetID = uint32(target)
		row.SimTime = time.Duration(simMs) * time.Millisecond
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event rows: %w", err)
	}
	return result, nil
}
