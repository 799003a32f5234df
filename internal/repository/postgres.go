package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// CreateRun inserts a run in the running state.
func (r *PostgresRepository) CreateRun(ctx context.Context, run *Run) error {
	if run.Status == "" {
		run.Status = StatusRunning
	}

	query := `
		INSERT INTO migration_runs (id, network, status, total_steps)
		VALUES ($1, $2, $3, $4)
		RETURNING started_at`

	err := r.pool.QueryRow(ctx, query, run.ID, run.Network, run.Status, run.TotalSteps).Scan(&run.StartedAt)
	if err != nil {
		return fmt.Errorf("CreateRun: %w", err)
	}
	return nil
}

// FinishRun sets the final status of a run.
func (r *PostgresRepository) FinishRun(ctx context.Context, id string, status Status, failedStep, errMsg *string) error {
	query := `
		UPDATE migration_runs
		SET status = $2, failed_step = $3, error_message = $4, finished_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, status, failedStep, errMsg)
	if err != nil {
		return fmt.Errorf("FinishRun: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordStep inserts a deployed step.
func (r *PostgresRepository) RecordStep(ctx context.Context, s *Step) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	query := `
		INSERT INTO migration_steps (id, run_id, position, name, contract, address, tx_hash, block_number, gas_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		s.ID, s.RunID, s.Position, s.Name, s.Contract, s.Address, s.TxHash, s.BlockNumber, s.GasUsed,
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("RecordStep: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs for a network, newest first.
func (r *PostgresRepository) ListRuns(ctx context.Context, network string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, network, status, total_steps, failed_step, error_message, started_at, finished_at
		FROM migration_runs
		WHERE network = $1
		ORDER BY started_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, network, limit)
	if err != nil {
		return nil, fmt.Errorf("ListRuns: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.ID, &run.Network, &run.Status, &run.TotalSteps,
			&run.FailedStep, &run.ErrorMessage, &run.StartedAt, &run.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("ListRuns scan: %w", err)
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListRuns rows: %w", err)
	}
	return runs, nil
}

// GetRunSteps returns the steps of a run in plan order.
func (r *PostgresRepository) GetRunSteps(ctx context.Context, runID string) ([]Step, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM migration_runs WHERE id = $1)`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("GetRunSteps: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	query := `
		SELECT id, run_id, position, name, contract, address, COALESCE(tx_hash, ''),
		       COALESCE(block_number, 0), COALESCE(gas_used, 0), created_at
		FROM migration_steps
		WHERE run_id = $1
		ORDER BY position`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("GetRunSteps: %w", err)
	}
	defer rows.Close()

	steps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Step, error) {
		var s Step
		err := row.Scan(&s.ID, &s.RunID, &s.Position, &s.Name, &s.Contract, &s.Address,
			&s.TxHash, &s.BlockNumber, &s.GasUsed, &s.CreatedAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("GetRunSteps scan: %w", err)
	}
	return steps, nil
}

var _ Repository = (*PostgresRepository)(nil)
