package repository

import "context"

// Repository defines run history operations.
type Repository interface {
	CreateRun(ctx context.Context, r *Run) error
	FinishRun(ctx context.Context, id string, status Status, failedStep, errMsg *string) error
	RecordStep(ctx context.Context, s *Step) error
	ListRuns(ctx context.Context, network string, limit int) ([]*Run, error)
	GetRunSteps(ctx context.Context, runID string) ([]Step, error)
}
