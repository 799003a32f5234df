package repository

import (
	"context"
	"log/slog"
	"math"

	"github.com/AndyHydro/plasma-contracts/internal/deploy"
)

// Recorder writes run events to a Repository. Write failures are logged and
// never affect the run.
type Recorder struct {
	repo   Repository
	logger *slog.Logger
}

// NewRecorder creates a recorder.
func NewRecorder(repo Repository, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{repo: repo, logger: logger}
}

// Observe is a deploy.Observer.
func (r *Recorder) Observe(ctx context.Context, ev deploy.Event) {
	var err error
	switch ev.Kind {
	case deploy.EventRunStarted:
		err = r.repo.CreateRun(ctx, &Run{
			ID:         ev.RunID,
			Network:    ev.Network,
			Status:     StatusRunning,
			TotalSteps: ev.Total,
			StartedAt:  ev.At,
		})
	case deploy.EventStepCompleted:
		if ev.Entry == nil {
			return
		}
		err = r.repo.RecordStep(ctx, &Step{
			RunID:       ev.RunID,
			Position:    ev.Status.StepIndex,
			Name:        ev.Entry.Name,
			Contract:    ev.Entry.Contract,
			Address:     ev.Entry.Address,
			TxHash:      ev.Entry.TxHash,
			BlockNumber: clampInt64(ev.Entry.BlockNumber),
			GasUsed:     clampInt64(ev.Entry.GasUsed),
		})
	case deploy.EventRunCompleted:
		err = r.repo.FinishRun(ctx, ev.RunID, StatusCompleted, nil, nil)
	case deploy.EventRunFailed:
		var step, msg *string
		if ev.Step != nil {
			step = &ev.Step.Name
		}
		if ev.Err != nil {
			m := ev.Err.Error()
			msg = &m
		}
		err = r.repo.FinishRun(ctx, ev.RunID, StatusFailed, step, msg)
	default:
		return
	}

	if err != nil {
		r.logger.Warn("failed to record run history",
			slog.String("run_id", ev.RunID),
			slog.String("event", string(ev.Kind)),
			slog.String("error", err.Error()),
		)
	}
}

func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
