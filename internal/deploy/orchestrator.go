package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AndyHydro/plasma-contracts/internal/config"
	"github.com/AndyHydro/plasma-contracts/internal/pkg/ulid"
)

// Dialer opens a deployment session against a network profile.
type Dialer interface {
	Dial(ctx context.Context, network config.NetworkProfile) (Session, error)
}

// Session submits contract creations to a connected network. Deploy blocks
// until the creation is confirmed or has failed.
type Session interface {
	Deploy(ctx context.Context, req Request) (*Deployment, error)
	Close()
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for progress lines.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver registers an observer for run events.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// Orchestrator executes migration plans one step at a time.
type Orchestrator struct {
	dialer    Dialer
	logger    *slog.Logger
	observers []Observer
	now       func() time.Time
	newRunID  func() string
}

// NewOrchestrator creates an orchestrator deploying through dialer.
func NewOrchestrator(dialer Dialer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		dialer:   dialer,
		logger:   slog.Default(),
		now:      time.Now,
		newRunID: ulid.New,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run carries the mutable state of a single Run call.
type run struct {
	id      string
	network string
	total   int
	status  Status
	record  *Record
}

// Run deploys steps in order against network and returns the record of what
// was deployed. The record is returned on failure too, holding only the
// steps that completed before it; nothing is rolled back.
//
// A malformed plan fails with *ConfigurationError before the network is
// dialed. A failed submission fails with *DeploymentFailure and no later step
// is attempted.
func (o *Orchestrator) Run(ctx context.Context, steps []Step, network config.NetworkProfile) (*Record, error) {
	r := &run{
		id:      o.newRunID(),
		network: network.Name,
		total:   len(steps),
		status:  Status{State: StateNotStarted, StepIndex: -1},
		record:  NewRecord(),
	}

	if err := Validate(steps); err != nil {
		return r.record, err
	}
	if err := o.transition(ctx, r, StateRunning, -1, EventRunStarted, nil, nil); err != nil {
		return r.record, err
	}

	o.logger.Info("starting migration",
		slog.String("run_id", r.id),
		slog.String("network", network.Name),
		slog.Int("steps", len(steps)),
	)

	session, err := o.dialer.Dial(ctx, network)
	if err != nil {
		return r.record, o.fail(ctx, r, 0, &steps[0], fmt.Errorf("connect to %s: %w", network.Name, err))
	}
	defer session.Close()

	for i := range steps {
		step := &steps[i]
		if err := o.transition(ctx, r, StateRunning, i, EventStepStarted, step, nil); err != nil {
			return r.record, err
		}

		entry, err := o.deployStep(ctx, session, r.record, step)
		if err != nil {
			return r.record, o.fail(ctx, r, i, step, err)
		}

		r.record.append(*entry)
		o.logger.Info(fmt.Sprintf("%s deployed at address: %s", step.Name, entry.Address),
			slog.String("run_id", r.id),
			slog.String("contract", entry.Contract),
			slog.String("tx_hash", entry.TxHash),
			slog.Uint64("gas_used", entry.GasUsed),
		)
		o.emit(ctx, r, EventStepCompleted, step, entry, nil)
	}

	if err := o.transition(ctx, r, StateCompleted, len(steps)-1, EventRunCompleted, nil, nil); err != nil {
		return r.record, err
	}

	o.logger.Info("migration completed",
		slog.String("run_id", r.id),
		slog.String("network", network.Name),
		slog.Int("deployed", r.record.Len()),
	)

	return r.record, nil
}

func (o *Orchestrator) deployStep(ctx context.Context, session Session, record *Record, step *Step) (*Entry, error) {
	args, err := resolve(*step, record)
	if err != nil {
		return nil, err
	}

	started := o.now()
	dep, err := session.Deploy(ctx, Request{
		Step:     step.Name,
		Contract: step.ContractName(),
		Args:     args,
	})
	if err != nil {
		return nil, err
	}
	if dep == nil || dep.Address == "" {
		return nil, ErrEmptyAddress
	}

	return &Entry{
		Name:        step.Name,
		Contract:    step.ContractName(),
		Address:     dep.Address,
		TxHash:      dep.TxHash,
		BlockNumber: dep.BlockNumber,
		GasUsed:     dep.GasUsed,
		GasPrice:    dep.GasPrice,
		Duration:    o.now().Sub(started),
	}, nil
}

// fail moves the run to Failed(index) and returns the DeploymentFailure.
func (o *Orchestrator) fail(ctx context.Context, r *run, index int, step *Step, cause error) error {
	failure := &DeploymentFailure{Step: step.Name, Index: index, Err: cause}

	o.logger.Error("migration step failed",
		slog.String("run_id", r.id),
		slog.String("network", r.network),
		slog.String("step", step.Name),
		slog.Int("index", index),
		slog.String("error", cause.Error()),
	)

	o.emit(ctx, r, EventStepFailed, step, nil, failure)
	if err := o.transition(ctx, r, StateFailed, index, EventRunFailed, step, failure); err != nil {
		return errors.Join(failure, err)
	}
	return failure
}

func (o *Orchestrator) transition(ctx context.Context, r *run, next State, index int, kind EventKind, step *Step, cause error) error {
	status, err := r.status.advance(next, index)
	if err != nil {
		return err
	}
	r.status = status
	o.emit(ctx, r, kind, step, nil, cause)
	return nil
}

func (o *Orchestrator) emit(ctx context.Context, r *run, kind EventKind, step *Step, entry *Entry, cause error) {
	if len(o.observers) == 0 {
		return
	}
	ev := Event{
		Kind:    kind,
		RunID:   r.id,
		Network: r.network,
		Status:  r.status,
		Total:   r.total,
		Step:    step,
		Entry:   entry,
		Err:     cause,
		At:      o.now(),
	}
	for _, obs := range o.observers {
		obs(ctx, ev)
	}
}
