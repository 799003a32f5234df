// Package repository persists the history of migration runs.
package repository

import (
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one invocation of the migrator against a network.
type Run struct {
	ID           string     `json:"id"`
	Network      string     `json:"network"`
	Status       Status     `json:"status"`
	TotalSteps   int        `json:"total_steps"`
	FailedStep   *string    `json:"failed_step,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// Step is a contract deployed by a run.
type Step struct {
	ID          uuid.UUID `json:"id"`
	RunID       string    `json:"run_id"`
	Position    int       `json:"position"`
	Name        string    `json:"name"`
	Contract    string    `json:"contract"`
	Address     string    `json:"address"`
	TxHash      string    `json:"tx_hash,omitempty"`
	BlockNumber int64     `json:"block_number,omitempty"`
	GasUsed     int64     `json:"gas_used,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
