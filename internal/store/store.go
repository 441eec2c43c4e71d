// Package store defines the RunStore interface for recording finished
// simulation runs.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound means no stored run matches the requested ID.
	ErrNotFound = errors.New("run not found")

	// ErrAmbiguousID means an ID prefix matches more than one run.
	ErrAmbiguousID = errors.New("run ID prefix is ambiguous")
)

// Run is one recorded simulation.
type Run struct {
	ID           string        `json:"id"`
	StartedAt    time.Time     `json:"started_at"`
	TopologyPath string        `json:"topology_path"`
	TopologyHash string        `json:"topology_hash"`
	Ticks        int           `json:"ticks"`
	Counts       []int         `json:"counts"`
	Truncated    bool          `json:"truncated"`
	Duration     time.Duration `json:"duration"`
}

// Total returns the number of spikes across all output neurons.
func (r Run) Total() int {
	total := 0
	for _, c := range r.Counts {
		total += c
	}
	return total
}

// RunStore persists run records.
type RunStore interface {
	// SaveRun stores run, assigning a new ID when run.ID is empty.
	SaveRun(ctx context.Context, run *Run) error

	// GetRun returns the run whose ID equals or starts with id.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	Close() error
}
