// Package store persists evaluation run history so past benchmark results
// can be listed, inspected, and exported.
package store

import (
	"context"
	"time"

	"github.com/lexbench/taxeval/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status       model.RunStatus `json:"status,omitempty"`
	CreatedAfter time.Time       `json:"created_after,omitempty"`
	Limit        int             `json:"limit,omitempty"`
}

// Store defines the persistence interface for evaluation runs.
type Store interface {
	// SaveRun assigns the run an ID and creation time, inserts it, and
	// returns the stored record.
	SaveRun(ctx context.Context, run model.Run) (*model.Run, error)
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
