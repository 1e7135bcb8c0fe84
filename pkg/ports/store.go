package ports

import (
	"context"

	"github.com/aretw0/aime/pkg/domain"
)

// TreeStore defines the interface for persisting generated runs.
type TreeStore interface {
	// Save persists the run under runID, replacing any previous value.
	Save(ctx context.Context, runID string, run *domain.Run) error

	// Load retrieves the run for runID.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.Run, error)

	// Delete removes the run. Deleting a missing run is not an error.
	Delete(ctx context.Context, runID string) error

	// List returns the IDs of all stored runs.
	List(ctx context.Context) ([]string, error)
}
