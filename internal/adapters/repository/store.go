// Package repository defines the report store interface and errors.
package repository

import (
	"context"

	"github.com/ahadullabaig/Bean/internal/domain/model"
	"github.com/ahadullabaig/Bean/internal/domain/types"
)

// Store provides read/write access to report state.
type Store interface {
	// Create inserts a new report. Returns ErrDuplicateID if the ID is taken.
	Create(ctx context.Context, report *model.Report) error

	// Get returns a copy of the report.
	// Returns ErrNotFound if the report is unknown.
	Get(ctx context.Context, id string) (model.Report, error)

	// Update applies mutate to the report atomically and bumps UpdatedAt.
	// An error from mutate aborts the update and is returned unchanged.
	Update(ctx context.Context, id string, mutate func(*model.Report) error) error

	// Delete removes a report. Returns ErrNotFound if the report is unknown.
	Delete(ctx context.Context, id string) error

	// Recent returns summaries of the most recently created reports,
	// newest first. Returns ErrInvalidLimit for a non-positive limit.
	Recent(ctx context.Context, limit int) ([]types.Summary, error)

	// Count returns the number of reports tracked in the store.
	Count(ctx context.Context) int
}
