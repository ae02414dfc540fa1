// Package repository persists projection runs in PostgreSQL.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/edge-lab/internal/models"
)

// ProjectionRepository defines the interface for projection run storage
type ProjectionRepository interface {
	SaveRun(ctx context.Context, run *models.ProjectionRun) error
	GetRun(ctx context.Context, id uuid.UUID) (*models.ProjectionRun, error)
	// ListRecent returns run headers, newest first, without their projections
	ListRecent(ctx context.Context, limit int) ([]*models.ProjectionRun, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
