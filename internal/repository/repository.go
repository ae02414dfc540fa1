package repository

import (
	"fmt"

	"github.com/yourusername/edge-lab/internal/database"
)

// Repositories aggregates all repository implementations
type Repositories struct {
	Projection ProjectionRepository
}

// NewRepositories creates all repositories backed by db
func NewRepositories(db *database.DB) (*Repositories, error) {
	projection, err := NewPostgresProjectionRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create projection repository: %w", err)
	}
	return &Repositories{Projection: projection}, nil
}
