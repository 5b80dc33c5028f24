package repository

import (
	"context"

	"schemagen/internal/domain/entity"
)

// GenerationRepository stores the history of served generations.
type GenerationRepository interface {
	Save(ctx context.Context, g *entity.Generation) error
	GetByID(ctx context.Context, id string) (*entity.Generation, error)
	// List returns records newest first; limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]*entity.Generation, error)
	Delete(ctx context.Context, id string) error
}
