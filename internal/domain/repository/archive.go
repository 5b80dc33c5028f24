package repository

import (
	"context"

	"schemagen/internal/domain/entity"
)

// ArtifactArchive keeps the generated files of each generation.
type ArtifactArchive interface {
	SaveArtifacts(ctx context.Context, generationID string, files []*entity.Artifact) error
	GetArtifacts(ctx context.Context, generationID string) ([]*entity.Artifact, error)
	ListGenerations(ctx context.Context) ([]string, error)
	DeleteGeneration(ctx context.Context, generationID string) error
}
