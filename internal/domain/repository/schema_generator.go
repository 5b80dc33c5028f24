package repository

import (
	"context"

	"schemagen/internal/domain/entity"
)

// SchemaGenerator produces the schema, routes, diagram and explanation for a
// validated request.
type SchemaGenerator interface {
	Generate(ctx context.Context, req entity.GenerationRequest) (entity.GenerationResponse, error)
}
