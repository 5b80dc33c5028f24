package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"schemagen/internal/domain/entity"
	"schemagen/internal/domain/erd"
	"schemagen/internal/domain/repository"
	"schemagen/internal/infrastructure/metrics"
)

// DefaultDelay emulates the latency of a real generative backend.
const DefaultDelay = 2 * time.Second

// CannedGenerator serves fixed content selected by output format only. The
// input code and database type never influence the result.
type CannedGenerator struct {
	delay  time.Duration
	logger *slog.Logger
}

func NewCannedGenerator(delay time.Duration, logger *slog.Logger) repository.SchemaGenerator {
	if delay < 0 {
		delay = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CannedGenerator{
		delay:  delay,
		logger: logger,
	}
}

func (g *CannedGenerator) Generate(ctx context.Context, req entity.GenerationRequest) (entity.GenerationResponse, error) {
	metrics.IncInFlight()
	defer metrics.DecInFlight()

	if err := g.wait(ctx); err != nil {
		return entity.GenerationResponse{}, fmt.Errorf("wait for generation: %w", err)
	}

	format := req.Options.OutputFormat
	if format == "" {
		format = entity.DefaultOutputFormat
	}
	schema, ok := CannedSchema(format)
	if !ok {
		metrics.IncError("generator", "unknown_format")
		return entity.GenerationResponse{}, &entity.ValidationError{
			Field:   "options.outputFormat",
			Message: fmt.Sprintf("unsupported output format %q", format),
		}
	}

	resp := entity.GenerationResponse{
		Schema:      schema,
		Explanation: CannedExplanation,
	}
	if req.Options.SuggestAPI {
		resp.APIRoutes = CannedRoutes
	}
	if req.Options.GenerateERD {
		resp.ERDImageURL = erd.EncodeDataURI(CannedDiagram())
	}

	g.logger.Debug("generated canned schema",
		"format", format,
		"routes", req.Options.SuggestAPI,
		"erd", req.Options.GenerateERD,
	)
	return resp, nil
}

// wait suspends for the configured delay without holding anything shared.
func (g *CannedGenerator) wait(ctx context.Context) error {
	if g.delay == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(g.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
