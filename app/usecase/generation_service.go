package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"schemagen/internal/domain/entity"
	"schemagen/internal/domain/erd"
	"schemagen/internal/domain/repository"
	"schemagen/internal/infrastructure/metrics"
	"schemagen/internal/infrastructure/validator"
)

// ErrGenerationFailed is returned for every failure that is not the
// caller's fault; the transport maps it to a generic 500.
var ErrGenerationFailed = errors.New("failed to generate schema")

type GenerationUsecase interface {
	Generate(ctx context.Context, req entity.GenerationRequest) (entity.GenerationResponse, error)
	GetGeneration(ctx context.Context, id string) (*entity.Generation, error)
	ListGenerations(ctx context.Context, limit int) ([]*entity.Generation, error)
	GetArtifacts(ctx context.Context, id string) ([]*entity.Artifact, error)
	ListArchived(ctx context.Context) ([]string, error)
	DeleteGeneration(ctx context.Context, id string) error
}

var _ GenerationUsecase = (*GenerationService)(nil)

type GenerationService struct {
	generator repository.SchemaGenerator
	analyzer  validator.Analyzer // optional
	history   repository.GenerationRepository
	archive   repository.ArtifactArchive // optional

	logger *slog.Logger
}

func NewGenerationService(
	gen repository.SchemaGenerator,
	analyzer validator.Analyzer,
	history repository.GenerationRepository,
	archive repository.ArtifactArchive,
	logger *slog.Logger,
) *GenerationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationService{
		generator: gen,
		analyzer:  analyzer,
		history:   history,
		archive:   archive,
		logger:    logger,
	}
}

// Generate validates req and returns the generated content. Errors are either
// *entity.ValidationError, a context error, or wrap ErrGenerationFailed.
func (s *GenerationService) Generate(ctx context.Context, req entity.GenerationRequest) (entity.GenerationResponse, error) {
	if err := req.Validate(); err != nil {
		var ve *entity.ValidationError
		if errors.As(err, &ve) {
			metrics.IncValidationFailure(ve.Field)
		}
		return entity.GenerationResponse{}, err
	}

	start := time.Now()
	resp, err := s.generator.Generate(ctx, req)
	if err != nil {
		switch {
		case entity.IsValidationError(err):
			return entity.GenerationResponse{}, err
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return entity.GenerationResponse{}, err
		}
		metrics.IncError("generation_service", "generate")
		s.logger.Error("generation failed", "format", req.Options.OutputFormat, "err", err)
		return entity.GenerationResponse{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	took := time.Since(start)

	if s.analyzer != nil {
		if err := s.analyzer.Analyze(req, resp).Err(); err != nil {
			metrics.IncError("generation_service", "output_validation")
			s.logger.Error("generated output rejected", "format", req.Options.OutputFormat, "err", err)
			return entity.GenerationResponse{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
	}

	metrics.IncGeneration(string(req.Options.OutputFormat))
	metrics.ObserveGenerationDuration(took)
	if req.Options.SuggestAPI {
		metrics.IncGenerationOption("routes")
	}
	if req.Options.GenerateERD {
		metrics.IncGenerationOption("erd")
	}

	s.record(ctx, req, resp, took)
	return resp, nil
}

// record stores history and artifacts. Failures are logged and never change
// the response.
func (s *GenerationService) record(ctx context.Context, req entity.GenerationRequest, resp entity.GenerationResponse, took time.Duration) {
	if s.history == nil && s.archive == nil {
		return
	}
	g := entity.NewGeneration(req, took)

	if s.history != nil {
		if err := s.history.Save(ctx, g); err != nil {
			metrics.IncError("generation_service", "history_save")
			s.logger.Warn("save generation history failed", "generation_id", g.ID, "err", err)
		}
	}

	if s.archive != nil {
		var diagram string
		if resp.ERDImageURL != "" {
			src, err := erd.DecodeDataURI(resp.ERDImageURL)
			if err != nil {
				s.logger.Warn("decode diagram for archive failed", "generation_id", g.ID, "err", err)
			}
			diagram = src
		}
		files := entity.ArtifactsFor(g.ID, req.Options.OutputFormat, resp, diagram)
		if err := s.archive.SaveArtifacts(ctx, g.ID, files); err != nil {
			metrics.IncError("generation_service", "archive_save")
			s.logger.Warn("archive artifacts failed", "generation_id", g.ID, "err", err)
		}
	}

	s.logger.Info("generation served",
		"generation_id", g.ID,
		"input_type", req.InputType,
		"format", req.Options.OutputFormat,
		"duration", took,
	)
}

func (s *GenerationService) GetGeneration(ctx context.Context, id string) (*entity.Generation, error) {
	if id == "" {
		return nil, &entity.ValidationError{Field: "id", Message: "id is required"}
	}
	if s.history == nil {
		return nil, fmt.Errorf("generation %s: %w", id, entity.ErrNotFound)
	}
	g, err := s.history.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get generation %s: %w", id, err)
	}
	return g, nil
}

func (s *GenerationService) ListGenerations(ctx context.Context, limit int) ([]*entity.Generation, error) {
	if s.history == nil {
		return []*entity.Generation{}, nil
	}
	gens, err := s.history.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	if gens == nil {
		gens = []*entity.Generation{}
	}
	return gens, nil
}

func (s *GenerationService) GetArtifacts(ctx context.Context, id string) ([]*entity.Artifact, error) {
	if id == "" {
		return nil, &entity.ValidationError{Field: "id", Message: "id is required"}
	}
	if s.archive == nil {
		return nil, fmt.Errorf("artifacts for %s: %w", id, entity.ErrNotFound)
	}
	files, err := s.archive.GetArtifacts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get artifacts for %s: %w", id, err)
	}
	return files, nil
}

// ListArchived returns the IDs of generations with archived artifacts. It is
// empty when no archive is configured.
func (s *GenerationService) ListArchived(ctx context.Context) ([]string, error) {
	if s.archive == nil {
		return []string{}, nil
	}
	ids, err := s.archive.ListGenerations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list archived generations: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (s *GenerationService) DeleteGeneration(ctx context.Context, id string) error {
	if id == "" {
		return &entity.ValidationError{Field: "id", Message: "id is required"}
	}
	if s.history != nil {
		if err := s.history.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete generation: %w", err)
		}
	}
	if s.archive != nil {
		if err := s.archive.DeleteGeneration(ctx, id); err != nil {
			return fmt.Errorf("delete artifacts: %w", err)
		}
	}
	return nil
}
