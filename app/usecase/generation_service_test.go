package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemagen/internal/domain/entity"
	"schemagen/internal/infrastructure/generator"
	"schemagen/internal/infrastructure/store/filesystem"
	"schemagen/internal/infrastructure/store/memory"
	"schemagen/internal/infrastructure/validator"
)

type stubGenerator struct {
	calls int
	resp  entity.GenerationResponse
	err   error
}

func (g *stubGenerator) Generate(_ context.Context, _ entity.GenerationRequest) (entity.GenerationResponse, error) {
	g.calls++
	return g.resp, g.err
}

type failingHistory struct{ *memory.GenerationRepo }

func (failingHistory) Save(context.Context, *entity.Generation) error {
	return errors.New("disk full")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validRequest() entity.GenerationRequest {
	return entity.GenerationRequest{
		InputCode: "<div>x</div>",
		InputType: entity.InputKindMarkup,
		Options: entity.GenerationOptions{
			OutputFormat: entity.OutputFormatSQL,
			DatabaseType: entity.TargetDatabasePostgreSQL,
			SuggestAPI:   true,
			GenerateERD:  true,
		},
	}
}

func TestGenerate_EmptyInputNeverReachesGenerator(t *testing.T) {
	gen := &stubGenerator{}
	svc := NewGenerationService(gen, validator.NewOutputAnalyzer(), nil, nil, quietLogger())

	for _, input := range []string{""} {
		req := validRequest()
		req.InputCode = input
		_, err := svc.Generate(context.Background(), req)
		require.Error(t, err)

		var ve *entity.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "inputCode", ve.Field)
	}
	assert.Zero(t, gen.calls)
}

func TestGenerate_UnknownFormatIsValidationError(t *testing.T) {
	gen := &stubGenerator{}
	svc := NewGenerationService(gen, validator.NewOutputAnalyzer(), nil, nil, quietLogger())

	req := validRequest()
	req.Options.OutputFormat = "xml"
	_, err := svc.Generate(context.Background(), req)
	assert.True(t, entity.IsValidationError(err))
	assert.Zero(t, gen.calls)
}

func TestGenerate_InternalFailureIsGeneric(t *testing.T) {
	gen := &stubGenerator{err: errors.New("boom")}
	svc := NewGenerationService(gen, validator.NewOutputAnalyzer(), nil, nil, quietLogger())

	resp, err := svc.Generate(context.Background(), validRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGenerationFailed))
	assert.Equal(t, entity.GenerationResponse{}, resp)
}

func TestGenerate_RejectsInvalidOutput(t *testing.T) {
	gen := &stubGenerator{resp: entity.GenerationResponse{Schema: "", Explanation: "x"}}
	svc := NewGenerationService(gen, validator.NewOutputAnalyzer(), nil, nil, quietLogger())

	_, err := svc.Generate(context.Background(), validRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGenerationFailed))
	assert.Equal(t, 1, gen.calls)
}

func TestGenerate_ContextErrorsPassThrough(t *testing.T) {
	gen := &stubGenerator{err: context.Canceled}
	svc := NewGenerationService(gen, validator.NewOutputAnalyzer(), nil, nil, quietLogger())

	_, err := svc.Generate(context.Background(), validRequest())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrGenerationFailed))
}

func TestGenerate_RecordsHistoryAndArtifacts(t *testing.T) {
	ctx := context.Background()
	history := memory.NewGenerationRepo()
	archive, err := filesystem.NewArchiveRepository(t.TempDir())
	require.NoError(t, err)

	svc := NewGenerationService(generator.NewCannedGenerator(0, quietLogger()), validator.NewOutputAnalyzer(), history, archive, quietLogger())

	resp, err := svc.Generate(ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, generator.CannedRoutes, resp.APIRoutes)

	gens, err := svc.ListGenerations(ctx, 0)
	require.NoError(t, err)
	require.Len(t, gens, 1)
	g := gens[0]
	assert.Equal(t, entity.OutputFormatSQL, g.OutputFormat)
	assert.Equal(t, len("<div>x</div>"), g.InputLength)

	files, err := svc.GetArtifacts(ctx, g.ID)
	require.NoError(t, err)
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"schema.sql", "routes.txt", "erd.mmd", "explanation.md"}, names)
	assert.Equal(t, generator.CannedDiagram(), files[2].Content)

	ids, err := svc.ListArchived(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{g.ID}, ids)

	require.NoError(t, svc.DeleteGeneration(ctx, g.ID))
	ids, err = svc.ListArchived(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	_, err = svc.GetGeneration(ctx, g.ID)
	assert.True(t, errors.Is(err, entity.ErrNotFound))
	_, err = svc.GetArtifacts(ctx, g.ID)
	assert.True(t, errors.Is(err, entity.ErrNotFound))
}

func TestGenerate_HistoryFailureDoesNotFailResponse(t *testing.T) {
	svc := NewGenerationService(generator.NewCannedGenerator(0, quietLogger()), validator.NewOutputAnalyzer(), &failingHistory{memory.NewGenerationRepo()}, nil, quietLogger())

	resp, err := svc.Generate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Schema)
}

func TestHistoryDisabled(t *testing.T) {
	ctx := context.Background()
	svc := NewGenerationService(&stubGenerator{}, nil, nil, nil, quietLogger())

	gens, err := svc.ListGenerations(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, gens)

	_, err = svc.GetGeneration(ctx, "x")
	assert.True(t, errors.Is(err, entity.ErrNotFound))

	_, err = svc.GetGeneration(ctx, "")
	assert.True(t, entity.IsValidationError(err))

	ids, err := svc.ListArchived(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
