package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemagen/internal/domain/entity"
)

func testGeneration(id string, minutesAgo int) *entity.Generation {
	return &entity.Generation{
		ID:           id,
		InputType:    entity.InputKindMarkup,
		InputLength:  12,
		OutputFormat: entity.OutputFormatSQL,
		CreatedAt:    time.Now().Add(-time.Duration(minutesAgo) * time.Minute),
	}
}

func TestGenerationRepo_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewGenerationRepo()

	require.NoError(t, repo.Save(ctx, testGeneration("a", 0)))

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, entity.OutputFormatSQL, got.OutputFormat)

	got.OutputFormat = entity.OutputFormatPrisma
	again, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, entity.OutputFormatSQL, again.OutputFormat, "stored record must not alias caller copies")
}

func TestGenerationRepo_SaveRequiresID(t *testing.T) {
	repo := NewGenerationRepo()
	require.Error(t, repo.Save(context.Background(), &entity.Generation{}))
	require.Error(t, repo.Save(context.Background(), nil))
}

func TestGenerationRepo_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewGenerationRepo()
	require.NoError(t, repo.Save(ctx, testGeneration("old", 30)))
	require.NoError(t, repo.Save(ctx, testGeneration("new", 1)))
	require.NoError(t, repo.Save(ctx, testGeneration("mid", 10)))

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new", all[0].ID)
	assert.Equal(t, "mid", all[1].ID)
	assert.Equal(t, "old", all[2].ID)

	limited, err := repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestGenerationRepo_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewGenerationRepo()
	require.NoError(t, repo.Save(ctx, testGeneration("a", 0)))

	require.NoError(t, repo.Delete(ctx, "a"))
	_, err := repo.GetByID(ctx, "a")
	assert.True(t, errors.Is(err, entity.ErrNotFound))

	err = repo.Delete(ctx, "a")
	assert.True(t, errors.Is(err, entity.ErrNotFound))
}
