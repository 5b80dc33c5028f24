package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"schemagen/internal/domain/entity"
	"schemagen/internal/domain/repository"
	"schemagen/internal/infrastructure/metrics"
)

const metadataFile = "metadata.json"

// ArchiveRepository writes every generation's artifacts to <basePath>/<id>/.
type ArchiveRepository struct {
	basePath string
}

var _ repository.ArtifactArchive = (*ArchiveRepository)(nil)

func NewArchiveRepository(basePath string) (*ArchiveRepository, error) {
	info, err := os.Stat(basePath)
	if os.IsNotExist(err) {
		if mkErr := os.MkdirAll(basePath, 0o755); mkErr != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", basePath, mkErr)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to check directory %s: %w", basePath, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("path %s exists but is not a directory", basePath)
	}

	return &ArchiveRepository{
		basePath: basePath,
	}, nil
}

func (r *ArchiveRepository) GetBasePath() string {
	return r.basePath
}

type metadata struct {
	GenerationID string             `json:"generation_id"`
	CreatedAt    time.Time          `json:"created_at"`
	FilesCount   int                `json:"files_count"`
	Files        []*entity.Artifact `json:"files"`
}

func (r *ArchiveRepository) SaveArtifacts(ctx context.Context, generationID string, files []*entity.Artifact) error {
	metrics.IncStoreOp("archive", "put")

	dir, err := r.generationDir(generationID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create generation directory: %w", err)
	}

	index := make([]*entity.Artifact, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := filepath.Base(file.Name)
		if name != file.Name || name == metadataFile {
			return fmt.Errorf("invalid artifact name %q", file.Name)
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(file.Content), 0o644); err != nil {
			return fmt.Errorf("failed to write file %s: %w", name, err)
		}
		index = append(index, &entity.Artifact{GenerationID: generationID, Name: name, Kind: file.Kind})
	}

	meta := metadata{
		GenerationID: generationID,
		CreatedAt:    time.Now().UTC(),
		FilesCount:   len(index),
		Files:        index,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

func (r *ArchiveRepository) GetArtifacts(ctx context.Context, generationID string) ([]*entity.Artifact, error) {
	metrics.IncStoreOp("archive", "get")

	dir, err := r.generationDir(generationID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("generation %s: %w", generationID, entity.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	for _, file := range meta.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := os.ReadFile(filepath.Join(dir, filepath.Base(file.Name)))
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", file.Name, err)
		}
		file.Content = string(content)
	}
	return meta.Files, nil
}

func (r *ArchiveRepository) ListGenerations(ctx context.Context) ([]string, error) {
	metrics.IncStoreOp("archive", "list")

	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(r.basePath, e.Name(), metadataFile)); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *ArchiveRepository) DeleteGeneration(ctx context.Context, generationID string) error {
	metrics.IncStoreOp("archive", "delete")

	dir, err := r.generationDir(generationID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete generation directory: %w", err)
	}
	return nil
}

func (r *ArchiveRepository) generationDir(generationID string) (string, error) {
	if generationID == "" || strings.ContainsAny(generationID, `/\`) || generationID == "." || generationID == ".." {
		return "", errors.New("invalid generation id")
	}
	return filepath.Join(r.basePath, generationID), nil
}
