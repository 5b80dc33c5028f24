package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"schemagen/internal/domain/entity"
	"schemagen/internal/domain/repository"
	"schemagen/internal/infrastructure/metrics"
)

// GenerationRepo keeps generation history in process memory. It is used
// when no MongoDB is configured.
type GenerationRepo struct {
	mu          sync.RWMutex
	generations map[string]*entity.Generation
}

func NewGenerationRepo() *GenerationRepo {
	return &GenerationRepo{generations: make(map[string]*entity.Generation)}
}

var _ repository.GenerationRepository = (*GenerationRepo)(nil)

func (r *GenerationRepo) Save(_ context.Context, g *entity.Generation) error {
	metrics.IncStoreOp("memory", "put")
	if g == nil || g.ID == "" {
		return fmt.Errorf("generation id is required")
	}
	cp := *g

	r.mu.Lock()
	defer r.mu.Unlock()
	r.generations[g.ID] = &cp
	return nil
}

func (r *GenerationRepo) GetByID(_ context.Context, id string) (*entity.Generation, error) {
	metrics.IncStoreOp("memory", "get")

	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generations[id]
	if !ok {
		return nil, fmt.Errorf("generation %s: %w", id, entity.ErrNotFound)
	}
	cp := *g
	return &cp, nil
}

func (r *GenerationRepo) List(_ context.Context, limit int) ([]*entity.Generation, error) {
	metrics.IncStoreOp("memory", "list")

	r.mu.RLock()
	out := make([]*entity.Generation, 0, len(r.generations))
	for _, g := range r.generations {
		cp := *g
		out = append(out, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *GenerationRepo) Delete(_ context.Context, id string) error {
	metrics.IncStoreOp("memory", "delete")

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.generations[id]; !ok {
		return fmt.Errorf("generation %s: %w", id, entity.ErrNotFound)
	}
	delete(r.generations, id)
	return nil
}
