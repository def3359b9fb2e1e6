package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"recipehub/api/internal/model"
)

type memoryRecipeRepository struct {
	mu      sync.RWMutex
	recipes map[string]model.Recipe
	order   []string
	seq     int64
}

func NewMemoryRecipeRepository() RecipeRepository {
	return &memoryRecipeRepository{
		recipes: make(map[string]model.Recipe),
	}
}

func (r *memoryRecipeRepository) Create(_ context.Context, recipe *model.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	for {
		if _, taken := r.recipes[id]; !taken {
			break
		}
		id = uuid.NewString()
	}

	r.seq++
	recipe.ID = id
	recipe.Seq = r.seq
	r.recipes[id] = recipe.Clone()
	r.order = append(r.order, id)
	return nil
}

func (r *memoryRecipeRepository) GetByID(_ context.Context, id string) (*model.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.recipes[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := rec.Clone()
	return &out, nil
}

func (r *memoryRecipeRepository) List(_ context.Context) ([]model.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Recipe, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.recipes[id].Clone())
	}
	return out, nil
}

func (r *memoryRecipeRepository) Update(_ context.Context, recipe *model.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.recipes[recipe.ID]
	if !ok {
		return ErrNotFound
	}
	recipe.Seq = existing.Seq
	recipe.CreatedAt = existing.CreatedAt
	r.recipes[recipe.ID] = recipe.Clone()
	return nil
}

func (r *memoryRecipeRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.recipes[id]; !ok {
		return ErrNotFound
	}
	delete(r.recipes, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memoryRecipeRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.order)), nil
}
