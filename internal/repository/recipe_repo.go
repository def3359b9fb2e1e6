package repository

import (
	"context"
	"errors"

	"recipehub/api/internal/model"
)

// ErrNotFound is returned by every backend when the addressed recipe does not exist.
var ErrNotFound = errors.New("record not found")

// RecipeRepository is the storage contract for recipes. Implementations
// assign IDs on Create, return records in insertion order from List, and apply
// every mutation atomically with respect to the others.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *model.Recipe) error
	GetByID(ctx context.Context, id string) (*model.Recipe, error)
	List(ctx context.Context) ([]model.Recipe, error)
	Update(ctx context.Context, recipe *model.Recipe) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}
