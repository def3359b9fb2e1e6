package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"recipehub/api/internal/model"
)

type pgRecipeRepository struct {
	db *gorm.DB
}

func NewPGRecipeRepository(db *gorm.DB) RecipeRepository {
	return &pgRecipeRepository{db: db}
}

func (r *pgRecipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	recipe.ID = uuid.NewString()
	return r.db.WithContext(ctx).Create(recipe).Error
}

func (r *pgRecipeRepository) GetByID(ctx context.Context, id string) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := r.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

func (r *pgRecipeRepository) List(ctx context.Context) ([]model.Recipe, error) {
	recipes := make([]model.Recipe, 0)
	err := r.db.WithContext(ctx).Order("seq ASC").Find(&recipes).Error
	return recipes, err
}

// Update overwrites name and ingredients in a single statement so that the
// existence check and the write cannot interleave with a concurrent delete.
func (r *pgRecipeRepository) Update(ctx context.Context, recipe *model.Recipe) error {
	res := r.db.WithContext(ctx).
		Model(&model.Recipe{}).
		Where("id = ?", recipe.ID).
		Updates(map[string]interface{}{
			"name":        recipe.Name,
			"ingredients": recipe.Ingredients,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRecipeRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.Recipe{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRecipeRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Recipe{}).Count(&n).Error
	return n, err
}
