package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recipehub/api/internal/model"
	"recipehub/api/internal/repository"
)

// RecipeInput carries the client-controlled fields of a recipe.
type RecipeInput struct {
	Name        string
	Ingredients []string
}

type RecipeService interface {
	Create(ctx context.Context, input RecipeInput) (*model.Recipe, error)
	Get(ctx context.Context, id string) (*model.Recipe, error)
	List(ctx context.Context) ([]model.Recipe, error)
	Replace(ctx context.Context, id string, input RecipeInput) (*model.Recipe, error)
	Delete(ctx context.Context, id string) error
	Seed(ctx context.Context, recipes []RecipeInput) (int, error)
}

type recipeService struct {
	recipeRepo repository.RecipeRepository
}

func NewRecipeService(recipeRepo repository.RecipeRepository) RecipeService {
	return &recipeService{recipeRepo: recipeRepo}
}

func (s *recipeService) Create(ctx context.Context, input RecipeInput) (*model.Recipe, error) {
	recipe, err := buildRecipe(input)
	if err != nil {
		return nil, err
	}

	if err := s.recipeRepo.Create(ctx, recipe); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	return recipe, nil
}

func (s *recipeService) Get(ctx context.Context, id string) (*model.Recipe, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return recipe, nil
}

func (s *recipeService) List(ctx context.Context) ([]model.Recipe, error) {
	recipes, err := s.recipeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	return recipes, nil
}

// Replace reports a missing record before an invalid one. An invalid input
// never writes, so only the valid path needs Update's atomic existence check.
func (s *recipeService) Replace(ctx context.Context, id string, input RecipeInput) (*model.Recipe, error) {
	recipe, err := buildRecipe(input)
	if err != nil {
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, err
	}
	recipe.ID = id

	if err := s.recipeRepo.Update(ctx, recipe); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("update recipe: %w", err)
	}
	return recipe, nil
}

func (s *recipeService) Delete(ctx context.Context, id string) error {
	if err := s.recipeRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRecipeNotFound
		}
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

// Seed inserts recipes only into an empty store so that restarts against a
// durable backend do not duplicate the seed set.
func (s *recipeService) Seed(ctx context.Context, recipes []RecipeInput) (int, error) {
	n, err := s.recipeRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count recipes: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	created := 0
	for _, input := range recipes {
		if _, err := s.Create(ctx, input); err != nil {
			return created, fmt.Errorf("seed %q: %w", input.Name, err)
		}
		created++
	}
	return created, nil
}

func buildRecipe(input RecipeInput) (*model.Recipe, error) {
	if err := validateName(input.Name); err != nil {
		return nil, err
	}
	if err := validateIngredients(input.Ingredients); err != nil {
		return nil, err
	}
	return &model.Recipe{
		Name:        input.Name,
		Ingredients: append(model.StringSlice(nil), input.Ingredients...),
	}, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrRecipeInvalid)
	}
	return nil
}

func validateIngredients(ingredients []string) error {
	if len(ingredients) == 0 {
		return fmt.Errorf("%w: ingredients is required", ErrRecipeInvalid)
	}
	for i, ing := range ingredients {
		if strings.TrimSpace(ing) == "" {
			return fmt.Errorf("%w: ingredients[%d] must not be empty", ErrRecipeInvalid, i)
		}
	}
	return nil
}

var _ RecipeService = (*recipeService)(nil)
