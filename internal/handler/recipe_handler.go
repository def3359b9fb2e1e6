package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipehub/api/internal/service"
	"recipehub/api/pkg/response"
)

type RecipeHandler struct {
	recipeService service.RecipeService
	logger        *zap.Logger
}

func NewRecipeHandler(recipeService service.RecipeService, logger *zap.Logger) *RecipeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipeHandler{
		recipeService: recipeService,
		logger:        logger,
	}
}

type CreateRecipeRequest struct {
	Name        string   `json:"name" binding:"required"`
	Ingredients []string `json:"ingredients" binding:"required,min=1,dive,required"`
}

// ReplaceRecipeRequest is a whole-record update. ID is optional in the body
// but must match the path when present.
type ReplaceRecipeRequest struct {
	ID          *string  `json:"id"`
	Name        string   `json:"name" binding:"required"`
	Ingredients []string `json:"ingredients" binding:"required,min=1,dive,required"`
}

// List returns every recipe in insertion order.
func (h *RecipeHandler) List(c *gin.Context) {
	recipes, err := h.recipeService.List(c.Request.Context())
	if err != nil {
		h.handleRecipeError(c, err, "failed to list recipes")
		return
	}

	response.OK(c, recipes)
}

func (h *RecipeHandler) Get(c *gin.Context) {
	recipe, err := h.recipeService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleRecipeError(c, err, "failed to get recipe")
		return
	}

	response.OK(c, recipe)
}

// Create stores a new recipe and returns it with its generated id.
func (h *RecipeHandler) Create(c *gin.Context) {
	var req CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	recipe, err := h.recipeService.Create(c.Request.Context(), service.RecipeInput{
		Name:        req.Name,
		Ingredients: req.Ingredients,
	})
	if err != nil {
		h.handleRecipeError(c, err, "failed to create recipe")
		return
	}

	h.logger.Info("recipe created", zap.String("recipe_id", recipe.ID))
	response.Created(c, recipe)
}

// Replace overwrites every field of an existing recipe.
func (h *RecipeHandler) Replace(c *gin.Context) {
	id := c.Param("id")

	var req ReplaceRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if req.ID != nil && *req.ID != id {
		response.NotFound(c, "recipe id in body does not match path")
		return
	}

	recipe, err := h.recipeService.Replace(c.Request.Context(), id, service.RecipeInput{
		Name:        req.Name,
		Ingredients: req.Ingredients,
	})
	if err != nil {
		h.handleRecipeError(c, err, "failed to update recipe")
		return
	}

	h.logger.Info("recipe updated", zap.String("recipe_id", recipe.ID))
	response.OK(c, recipe)
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.recipeService.Delete(c.Request.Context(), id); err != nil {
		h.handleRecipeError(c, err, "failed to delete recipe")
		return
	}

	h.logger.Info("recipe deleted", zap.String("recipe_id", id))
	response.NoContent(c)
}

func (h *RecipeHandler) handleRecipeError(c *gin.Context, err error, internalErrMsg string) {
	switch {
	case errors.Is(err, service.ErrRecipeInvalid):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrRecipeNotFound):
		response.NotFound(c, err.Error())
	default:
		h.logger.Error(internalErrMsg, zap.Error(err))
		response.InternalError(c, internalErrMsg)
	}
}
