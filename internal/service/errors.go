package service

import "errors"

var (
	ErrRecipeInvalid  = errors.New("invalid recipe")
	ErrRecipeNotFound = errors.New("recipe not found")
)
