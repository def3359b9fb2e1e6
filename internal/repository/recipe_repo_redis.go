package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"recipehub/api/internal/model"
)

// redisRecipeRepository stores every recipe as a JSON value under
// <prefix>:item:<id> and keeps insertion order in the list <prefix>:order.
type redisRecipeRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisRecipeRepository(client *redis.Client, prefix string) RecipeRepository {
	if prefix == "" {
		prefix = "recipes"
	}
	return &redisRecipeRepository{client: client, prefix: prefix}
}

func (r *redisRecipeRepository) itemKey(id string) string {
	return r.prefix + ":item:" + id
}

func (r *redisRecipeRepository) orderKey() string {
	return r.prefix + ":order"
}

func (r *redisRecipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	recipe.ID = uuid.NewString()
	data, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("encode recipe: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.itemKey(recipe.ID), data, 0)
		pipe.RPush(ctx, r.orderKey(), recipe.ID)
		return nil
	})
	return err
}

func (r *redisRecipeRepository) GetByID(ctx context.Context, id string) (*model.Recipe, error) {
	data, err := r.client.Get(ctx, r.itemKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var recipe model.Recipe
	if err := json.Unmarshal(data, &recipe); err != nil {
		return nil, fmt.Errorf("decode recipe %s: %w", id, err)
	}
	return &recipe, nil
}

func (r *redisRecipeRepository) List(ctx context.Context) ([]model.Recipe, error) {
	ids, err := r.client.LRange(ctx, r.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	recipes := make([]model.Recipe, 0, len(ids))
	if len(ids) == 0 {
		return recipes, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.itemKey(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for i, v := range vals {
		// Deleted between LRANGE and MGET.
		s, ok := v.(string)
		if !ok {
			continue
		}
		var recipe model.Recipe
		if err := json.Unmarshal([]byte(s), &recipe); err != nil {
			return nil, fmt.Errorf("decode recipe %s: %w", ids[i], err)
		}
		recipe.Seq = int64(i + 1)
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}

// Update relies on SET XX so the write only lands if the key still exists.
func (r *redisRecipeRepository) Update(ctx context.Context, recipe *model.Recipe) error {
	data, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("encode recipe: %w", err)
	}

	ok, err := r.client.SetXX(ctx, r.itemKey(recipe.ID), data, 0).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (r *redisRecipeRepository) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.itemKey(id))
		pipe.LRem(ctx, r.orderKey(), 0, id)
		return nil
	})
	if err != nil {
		return err
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *redisRecipeRepository) Count(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, r.orderKey()).Result()
}
