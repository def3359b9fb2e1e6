package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipehub/api/internal/model"
)

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func recipeBackends(t *testing.T) map[string]func() RecipeRepository {
	return map[string]func() RecipeRepository{
		"memory": NewMemoryRecipeRepository,
		"redis": func() RecipeRepository {
			return NewRedisRecipeRepository(newTestRedisClient(t), "test-recipes")
		},
	}
}

func TestRecipeRepository_CreateListOrder(t *testing.T) {
	for name, newRepo := range recipeBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo()

			names := []string{"boiled white rice", "milkshake", "chocolate milk"}
			ids := make([]string, 0, len(names))
			for _, n := range names {
				rec := &model.Recipe{Name: n, Ingredients: model.StringSlice{"a", "b"}}
				require.NoError(t, repo.Create(ctx, rec))
				require.NotEmpty(t, rec.ID)
				ids = append(ids, rec.ID)
			}

			list, err := repo.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 3)
			for i, rec := range list {
				assert.Equal(t, ids[i], rec.ID)
				assert.Equal(t, names[i], rec.Name)
				assert.Equal(t, model.StringSlice{"a", "b"}, rec.Ingredients)
			}

			n, err := repo.Count(ctx)
			require.NoError(t, err)
			assert.EqualValues(t, 3, n)
		})
	}
}

func TestRecipeRepository_UpdateKeepsPosition(t *testing.T) {
	for name, newRepo := range recipeBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo()

			first := &model.Recipe{Name: "first", Ingredients: model.StringSlice{"x"}}
			second := &model.Recipe{Name: "second", Ingredients: model.StringSlice{"y"}}
			require.NoError(t, repo.Create(ctx, first))
			require.NoError(t, repo.Create(ctx, second))

			updated := &model.Recipe{ID: first.ID, Name: "foo", Ingredients: model.StringSlice{"beer", "pretzels"}}
			require.NoError(t, repo.Update(ctx, updated))

			got, err := repo.GetByID(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, "foo", got.Name)
			assert.Equal(t, model.StringSlice{"beer", "pretzels"}, got.Ingredients)

			list, err := repo.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, first.ID, list[0].ID)
			assert.Equal(t, "foo", list[0].Name)
			assert.Equal(t, second.ID, list[1].ID)
		})
	}
}

func TestRecipeRepository_MissingID(t *testing.T) {
	for name, newRepo := range recipeBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo()

			kept := &model.Recipe{Name: "kept", Ingredients: model.StringSlice{"x"}}
			require.NoError(t, repo.Create(ctx, kept))

			_, err := repo.GetByID(ctx, "does-not-exist")
			assert.ErrorIs(t, err, ErrNotFound)

			err = repo.Update(ctx, &model.Recipe{ID: "does-not-exist", Name: "n", Ingredients: model.StringSlice{"i"}})
			assert.ErrorIs(t, err, ErrNotFound)

			assert.ErrorIs(t, repo.Delete(ctx, "does-not-exist"), ErrNotFound)

			list, err := repo.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, kept.ID, list[0].ID)
		})
	}
}

func TestRecipeRepository_DeleteTwice(t *testing.T) {
	for name, newRepo := range recipeBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo()

			rec := &model.Recipe{Name: "gone", Ingredients: model.StringSlice{"x"}}
			require.NoError(t, repo.Create(ctx, rec))

			require.NoError(t, repo.Delete(ctx, rec.ID))
			assert.ErrorIs(t, repo.Delete(ctx, rec.ID), ErrNotFound)

			list, err := repo.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)
			assert.NotNil(t, list)
		})
	}
}

func TestMemoryRecipeRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRecipeRepository()

	rec := &model.Recipe{Name: "soup", Ingredients: model.StringSlice{"water", "salt"}}
	require.NoError(t, repo.Create(ctx, rec))
	rec.Ingredients[0] = "mutated"

	list, err := repo.List(ctx)
	require.NoError(t, err)
	list[0].Ingredients[1] = "mutated"

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StringSlice{"water", "salt"}, got.Ingredients)
}

func TestMemoryRecipeRepository_ConcurrentCreateUniqueIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRecipeRepository()

	const workers = 16
	const perWorker = 50

	var wg sync.WaitGroup
	idCh := make(chan string, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				rec := &model.Recipe{Name: "r", Ingredients: model.StringSlice{"i"}}
				if err := repo.Create(ctx, rec); err == nil {
					idCh <- rec.ID
				}
			}
		}()
	}
	wg.Wait()
	close(idCh)

	seen := make(map[string]struct{})
	for id := range idCh {
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, workers*perWorker)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, workers*perWorker, n)
}
