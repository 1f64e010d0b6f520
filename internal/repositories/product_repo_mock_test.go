package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokoadmin/internal/models"
)

func TestMockProductRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMockProductRepository()

	created, err := repo.Create(ctx, models.ProductPayload{Name: "Lamp", Price: 300, Colors: []string{"red"}})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.NotNil(t, created.CreatedAt)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got.Name)

	got.Colors[0] = "mutated"
	again, _ := repo.GetByID(ctx, created.ID)
	assert.Equal(t, []string{"red"}, again.Colors)

	updated, err := repo.Update(ctx, created.ID, models.ProductPayload{Name: "Desk lamp", Price: 350})
	require.NoError(t, err)
	assert.Equal(t, "Desk lamp", updated.Name)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.GetByID(ctx, created.ID)
	assert.True(t, errors.Is(err, ErrProductNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, created.ID), ErrProductNotFound))

	_, err = repo.Update(ctx, "nope", models.ProductPayload{})
	assert.True(t, errors.Is(err, ErrProductNotFound))
}

func TestMockProductRepository_SearchFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	repo := NewMockProductRepository()
	repo.Seed(models.Product{ID: "a", Name: "Gaming Mouse", Price: 1200})
	repo.Seed(models.Product{ID: "b", Name: "Mousepad", Price: 150})
	repo.Seed(models.Product{ID: "c", Name: "Keyboard", Price: 2500})

	desc, err := repo.Search(ctx, models.SearchQuery{Name: "MOUSE"})
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, "a", desc[0].ID)
	assert.Equal(t, "b", desc[1].ID)

	asc, err := repo.Search(ctx, models.SearchQuery{Sort: models.SortAsc})
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{asc[0].ID, asc[1].ID, asc[2].ID})

	none, err := repo.Search(ctx, models.SearchQuery{Name: "chair"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
