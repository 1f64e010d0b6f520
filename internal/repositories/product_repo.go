package repositories

import (
	"context"
	"errors"

	"tokoadmin/internal/models"
)

// ErrProductNotFound is returned when the backend has no product with the requested ID.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository is the inventory backend as seen by the admin service.
type ProductRepository interface {
	Search(ctx context.Context, q models.SearchQuery) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, payload models.ProductPayload) (*models.Product, error)
	Update(ctx context.Context, id string, payload models.ProductPayload) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}
